package account

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("user already exists")
	// ErrInvalidCredentials hides whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Role grants access to the admin surface.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Account is a registered user and the owner of exactly one wallet.
type Account struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	Role         Role            `json:"role"`
	PasswordHash []byte          `json:"-"`
	Balance      decimal.Decimal `json:"walletBalance"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// RegisterInput is the sign-up payload.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// ListQuery pages through accounts, newest first. Search matches name, email
// or phone case-insensitively.
type ListQuery struct {
	Search string
	Offset int
	Limit  int
}

// ListResult is one page of accounts.
type ListResult struct {
	Accounts []Account
	Total    int
}

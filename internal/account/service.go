package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/rechargehub/rechargehub/internal/ledger"
	"github.com/rechargehub/rechargehub/internal/validate"
)

const minPasswordLen = 6

// Wallets is the slice of the ledger the account service needs.
type Wallets interface {
	OpenWallet(ctx context.Context, accountID string) error
	Balance(ctx context.Context, accountID string) (decimal.Decimal, error)
}

// Service manages the account lifecycle.
type Service struct {
	repo    Repository
	wallets Wallets
	cost    int
	now     func() time.Time
}

// NewService creates a new account service.
func NewService(repo Repository, wallets Wallets) *Service {
	return &Service{repo: repo, wallets: wallets, cost: bcrypt.DefaultCost, now: time.Now}
}

// WithHashCost overrides the bcrypt cost, which tests lower to MinCost.
func (s *Service) WithHashCost(cost int) *Service {
	s.cost = cost
	return s
}

// Validate checks a sign-up payload.
func (in RegisterInput) Validate() error {
	errs := &validate.Errors{}
	errs.Required("name", in.Name, "Name is required")
	if !validate.IsEmail(strings.TrimSpace(in.Email)) {
		errs.Add("email", "Please enter a valid email")
	}
	if len(in.Password) < minPasswordLen {
		errs.Add("password", "Password must be at least 6 characters")
	}
	errs.MobileNumber("phone", strings.TrimSpace(in.Phone))
	return errs.Err()
}

// Register creates a user account and opens its zero-balance wallet.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Account, error) {
	return s.create(ctx, in, RoleUser)
}

func (s *Service) create(ctx context.Context, in RegisterInput, role Role) (Account, error) {
	if err := in.Validate(); err != nil {
		return Account{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return Account{}, err
	}

	acc := Account{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(in.Name),
		Email:        normalizeEmail(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         role,
		PasswordHash: hash,
		Balance:      decimal.Zero,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.repo.Create(ctx, acc); err != nil {
		return Account{}, err
	}
	if err := s.wallets.OpenWallet(ctx, acc.ID); err != nil {
		return Account{}, fmt.Errorf("open wallet: %w", err)
	}
	return acc, nil
}

// Authenticate verifies an email and password pair.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Account, error) {
	acc, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return Account{}, err
	}
	if err := bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(password)); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	return s.withBalance(ctx, acc)
}

// Get returns an account with its current wallet balance.
func (s *Service) Get(ctx context.Context, id string) (Account, error) {
	acc, err := s.repo.Get(ctx, id)
	if err != nil {
		return Account{}, err
	}
	return s.withBalance(ctx, acc)
}

// List pages through accounts for the admin view.
func (s *Service) List(ctx context.Context, q ListQuery) (ListResult, error) {
	q.Search = strings.TrimSpace(q.Search)
	accounts, err := s.repo.List(ctx, q)
	if err != nil {
		return ListResult{}, err
	}
	total, err := s.repo.Count(ctx, q.Search)
	if err != nil {
		return ListResult{}, err
	}
	for i := range accounts {
		if accounts[i], err = s.withBalance(ctx, accounts[i]); err != nil {
			return ListResult{}, err
		}
	}
	return ListResult{Accounts: accounts, Total: total}, nil
}

// Count returns the number of registered accounts.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx, "")
}

// SetRole changes the role of an account.
func (s *Service) SetRole(ctx context.Context, id string, role Role) (Account, error) {
	if !role.Valid() {
		return Account{}, validate.Field("role", "Invalid role")
	}
	if err := s.repo.SetRole(ctx, id, role); err != nil {
		return Account{}, err
	}
	return s.Get(ctx, id)
}

// EnsureAdmin creates the admin account if the email is unused, or promotes
// the existing account. It reports whether a new account was created.
func (s *Service) EnsureAdmin(ctx context.Context, in RegisterInput) (Account, bool, error) {
	existing, err := s.repo.FindByEmail(ctx, normalizeEmail(in.Email))
	switch {
	case err == nil:
		if existing.Role != RoleAdmin {
			if err := s.repo.SetRole(ctx, existing.ID, RoleAdmin); err != nil {
				return Account{}, false, err
			}
			existing.Role = RoleAdmin
		}
		return existing, false, nil
	case !errors.Is(err, ErrNotFound):
		return Account{}, false, err
	}

	acc, err := s.create(ctx, in, RoleAdmin)
	if err != nil {
		return Account{}, false, err
	}
	return acc, true, nil
}

func (s *Service) withBalance(ctx context.Context, acc Account) (Account, error) {
	balance, err := s.wallets.Balance(ctx, acc.ID)
	switch {
	case errors.Is(err, ledger.ErrWalletNotFound):
		// Registration stores the account and opens the wallet as two
		// writes; a wallet lost in between is opened here.
		if err := s.wallets.OpenWallet(ctx, acc.ID); err != nil {
			return Account{}, fmt.Errorf("open wallet: %w", err)
		}
		acc.Balance = decimal.Zero
	case err != nil:
		return Account{}, err
	default:
		acc.Balance = balance
	}
	return acc, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

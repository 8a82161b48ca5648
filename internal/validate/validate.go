// Package validate holds the typed validation error shared by every input
// struct that is checked before it reaches business logic.
package validate

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrValidation is matched by errors.Is for any *Errors value.
var ErrValidation = errors.New("validation failed")

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors collects field errors. The zero value is ready to use.
type Errors struct {
	Fields []FieldError `json:"errors"`
}

// Add records a failure for field.
func (e *Errors) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Err returns e when at least one field failed and nil otherwise, so callers
// can end a validation function with `return errs.Err()`.
func (e *Errors) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *Errors) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

// Is lets errors.Is(err, ErrValidation) succeed.
func (e *Errors) Is(target error) bool {
	return target == ErrValidation
}

// Field returns a single-field validation error.
func Field(field, message string) error {
	errs := &Errors{}
	errs.Add(field, message)
	return errs
}

// Required adds a failure when value is blank.
func (e *Errors) Required(field, value, message string) {
	if strings.TrimSpace(value) == "" {
		e.Add(field, message)
	}
}

// MaxAmount is the exclusive upper bound for amounts and balances. The
// storage columns are NUMERIC(14,2).
var MaxAmount = decimal.New(1, 12)

// HasMoneyScale reports whether amount has at most two decimal places.
func HasMoneyScale(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(2))
}

// PositiveAmount adds a failure unless amount >= 1, mirroring the minimum
// accepted by the payment forms. Amounts with more than two decimal places
// or at or above MaxAmount are rejected, never rounded.
func (e *Errors) PositiveAmount(field string, amount decimal.Decimal, message string) {
	switch {
	case amount.LessThan(decimal.NewFromInt(1)):
		e.Add(field, message)
	default:
		e.MoneyBounds(field, amount)
	}
}

// MoneyBounds adds a failure when amount has more than two decimal places or
// does not fit the storage precision.
func (e *Errors) MoneyBounds(field string, amount decimal.Decimal) {
	label := strings.ToUpper(field[:1]) + field[1:]
	switch {
	case !HasMoneyScale(amount):
		e.Add(field, label+" must have at most 2 decimal places")
	case amount.GreaterThanOrEqual(MaxAmount):
		e.Add(field, label+" must be less than "+MaxAmount.String())
	}
}

// MobileNumber adds a failure unless number is exactly ten ASCII digits.
func (e *Errors) MobileNumber(field, number string) {
	if !IsMobileNumber(number) {
		e.Add(field, "Mobile number must be 10 digits")
	}
}

// IsMobileNumber reports whether number is exactly ten ASCII digits.
func IsMobileNumber(number string) bool {
	if len(number) != 10 {
		return false
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsEmail performs a permissive syntactic email check.
func IsEmail(addr string) bool {
	parsed, err := mail.ParseAddress(addr)
	return err == nil && parsed.Address == addr && strings.Contains(addr, "@")
}

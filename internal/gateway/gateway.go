// Package gateway authorizes payments drawn from outside the wallet.
package gateway

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Decision statuses.
const (
	StatusApproved = "approved"
	StatusDeclined = "declined"
)

// Authorization is the request sent to an external payment processor.
type Authorization struct {
	AccountID     string
	PaymentMethod string
	Amount        decimal.Decimal
	Description   string
}

// Decision captures the processor response.
type Decision struct {
	Reference string
	Status    string
	Reason    string
}

// Approved reports whether the processor accepted the payment.
func (d Decision) Approved() bool {
	return d.Status == StatusApproved
}

// Authorizer represents a connector to an external payment processor.
type Authorizer interface {
	Authorize(ctx context.Context, input Authorization) (Decision, error)
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, input Authorization) (Decision, error)

func (f AuthorizerFunc) Authorize(ctx context.Context, input Authorization) (Decision, error) {
	return f(ctx, input)
}

// StaticAuthorizer simulates a processor that approves every request.
type StaticAuthorizer struct{}

// Authorize approves the request with a synthetic reference.
func (StaticAuthorizer) Authorize(_ context.Context, _ Authorization) (Decision, error) {
	return Decision{Reference: uuid.NewString(), Status: StatusApproved}, nil
}

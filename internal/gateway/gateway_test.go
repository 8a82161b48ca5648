package gateway

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestStaticAuthorizerApproves(t *testing.T) {
	d, err := StaticAuthorizer{}.Authorize(context.Background(), Authorization{
		AccountID: "acc-1", PaymentMethod: "upi", Amount: decimal.NewFromInt(99),
	})
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if !d.Approved() {
		t.Fatalf("expected approval, got %+v", d)
	}
	if _, err := uuid.Parse(d.Reference); err != nil {
		t.Fatalf("expected uuid reference, got %q", d.Reference)
	}
}

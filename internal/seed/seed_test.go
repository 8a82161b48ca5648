package seed

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/rechargehub/rechargehub/internal/account"
	"github.com/rechargehub/rechargehub/internal/ledger"
	"github.com/rechargehub/rechargehub/internal/logging"
	"github.com/rechargehub/rechargehub/internal/plans"
)

func TestRunIsRepeatable(t *testing.T) {
	ctx := context.Background()
	accounts := account.NewService(account.NewMemoryRepository(), ledger.NewInMemory()).WithHashCost(bcrypt.MinCost)
	catalog := plans.NewService(plans.NewMemoryRepository())

	for i := 0; i < 2; i++ {
		if err := Run(ctx, accounts, catalog, DefaultAdmin(), logging.Discard()); err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
	}

	admin, err := accounts.Authenticate(ctx, AdminEmail, AdminPassword)
	if err != nil {
		t.Fatalf("authenticate admin: %v", err)
	}
	if admin.Role != account.RoleAdmin {
		t.Fatalf("expected admin role, got %s", admin.Role)
	}
	if n, _ := accounts.Count(ctx); n != 1 {
		t.Fatalf("expected one account, got %d", n)
	}
	all, _ := catalog.ListAll(ctx)
	if len(all) != len(plans.DefaultCatalog()) {
		t.Fatalf("expected catalog seeded once, got %d plans", len(all))
	}
}

package reporting

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/rechargehub/rechargehub/internal/account"
	"github.com/rechargehub/rechargehub/internal/ledger"
	"github.com/rechargehub/rechargehub/internal/plans"
)

func setup(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	l := ledger.NewInMemory()
	accounts := account.NewService(account.NewMemoryRepository(), l).WithHashCost(bcrypt.MinCost)
	catalog := plans.NewService(plans.NewMemoryRepository())
	if _, err := catalog.Seed(ctx, plans.DefaultCatalog()[:3]); err != nil {
		t.Fatalf("seed plans: %v", err)
	}

	var ids []string
	for i := 0; i < 7; i++ {
		acc, err := accounts.Register(ctx, account.RegisterInput{
			Name:     fmt.Sprintf("User %d", i),
			Email:    fmt.Sprintf("user%d@example.com", i),
			Phone:    fmt.Sprintf("98765432%02d", i),
			Password: "secret1",
		})
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		ids = append(ids, acc.ID)
	}

	post := func(accountID string, kind ledger.Kind, amount int64, effect ledger.Effect) {
		t.Helper()
		_, err := l.Post(ctx, ledger.Posting{
			Entry: ledger.Entry{
				AccountID: accountID, Kind: kind, MobileNumber: "9876543210", Operator: "Jio",
				Amount: decimal.NewFromInt(amount), PaymentMethod: ledger.MethodUPI,
			},
			Effect: effect,
		})
		if err != nil {
			t.Fatalf("post: %v", err)
		}
	}
	for i := 0; i < 12; i++ {
		post(ids[i%len(ids)], ledger.KindRecharge, 10, ledger.EffectNone)
	}
	post(ids[0], ledger.KindWalletTopUp, 500, ledger.EffectCredit)
	return NewService(l, accounts, catalog)
}

func TestDashboard(t *testing.T) {
	d, err := setup(t).Dashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.Stats.TotalUsers != 7 || d.Stats.TotalTransactions != 13 || d.Stats.TotalPlans != 3 {
		t.Fatalf("unexpected stats %+v", d.Stats)
	}
	if !d.Stats.TotalRevenue.Equal(decimal.NewFromInt(620)) {
		t.Fatalf("expected revenue 620, got %s", d.Stats.TotalRevenue)
	}
	if len(d.RecentTransactions) != 10 || len(d.RecentUsers) != 5 {
		t.Fatalf("unexpected recent lists: %d transactions, %d users", len(d.RecentTransactions), len(d.RecentUsers))
	}
	if len(d.TransactionsByType) != 2 || d.TransactionsByType[0].Key != string(ledger.KindRecharge) || d.TransactionsByType[0].Count != 12 {
		t.Fatalf("unexpected by-type buckets %+v", d.TransactionsByType)
	}
	if len(d.TransactionsByStatus) != 1 || d.TransactionsByStatus[0].Count != 13 {
		t.Fatalf("unexpected by-status buckets %+v", d.TransactionsByStatus)
	}
}

func TestTransactionStats(t *testing.T) {
	stats, err := setup(t).TransactionStats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Overall.TotalCount != 13 || !stats.Overall.TotalAmount.Equal(decimal.NewFromInt(620)) {
		t.Fatalf("unexpected overall %+v", stats.Overall)
	}
	if stats.ByType[1].Key != string(ledger.KindWalletTopUp) || !stats.ByType[1].TotalAmount.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("unexpected by-type %+v", stats.ByType)
	}
	if len(stats.ByStatus) != 1 || stats.ByStatus[0].Key != string(ledger.StatusSuccess) {
		t.Fatalf("unexpected by-status %+v", stats.ByStatus)
	}
}

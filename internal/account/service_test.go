package account

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/rechargehub/rechargehub/internal/ledger"
	"github.com/rechargehub/rechargehub/internal/validate"
)

func newTestService() (*Service, ledger.Ledger) {
	l := ledger.NewInMemory()
	return NewService(NewMemoryRepository(), l).WithHashCost(bcrypt.MinCost), l
}

func validInput(email string) RegisterInput {
	return RegisterInput{Name: "Asha Rao", Email: email, Phone: "9876543210", Password: "secret1"}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, l := newTestService()
	ctx := context.Background()

	acc, err := svc.Register(ctx, validInput(" Asha@Example.com "))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if acc.Email != "asha@example.com" || acc.Role != RoleUser {
		t.Fatalf("unexpected account: %+v", acc)
	}
	if bal, err := l.Balance(ctx, acc.ID); err != nil || !bal.IsZero() {
		t.Fatalf("expected open zero wallet, got %s %v", bal, err)
	}

	authed, err := svc.Authenticate(ctx, "ASHA@example.com", "secret1")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if authed.ID != acc.ID {
		t.Fatalf("authenticated wrong account")
	}

	if _, err := svc.Authenticate(ctx, "asha@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Register(ctx, validInput("dup@example.com")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, validInput("DUP@example.com")); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Register(context.Background(), RegisterInput{Email: "bad", Phone: "123", Password: "x"})
	var verr *validate.Errors
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if len(verr.Fields) != 4 {
		t.Fatalf("expected 4 field errors, got %+v", verr.Fields)
	}
}

func TestGetIncludesBalance(t *testing.T) {
	svc, l := newTestService()
	ctx := context.Background()
	acc, _ := svc.Register(ctx, validInput("bal@example.com"))
	if _, err := l.Credit(ctx, acc.ID, decimal.NewFromInt(250)); err != nil {
		t.Fatalf("credit: %v", err)
	}

	got, err := svc.Get(ctx, acc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Balance.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("expected balance 250, got %s", got.Balance)
	}
	if _, err := svc.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListSearchAndPaging(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		svc.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		in := validInput(fmt.Sprintf("user%d@example.com", i))
		in.Name = fmt.Sprintf("User %d", i)
		if _, err := svc.Register(ctx, in); err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
	}

	res, err := svc.List(ctx, ListQuery{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Total != 5 || len(res.Accounts) != 2 || res.Accounts[0].Name != "User 4" {
		t.Fatalf("unexpected first page: %+v", res)
	}

	res, _ = svc.List(ctx, ListQuery{Search: "USER3@", Limit: 10})
	if res.Total != 1 || res.Accounts[0].Email != "user3@example.com" {
		t.Fatalf("unexpected search result: %+v", res)
	}
}

func TestSetRole(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	acc, _ := svc.Register(ctx, validInput("role@example.com"))

	updated, err := svc.SetRole(ctx, acc.ID, RoleAdmin)
	if err != nil || updated.Role != RoleAdmin {
		t.Fatalf("set role: %+v %v", updated, err)
	}
	if _, err := svc.SetRole(ctx, acc.ID, Role("root")); !errors.Is(err, validate.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.SetRole(ctx, "missing", RoleUser); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEnsureAdminIsRepeatable(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	in := RegisterInput{Name: "Admin", Email: "admin@recharge.com", Phone: "9999999999", Password: "admin123"}

	first, created, err := svc.EnsureAdmin(ctx, in)
	if err != nil || !created || first.Role != RoleAdmin {
		t.Fatalf("first ensure: %+v created=%v err=%v", first, created, err)
	}
	second, created, err := svc.EnsureAdmin(ctx, in)
	if err != nil || created || second.ID != first.ID {
		t.Fatalf("second ensure: %+v created=%v err=%v", second, created, err)
	}
}

// flakyWallets fails the first OpenWallet call.
type flakyWallets struct {
	ledger.Ledger
	failed bool
}

func (w *flakyWallets) OpenWallet(ctx context.Context, accountID string) error {
	if !w.failed {
		w.failed = true
		return errors.New("connection reset")
	}
	return w.Ledger.OpenWallet(ctx, accountID)
}

func TestGetReopensWalletLostAtRegistration(t *testing.T) {
	l := ledger.NewInMemory()
	repo := NewMemoryRepository()
	svc := NewService(repo, &flakyWallets{Ledger: l}).WithHashCost(bcrypt.MinCost)
	ctx := context.Background()

	if _, err := svc.Register(ctx, validInput("lost@example.com")); err == nil {
		t.Fatalf("expected wallet error from register")
	}
	stored, err := repo.FindByEmail(ctx, "lost@example.com")
	if err != nil {
		t.Fatalf("expected account stored: %v", err)
	}

	acc, err := svc.Get(ctx, stored.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !acc.Balance.IsZero() {
		t.Fatalf("expected zero balance, got %s", acc.Balance)
	}
	if bal, err := l.Balance(ctx, stored.ID); err != nil || !bal.IsZero() {
		t.Fatalf("expected wallet reopened, got %s %v", bal, err)
	}
}

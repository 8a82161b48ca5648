package payments

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/rechargehub/rechargehub/internal/account"
	"github.com/rechargehub/rechargehub/internal/events"
	"github.com/rechargehub/rechargehub/internal/gateway"
	"github.com/rechargehub/rechargehub/internal/ledger"
	"github.com/rechargehub/rechargehub/internal/logging"
	"github.com/rechargehub/rechargehub/internal/metrics"
	"github.com/rechargehub/rechargehub/internal/notification"
	"github.com/rechargehub/rechargehub/internal/validate"
)

type fixture struct {
	ledger   ledger.Ledger
	accounts *account.Service
	inbox    notification.Repository
	bus      *events.MemoryBus
	svc      *Service
	acc      account.Account
}

func newFixture(t *testing.T, balance string, opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()
	l := ledger.NewInMemory()
	accounts := account.NewService(account.NewMemoryRepository(), l).WithHashCost(bcrypt.MinCost)
	acc, err := accounts.Register(ctx, account.RegisterInput{
		Name: "Ravi", Email: "ravi@example.com", Phone: "9123456780", Password: "secret1",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if balance != "0" {
		if _, err := l.Credit(ctx, acc.ID, decimal.RequireFromString(balance)); err != nil {
			t.Fatalf("seed balance: %v", err)
		}
	}

	inbox := notification.NewMemoryRepository()
	bus := &events.MemoryBus{}
	opts = append([]Option{WithBus(bus), WithMetrics(metrics.New())}, opts...)
	svc := NewService(l, accounts, notification.NewStoreNotifier(inbox), logging.Discard(), opts...)
	return &fixture{ledger: l, accounts: accounts, inbox: inbox, bus: bus, svc: svc, acc: acc}
}

func (f *fixture) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	bal, err := f.ledger.Balance(context.Background(), f.acc.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return bal
}

func (f *fixture) entries(t *testing.T) []ledger.Entry {
	t.Helper()
	page, err := f.ledger.FindByAccount(context.Background(), f.acc.ID, ledger.Query{Limit: 100})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	return page.Entries
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func (f *fixture) recharge(amount string, method ledger.PaymentMethod) RechargeInput {
	return RechargeInput{
		AccountID:     f.acc.ID,
		MobileNumber:  "9876543210",
		Operator:      "Jio",
		Amount:        dec(amount),
		Circle:        "Karnataka",
		PaymentMethod: method,
	}
}

func TestRechargeFromWalletDebits(t *testing.T) {
	f := newFixture(t, "500")
	ctx := context.Background()

	res, err := f.svc.Recharge(ctx, f.recharge("199", ""))
	if err != nil {
		t.Fatalf("recharge: %v", err)
	}
	if !res.Balance.Equal(dec("301")) || !f.balance(t).Equal(dec("301")) {
		t.Fatalf("expected balance 301, got %s", res.Balance)
	}
	if res.Entry.PaymentMethod != ledger.MethodWallet {
		t.Fatalf("expected default wallet method, got %s", res.Entry.PaymentMethod)
	}
	if !strings.HasPrefix(res.Entry.TransactionID, "TXN") {
		t.Fatalf("unexpected transaction id %s", res.Entry.TransactionID)
	}

	entries := f.entries(t)
	if len(entries) != 1 || entries[0].Kind != ledger.KindRecharge || !entries[0].Amount.Equal(dec("199")) {
		t.Fatalf("expected one recharge entry, got %+v", entries)
	}

	inbox, _ := f.inbox.List(ctx, f.acc.ID, notification.ListQuery{})
	if len(inbox) != 1 || inbox[0].Title != "Recharge Successful" {
		t.Fatalf("unexpected notifications %+v", inbox)
	}
	if want := "Your recharge of ₹199 for 9876543210 has been completed successfully."; inbox[0].Message != want {
		t.Fatalf("unexpected message %q", inbox[0].Message)
	}

	msgs := f.bus.Messages()
	if len(msgs) != 1 || msgs[0].Subject != events.SubjectEntryCreated {
		t.Fatalf("expected one entry event, got %+v", msgs)
	}
	var evt events.EntryCreated
	if err := json.Unmarshal(msgs[0].Data, &evt); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if evt.TransactionID != res.Entry.TransactionID || evt.Effect != "debit" {
		t.Fatalf("unexpected event %+v", evt)
	}
}

func TestRechargeNonWalletKeepsBalance(t *testing.T) {
	f := newFixture(t, "100")
	for _, m := range []ledger.PaymentMethod{ledger.MethodUPI, ledger.MethodGooglePay, ledger.MethodCard, ledger.MethodNetBanking} {
		res, err := f.svc.Recharge(context.Background(), f.recharge("999", m))
		if err != nil {
			t.Fatalf("recharge via %s: %v", m, err)
		}
		if !res.Balance.Equal(dec("100")) {
			t.Fatalf("%s changed balance to %s", m, res.Balance)
		}
	}
	if !f.balance(t).Equal(dec("100")) {
		t.Fatalf("balance changed")
	}
	if n := len(f.entries(t)); n != 4 {
		t.Fatalf("expected 4 entries, got %d", n)
	}
}

func TestInsufficientFundsLeavesNoTrace(t *testing.T) {
	f := newFixture(t, "100")
	_, err := f.svc.Recharge(context.Background(), f.recharge("150", ledger.MethodWallet))
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if len(f.entries(t)) != 0 {
		t.Fatalf("entry created despite insufficient funds")
	}
	if !f.balance(t).Equal(dec("100")) {
		t.Fatalf("expected balance 100, got %s", f.balance(t))
	}
	if len(f.bus.Messages()) != 0 {
		t.Fatalf("event published for failed posting")
	}
}

func TestTopUpCreditsWallet(t *testing.T) {
	f := newFixture(t, "0")
	res, err := f.svc.TopUp(context.Background(), TopUpInput{AccountID: f.acc.ID, Amount: dec("500")})
	if err != nil {
		t.Fatalf("top up: %v", err)
	}
	if !res.Balance.Equal(dec("500")) {
		t.Fatalf("expected balance 500, got %s", res.Balance)
	}
	e := res.Entry
	if e.Kind != ledger.KindWalletTopUp || e.Status != ledger.StatusSuccess || !e.Amount.Equal(dec("500")) {
		t.Fatalf("unexpected top-up entry %+v", e)
	}
	if e.MobileNumber != f.acc.Phone || e.Operator != TopUpOperator {
		t.Fatalf("top-up should record the account phone and Wallet operator, got %+v", e)
	}

	if _, err := f.svc.TopUp(context.Background(), TopUpInput{AccountID: f.acc.ID, Amount: dec("10"), PaymentMethod: ledger.MethodWallet}); !errors.Is(err, validate.ErrValidation) {
		t.Fatalf("expected validation error for wallet-funded top-up, got %v", err)
	}
}

func TestNotifierFailureDoesNotFailPosting(t *testing.T) {
	l := ledger.NewInMemory()
	ctx := context.Background()
	accounts := account.NewService(account.NewMemoryRepository(), l).WithHashCost(bcrypt.MinCost)
	acc, _ := accounts.Register(ctx, account.RegisterInput{Name: "N", Email: "n@example.com", Phone: "9000000000", Password: "secret1"})
	l.Credit(ctx, acc.ID, dec("100"))

	failing := notification.NotifierFunc(func(context.Context, notification.Message) error {
		return errors.New("smtp down")
	})
	svc := NewService(l, accounts, failing, logging.Discard())

	res, err := svc.Recharge(ctx, RechargeInput{
		AccountID: acc.ID, MobileNumber: "9876543210", Operator: "Vi", Amount: dec("40"), Circle: "Delhi",
	})
	if err != nil {
		t.Fatalf("expected success despite notifier failure, got %v", err)
	}
	if res.Entry.TransactionID == "" || !res.Balance.Equal(dec("60")) {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestDeclinedPaymentWritesNothing(t *testing.T) {
	decline := gateway.AuthorizerFunc(func(context.Context, gateway.Authorization) (gateway.Decision, error) {
		return gateway.Decision{Status: gateway.StatusDeclined}, nil
	})
	f := newFixture(t, "100", WithAuthorizer(decline))

	_, err := f.svc.Recharge(context.Background(), f.recharge("50", ledger.MethodCard))
	if !errors.Is(err, ErrPaymentDeclined) {
		t.Fatalf("expected ErrPaymentDeclined, got %v", err)
	}
	if len(f.entries(t)) != 0 {
		t.Fatalf("declined payment created an entry")
	}

	if _, err := f.svc.Recharge(context.Background(), f.recharge("50", ledger.MethodWallet)); err != nil {
		t.Fatalf("wallet payments skip the gateway, got %v", err)
	}
}

func TestPayBill(t *testing.T) {
	f := newFixture(t, "300")
	res, err := f.svc.PayBill(context.Background(), BillInput{
		AccountID: f.acc.ID, MobileNumber: "9876543210", Operator: "Airtel", Amount: dec("249.50"), BillType: "postpaid",
	})
	if err != nil {
		t.Fatalf("pay bill: %v", err)
	}
	if !strings.HasPrefix(res.Entry.TransactionID, "BILL") || res.Entry.BillType != "postpaid" {
		t.Fatalf("unexpected entry %+v", res.Entry)
	}
	if !res.Balance.Equal(dec("50.5")) {
		t.Fatalf("expected balance 50.50, got %s", res.Balance)
	}

	_, err = f.svc.PayBill(context.Background(), BillInput{AccountID: f.acc.ID, MobileNumber: "9876543210", Operator: "Airtel", Amount: dec("10")})
	var verr *validate.Errors
	if !errors.As(err, &verr) || verr.Fields[0].Field != "billType" {
		t.Fatalf("expected billType validation error, got %v", err)
	}
}

func TestRechargeValidation(t *testing.T) {
	f := newFixture(t, "100")
	in := f.recharge("0", ledger.MethodWallet)
	in.MobileNumber = "12345"
	in.Circle = ""
	_, err := f.svc.Recharge(context.Background(), in)

	var verr *validate.Errors
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation errors, got %v", err)
	}
	fields := map[string]bool{}
	for _, fe := range verr.Fields {
		fields[fe.Field] = true
	}
	for _, want := range []string{"mobileNumber", "amount", "circle"} {
		if !fields[want] {
			t.Fatalf("missing %s error in %+v", want, verr.Fields)
		}
	}
	if len(f.entries(t)) != 0 || !f.balance(t).Equal(dec("100")) {
		t.Fatalf("validation failure changed state")
	}
}

func TestUnknownAccount(t *testing.T) {
	f := newFixture(t, "0")
	in := f.recharge("10", ledger.MethodWallet)
	in.AccountID = "ghost"
	if _, err := f.svc.Recharge(context.Background(), in); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected account.ErrNotFound, got %v", err)
	}
	if _, err := f.svc.TopUp(context.Background(), TopUpInput{AccountID: "ghost", Amount: dec("10")}); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected account.ErrNotFound for top-up, got %v", err)
	}
}

func TestRefundOnce(t *testing.T) {
	f := newFixture(t, "200")
	ctx := context.Background()
	paid, err := f.svc.Recharge(ctx, f.recharge("149", ledger.MethodWallet))
	if err != nil {
		t.Fatalf("recharge: %v", err)
	}

	refund, err := f.svc.Refund(ctx, RefundInput{AccountID: f.acc.ID, TransactionID: paid.Entry.TransactionID})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if refund.Entry.TransactionID != ledger.RefundTransactionID(paid.Entry.TransactionID) {
		t.Fatalf("unexpected refund id %s", refund.Entry.TransactionID)
	}
	if !refund.Balance.Equal(dec("200")) {
		t.Fatalf("expected balance restored to 200, got %s", refund.Balance)
	}

	if _, err := f.svc.Refund(ctx, RefundInput{AccountID: f.acc.ID, TransactionID: paid.Entry.TransactionID}); !errors.Is(err, ErrAlreadyRefunded) {
		t.Fatalf("expected ErrAlreadyRefunded, got %v", err)
	}
	if _, err := f.svc.Refund(ctx, RefundInput{AccountID: f.acc.ID, TransactionID: refund.Entry.TransactionID}); !errors.Is(err, validate.ErrValidation) {
		t.Fatalf("refunding a refund should be rejected, got %v", err)
	}
	if _, err := f.svc.Refund(ctx, RefundInput{AccountID: "other", TransactionID: paid.Entry.TransactionID}); !errors.Is(err, ledger.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound for foreign account, got %v", err)
	}
	if !f.balance(t).Equal(dec("200")) {
		t.Fatalf("expected balance 200, got %s", f.balance(t))
	}
}

func TestConcurrentRechargesNeverOverdraw(t *testing.T) {
	f := newFixture(t, "250")
	ctx := context.Background()

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Recharge(ctx, f.recharge("50", ledger.MethodWallet)); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			} else if !errors.Is(err, ledger.ErrInsufficientFunds) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 5 {
		t.Fatalf("expected 5 successful recharges, got %d", ok)
	}
	if !f.balance(t).IsZero() {
		t.Fatalf("expected zero balance, got %s", f.balance(t))
	}
	if n := len(f.entries(t)); n != 5 {
		t.Fatalf("expected 5 entries, got %d", n)
	}
}

func TestActionEffect(t *testing.T) {
	cases := []struct {
		kind   ledger.Kind
		method ledger.PaymentMethod
		want   ledger.Effect
	}{
		{ledger.KindRecharge, ledger.MethodWallet, ledger.EffectDebit},
		{ledger.KindRecharge, ledger.MethodPaytm, ledger.EffectNone},
		{ledger.KindBillPayment, ledger.MethodWallet, ledger.EffectDebit},
		{ledger.KindWalletTopUp, ledger.MethodUPI, ledger.EffectCredit},
		{ledger.KindRefund, ledger.MethodWallet, ledger.EffectCredit},
	}
	for _, tc := range cases {
		if got := (Action{Kind: tc.kind, PaymentMethod: tc.method}).Effect(); got != tc.want {
			t.Errorf("%s/%s: got %s want %s", tc.kind, tc.method, got, tc.want)
		}
	}
}

func TestRechargeRejectsUnstorableAmounts(t *testing.T) {
	f := newFixture(t, "10")
	for _, value := range []string{"10.004", "1000000000000"} {
		_, err := f.svc.Recharge(context.Background(), f.recharge(value, ledger.MethodWallet))
		if !errors.Is(err, validate.ErrValidation) {
			t.Fatalf("amount %s: expected validation error, got %v", value, err)
		}
	}
	_, err := f.svc.Recharge(context.Background(), f.recharge("100000000000000", ledger.MethodUPI))
	if !errors.Is(err, validate.ErrValidation) {
		t.Fatalf("expected validation error for oversized upi recharge, got %v", err)
	}
	if !f.balance(t).Equal(dec("10")) || len(f.entries(t)) != 0 {
		t.Fatalf("expected nothing written, balance %s", f.balance(t))
	}
}

func TestPostingReopensMissingWallet(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewInMemory()
	repo := account.NewMemoryRepository()
	acc := account.Account{ID: "acc-lost", Name: "Lost", Email: "lost@example.com", Phone: "9000000001", Role: account.RoleUser}
	if err := repo.Create(ctx, acc); err != nil {
		t.Fatalf("create: %v", err)
	}
	svc := NewService(l, account.NewService(repo, l), nil, logging.Discard())

	_, err := svc.Recharge(ctx, RechargeInput{
		AccountID: acc.ID, MobileNumber: "9876543210", Operator: "Jio", Amount: dec("10"), Circle: "Delhi",
	})
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds on reopened wallet, got %v", err)
	}
	res, err := svc.TopUp(ctx, TopUpInput{AccountID: acc.ID, Amount: dec("50")})
	if err != nil || !res.Balance.Equal(dec("50")) {
		t.Fatalf("expected top-up to succeed, got %+v %v", res, err)
	}
}

func TestPanickingNotifierDoesNotFailPosting(t *testing.T) {
	f := newFixture(t, "100")
	panicky := notification.NotifierFunc(func(context.Context, notification.Message) error {
		panic("template missing")
	})
	svc := NewService(f.ledger, f.accounts, panicky, logging.Discard(), WithBus(f.bus))

	res, err := svc.Recharge(context.Background(), f.recharge("40", ledger.MethodWallet))
	if err != nil {
		t.Fatalf("expected success despite panicking notifier, got %v", err)
	}
	if !res.Balance.Equal(dec("60")) {
		t.Fatalf("expected balance 60, got %s", res.Balance)
	}
	if len(f.bus.Messages()) != 1 {
		t.Fatalf("expected event published after notifier panic")
	}
}

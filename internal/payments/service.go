package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rechargehub/rechargehub/internal/account"
	"github.com/rechargehub/rechargehub/internal/events"
	"github.com/rechargehub/rechargehub/internal/gateway"
	"github.com/rechargehub/rechargehub/internal/ledger"
	"github.com/rechargehub/rechargehub/internal/metrics"
	"github.com/rechargehub/rechargehub/internal/notification"
	"github.com/rechargehub/rechargehub/internal/validate"
)

var (
	// ErrPaymentDeclined indicates the external processor refused a
	// non-wallet payment. Nothing is written.
	ErrPaymentDeclined = errors.New("payment declined")

	// ErrAlreadyRefunded is returned for a second refund of one transaction.
	ErrAlreadyRefunded = errors.New("transaction already refunded")
)

// TopUpOperator is recorded as the operator of wallet top-ups.
const TopUpOperator = "Wallet"

// Accounts looks up account details for the workflow.
type Accounts interface {
	Get(ctx context.Context, id string) (account.Account, error)
}

// Service runs the balance-mutation workflow for recharges, bill payments,
// top-ups and refunds.
type Service struct {
	ledger     ledger.Ledger
	accounts   Accounts
	authorizer gateway.Authorizer
	notifier   notification.Notifier
	bus        events.Bus
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithAuthorizer replaces the default always-approve authorizer.
func WithAuthorizer(a gateway.Authorizer) Option {
	return func(s *Service) { s.authorizer = a }
}

// WithBus publishes an event after every committed posting.
func WithBus(b events.Bus) Option {
	return func(s *Service) { s.bus = b }
}

// WithMetrics counts executions by outcome.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService constructs a payment service.
func NewService(l ledger.Ledger, accounts Accounts, notifier notification.Notifier, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		ledger:     l,
		accounts:   accounts,
		authorizer: gateway.StaticAuthorizer{},
		notifier:   notifier,
		bus:        events.NopBus{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Result is the committed entry and the owner's resulting balance.
type Result struct {
	Entry   ledger.Entry
	Balance decimal.Decimal
}

// Execute validates the action, authorizes non-wallet methods, then posts the
// entry and its balance effect atomically. Notification and event failures
// are logged and never fail the call once the posting has committed.
func (s *Service) Execute(ctx context.Context, a Action) (Result, error) {
	res, err := s.execute(ctx, a)
	s.metrics.ObservePosting(string(a.Kind), string(a.PaymentMethod), outcome(err))
	return res, err
}

func (s *Service) execute(ctx context.Context, a Action) (Result, error) {
	if err := a.Validate(); err != nil {
		return Result{}, err
	}

	if !a.PaymentMethod.WalletFunded() {
		decision, err := s.authorizer.Authorize(ctx, gateway.Authorization{
			AccountID:     a.AccountID,
			PaymentMethod: string(a.PaymentMethod),
			Amount:        a.Amount,
			Description:   string(a.Kind) + " " + a.MobileNumber,
		})
		if err != nil {
			return Result{}, fmt.Errorf("authorize payment: %w", err)
		}
		if !decision.Approved() {
			return Result{}, ErrPaymentDeclined
		}
	}

	effect := a.Effect()
	posting := ledger.Posting{Entry: a.entry(), Effect: effect}
	receipt, err := s.ledger.Post(ctx, posting)
	if errors.Is(err, ledger.ErrWalletNotFound) {
		// Loading the account reopens a wallet lost at registration.
		if _, err := s.accounts.Get(ctx, a.AccountID); err != nil {
			return Result{}, err
		}
		receipt, err = s.ledger.Post(ctx, posting)
	}
	if errors.Is(err, ledger.ErrWalletNotFound) {
		return Result{}, account.ErrNotFound
	}
	if err != nil {
		return Result{}, err
	}

	s.announce(ctx, receipt, effect)
	return Result{Entry: receipt.Entry, Balance: receipt.Balance}, nil
}

// announce notifies the owner and publishes the entry event. Both are best
// effort: errors and panics are logged and never reach the caller.
func (s *Service) announce(ctx context.Context, receipt ledger.Receipt, effect ledger.Effect) {
	e := receipt.Entry
	if s.notifier != nil {
		s.bestEffort("notification failed", e, func() error {
			return s.notifier.Notify(ctx, messageFor(receipt))
		})
	}
	s.bestEffort("event publish failed", e, func() error {
		return events.PublishJSON(s.bus, events.SubjectEntryCreated, events.EntryCreated{
			TransactionID: e.TransactionID,
			AccountID:     e.AccountID,
			Kind:          string(e.Kind),
			PaymentMethod: string(e.PaymentMethod),
			Amount:        e.Amount,
			Balance:       receipt.Balance,
			Effect:        effect.String(),
			CreatedAt:     e.CreatedAt,
		})
	})
}

func (s *Service) bestEffort(msg string, e ledger.Entry, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn(msg,
				slog.String("transaction_id", e.TransactionID),
				slog.String("account_id", e.AccountID),
				slog.Any("panic", r),
			)
		}
	}()
	if err := fn(); err != nil {
		s.logger.Warn(msg,
			slog.String("transaction_id", e.TransactionID),
			slog.String("account_id", e.AccountID),
			slog.Any("error", err),
		)
	}
}

// RechargeInput is a mobile recharge request.
type RechargeInput struct {
	AccountID     string
	MobileNumber  string
	Operator      string
	Amount        decimal.Decimal
	Circle        string
	PlanID        string
	PaymentMethod ledger.PaymentMethod
}

// Recharge tops up a mobile number. The payment method defaults to the wallet.
func (s *Service) Recharge(ctx context.Context, in RechargeInput) (Result, error) {
	method := in.PaymentMethod
	if method == "" {
		method = ledger.MethodWallet
	}
	a := Action{
		AccountID:     in.AccountID,
		Kind:          ledger.KindRecharge,
		MobileNumber:  strings.TrimSpace(in.MobileNumber),
		Operator:      strings.TrimSpace(in.Operator),
		Amount:        in.Amount,
		PaymentMethod: method,
		PlanID:        in.PlanID,
		Circle:        strings.TrimSpace(in.Circle),
	}
	errs := a.check()
	errs.Required("circle", a.Circle, "Circle is required")
	if err := errs.Err(); err != nil {
		s.metrics.ObservePosting(string(a.Kind), string(method), metrics.OutcomeInvalid)
		return Result{}, err
	}
	return s.Execute(ctx, a)
}

// BillInput is a bill payment request. Bills are always paid from the wallet.
type BillInput struct {
	AccountID    string
	MobileNumber string
	Operator     string
	Amount       decimal.Decimal
	BillType     string
}

// PayBill debits the wallet for a utility bill.
func (s *Service) PayBill(ctx context.Context, in BillInput) (Result, error) {
	return s.Execute(ctx, Action{
		AccountID:     in.AccountID,
		Kind:          ledger.KindBillPayment,
		MobileNumber:  strings.TrimSpace(in.MobileNumber),
		Operator:      strings.TrimSpace(in.Operator),
		Amount:        in.Amount,
		PaymentMethod: ledger.MethodWallet,
		BillType:      strings.TrimSpace(in.BillType),
	})
}

// TopUpInput is a wallet top-up request. The payment method defaults to UPI.
type TopUpInput struct {
	AccountID     string
	Amount        decimal.Decimal
	PaymentMethod ledger.PaymentMethod
}

// TopUp credits the wallet from an external payment method.
func (s *Service) TopUp(ctx context.Context, in TopUpInput) (Result, error) {
	if in.AccountID == "" {
		return Result{}, validate.Field("userId", "User is required")
	}
	acc, err := s.accounts.Get(ctx, in.AccountID)
	if err != nil {
		return Result{}, err
	}
	method := in.PaymentMethod
	if method == "" {
		method = ledger.MethodUPI
	}
	return s.Execute(ctx, Action{
		AccountID:     acc.ID,
		Kind:          ledger.KindWalletTopUp,
		MobileNumber:  acc.Phone,
		Operator:      TopUpOperator,
		Amount:        in.Amount,
		PaymentMethod: method,
	})
}

// RefundInput names the transaction to refund.
type RefundInput struct {
	AccountID     string
	TransactionID string
}

// Refund credits the wallet with the amount of an earlier recharge or bill
// payment of the same account. Each transaction can be refunded once.
func (s *Service) Refund(ctx context.Context, in RefundInput) (Result, error) {
	original, err := s.ledger.Get(ctx, in.AccountID, strings.TrimSpace(in.TransactionID))
	if err != nil {
		return Result{}, err
	}
	if original.Kind != ledger.KindRecharge && original.Kind != ledger.KindBillPayment {
		return Result{}, validate.Field("transactionId", "Only recharges and bill payments can be refunded")
	}

	res, err := s.Execute(ctx, Action{
		AccountID:     original.AccountID,
		Kind:          ledger.KindRefund,
		MobileNumber:  original.MobileNumber,
		Operator:      original.Operator,
		Amount:        original.Amount,
		PaymentMethod: ledger.MethodWallet,
		PlanID:        original.PlanID,
		BillType:      original.BillType,
		TransactionID: ledger.RefundTransactionID(original.TransactionID),
	})
	if errors.Is(err, ledger.ErrDuplicateTransaction) {
		return Result{}, ErrAlreadyRefunded
	}
	return res, err
}

func messageFor(r ledger.Receipt) notification.Message {
	e := r.Entry
	msg := notification.Message{
		AccountID:     e.AccountID,
		Kind:          notification.KindSuccess,
		TransactionID: e.TransactionID,
	}
	amount := "₹" + e.Amount.String()
	switch e.Kind {
	case ledger.KindRecharge:
		msg.Title = "Recharge Successful"
		msg.Body = fmt.Sprintf("Your recharge of %s for %s has been completed successfully.", amount, e.MobileNumber)
	case ledger.KindBillPayment:
		msg.Title = "Bill Payment Successful"
		msg.Body = fmt.Sprintf("Your %s bill of %s for %s has been paid successfully.", e.BillType, amount, e.MobileNumber)
	case ledger.KindWalletTopUp:
		msg.Title = "Wallet Top-up Successful"
		msg.Body = fmt.Sprintf("Your wallet has been topped up with %s. New balance: ₹%s", amount, r.Balance.String())
	case ledger.KindRefund:
		msg.Title = "Refund Processed"
		msg.Body = fmt.Sprintf("%s has been refunded to your wallet for transaction %s.",
			amount, strings.TrimPrefix(e.TransactionID, ledger.RefundPrefix))
	}
	return msg
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return metrics.OutcomeInsufficient
	case errors.Is(err, ErrPaymentDeclined):
		return metrics.OutcomeDeclined
	case errors.Is(err, validate.ErrValidation):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}

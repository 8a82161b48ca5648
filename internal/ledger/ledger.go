package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInsufficientFunds occurs when a wallet-funded debit exceeds the
	// current balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrDuplicateTransaction indicates the transaction identifier already
	// exists in the ledger.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrWalletNotFound is returned when no wallet exists for the account.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrEntryNotFound is returned when a transaction does not exist or is
	// owned by a different account.
	ErrEntryNotFound = errors.New("transaction not found")

	// ErrInvalidGroupBy is returned for an unknown Aggregate column.
	ErrInvalidGroupBy = errors.New("invalid group by")
)

// Kind classifies a monetary event.
type Kind string

const (
	KindRecharge    Kind = "recharge"
	KindBillPayment Kind = "bill_payment"
	KindWalletTopUp Kind = "wallet_topup"
	KindRefund      Kind = "refund"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindRecharge, KindBillPayment, KindWalletTopUp, KindRefund:
		return true
	}
	return false
}

// Status of a ledger entry. Entries are currently always created as success.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusFailed:
		return true
	}
	return false
}

// PaymentMethod identifies how an action was funded.
type PaymentMethod string

const (
	MethodWallet     PaymentMethod = "wallet"
	MethodUPI        PaymentMethod = "upi"
	MethodGooglePay  PaymentMethod = "google_pay"
	MethodPhonePe    PaymentMethod = "phonepe"
	MethodPaytm      PaymentMethod = "paytm"
	MethodNetBanking PaymentMethod = "netbanking"
	MethodCard       PaymentMethod = "card"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodWallet, MethodUPI, MethodGooglePay, MethodPhonePe, MethodPaytm, MethodNetBanking, MethodCard:
		return true
	}
	return false
}

// WalletFunded reports whether the amount is drawn from the stored balance.
func (m PaymentMethod) WalletFunded() bool {
	return m == MethodWallet
}

// Entry is one immutable monetary event owned by an account.
type Entry struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transactionId"`
	AccountID     string          `json:"userId"`
	Kind          Kind            `json:"type"`
	MobileNumber  string          `json:"mobileNumber"`
	Operator      string          `json:"operator"`
	Amount        decimal.Decimal `json:"amount"`
	PlanID        string          `json:"planId,omitempty"`
	BillType      string          `json:"billType,omitempty"`
	Status        Status          `json:"status"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Effect is the balance change a posting applies to the owner's wallet.
type Effect int

const (
	EffectNone Effect = iota
	EffectDebit
	EffectCredit
)

func (e Effect) String() string {
	switch e {
	case EffectDebit:
		return "debit"
	case EffectCredit:
		return "credit"
	default:
		return "none"
	}
}

// Posting is a ledger entry candidate together with its wallet effect. A
// blank Entry.TransactionID is generated by the ledger; a preset one is used
// verbatim and collides with ErrDuplicateTransaction if it already exists.
type Posting struct {
	Entry  Entry
	Effect Effect
}

// Receipt is the committed outcome of a posting.
type Receipt struct {
	Entry   Entry
	Balance decimal.Decimal
}

// Query pages through one account's entries.
type Query struct {
	Kind   Kind
	Offset int
	Limit  int
}

// Filter pages through entries of every account.
type Filter struct {
	Kind   Kind
	Status Status
	From   time.Time
	To     time.Time
	Offset int
	Limit  int
}

// Page is one window of entries, newest first, plus the total match count.
type Page struct {
	Entries []Entry
	Total   int
}

// GroupBy names the column used by Aggregate.
type GroupBy string

const (
	GroupByKind   GroupBy = "kind"
	GroupByStatus GroupBy = "status"
)

// Bucket is one Aggregate row.
type Bucket struct {
	Key         string          `json:"_id"`
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// Summary totals the whole ledger.
type Summary struct {
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	TotalCount    int             `json:"totalCount"`
	SuccessAmount decimal.Decimal `json:"successAmount"`
	SuccessCount  int             `json:"successCount"`
}

// Reader is the read-only side of the ledger consumed by history and
// reporting views.
type Reader interface {
	FindByAccount(ctx context.Context, accountID string, q Query) (Page, error)
	Get(ctx context.Context, accountID, transactionID string) (Entry, error)
	Search(ctx context.Context, f Filter) (Page, error)
	Aggregate(ctx context.Context, by GroupBy, status Status) ([]Bucket, error)
	Summary(ctx context.Context) (Summary, error)
}

// Ledger defines the contract implemented by ledger backends (in-memory and
// Postgres). Writers to the same wallet are serialized by the backend.
type Ledger interface {
	Reader

	OpenWallet(ctx context.Context, accountID string) error
	Balance(ctx context.Context, accountID string) (decimal.Decimal, error)
	Debit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error)
	Credit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error)

	Append(ctx context.Context, entry Entry) (Entry, error)
	Post(ctx context.Context, p Posting) (Receipt, error)
}

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
	maxIDAttempts    = 3
)

func normalizePage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return offset, limit
}

// withTransactionID runs attempt with a generated transaction id, retrying on
// collision. A caller-supplied id is attempted exactly once.
func withTransactionID(entry Entry, newID func(Kind) string, attempt func(Entry) (Receipt, error)) (Receipt, error) {
	if entry.TransactionID != "" {
		return attempt(entry)
	}
	var err error
	for i := 0; i < maxIDAttempts; i++ {
		entry.TransactionID = newID(entry.Kind)
		var res Receipt
		res, err = attempt(entry)
		if !errors.Is(err, ErrDuplicateTransaction) {
			return res, err
		}
	}
	return Receipt{}, err
}

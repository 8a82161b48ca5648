package ledger

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rechargehub/rechargehub/internal/validate"
)

const (
	txSuffixLen      = 9
	txSuffixAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// RefundPrefix marks refund transaction ids. A refund id is the prefix
// followed by the refunded transaction id, so a transaction can be refunded
// at most once.
const RefundPrefix = "RFD"

// Prefix returns the display prefix used in transaction ids for kind.
func Prefix(kind Kind) string {
	switch kind {
	case KindBillPayment:
		return "BILL"
	case KindRefund:
		return RefundPrefix
	default:
		return "TXN"
	}
}

// NewTransactionID returns prefix + unix milliseconds + a random base-36
// suffix, e.g. TXN1739812345678K3F9Q2ZPA.
func NewTransactionID(kind Kind) string {
	return newTransactionIDAt(kind, time.Now())
}

func newTransactionIDAt(kind Kind, now time.Time) string {
	var b strings.Builder
	b.WriteString(Prefix(kind))
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	max := big.NewInt(int64(len(txSuffixAlphabet)))
	for i := 0; i < txSuffixLen; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(err)
		}
		b.WriteByte(txSuffixAlphabet[n.Int64()])
	}
	return b.String()
}

// RefundTransactionID derives the refund id for an original transaction.
func RefundTransactionID(original string) string {
	return RefundPrefix + original
}

// validateEntry checks a candidate before it is written.
func validateEntry(e Entry) error {
	errs := &validate.Errors{}
	errs.Required("userId", e.AccountID, "Account is required")
	if !e.Kind.Valid() {
		errs.Add("type", "Invalid transaction type")
	}
	errs.Required("mobileNumber", e.MobileNumber, "Mobile number is required")
	errs.Required("operator", e.Operator, "Operator is required")
	if !e.PaymentMethod.Valid() {
		errs.Add("paymentMethod", "Invalid payment method")
	}
	if !e.Amount.IsPositive() {
		errs.Add("amount", "Amount must be greater than 0")
	} else {
		errs.MoneyBounds("amount", e.Amount)
	}
	return errs.Err()
}

// prepare fills the fields the ledger owns on a fresh entry.
func prepare(e Entry, now time.Time) Entry {
	e.ID = uuid.NewString()
	e.Status = StatusSuccess
	e.CreatedAt = now.UTC()
	return e
}

func validAmount(amount decimal.Decimal) error {
	errs := &validate.Errors{}
	if !amount.IsPositive() {
		errs.Add("amount", "Amount must be greater than 0")
	} else {
		errs.MoneyBounds("amount", amount)
	}
	return errs.Err()
}

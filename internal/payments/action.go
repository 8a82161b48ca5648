package payments

import (
	"github.com/shopspring/decimal"

	"github.com/rechargehub/rechargehub/internal/ledger"
	"github.com/rechargehub/rechargehub/internal/validate"
)

// Action is one balance-mutation request. Wrappers such as Recharge build
// it from their inputs; Execute runs it.
type Action struct {
	AccountID     string
	Kind          ledger.Kind
	MobileNumber  string
	Operator      string
	Amount        decimal.Decimal
	PaymentMethod ledger.PaymentMethod
	PlanID        string
	BillType      string
	Circle        string
	// TransactionID is normally generated. Refunds preset it so that a
	// transaction can be refunded only once.
	TransactionID string
}

// Validate checks the action without touching storage.
func (a Action) Validate() error {
	return a.check().Err()
}

func (a Action) check() *validate.Errors {
	errs := &validate.Errors{}
	errs.Required("userId", a.AccountID, "User is required")
	if !a.Kind.Valid() {
		errs.Add("type", "Invalid transaction type")
	}
	errs.MobileNumber("mobileNumber", a.MobileNumber)
	errs.Required("operator", a.Operator, "Operator is required")
	errs.PositiveAmount("amount", a.Amount, "Amount must be greater than 0")
	if !a.PaymentMethod.Valid() {
		errs.Add("paymentMethod", "Invalid payment method")
	}

	switch a.Kind {
	case ledger.KindBillPayment:
		errs.Required("billType", a.BillType, "Bill type is required")
		if a.PaymentMethod != "" && !a.PaymentMethod.WalletFunded() {
			errs.Add("paymentMethod", "Bills are paid from the wallet")
		}
	case ledger.KindWalletTopUp:
		if a.PaymentMethod.WalletFunded() {
			errs.Add("paymentMethod", "Wallet cannot be topped up from itself")
		}
	}
	return errs
}

// Effect returns the balance change the action applies.
func (a Action) Effect() ledger.Effect {
	switch a.Kind {
	case ledger.KindWalletTopUp, ledger.KindRefund:
		return ledger.EffectCredit
	case ledger.KindRecharge, ledger.KindBillPayment:
		if a.PaymentMethod.WalletFunded() {
			return ledger.EffectDebit
		}
	}
	return ledger.EffectNone
}

func (a Action) entry() ledger.Entry {
	return ledger.Entry{
		TransactionID: a.TransactionID,
		AccountID:     a.AccountID,
		Kind:          a.Kind,
		MobileNumber:  a.MobileNumber,
		Operator:      a.Operator,
		Amount:        a.Amount,
		PlanID:        a.PlanID,
		BillType:      a.BillType,
		PaymentMethod: a.PaymentMethod,
	}
}

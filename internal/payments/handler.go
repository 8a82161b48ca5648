package payments

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/rechargehub/rechargehub/internal/account"
	"github.com/rechargehub/rechargehub/internal/httpx"
	"github.com/rechargehub/rechargehub/internal/ledger"
)

// Handler exposes payment endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a payment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// methodField accepts either "upi" or {"method": "upi"}.
type methodField string

func (m *methodField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '{' {
		var obj struct {
			Method string `json:"method"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*m = methodField(obj.Method)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*m = methodField(s)
	return nil
}

type rechargeRequest struct {
	MobileNumber  string          `json:"mobileNumber"`
	Operator      string          `json:"operator"`
	Amount        decimal.Decimal `json:"amount"`
	Circle        string          `json:"circle"`
	PlanID        string          `json:"planId"`
	PaymentMethod methodField     `json:"paymentMethod"`
}

type entryView struct {
	TransactionID string          `json:"transactionId"`
	MobileNumber  string          `json:"mobileNumber"`
	Operator      string          `json:"operator"`
	Amount        decimal.Decimal `json:"amount"`
	BillType      string          `json:"billType,omitempty"`
	Status        ledger.Status   `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func viewOf(e ledger.Entry) entryView {
	return entryView{
		TransactionID: e.TransactionID,
		MobileNumber:  e.MobileNumber,
		Operator:      e.Operator,
		Amount:        e.Amount,
		BillType:      e.BillType,
		Status:        e.Status,
		CreatedAt:     e.CreatedAt,
	}
}

// Recharge handles POST /recharge.
func (h *Handler) Recharge(c *fiber.Ctx) error {
	var req rechargeRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.ErrBadBody
	}
	res, err := h.service.Recharge(c.UserContext(), RechargeInput{
		AccountID:     httpx.AccountID(c),
		MobileNumber:  req.MobileNumber,
		Operator:      req.Operator,
		Amount:        req.Amount,
		Circle:        req.Circle,
		PlanID:        req.PlanID,
		PaymentMethod: ledger.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		return HTTPError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message":       "Recharge successful",
		"transaction":   viewOf(res.Entry),
		"walletBalance": res.Balance,
		"paymentMethod": res.Entry.PaymentMethod,
	})
}

type billRequest struct {
	MobileNumber string          `json:"mobileNumber"`
	Operator     string          `json:"operator"`
	Amount       decimal.Decimal `json:"amount"`
	BillType     string          `json:"billType"`
}

// PayBill handles POST /bills/pay.
func (h *Handler) PayBill(c *fiber.Ctx) error {
	var req billRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.ErrBadBody
	}
	res, err := h.service.PayBill(c.UserContext(), BillInput{
		AccountID:    httpx.AccountID(c),
		MobileNumber: req.MobileNumber,
		Operator:     req.Operator,
		Amount:       req.Amount,
		BillType:     req.BillType,
	})
	if err != nil {
		return HTTPError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message":       "Bill payment successful",
		"transaction":   viewOf(res.Entry),
		"walletBalance": res.Balance,
	})
}

type topUpRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod methodField     `json:"paymentMethod"`
}

// TopUp handles POST /wallet/topup.
func (h *Handler) TopUp(c *fiber.Ctx) error {
	var req topUpRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.ErrBadBody
	}
	res, err := h.service.TopUp(c.UserContext(), TopUpInput{
		AccountID:     httpx.AccountID(c),
		Amount:        req.Amount,
		PaymentMethod: ledger.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		return HTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message":       "Wallet topped up successfully",
		"balance":       res.Balance,
		"transactionId": res.Entry.TransactionID,
	})
}

type refundRequest struct {
	TransactionID string `json:"transactionId"`
}

// Refund handles POST /admin/users/:id/refunds.
func (h *Handler) Refund(c *fiber.Ctx) error {
	var req refundRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.ErrBadBody
	}
	res, err := h.service.Refund(c.UserContext(), RefundInput{
		AccountID:     c.Params("id"),
		TransactionID: req.TransactionID,
	})
	if err != nil {
		return HTTPError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message":       "Refund processed",
		"transaction":   res.Entry,
		"walletBalance": res.Balance,
	})
}

// HTTPError maps workflow errors to fiber errors. Unknown errors pass through.
func HTTPError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.NewError(http.StatusBadRequest, "Insufficient wallet balance")
	case errors.Is(err, ledger.ErrEntryNotFound):
		return fiber.NewError(http.StatusNotFound, "Transaction not found")
	case errors.Is(err, ledger.ErrDuplicateTransaction):
		return fiber.NewError(http.StatusConflict, "Duplicate transaction")
	case errors.Is(err, ErrAlreadyRefunded):
		return fiber.NewError(http.StatusConflict, "Transaction already refunded")
	case errors.Is(err, ErrPaymentDeclined):
		return fiber.NewError(http.StatusPaymentRequired, "Payment declined")
	}
	return account.HTTPError(err)
}

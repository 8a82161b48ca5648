package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rechargehub/rechargehub/internal/ledger"
	"github.com/rechargehub/rechargehub/internal/payments"
)

// RegisterPaymentRoutes wires recharge, bill and transaction history
// endpoints. Mutating routes pass through idempotent.
func RegisterPaymentRoutes(r fiber.Router, h *payments.Handler, history *payments.HistoryHandler, idempotent fiber.Handler) {
	r.Post("/recharge", idempotent, h.Recharge)
	r.Get("/recharge/history", history.ByKind(ledger.KindRecharge))
	r.Post("/bills/pay", idempotent, h.PayBill)
	r.Get("/bills/history", history.ByKind(ledger.KindBillPayment))
	r.Get("/transactions", history.List)
	r.Get("/transactions/:id", history.Get)
}

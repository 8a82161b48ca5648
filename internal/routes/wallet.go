package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rechargehub/rechargehub/internal/ledger"
	"github.com/rechargehub/rechargehub/internal/payments"
)

// RegisterWalletRoutes wires wallet-related endpoints.
func RegisterWalletRoutes(r fiber.Router, h *payments.Handler, history *payments.HistoryHandler, idempotent fiber.Handler) {
	r.Get("/wallet/balance", history.Balance)
	r.Post("/wallet/topup", idempotent, h.TopUp)
	r.Get("/wallet/transactions", history.ByKind(ledger.KindWalletTopUp))
}

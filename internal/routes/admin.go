package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rechargehub/rechargehub/internal/account"
	"github.com/rechargehub/rechargehub/internal/payments"
	"github.com/rechargehub/rechargehub/internal/plans"
	"github.com/rechargehub/rechargehub/internal/reporting"
)

// AdminHandlers groups the handlers mounted under /admin.
type AdminHandlers struct {
	Accounts *account.Handler
	Payments *payments.Handler
	History  *payments.HistoryHandler
	Reports  *reporting.Handler
	Plans    *plans.Handler
}

// RegisterAdminRoutes wires the admin surface. r must already enforce the
// admin role.
func RegisterAdminRoutes(r fiber.Router, h AdminHandlers) {
	r.Get("/dashboard", h.Reports.Dashboard)

	r.Get("/users", h.Accounts.List)
	r.Get("/users/:id", h.Accounts.Get)
	r.Put("/users/:id/role", h.Accounts.SetRole)
	r.Post("/users/:id/refunds", h.Payments.Refund)

	r.Get("/transactions", h.History.Search)
	r.Get("/transactions/stats", h.Reports.TransactionStats)

	r.Get("/plans", h.Plans.ListAll)
	r.Post("/plans", h.Plans.Create)
	r.Put("/plans/:id", h.Plans.Update)
	r.Delete("/plans/:id", h.Plans.Delete)
}

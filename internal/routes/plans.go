package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rechargehub/rechargehub/internal/plans"
)

// RegisterPlanRoutes wires the public catalog.
func RegisterPlanRoutes(r fiber.Router, h *plans.Handler) {
	r.Get("/plans", h.List)
	r.Get("/plans/:id", h.Get)
}

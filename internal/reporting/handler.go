package reporting

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the admin reports.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Dashboard handles GET /admin/dashboard.
func (h *Handler) Dashboard(c *fiber.Ctx) error {
	d, err := h.service.Dashboard(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(d)
}

// TransactionStats handles GET /admin/transactions/stats.
func (h *Handler) TransactionStats(c *fiber.Ctx) error {
	stats, err := h.service.TransactionStats(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(stats)
}

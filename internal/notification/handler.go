package notification

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/rechargehub/rechargehub/internal/httpx"
)

// Handler exposes inbox endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a notification HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /notifications?unreadOnly=true.
func (h *Handler) List(c *fiber.Ctx) error {
	items, err := h.service.List(c.UserContext(), httpx.AccountID(c), c.QueryBool("unreadOnly"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(items)
}

// MarkRead handles PUT /notifications/:id/read.
func (h *Handler) MarkRead(c *fiber.Ctx) error {
	n, err := h.service.MarkRead(c.UserContext(), httpx.AccountID(c), c.Params("id"))
	if errors.Is(err, ErrNotFound) {
		return fiber.NewError(http.StatusNotFound, "Notification not found")
	}
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(n)
}

// MarkAllRead handles PUT /notifications/read-all.
func (h *Handler) MarkAllRead(c *fiber.Ctx) error {
	updated, err := h.service.MarkAllRead(c.UserContext(), httpx.AccountID(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "All notifications marked as read",
		"updated": updated,
	})
}

// UnreadCount handles GET /notifications/unread/count.
func (h *Handler) UnreadCount(c *fiber.Ctx) error {
	count, err := h.service.UnreadCount(c.UserContext(), httpx.AccountID(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"count": count})
}

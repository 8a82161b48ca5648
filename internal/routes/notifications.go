package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rechargehub/rechargehub/internal/notification"
)

// RegisterNotificationRoutes wires the caller's inbox.
func RegisterNotificationRoutes(r fiber.Router, h *notification.Handler) {
	r.Get("/notifications", h.List)
	r.Get("/notifications/unread/count", h.UnreadCount)
	r.Put("/notifications/read-all", h.MarkAllRead)
	r.Put("/notifications/:id/read", h.MarkRead)
}

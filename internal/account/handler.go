package account

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/rechargehub/rechargehub/internal/httpx"
	"github.com/rechargehub/rechargehub/internal/ledger"
)

const adminRecentTransactions = 20

// Handler exposes profile and admin user endpoints.
type Handler struct {
	service *Service
	history ledger.Reader
}

// NewHandler constructs an account HTTP handler.
func NewHandler(service *Service, history ledger.Reader) *Handler {
	return &Handler{service: service, history: history}
}

// Me returns the authenticated account.
func (h *Handler) Me(c *fiber.Ctx) error {
	acc, err := h.service.Get(c.UserContext(), httpx.AccountID(c))
	if err != nil {
		return HTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(acc)
}

// List handles GET /admin/users?search=&page=&limit=.
func (h *Handler) List(c *fiber.Ctx) error {
	page, offset, limit := httpx.Page(c, 20)
	res, err := h.service.List(c.UserContext(), ListQuery{Search: c.Query("search"), Offset: offset, Limit: limit})
	if err != nil {
		return HTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"users":      res.Accounts,
		"total":      res.Total,
		"page":       page,
		"totalPages": httpx.TotalPages(res.Total, limit),
	})
}

// Get handles GET /admin/users/:id with the account's latest transactions.
func (h *Handler) Get(c *fiber.Ctx) error {
	acc, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return HTTPError(err)
	}
	recent, err := h.history.FindByAccount(c.UserContext(), acc.ID, ledger.Query{Limit: adminRecentTransactions})
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"user":         acc,
		"transactions": recent.Entries,
	})
}

type roleRequest struct {
	Role Role `json:"role"`
}

// SetRole handles PUT /admin/users/:id/role.
func (h *Handler) SetRole(c *fiber.Ctx) error {
	var req roleRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.ErrBadBody
	}
	acc, err := h.service.SetRole(c.UserContext(), c.Params("id"), req.Role)
	if err != nil {
		return HTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "User role updated successfully", "user": acc})
}

// HTTPError maps account errors to fiber errors. Unknown errors pass through.
func HTTPError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, "User not found")
	case errors.Is(err, ErrEmailTaken):
		return fiber.NewError(http.StatusConflict, "User already exists")
	case errors.Is(err, ErrInvalidCredentials):
		return fiber.NewError(http.StatusUnauthorized, "Invalid credentials")
	}
	return err
}

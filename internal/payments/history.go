package payments

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/rechargehub/rechargehub/internal/httpx"
	"github.com/rechargehub/rechargehub/internal/ledger"
)

const historyLimit = 50

// HistoryHandler exposes read-only ledger views for the authenticated
// account and the admin transaction listing.
type HistoryHandler struct {
	ledger ledger.Ledger
}

// NewHistoryHandler constructs a history handler.
func NewHistoryHandler(l ledger.Ledger) *HistoryHandler {
	return &HistoryHandler{ledger: l}
}

// ByKind returns a handler listing the caller's latest entries of kind.
func (h *HistoryHandler) ByKind(kind ledger.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, err := h.ledger.FindByAccount(c.UserContext(), httpx.AccountID(c), ledger.Query{Kind: kind, Limit: historyLimit})
		if err != nil {
			return err
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{"transactions": page.Entries})
	}
}

// Balance handles GET /wallet/balance.
func (h *HistoryHandler) Balance(c *fiber.Ctx) error {
	balance, err := h.ledger.Balance(c.UserContext(), httpx.AccountID(c))
	if errors.Is(err, ledger.ErrWalletNotFound) {
		return fiber.NewError(http.StatusNotFound, "Wallet not found")
	}
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"balance": balance})
}

// List handles GET /transactions?type=&page=&limit=.
func (h *HistoryHandler) List(c *fiber.Ctx) error {
	kind := ledger.Kind(c.Query("type"))
	if kind != "" && !kind.Valid() {
		return fiber.NewError(http.StatusBadRequest, "Invalid transaction type")
	}
	pageNo, offset, limit := httpx.Page(c, historyLimit)
	page, err := h.ledger.FindByAccount(c.UserContext(), httpx.AccountID(c), ledger.Query{Kind: kind, Offset: offset, Limit: limit})
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"transactions": page.Entries,
		"total":        page.Total,
		"page":         pageNo,
		"totalPages":   httpx.TotalPages(page.Total, limit),
	})
}

// Get handles GET /transactions/:id.
func (h *HistoryHandler) Get(c *fiber.Ctx) error {
	entry, err := h.ledger.Get(c.UserContext(), httpx.AccountID(c), c.Params("id"))
	if err != nil {
		return HTTPError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transaction": entry})
}

// Search handles GET /admin/transactions with type, status, startDate and
// endDate filters. Dates are RFC 3339 or YYYY-MM-DD.
func (h *HistoryHandler) Search(c *fiber.Ctx) error {
	filter := ledger.Filter{
		Kind:   ledger.Kind(c.Query("type")),
		Status: ledger.Status(c.Query("status")),
	}
	var err error
	if filter.From, err = httpx.ParseDate(c.Query("startDate"), false); err != nil {
		return fiber.NewError(http.StatusBadRequest, "Invalid startDate")
	}
	if filter.To, err = httpx.ParseDate(c.Query("endDate"), true); err != nil {
		return fiber.NewError(http.StatusBadRequest, "Invalid endDate")
	}

	pageNo, offset, limit := httpx.Page(c, historyLimit)
	filter.Offset, filter.Limit = offset, limit
	page, err := h.ledger.Search(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"transactions": page.Entries,
		"total":        page.Total,
		"page":         pageNo,
		"totalPages":   httpx.TotalPages(page.Total, limit),
	})
}

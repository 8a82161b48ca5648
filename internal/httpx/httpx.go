// Package httpx holds the fiber glue shared by every handler: the JSON error
// renderer, request locals and paging parameters.
package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/rechargehub/rechargehub/internal/validate"
)

// Locals keys populated by the auth middleware.
const (
	LocalAccountID = "account_id"
	LocalRole      = "role"
)

// AccountID returns the authenticated account id or "".
func AccountID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalAccountID).(string)
	return id
}

// Role returns the authenticated role or "".
func Role(c *fiber.Ctx) string {
	role, _ := c.Locals(LocalRole).(string)
	return role
}

// ErrBadBody is returned for unparsable request bodies.
var ErrBadBody = fiber.NewError(http.StatusBadRequest, "Invalid request body")

// ErrorHandler renders validation failures as {"errors": [...]} and every
// other error as {"error": msg}. Errors that are not *fiber.Error are logged
// and reported as 500 without leaking their text.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var verr *validate.Errors
		if errors.As(err, &verr) {
			return c.Status(http.StatusBadRequest).JSON(verr)
		}

		code := http.StatusInternalServerError
		msg := "Server error"
		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			code = ferr.Code
			msg = ferr.Message
		} else if logger != nil {
			logger.Error("unhandled error",
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.Any("error", err),
			)
		}
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
}

// Page converts 1-based page/limit query parameters into offset and limit.
func Page(c *fiber.Ctx, defaultLimit int) (page, offset, limit int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit = c.QueryInt("limit", defaultLimit)
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > 100 {
		limit = 100
	}
	return page, (page - 1) * limit, limit
}

// TotalPages is ceil(total / limit).
func TotalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// ParseDate parses an RFC 3339 timestamp or a YYYY-MM-DD day. A bare day is
// the start of that day, or its last instant when endOfDay is set. An empty
// value yields the zero time.
func ParseDate(value string, endOfDay bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	day, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		return day.Add(24*time.Hour - time.Nanosecond), nil
	}
	return day, nil
}

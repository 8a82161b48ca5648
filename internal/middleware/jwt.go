package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/rechargehub/rechargehub/internal/account"
	"github.com/rechargehub/rechargehub/internal/auth"
	"github.com/rechargehub/rechargehub/internal/httpx"
)

// TokenVerifier checks an access token.
type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

// JWTAuth validates the bearer access token and stores the account id and
// role in Locals.
func JWTAuth(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "No token, authorization denied")
		}
		claims, err := v.Verify(strings.TrimSpace(authz[len("Bearer "):]))
		if err != nil {
			return auth.HTTPError(err)
		}
		c.Locals(httpx.LocalAccountID, claims.AccountID)
		c.Locals(httpx.LocalRole, string(claims.Role))
		return c.Next()
	}
}

// AccountLookup loads the caller's account record.
type AccountLookup interface {
	Get(ctx context.Context, id string) (account.Account, error)
}

// RequireAdmin must run after JWTAuth. The role is read from the account
// record on each request, so a role change applies to tokens already issued.
func RequireAdmin(accounts AccountLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		acc, err := accounts.Get(c.UserContext(), httpx.AccountID(c))
		if errors.Is(err, account.ErrNotFound) {
			return fiber.NewError(http.StatusUnauthorized, "Invalid token")
		}
		if err != nil {
			return err
		}
		c.Locals(httpx.LocalRole, string(acc.Role))
		if acc.Role != account.RoleAdmin {
			return fiber.NewError(http.StatusForbidden, "Access denied. Admin privileges required.")
		}
		return c.Next()
	}
}

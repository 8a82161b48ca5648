// Package seed creates the bootstrap admin account and the default plan
// catalog.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rechargehub/rechargehub/internal/account"
	"github.com/rechargehub/rechargehub/internal/plans"
)

// Default admin credentials. The password must be changed after first login.
const (
	AdminName     = "Admin"
	AdminEmail    = "admin@recharge.com"
	AdminPassword = "admin123"
	AdminPhone    = "9999999999"
)

// DefaultAdmin is the bootstrap admin registration.
func DefaultAdmin() account.RegisterInput {
	return account.RegisterInput{Name: AdminName, Email: AdminEmail, Phone: AdminPhone, Password: AdminPassword}
}

// Run ensures the admin account exists with the admin role and seeds the
// plan catalog when it is empty. It is safe to run repeatedly.
func Run(ctx context.Context, accounts *account.Service, catalog *plans.Service, admin account.RegisterInput, logger *slog.Logger) error {
	acc, created, err := accounts.EnsureAdmin(ctx, admin)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	logger.Info("admin account ready",
		slog.String("email", acc.Email),
		slog.Bool("created", created),
	)

	n, err := catalog.Seed(ctx, plans.DefaultCatalog())
	if err != nil {
		return fmt.Errorf("seed plans: %w", err)
	}
	logger.Info("plan catalog ready", slog.Int("inserted", n))
	return nil
}

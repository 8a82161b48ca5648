package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/rechargehub/rechargehub/internal/account"
	"github.com/rechargehub/rechargehub/internal/auth"
	"github.com/rechargehub/rechargehub/internal/config"
	"github.com/rechargehub/rechargehub/internal/events"
	"github.com/rechargehub/rechargehub/internal/gateway"
	"github.com/rechargehub/rechargehub/internal/ledger"
	"github.com/rechargehub/rechargehub/internal/metrics"
	"github.com/rechargehub/rechargehub/internal/middleware"
	"github.com/rechargehub/rechargehub/internal/notification"
	"github.com/rechargehub/rechargehub/internal/payments"
	"github.com/rechargehub/rechargehub/internal/plans"
	"github.com/rechargehub/rechargehub/internal/reporting"
	"github.com/rechargehub/rechargehub/internal/seed"
)

// Deps aggregates shared dependencies required to wire routes. DB, Cache and
// NATS may be nil in development mode.
type Deps struct {
	Cfg     config.Config
	DB      *pgxpool.Pool
	Cache   *redis.Client
	NATS    *nats.Conn
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Services holds the constructed application services.
type Services struct {
	Ledger        ledger.Ledger
	Accounts      *account.Service
	Auth          *auth.Service
	Payments      *payments.Service
	Notifications *notification.Service
	Plans         *plans.Service
	Reports       *reporting.Service
}

// NewServices selects Postgres or in-memory backends and builds every
// service. Without a database the memory stores are seeded with the admin
// account and the plan catalog.
func NewServices(ctx context.Context, d Deps) (*Services, error) {
	var (
		ledgerBackend ledger.Ledger
		accountRepo   account.Repository
		inboxRepo     notification.Repository
		planRepo      plans.Repository
	)
	if d.DB != nil {
		ledgerBackend = ledger.NewPostgresLedger(d.DB)
		accountRepo = account.NewPostgresRepository(d.DB)
		inboxRepo = notification.NewPostgresRepository(d.DB)
		planRepo = plans.NewPostgresRepository(d.DB)
	} else {
		ledgerBackend = ledger.NewInMemory()
		accountRepo = account.NewMemoryRepository()
		inboxRepo = notification.NewMemoryRepository()
		planRepo = plans.NewMemoryRepository()
	}
	if d.Cache != nil {
		planRepo = plans.NewCachedRepository(planRepo, d.Cache, d.Cfg.PlanCacheTTL, d.Logger)
	}

	var bus events.Bus = events.NopBus{}
	if d.NATS != nil {
		bus = events.NewNATSBus(d.NATS)
	}

	accounts := account.NewService(accountRepo, ledgerBackend)
	catalog := plans.NewService(planRepo)
	notifier := notification.Multi{
		notification.NewStoreNotifier(inboxRepo),
		notification.NewLoggerNotifier(d.Logger),
	}

	s := &Services{
		Ledger:        ledgerBackend,
		Accounts:      accounts,
		Auth:          auth.NewService(d.Cfg, accounts),
		Notifications: notification.NewService(inboxRepo),
		Plans:         catalog,
		Reports:       reporting.NewService(ledgerBackend, accounts, catalog),
		Payments: payments.NewService(ledgerBackend, accounts, notifier, d.Logger,
			payments.WithAuthorizer(gateway.StaticAuthorizer{}),
			payments.WithBus(bus),
			payments.WithMetrics(d.Metrics),
		),
	}

	if d.DB == nil {
		if err := seed.Run(ctx, accounts, catalog, seed.DefaultAdmin(), d.Logger); err != nil {
			return nil, fmt.Errorf("seed memory stores: %w", err)
		}
	}
	return s, nil
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}

	svc, err := NewServices(context.Background(), d)
	if err != nil {
		return err
	}

	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Metrics(d.Metrics))
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Metrics.Registry(), promhttp.HandlerOpts{})))

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	RegisterAuthRoutes(api, auth.NewHandler(svc.Accounts, svc.Auth),
		middleware.LoginRateLimit(d.Cache, d.Cfg.LoginRatePerMin, d.Logger))
	planHandler := plans.NewHandler(svc.Plans)
	RegisterPlanRoutes(api, planHandler)

	// Protected routes
	protected := api.Group("", middleware.JWTAuth(svc.Auth))
	idempotent := middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	history := payments.NewHistoryHandler(svc.Ledger)
	paymentHandler := payments.NewHandler(svc.Payments)
	accountHandler := account.NewHandler(svc.Accounts, svc.Ledger)

	protected.Get("/me", accountHandler.Me)
	RegisterPaymentRoutes(protected, paymentHandler, history, idempotent)
	RegisterWalletRoutes(protected, paymentHandler, history, idempotent)
	RegisterNotificationRoutes(protected, notification.NewHandler(svc.Notifications))

	admin := protected.Group("/admin", middleware.RequireAdmin(svc.Accounts))
	RegisterAdminRoutes(admin, AdminHandlers{
		Accounts: accountHandler,
		Payments: paymentHandler,
		History:  history,
		Reports:  reporting.NewHandler(svc.Reports),
		Plans:    planHandler,
	})

	return nil
}

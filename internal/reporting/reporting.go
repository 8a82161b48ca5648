// Package reporting builds the admin dashboard and transaction statistics
// from the ledger, account and plan stores.
package reporting

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/rechargehub/rechargehub/internal/account"
	"github.com/rechargehub/rechargehub/internal/ledger"
)

const (
	recentTransactions = 10
	recentAccounts     = 5
)

// Accounts is the account view needed for the dashboard.
type Accounts interface {
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, q account.ListQuery) (account.ListResult, error)
}

// Plans counts the plans on offer.
type Plans interface {
	CountActive(ctx context.Context) (int, error)
}

// Stats are the dashboard headline numbers.
type Stats struct {
	TotalUsers        int             `json:"totalUsers"`
	TotalTransactions int             `json:"totalTransactions"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	TotalPlans        int             `json:"totalPlans"`
}

// Dashboard is the admin landing view.
type Dashboard struct {
	Stats                Stats             `json:"stats"`
	RecentTransactions   []ledger.Entry    `json:"recentTransactions"`
	RecentUsers          []account.Account `json:"recentUsers"`
	TransactionsByType   []ledger.Bucket   `json:"transactionsByType"`
	TransactionsByStatus []ledger.Bucket   `json:"transactionsByStatus"`
}

// TransactionStats is the ledger-wide summary with per-kind and per-status
// buckets.
type TransactionStats struct {
	Overall  ledger.Summary  `json:"overall"`
	ByType   []ledger.Bucket `json:"byType"`
	ByStatus []ledger.Bucket `json:"byStatus"`
}

// Service computes reports. Each report issues its queries concurrently.
type Service struct {
	ledger   ledger.Reader
	accounts Accounts
	plans    Plans
}

// NewService constructs a reporting service.
func NewService(l ledger.Reader, accounts Accounts, plans Plans) *Service {
	return &Service{ledger: l, accounts: accounts, plans: plans}
}

// Dashboard returns totals, revenue from successful entries, the latest
// transactions and accounts, and per-kind and per-status counts.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var (
		d       Dashboard
		summary ledger.Summary
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Stats.TotalUsers, err = s.accounts.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		summary, err = s.ledger.Summary(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.Stats.TotalPlans, err = s.plans.CountActive(ctx)
		return err
	})
	g.Go(func() error {
		page, err := s.ledger.Search(ctx, ledger.Filter{Limit: recentTransactions})
		d.RecentTransactions = page.Entries
		return err
	})
	g.Go(func() error {
		res, err := s.accounts.List(ctx, account.ListQuery{Limit: recentAccounts})
		d.RecentUsers = res.Accounts
		return err
	})
	g.Go(func() (err error) {
		d.TransactionsByType, err = s.ledger.Aggregate(ctx, ledger.GroupByKind, "")
		return err
	})
	g.Go(func() (err error) {
		d.TransactionsByStatus, err = s.ledger.Aggregate(ctx, ledger.GroupByStatus, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	d.Stats.TotalTransactions = summary.TotalCount
	d.Stats.TotalRevenue = summary.SuccessAmount
	return d, nil
}

// TransactionStats returns the ledger summary and its kind and status
// breakdowns.
func (s *Service) TransactionStats(ctx context.Context) (TransactionStats, error) {
	var out TransactionStats
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Overall, err = s.ledger.Summary(ctx)
		return err
	})
	g.Go(func() (err error) {
		out.ByType, err = s.ledger.Aggregate(ctx, ledger.GroupByKind, "")
		return err
	})
	g.Go(func() (err error) {
		out.ByStatus, err = s.ledger.Aggregate(ctx, ledger.GroupByStatus, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return TransactionStats{}, err
	}
	return out, nil
}

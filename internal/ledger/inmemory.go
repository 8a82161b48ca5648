package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rechargehub/rechargehub/internal/validate"
)

type inMemoryLedger struct {
	mu       sync.RWMutex
	entries  []Entry
	byTxID   map[string]int
	balances map[string]decimal.Decimal

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	now   func() time.Time
	newID func(Kind) string
}

// Option customises an in-memory ledger.
type Option func(*inMemoryLedger)

// WithClock overrides the clock used to timestamp entries.
func WithClock(now func() time.Time) Option {
	return func(l *inMemoryLedger) { l.now = now }
}

// WithIDGenerator overrides transaction id generation.
func WithIDGenerator(gen func(Kind) string) Option {
	return func(l *inMemoryLedger) { l.newID = gen }
}

// NewInMemory creates a concurrency-safe in-memory ledger used by tests and
// by development mode when no database is configured.
func NewInMemory(opts ...Option) Ledger {
	l := &inMemoryLedger{
		byTxID:   make(map[string]int),
		balances: make(map[string]decimal.Decimal),
		locks:    make(map[string]*sync.Mutex),
		now:      time.Now,
		newID:    NewTransactionID,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// walletLock returns the writer lock for one account.
func (l *inMemoryLedger) walletLock(accountID string) *sync.Mutex {
	l.locksMu.Lock()
	defer l.locksMu.Unlock()
	m, ok := l.locks[accountID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[accountID] = m
	}
	return m
}

func (l *inMemoryLedger) OpenWallet(_ context.Context, accountID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.balances[accountID]; !exists {
		l.balances[accountID] = decimal.Zero
	}
	return nil
}

func (l *inMemoryLedger) Balance(_ context.Context, accountID string) (decimal.Decimal, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	balance, exists := l.balances[accountID]
	if !exists {
		return decimal.Zero, ErrWalletNotFound
	}
	return balance, nil
}

func (l *inMemoryLedger) Debit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	return l.mutate(ctx, accountID, amount, EffectDebit)
}

func (l *inMemoryLedger) Credit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	return l.mutate(ctx, accountID, amount, EffectCredit)
}

func (l *inMemoryLedger) mutate(ctx context.Context, accountID string, amount decimal.Decimal, effect Effect) (decimal.Decimal, error) {
	if err := validAmount(amount); err != nil {
		return decimal.Zero, err
	}
	lock := l.walletLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	balance, err := l.Balance(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	next, err := apply(balance, amount, effect)
	if err != nil {
		return decimal.Zero, err
	}

	l.mu.Lock()
	l.balances[accountID] = next
	l.mu.Unlock()
	return next, nil
}

func (l *inMemoryLedger) Append(_ context.Context, entry Entry) (Entry, error) {
	if err := validateEntry(entry); err != nil {
		return Entry{}, err
	}
	res, err := withTransactionID(entry, l.newID, func(e Entry) (Receipt, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		stored, err := l.insertLocked(e)
		return Receipt{Entry: stored}, err
	})
	return res.Entry, err
}

func (l *inMemoryLedger) Post(ctx context.Context, p Posting) (Receipt, error) {
	if err := validateEntry(p.Entry); err != nil {
		return Receipt{}, err
	}

	accountID := p.Entry.AccountID
	lock := l.walletLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	balance, err := l.Balance(ctx, accountID)
	if err != nil {
		return Receipt{}, err
	}
	next, err := apply(balance, p.Entry.Amount, p.Effect)
	if err != nil {
		return Receipt{}, err
	}

	return withTransactionID(p.Entry, l.newID, func(e Entry) (Receipt, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		stored, err := l.insertLocked(e)
		if err != nil {
			return Receipt{}, err
		}
		l.balances[accountID] = next
		return Receipt{Entry: stored, Balance: next}, nil
	})
}

// insertLocked appends e; l.mu must be held for writing.
func (l *inMemoryLedger) insertLocked(e Entry) (Entry, error) {
	if _, exists := l.byTxID[e.TransactionID]; exists {
		return Entry{}, ErrDuplicateTransaction
	}
	stored := prepare(e, l.now())
	l.byTxID[stored.TransactionID] = len(l.entries)
	l.entries = append(l.entries, stored)
	return stored, nil
}

func (l *inMemoryLedger) FindByAccount(_ context.Context, accountID string, q Query) (Page, error) {
	return l.page(q.Offset, q.Limit, func(e Entry) bool {
		return e.AccountID == accountID && (q.Kind == "" || e.Kind == q.Kind)
	}), nil
}

func (l *inMemoryLedger) Get(_ context.Context, accountID, transactionID string) (Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	idx, ok := l.byTxID[transactionID]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	e := l.entries[idx]
	if accountID != "" && e.AccountID != accountID {
		return Entry{}, ErrEntryNotFound
	}
	return e, nil
}

func (l *inMemoryLedger) Search(_ context.Context, f Filter) (Page, error) {
	return l.page(f.Offset, f.Limit, func(e Entry) bool {
		if f.Kind != "" && e.Kind != f.Kind {
			return false
		}
		if f.Status != "" && e.Status != f.Status {
			return false
		}
		if !f.From.IsZero() && e.CreatedAt.Before(f.From) {
			return false
		}
		if !f.To.IsZero() && e.CreatedAt.After(f.To) {
			return false
		}
		return true
	}), nil
}

// page walks entries newest first, which is reverse append order.
func (l *inMemoryLedger) page(offset, limit int, match func(Entry) bool) Page {
	offset, limit = normalizePage(offset, limit)
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := Page{Entries: []Entry{}}
	for i := len(l.entries) - 1; i >= 0; i-- {
		e := l.entries[i]
		if !match(e) {
			continue
		}
		if out.Total >= offset && len(out.Entries) < limit {
			out.Entries = append(out.Entries, e)
		}
		out.Total++
	}
	return out
}

func (l *inMemoryLedger) Aggregate(_ context.Context, by GroupBy, status Status) ([]Bucket, error) {
	key, err := groupKey(by)
	if err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	buckets := make(map[string]*Bucket)
	for _, e := range l.entries {
		if status != "" && e.Status != status {
			continue
		}
		k := key(e)
		b, ok := buckets[k]
		if !ok {
			b = &Bucket{Key: k, TotalAmount: decimal.Zero}
			buckets[k] = b
		}
		b.Count++
		b.TotalAmount = b.TotalAmount.Add(e.Amount)
	}

	out := make([]Bucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (l *inMemoryLedger) Summary(_ context.Context) (Summary, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Summary{TotalAmount: decimal.Zero, SuccessAmount: decimal.Zero}
	for _, e := range l.entries {
		s.TotalCount++
		s.TotalAmount = s.TotalAmount.Add(e.Amount)
		if e.Status == StatusSuccess {
			s.SuccessCount++
			s.SuccessAmount = s.SuccessAmount.Add(e.Amount)
		}
	}
	return s, nil
}

// apply computes the balance after effect, refusing to go negative.
func apply(balance, amount decimal.Decimal, effect Effect) (decimal.Decimal, error) {
	switch effect {
	case EffectDebit:
		if balance.LessThan(amount) {
			return decimal.Zero, ErrInsufficientFunds
		}
		return balance.Sub(amount), nil
	case EffectCredit:
		next := balance.Add(amount)
		if next.GreaterThanOrEqual(validate.MaxAmount) {
			return decimal.Zero, validate.Field("amount", "Wallet balance limit exceeded")
		}
		return next, nil
	default:
		return balance, nil
	}
}

func groupKey(by GroupBy) (func(Entry) string, error) {
	switch by {
	case GroupByKind:
		return func(e Entry) string { return string(e.Kind) }, nil
	case GroupByStatus:
		return func(e Entry) string { return string(e.Status) }, nil
	default:
		return nil, ErrInvalidGroupBy
	}
}

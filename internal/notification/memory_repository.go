package notification

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	items []Notification
}

// NewMemoryRepository builds an in-memory notification store.
func NewMemoryRepository() Repository {
	return &memoryRepository{}
}

func (r *memoryRepository) Create(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
	return nil
}

func (r *memoryRepository) List(_ context.Context, accountID string, q ListQuery) ([]Notification, error) {
	limit := listLimit(q.Limit)
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Notification{}
	for i := len(r.items) - 1; i >= 0 && len(out) < limit; i-- {
		n := r.items[i]
		if n.AccountID != accountID || (q.UnreadOnly && n.Read) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *memoryRepository) MarkRead(_ context.Context, accountID, id string) (Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id && r.items[i].AccountID == accountID {
			r.items[i].Read = true
			return r.items[i], nil
		}
	}
	return Notification{}, ErrNotFound
}

func (r *memoryRepository) MarkAllRead(_ context.Context, accountID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	updated := 0
	for i := range r.items {
		if r.items[i].AccountID == accountID && !r.items[i].Read {
			r.items[i].Read = true
			updated++
		}
	}
	return updated, nil
}

func (r *memoryRepository) UnreadCount(_ context.Context, accountID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, n := range r.items {
		if n.AccountID == accountID && !n.Read {
			count++
		}
	}
	return count, nil
}

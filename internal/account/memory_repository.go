package account

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type memoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]Account
	byEmail  map[string]string
}

// NewMemoryRepository builds an in-memory account store for testing and
// development mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		accounts: make(map[string]Account),
		byEmail:  make(map[string]string),
	}
}

func (r *memoryRepository) Create(_ context.Context, acc Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[acc.Email]; exists {
		return ErrEmailTaken
	}
	r.accounts[acc.ID] = acc
	r.byEmail[acc.Email] = acc.ID
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acc, ok := r.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acc, nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return Account{}, ErrNotFound
	}
	return r.accounts[id], nil
}

func (r *memoryRepository) List(_ context.Context, q ListQuery) ([]Account, error) {
	matched := r.matching(q.Search)
	if q.Offset >= len(matched) {
		return []Account{}, nil
	}
	end := len(matched)
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	return matched[q.Offset:end], nil
}

func (r *memoryRepository) Count(_ context.Context, search string) (int, error) {
	return len(r.matching(search)), nil
}

func (r *memoryRepository) SetRole(_ context.Context, id string, role Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[id]
	if !ok {
		return ErrNotFound
	}
	acc.Role = role
	r.accounts[id] = acc
	return nil
}

// matching returns accounts whose name, email or phone contain search,
// newest first.
func (r *memoryRepository) matching(search string) []Account {
	needle := strings.ToLower(strings.TrimSpace(search))
	r.mu.RLock()
	out := make([]Account, 0, len(r.accounts))
	for _, acc := range r.accounts {
		if needle == "" ||
			strings.Contains(strings.ToLower(acc.Name), needle) ||
			strings.Contains(strings.ToLower(acc.Email), needle) ||
			strings.Contains(acc.Phone, needle) {
			out = append(out, acc)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

package plans

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	plans map[string]Plan
}

// NewMemoryRepository builds an in-memory plan store for testing and
// development mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{plans: make(map[string]Plan)}
}

func (r *memoryRepository) Create(_ context.Context, p Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[p.ID] = p
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plans[id]
	if !ok {
		return Plan{}, ErrNotFound
	}
	return p, nil
}

func (r *memoryRepository) Update(_ context.Context, p Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[p.ID]; !ok {
		return ErrNotFound
	}
	r.plans[p.ID] = p
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[id]; !ok {
		return ErrNotFound
	}
	delete(r.plans, id)
	return nil
}

func (r *memoryRepository) ListActive(_ context.Context, operator string) ([]Plan, error) {
	out := r.filter(func(p Plan) bool {
		return p.Active && (operator == "" || p.Operator == operator)
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Price.Equal(out[j].Price) {
			return out[i].Price.LessThan(out[j].Price)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *memoryRepository) ListAll(_ context.Context) ([]Plan, error) {
	out := r.filter(func(Plan) bool { return true })
	sort.Slice(out, func(i, j int) bool {
		if out[i].Operator != out[j].Operator {
			return out[i].Operator < out[j].Operator
		}
		if !out[i].Price.Equal(out[j].Price) {
			return out[i].Price.LessThan(out[j].Price)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *memoryRepository) CountActive(_ context.Context) (int, error) {
	return len(r.filter(func(p Plan) bool { return p.Active })), nil
}

func (r *memoryRepository) filter(keep func(Plan) bool) []Plan {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Plan{}
	for _, p := range r.plans {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

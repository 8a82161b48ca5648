package plans

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service holds the plan catalog use cases.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a plan service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// ListActive returns active plans for operator, cheapest first.
func (s *Service) ListActive(ctx context.Context, operator string) ([]Plan, error) {
	return s.repo.ListActive(ctx, strings.TrimSpace(operator))
}

// ListAll returns the whole catalog including inactive plans.
func (s *Service) ListAll(ctx context.Context) ([]Plan, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (Plan, error) {
	return s.repo.Get(ctx, id)
}

// CountActive is the number of plans currently offered.
func (s *Service) CountActive(ctx context.Context) (int, error) {
	return s.repo.CountActive(ctx)
}

// Create validates and stores a new plan.
func (s *Service) Create(ctx context.Context, in CreateInput) (Plan, error) {
	if err := in.Validate(); err != nil {
		return Plan{}, err
	}
	p := Plan{
		ID:          uuid.NewString(),
		Operator:    strings.TrimSpace(in.Operator),
		Name:        strings.TrimSpace(in.Name),
		Price:       in.Price.Round(2),
		Validity:    strings.TrimSpace(in.Validity),
		Data:        strings.TrimSpace(in.Data),
		Talktime:    strings.TrimSpace(in.Talktime),
		Description: in.Description,
		Active:      true,
		CreatedAt:   s.now().UTC(),
	}
	if p.Talktime == "" {
		p.Talktime = DefaultTalktime
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return Plan{}, err
	}
	return p, nil
}

// Update applies a partial update to an existing plan.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Plan, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Plan{}, err
	}
	next, err := in.apply(current)
	if err != nil {
		return Plan{}, err
	}
	if err := s.repo.Update(ctx, next); err != nil {
		return Plan{}, err
	}
	return next, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Seed stores catalog when no plans exist yet and reports how many were
// created. A non-empty catalog is left untouched.
func (s *Service) Seed(ctx context.Context, catalog []CreateInput) (int, error) {
	existing, err := s.repo.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for i, in := range catalog {
		if _, err := s.Create(ctx, in); err != nil {
			return i, err
		}
	}
	return len(catalog), nil
}

package items

import (
	"context"

	"github.com/gatehouse/gatehouse/internal/rbac"
	"github.com/gatehouse/gatehouse/internal/shared"
)

// Service handles item business logic. Writes re-check the required
// privilege against the resolved identity immediately before side effects,
// independent of the route-level gate.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns all items.
func (s *Service) List(ctx context.Context) ([]Item, error) {
	if err := rbac.Require(ctx, shared.PrivReadItem); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

// Create inserts a new item.
func (s *Service) Create(ctx context.Context, req CreateItemRequest) (*Item, error) {
	if err := rbac.Require(ctx, shared.PrivWriteItem); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, req.Name, req.Price)
}

// Update rewrites an existing item. An absent id yields shared.ErrNotFound.
func (s *Service) Update(ctx context.Context, req UpdateItemRequest) (*Item, error) {
	if err := rbac.Require(ctx, shared.PrivWriteItem); err != nil {
		return nil, err
	}
	if _, err := s.repo.Get(ctx, req.ID); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, req.ID, req.Name, req.Price)
}

// AngelaMos | 2026
// service.go

package plan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
	"github.com/carterperez-dev/templates/isp-backend/internal/policy"
)

type Service struct {
	repo Repository
	tx   core.Transactor
}

func NewService(repo Repository, tx core.Transactor) *Service {
	return &Service{repo: repo, tx: tx}
}

// List is public; activeOnly hides plans no longer on sale.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]ServicePlan, error) {
	return s.repo.List(ctx, activeOnly)
}

func (s *Service) Get(ctx context.Context, id string) (*ServicePlan, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(
	ctx context.Context,
	claim policy.Claim,
	req CreatePlanRequest,
) (*ServicePlan, error) {
	if err := policy.Authorize(claim, policy.ResourceServicePlan, policy.ActionCreate, policy.Target{}); err != nil {
		return nil, err
	}

	if req.Price == nil {
		return nil, fmt.Errorf("create plan: price required: %w", core.ErrInvalidInput)
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("create plan: price must not be negative: %w", core.ErrInvalidInput)
	}

	p := &ServicePlan{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Speed:       strings.TrimSpace(req.Speed),
		DataCap:     req.DataCap,
		Price:       *req.Price,
		IsActive:    true,
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if p.Name == "" || p.Speed == "" {
		return nil, fmt.Errorf("create plan: name and speed are required: %w", core.ErrInvalidInput)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "service plan created",
		"plan_id", p.ID,
		"price", p.Price.String(),
	)

	return p, nil
}

// Update changes a plan in place. Existing subscriptions keep no copy of the
// old price.
func (s *Service) Update(
	ctx context.Context,
	claim policy.Claim,
	id string,
	req UpdatePlanRequest,
) (*ServicePlan, error) {
	if err := policy.Authorize(claim, policy.ResourceServicePlan, policy.ActionUpdate, policy.Target{}); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.Speed != nil {
		p.Speed = strings.TrimSpace(*req.Speed)
	}
	if req.DataCap != nil {
		p.DataCap = req.DataCap
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, fmt.Errorf("update plan: price must not be negative: %w", core.ErrInvalidInput)
		}
		p.Price = *req.Price
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if p.Name == "" || p.Speed == "" {
		return nil, fmt.Errorf("update plan: name and speed are required: %w", core.ErrInvalidInput)
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// Delete retires a plan. A plan referenced by any active subscription is
// kept and the conflict reports how many.
func (s *Service) Delete(ctx context.Context, claim policy.Claim, id string) error {
	if err := policy.Authorize(claim, policy.ResourceServicePlan, policy.ActionDelete, policy.Target{}); err != nil {
		return err
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.LockByID(ctx, id); err != nil {
			return err
		}

		active, err := s.repo.CountActiveSubscriptions(ctx, id)
		if err != nil {
			return err
		}

		if active > 0 {
			return core.ConflictError("plan has active subscriptions").
				WithDetails(map[string]any{"active_subscriptions": active})
		}

		return s.repo.SoftDelete(ctx, id)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "service plan deleted", "plan_id", id, "deleted_by", claim.UserID)
	return nil
}

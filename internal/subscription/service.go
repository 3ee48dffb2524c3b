// AngelaMos | 2026
// service.go

package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
	"github.com/carterperez-dev/templates/isp-backend/internal/policy"
)

var ErrActiveExists = fmt.Errorf(
	"customer already has an active subscription: %w",
	core.ErrConflict,
)

type Config struct {
	DefaultDays          int
	DefaultPaymentMethod string
}

type Service struct {
	repo   Repository
	owners policy.OwnerResolver
	tx     core.Transactor
	cfg    Config
	now    func() time.Time
}

func NewService(
	repo Repository,
	owners policy.OwnerResolver,
	tx core.Transactor,
	cfg Config,
) *Service {
	if cfg.DefaultDays <= 0 {
		cfg.DefaultDays = 30
	}
	if cfg.DefaultPaymentMethod == "" {
		cfg.DefaultPaymentMethod = "cash"
	}

	return &Service{
		repo:   repo,
		owners: owners,
		tx:     tx,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Create starts an active subscription. The customer row is locked for the
// whole check-then-insert so concurrent creators for one customer serialize,
// and the partial unique index on active subscriptions backs the check.
func (s *Service) Create(
	ctx context.Context,
	claim policy.Claim,
	req CreateSubscriptionRequest,
) (*Subscription, error) {
	if err := policy.Authorize(claim, policy.ResourceSubscription, policy.ActionCreate, policy.Target{}); err != nil {
		return nil, err
	}

	if req.DurationDays != nil && req.EndDate != nil {
		return nil, fmt.Errorf("create subscription: set duration_days or end_date, not both: %w", core.ErrInvalidInput)
	}

	start := s.now().UTC()
	end, err := s.endDate(start, req)
	if err != nil {
		return nil, err
	}

	method := strings.TrimSpace(req.PaymentMethod)
	if method == "" {
		method = s.cfg.DefaultPaymentMethod
	}

	sub := &Subscription{
		ID:            uuid.NewString(),
		CustomerID:    req.CustomerID,
		PlanID:        req.PlanID,
		StartDate:     start,
		EndDate:       &end,
		Status:        StatusActive,
		PaymentMethod: method,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.LockCustomer(ctx, sub.CustomerID); err != nil {
			return notFoundAs(err, "customer")
		}

		plan, err := s.repo.PlanForShare(ctx, sub.PlanID)
		if err != nil {
			return notFoundAs(err, "service plan")
		}
		if !plan.IsActive {
			return core.InvalidStateError("service plan is not active")
		}

		active, err := s.repo.HasActive(ctx, sub.CustomerID, "")
		if err != nil {
			return err
		}
		if active {
			return ErrActiveExists
		}

		if err := s.repo.Create(ctx, sub); err != nil {
			return err
		}

		created, err := s.repo.GetByID(ctx, sub.ID)
		if err != nil {
			return err
		}
		sub = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "subscription created",
		"subscription_id", sub.ID,
		"customer_id", sub.CustomerID,
		"plan_id", sub.PlanID,
		"created_by", claim.UserID,
	)

	return sub, nil
}

func (s *Service) endDate(start time.Time, req CreateSubscriptionRequest) (time.Time, error) {
	if req.EndDate != nil {
		end := req.EndDate.UTC()
		if !end.After(start) {
			return time.Time{}, fmt.Errorf("create subscription: end_date must be in the future: %w", core.ErrInvalidInput)
		}
		return end, nil
	}

	days := s.cfg.DefaultDays
	if req.DurationDays != nil {
		days = *req.DurationDays
	}
	if days <= 0 {
		return time.Time{}, fmt.Errorf("create subscription: duration_days must be positive: %w", core.ErrInvalidInput)
	}

	return start.AddDate(0, 0, days), nil
}

func (s *Service) Get(
	ctx context.Context,
	claim policy.Claim,
	id string,
) (*Subscription, error) {
	scope, err := policy.CallerScope(ctx, s.owners, claim)
	if err != nil {
		return nil, err
	}

	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.AuthorizeLookup(claim, policy.ResourceSubscription, policy.ActionRead, scope.Owned(sub.CustomerID)); err != nil {
		return nil, err
	}

	return sub, nil
}

// List returns subscriptions matching params. A customer is limited to their
// own profile whether or not customer_id is given.
func (s *Service) List(
	ctx context.Context,
	claim policy.Claim,
	params ListSubscriptionsParams,
) ([]Subscription, int, error) {
	if params.Status != "" && !params.Status.Valid() {
		return nil, 0, fmt.Errorf("invalid status filter %q: %w", params.Status, core.ErrInvalidInput)
	}

	scope, err := policy.CallerScope(ctx, s.owners, claim)
	if err != nil {
		return nil, 0, err
	}

	if claim.IsCustomer() && params.CustomerID == "" {
		params.CustomerID = scope.CallerCustomerID
	}

	if err := policy.Authorize(claim, policy.ResourceSubscription, policy.ActionList, scope.Owned(params.CustomerID)); err != nil {
		return nil, 0, err
	}

	return s.repo.List(ctx, params)
}

// UpdateStatus moves a subscription to any valid status. Re-activating is
// refused while the customer holds another active subscription or when the
// plan has been retired.
func (s *Service) UpdateStatus(
	ctx context.Context,
	claim policy.Claim,
	id string,
	status Status,
) (*Subscription, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid subscription status %q: %w", status, core.ErrInvalidInput)
	}

	if err := policy.Authorize(claim, policy.ResourceSubscription, policy.ActionSetStatus, policy.Target{}); err != nil {
		return nil, err
	}

	var sub *Subscription
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.LockByID(ctx, id)
		if err != nil {
			return err
		}

		if status == StatusActive && current.Status != StatusActive {
			if err := s.repo.LockCustomer(ctx, current.CustomerID); err != nil {
				return err
			}

			if _, err := s.repo.PlanForShare(ctx, current.PlanID); err != nil {
				if errors.Is(err, core.ErrNotFound) {
					return core.InvalidStateError("service plan has been retired")
				}
				return err
			}

			active, err := s.repo.HasActive(ctx, current.CustomerID, current.ID)
			if err != nil {
				return err
			}
			if active {
				return ErrActiveExists
			}
		}

		previous := current.Status
		current.Status = status
		if err := s.repo.Update(ctx, current); err != nil {
			return err
		}

		slog.InfoContext(ctx, "subscription status changed",
			"subscription_id", current.ID,
			"from", previous,
			"to", status,
			"changed_by", claim.UserID,
		)

		sub = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// Update changes billing details. Status goes through UpdateStatus.
func (s *Service) Update(
	ctx context.Context,
	claim policy.Claim,
	id string,
	req UpdateSubscriptionRequest,
) (*Subscription, error) {
	if err := policy.Authorize(claim, policy.ResourceSubscription, policy.ActionUpdate, policy.Target{}); err != nil {
		return nil, err
	}

	if req.ClearEndDate && req.EndDate != nil {
		return nil, fmt.Errorf("update subscription: end_date and clear_end_date conflict: %w", core.ErrInvalidInput)
	}

	var sub *Subscription
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.LockByID(ctx, id)
		if err != nil {
			return err
		}

		if req.PaymentMethod != nil {
			method := strings.TrimSpace(*req.PaymentMethod)
			if method == "" {
				return fmt.Errorf("update subscription: payment_method must not be blank: %w", core.ErrInvalidInput)
			}
			current.PaymentMethod = method
		}

		switch {
		case req.ClearEndDate:
			current.EndDate = nil
		case req.EndDate != nil:
			end := req.EndDate.UTC()
			if !end.After(current.StartDate) {
				return fmt.Errorf("update subscription: end_date must be after start_date: %w", core.ErrInvalidInput)
			}
			current.EndDate = &end
		}

		if err := s.repo.Update(ctx, current); err != nil {
			return err
		}

		sub = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// CustomerIDOf reports the owner of a subscription.
func (s *Service) CustomerIDOf(ctx context.Context, id string) (string, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return sub.CustomerID, nil
}

func notFoundAs(err error, resource string) error {
	if errors.Is(err, core.ErrNotFound) {
		return core.NotFoundError(resource)
	}
	return err
}

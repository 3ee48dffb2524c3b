// AngelaMos | 2026
// service.go

package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
	"github.com/carterperez-dev/templates/isp-backend/internal/policy"
)

type Service struct {
	repo    Repository
	owners  policy.OwnerResolver
	gateway Gateway
}

func NewService(repo Repository, owners policy.OwnerResolver, gateway Gateway) *Service {
	return &Service{repo: repo, owners: owners, gateway: gateway}
}

// Record appends a payment settled outside the system.
func (s *Service) Record(
	ctx context.Context,
	claim policy.Claim,
	req RecordPaymentRequest,
) (*Payment, error) {
	if err := policy.Authorize(claim, policy.ResourcePayment, policy.ActionCreate, policy.Target{}); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = StatusCompleted
	}
	if !status.Valid() {
		return nil, fmt.Errorf("invalid payment status %q: %w", status, core.ErrInvalidInput)
	}

	p, err := s.prepare(ctx, req.SubscriptionID, req.Amount, req.PaymentMethod)
	if err != nil {
		return nil, err
	}
	p.Status = status

	if err := s.write(ctx, p); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "payment recorded",
		"payment_id", p.ID,
		"subscription_id", p.SubscriptionID,
		"amount", p.Amount.String(),
		"status", p.Status,
	)

	return p, nil
}

// Process charges through the gateway and always writes the payment with
// the outcome as its status. A declined charge is reported by the returned
// flag, not as an error.
func (s *Service) Process(
	ctx context.Context,
	claim policy.Claim,
	req ProcessPaymentRequest,
) (*Payment, bool, error) {
	if err := policy.Authorize(claim, policy.ResourcePayment, policy.ActionCreate, policy.Target{}); err != nil {
		return nil, false, err
	}

	p, err := s.prepare(ctx, req.SubscriptionID, req.Amount, req.PaymentMethod)
	if err != nil {
		return nil, false, err
	}

	approved := s.settle(ctx, p)

	p.Status = StatusFailed
	if approved {
		p.Status = StatusCompleted
	}

	if err := s.write(ctx, p); err != nil {
		return nil, false, err
	}

	slog.InfoContext(ctx, "payment processed",
		"payment_id", p.ID,
		"subscription_id", p.SubscriptionID,
		"amount", p.Amount.String(),
		"success", approved,
	)

	return p, approved, nil
}

func (s *Service) settle(ctx context.Context, p *Payment) bool {
	ctx, span := core.StartSpan(ctx, "payment.settle",
		attribute.String("payment.transaction_id", p.TransactionID),
		attribute.String("payment.method", p.PaymentMethod),
	)
	defer span.End()

	approved, err := s.gateway.Settle(ctx, Charge{
		TransactionID:  p.TransactionID,
		SubscriptionID: p.SubscriptionID,
		Amount:         p.Amount,
		Method:         p.PaymentMethod,
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		slog.WarnContext(ctx, "payment gateway unavailable",
			"transaction_id", p.TransactionID,
			"error", err,
		)
		return false
	}

	core.AddSpanEvent(ctx, "payment.settled", attribute.Bool("payment.approved", approved))
	return approved
}

func (s *Service) prepare(
	ctx context.Context,
	subscriptionID string,
	amount *decimal.Decimal,
	method string,
) (*Payment, error) {
	if amount == nil || !amount.IsPositive() {
		return nil, fmt.Errorf("amount must be greater than zero: %w", core.ErrInvalidInput)
	}
	if !amount.Equal(amount.Round(2)) {
		return nil, fmt.Errorf("amount has more than two decimal places: %w", core.ErrInvalidInput)
	}

	method = strings.TrimSpace(method)
	if method == "" {
		return nil, fmt.Errorf("payment_method is required: %w", core.ErrInvalidInput)
	}

	customerID, err := s.repo.SubscriptionOwner(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("subscription")
		}
		return nil, err
	}

	return &Payment{
		ID:             uuid.NewString(),
		SubscriptionID: subscriptionID,
		Amount:         *amount,
		PaymentMethod:  method,
		TransactionID:  uuid.NewString(),
		CustomerID:     customerID,
	}, nil
}

// write stores p and reloads it with the owning subscription's details.
func (s *Service) write(ctx context.Context, p *Payment) error {
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}

	stored, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

func (s *Service) Get(ctx context.Context, claim policy.Claim, id string) (*Payment, error) {
	scope, err := policy.CallerScope(ctx, s.owners, claim)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.AuthorizeLookup(claim, policy.ResourcePayment, policy.ActionRead, scope.Owned(p.CustomerID)); err != nil {
		return nil, err
	}

	return p, nil
}

// List returns payments matching params. With a subscription filter the
// caller must be allowed to see that subscription; a customer without one
// sees the payments of all their own subscriptions.
func (s *Service) List(
	ctx context.Context,
	claim policy.Claim,
	params ListPaymentsParams,
) ([]Payment, int, error) {
	if params.Status != "" && !params.Status.Valid() {
		return nil, 0, fmt.Errorf("invalid status filter %q: %w", params.Status, core.ErrInvalidInput)
	}

	scope, err := policy.CallerScope(ctx, s.owners, claim)
	if err != nil {
		return nil, 0, err
	}

	if params.SubscriptionID != "" {
		owner, err := s.repo.SubscriptionOwner(ctx, params.SubscriptionID)
		if err != nil {
			return nil, 0, err
		}

		if err := policy.AuthorizeLookup(claim, policy.ResourcePayment, policy.ActionList, scope.Owned(owner)); err != nil {
			return nil, 0, err
		}

		return s.repo.List(ctx, params)
	}

	if claim.IsCustomer() {
		params.CustomerID = scope.CallerCustomerID
	}

	if err := policy.Authorize(claim, policy.ResourcePayment, policy.ActionList, scope.Owned(params.CustomerID)); err != nil {
		return nil, 0, err
	}

	return s.repo.List(ctx, params)
}

// AngelaMos | 2026
// repository.go

package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
)

const oneActiveIndex = "subscriptions_one_active_per_customer"

type Repository interface {
	Create(ctx context.Context, s *Subscription) error
	GetByID(ctx context.Context, id string) (*Subscription, error)
	LockByID(ctx context.Context, id string) (*Subscription, error)
	Update(ctx context.Context, s *Subscription) error
	List(ctx context.Context, params ListSubscriptionsParams) ([]Subscription, int, error)
	LockCustomer(ctx context.Context, customerID string) error
	PlanForShare(ctx context.Context, planID string) (*PlanState, error)
	HasActive(ctx context.Context, customerID, exceptID string) (bool, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const subscriptionSelect = `
	SELECT s.id, s.customer_id, s.plan_id, s.start_date, s.end_date, s.status,
	       s.payment_method, s.created_at, s.updated_at,
	       c.name AS customer_name, p.name AS plan_name, p.price AS plan_price
	FROM subscriptions s
	JOIN customers c ON c.id = s.customer_id
	JOIN service_plans p ON p.id = s.plan_id`

func (r *repository) Create(ctx context.Context, s *Subscription) error {
	query := `
		INSERT INTO subscriptions (
			id, customer_id, plan_id, start_date, end_date, status, payment_method
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := core.Conn(ctx, r.db).QueryRowxContext(ctx, query,
		s.ID,
		s.CustomerID,
		s.PlanID,
		s.StartDate,
		s.EndDate,
		s.Status,
		s.PaymentMethod,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return wrapWriteError("create subscription", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Subscription, error) {
	return r.getOne(ctx, id, "")
}

// LockByID holds the subscription row until the transaction ends.
func (r *repository) LockByID(ctx context.Context, id string) (*Subscription, error) {
	return r.getOne(ctx, id, "FOR UPDATE OF s")
}

func (r *repository) getOne(ctx context.Context, id, lock string) (*Subscription, error) {
	query := subscriptionSelect + ` WHERE s.id = $1 ` + lock

	var s Subscription
	err := core.Conn(ctx, r.db).GetContext(ctx, &s, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get subscription: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}

	return &s, nil
}

func (r *repository) Update(ctx context.Context, s *Subscription) error {
	query := `
		UPDATE subscriptions
		SET status = $2, payment_method = $3, end_date = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := core.Conn(ctx, r.db).GetContext(ctx, &s.UpdatedAt, query,
		s.ID,
		s.Status,
		s.PaymentMethod,
		s.EndDate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update subscription: %w", core.ErrNotFound)
	}
	if err != nil {
		return wrapWriteError("update subscription", err)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListSubscriptionsParams,
) ([]Subscription, int, error) {
	params.Normalize()

	var f core.Filter
	f.AddIf("s.status = ?", string(params.Status))
	f.AddIf("s.customer_id = ?", params.CustomerID)
	f.AddIf("s.plan_id = ?", params.PlanID)

	db := core.Conn(ctx, r.db)

	var total int
	countQuery := `SELECT COUNT(*) FROM subscriptions s WHERE ` + f.Where()
	if err := db.GetContext(ctx, &total, countQuery, f.Args()...); err != nil {
		return nil, 0, fmt.Errorf("count subscriptions: %w", err)
	}

	page, args := f.Page(params.PageParams)
	query := subscriptionSelect + `
		WHERE ` + f.Where() + `
		ORDER BY s.start_date DESC, s.id
		` + page

	var subs []Subscription
	if err := db.SelectContext(ctx, &subs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list subscriptions: %w", err)
	}

	return subs, total, nil
}

// LockCustomer serializes lifecycle changes for one customer until the
// transaction ends.
func (r *repository) LockCustomer(ctx context.Context, customerID string) error {
	var id string
	err := core.Conn(ctx, r.db).GetContext(ctx, &id,
		`SELECT id FROM customers WHERE id = $1 FOR UPDATE`, customerID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lock customer: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lock customer: %w", err)
	}

	return nil
}

// PlanForShare reads a live plan and keeps it from being deleted until the
// transaction ends.
func (r *repository) PlanForShare(ctx context.Context, planID string) (*PlanState, error) {
	var p PlanState
	err := core.Conn(ctx, r.db).GetContext(ctx, &p, `
		SELECT is_active
		FROM service_plans
		WHERE id = $1 AND deleted_at IS NULL
		FOR SHARE`, planID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get plan: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}

	return &p, nil
}

func (r *repository) HasActive(ctx context.Context, customerID, exceptID string) (bool, error) {
	var exists bool
	err := core.Conn(ctx, r.db).GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM subscriptions
			WHERE customer_id = $1 AND status = 'active' AND id::text <> $2
		)`, customerID, exceptID)
	if err != nil {
		return false, fmt.Errorf("check active subscription: %w", err)
	}

	return exists, nil
}

func wrapWriteError(op string, err error) error {
	switch {
	case core.IsDuplicateKeyError(err) && core.ConstraintName(err) == oneActiveIndex:
		return fmt.Errorf("%s: %w", op, ErrActiveExists)
	case core.IsForeignKeyError(err):
		return fmt.Errorf("%s: customer or plan does not exist: %w", op, core.ErrNotFound)
	}

	return fmt.Errorf("%s: %w", op, err)
}

// AngelaMos | 2026
// repository.go

package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id string) (*Payment, error)
	List(ctx context.Context, params ListPaymentsParams) ([]Payment, int, error)
	SubscriptionOwner(ctx context.Context, subscriptionID string) (string, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const paymentSelect = `
	SELECT pm.id, pm.subscription_id, pm.amount, pm.payment_date,
	       pm.payment_method, pm.transaction_id, pm.status, pm.created_at,
	       s.customer_id, c.name AS customer_name, sp.name AS plan_name
	FROM payments pm
	JOIN subscriptions s ON s.id = pm.subscription_id
	JOIN customers c ON c.id = s.customer_id
	JOIN service_plans sp ON sp.id = s.plan_id`

func (r *repository) Create(ctx context.Context, p *Payment) error {
	query := `
		INSERT INTO payments (
			id, subscription_id, amount, payment_method, transaction_id, status
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING payment_date, created_at`

	err := core.Conn(ctx, r.db).QueryRowxContext(ctx, query,
		p.ID,
		p.SubscriptionID,
		p.Amount,
		p.PaymentMethod,
		p.TransactionID,
		p.Status,
	).Scan(&p.PaymentDate, &p.CreatedAt)
	if err != nil {
		switch {
		case core.IsForeignKeyError(err):
			return fmt.Errorf("create payment: subscription: %w", core.ErrNotFound)
		case core.IsDuplicateKeyError(err):
			return fmt.Errorf("create payment: transaction id reused: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create payment: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Payment, error) {
	var p Payment
	err := core.Conn(ctx, r.db).GetContext(ctx, &p, paymentSelect+` WHERE pm.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get payment: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}

	return &p, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListPaymentsParams,
) ([]Payment, int, error) {
	params.Normalize()

	var f core.Filter
	f.AddIf("pm.status = ?", string(params.Status))
	f.AddIf("pm.subscription_id = ?", params.SubscriptionID)
	f.AddIf("s.customer_id = ?", params.CustomerID)

	db := core.Conn(ctx, r.db)

	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM payments pm
		JOIN subscriptions s ON s.id = pm.subscription_id
		WHERE ` + f.Where()
	if err := db.GetContext(ctx, &total, countQuery, f.Args()...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	page, args := f.Page(params.PageParams)
	query := paymentSelect + `
		WHERE ` + f.Where() + `
		ORDER BY pm.payment_date DESC, pm.id
		` + page

	var payments []Payment
	if err := db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	return payments, total, nil
}

func (r *repository) SubscriptionOwner(ctx context.Context, subscriptionID string) (string, error) {
	var customerID string
	err := core.Conn(ctx, r.db).GetContext(ctx, &customerID,
		`SELECT customer_id FROM subscriptions WHERE id = $1`, subscriptionID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("get subscription: %w", core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get subscription: %w", err)
	}

	return customerID, nil
}

// AngelaMos | 2026
// repository.go

package plan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, p *ServicePlan) error
	GetByID(ctx context.Context, id string) (*ServicePlan, error)
	LockByID(ctx context.Context, id string) (*ServicePlan, error)
	Update(ctx context.Context, p *ServicePlan) error
	SoftDelete(ctx context.Context, id string) error
	List(ctx context.Context, activeOnly bool) ([]ServicePlan, error)
	CountActiveSubscriptions(ctx context.Context, planID string) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const planColumns = `
	id, name, description, speed, data_cap, price, is_active,
	created_at, updated_at, deleted_at`

func (r *repository) Create(ctx context.Context, p *ServicePlan) error {
	query := `
		INSERT INTO service_plans (
			id, name, description, speed, data_cap, price, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := core.Conn(ctx, r.db).QueryRowxContext(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.Speed,
		p.DataCap,
		p.Price,
		p.IsActive,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create plan: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*ServicePlan, error) {
	return r.getOne(ctx, id, "")
}

// LockByID reads the plan and holds a row lock until the surrounding
// transaction ends.
func (r *repository) LockByID(ctx context.Context, id string) (*ServicePlan, error) {
	return r.getOne(ctx, id, "FOR UPDATE")
}

func (r *repository) getOne(
	ctx context.Context,
	id, lock string,
) (*ServicePlan, error) {
	query := `SELECT` + planColumns + `
		FROM service_plans
		WHERE id = $1 AND deleted_at IS NULL ` + lock

	var p ServicePlan
	err := core.Conn(ctx, r.db).GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get plan: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}

	return &p, nil
}

func (r *repository) Update(ctx context.Context, p *ServicePlan) error {
	query := `
		UPDATE service_plans
		SET name = $2, description = $3, speed = $4, data_cap = $5,
		    price = $6, is_active = $7, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := core.Conn(ctx, r.db).GetContext(ctx, &p.UpdatedAt, query,
		p.ID,
		p.Name,
		p.Description,
		p.Speed,
		p.DataCap,
		p.Price,
		p.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update plan: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}

	return nil
}

func (r *repository) SoftDelete(ctx context.Context, id string) error {
	query := `
		UPDATE service_plans
		SET deleted_at = NOW(), is_active = false, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := core.Conn(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete plan: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(ctx context.Context, activeOnly bool) ([]ServicePlan, error) {
	query := `SELECT` + planColumns + `
		FROM service_plans
		WHERE deleted_at IS NULL AND (is_active OR NOT $1)
		ORDER BY price ASC, name ASC`

	var plans []ServicePlan
	if err := core.Conn(ctx, r.db).SelectContext(ctx, &plans, query, activeOnly); err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}

	return plans, nil
}

func (r *repository) CountActiveSubscriptions(
	ctx context.Context,
	planID string,
) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM subscriptions
		WHERE plan_id = $1 AND status = 'active'`

	var n int
	if err := core.Conn(ctx, r.db).GetContext(ctx, &n, query, planID); err != nil {
		return 0, fmt.Errorf("count active subscriptions: %w", err)
	}

	return n, nil
}

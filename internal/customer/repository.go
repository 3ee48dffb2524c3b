// AngelaMos | 2026
// repository.go

package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, id string) (*Customer, error)
	GetByUserID(ctx context.Context, userID string) (*Customer, error)
	Update(ctx context.Context, c *Customer) error
	List(ctx context.Context, params ListCustomersParams) ([]Customer, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const customerColumns = `
	id, user_id, name, email, phone, personal_info, contact_info,
	billing_info, service_address, created_at, updated_at`

func (r *repository) Create(ctx context.Context, c *Customer) error {
	query := `
		INSERT INTO customers (
			id, user_id, name, email, phone, personal_info,
			contact_info, billing_info, service_address
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := core.Conn(ctx, r.db).QueryRowxContext(ctx, query,
		c.ID,
		c.UserID,
		c.Name,
		c.Email,
		c.Phone,
		c.PersonalInfo,
		c.ContactInfo,
		c.BillingInfo,
		c.ServiceAddress,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return wrapWriteError("create customer", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Customer, error) {
	return r.getOne(ctx, "get customer", "id", id)
}

func (r *repository) GetByUserID(
	ctx context.Context,
	userID string,
) (*Customer, error) {
	return r.getOne(ctx, "get customer by user", "user_id", userID)
}

func (r *repository) getOne(
	ctx context.Context,
	op, column, value string,
) (*Customer, error) {
	query := `SELECT` + customerColumns + `
		FROM customers
		WHERE ` + column + ` = $1`

	var c Customer
	err := core.Conn(ctx, r.db).GetContext(ctx, &c, query, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &c, nil
}

func (r *repository) Update(ctx context.Context, c *Customer) error {
	query := `
		UPDATE customers
		SET name = $2, email = $3, phone = $4, personal_info = $5,
		    contact_info = $6, billing_info = $7, service_address = $8,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := core.Conn(ctx, r.db).GetContext(ctx, &c.UpdatedAt, query,
		c.ID,
		c.Name,
		c.Email,
		c.Phone,
		c.PersonalInfo,
		c.ContactInfo,
		c.BillingInfo,
		c.ServiceAddress,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update customer: %w", core.ErrNotFound)
	}
	if err != nil {
		return wrapWriteError("update customer", err)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListCustomersParams,
) ([]Customer, int, error) {
	params.Normalize()

	where := "TRUE"
	var args []any
	if params.Search != "" {
		where = "(name ILIKE $1 OR email ILIKE $1)"
		args = append(args, "%"+core.EscapeLike(params.Search)+"%")
	}

	db := core.Conn(ctx, r.db)

	var total int
	if err := db.GetContext(ctx, &total, "SELECT COUNT(*) FROM customers WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s
		FROM customers
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		customerColumns, where, len(args)+1, len(args)+2)

	args = append(args, params.PageSize, params.Offset())

	var customers []Customer
	if err := db.SelectContext(ctx, &customers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}

	return customers, total, nil
}

func wrapWriteError(op string, err error) error {
	switch {
	case core.IsDuplicateKeyError(err):
		field := "email"
		if strings.Contains(core.ConstraintName(err), "user_id") {
			field = "user account"
		}
		return fmt.Errorf("%s: %s already linked to a customer: %w", op, field, core.ErrDuplicateKey)
	case core.IsForeignKeyError(err):
		return fmt.Errorf("%s: linked user does not exist: %w", op, core.ErrNotFound)
	}

	return fmt.Errorf("%s: %w", op, err)
}

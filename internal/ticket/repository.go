// AngelaMos | 2026
// repository.go

package ticket

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, t *Ticket) error
	GetByID(ctx context.Context, id string) (*Ticket, error)
	LockByID(ctx context.Context, id string) (*Ticket, error)
	// Update writes t. markResolved stamps resolved_at with the database
	// clock.
	Update(ctx context.Context, t *Ticket, markResolved bool) error
	List(ctx context.Context, params ListTicketsParams) ([]Ticket, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const ticketSelect = `
	SELECT t.id, t.customer_id, t.assigned_to, t.title, t.description,
	       t.status, t.priority, t.created_at, t.updated_at, t.resolved_at,
	       c.name AS customer_name, u.username AS assignee_name
	FROM tickets t
	JOIN customers c ON c.id = t.customer_id
	LEFT JOIN users u ON u.id = t.assigned_to`

func (r *repository) Create(ctx context.Context, t *Ticket) error {
	query := `
		INSERT INTO tickets (
			id, customer_id, title, description, status, priority
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := core.Conn(ctx, r.db).QueryRowxContext(ctx, query,
		t.ID,
		t.CustomerID,
		t.Title,
		t.Description,
		t.Status,
		t.Priority,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return wrapWriteError("create ticket", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Ticket, error) {
	return r.getOne(ctx, id, "")
}

func (r *repository) LockByID(ctx context.Context, id string) (*Ticket, error) {
	return r.getOne(ctx, id, "FOR UPDATE OF t")
}

func (r *repository) getOne(ctx context.Context, id, lock string) (*Ticket, error) {
	var t Ticket
	err := core.Conn(ctx, r.db).GetContext(ctx, &t, ticketSelect+` WHERE t.id = $1 `+lock, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get ticket: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get ticket: %w", err)
	}

	return &t, nil
}

func (r *repository) Update(ctx context.Context, t *Ticket, markResolved bool) error {
	query := `
		UPDATE tickets
		SET title = $2, description = $3, status = $4, priority = $5,
		    assigned_to = $6,
		    resolved_at = CASE WHEN $7::boolean THEN NOW() ELSE resolved_at END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at, resolved_at`

	err := core.Conn(ctx, r.db).QueryRowxContext(ctx, query,
		t.ID,
		t.Title,
		t.Description,
		t.Status,
		t.Priority,
		t.AssignedTo,
		markResolved,
	).Scan(&t.UpdatedAt, &t.ResolvedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update ticket: %w", core.ErrNotFound)
	}
	if err != nil {
		return wrapWriteError("update ticket", err)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListTicketsParams,
) ([]Ticket, int, error) {
	params.Normalize()

	var f core.Filter
	f.AddIf("t.status = ?", string(params.Status))
	f.AddIf("t.priority = ?", string(params.Priority))
	f.AddIf("t.customer_id = ?", params.CustomerID)
	f.AddIf("(t.assigned_to = ? OR t.assigned_to IS NULL)", params.VisibleTo)

	db := core.Conn(ctx, r.db)

	var total int
	if err := db.GetContext(ctx, &total, `SELECT COUNT(*) FROM tickets t WHERE `+f.Where(), f.Args()...); err != nil {
		return nil, 0, fmt.Errorf("count tickets: %w", err)
	}

	page, args := f.Page(params.PageParams)
	query := ticketSelect + `
		WHERE ` + f.Where() + `
		ORDER BY t.created_at DESC, t.id
		` + page

	var tickets []Ticket
	if err := db.SelectContext(ctx, &tickets, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list tickets: %w", err)
	}

	return tickets, total, nil
}

func wrapWriteError(op string, err error) error {
	if core.IsForeignKeyError(err) {
		target := "customer"
		if strings.Contains(core.ConstraintName(err), "assigned_to") {
			target = "assignee"
		}
		return fmt.Errorf("%s: %s does not exist: %w", op, target, core.ErrNotFound)
	}

	return fmt.Errorf("%s: %w", op, err)
}

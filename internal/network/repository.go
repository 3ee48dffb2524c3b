// AngelaMos | 2026
// repository.go

package network

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, n *Node) error
	GetByID(ctx context.Context, id string) (*Node, error)
	Update(ctx context.Context, n *Node) error
	List(ctx context.Context, params ListNodesParams) ([]Node, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const nodeColumns = `id, name, location, status, capacity, current_load, created_at, updated_at`

func (r *repository) Create(ctx context.Context, n *Node) error {
	query := `
		INSERT INTO network_nodes (id, name, location, status, capacity, current_load)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := core.Conn(ctx, r.db).QueryRowxContext(ctx, query,
		n.ID,
		n.Name,
		n.Location,
		n.Status,
		n.Capacity,
		n.CurrentLoad,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create network node: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Node, error) {
	var n Node
	err := core.Conn(ctx, r.db).GetContext(ctx, &n,
		`SELECT `+nodeColumns+` FROM network_nodes WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get network node: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get network node: %w", err)
	}

	return &n, nil
}

func (r *repository) Update(ctx context.Context, n *Node) error {
	query := `
		UPDATE network_nodes
		SET name = $2, location = $3, status = $4, capacity = $5,
		    current_load = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := core.Conn(ctx, r.db).GetContext(ctx, &n.UpdatedAt, query,
		n.ID,
		n.Name,
		n.Location,
		n.Status,
		n.Capacity,
		n.CurrentLoad,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update network node: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update network node: %w", err)
	}

	return nil
}

func (r *repository) List(ctx context.Context, params ListNodesParams) ([]Node, int, error) {
	params.Normalize()

	var f core.Filter
	f.AddIf("status = ?", string(params.Status))

	db := core.Conn(ctx, r.db)

	var total int
	if err := db.GetContext(ctx, &total, `SELECT COUNT(*) FROM network_nodes WHERE `+f.Where(), f.Args()...); err != nil {
		return nil, 0, fmt.Errorf("count network nodes: %w", err)
	}

	page, args := f.Page(params.PageParams)
	query := `SELECT ` + nodeColumns + ` FROM network_nodes
		WHERE ` + f.Where() + `
		ORDER BY name, id
		` + page

	var nodes []Node
	if err := db.SelectContext(ctx, &nodes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list network nodes: %w", err)
	}

	return nodes, total, nil
}

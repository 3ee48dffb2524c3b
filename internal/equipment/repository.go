// AngelaMos | 2026
// repository.go

package equipment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, e *Equipment) error
	GetByID(ctx context.Context, id string) (*Equipment, error)
	Update(ctx context.Context, e *Equipment) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, params ListEquipmentParams) ([]Equipment, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const equipmentSelect = `
	SELECT e.id, e.customer_id, e.type, e.model, e.serial_number,
	       e.mac_address, e.status, e.installed_date, e.updated_at,
	       c.name AS customer_name
	FROM equipment e
	JOIN customers c ON c.id = e.customer_id`

func (r *repository) Create(ctx context.Context, e *Equipment) error {
	query := `
		INSERT INTO equipment (
			id, customer_id, type, model, serial_number, mac_address, status,
			installed_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()))
		RETURNING installed_date, updated_at`

	var installed *time.Time
	if !e.InstalledDate.IsZero() {
		installed = &e.InstalledDate
	}

	err := core.Conn(ctx, r.db).QueryRowxContext(ctx, query,
		e.ID,
		e.CustomerID,
		e.Type,
		e.Model,
		e.SerialNumber,
		e.MACAddress,
		e.Status,
		installed,
	).Scan(&e.InstalledDate, &e.UpdatedAt)
	if err != nil {
		return wrapWriteError("create equipment", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Equipment, error) {
	var e Equipment
	err := core.Conn(ctx, r.db).GetContext(ctx, &e, equipmentSelect+` WHERE e.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get equipment: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get equipment: %w", err)
	}

	return &e, nil
}

func (r *repository) Update(ctx context.Context, e *Equipment) error {
	query := `
		UPDATE equipment
		SET status = $2, mac_address = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := core.Conn(ctx, r.db).GetContext(ctx, &e.UpdatedAt, query,
		e.ID,
		e.Status,
		e.MACAddress,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update equipment: %w", core.ErrNotFound)
	}
	if err != nil {
		return wrapWriteError("update equipment", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := core.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM equipment WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete equipment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete equipment: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete equipment: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListEquipmentParams,
) ([]Equipment, int, error) {
	params.Normalize()

	var f core.Filter
	f.AddIf("e.customer_id = ?", params.CustomerID)
	f.AddIf("e.type = ?", params.Type)
	f.AddIf("e.status = ?", string(params.Status))

	db := core.Conn(ctx, r.db)

	var total int
	if err := db.GetContext(ctx, &total, `SELECT COUNT(*) FROM equipment e WHERE `+f.Where(), f.Args()...); err != nil {
		return nil, 0, fmt.Errorf("count equipment: %w", err)
	}

	page, args := f.Page(params.PageParams)
	query := equipmentSelect + `
		WHERE ` + f.Where() + `
		ORDER BY e.installed_date DESC, e.id
		` + page

	var items []Equipment
	if err := db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list equipment: %w", err)
	}

	return items, total, nil
}

func wrapWriteError(op string, err error) error {
	switch {
	case core.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: serial number already registered: %w", op, core.ErrDuplicateKey)
	case core.IsForeignKeyError(err):
		return fmt.Errorf("%s: customer does not exist: %w", op, core.ErrNotFound)
	}

	return fmt.Errorf("%s: %w", op, err)
}

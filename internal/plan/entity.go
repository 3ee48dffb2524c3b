// AngelaMos | 2026
// entity.go

package plan

import (
	"time"

	"github.com/shopspring/decimal"
)

// ServicePlan is a sellable tier. Price changes apply to new subscriptions
// only; no price history is kept.
type ServicePlan struct {
	ID          string          `db:"id"`
	Name        string          `db:"name"`
	Description *string         `db:"description"`
	Speed       string          `db:"speed"`
	DataCap     *string         `db:"data_cap"`
	Price       decimal.Decimal `db:"price"`
	IsActive    bool            `db:"is_active"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
	DeletedAt   *time.Time      `db:"deleted_at"`
}

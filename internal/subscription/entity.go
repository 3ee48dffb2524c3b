// AngelaMos | 2026
// entity.go

package subscription

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusCancelled Status = "cancelled"
	StatusSuspended Status = "suspended"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusCancelled, StatusSuspended:
		return true
	}
	return false
}

// Subscription binds a customer to a plan for a period. A nil EndDate is
// open-ended. CustomerName, PlanName and PlanPrice are read from the owning
// rows and reflect their current values.
type Subscription struct {
	ID            string          `db:"id"`
	CustomerID    string          `db:"customer_id"`
	PlanID        string          `db:"plan_id"`
	StartDate     time.Time       `db:"start_date"`
	EndDate       *time.Time      `db:"end_date"`
	Status        Status          `db:"status"`
	PaymentMethod string          `db:"payment_method"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
	CustomerName  string          `db:"customer_name"`
	PlanName      string          `db:"plan_name"`
	PlanPrice     decimal.Decimal `db:"plan_price"`
}

// PlanState is what the lifecycle needs to know about a plan.
type PlanState struct {
	IsActive bool `db:"is_active"`
}

// AngelaMos | 2026
// entity.go

package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

// Payment is an append-only ledger row. CustomerID, CustomerName and PlanName
// come from the owning subscription.
type Payment struct {
	ID             string          `db:"id"`
	SubscriptionID string          `db:"subscription_id"`
	Amount         decimal.Decimal `db:"amount"`
	PaymentDate    time.Time       `db:"payment_date"`
	PaymentMethod  string          `db:"payment_method"`
	TransactionID  string          `db:"transaction_id"`
	Status         Status          `db:"status"`
	CreatedAt      time.Time       `db:"created_at"`
	CustomerID     string          `db:"customer_id"`
	CustomerName   string          `db:"customer_name"`
	PlanName       string          `db:"plan_name"`
}

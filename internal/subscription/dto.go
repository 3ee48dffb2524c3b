// AngelaMos | 2026
// dto.go

package subscription

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
)

type CreateSubscriptionRequest struct {
	CustomerID    string     `json:"customer_id"              validate:"required,uuid"`
	PlanID        string     `json:"plan_id"                  validate:"required,uuid"`
	PaymentMethod string     `json:"payment_method,omitempty" validate:"omitempty,max=50"`
	DurationDays  *int       `json:"duration_days,omitempty"  validate:"omitempty,min=1,max=3650"`
	EndDate       *time.Time `json:"end_date,omitempty"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required"`
}

type UpdateSubscriptionRequest struct {
	PaymentMethod *string    `json:"payment_method,omitempty" validate:"omitempty,min=1,max=50"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	ClearEndDate  bool       `json:"clear_end_date,omitempty"`
}

type ListSubscriptionsParams struct {
	core.PageParams
	Status     Status
	CustomerID string
	PlanID     string
}

type SubscriptionResponse struct {
	ID            string          `json:"id"`
	CustomerID    string          `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	PlanID        string          `json:"plan_id"`
	PlanName      string          `json:"plan_name"`
	PlanPrice     decimal.Decimal `json:"plan_price"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       *time.Time      `json:"end_date"`
	Status        Status          `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func ToSubscriptionResponse(s *Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:            s.ID,
		CustomerID:    s.CustomerID,
		CustomerName:  s.CustomerName,
		PlanID:        s.PlanID,
		PlanName:      s.PlanName,
		PlanPrice:     s.PlanPrice,
		StartDate:     s.StartDate,
		EndDate:       s.EndDate,
		Status:        s.Status,
		PaymentMethod: s.PaymentMethod,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func ToSubscriptionResponseList(subs []Subscription) []SubscriptionResponse {
	out := make([]SubscriptionResponse, 0, len(subs))
	for i := range subs {
		out = append(out, ToSubscriptionResponse(&subs[i]))
	}
	return out
}

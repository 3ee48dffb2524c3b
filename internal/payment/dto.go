// AngelaMos | 2026
// dto.go

package payment

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
)

type RecordPaymentRequest struct {
	SubscriptionID string           `json:"subscription_id"  validate:"required,uuid"`
	Amount         *decimal.Decimal `json:"amount"           validate:"required"`
	PaymentMethod  string           `json:"payment_method"   validate:"required,max=50"`
	Status         Status           `json:"status,omitempty"`
}

type ProcessPaymentRequest struct {
	SubscriptionID string           `json:"subscription_id" validate:"required,uuid"`
	Amount         *decimal.Decimal `json:"amount"          validate:"required"`
	PaymentMethod  string           `json:"payment_method"  validate:"required,max=50"`
}

type ListPaymentsParams struct {
	core.PageParams
	Status         Status
	SubscriptionID string
	CustomerID     string
}

type PaymentResponse struct {
	ID             string          `json:"id"`
	SubscriptionID string          `json:"subscription_id"`
	CustomerID     string          `json:"customer_id"`
	CustomerName   string          `json:"customer_name"`
	PlanName       string          `json:"plan_name"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentDate    time.Time       `json:"payment_date"`
	PaymentMethod  string          `json:"payment_method"`
	TransactionID  string          `json:"transaction_id"`
	Status         Status          `json:"status"`
}

type ProcessResponse struct {
	Payment PaymentResponse `json:"payment"`
	Success bool            `json:"success"`
}

func ToPaymentResponse(p *Payment) PaymentResponse {
	return PaymentResponse{
		ID:             p.ID,
		SubscriptionID: p.SubscriptionID,
		CustomerID:     p.CustomerID,
		CustomerName:   p.CustomerName,
		PlanName:       p.PlanName,
		Amount:         p.Amount,
		PaymentDate:    p.PaymentDate,
		PaymentMethod:  p.PaymentMethod,
		TransactionID:  p.TransactionID,
		Status:         p.Status,
	}
}

func ToPaymentResponseList(payments []Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		out = append(out, ToPaymentResponse(&payments[i]))
	}
	return out
}

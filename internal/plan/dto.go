// AngelaMos | 2026
// dto.go

package plan

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreatePlanRequest struct {
	Name        string           `json:"name"                  validate:"required,min=1,max=100"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	Speed       string           `json:"speed"                 validate:"required,max=50"`
	DataCap     *string          `json:"data_cap,omitempty"    validate:"omitempty,max=50"`
	Price       *decimal.Decimal `json:"price"                 validate:"required"`
	IsActive    *bool            `json:"is_active,omitempty"`
}

type UpdatePlanRequest struct {
	Name        *string          `json:"name,omitempty"        validate:"omitempty,min=1,max=100"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	Speed       *string          `json:"speed,omitempty"       validate:"omitempty,max=50"`
	DataCap     *string          `json:"data_cap,omitempty"    validate:"omitempty,max=50"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	IsActive    *bool            `json:"is_active,omitempty"`
}

type PlanResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Speed       string          `json:"speed"`
	DataCap     *string         `json:"data_cap,omitempty"`
	Price       decimal.Decimal `json:"price"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func ToPlanResponse(p *ServicePlan) PlanResponse {
	return PlanResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Speed:       p.Speed,
		DataCap:     p.DataCap,
		Price:       p.Price,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func ToPlanResponseList(plans []ServicePlan) []PlanResponse {
	out := make([]PlanResponse, 0, len(plans))
	for i := range plans {
		out = append(out, ToPlanResponse(&plans[i]))
	}
	return out
}

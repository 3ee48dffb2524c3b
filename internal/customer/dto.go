// AngelaMos | 2026
// dto.go

package customer

import (
	"time"

	"github.com/jmoiron/sqlx/types"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
)

type CreateCustomerRequest struct {
	UserID         *string        `json:"user_id,omitempty"         validate:"omitempty,uuid"`
	Name           string         `json:"name"                      validate:"required,min=1,max=100"`
	Email          string         `json:"email"                     validate:"required,email,max=255"`
	Phone          *string        `json:"phone,omitempty"           validate:"omitempty,max=20"`
	PersonalInfo   types.JSONText `json:"personal_info,omitempty"`
	ContactInfo    types.JSONText `json:"contact_info,omitempty"`
	BillingInfo    types.JSONText `json:"billing_info,omitempty"`
	ServiceAddress types.JSONText `json:"service_address,omitempty"`
}

type UpdateCustomerRequest struct {
	Name           *string        `json:"name,omitempty"            validate:"omitempty,min=1,max=100"`
	Email          *string        `json:"email,omitempty"           validate:"omitempty,email,max=255"`
	Phone          *string        `json:"phone,omitempty"           validate:"omitempty,max=20"`
	PersonalInfo   types.JSONText `json:"personal_info,omitempty"`
	ContactInfo    types.JSONText `json:"contact_info,omitempty"`
	BillingInfo    types.JSONText `json:"billing_info,omitempty"`
	ServiceAddress types.JSONText `json:"service_address,omitempty"`
}

type CustomerResponse struct {
	ID             string         `json:"id"`
	UserID         *string        `json:"user_id,omitempty"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Phone          *string        `json:"phone,omitempty"`
	PersonalInfo   types.JSONText `json:"personal_info"`
	ContactInfo    types.JSONText `json:"contact_info"`
	BillingInfo    types.JSONText `json:"billing_info"`
	ServiceAddress types.JSONText `json:"service_address"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type ListCustomersParams struct {
	core.PageParams
	Search string
}

func ToCustomerResponse(c *Customer) CustomerResponse {
	return CustomerResponse{
		ID:             c.ID,
		UserID:         c.UserID,
		Name:           c.Name,
		Email:          c.Email,
		Phone:          c.Phone,
		PersonalInfo:   c.PersonalInfo,
		ContactInfo:    c.ContactInfo,
		BillingInfo:    c.BillingInfo,
		ServiceAddress: c.ServiceAddress,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func ToCustomerResponseList(customers []Customer) []CustomerResponse {
	out := make([]CustomerResponse, 0, len(customers))
	for i := range customers {
		out = append(out, ToCustomerResponse(&customers[i]))
	}
	return out
}

// AngelaMos | 2026
// dto.go

package ticket

import (
	"time"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
)

type CreateTicketRequest struct {
	CustomerID  string   `json:"customer_id,omitempty" validate:"omitempty,uuid"`
	Title       string   `json:"title"                 validate:"required,min=1,max=100"`
	Description string   `json:"description"           validate:"required,min=1,max=5000"`
	Priority    Priority `json:"priority,omitempty"`
}

// UpdateTicketRequest changes any subset of fields. AssignedTo set to an
// empty string clears the assignee.
type UpdateTicketRequest struct {
	Title       *string   `json:"title,omitempty"       validate:"omitempty,min=1,max=100"`
	Description *string   `json:"description,omitempty" validate:"omitempty,min=1,max=5000"`
	Status      *Status   `json:"status,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	AssignedTo  *string   `json:"assigned_to,omitempty" validate:"omitempty,uuid"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required"`
}

type AssignRequest struct {
	AssignedTo string `json:"assigned_to" validate:"omitempty,uuid"`
}

type ListTicketsParams struct {
	core.PageParams
	Status     Status
	Priority   Priority
	CustomerID string
	// VisibleTo limits results to tickets assigned to this user or to nobody.
	VisibleTo string
}

type TicketResponse struct {
	ID           string     `json:"id"`
	CustomerID   string     `json:"customer_id"`
	CustomerName string     `json:"customer_name"`
	AssignedTo   *string    `json:"assigned_to"`
	AssigneeName *string    `json:"assignee_name"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Status       Status     `json:"status"`
	Priority     Priority   `json:"priority"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ResolvedAt   *time.Time `json:"resolved_at"`
}

func ToTicketResponse(t *Ticket) TicketResponse {
	return TicketResponse{
		ID:           t.ID,
		CustomerID:   t.CustomerID,
		CustomerName: t.CustomerName,
		AssignedTo:   t.AssignedTo,
		AssigneeName: t.AssigneeName,
		Title:        t.Title,
		Description:  t.Description,
		Status:       t.Status,
		Priority:     t.Priority,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		ResolvedAt:   t.ResolvedAt,
	}
}

func ToTicketResponseList(tickets []Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, ToTicketResponse(&tickets[i]))
	}
	return out
}

// AngelaMos | 2026
// dto.go

package network

import (
	"time"

	"github.com/jmoiron/sqlx/types"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
)

type CreateNodeRequest struct {
	Name        string         `json:"name"                   validate:"required,max=100"`
	Location    types.JSONText `json:"location"               validate:"required"`
	Status      Status         `json:"status,omitempty"`
	Capacity    int            `json:"capacity"               validate:"required,gt=0"`
	CurrentLoad int            `json:"current_load,omitempty" validate:"gte=0"`
}

type UpdateNodeRequest struct {
	Name        *string        `json:"name,omitempty"         validate:"omitempty,min=1,max=100"`
	Location    types.JSONText `json:"location,omitempty"`
	Status      *Status        `json:"status,omitempty"`
	Capacity    *int           `json:"capacity,omitempty"     validate:"omitempty,gt=0"`
	CurrentLoad *int           `json:"current_load,omitempty" validate:"omitempty,gte=0"`
}

type ListNodesParams struct {
	core.PageParams
	Status Status
}

type NodeResponse struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Location       types.JSONText `json:"location"`
	Status         Status         `json:"status"`
	Capacity       int            `json:"capacity"`
	CurrentLoad    int            `json:"current_load"`
	LoadPercentage float64        `json:"load_percentage"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func ToNodeResponse(n *Node) NodeResponse {
	return NodeResponse{
		ID:             n.ID,
		Name:           n.Name,
		Location:       n.Location,
		Status:         n.Status,
		Capacity:       n.Capacity,
		CurrentLoad:    n.CurrentLoad,
		LoadPercentage: n.LoadPercentage(),
		CreatedAt:      n.CreatedAt,
		UpdatedAt:      n.UpdatedAt,
	}
}

func ToNodeResponseList(nodes []Node) []NodeResponse {
	out := make([]NodeResponse, 0, len(nodes))
	for i := range nodes {
		out = append(out, ToNodeResponse(&nodes[i]))
	}
	return out
}

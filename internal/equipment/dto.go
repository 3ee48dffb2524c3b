// AngelaMos | 2026
// dto.go

package equipment

import (
	"time"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
)

type CreateEquipmentRequest struct {
	CustomerID    string     `json:"customer_id"              validate:"required,uuid"`
	Type          string     `json:"type"                     validate:"required,max=50"`
	Model         string     `json:"model"                    validate:"required,max=100"`
	SerialNumber  string     `json:"serial_number"            validate:"required,max=100"`
	MACAddress    *string    `json:"mac_address,omitempty"    validate:"omitempty,mac"`
	Status        Status     `json:"status,omitempty"`
	InstalledDate *time.Time `json:"installed_date,omitempty"`
}

// UpdateEquipmentRequest changes status or MAC address. An empty MAC address
// clears it.
type UpdateEquipmentRequest struct {
	Status     *Status `json:"status,omitempty"`
	MACAddress *string `json:"mac_address,omitempty" validate:"omitempty,mac"`
}

type ListEquipmentParams struct {
	core.PageParams
	CustomerID string
	Type       string
	Status     Status
}

type EquipmentResponse struct {
	ID            string    `json:"id"`
	CustomerID    string    `json:"customer_id"`
	CustomerName  string    `json:"customer_name"`
	Type          string    `json:"type"`
	Model         string    `json:"model"`
	SerialNumber  string    `json:"serial_number"`
	MACAddress    *string   `json:"mac_address"`
	Status        Status    `json:"status"`
	InstalledDate time.Time `json:"installed_date"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func ToEquipmentResponse(e *Equipment) EquipmentResponse {
	return EquipmentResponse{
		ID:            e.ID,
		CustomerID:    e.CustomerID,
		CustomerName:  e.CustomerName,
		Type:          e.Type,
		Model:         e.Model,
		SerialNumber:  e.SerialNumber,
		MACAddress:    e.MACAddress,
		Status:        e.Status,
		InstalledDate: e.InstalledDate,
		UpdatedAt:     e.UpdatedAt,
	}
}

func ToEquipmentResponseList(items []Equipment) []EquipmentResponse {
	out := make([]EquipmentResponse, 0, len(items))
	for i := range items {
		out = append(out, ToEquipmentResponse(&items[i]))
	}
	return out
}

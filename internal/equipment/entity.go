// AngelaMos | 2026
// entity.go

package equipment

import (
	"time"
)

type Status string

const (
	StatusActive      Status = "active"
	StatusInactive    Status = "inactive"
	StatusMaintenance Status = "maintenance"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusMaintenance:
		return true
	}
	return false
}

// Equipment is a device installed at a customer's premises.
type Equipment struct {
	ID            string    `db:"id"`
	CustomerID    string    `db:"customer_id"`
	Type          string    `db:"type"`
	Model         string    `db:"model"`
	SerialNumber  string    `db:"serial_number"`
	MACAddress    *string   `db:"mac_address"`
	Status        Status    `db:"status"`
	InstalledDate time.Time `db:"installed_date"`
	UpdatedAt     time.Time `db:"updated_at"`
	CustomerName  string    `db:"customer_name"`
}

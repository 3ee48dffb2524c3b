// AngelaMos | 2026
// entity.go

package customer

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Customer is a billing profile. UserID links it to a login account when the
// customer has one.
type Customer struct {
	ID             string         `db:"id"`
	UserID         *string        `db:"user_id"`
	Name           string         `db:"name"`
	Email          string         `db:"email"`
	Phone          *string        `db:"phone"`
	PersonalInfo   types.JSONText `db:"personal_info"`
	ContactInfo    types.JSONText `db:"contact_info"`
	BillingInfo    types.JSONText `db:"billing_info"`
	ServiceAddress types.JSONText `db:"service_address"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

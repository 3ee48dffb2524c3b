// AngelaMos | 2026
// entity.go

package network

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
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

// Node is a piece of access network with a fixed subscriber capacity.
// CurrentLoad may exceed Capacity; nothing enforces the ceiling.
type Node struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	Location    types.JSONText `db:"location"`
	Status      Status         `db:"status"`
	Capacity    int            `db:"capacity"`
	CurrentLoad int            `db:"current_load"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// LoadPercentage is current load over capacity, rounded to two decimals.
func (n *Node) LoadPercentage() float64 {
	if n.Capacity <= 0 {
		return 0
	}
	return decimal.NewFromInt(int64(n.CurrentLoad)).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(int64(n.Capacity)), 2).
		InexactFloat64()
}

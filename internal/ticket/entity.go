// AngelaMos | 2026
// entity.go

package ticket

import (
	"time"
)

type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Ticket is a support request. ResolvedAt records the last time the ticket
// entered resolved and is kept when it leaves that status.
type Ticket struct {
	ID           string     `db:"id"`
	CustomerID   string     `db:"customer_id"`
	AssignedTo   *string    `db:"assigned_to"`
	Title        string     `db:"title"`
	Description  string     `db:"description"`
	Status       Status     `db:"status"`
	Priority     Priority   `db:"priority"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	ResolvedAt   *time.Time `db:"resolved_at"`
	CustomerName string     `db:"customer_name"`
	AssigneeName *string    `db:"assignee_name"`
}

// AngelaMos | 2026
// entity.go

package dashboard

import (
	"time"

	"github.com/shopspring/decimal"
)

type Overview struct {
	TotalCustomers      int             `db:"total_customers"       json:"total_customers"`
	ActiveSubscriptions int             `db:"active_subscriptions"  json:"active_subscriptions"`
	TotalRevenue        decimal.Decimal `db:"total_revenue"         json:"total_revenue"`
	OpenTickets         int             `db:"open_tickets"          json:"open_tickets"`
	NewCustomers30d     int             `db:"new_customers_30d"     json:"new_customers_30d"`
	RecentPayments30d   int             `db:"recent_payments_30d"   json:"recent_payments_30d"`
}

type PlanPopularity struct {
	Name          string `db:"name"          json:"name"`
	Subscriptions int    `db:"subscriptions" json:"subscriptions"`
}

type MonthlyRevenue struct {
	Month   string          `db:"month"   json:"month"`
	Revenue decimal.Decimal `db:"revenue" json:"revenue"`
}

type statusCount struct {
	Status string `db:"status"`
	Count  int    `db:"count"`
}

type NetworkStats struct {
	TotalNodes  int             `db:"total_nodes"  json:"total_nodes"`
	ActiveNodes int             `db:"active_nodes" json:"active_nodes"`
	AverageLoad decimal.Decimal `db:"average_load" json:"average_load"`
}

// Stats is the staff dashboard. Network is nil for callers who may not read
// network nodes.
type Stats struct {
	Overview       Overview         `json:"overview"`
	ServicePlans   []PlanPopularity `json:"service_plans"`
	MonthlyRevenue []MonthlyRevenue `json:"monthly_revenue"`
	TicketStats    map[string]int   `json:"ticket_stats"`
	NetworkStats   *NetworkStats    `json:"network_stats"`
}

type RecentCustomer struct {
	ID        string    `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	Email     string    `db:"email"      json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type RecentPayment struct {
	ID           string          `db:"id"            json:"id"`
	CustomerName string          `db:"customer_name" json:"customer_name"`
	Amount       decimal.Decimal `db:"amount"        json:"amount"`
	PaymentDate  time.Time       `db:"payment_date"  json:"payment_date"`
	Status       string          `db:"status"        json:"status"`
}

type RecentTicket struct {
	ID           string    `db:"id"            json:"id"`
	Title        string    `db:"title"         json:"title"`
	CustomerName string    `db:"customer_name" json:"customer_name"`
	Status       string    `db:"status"        json:"status"`
	Priority     string    `db:"priority"      json:"priority"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
}

type Activity struct {
	RecentCustomers []RecentCustomer `json:"recent_customers"`
	RecentPayments  []RecentPayment  `json:"recent_payments"`
	RecentTickets   []RecentTicket   `json:"recent_tickets"`
}

// AngelaMos | 2026
// repository.go

package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
)

type Repository interface {
	Overview(ctx context.Context, since time.Time) (Overview, error)
	PlanPopularity(ctx context.Context) ([]PlanPopularity, error)
	MonthlyRevenue(ctx context.Context, now time.Time, months int) ([]MonthlyRevenue, error)
	TicketCounts(ctx context.Context) (map[string]int, error)
	NetworkStats(ctx context.Context) (NetworkStats, error)
	RecentActivity(ctx context.Context, limit int) (Activity, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Overview(ctx context.Context, since time.Time) (Overview, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM customers) AS total_customers,
			(SELECT COUNT(*) FROM subscriptions WHERE status = 'active') AS active_subscriptions,
			(SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = 'completed') AS total_revenue,
			(SELECT COUNT(*) FROM tickets WHERE status = 'open') AS open_tickets,
			(SELECT COUNT(*) FROM customers WHERE created_at >= $1) AS new_customers_30d,
			(SELECT COUNT(*) FROM payments
			  WHERE status = 'completed' AND payment_date >= $1) AS recent_payments_30d`

	var o Overview
	if err := core.Conn(ctx, r.db).GetContext(ctx, &o, query, since); err != nil {
		return Overview{}, fmt.Errorf("dashboard overview: %w", err)
	}

	return o, nil
}

func (r *repository) PlanPopularity(ctx context.Context) ([]PlanPopularity, error) {
	query := `
		SELECT sp.name, COUNT(s.id) AS subscriptions
		FROM service_plans sp
		JOIN subscriptions s ON s.plan_id = sp.id
		WHERE s.status = 'active'
		GROUP BY sp.id, sp.name
		ORDER BY subscriptions DESC, sp.name`

	var plans []PlanPopularity
	if err := core.Conn(ctx, r.db).SelectContext(ctx, &plans, query); err != nil {
		return nil, fmt.Errorf("dashboard plan popularity: %w", err)
	}

	return plans, nil
}

// MonthlyRevenue sums completed payments per calendar month, oldest first,
// for the given number of months ending with the month containing now.
func (r *repository) MonthlyRevenue(
	ctx context.Context,
	now time.Time,
	months int,
) ([]MonthlyRevenue, error) {
	query := `
		SELECT to_char(m.month, 'YYYY-MM') AS month,
		       COALESCE(SUM(p.amount), 0) AS revenue
		FROM generate_series(
			date_trunc('month', $1::timestamptz) - make_interval(months => $2 - 1),
			date_trunc('month', $1::timestamptz),
			INTERVAL '1 month'
		) AS m(month)
		LEFT JOIN payments p
		       ON p.status = 'completed'
		      AND p.payment_date >= m.month
		      AND p.payment_date < m.month + INTERVAL '1 month'
		GROUP BY m.month
		ORDER BY m.month`

	var out []MonthlyRevenue
	if err := core.Conn(ctx, r.db).SelectContext(ctx, &out, query, now, months); err != nil {
		return nil, fmt.Errorf("dashboard monthly revenue: %w", err)
	}

	return out, nil
}

func (r *repository) TicketCounts(ctx context.Context) (map[string]int, error) {
	var rows []statusCount
	err := core.Conn(ctx, r.db).SelectContext(ctx, &rows,
		`SELECT status, COUNT(*) AS count FROM tickets GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("dashboard ticket counts: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	return counts, nil
}

func (r *repository) NetworkStats(ctx context.Context) (NetworkStats, error) {
	query := `
		SELECT COUNT(*) AS total_nodes,
		       COUNT(*) FILTER (WHERE status = 'active') AS active_nodes,
		       ROUND(COALESCE(AVG(current_load), 0), 2) AS average_load
		FROM network_nodes`

	var s NetworkStats
	if err := core.Conn(ctx, r.db).GetContext(ctx, &s, query); err != nil {
		return NetworkStats{}, fmt.Errorf("dashboard network stats: %w", err)
	}

	return s, nil
}

func (r *repository) RecentActivity(ctx context.Context, limit int) (Activity, error) {
	db := core.Conn(ctx, r.db)

	var a Activity

	err := db.SelectContext(ctx, &a.RecentCustomers, `
		SELECT id, name, email, created_at
		FROM customers
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return Activity{}, fmt.Errorf("recent customers: %w", err)
	}

	err = db.SelectContext(ctx, &a.RecentPayments, `
		SELECT pm.id, c.name AS customer_name, pm.amount, pm.payment_date, pm.status
		FROM payments pm
		JOIN subscriptions s ON s.id = pm.subscription_id
		JOIN customers c ON c.id = s.customer_id
		ORDER BY pm.payment_date DESC
		LIMIT $1`, limit)
	if err != nil {
		return Activity{}, fmt.Errorf("recent payments: %w", err)
	}

	err = db.SelectContext(ctx, &a.RecentTickets, `
		SELECT t.id, t.title, c.name AS customer_name, t.status, t.priority, t.created_at
		FROM tickets t
		JOIN customers c ON c.id = t.customer_id
		ORDER BY t.created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return Activity{}, fmt.Errorf("recent tickets: %w", err)
	}

	return a, nil
}

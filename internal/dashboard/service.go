// AngelaMos | 2026
// service.go

package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/templates/isp-backend/internal/policy"
)

const (
	recentWindow  = 30 * 24 * time.Hour
	revenueMonths = 12
	activityLimit = 10
)

var ticketStatuses = []string{"open", "in_progress", "resolved", "closed"}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Stats aggregates counts and revenue for staff. Network figures are only
// included for callers allowed to read network nodes.
func (s *Service) Stats(ctx context.Context, claim policy.Claim) (*Stats, error) {
	if err := policy.Authorize(claim, policy.ResourceDashboard, policy.ActionRead, policy.Target{}); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	withNetwork := policy.Allowed(claim, policy.ResourceNetworkNode, policy.ActionRead, policy.Target{})

	var (
		stats   Stats
		tickets map[string]int
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		o, err := s.repo.Overview(gctx, now.Add(-recentWindow))
		stats.Overview = o
		return err
	})
	g.Go(func() error {
		plans, err := s.repo.PlanPopularity(gctx)
		stats.ServicePlans = plans
		return err
	})
	g.Go(func() error {
		revenue, err := s.repo.MonthlyRevenue(gctx, now, revenueMonths)
		stats.MonthlyRevenue = revenue
		return err
	})
	g.Go(func() error {
		counts, err := s.repo.TicketCounts(gctx)
		tickets = counts
		return err
	})
	if withNetwork {
		g.Go(func() error {
			n, err := s.repo.NetworkStats(gctx)
			stats.NetworkStats = &n
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.TicketStats = make(map[string]int, len(ticketStatuses))
	for _, status := range ticketStatuses {
		stats.TicketStats[status] = tickets[status]
	}
	if stats.ServicePlans == nil {
		stats.ServicePlans = []PlanPopularity{}
	}

	return &stats, nil
}

func (s *Service) RecentActivity(ctx context.Context, claim policy.Claim) (*Activity, error) {
	if err := policy.Authorize(claim, policy.ResourceDashboard, policy.ActionRead, policy.Target{}); err != nil {
		return nil, err
	}

	a, err := s.repo.RecentActivity(ctx, activityLimit)
	if err != nil {
		return nil, err
	}

	return &a, nil
}

// AngelaMos | 2026
// service.go

package ticket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
	"github.com/carterperez-dev/templates/isp-backend/internal/policy"
)

type Service struct {
	repo   Repository
	owners policy.OwnerResolver
	tx     core.Transactor
}

func NewService(repo Repository, owners policy.OwnerResolver, tx core.Transactor) *Service {
	return &Service{repo: repo, owners: owners, tx: tx}
}

// Create opens a ticket. A customer's ticket is bound to their own profile;
// staff name the customer explicitly.
func (s *Service) Create(
	ctx context.Context,
	claim policy.Claim,
	req CreateTicketRequest,
) (*Ticket, error) {
	scope, err := policy.CallerScope(ctx, s.owners, claim)
	if err != nil {
		return nil, err
	}

	customerID := req.CustomerID
	if claim.IsCustomer() && customerID == "" {
		customerID = scope.CallerCustomerID
	}
	if customerID == "" {
		return nil, fmt.Errorf("create ticket: customer_id is required: %w", core.ErrInvalidInput)
	}

	if err := policy.Authorize(claim, policy.ResourceTicket, policy.ActionCreate, scope.Owned(customerID)); err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("invalid priority %q: %w", priority, core.ErrInvalidInput)
	}

	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" || description == "" {
		return nil, fmt.Errorf("create ticket: title and description are required: %w", core.ErrInvalidInput)
	}

	t := &Ticket{
		ID:          uuid.NewString(),
		CustomerID:  customerID,
		Title:       title,
		Description: description,
		Status:      StatusOpen,
		Priority:    priority,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, t); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return core.NotFoundError("customer")
			}
			return err
		}

		created, err := s.repo.GetByID(ctx, t.ID)
		if err != nil {
			return err
		}
		t = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "ticket opened",
		"ticket_id", t.ID,
		"customer_id", t.CustomerID,
		"priority", t.Priority,
		"opened_by", claim.UserID,
	)

	return t, nil
}

func (s *Service) Get(ctx context.Context, claim policy.Claim, id string) (*Ticket, error) {
	scope, err := policy.CallerScope(ctx, s.owners, claim)
	if err != nil {
		return nil, err
	}

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.AuthorizeLookup(claim, policy.ResourceTicket, policy.ActionRead, scope.Owned(t.CustomerID)); err != nil {
		return nil, err
	}

	return t, nil
}

// List narrows results by role: customers see their own tickets, tech sees
// tickets assigned to them or to nobody, admin and sales see all.
func (s *Service) List(
	ctx context.Context,
	claim policy.Claim,
	params ListTicketsParams,
) ([]Ticket, int, error) {
	if params.Status != "" && !params.Status.Valid() {
		return nil, 0, fmt.Errorf("invalid status filter %q: %w", params.Status, core.ErrInvalidInput)
	}
	if params.Priority != "" && !params.Priority.Valid() {
		return nil, 0, fmt.Errorf("invalid priority filter %q: %w", params.Priority, core.ErrInvalidInput)
	}

	scope, err := policy.CallerScope(ctx, s.owners, claim)
	if err != nil {
		return nil, 0, err
	}

	params.VisibleTo = ""
	switch claim.Role {
	case policy.RoleCustomer:
		if params.CustomerID == "" {
			params.CustomerID = scope.CallerCustomerID
		}
	case policy.RoleTech:
		params.VisibleTo = claim.UserID
	}

	if err := policy.Authorize(claim, policy.ResourceTicket, policy.ActionList, scope.Owned(params.CustomerID)); err != nil {
		return nil, 0, err
	}

	return s.repo.List(ctx, params)
}

// Update applies the fields set in req. Each of status, priority and
// assignee needs its own permission; the call is refused before any lookup
// when one is missing.
func (s *Service) Update(
	ctx context.Context,
	claim policy.Claim,
	id string,
	req UpdateTicketRequest,
) (*Ticket, error) {
	if err := authorizeUpdate(claim, req); err != nil {
		return nil, err
	}

	if req.Status != nil && !req.Status.Valid() {
		return nil, fmt.Errorf("invalid ticket status %q: %w", *req.Status, core.ErrInvalidInput)
	}
	if req.Priority != nil && !req.Priority.Valid() {
		return nil, fmt.Errorf("invalid priority %q: %w", *req.Priority, core.ErrInvalidInput)
	}

	var t *Ticket
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.LockByID(ctx, id)
		if err != nil {
			return err
		}

		if req.Title != nil {
			current.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			current.Description = strings.TrimSpace(*req.Description)
		}
		if current.Title == "" || current.Description == "" {
			return fmt.Errorf("update ticket: title and description must not be blank: %w", core.ErrInvalidInput)
		}
		if req.Priority != nil {
			current.Priority = *req.Priority
		}
		if req.AssignedTo != nil {
			current.AssignedTo = nil
			if *req.AssignedTo != "" {
				assignee := *req.AssignedTo
				current.AssignedTo = &assignee
			}
		}

		previous := current.Status
		markResolved := false
		if req.Status != nil {
			current.Status = *req.Status
			markResolved = current.Status == StatusResolved && previous != StatusResolved
		}

		if err := s.repo.Update(ctx, current, markResolved); err != nil {
			if errors.Is(err, core.ErrNotFound) && req.AssignedTo != nil {
				return core.NotFoundError("assignee")
			}
			return err
		}

		if current.Status != previous {
			slog.InfoContext(ctx, "ticket status changed",
				"ticket_id", current.ID,
				"from", previous,
				"to", current.Status,
				"changed_by", claim.UserID,
			)
		}

		reloaded, err := s.repo.GetByID(ctx, current.ID)
		if err != nil {
			return err
		}
		t = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}

func (s *Service) UpdateStatus(
	ctx context.Context,
	claim policy.Claim,
	id string,
	status Status,
) (*Ticket, error) {
	return s.Update(ctx, claim, id, UpdateTicketRequest{Status: &status})
}

// Assign sets the ticket's assignee; an empty userID unassigns it. The
// assignee's role is not checked.
func (s *Service) Assign(
	ctx context.Context,
	claim policy.Claim,
	id, userID string,
) (*Ticket, error) {
	return s.Update(ctx, claim, id, UpdateTicketRequest{AssignedTo: &userID})
}

func authorizeUpdate(claim policy.Claim, req UpdateTicketRequest) error {
	checks := []struct {
		set    bool
		action policy.Action
	}{
		{req.Title != nil || req.Description != nil, policy.ActionUpdate},
		{req.Status != nil, policy.ActionSetStatus},
		{req.Priority != nil, policy.ActionSetPriority},
		{req.AssignedTo != nil, policy.ActionAssign},
	}

	changed := false
	for _, c := range checks {
		if !c.set {
			continue
		}
		changed = true
		if err := policy.Authorize(claim, policy.ResourceTicket, c.action, policy.Target{}); err != nil {
			return err
		}
	}

	if !changed {
		return fmt.Errorf("update ticket: no fields to update: %w", core.ErrInvalidInput)
	}

	return nil
}

// AngelaMos | 2026
// service.go

package customer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
	"github.com/carterperez-dev/templates/isp-backend/internal/policy"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CustomerIDForUser returns the profile linked to a login account.
func (s *Service) CustomerIDForUser(ctx context.Context, userID string) (string, error) {
	c, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

// CreateLinkedProfile creates the profile of a newly registered customer
// account with empty documents.
func (s *Service) CreateLinkedProfile(
	ctx context.Context,
	userID, name, email string,
) (string, error) {
	c := &Customer{
		ID:             uuid.NewString(),
		UserID:         &userID,
		Name:           name,
		Email:          strings.ToLower(email),
		PersonalInfo:   document(nil),
		ContactInfo:    document(nil),
		BillingInfo:    document(nil),
		ServiceAddress: document(nil),
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return "", err
	}

	return c.ID, nil
}

func (s *Service) Create(
	ctx context.Context,
	claim policy.Claim,
	req CreateCustomerRequest,
) (*Customer, error) {
	if err := policy.Authorize(claim, policy.ResourceCustomer, policy.ActionCreate, policy.Target{}); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" {
		return nil, fmt.Errorf("create customer: name and email are required: %w", core.ErrInvalidInput)
	}

	c := &Customer{
		ID:             uuid.NewString(),
		UserID:         req.UserID,
		Name:           name,
		Email:          email,
		Phone:          req.Phone,
		PersonalInfo:   document(req.PersonalInfo),
		ContactInfo:    document(req.ContactInfo),
		BillingInfo:    document(req.BillingInfo),
		ServiceAddress: document(req.ServiceAddress),
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "customer created",
		"customer_id", c.ID,
		"created_by", claim.UserID,
	)

	return c, nil
}

// Get returns a profile. A customer asking for any profile but their own
// gets NotFound without a lookup.
func (s *Service) Get(
	ctx context.Context,
	claim policy.Claim,
	id string,
) (*Customer, error) {
	scope, err := policy.CallerScope(ctx, s, claim)
	if err != nil {
		return nil, err
	}

	if err := policy.AuthorizeLookup(claim, policy.ResourceCustomer, policy.ActionRead, scope.Owned(id)); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

// Me returns the profile linked to the caller's account.
func (s *Service) Me(ctx context.Context, claim policy.Claim) (*Customer, error) {
	return s.repo.GetByUserID(ctx, claim.UserID)
}

func (s *Service) List(
	ctx context.Context,
	claim policy.Claim,
	params ListCustomersParams,
) ([]Customer, int, error) {
	if err := policy.Authorize(claim, policy.ResourceCustomer, policy.ActionList, policy.Target{}); err != nil {
		return nil, 0, err
	}

	return s.repo.List(ctx, params)
}

func (s *Service) Update(
	ctx context.Context,
	claim policy.Claim,
	id string,
	req UpdateCustomerRequest,
) (*Customer, error) {
	scope, err := policy.CallerScope(ctx, s, claim)
	if err != nil {
		return nil, err
	}

	if err := policy.AuthorizeLookup(claim, policy.ResourceCustomer, policy.ActionUpdate, scope.Owned(id)); err != nil {
		return nil, err
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("update customer: empty name: %w", core.ErrInvalidInput)
		}
		c.Name = name
	}
	if req.Email != nil {
		c.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Phone != nil {
		c.Phone = req.Phone
	}
	if req.PersonalInfo != nil {
		c.PersonalInfo = document(req.PersonalInfo)
	}
	if req.ContactInfo != nil {
		c.ContactInfo = document(req.ContactInfo)
	}
	if req.BillingInfo != nil {
		c.BillingInfo = document(req.BillingInfo)
	}
	if req.ServiceAddress != nil {
		c.ServiceAddress = document(req.ServiceAddress)
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

var emptyDocument = types.JSONText(`{}`)

func document(j types.JSONText) types.JSONText {
	trimmed := bytes.TrimSpace(j)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return append(types.JSONText(nil), emptyDocument...)
	}
	return types.JSONText(trimmed)
}

var _ policy.OwnerResolver = (*Service)(nil)

// AngelaMos | 2026
// service.go

package equipment

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
}

func NewService(repo Repository, owners policy.OwnerResolver) *Service {
	return &Service{repo: repo, owners: owners}
}

func (s *Service) Create(
	ctx context.Context,
	claim policy.Claim,
	req CreateEquipmentRequest,
) (*Equipment, error) {
	if err := policy.Authorize(claim, policy.ResourceEquipment, policy.ActionCreate, policy.Target{}); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = StatusActive
	}
	if !status.Valid() {
		return nil, fmt.Errorf("invalid equipment status %q: %w", status, core.ErrInvalidInput)
	}

	serial := strings.TrimSpace(req.SerialNumber)
	if serial == "" {
		return nil, fmt.Errorf("create equipment: serial_number is required: %w", core.ErrInvalidInput)
	}

	e := &Equipment{
		ID:           uuid.NewString(),
		CustomerID:   req.CustomerID,
		Type:         strings.TrimSpace(req.Type),
		Model:        strings.TrimSpace(req.Model),
		SerialNumber: serial,
		MACAddress:   normalizeMAC(req.MACAddress),
		Status:       status,
	}
	if req.InstalledDate != nil {
		e.InstalledDate = *req.InstalledDate
	}

	if err := s.repo.Create(ctx, e); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("customer")
		}
		return nil, err
	}

	created, err := s.repo.GetByID(ctx, e.ID)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "equipment registered",
		"equipment_id", created.ID,
		"customer_id", created.CustomerID,
		"serial_number", created.SerialNumber,
	)

	return created, nil
}

func (s *Service) Get(ctx context.Context, claim policy.Claim, id string) (*Equipment, error) {
	scope, err := policy.CallerScope(ctx, s.owners, claim)
	if err != nil {
		return nil, err
	}

	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.AuthorizeLookup(claim, policy.ResourceEquipment, policy.ActionRead, scope.Owned(e.CustomerID)); err != nil {
		return nil, err
	}

	return e, nil
}

// List returns equipment matching params. A customer is pinned to their own
// profile when no customer filter is given.
func (s *Service) List(
	ctx context.Context,
	claim policy.Claim,
	params ListEquipmentParams,
) ([]Equipment, int, error) {
	if params.Status != "" && !params.Status.Valid() {
		return nil, 0, fmt.Errorf("invalid status filter %q: %w", params.Status, core.ErrInvalidInput)
	}

	scope, err := policy.CallerScope(ctx, s.owners, claim)
	if err != nil {
		return nil, 0, err
	}

	if claim.IsCustomer() && params.CustomerID == "" {
		params.CustomerID = scope.CallerCustomerID
	}

	if err := policy.Authorize(claim, policy.ResourceEquipment, policy.ActionList, scope.Owned(params.CustomerID)); err != nil {
		return nil, 0, err
	}

	return s.repo.List(ctx, params)
}

func (s *Service) Update(
	ctx context.Context,
	claim policy.Claim,
	id string,
	req UpdateEquipmentRequest,
) (*Equipment, error) {
	if err := policy.Authorize(claim, policy.ResourceEquipment, policy.ActionUpdate, policy.Target{}); err != nil {
		return nil, err
	}

	if req.Status == nil && req.MACAddress == nil {
		return nil, fmt.Errorf("update equipment: no fields to update: %w", core.ErrInvalidInput)
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, fmt.Errorf("invalid equipment status %q: %w", *req.Status, core.ErrInvalidInput)
	}

	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := e.Status
	if req.Status != nil {
		e.Status = *req.Status
	}
	if req.MACAddress != nil {
		e.MACAddress = normalizeMAC(req.MACAddress)
	}

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}

	if e.Status != previous {
		slog.InfoContext(ctx, "equipment status changed",
			"equipment_id", e.ID,
			"from", previous,
			"to", e.Status,
			"changed_by", claim.UserID,
		)
	}

	return e, nil
}

func (s *Service) Delete(ctx context.Context, claim policy.Claim, id string) error {
	if err := policy.Authorize(claim, policy.ResourceEquipment, policy.ActionDelete, policy.Target{}); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "equipment removed",
		"equipment_id", id,
		"removed_by", claim.UserID,
	)

	return nil
}

func normalizeMAC(mac *string) *string {
	if mac == nil {
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(*mac))
	if v == "" {
		return nil
	}
	return &v
}

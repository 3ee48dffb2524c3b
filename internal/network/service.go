// AngelaMos | 2026
// service.go

package network

import (
	"bytes"
	"context"
	"encoding/json"
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

func (s *Service) Create(
	ctx context.Context,
	claim policy.Claim,
	req CreateNodeRequest,
) (*Node, error) {
	if err := policy.Authorize(claim, policy.ResourceNetworkNode, policy.ActionCreate, policy.Target{}); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = StatusActive
	}
	if !status.Valid() {
		return nil, fmt.Errorf("invalid node status %q: %w", status, core.ErrInvalidInput)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("create network node: name is required: %w", core.ErrInvalidInput)
	}

	location, err := locationDocument(req.Location)
	if err != nil {
		return nil, err
	}

	if err := checkLoad(req.Capacity, req.CurrentLoad); err != nil {
		return nil, err
	}

	n := &Node{
		ID:          uuid.NewString(),
		Name:        name,
		Location:    location,
		Status:      status,
		Capacity:    req.Capacity,
		CurrentLoad: req.CurrentLoad,
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "network node created",
		"node_id", n.ID,
		"name", n.Name,
		"capacity", n.Capacity,
	)

	return n, nil
}

func (s *Service) Get(ctx context.Context, claim policy.Claim, id string) (*Node, error) {
	if err := policy.Authorize(claim, policy.ResourceNetworkNode, policy.ActionRead, policy.Target{}); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(
	ctx context.Context,
	claim policy.Claim,
	params ListNodesParams,
) ([]Node, int, error) {
	if err := policy.Authorize(claim, policy.ResourceNetworkNode, policy.ActionList, policy.Target{}); err != nil {
		return nil, 0, err
	}

	if params.Status != "" && !params.Status.Valid() {
		return nil, 0, fmt.Errorf("invalid status filter %q: %w", params.Status, core.ErrInvalidInput)
	}

	return s.repo.List(ctx, params)
}

// Update applies the fields set in req. A load above capacity is accepted
// and logged.
func (s *Service) Update(
	ctx context.Context,
	claim policy.Claim,
	id string,
	req UpdateNodeRequest,
) (*Node, error) {
	if err := policy.Authorize(claim, policy.ResourceNetworkNode, policy.ActionUpdate, policy.Target{}); err != nil {
		return nil, err
	}

	if req.Status != nil && !req.Status.Valid() {
		return nil, fmt.Errorf("invalid node status %q: %w", *req.Status, core.ErrInvalidInput)
	}

	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("update network node: name must not be blank: %w", core.ErrInvalidInput)
		}
		n.Name = name
	}
	if len(req.Location) > 0 {
		location, err := locationDocument(req.Location)
		if err != nil {
			return nil, err
		}
		n.Location = location
	}
	if req.Status != nil {
		n.Status = *req.Status
	}
	if req.Capacity != nil {
		n.Capacity = *req.Capacity
	}
	if req.CurrentLoad != nil {
		n.CurrentLoad = *req.CurrentLoad
	}

	if err := checkLoad(n.Capacity, n.CurrentLoad); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, n); err != nil {
		return nil, err
	}

	if n.CurrentLoad > n.Capacity {
		slog.WarnContext(ctx, "network node over capacity",
			"node_id", n.ID,
			"capacity", n.Capacity,
			"current_load", n.CurrentLoad,
		)
	}

	return n, nil
}

func checkLoad(capacity, load int) error {
	if capacity <= 0 {
		return fmt.Errorf("capacity must be positive: %w", core.ErrInvalidInput)
	}
	if load < 0 {
		return fmt.Errorf("current_load must not be negative: %w", core.ErrInvalidInput)
	}
	return nil
}

// locationDocument accepts a JSON object only.
func locationDocument(raw types.JSONText) (types.JSONText, error) {
	trimmed := bytes.TrimSpace(raw)

	var doc map[string]any
	if len(trimmed) == 0 || json.Unmarshal(trimmed, &doc) != nil || doc == nil {
		return nil, fmt.Errorf("location must be a JSON object: %w", core.ErrInvalidInput)
	}

	return types.JSONText(trimmed), nil
}

// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/isp-backend/internal/auth"
	"github.com/carterperez-dev/templates/isp-backend/internal/core"
	"github.com/carterperez-dev/templates/isp-backend/internal/policy"
)

// ProfileCreator creates the customer profile linked to a new customer
// account. It is called inside the account's transaction.
type ProfileCreator interface {
	CreateLinkedProfile(ctx context.Context, userID, name, email string) (string, error)
}

type Service struct {
	repo     Repository
	profiles ProfileCreator
	tx       core.Transactor
}

func NewService(repo Repository, profiles ProfileCreator, tx core.Transactor) *Service {
	return &Service{repo: repo, profiles: profiles, tx: tx}
}

func (s *Service) GetByID(ctx context.Context, id string) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByUsername(
	ctx context.Context,
	username string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

// CreateAccount inserts the user and, for customer accounts, the linked
// profile named after the username. Either both rows exist or neither.
func (s *Service) CreateAccount(
	ctx context.Context,
	account auth.NewAccount,
) (*auth.UserInfo, error) {
	user := &User{
		ID:           uuid.NewString(),
		Username:     account.Username,
		Email:        strings.ToLower(account.Email),
		PasswordHash: account.PasswordHash,
		Role:         account.Role,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, user); err != nil {
			return err
		}

		if user.Role != policy.RoleCustomer {
			return nil
		}

		customerID, err := s.profiles.CreateLinkedProfile(
			ctx, user.ID, user.Username, user.Email,
		)
		if err != nil {
			return fmt.Errorf("create customer profile: %w", err)
		}
		user.CustomerID = &customerID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) ListUsers(
	ctx context.Context,
	claim policy.Claim,
	params ListUsersParams,
) ([]User, int, error) {
	if err := policy.Authorize(claim, policy.ResourceUser, policy.ActionList, policy.Target{}); err != nil {
		return nil, 0, err
	}

	if params.Role != "" && !params.Role.Valid() {
		return nil, 0, fmt.Errorf("list users: invalid role %q: %w", params.Role, core.ErrInvalidInput)
	}

	return s.repo.List(ctx, params)
}

func (s *Service) GetUser(
	ctx context.Context,
	claim policy.Claim,
	id string,
) (*User, error) {
	target := policy.Target{UserID: id}
	if err := policy.Authorize(claim, policy.ResourceUser, policy.ActionRead, target); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateUser(
	ctx context.Context,
	claim policy.Claim,
	id string,
	req UpdateUserRequest,
) (*User, error) {
	target := policy.Target{UserID: id}
	if err := policy.Authorize(claim, policy.ResourceUser, policy.ActionUpdate, target); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username == "" {
			return nil, fmt.Errorf("update user: empty username: %w", core.ErrInvalidInput)
		}
		user.Username = username
	}
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// ChangeRole sets a user's role. Promoting an account to customer creates the
// missing customer profile in the same transaction.
func (s *Service) ChangeRole(
	ctx context.Context,
	claim policy.Claim,
	id string,
	role policy.Role,
) (*User, error) {
	target := policy.Target{UserID: id}
	if err := policy.Authorize(claim, policy.ResourceUser, policy.ActionChangeRole, target); err != nil {
		return nil, err
	}

	if !role.Valid() {
		return nil, fmt.Errorf("change role: invalid role %q: %w", role, core.ErrInvalidInput)
	}

	var user *User
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		user.Role = role
		if err := s.repo.Update(ctx, user); err != nil {
			return err
		}

		if role != policy.RoleCustomer || user.CustomerID != nil {
			return nil
		}

		customerID, err := s.profiles.CreateLinkedProfile(
			ctx, user.ID, user.Username, user.Email,
		)
		if err != nil {
			return fmt.Errorf("create customer profile: %w", err)
		}
		user.CustomerID = &customerID
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "user role changed",
		"user_id", id,
		"role", role,
		"changed_by", claim.UserID,
	)

	return user, nil
}

// DeleteUser soft deletes an account. Admins cannot delete themselves.
func (s *Service) DeleteUser(
	ctx context.Context,
	claim policy.Claim,
	id string,
) error {
	target := policy.Target{UserID: id}
	if err := policy.Authorize(claim, policy.ResourceUser, policy.ActionDelete, target); err != nil {
		return err
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "user deleted", "user_id", id, "deleted_by", claim.UserID)
	return nil
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		CustomerID:   u.CustomerID,
		CreatedAt:    u.CreatedAt,
	}
}

var _ auth.UserProvider = (*Service)(nil)

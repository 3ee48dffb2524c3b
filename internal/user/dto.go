// AngelaMos | 2026
// dto.go

package user

import (
	"time"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
	"github.com/carterperez-dev/templates/isp-backend/internal/policy"
)

type CreateUserRequest struct {
	Username string      `json:"username" validate:"required,min=3,max=50"`
	Email    string      `json:"email"    validate:"required,email,max=255"`
	Password string      `json:"password" validate:"required,max=128"`
	Role     policy.Role `json:"role"     validate:"omitempty,oneof=admin sales tech customer"`
}

type UpdateUserRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=50"`
	Email    *string `json:"email,omitempty"    validate:"omitempty,email,max=255"`
}

type UpdateUserRoleRequest struct {
	Role policy.Role `json:"role" validate:"required,oneof=admin sales tech customer"`
}

type UserResponse struct {
	ID         string      `json:"id"`
	Username   string      `json:"username"`
	Email      string      `json:"email"`
	Role       policy.Role `json:"role"`
	CustomerID *string     `json:"customer_id,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

type ListUsersParams struct {
	core.PageParams
	Search string
	Role   policy.Role
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Role:       u.Role,
		CustomerID: u.CustomerID,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses
}

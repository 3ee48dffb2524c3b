// AngelaMos | 2026
// handler.go

package user

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/isp-backend/internal/auth"
	"github.com/carterperez-dev/templates/isp-backend/internal/core"
	"github.com/carterperez-dev/templates/isp-backend/internal/middleware"
	"github.com/carterperez-dev/templates/isp-backend/internal/policy"
)

// Registrar is the registration path shared with public sign-up.
type Registrar interface {
	RegisterAccount(
		ctx context.Context,
		username, email, password string,
		role policy.Role,
	) (*auth.UserInfo, error)
}

type Handler struct {
	service   *Service
	registrar Registrar
	validator *validator.Validate
}

func NewHandler(service *Service, registrar Registrar) *Handler {
	return &Handler{
		service:   service,
		registrar: registrar,
		validator: core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/users", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.ListUsers)
		r.Post("/", h.CreateUser)
		r.Get("/me", h.GetMe)
		r.Put("/me", h.UpdateMe)
		r.Get("/{userID}", h.GetUser)
		r.Put("/{userID}", h.UpdateUser)
		r.Put("/{userID}/role", h.UpdateUserRole)
		r.Delete("/{userID}", h.DeleteUser)
	})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	params := ListUsersParams{
		PageParams: core.PageFromRequest(r),
		Search:     r.URL.Query().Get("search"),
		Role:       policy.Role(r.URL.Query().Get("role")),
	}

	users, total, err := h.service.ListUsers(r.Context(), claim, params)
	if err != nil {
		core.HandleError(w, r, err, "user")
		return
	}

	core.Paginated(w, ToUserResponseList(users), params.Page, params.PageSize, total)
}

// CreateUser lets an admin create an account of any role.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	if err := policy.Authorize(claim, policy.ResourceUser, policy.ActionCreate, policy.Target{}); err != nil {
		core.HandleError(w, r, err, "user")
		return
	}

	var req CreateUserRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	info, err := h.registrar.RegisterAccount(
		r.Context(),
		req.Username,
		req.Email,
		req.Password,
		req.Role,
	)
	if err != nil {
		core.HandleError(w, r, err, "user")
		return
	}

	user, err := h.service.GetUser(r.Context(), claim, info.ID)
	if err != nil {
		core.HandleError(w, r, err, "user")
		return
	}

	core.Created(w, ToUserResponse(user))
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	user, err := h.service.GetUser(r.Context(), claim, claim.UserID)
	if err != nil {
		core.HandleError(w, r, err, "user")
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	h.update(w, r, claim, claim.UserID)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	user, err := h.service.GetUser(r.Context(), claim, chi.URLParam(r, "userID"))
	if err != nil {
		core.HandleError(w, r, err, "user")
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	h.update(w, r, claim, chi.URLParam(r, "userID"))
}

func (h *Handler) update(
	w http.ResponseWriter,
	r *http.Request,
	claim policy.Claim,
	userID string,
) {
	var req UpdateUserRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	user, err := h.service.UpdateUser(r.Context(), claim, userID, req)
	if err != nil {
		core.HandleError(w, r, err, "user")
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	var req UpdateUserRoleRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	user, err := h.service.ChangeRole(
		r.Context(),
		claim,
		chi.URLParam(r, "userID"),
		req.Role,
	)
	if err != nil {
		core.HandleError(w, r, err, "user")
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	if err := h.service.DeleteUser(r.Context(), claim, chi.URLParam(r, "userID")); err != nil {
		core.HandleError(w, r, err, "user")
		return
	}

	core.NoContent(w)
}

// AngelaMos | 2026
// handler.go

package plan

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
	"github.com/carterperez-dev/templates/isp-backend/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

// RegisterRoutes mounts /plans. Reads are public; writes need a token.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/plans", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{planID}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Post("/", h.Create)
			r.Put("/{planID}", h.Update)
			r.Delete("/{planID}", h.Delete)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.List(r.Context(), core.ParseBoolQuery(r, "active_only", true))
	if err != nil {
		core.HandleError(w, r, err, "plan")
		return
	}

	core.OK(w, ToPlanResponseList(plans))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "planID"))
	if err != nil {
		core.HandleError(w, r, err, "plan")
		return
	}

	core.OK(w, ToPlanResponse(p))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	var req CreatePlanRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	p, err := h.service.Create(r.Context(), claim, req)
	if err != nil {
		core.HandleError(w, r, err, "plan")
		return
	}

	core.Created(w, ToPlanResponse(p))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	var req UpdatePlanRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	p, err := h.service.Update(r.Context(), claim, chi.URLParam(r, "planID"), req)
	if err != nil {
		core.HandleError(w, r, err, "plan")
		return
	}

	core.OK(w, ToPlanResponse(p))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	if err := h.service.Delete(r.Context(), claim, chi.URLParam(r, "planID")); err != nil {
		core.HandleError(w, r, err, "plan")
		return
	}

	core.NoContent(w)
}

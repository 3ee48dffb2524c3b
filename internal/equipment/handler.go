// AngelaMos | 2026
// handler.go

package equipment

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
	"github.com/carterperez-dev/templates/isp-backend/internal/middleware"
)

const resource = "equipment"

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

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/equipment", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{equipmentID}", h.Get)
		r.Put("/{equipmentID}", h.Update)
		r.Delete("/{equipmentID}", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	q := r.URL.Query()
	params := ListEquipmentParams{
		PageParams: core.PageFromRequest(r),
		CustomerID: q.Get("customer_id"),
		Type:       q.Get("type"),
		Status:     Status(q.Get("status")),
	}

	items, total, err := h.service.List(r.Context(), claim, params)
	if err != nil {
		core.HandleError(w, r, err, resource)
		return
	}

	core.Paginated(w, ToEquipmentResponseList(items), params.Page, params.PageSize, total)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	var req CreateEquipmentRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	e, err := h.service.Create(r.Context(), claim, req)
	if err != nil {
		core.HandleError(w, r, err, resource)
		return
	}

	core.Created(w, ToEquipmentResponse(e))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	e, err := h.service.Get(r.Context(), claim, chi.URLParam(r, "equipmentID"))
	if err != nil {
		core.HandleError(w, r, err, resource)
		return
	}

	core.OK(w, ToEquipmentResponse(e))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	var req UpdateEquipmentRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	e, err := h.service.Update(r.Context(), claim, chi.URLParam(r, "equipmentID"), req)
	if err != nil {
		core.HandleError(w, r, err, resource)
		return
	}

	core.OK(w, ToEquipmentResponse(e))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	if err := h.service.Delete(r.Context(), claim, chi.URLParam(r, "equipmentID")); err != nil {
		core.HandleError(w, r, err, resource)
		return
	}

	core.NoContent(w)
}

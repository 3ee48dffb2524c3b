// AngelaMos | 2026
// handler.go

package network

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
	"github.com/carterperez-dev/templates/isp-backend/internal/middleware"
)

const resource = "network node"

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
	r.Route("/network-nodes", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{nodeID}", h.Get)
		r.Put("/{nodeID}", h.Update)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	params := ListNodesParams{
		PageParams: core.PageFromRequest(r),
		Status:     Status(r.URL.Query().Get("status")),
	}

	nodes, total, err := h.service.List(r.Context(), claim, params)
	if err != nil {
		core.HandleError(w, r, err, resource)
		return
	}

	core.Paginated(w, ToNodeResponseList(nodes), params.Page, params.PageSize, total)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	var req CreateNodeRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	n, err := h.service.Create(r.Context(), claim, req)
	if err != nil {
		core.HandleError(w, r, err, resource)
		return
	}

	core.Created(w, ToNodeResponse(n))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	n, err := h.service.Get(r.Context(), claim, chi.URLParam(r, "nodeID"))
	if err != nil {
		core.HandleError(w, r, err, resource)
		return
	}

	core.OK(w, ToNodeResponse(n))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	var req UpdateNodeRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	n, err := h.service.Update(r.Context(), claim, chi.URLParam(r, "nodeID"), req)
	if err != nil {
		core.HandleError(w, r, err, resource)
		return
	}

	core.OK(w, ToNodeResponse(n))
}

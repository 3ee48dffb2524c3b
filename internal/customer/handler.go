// AngelaMos | 2026
// handler.go

package customer

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

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/customers", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/me", h.GetMe)
		r.Get("/{customerID}", h.Get)
		r.Put("/{customerID}", h.Update)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	params := ListCustomersParams{
		PageParams: core.PageFromRequest(r),
		Search:     r.URL.Query().Get("search"),
	}

	customers, total, err := h.service.List(r.Context(), claim, params)
	if err != nil {
		core.HandleError(w, r, err, "customer")
		return
	}

	core.Paginated(w, ToCustomerResponseList(customers), params.Page, params.PageSize, total)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	var req CreateCustomerRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	c, err := h.service.Create(r.Context(), claim, req)
	if err != nil {
		core.HandleError(w, r, err, "customer")
		return
	}

	core.Created(w, ToCustomerResponse(c))
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	c, err := h.service.Me(r.Context(), claim)
	if err != nil {
		core.HandleError(w, r, err, "customer profile")
		return
	}

	core.OK(w, ToCustomerResponse(c))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	c, err := h.service.Get(r.Context(), claim, chi.URLParam(r, "customerID"))
	if err != nil {
		core.HandleError(w, r, err, "customer")
		return
	}

	core.OK(w, ToCustomerResponse(c))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	var req UpdateCustomerRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	c, err := h.service.Update(r.Context(), claim, chi.URLParam(r, "customerID"), req)
	if err != nil {
		core.HandleError(w, r, err, "customer")
		return
	}

	core.OK(w, ToCustomerResponse(c))
}

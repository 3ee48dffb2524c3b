// AngelaMos | 2026
// handler.go

package subscription

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
	"github.com/carterperez-dev/templates/isp-backend/internal/middleware"
)

const resource = "subscription"

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
	r.Route("/subscriptions", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{subscriptionID}", h.Get)
		r.Put("/{subscriptionID}", h.Update)
		r.Put("/{subscriptionID}/status", h.UpdateStatus)
		r.Patch("/{subscriptionID}/status", h.UpdateStatus)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	q := r.URL.Query()
	params := ListSubscriptionsParams{
		PageParams: core.PageFromRequest(r),
		Status:     Status(q.Get("status")),
		CustomerID: q.Get("customer_id"),
		PlanID:     q.Get("plan_id"),
	}

	subs, total, err := h.service.List(r.Context(), claim, params)
	if err != nil {
		core.HandleError(w, r, err, resource)
		return
	}

	core.Paginated(w, ToSubscriptionResponseList(subs), params.Page, params.PageSize, total)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	var req CreateSubscriptionRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	sub, err := h.service.Create(r.Context(), claim, req)
	if err != nil {
		core.HandleError(w, r, err, resource)
		return
	}

	core.Created(w, ToSubscriptionResponse(sub))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	sub, err := h.service.Get(r.Context(), claim, chi.URLParam(r, "subscriptionID"))
	if err != nil {
		core.HandleError(w, r, err, resource)
		return
	}

	core.OK(w, ToSubscriptionResponse(sub))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	var req UpdateSubscriptionRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	sub, err := h.service.Update(r.Context(), claim, chi.URLParam(r, "subscriptionID"), req)
	if err != nil {
		core.HandleError(w, r, err, resource)
		return
	}

	core.OK(w, ToSubscriptionResponse(sub))
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	var req UpdateStatusRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	sub, err := h.service.UpdateStatus(r.Context(), claim, chi.URLParam(r, "subscriptionID"), req.Status)
	if err != nil {
		core.HandleError(w, r, err, resource)
		return
	}

	core.OK(w, ToSubscriptionResponse(sub))
}

// AngelaMos | 2026
// handler.go

package ticket

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
	r.Route("/tickets", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{ticketID}", h.Get)
		r.Put("/{ticketID}", h.Update)
		r.Patch("/{ticketID}/status", h.UpdateStatus)
		r.Put("/{ticketID}/assign", h.Assign)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	q := r.URL.Query()
	params := ListTicketsParams{
		PageParams: core.PageFromRequest(r),
		Status:     Status(q.Get("status")),
		Priority:   Priority(q.Get("priority")),
		CustomerID: q.Get("customer_id"),
	}

	tickets, total, err := h.service.List(r.Context(), claim, params)
	if err != nil {
		core.HandleError(w, r, err, "ticket")
		return
	}

	core.Paginated(w, ToTicketResponseList(tickets), params.Page, params.PageSize, total)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	var req CreateTicketRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	t, err := h.service.Create(r.Context(), claim, req)
	if err != nil {
		core.HandleError(w, r, err, "ticket")
		return
	}

	core.Created(w, ToTicketResponse(t))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	t, err := h.service.Get(r.Context(), claim, chi.URLParam(r, "ticketID"))
	if err != nil {
		core.HandleError(w, r, err, "ticket")
		return
	}

	core.OK(w, ToTicketResponse(t))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	var req UpdateTicketRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	t, err := h.service.Update(r.Context(), claim, chi.URLParam(r, "ticketID"), req)
	if err != nil {
		core.HandleError(w, r, err, "ticket")
		return
	}

	core.OK(w, ToTicketResponse(t))
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

	t, err := h.service.UpdateStatus(r.Context(), claim, chi.URLParam(r, "ticketID"), req.Status)
	if err != nil {
		core.HandleError(w, r, err, "ticket")
		return
	}

	core.OK(w, ToTicketResponse(t))
}

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	var req AssignRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	t, err := h.service.Assign(r.Context(), claim, chi.URLParam(r, "ticketID"), req.AssignedTo)
	if err != nil {
		core.HandleError(w, r, err, "ticket")
		return
	}

	core.OK(w, ToTicketResponse(t))
}

// AngelaMos | 2026
// handler.go

package payment

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
	"github.com/carterperez-dev/templates/isp-backend/internal/middleware"
)

var ErrPaymentDeclined = errors.New("payment declined")

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
	r.Route("/payments", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Post("/", h.Record)
		r.Post("/process", h.Process)
		r.Get("/{paymentID}", h.Get)
	})
}

func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	var req RecordPaymentRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	p, err := h.service.Record(r.Context(), claim, req)
	if err != nil {
		core.HandleError(w, r, err, "payment")
		return
	}

	core.Created(w, ToPaymentResponse(p))
}

// Process answers 201 for an approved charge and 402 for a declined one.
// Both carry the written payment.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	var req ProcessPaymentRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	p, approved, err := h.service.Process(r.Context(), claim, req)
	if err != nil {
		core.HandleError(w, r, err, "payment")
		return
	}

	resp := ProcessResponse{Payment: ToPaymentResponse(p), Success: approved}
	if !approved {
		core.JSONError(w, core.NewAppError(
			ErrPaymentDeclined,
			"payment failed",
			http.StatusPaymentRequired,
			"PAYMENT_FAILED",
		).WithDetails(map[string]any{"payment": resp.Payment}))
		return
	}

	core.Created(w, resp)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	p, err := h.service.Get(r.Context(), claim, chi.URLParam(r, "paymentID"))
	if err != nil {
		core.HandleError(w, r, err, "payment")
		return
	}

	core.OK(w, ToPaymentResponse(p))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	q := r.URL.Query()
	params := ListPaymentsParams{
		PageParams:     core.PageFromRequest(r),
		Status:         Status(q.Get("status")),
		SubscriptionID: q.Get("subscription_id"),
		CustomerID:     q.Get("customer_id"),
	}

	payments, total, err := h.service.List(r.Context(), claim, params)
	if err != nil {
		core.HandleError(w, r, err, "payment")
		return
	}

	core.Paginated(w, ToPaymentResponseList(payments), params.Page, params.PageSize, total)
}

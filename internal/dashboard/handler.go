// AngelaMos | 2026
// handler.go

package dashboard

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
	"github.com/carterperez-dev/templates/isp-backend/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/stats", h.GetStats)
		r.Get("/recent-activity", h.GetRecentActivity)
	})
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	stats, err := h.service.Stats(r.Context(), claim)
	if err != nil {
		core.HandleError(w, r, err, "dashboard")
		return
	}

	core.OK(w, stats)
}

func (h *Handler) GetRecentActivity(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.GetClaim(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	activity, err := h.service.RecentActivity(r.Context(), claim)
	if err != nil {
		core.HandleError(w, r, err, "dashboard")
		return
	}

	core.OK(w, activity)
}

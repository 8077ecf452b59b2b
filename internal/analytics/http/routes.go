package analytichttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/pulseboard/pulseboard/internal/platform/httpx"
)

// MountRoutes registers the dashboard API onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.RespondError(w, httpx.ErrTooManyRequests)
		}),
	)

	r.Route("/api", func(api chi.Router) {
		api.Get("/dashboard", h.handleDashboard)
		api.Get("/dashboard/state", h.handleDashboardState)
		api.Get("/campaigns", h.handleCampaigns)

		api.Get("/filters/options", h.handleFilterOptions)
		api.Post("/filters/apply", h.handleFilterApply)
		api.Post("/filters/remove", h.handleFilterRemove)
		api.Post("/filters/clear", h.handleFilterClear)

		api.Get("/exports/options", h.handleExportOptions)
		api.Get("/exports/{id}", h.handleExportStatus)

		api.Group(func(gr chi.Router) {
			gr.Use(limiter)
			gr.Post("/dashboard/refresh", h.handleRefresh)
			gr.Post("/exports", h.handleExportCreate)
		})
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}

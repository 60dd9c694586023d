package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/salesai/api-server-go/internal/middleware"
	"github.com/salesai/api-server-go/internal/service"
)

type DashboardHandler struct {
	statsService *service.StatsService
	auth         *middleware.AuthMiddleware
}

func NewDashboardHandler(statsService *service.StatsService, auth *middleware.AuthMiddleware) *DashboardHandler {
	return &DashboardHandler{statsService: statsService, auth: auth}
}

func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.auth.Optional)

	r.Get("/stats", h.Stats)
	r.Get("/recent-sessions", h.RecentSessions)

	return r
}

// Stats never fails the dashboard: demo visitors and backend errors both get
// the safe demo payload.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity.IsDemo() {
		writeJSON(w, http.StatusOK, service.DemoStats())
		return
	}

	stats, err := h.statsService.Dashboard(r.Context(), identity.AuthID)
	if err != nil {
		log.Error().Err(err).Str("authId", identity.AuthID).Msg("dashboard stats failed, serving demo payload")
		writeJSON(w, http.StatusOK, service.DemoStats())
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *DashboardHandler) RecentSessions(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity.IsDemo() {
		writeJSON(w, http.StatusOK, map[string]any{
			"sessions": service.DemoRecentSessions(time.Now()),
		})
		return
	}

	limit := ParsePagination(r).Limit

	sessions, err := h.statsService.RecentSessions(r.Context(), identity.AuthID, limit)
	if err != nil {
		log.Error().Err(err).Str("authId", identity.AuthID).Msg("recent sessions failed, serving empty list")
		writeJSON(w, http.StatusOK, map[string]any{"sessions": []service.RecentSession{}})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

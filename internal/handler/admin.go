package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/salesai/api-server-go/internal/httputil"
	"github.com/salesai/api-server-go/internal/middleware"
	"github.com/salesai/api-server-go/internal/service"
)

type AdminHandler struct {
	exportService *service.ExportService
	adminToken    string
}

func NewAdminHandler(exportService *service.ExportService, adminToken string) *AdminHandler {
	return &AdminHandler{exportService: exportService, adminToken: adminToken}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.AdminAuth(h.adminToken))

	r.Get("/usage/export", h.ExportUsage)

	return r
}

// ExportUsage streams the usage ledger for a period as a spreadsheet.
// Defaults to the current calendar month.
func (h *AdminHandler) ExportUsage(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 1, 0)

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "from must be YYYY-MM-DD"})
			return
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "to must be YYYY-MM-DD"})
			return
		}
		to = parsed
	}
	if !to.After(from) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "to must be after from"})
		return
	}

	data, filename, err := h.exportService.UsageWorkbook(r.Context(), from, to)
	if err != nil {
		log.Error().Err(err).Msg("usage export failed")
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

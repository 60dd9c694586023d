package handler

import (
	"net/http"
	"time"

	"github.com/salesai/api-server-go/internal/httputil"
	"github.com/salesai/api-server-go/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func formatSession(session *model.Session) map[string]any {
	return map[string]any{
		"id":                session.ID,
		"title":             session.Title,
		"status":            session.Status,
		"started_at":        session.StartedAt.Format(time.RFC3339),
		"ended_at":          formatTime(session.EndedAt),
		"processing_status": session.ProcessingStatus,
	}
}

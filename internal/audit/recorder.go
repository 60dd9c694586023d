package audit

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/salesai/api-server-go/internal/model"
	"github.com/salesai/api-server-go/internal/repository"
)

type EventType string

const (
	EventSession EventType = "session"
	EventBilling EventType = "billing"
)

type Event struct {
	Type      EventType
	UserID    string
	CompanyID *string
	Resource  string
	Action    string
	Details   map[string]any
}

// Recorder appends audit rows. Audit writes are best-effort: a failed append
// is logged and swallowed so it never fails the operation it describes.
type Recorder struct {
	repo repository.AuditLogRepository
}

func NewRecorder(repo repository.AuditLogRepository) *Recorder {
	return &Recorder{repo: repo}
}

func (r *Recorder) Record(ctx context.Context, event Event) {
	var details *json.RawMessage
	if len(event.Details) > 0 {
		raw, err := json.Marshal(event.Details)
		if err != nil {
			log.Error().Err(err).Str("action", event.Action).Msg("audit: marshal details")
		} else {
			msg := json.RawMessage(raw)
			details = &msg
		}
	}

	err := r.repo.Create(ctx, model.CreateAuditLogParams{
		UserID:    event.UserID,
		CompanyID: event.CompanyID,
		EventType: string(event.Type),
		Resource:  event.Resource,
		Action:    event.Action,
		Details:   details,
	})
	if err != nil {
		log.Error().Err(err).
			Str("event_type", string(event.Type)).
			Str("action", event.Action).
			Msg("audit: append failed")
		return
	}

	log.Info().
		Str("audit", string(event.Type)).
		Str("user_id", event.UserID).
		Str("resource", event.Resource).
		Str("action", event.Action).
		Msg("audit event")
}

package handler

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/salesai/api-server-go/internal/config"
	apperrors "github.com/salesai/api-server-go/internal/errors"
	"github.com/salesai/api-server-go/internal/httputil"
	"github.com/salesai/api-server-go/internal/middleware"
	"github.com/salesai/api-server-go/internal/service"
	"github.com/salesai/api-server-go/internal/storage"
)

type SessionHandler struct {
	sessionService *service.SessionService
	audioStore     *storage.AudioStore
	auth           *middleware.AuthMiddleware
	rateLimit      func(http.Handler) http.Handler
}

// rateLimit runs after auth so the limiter can key on the resolved identity;
// nil disables limiting (tests).
func NewSessionHandler(
	sessionService *service.SessionService,
	audioStore *storage.AudioStore,
	auth *middleware.AuthMiddleware,
	rateLimit func(http.Handler) http.Handler,
) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		audioStore:     audioStore,
		auth:           auth,
		rateLimit:      rateLimit,
	}
}

func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	// Create, end and analyze serve the public demo too; upload never does.
	r.Group(func(r chi.Router) {
		r.Use(h.auth.Optional)
		if h.rateLimit != nil {
			r.Use(h.rateLimit)
		}
		r.Post("/create", h.Create)
		r.Post("/end", h.End)
		r.Post("/{sessionID}/analyze", h.Analyze)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.auth.Require)
		if h.rateLimit != nil {
			r.Use(h.rateLimit)
		}
		r.Post("/{sessionID}/audio-upload", h.AudioUpload)
	})

	return r
}

type createSessionRequest struct {
	Title     string  `json:"title" validate:"required,min=1,max=255"`
	CompanyID *string `json:"company_id" validate:"omitempty,uuid"`
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		httputil.WriteError(w, appErr)
		return
	}

	identity := middleware.GetIdentity(r.Context())
	if identity.IsDemo() {
		writeJSON(w, http.StatusOK, map[string]any{
			"session": map[string]any{
				"id":                fmt.Sprintf("demo-session-%d", time.Now().UnixMilli()),
				"title":             req.Title,
				"status":            "active",
				"started_at":        time.Now().Format(time.RFC3339),
				"processing_status": "ready",
				"isDemo":            true,
			},
		})
		return
	}

	session, err := h.sessionService.Create(r.Context(), identity.AuthID, service.CreateSessionInput{
		Title:     req.Title,
		CompanyID: req.CompanyID,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session": formatSession(session),
	})
}

// demoScore stands in for the analysis score a real completion gets,
// drawn from 3.5 to 5.5 with one decimal.
func demoScore() float64 {
	return math.Round((rand.Float64()*2+3.5)*10) / 10
}

type endSessionRequest struct {
	SessionID       string           `json:"session_id" validate:"required"`
	DurationSeconds int              `json:"duration_seconds" validate:"required,gt=0"`
	AudioQuality    *json.RawMessage `json:"audio_quality"`
	AudioFileURL    *string          `json:"audio_file_url" validate:"omitempty,url"`
	AudioFileSize   *int64           `json:"audio_file_size" validate:"omitempty,gt=0"`
	Transcript      *string          `json:"transcript"`
}

func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	var req endSessionRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		httputil.WriteError(w, appErr)
		return
	}

	identity := middleware.GetIdentity(r.Context())
	if identity.IsDemo() {
		minutesUsed := service.MinutesForDuration(req.DurationSeconds)
		writeJSON(w, http.StatusOK, map[string]any{
			"session": map[string]any{
				"id":               req.SessionID,
				"status":           "completed",
				"ended_at":         time.Now().Format(time.RFC3339),
				"duration_seconds": req.DurationSeconds,
				"minute_cost":      0,
				"minutes_used":     minutesUsed,
				"score":            demoScore(),
				"isDemo":           true,
			},
		})
		return
	}

	result, err := h.sessionService.End(r.Context(), identity.AuthID, service.EndSessionInput{
		SessionID:       req.SessionID,
		DurationSeconds: req.DurationSeconds,
		AudioQuality:    req.AudioQuality,
		AudioFileURL:    req.AudioFileURL,
		AudioFileSize:   req.AudioFileSize,
		Transcript:      req.Transcript,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	session := result.Session
	writeJSON(w, http.StatusOK, map[string]any{
		"session": map[string]any{
			"id":                session.ID,
			"status":            session.Status,
			"ended_at":          formatTime(session.EndedAt),
			"duration_seconds":  session.DurationSeconds,
			"minute_cost":       session.MinuteCost,
			"minutes_used":      result.MinutesUsed,
			"processing_status": session.ProcessingStatus,
		},
	})
}

type analyzeRequest struct {
	Transcript []string `json:"transcript" validate:"required,min=1"`
}

func (h *SessionHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req analyzeRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		httputil.WriteError(w, appErr)
		return
	}

	identity := middleware.GetIdentity(r.Context())
	if identity.IsDemo() {
		// Demo analysis runs the analyzer without touching storage.
		report, err := h.sessionService.AnalyzeTranscript(r.Context(), req.Transcript)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
		return
	}

	report, err := h.sessionService.Analyze(r.Context(), identity.AuthID, sessionID, req.Transcript)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

type audioUploadRequest struct {
	ContentType string `json:"content_type" validate:"omitempty,max=100"`
}

func (h *SessionHandler) AudioUpload(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	identity := middleware.GetIdentity(r.Context())

	if h.audioStore == nil {
		httputil.WriteError(w, apperrors.NotConfigured("audio storage",
			"Set S3_BUCKET, S3_REGION, S3_ACCESS_KEY and S3_SECRET_KEY to enable recording uploads"))
		return
	}

	var req audioUploadRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		httputil.WriteError(w, appErr)
		return
	}

	if _, err := h.sessionService.VerifyOwnership(r.Context(), identity.AuthID, sessionID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	target, err := h.audioStore.PresignUpload(r.Context(), sessionID, req.ContentType, config.AudioUploadURLTTL)
	if err != nil {
		log.Error().Err(err).Str("sessionId", sessionID).Msg("failed to presign audio upload")
		httputil.WriteError(w, apperrors.External("storage", err))
		return
	}

	writeJSON(w, http.StatusOK, target)
}

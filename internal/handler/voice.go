package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/salesai/api-server-go/internal/config"
	apperrors "github.com/salesai/api-server-go/internal/errors"
	"github.com/salesai/api-server-go/internal/httputil"
	"github.com/salesai/api-server-go/internal/metrics"
	"github.com/salesai/api-server-go/internal/voice"
)

type VoiceHandler struct {
	cfg    *config.Config
	client *voice.Client
}

func NewVoiceHandler(cfg *config.Config, client *voice.Client) *VoiceHandler {
	return &VoiceHandler{cfg: cfg, client: client}
}

func (h *VoiceHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/signed-url", h.SignedURL)
	return r
}

// SignedURL hands the browser a short-lived websocket URL for the voice
// vendor. Misconfiguration is reported with setup guidance; vendor failures
// keep their original status code.
func (h *VoiceHandler) SignedURL(w http.ResponseWriter, r *http.Request) {
	if err := h.cfg.VoiceConfigured(); err != nil {
		metrics.SignedURLRequests.WithLabelValues("unconfigured").Inc()
		httputil.WriteError(w, apperrors.NotConfigured("voice",
			"Set ELEVENLABS_API_KEY and ELEVENLABS_AGENT_ID to real values: "+err.Error()))
		return
	}

	signed, err := h.client.GetSignedURL(r.Context())
	if err != nil {
		var vendorErr *voice.VendorError
		if errors.As(err, &vendorErr) {
			metrics.SignedURLRequests.WithLabelValues("vendor_error").Inc()
			log.Warn().Int("status", vendorErr.StatusCode).Str("body", vendorErr.Body).
				Msg("voice vendor rejected signed-url request")
			writeJSON(w, vendorErr.StatusCode, map[string]string{
				"error": "Voice service rejected the request",
			})
			return
		}

		metrics.SignedURLRequests.WithLabelValues("error").Inc()
		log.Error().Err(err).Msg("failed to fetch signed url")
		httputil.WriteError(w, err)
		return
	}

	metrics.SignedURLRequests.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, signed)
}

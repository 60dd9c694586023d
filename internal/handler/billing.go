package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/salesai/api-server-go/internal/httputil"
	"github.com/salesai/api-server-go/internal/middleware"
	"github.com/salesai/api-server-go/internal/model"
	"github.com/salesai/api-server-go/internal/service"
)

// Stripe caps event payloads well under this.
const maxWebhookBytes = int64(65536)

type BillingHandler struct {
	billingService *service.BillingService
	auth           *middleware.AuthMiddleware
	rateLimit      func(http.Handler) http.Handler
}

func NewBillingHandler(
	billingService *service.BillingService,
	auth *middleware.AuthMiddleware,
	rateLimit func(http.Handler) http.Handler,
) *BillingHandler {
	return &BillingHandler{billingService: billingService, auth: auth, rateLimit: rateLimit}
}

func (h *BillingHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(h.auth.Optional)
		r.Get("/subscription", h.Subscription)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.auth.Require)
		if h.rateLimit != nil {
			r.Use(h.rateLimit)
		}
		r.Post("/checkout", h.CreateCheckout)
	})

	// Stripe signs the raw body; no auth middleware here.
	r.Post("/webhook", h.Webhook)

	return r
}

func (h *BillingHandler) Subscription(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity.IsDemo() {
		writeJSON(w, http.StatusOK, map[string]any{
			"tier":         string(model.TierStarter),
			"status":       "active",
			"minutesLimit": model.MinutesForTier(model.TierStarter),
			"minutesUsed":  0,
			"isDemo":       true,
		})
		return
	}

	view, err := h.billingService.Subscription(r.Context(), identity.AuthID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

type checkoutRequest struct {
	Tier string `json:"tier" validate:"required,oneof=professional team enterprise"`
}

func (h *BillingHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if appErr := decodeAndValidate(r, &req); appErr != nil {
		httputil.WriteError(w, appErr)
		return
	}

	identity := middleware.GetIdentity(r.Context())
	url, err := h.billingService.CreateCheckout(r.Context(), identity.AuthID, req.Tier)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid payload"})
		return
	}

	if err := h.billingService.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		log.Warn().Err(err).Msg("stripe webhook rejected")
		httputil.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

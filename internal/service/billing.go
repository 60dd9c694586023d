package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/salesai/api-server-go/internal/audit"
	"github.com/salesai/api-server-go/internal/config"
	apperrors "github.com/salesai/api-server-go/internal/errors"
	"github.com/salesai/api-server-go/internal/model"
	"github.com/salesai/api-server-go/internal/repository"
)

// SubscriptionView is the billing summary returned to the dashboard.
type SubscriptionView struct {
	Tier               string    `json:"tier"`
	Status             string    `json:"status"`
	MinutesLimit       int       `json:"minutesLimit"`
	MinutesUsed        int       `json:"minutesUsed"`
	MinutesRemaining   int       `json:"minutesRemaining"`
	CurrentPeriodStart time.Time `json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time `json:"currentPeriodEnd"`
}

type BillingService struct {
	cfg              *config.Config
	profileRepo      repository.ProfileRepository
	subscriptionRepo repository.SubscriptionRepository
	auditor          *audit.Recorder
}

func NewBillingService(
	cfg *config.Config,
	profileRepo repository.ProfileRepository,
	subscriptionRepo repository.SubscriptionRepository,
	auditor *audit.Recorder,
) *BillingService {
	stripe.Key = cfg.StripeSecretKey
	return &BillingService{
		cfg:              cfg,
		profileRepo:      profileRepo,
		subscriptionRepo: subscriptionRepo,
		auditor:          auditor,
	}
}

// Subscription returns the caller's current billing state. Profiles with no
// subscription row are reported on the free starter tier.
func (s *BillingService) Subscription(ctx context.Context, authID string) (*SubscriptionView, error) {
	profile, err := s.profileRepo.FindByAuthID(ctx, authID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if profile == nil {
		return nil, apperrors.NotFound("User profile")
	}

	subscription, err := s.subscriptionRepo.FindActiveByProfile(ctx, profile.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if subscription == nil {
		now := time.Now()
		return &SubscriptionView{
			Tier:               string(model.TierStarter),
			Status:             string(model.SubscriptionStatusActive),
			MinutesLimit:       model.MinutesForTier(model.TierStarter),
			CurrentPeriodStart: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()),
			CurrentPeriodEnd:   time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0),
			MinutesRemaining:   model.MinutesForTier(model.TierStarter),
		}, nil
	}

	return &SubscriptionView{
		Tier:               string(subscription.Tier),
		Status:             string(subscription.Status),
		MinutesLimit:       subscription.MinutesLimit,
		MinutesUsed:        subscription.MinutesUsed,
		MinutesRemaining:   subscription.MinutesRemaining(),
		CurrentPeriodStart: subscription.CurrentPeriodStart,
		CurrentPeriodEnd:   subscription.CurrentPeriodEnd,
	}, nil
}

// ensureCustomer finds or creates the Stripe customer for a profile and
// stores the mapping. The auth id travels as metadata so support can trace a
// customer back to an account.
func (s *BillingService) ensureCustomer(ctx context.Context, profile *model.Profile) (string, error) {
	if profile.StripeCustomerID != nil && *profile.StripeCustomerID != "" {
		return *profile.StripeCustomerID, nil
	}

	params := &stripe.CustomerParams{
		Metadata: map[string]string{
			"auth_id": profile.AuthID,
		},
	}
	cust, err := customer.New(params)
	if err != nil {
		return "", apperrors.External("stripe", err)
	}

	if err := s.profileRepo.SetStripeCustomerID(ctx, profile.ID, cust.ID); err != nil {
		return "", apperrors.Database(err)
	}
	return cust.ID, nil
}

// CreateCheckout starts a Stripe Checkout session for a paid tier and returns
// the hosted payment page URL.
func (s *BillingService) CreateCheckout(ctx context.Context, authID string, tier string) (string, error) {
	if err := s.cfg.BillingConfigured(); err != nil {
		return "", apperrors.NotConfigured("billing", err.Error())
	}

	priceID := s.cfg.PriceForTier(tier)
	if priceID == "" {
		return "", apperrors.InvalidInput("tier", "no purchasable plan with that name")
	}

	profile, err := s.profileRepo.FindByAuthID(ctx, authID)
	if err != nil {
		return "", apperrors.Database(err)
	}
	if profile == nil {
		return "", apperrors.NotFound("User profile")
	}

	customerID, err := s.ensureCustomer(ctx, profile)
	if err != nil {
		return "", err
	}

	frontendURL := strings.TrimRight(s.cfg.FrontendBaseURL, "/")
	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(frontendURL + "/billing/success"),
		CancelURL:  stripe.String(frontendURL + "/billing/cancel"),
		// The completed-checkout webhook reads the tier back from here;
		// the session payload does not carry expanded line items.
		Metadata: map[string]string{
			"tier": tier,
		},
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", apperrors.External("stripe", err)
	}

	s.auditor.Record(ctx, audit.Event{
		Type:      audit.EventBilling,
		UserID:    authID,
		CompanyID: profile.CompanyID,
		Resource:  "subscriptions",
		Action:    "checkout_started",
		Details: map[string]any{
			"tier":     tier,
			"customer": customerID,
		},
	})

	return sess.URL, nil
}

// HandleWebhook verifies and applies a Stripe event. Unrecognized event types
// are acknowledged and ignored so Stripe does not retry them forever.
func (s *BillingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.cfg.StripeWebhookSecret == "" {
		return apperrors.NotConfigured("billing", "STRIPE_WEBHOOK_SECRET is not set")
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.cfg.StripeWebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "Webhook signature verification failed").WithCause(err)
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return apperrors.New(apperrors.ErrCodeInvalidInput, "Invalid checkout session payload").WithCause(err)
		}
		return s.applyCheckoutCompleted(ctx, &sess)

	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return apperrors.New(apperrors.ErrCodeInvalidInput, "Invalid subscription payload").WithCause(err)
		}
		return s.applySubscriptionState(ctx, &sub)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return apperrors.New(apperrors.ErrCodeInvalidInput, "Invalid subscription payload").WithCause(err)
		}
		return s.applySubscriptionCanceled(ctx, &sub)

	default:
		log.Debug().Str("type", string(event.Type)).Msg("ignoring stripe event")
		return nil
	}
}

func (s *BillingService) applyCheckoutCompleted(ctx context.Context, sess *stripe.CheckoutSession) error {
	if sess.Customer == nil || sess.Customer.ID == "" {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "Checkout session has no customer")
	}

	profile, err := s.profileRepo.FindByStripeCustomerID(ctx, sess.Customer.ID)
	if err != nil {
		return apperrors.Database(err)
	}
	if profile == nil {
		// An unknown customer usually means a test-mode event hit prod.
		log.Warn().Str("customer", sess.Customer.ID).Msg("checkout completed for unknown customer")
		return nil
	}

	var stripeSubID *string
	if sess.Subscription != nil && sess.Subscription.ID != "" {
		stripeSubID = &sess.Subscription.ID
	}

	tier := checkoutTier(sess)
	now := time.Now()
	_, err = s.subscriptionRepo.Upsert(ctx, model.UpsertSubscriptionParams{
		ProfileID:            profile.ID,
		CompanyID:            profile.CompanyID,
		Tier:                 tier,
		Status:               model.SubscriptionStatusActive,
		MinutesLimit:         model.MinutesForTier(tier),
		CurrentPeriodStart:   now,
		CurrentPeriodEnd:     now.AddDate(0, 1, 0),
		StripeSubscriptionID: stripeSubID,
	})
	if err != nil {
		return apperrors.Database(err)
	}

	s.auditor.Record(ctx, audit.Event{
		Type:      audit.EventBilling,
		UserID:    profile.AuthID,
		CompanyID: profile.CompanyID,
		Resource:  "subscriptions",
		Action:    "checkout_completed",
		Details:   map[string]any{"customer": sess.Customer.ID},
	})
	return nil
}

// checkoutTier recovers the purchased tier from the metadata attached in
// CreateCheckout. Sessions created elsewhere (or before metadata was added)
// fall back to professional and get corrected by the next subscription event.
func checkoutTier(sess *stripe.CheckoutSession) model.SubscriptionTier {
	tier := model.SubscriptionTier(sess.Metadata["tier"])
	if _, ok := model.TierMinutes[tier]; ok && tier != model.TierStarter {
		return tier
	}
	if sess.Metadata["tier"] != "" {
		log.Warn().Str("tier", sess.Metadata["tier"]).Msg("checkout session carries an unknown tier")
	}
	return model.TierProfessional
}

// applySubscriptionState syncs tier, status and billing period from Stripe's
// view of the subscription.
func (s *BillingService) applySubscriptionState(ctx context.Context, sub *stripe.Subscription) error {
	if sub.Customer == nil || sub.Customer.ID == "" {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "Subscription has no customer")
	}

	profile, err := s.profileRepo.FindByStripeCustomerID(ctx, sub.Customer.ID)
	if err != nil {
		return apperrors.Database(err)
	}
	if profile == nil {
		log.Warn().Str("customer", sub.Customer.ID).Msg("subscription update for unknown customer")
		return nil
	}

	priceID := ""
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		priceID = sub.Items.Data[0].Price.ID
	}
	tier := model.SubscriptionTier(s.cfg.TierForPrice(priceID))

	status := model.SubscriptionStatusActive
	switch sub.Status {
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		status = model.SubscriptionStatusPastDue
	case stripe.SubscriptionStatusCanceled:
		status = model.SubscriptionStatusCanceled
	}

	subID := sub.ID
	_, err = s.subscriptionRepo.Upsert(ctx, model.UpsertSubscriptionParams{
		ProfileID:            profile.ID,
		CompanyID:            profile.CompanyID,
		Tier:                 tier,
		Status:               status,
		MinutesLimit:         model.MinutesForTier(tier),
		CurrentPeriodStart:   time.Unix(sub.CurrentPeriodStart, 0),
		CurrentPeriodEnd:     time.Unix(sub.CurrentPeriodEnd, 0),
		StripeSubscriptionID: &subID,
	})
	if err != nil {
		return apperrors.Database(err)
	}
	return nil
}

func (s *BillingService) applySubscriptionCanceled(ctx context.Context, sub *stripe.Subscription) error {
	existing, err := s.subscriptionRepo.FindByStripeSubscriptionID(ctx, sub.ID)
	if err != nil {
		return apperrors.Database(err)
	}
	if existing == nil {
		return nil
	}

	if err := s.subscriptionRepo.SetStatus(ctx, existing.ID, model.SubscriptionStatusCanceled); err != nil {
		return apperrors.Database(err)
	}

	log.Info().Str("subscriptionId", existing.ID).Msg("subscription canceled")
	return nil
}

package repository

import (
	"context"
	"github.com/jmoiron/sqlx"

	"github.com/salesai/api-server-go/internal/model"
)

type SubscriptionRepository interface {
	// FindActiveByProfile returns the most recent active subscription, if any.
	FindActiveByProfile(ctx context.Context, profileID string) (*model.Subscription, error)
	FindByStripeSubscriptionID(ctx context.Context, stripeSubID string) (*model.Subscription, error)
	// IncrementMinutesUsed adds minutes atomically in place; the counter never
	// goes through a read-then-write cycle in application code.
	IncrementMinutesUsed(ctx context.Context, id string, minutes int) error
	Upsert(ctx context.Context, params model.UpsertSubscriptionParams) (*model.Subscription, error)
	SetStatus(ctx context.Context, id string, status model.SubscriptionStatus) error
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) SubscriptionRepository
}

type subscriptionRepo struct {
	db queryer
}

func NewSubscriptionRepository(db *sqlx.DB) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

func (r *subscriptionRepo) WithTx(tx *sqlx.Tx) SubscriptionRepository {
	return &subscriptionRepo{db: tx}
}

func (r *subscriptionRepo) FindActiveByProfile(ctx context.Context, profileID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.GetContext(ctx, &sub, `
		SELECT * FROM subscriptions
		WHERE profile_id = $1 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1
	`, profileID)
	return HandleNotFound(&sub, err)
}

func (r *subscriptionRepo) FindByStripeSubscriptionID(ctx context.Context, stripeSubID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.GetContext(ctx, &sub, `
		SELECT * FROM subscriptions WHERE stripe_subscription_id = $1
	`, stripeSubID)
	return HandleNotFound(&sub, err)
}

func (r *subscriptionRepo) IncrementMinutesUsed(ctx context.Context, id string, minutes int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions SET
			minutes_used = minutes_used + $2,
			updated_at = NOW()
		WHERE id = $1
	`, id, minutes)
	return err
}

func (r *subscriptionRepo) Upsert(ctx context.Context, params model.UpsertSubscriptionParams) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.GetContext(ctx, &sub, `
		INSERT INTO subscriptions (
			profile_id, company_id, tier, status, minutes_limit,
			current_period_start, current_period_end, stripe_subscription_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (stripe_subscription_id) DO UPDATE SET
			tier = EXCLUDED.tier,
			status = EXCLUDED.status,
			minutes_limit = EXCLUDED.minutes_limit,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end = EXCLUDED.current_period_end,
			updated_at = NOW()
		RETURNING *
	`, params.ProfileID, params.CompanyID, params.Tier, params.Status, params.MinutesLimit,
		params.CurrentPeriodStart, params.CurrentPeriodEnd, params.StripeSubscriptionID)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepo) SetStatus(ctx context.Context, id string, status model.SubscriptionStatus) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions SET
			status = $2,
			updated_at = NOW()
		WHERE id = $1
	`, id, status)
	return err
}

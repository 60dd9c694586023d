package model

import "time"

// Subscription is the active billing record for a profile. MinutesUsed is
// monotonically non-decreasing within a billing period.
type Subscription struct {
	ID                   string             `db:"id" json:"id"`
	ProfileID            string             `db:"profile_id" json:"profileId"`
	CompanyID            *string            `db:"company_id" json:"companyId,omitempty"`
	Tier                 SubscriptionTier   `db:"tier" json:"tier"`
	Status               SubscriptionStatus `db:"status" json:"status"`
	MinutesLimit         int                `db:"minutes_limit" json:"minutesLimit"`
	MinutesUsed          int                `db:"minutes_used" json:"minutesUsed"`
	CurrentPeriodStart   time.Time          `db:"current_period_start" json:"currentPeriodStart"`
	CurrentPeriodEnd     time.Time          `db:"current_period_end" json:"currentPeriodEnd"`
	StripeSubscriptionID *string            `db:"stripe_subscription_id" json:"-"`
	CreatedAt            time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time          `db:"updated_at" json:"updatedAt"`
}

// MinutesRemaining returns the unused allowance, floored at zero.
func (s *Subscription) MinutesRemaining() int {
	remaining := s.MinutesLimit - s.MinutesUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// LimitReached reports whether the allowance is exhausted.
func (s *Subscription) LimitReached() bool {
	return s.MinutesUsed >= s.MinutesLimit
}

type UpsertSubscriptionParams struct {
	ProfileID            string
	CompanyID            *string
	Tier                 SubscriptionTier
	Status               SubscriptionStatus
	MinutesLimit         int
	CurrentPeriodStart   time.Time
	CurrentPeriodEnd     time.Time
	StripeSubscriptionID *string
}

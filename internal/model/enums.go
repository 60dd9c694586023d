package model

type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusAbandoned SessionStatus = "abandoned"
)

type ProcessingStatus string

const (
	ProcessingStatusReady     ProcessingStatus = "ready"
	ProcessingStatusAnalyzing ProcessingStatus = "analyzing"
	ProcessingStatusCompleted ProcessingStatus = "completed"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

type SubscriptionTier string

const (
	TierStarter      SubscriptionTier = "starter"
	TierProfessional SubscriptionTier = "professional"
	TierTeam         SubscriptionTier = "team"
	TierEnterprise   SubscriptionTier = "enterprise"
)

// TierMinutes maps a subscription tier to its monthly minute allowance.
var TierMinutes = map[SubscriptionTier]int{
	TierStarter:      100,
	TierProfessional: 500,
	TierTeam:         1500,
	TierEnterprise:   999999,
}

// MinutesForTier returns the monthly allowance for a tier, falling back
// to the starter allowance for unknown or empty tiers.
func MinutesForTier(tier SubscriptionTier) int {
	if minutes, ok := TierMinutes[tier]; ok {
		return minutes
	}
	return TierMinutes[TierStarter]
}

package model

import "time"

// UsageRecord is an immutable ledger entry written once per completed
// session. It is the audit trail for the subscription counter, not the
// source of truth for it.
type UsageRecord struct {
	ID          string    `db:"id" json:"id"`
	ProfileID   string    `db:"profile_id" json:"profileId"`
	CompanyID   *string   `db:"company_id" json:"companyId,omitempty"`
	SessionID   string    `db:"session_id" json:"sessionId"`
	MinutesUsed int       `db:"minutes_used" json:"minutesUsed"`
	PeriodStart time.Time `db:"period_start" json:"periodStart"`
	PeriodEnd   time.Time `db:"period_end" json:"periodEnd"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

type CreateUsageRecordParams struct {
	ProfileID   string
	CompanyID   *string
	SessionID   string
	MinutesUsed int
	PeriodStart time.Time
	PeriodEnd   time.Time
}

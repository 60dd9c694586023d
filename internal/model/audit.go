package model

import (
	"encoding/json"
	"time"
)

// AuditLog is an append-only record of a notable action.
type AuditLog struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"userId"`
	CompanyID *string          `db:"company_id" json:"companyId,omitempty"`
	EventType string           `db:"event_type" json:"eventType"`
	Resource  string           `db:"resource" json:"resource"`
	Action    string           `db:"action" json:"action"`
	Details   *json.RawMessage `db:"details" json:"details,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`
}

type CreateAuditLogParams struct {
	UserID    string
	CompanyID *string
	EventType string
	Resource  string
	Action    string
	Details   *json.RawMessage
}

package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/salesai/api-server-go/internal/model"
)

type AuditLogRepository interface {
	Create(ctx context.Context, params model.CreateAuditLogParams) error
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) AuditLogRepository
}

type auditLogRepo struct {
	db queryer
}

func NewAuditLogRepository(db *sqlx.DB) AuditLogRepository {
	return &auditLogRepo{db: db}
}

func (r *auditLogRepo) WithTx(tx *sqlx.Tx) AuditLogRepository {
	return &auditLogRepo{db: tx}
}

func (r *auditLogRepo) Create(ctx context.Context, params model.CreateAuditLogParams) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (user_id, company_id, event_type, resource, action, details)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, params.UserID, params.CompanyID, params.EventType, params.Resource, params.Action, params.Details)
	return err
}

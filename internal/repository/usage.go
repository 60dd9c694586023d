package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/salesai/api-server-go/internal/model"
)

type UsageRepository interface {
	Create(ctx context.Context, params model.CreateUsageRecordParams) (*model.UsageRecord, error)
	SumMinutesSince(ctx context.Context, profileID string, since time.Time) (int, error)
	ListByPeriod(ctx context.Context, from, to time.Time) ([]model.UsageRecord, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) UsageRepository
}

type usageRepo struct {
	db queryer
}

func NewUsageRepository(db *sqlx.DB) UsageRepository {
	return &usageRepo{db: db}
}

func (r *usageRepo) WithTx(tx *sqlx.Tx) UsageRepository {
	return &usageRepo{db: tx}
}

func (r *usageRepo) Create(ctx context.Context, params model.CreateUsageRecordParams) (*model.UsageRecord, error) {
	var record model.UsageRecord
	err := r.db.GetContext(ctx, &record, `
		INSERT INTO usage_records (profile_id, company_id, session_id, minutes_used, period_start, period_end)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, params.ProfileID, params.CompanyID, params.SessionID,
		params.MinutesUsed, params.PeriodStart, params.PeriodEnd)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *usageRepo) SumMinutesSince(ctx context.Context, profileID string, since time.Time) (int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(minutes_used), 0) FROM usage_records
		WHERE profile_id = $1 AND created_at >= $2
	`, profileID, since)
	return total, err
}

func (r *usageRepo) ListByPeriod(ctx context.Context, from, to time.Time) ([]model.UsageRecord, error) {
	records := []model.UsageRecord{}
	err := r.db.SelectContext(ctx, &records, `
		SELECT * FROM usage_records
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at
	`, from, to)
	if err != nil {
		return nil, err
	}
	return records, nil
}

package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/salesai/api-server-go/internal/model"
)

type SessionRepository interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// FindOwned returns the session only when it belongs to the given profile.
	// A session owned by someone else is indistinguishable from a missing one.
	FindOwned(ctx context.Context, id string, profileID string) (*model.Session, error)
	Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error)
	// Complete transitions an active session to completed. Returns nil when the
	// session is no longer active, so concurrent completions cannot double-bill.
	Complete(ctx context.Context, id string, params model.CompleteSessionParams) (*model.Session, error)
	SetAnalysis(ctx context.Context, id string, score float64, feedback string) error
	FindRecentByProfile(ctx context.Context, profileID string, limit int) ([]model.Session, error)
	CountCreatedSince(ctx context.Context, profileID string, since time.Time) (int, error)
	// CompletedScores returns score/day pairs for the most recent completed
	// sessions, newest first.
	CompletedScores(ctx context.Context, profileID string, limit int) ([]model.SessionScore, error)
	AbandonStale(ctx context.Context, olderThan time.Time) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) SessionRepository
}

type sessionRepo struct {
	db queryer
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) WithTx(tx *sqlx.Tx) SessionRepository {
	return &sessionRepo{db: tx}
}

func (r *sessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM sessions WHERE id = $1
	`, id)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) FindOwned(ctx context.Context, id string, profileID string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM sessions WHERE id = $1 AND profile_id = $2
	`, id, profileID)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO sessions (profile_id, company_id, title, status, processing_status)
		VALUES ($1, $2, $3, 'active', 'ready')
		RETURNING *
	`, params.ProfileID, params.CompanyID, params.Title)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) Complete(ctx context.Context, id string, params model.CompleteSessionParams) (*model.Session, error) {
	now := time.Now()
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		UPDATE sessions SET
			status = 'completed',
			processing_status = 'analyzing',
			ended_at = $2,
			duration_seconds = $3,
			minute_cost = $4,
			audio_quality = $5,
			audio_file_url = $6,
			audio_file_size = $7,
			transcript = $8,
			updated_at = $2
		WHERE id = $1 AND status = 'active'
		RETURNING *
	`, id, now, params.DurationSeconds, params.MinuteCost,
		params.AudioQuality, params.AudioFileURL, params.AudioFileSize, params.Transcript)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) SetAnalysis(ctx context.Context, id string, score float64, feedback string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET
			overall_score = $2,
			feedback_summary = $3,
			processing_status = 'completed',
			updated_at = $4
		WHERE id = $1
	`, id, score, feedback, time.Now())
	return err
}

func (r *sessionRepo) FindRecentByProfile(ctx context.Context, profileID string, limit int) ([]model.Session, error) {
	sessions := []model.Session{}
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT * FROM sessions
		WHERE profile_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, profileID, limit)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) CountCreatedSince(ctx context.Context, profileID string, since time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM sessions
		WHERE profile_id = $1 AND created_at >= $2
	`, profileID, since)
	return count, err
}

func (r *sessionRepo) CompletedScores(ctx context.Context, profileID string, limit int) ([]model.SessionScore, error) {
	scores := []model.SessionScore{}
	err := r.db.SelectContext(ctx, &scores, `
		SELECT overall_score, created_at FROM sessions
		WHERE profile_id = $1 AND status = 'completed'
		ORDER BY created_at DESC
		LIMIT $2
	`, profileID, limit)
	if err != nil {
		return nil, err
	}
	return scores, nil
}

func (r *sessionRepo) AbandonStale(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET
			status = 'abandoned',
			updated_at = NOW()
		WHERE status = 'active' AND started_at < $1
	`, olderThan)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

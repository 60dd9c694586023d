package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/salesai/api-server-go/internal/analysis"
	"github.com/salesai/api-server-go/internal/audit"
	"github.com/salesai/api-server-go/internal/config"
	"github.com/salesai/api-server-go/internal/database"
	apperrors "github.com/salesai/api-server-go/internal/errors"
	"github.com/salesai/api-server-go/internal/metrics"
	"github.com/salesai/api-server-go/internal/model"
	"github.com/salesai/api-server-go/internal/repository"
)

// MinutesForDuration converts an elapsed duration to billable minutes.
// Any partial minute counts as a full minute; clients computing costs must
// reproduce this exactly for billing parity.
func MinutesForDuration(durationSeconds int) int {
	return int(math.Ceil(float64(durationSeconds) / 60))
}

// CostForMinutes applies the fixed per-minute rate.
func CostForMinutes(minutes int) float64 {
	return float64(minutes) * config.PerMinuteRate
}

type CreateSessionInput struct {
	Title     string
	CompanyID *string
}

type EndSessionInput struct {
	SessionID       string
	DurationSeconds int
	AudioQuality    *json.RawMessage
	AudioFileURL    *string
	AudioFileSize   *int64
	Transcript      *string
}

type EndSessionResult struct {
	Session     *model.Session `json:"session"`
	MinutesUsed int            `json:"minutesUsed"`
}

type SessionService struct {
	sessionRepo      repository.SessionRepository
	profileRepo      repository.ProfileRepository
	subscriptionRepo repository.SubscriptionRepository
	usageRepo        repository.UsageRepository
	auditor          *audit.Recorder
	analyzer         analysis.Analyzer

	// runTx wraps the settlement in a database transaction. Tests swap
	// it for a pass-through.
	runTx func(ctx context.Context, fn database.TxFunc) error
}

func NewSessionService(
	db *database.DB,
	sessionRepo repository.SessionRepository,
	profileRepo repository.ProfileRepository,
	subscriptionRepo repository.SubscriptionRepository,
	usageRepo repository.UsageRepository,
	auditor *audit.Recorder,
	analyzer analysis.Analyzer,
) *SessionService {
	svc := &SessionService{
		sessionRepo:      sessionRepo,
		profileRepo:      profileRepo,
		subscriptionRepo: subscriptionRepo,
		usageRepo:        usageRepo,
		auditor:          auditor,
		analyzer:         analyzer,
	}
	if db != nil {
		svc.runTx = db.WithTx
	}
	return svc
}

func (s *SessionService) resolveProfile(ctx context.Context, authID string) (*model.Profile, error) {
	profile, err := s.profileRepo.FindByAuthID(ctx, authID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if profile == nil {
		return nil, apperrors.NotFound("User profile")
	}
	return profile, nil
}

// Create opens a new practice session. The minute allowance is checked only
// here, never mid-session.
func (s *SessionService) Create(ctx context.Context, authID string, input CreateSessionInput) (*model.Session, error) {
	profile, err := s.resolveProfile(ctx, authID)
	if err != nil {
		return nil, err
	}

	subscription, err := s.subscriptionRepo.FindActiveByProfile(ctx, profile.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if subscription != nil && subscription.LimitReached() {
		return nil, apperrors.LimitReached("Subscription minute limit reached. Please upgrade your plan.")
	}

	companyID := input.CompanyID
	if companyID == nil {
		companyID = profile.CompanyID
	}

	session, err := s.sessionRepo.Create(ctx, model.CreateSessionParams{
		ProfileID: profile.ID,
		CompanyID: companyID,
		Title:     input.Title,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeDatabase, "Failed to create session", err)
	}

	s.auditor.Record(ctx, audit.Event{
		Type:      audit.EventSession,
		UserID:    authID,
		CompanyID: profile.CompanyID,
		Resource:  "sessions",
		Action:    "create",
		Details: map[string]any{
			"session_id": session.ID,
			"title":      input.Title,
		},
	})
	metrics.SessionsCreated.Inc()

	log.Info().
		Str("sessionId", session.ID).
		Str("profileId", profile.ID).
		Msg("session created")

	return session, nil
}

// End completes an active session and settles usage against the subscription.
// The session update, the counter increment and the ledger insert commit or
// roll back together; the increment itself happens in place so concurrent
// completions for the same subscription cannot lose minutes.
func (s *SessionService) End(ctx context.Context, authID string, input EndSessionInput) (*EndSessionResult, error) {
	profile, err := s.resolveProfile(ctx, authID)
	if err != nil {
		return nil, err
	}

	session, err := s.sessionRepo.FindOwned(ctx, input.SessionID, profile.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}
	if session.Status != model.SessionStatusActive {
		return nil, apperrors.InvalidState("Session is not active")
	}

	minutesUsed := MinutesForDuration(input.DurationSeconds)
	minuteCost := CostForMinutes(minutesUsed)

	var completed *model.Session
	err = s.runTx(ctx, func(tx *sqlx.Tx) error {
		sessionRepo := s.sessionRepo.WithTx(tx)
		subscriptionRepo := s.subscriptionRepo.WithTx(tx)
		usageRepo := s.usageRepo.WithTx(tx)

		completed, err = sessionRepo.Complete(ctx, session.ID, model.CompleteSessionParams{
			DurationSeconds: input.DurationSeconds,
			MinuteCost:      minuteCost,
			AudioQuality:    input.AudioQuality,
			AudioFileURL:    input.AudioFileURL,
			AudioFileSize:   input.AudioFileSize,
			Transcript:      input.Transcript,
		})
		if err != nil {
			return fmt.Errorf("complete session: %w", err)
		}
		if completed == nil {
			// Lost the race with a concurrent completion.
			return apperrors.InvalidState("Session is not active")
		}

		subscription, err := subscriptionRepo.FindActiveByProfile(ctx, profile.ID)
		if err != nil {
			return fmt.Errorf("find subscription: %w", err)
		}
		if subscription == nil {
			// Sessions without a subscription still complete; nothing to bill.
			return nil
		}

		if err := subscriptionRepo.IncrementMinutesUsed(ctx, subscription.ID, minutesUsed); err != nil {
			return fmt.Errorf("increment minutes used: %w", err)
		}

		_, err = usageRepo.Create(ctx, model.CreateUsageRecordParams{
			ProfileID:   profile.ID,
			CompanyID:   profile.CompanyID,
			SessionID:   session.ID,
			MinutesUsed: minutesUsed,
			PeriodStart: subscription.CurrentPeriodStart,
			PeriodEnd:   subscription.CurrentPeriodEnd,
		})
		if err != nil {
			return fmt.Errorf("record usage: %w", err)
		}

		return nil
	})
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeDatabase, "Failed to complete session", err)
	}

	s.auditor.Record(ctx, audit.Event{
		Type:      audit.EventSession,
		UserID:    authID,
		CompanyID: profile.CompanyID,
		Resource:  "sessions",
		Action:    "complete",
		Details: map[string]any{
			"session_id":       session.ID,
			"duration_seconds": input.DurationSeconds,
			"minutes_used":     minutesUsed,
			"minute_cost":      minuteCost,
		},
	})
	metrics.SessionsCompleted.Inc()
	metrics.MinutesBilled.Add(float64(minutesUsed))

	log.Info().
		Str("sessionId", session.ID).
		Int("minutesUsed", minutesUsed).
		Float64("minuteCost", minuteCost).
		Msg("session completed")

	return &EndSessionResult{
		Session:     completed,
		MinutesUsed: minutesUsed,
	}, nil
}

// Analyze runs the configured analyzer over a transcript and persists the
// score and feedback on the session.
func (s *SessionService) Analyze(ctx context.Context, authID string, sessionID string, transcript []string) (*analysis.Report, error) {
	profile, err := s.resolveProfile(ctx, authID)
	if err != nil {
		return nil, err
	}

	session, err := s.sessionRepo.FindOwned(ctx, sessionID, profile.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}

	report, err := s.analyzer.Analyze(ctx, transcript)
	if err != nil {
		return nil, err
	}
	metrics.AnalysisRuns.WithLabelValues(s.analyzer.Name()).Inc()

	if err := s.sessionRepo.SetAnalysis(ctx, session.ID, report.OverallScore, report.Feedback); err != nil {
		// The report is already produced; losing the persisted copy is
		// recoverable by re-running analysis.
		log.Error().Err(err).Str("sessionId", session.ID).Msg("failed to persist analysis")
	}

	return report, nil
}

// AnalyzeTranscript runs the analyzer without persisting anything. Serves the
// demo experience, where there is no session row to attach the report to.
func (s *SessionService) AnalyzeTranscript(ctx context.Context, transcript []string) (*analysis.Report, error) {
	report, err := s.analyzer.Analyze(ctx, transcript)
	if err != nil {
		return nil, err
	}
	metrics.AnalysisRuns.WithLabelValues(s.analyzer.Name()).Inc()
	return report, nil
}

// VerifyOwnership returns the session when it belongs to the caller.
func (s *SessionService) VerifyOwnership(ctx context.Context, authID string, sessionID string) (*model.Session, error) {
	profile, err := s.resolveProfile(ctx, authID)
	if err != nil {
		return nil, err
	}

	session, err := s.sessionRepo.FindOwned(ctx, sessionID, profile.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}
	return session, nil
}

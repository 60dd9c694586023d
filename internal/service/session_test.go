package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/salesai/api-server-go/internal/analysis"
	"github.com/salesai/api-server-go/internal/audit"
	"github.com/salesai/api-server-go/internal/database"
	apperrors "github.com/salesai/api-server-go/internal/errors"
	"github.com/salesai/api-server-go/internal/model"
)

func newSessionFixture() (*SessionService, *mockSessionRepo, *mockProfileRepo, *mockSubscriptionRepo, *mockUsageRepo, *mockAuditRepo) {
	sessionRepo := new(mockSessionRepo)
	profileRepo := new(mockProfileRepo)
	subscriptionRepo := new(mockSubscriptionRepo)
	usageRepo := new(mockUsageRepo)
	auditRepo := new(mockAuditRepo)

	analyzer := analysis.NewMockAnalyzer()
	analyzer.Delay = 0

	svc := NewSessionService(nil, sessionRepo, profileRepo, subscriptionRepo, usageRepo, audit.NewRecorder(auditRepo), analyzer)
	return svc, sessionRepo, profileRepo, subscriptionRepo, usageRepo, auditRepo
}

func TestMinutesForDuration(t *testing.T) {
	t.Run("rounds partial minutes up", func(t *testing.T) {
		assert.Equal(t, 2, MinutesForDuration(61))
		assert.Equal(t, 1, MinutesForDuration(59))
		assert.Equal(t, 1, MinutesForDuration(1))
	})

	t.Run("exact minutes stay exact", func(t *testing.T) {
		assert.Equal(t, 1, MinutesForDuration(60))
		assert.Equal(t, 5, MinutesForDuration(300))
	})

	t.Run("zero duration bills nothing", func(t *testing.T) {
		assert.Equal(t, 0, MinutesForDuration(0))
	})
}

func TestCostForMinutes(t *testing.T) {
	assert.InDelta(t, 0.5, CostForMinutes(5), 1e-9)
	assert.InDelta(t, 0.0, CostForMinutes(0), 1e-9)
	assert.InDelta(t, 0.1, CostForMinutes(1), 1e-9)
}

func TestSessionService_Create(t *testing.T) {
	ctx := context.Background()
	profile := &model.Profile{ID: "profile-1", AuthID: "auth-1"}

	t.Run("creates session when minutes remain", func(t *testing.T) {
		svc, sessionRepo, profileRepo, subscriptionRepo, _, auditRepo := newSessionFixture()

		profileRepo.On("FindByAuthID", ctx, "auth-1").Return(profile, nil)
		subscriptionRepo.On("FindActiveByProfile", ctx, "profile-1").Return(&model.Subscription{
			ID:           "sub-1",
			Tier:         model.TierProfessional,
			MinutesLimit: 500,
			MinutesUsed:  120,
		}, nil)
		sessionRepo.On("Create", ctx, mock.MatchedBy(func(p model.CreateSessionParams) bool {
			return p.ProfileID == "profile-1" && p.Title == "Cold call practice"
		})).Return(&model.Session{ID: "session-1", ProfileID: "profile-1", Status: model.SessionStatusActive}, nil)
		auditRepo.On("Create", ctx, mock.Anything).Return(nil)

		session, err := svc.Create(ctx, "auth-1", CreateSessionInput{Title: "Cold call practice"})

		assert.NoError(t, err)
		assert.NotNil(t, session)
		assert.Equal(t, "session-1", session.ID)
		sessionRepo.AssertExpectations(t)
	})

	t.Run("rejects creation when the allowance is exhausted", func(t *testing.T) {
		svc, sessionRepo, profileRepo, subscriptionRepo, _, _ := newSessionFixture()

		profileRepo.On("FindByAuthID", ctx, "auth-1").Return(profile, nil)
		subscriptionRepo.On("FindActiveByProfile", ctx, "profile-1").Return(&model.Subscription{
			ID:           "sub-1",
			Tier:         model.TierStarter,
			MinutesLimit: 100,
			MinutesUsed:  100,
		}, nil)

		session, err := svc.Create(ctx, "auth-1", CreateSessionInput{Title: "Over limit"})

		assert.Nil(t, session)
		appErr, ok := apperrors.AsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeLimitReached, appErr.Code)
		sessionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("allows creation without a subscription", func(t *testing.T) {
		svc, sessionRepo, profileRepo, subscriptionRepo, _, auditRepo := newSessionFixture()

		profileRepo.On("FindByAuthID", ctx, "auth-1").Return(profile, nil)
		subscriptionRepo.On("FindActiveByProfile", ctx, "profile-1").Return(nil, nil)
		sessionRepo.On("Create", ctx, mock.Anything).
			Return(&model.Session{ID: "session-2", Status: model.SessionStatusActive}, nil)
		auditRepo.On("Create", ctx, mock.Anything).Return(nil)

		session, err := svc.Create(ctx, "auth-1", CreateSessionInput{Title: "Free practice"})

		assert.NoError(t, err)
		assert.NotNil(t, session)
	})

	t.Run("returns not found for unknown profiles", func(t *testing.T) {
		svc, _, profileRepo, _, _, _ := newSessionFixture()

		profileRepo.On("FindByAuthID", ctx, "auth-unknown").Return(nil, nil)

		session, err := svc.Create(ctx, "auth-unknown", CreateSessionInput{Title: "x"})

		assert.Nil(t, session)
		appErr, ok := apperrors.AsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeNotFound, appErr.Code)
	})
}

func TestSessionService_End(t *testing.T) {
	ctx := context.Background()
	profile := &model.Profile{ID: "profile-1", AuthID: "auth-1"}
	periodStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// The repo mocks return themselves from WithTx, so a pass-through
	// runner lets the settlement run against the same expectations.
	passThroughTx := func(ctx context.Context, fn database.TxFunc) error {
		return fn(nil)
	}

	t.Run("settles usage against the subscription in one transaction", func(t *testing.T) {
		svc, sessionRepo, profileRepo, subscriptionRepo, usageRepo, auditRepo := newSessionFixture()
		svc.runTx = passThroughTx

		profileRepo.On("FindByAuthID", ctx, "auth-1").Return(profile, nil)
		sessionRepo.On("FindOwned", ctx, "session-1", "profile-1").Return(&model.Session{
			ID:        "session-1",
			ProfileID: "profile-1",
			Status:    model.SessionStatusActive,
		}, nil)
		sessionRepo.On("Complete", ctx, "session-1", mock.MatchedBy(func(p model.CompleteSessionParams) bool {
			return p.DurationSeconds == 130 && math.Abs(p.MinuteCost-0.3) < 1e-9
		})).Return(&model.Session{ID: "session-1", Status: model.SessionStatusCompleted}, nil)
		subscriptionRepo.On("FindActiveByProfile", ctx, "profile-1").Return(&model.Subscription{
			ID:                 "sub-1",
			Tier:               model.TierProfessional,
			MinutesLimit:       500,
			MinutesUsed:        120,
			CurrentPeriodStart: periodStart,
			CurrentPeriodEnd:   periodStart.AddDate(0, 1, 0),
		}, nil)
		subscriptionRepo.On("IncrementMinutesUsed", ctx, "sub-1", 3).Return(nil)
		usageRepo.On("Create", ctx, mock.MatchedBy(func(p model.CreateUsageRecordParams) bool {
			return p.ProfileID == "profile-1" &&
				p.SessionID == "session-1" &&
				p.MinutesUsed == 3 &&
				p.PeriodStart.Equal(periodStart)
		})).Return(&model.UsageRecord{ID: "usage-1"}, nil)
		auditRepo.On("Create", ctx, mock.Anything).Return(nil)

		result, err := svc.End(ctx, "auth-1", EndSessionInput{SessionID: "session-1", DurationSeconds: 130})

		assert.NoError(t, err)
		assert.Equal(t, 3, result.MinutesUsed)
		assert.Equal(t, model.SessionStatusCompleted, result.Session.Status)
		subscriptionRepo.AssertExpectations(t)
		usageRepo.AssertExpectations(t)
	})

	t.Run("completes without billing when there is no subscription", func(t *testing.T) {
		svc, sessionRepo, profileRepo, subscriptionRepo, usageRepo, auditRepo := newSessionFixture()
		svc.runTx = passThroughTx

		profileRepo.On("FindByAuthID", ctx, "auth-1").Return(profile, nil)
		sessionRepo.On("FindOwned", ctx, "session-2", "profile-1").Return(&model.Session{
			ID:        "session-2",
			ProfileID: "profile-1",
			Status:    model.SessionStatusActive,
		}, nil)
		sessionRepo.On("Complete", ctx, "session-2", mock.Anything).
			Return(&model.Session{ID: "session-2", Status: model.SessionStatusCompleted}, nil)
		subscriptionRepo.On("FindActiveByProfile", ctx, "profile-1").Return(nil, nil)
		auditRepo.On("Create", ctx, mock.Anything).Return(nil)

		result, err := svc.End(ctx, "auth-1", EndSessionInput{SessionID: "session-2", DurationSeconds: 45})

		assert.NoError(t, err)
		assert.Equal(t, 1, result.MinutesUsed)
		usageRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		subscriptionRepo.AssertNotCalled(t, "IncrementMinutesUsed", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("loses the completion race cleanly", func(t *testing.T) {
		svc, sessionRepo, profileRepo, subscriptionRepo, _, _ := newSessionFixture()
		svc.runTx = passThroughTx

		profileRepo.On("FindByAuthID", ctx, "auth-1").Return(profile, nil)
		sessionRepo.On("FindOwned", ctx, "session-3", "profile-1").Return(&model.Session{
			ID:        "session-3",
			ProfileID: "profile-1",
			Status:    model.SessionStatusActive,
		}, nil)
		sessionRepo.On("Complete", ctx, "session-3", mock.Anything).Return(nil, nil)

		result, err := svc.End(ctx, "auth-1", EndSessionInput{SessionID: "session-3", DurationSeconds: 60})

		assert.Nil(t, result)
		appErr, ok := apperrors.AsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeInvalidState, appErr.Code)
		subscriptionRepo.AssertNotCalled(t, "IncrementMinutesUsed", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects a session that is already completed", func(t *testing.T) {
		svc, sessionRepo, profileRepo, _, _, _ := newSessionFixture()

		profileRepo.On("FindByAuthID", ctx, "auth-1").Return(profile, nil)
		sessionRepo.On("FindOwned", ctx, "session-1", "profile-1").Return(&model.Session{
			ID:        "session-1",
			ProfileID: "profile-1",
			Status:    model.SessionStatusCompleted,
		}, nil)

		result, err := svc.End(ctx, "auth-1", EndSessionInput{SessionID: "session-1", DurationSeconds: 120})

		assert.Nil(t, result)
		appErr, ok := apperrors.AsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeInvalidState, appErr.Code)
	})

	t.Run("treats another user's session as missing", func(t *testing.T) {
		svc, sessionRepo, profileRepo, _, _, _ := newSessionFixture()

		profileRepo.On("FindByAuthID", ctx, "auth-1").Return(profile, nil)
		sessionRepo.On("FindOwned", ctx, "session-foreign", "profile-1").Return(nil, nil)

		result, err := svc.End(ctx, "auth-1", EndSessionInput{SessionID: "session-foreign", DurationSeconds: 120})

		assert.Nil(t, result)
		appErr, ok := apperrors.AsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeNotFound, appErr.Code)
	})
}

func TestSessionService_Analyze(t *testing.T) {
	ctx := context.Background()
	profile := &model.Profile{ID: "profile-1", AuthID: "auth-1"}

	t.Run("analyzes an owned session and persists the result", func(t *testing.T) {
		svc, sessionRepo, profileRepo, _, _, _ := newSessionFixture()

		profileRepo.On("FindByAuthID", ctx, "auth-1").Return(profile, nil)
		sessionRepo.On("FindOwned", ctx, "session-1", "profile-1").Return(&model.Session{
			ID:        "session-1",
			ProfileID: "profile-1",
			Status:    model.SessionStatusCompleted,
		}, nil)
		sessionRepo.On("SetAnalysis", ctx, "session-1", mock.Anything, mock.Anything).Return(nil)

		report, err := svc.Analyze(ctx, "auth-1", "session-1", []string{"Hello, thanks for taking my call."})

		assert.NoError(t, err)
		assert.NotNil(t, report)
		assert.Greater(t, report.OverallScore, 0.0)
		sessionRepo.AssertExpectations(t)
	})

	t.Run("refuses to analyze someone else's session", func(t *testing.T) {
		svc, sessionRepo, profileRepo, _, _, _ := newSessionFixture()

		profileRepo.On("FindByAuthID", ctx, "auth-1").Return(profile, nil)
		sessionRepo.On("FindOwned", ctx, "session-foreign", "profile-1").Return(nil, nil)

		report, err := svc.Analyze(ctx, "auth-1", "session-foreign", nil)

		assert.Nil(t, report)
		appErr, ok := apperrors.AsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeNotFound, appErr.Code)
		sessionRepo.AssertNotCalled(t, "SetAnalysis", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

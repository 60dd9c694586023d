package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/salesai/api-server-go/internal/model"
	"github.com/salesai/api-server-go/internal/repository"
)

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) FindOwned(ctx context.Context, id string, profileID string) (*model.Session, error) {
	args := m.Called(ctx, id, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) Complete(ctx context.Context, id string, params model.CompleteSessionParams) (*model.Session, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) SetAnalysis(ctx context.Context, id string, score float64, feedback string) error {
	args := m.Called(ctx, id, score, feedback)
	return args.Error(0)
}

func (m *mockSessionRepo) FindRecentByProfile(ctx context.Context, profileID string, limit int) ([]model.Session, error) {
	args := m.Called(ctx, profileID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Session), args.Error(1)
}

func (m *mockSessionRepo) CountCreatedSince(ctx context.Context, profileID string, since time.Time) (int, error) {
	args := m.Called(ctx, profileID, since)
	return args.Int(0), args.Error(1)
}

func (m *mockSessionRepo) CompletedScores(ctx context.Context, profileID string, limit int) ([]model.SessionScore, error) {
	args := m.Called(ctx, profileID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SessionScore), args.Error(1)
}

func (m *mockSessionRepo) AbandonStale(ctx context.Context, olderThan time.Time) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionRepo) WithTx(tx *sqlx.Tx) repository.SessionRepository {
	return m
}

type mockProfileRepo struct {
	mock.Mock
}

func (m *mockProfileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *mockProfileRepo) FindByAuthID(ctx context.Context, authID string) (*model.Profile, error) {
	args := m.Called(ctx, authID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *mockProfileRepo) FindByStripeCustomerID(ctx context.Context, customerID string) (*model.Profile, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *mockProfileRepo) Create(ctx context.Context, params model.CreateProfileParams) (*model.Profile, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *mockProfileRepo) SetStripeCustomerID(ctx context.Context, id string, customerID string) error {
	args := m.Called(ctx, id, customerID)
	return args.Error(0)
}

func (m *mockProfileRepo) WithTx(tx *sqlx.Tx) repository.ProfileRepository {
	return m
}

type mockSubscriptionRepo struct {
	mock.Mock
}

func (m *mockSubscriptionRepo) FindActiveByProfile(ctx context.Context, profileID string) (*model.Subscription, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepo) FindByStripeSubscriptionID(ctx context.Context, stripeSubID string) (*model.Subscription, error) {
	args := m.Called(ctx, stripeSubID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepo) IncrementMinutesUsed(ctx context.Context, id string, minutes int) error {
	args := m.Called(ctx, id, minutes)
	return args.Error(0)
}

func (m *mockSubscriptionRepo) Upsert(ctx context.Context, params model.UpsertSubscriptionParams) (*model.Subscription, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepo) SetStatus(ctx context.Context, id string, status model.SubscriptionStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockSubscriptionRepo) WithTx(tx *sqlx.Tx) repository.SubscriptionRepository {
	return m
}

type mockUsageRepo struct {
	mock.Mock
}

func (m *mockUsageRepo) Create(ctx context.Context, params model.CreateUsageRecordParams) (*model.UsageRecord, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UsageRecord), args.Error(1)
}

func (m *mockUsageRepo) SumMinutesSince(ctx context.Context, profileID string, since time.Time) (int, error) {
	args := m.Called(ctx, profileID, since)
	return args.Int(0), args.Error(1)
}

func (m *mockUsageRepo) ListByPeriod(ctx context.Context, from, to time.Time) ([]model.UsageRecord, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UsageRecord), args.Error(1)
}

func (m *mockUsageRepo) WithTx(tx *sqlx.Tx) repository.UsageRepository {
	return m
}

type mockAuditRepo struct {
	mock.Mock
}

func (m *mockAuditRepo) Create(ctx context.Context, params model.CreateAuditLogParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *mockAuditRepo) WithTx(tx *sqlx.Tx) repository.AuditLogRepository {
	return m
}

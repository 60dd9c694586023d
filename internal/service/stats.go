package service

import (
	"context"
	"encoding/json"
	"math"
	"time"

	apperrors "github.com/salesai/api-server-go/internal/errors"
	"github.com/salesai/api-server-go/internal/model"
	"github.com/salesai/api-server-go/internal/repository"
)

// completedSessionWindow bounds how far back the dashboard aggregation looks.
const completedSessionWindow = 100

type DashboardStats struct {
	MinutesLeft      int     `json:"minutesLeft"`
	SessionsToday    int     `json:"sessionsToday"`
	ProgressScore    float64 `json:"progressScore"`
	StreakDays       int     `json:"streakDays"`
	TotalMinutesUsed int     `json:"totalMinutesUsed"`
	TotalSessions    int     `json:"totalSessions"`
	AverageScore     float64 `json:"averageScore"`
	SubscriptionTier string  `json:"subscriptionTier,omitempty"`
	IsDemo           bool    `json:"isDemo"`
}

type RecentSession struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Duration int       `json:"duration"`
	Score    float64   `json:"score"`
	Date     time.Time `json:"date"`
	Status   string    `json:"status"`
	Feedback string    `json:"feedback"`
	Topics   []string  `json:"topics"`
}

type StatsService struct {
	sessionRepo      repository.SessionRepository
	subscriptionRepo repository.SubscriptionRepository
	usageRepo        repository.UsageRepository
	profileRepo      repository.ProfileRepository
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewStatsService(
	sessionRepo repository.SessionRepository,
	subscriptionRepo repository.SubscriptionRepository,
	usageRepo repository.UsageRepository,
	profileRepo repository.ProfileRepository,
) *StatsService {
	return &StatsService{
		sessionRepo:      sessionRepo,
		subscriptionRepo: subscriptionRepo,
		usageRepo:        usageRepo,
		profileRepo:      profileRepo,
		clock:            time.Now,
	}
}

// Dashboard aggregates the caller's usage and session history into display
// statistics. Reads only; calling it twice with no intervening writes yields
// identical results.
func (s *StatsService) Dashboard(ctx context.Context, authID string) (*DashboardStats, error) {
	profile, err := s.profileRepo.FindByAuthID(ctx, authID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if profile == nil {
		return nil, apperrors.NotFound("User profile")
	}

	now := s.clock()

	subscription, err := s.subscriptionRepo.FindActiveByProfile(ctx, profile.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	tier := model.TierStarter
	if subscription != nil {
		tier = subscription.Tier
	}
	allowance := model.MinutesForTier(tier)

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	minutesUsed, err := s.usageRepo.SumMinutesSince(ctx, profile.ID, monthStart)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	minutesLeft := allowance - minutesUsed
	if minutesLeft < 0 {
		minutesLeft = 0
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	sessionsToday, err := s.sessionRepo.CountCreatedSince(ctx, profile.ID, dayStart)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	scores, err := s.sessionRepo.CompletedScores(ctx, profile.ID, completedSessionWindow)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	avg := averageScore(scores)

	return &DashboardStats{
		MinutesLeft:      minutesLeft,
		SessionsToday:    sessionsToday,
		ProgressScore:    avg,
		StreakDays:       streakDays(sessionDays(scores), now),
		TotalMinutesUsed: minutesUsed,
		TotalSessions:    len(scores),
		AverageScore:     avg,
		SubscriptionTier: string(tier),
		IsDemo:           false,
	}, nil
}

// RecentSessions shapes the latest sessions for the dashboard list.
func (s *StatsService) RecentSessions(ctx context.Context, authID string, limit int) ([]RecentSession, error) {
	profile, err := s.profileRepo.FindByAuthID(ctx, authID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if profile == nil {
		return []RecentSession{}, nil
	}

	sessions, err := s.sessionRepo.FindRecentByProfile(ctx, profile.ID, limit)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	recent := make([]RecentSession, 0, len(sessions))
	for _, session := range sessions {
		recent = append(recent, shapeRecentSession(session))
	}
	return recent, nil
}

func shapeRecentSession(session model.Session) RecentSession {
	duration := 0
	if session.DurationSeconds != nil {
		duration = *session.DurationSeconds / 60
	}

	score := 0.0
	if session.OverallScore != nil {
		score = *session.OverallScore
	}

	feedback := "Session analysis pending..."
	if session.FeedbackSummary != nil && *session.FeedbackSummary != "" {
		feedback = *session.FeedbackSummary
	}

	return RecentSession{
		ID:       session.ID,
		Title:    session.Title,
		Duration: duration,
		Score:    score,
		Date:     session.CreatedAt,
		Status:   string(session.Status),
		Feedback: feedback,
		Topics:   sessionTopics(session),
	}
}

// sessionTopics pulls topic labels out of a structured transcript when the
// client stored one, falling back to the session title.
func sessionTopics(session model.Session) []string {
	if session.Transcript != nil {
		var logged struct {
			Topics []string `json:"topics"`
		}
		if err := json.Unmarshal([]byte(*session.Transcript), &logged); err == nil && len(logged.Topics) > 0 {
			return logged.Topics
		}
	}
	return []string{session.Title}
}

// averageScore is the arithmetic mean over the score window, treating missing
// scores as zero, rounded to one decimal.
func averageScore(scores []model.SessionScore) float64 {
	if len(scores) == 0 {
		return 0
	}

	var sum float64
	for _, s := range scores {
		if s.OverallScore != nil {
			sum += *s.OverallScore
		}
	}
	return math.Round(sum/float64(len(scores))*10) / 10
}

// sessionDays returns the distinct calendar days of the given sessions,
// newest first. Scores arrive ordered newest first already.
func sessionDays(scores []model.SessionScore) []time.Time {
	days := make([]time.Time, 0, len(scores))
	seen := make(map[string]struct{}, len(scores))
	for _, s := range scores {
		day := time.Date(s.CreatedAt.Year(), s.CreatedAt.Month(), s.CreatedAt.Day(), 0, 0, 0, 0, s.CreatedAt.Location())
		key := day.Format("2006-01-02")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		days = append(days, day)
	}
	return days
}

// streakDays counts consecutive practice days ending today or yesterday.
// The first gap larger than one calendar day breaks the chain.
func streakDays(days []time.Time, now time.Time) int {
	if len(days) == 0 {
		return 0
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterday := today.AddDate(0, 0, -1)

	if !sameDay(days[0], today) && !sameDay(days[0], yesterday) {
		return 0
	}

	streak := 1
	for i := 1; i < len(days); i++ {
		if days[i-1].AddDate(0, 0, -1).Equal(days[i]) {
			streak++
		} else {
			break
		}
	}
	return streak
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// DemoStats is what unauthenticated visitors see.
func DemoStats() *DashboardStats {
	return &DashboardStats{
		MinutesLeft: 100,
		IsDemo:      true,
	}
}

// DemoRecentSessions is the placeholder list for unauthenticated visitors.
func DemoRecentSessions(now time.Time) []RecentSession {
	return []RecentSession{
		{
			ID:       "demo-1",
			Title:    "Demo Session - Please Login",
			Duration: 0,
			Score:    0,
			Date:     now,
			Status:   "demo",
			Feedback: "Please login to see your real session data",
			Topics:   []string{"Demo mode - login required"},
		},
	}
}

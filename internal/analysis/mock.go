package analysis

import (
	"context"
	"time"
)

// MockAnalyzer returns a fixed report after an artificial delay, keeping the
// product demo usable without an AI backend.
type MockAnalyzer struct {
	Delay time.Duration
}

func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{Delay: 1500 * time.Millisecond}
}

func (a *MockAnalyzer) Name() string { return "mock" }

func (a *MockAnalyzer) Analyze(ctx context.Context, transcript []string) (*Report, error) {
	if a.Delay > 0 {
		select {
		case <-time.After(a.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	report := cannedReport()
	return &report, nil
}

func cannedReport() Report {
	return Report{
		OverallScore: 4.2,
		Feedback:     "Great improvement in confidence and clarity. Your opening was strong and you maintained good energy throughout the call.",
		Metrics: Metrics{
			Confidence: 85,
			Clarity:    78,
			Pace:       72,
			Engagement: 88,
		},
		Analysis: Breakdown{
			Strengths: []string{
				"Strong opening with name and company",
				"Acknowledged the prospect's time constraints",
				"Used a problem-focused approach",
			},
			Improvements: []string{
				"Could have been more specific about the value proposition",
				"Missed opportunity to ask qualifying questions earlier",
				"Voice pace could be slightly slower for better clarity",
			},
			Recommendations: []string{
				"Practice the elevator pitch for more concise value delivery",
				"Prepare 2-3 open-ended qualifying questions",
				"Record yourself to monitor speaking pace and clarity",
			},
		},
		DetailedInsights: map[string]float64{
			"opening_effectiveness": 4.5,
			"rapport_building":      3.8,
			"needs_discovery":       3.2,
			"value_presentation":    3.9,
			"objection_handling":    4.0,
			"closing_attempt":       3.5,
		},
		ImprovementTrend: "+0.3 from last session",
		NextFocusAreas:   []string{"needs_discovery", "closing_techniques"},
	}
}

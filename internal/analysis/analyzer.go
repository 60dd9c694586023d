package analysis

import "context"

// Report is the structured performance feedback for one practice conversation.
type Report struct {
	OverallScore     float64            `json:"overall_score"`
	Feedback         string             `json:"feedback"`
	Metrics          Metrics            `json:"metrics"`
	Analysis         Breakdown          `json:"analysis"`
	DetailedInsights map[string]float64 `json:"detailed_insights"`
	ImprovementTrend string             `json:"improvement_trend"`
	NextFocusAreas   []string           `json:"next_focus_areas"`
}

type Metrics struct {
	Confidence int `json:"confidence"`
	Clarity    int `json:"clarity"`
	Pace       int `json:"pace"`
	Engagement int `json:"engagement"`
}

type Breakdown struct {
	Strengths       []string `json:"strengths"`
	Improvements    []string `json:"improvements"`
	Recommendations []string `json:"recommendations"`
}

// Analyzer produces a performance report from a conversation transcript.
type Analyzer interface {
	Analyze(ctx context.Context, transcript []string) (*Report, error)
	Name() string
}

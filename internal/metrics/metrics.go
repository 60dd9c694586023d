package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "salesai_sessions_created_total",
		Help: "Practice sessions created.",
	})

	SessionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "salesai_sessions_completed_total",
		Help: "Practice sessions completed.",
	})

	MinutesBilled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "salesai_minutes_billed_total",
		Help: "Minutes charged against subscriptions.",
	})

	SignedURLRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salesai_voice_signed_url_requests_total",
		Help: "Voice vendor signed-URL requests by outcome.",
	}, []string{"outcome"})

	AnalysisRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salesai_analysis_runs_total",
		Help: "Session analysis runs by analyzer.",
	}, []string{"analyzer"})
)

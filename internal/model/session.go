package model

import (
	"encoding/json"
	"time"
)

// Session is one practice conversation attempt. Created in the active state,
// transitions exactly once to completed; duration, cost and transcript are
// only set at completion.
type Session struct {
	ID               string           `db:"id" json:"id"`
	ProfileID        string           `db:"profile_id" json:"profileId"`
	CompanyID        *string          `db:"company_id" json:"companyId,omitempty"`
	Title            string           `db:"title" json:"title"`
	Status           SessionStatus    `db:"status" json:"status"`
	ProcessingStatus ProcessingStatus `db:"processing_status" json:"processingStatus"`
	StartedAt        time.Time        `db:"started_at" json:"startedAt"`
	EndedAt          *time.Time       `db:"ended_at" json:"endedAt,omitempty"`
	DurationSeconds  *int             `db:"duration_seconds" json:"durationSeconds,omitempty"`
	AudioQuality     *json.RawMessage `db:"audio_quality" json:"audioQuality,omitempty"`
	AudioFileURL     *string          `db:"audio_file_url" json:"audioFileUrl,omitempty"`
	AudioFileSize    *int64           `db:"audio_file_size" json:"audioFileSize,omitempty"`
	MinuteCost       *float64         `db:"minute_cost" json:"minuteCost,omitempty"`
	Transcript       *string          `db:"transcript" json:"transcript,omitempty"`
	OverallScore     *float64         `db:"overall_score" json:"overallScore,omitempty"`
	FeedbackSummary  *string          `db:"feedback_summary" json:"feedbackSummary,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updatedAt"`
}

type CreateSessionParams struct {
	ProfileID string
	CompanyID *string
	Title     string
}

type CompleteSessionParams struct {
	DurationSeconds int
	MinuteCost      float64
	AudioQuality    *json.RawMessage
	AudioFileURL    *string
	AudioFileSize   *int64
	Transcript      *string
}

// SessionScore is the projection used by the dashboard aggregation:
// the score of a completed session and the day it was created.
type SessionScore struct {
	OverallScore *float64  `db:"overall_score"`
	CreatedAt    time.Time `db:"created_at"`
}

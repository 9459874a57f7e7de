package match

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"skillmatch/internal/domain/matching"
)

type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

var (
	ErrNotFound = errors.New("match not found")
	// ErrRetryable marks a processing error that left the record untouched,
	// so the request can be delivered again.
	ErrRetryable = errors.New("match request can be retried")
)

// Record is one persisted match request and, once completed, its outcome.
type Record struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Status        Status
	ResumeExcerpt string
	JobExcerpt    string
	JobURL        string
	Analysis      matching.Analysis
	ReportKey     string
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Update is the status event published while a queued match is processed.
type Update struct {
	MatchID   uuid.UUID        `json:"match_id"`
	UserID    uuid.UUID        `json:"user_id"`
	Status    Status           `json:"status"`
	Message   string           `json:"message"`
	Result    *matching.Result `json:"result,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Request is the work item queued for an async match. JobURL is fetched by
// the worker when JobText is empty.
type Request struct {
	MatchID    uuid.UUID `json:"match_id"`
	UserID     uuid.UUID `json:"user_id"`
	ResumeText string    `json:"resume_text"`
	JobText    string    `json:"job_text"`
	JobURL     string    `json:"job_url,omitempty"`

	// Redelivered is set by the consumer when the broker has handed this
	// request out before.
	Redelivered bool `json:"-"`
}

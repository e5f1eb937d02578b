package fetchlog

import (
	"time"

	"github.com/google/uuid"
)

type FetchLog struct {
	ID           uuid.UUID `json:"id" db:"id"`
	CompanyID    uuid.UUID `json:"company_id" db:"company_id"`
	Platform     string    `json:"platform" db:"platform"`
	ProfileID    string    `json:"profile_id" db:"profile_id"`
	Outcome      Outcome   `json:"outcome" db:"outcome"`
	ErrorMessage string    `json:"error_message,omitempty" db:"error_message"`
	DurationMs   int64     `json:"duration_ms" db:"duration_ms"`
	Timestamp    time.Time `json:"timestamp" db:"timestamp"`
}

type Outcome string

const (
	OutcomeFreshCache Outcome = "fresh_cache"
	OutcomeUpstream   Outcome = "upstream"
	OutcomeStaleCache Outcome = "stale_cache"
	OutcomeFailed     Outcome = "failed"
)

func (o Outcome) Valid() bool {
	switch o {
	case OutcomeFreshCache, OutcomeUpstream, OutcomeStaleCache, OutcomeFailed:
		return true
	default:
		return false
	}
}

// CreateFetchLogRequest represents one recorded stats request
type CreateFetchLogRequest struct {
	CompanyID    uuid.UUID     `json:"company_id"`
	Platform     string        `json:"platform"`
	ProfileID    string        `json:"profile_id"`
	Outcome      Outcome       `json:"outcome"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// FetchLogFilter represents filters for querying fetch logs
type FetchLogFilter struct {
	CompanyID *uuid.UUID `json:"company_id,omitempty"`
	Platform  *string    `json:"platform,omitempty"`
	Outcome   *Outcome   `json:"outcome,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}

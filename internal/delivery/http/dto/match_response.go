package dto

import (
	"time"

	"github.com/google/uuid"

	"skillmatch/internal/domain/match"
	"skillmatch/internal/domain/matching"
)

type MatchResponse struct {
	ID            uuid.UUID        `json:"id"`
	Status        match.Status     `json:"status"`
	Result        *matching.Result `json:"result"`
	ResumeSkills  []string         `json:"resume_skills"`
	JDSkills      []string         `json:"jd_skills"`
	JobURL        string           `json:"job_url,omitempty"`
	ReportURL     string           `json:"report_url,omitempty"`
	FailureReason string           `json:"failure_reason,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// NewMatchResponse renders rec; result, skills and report link appear once
// the match has completed.
func NewMatchResponse(rec match.Record, baseURL string) MatchResponse {
	out := MatchResponse{
		ID:            rec.ID,
		Status:        rec.Status,
		JobURL:        rec.JobURL,
		FailureReason: rec.FailureReason,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
	if rec.Status == match.StatusCompleted {
		res := rec.Analysis.Result
		out.Result = &res
		out.ResumeSkills = rec.Analysis.ResumeSkills
		out.JDSkills = rec.Analysis.JDSkills
		if rec.ReportKey != "" {
			out.ReportURL = ReportURL(baseURL, rec.ID)
		}
	}
	return out
}

func ReportURL(baseURL string, id uuid.UUID) string {
	return baseURL + "/api/v1/matches/" + id.String() + "/report"
}

type MatchListResponse struct {
	Items []MatchResponse `json:"items"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
	Total int             `json:"total"`
}

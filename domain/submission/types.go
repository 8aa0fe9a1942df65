package submission

import (
	"time"

	"petitiondesk/domain/core"
	"petitiondesk/domain/petition"
)

// SourceType records how the petition text reached the service
type SourceType string

const (
	SourceText  SourceType = "text"
	SourceAudio SourceType = "audio"
)

// Submission is one accepted petition with its predictions
type Submission struct {
	ID         core.SubmissionID `json:"id"`
	SessionID  core.SessionID    `json:"session_id"`
	Text       string            `json:"text"`
	Category   string            `json:"category"`
	Urgency    petition.Urgency  `json:"urgency"`
	Confidence float64           `json:"confidence"`
	Timestamp  time.Time         `json:"timestamp"`
	SourceType SourceType        `json:"source_type"`
}

// Filter selects submissions for review
type Filter struct {
	// Urgencies keeps only the listed levels; empty keeps all
	Urgencies []petition.Urgency
}

// Matches reports whether s passes the filter
func (f Filter) Matches(s Submission) bool {
	if len(f.Urgencies) == 0 {
		return true
	}
	for _, u := range f.Urgencies {
		if s.Urgency == u {
			return true
		}
	}
	return false
}

// Stats summarises a ledger for the review page
type Stats struct {
	Total            int            `json:"total"`
	HighPriority     int            `json:"high_priority"`
	MeanConfidence   float64        `json:"mean_confidence"`
	MedianConfidence float64        `json:"median_confidence"`
	ByCategory       map[string]int `json:"by_category"`
	BySource         map[string]int `json:"by_source"`
}

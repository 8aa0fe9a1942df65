package ports

import (
	"petitiondesk/domain/core"
	"petitiondesk/domain/submission"
)

// SubmissionLedger is the append-only record of one session's submissions
type SubmissionLedger interface {
	SessionID() core.SessionID
	Append(sub submission.Submission) error
	List(filter submission.Filter) []submission.Submission
	Stats() submission.Stats
}

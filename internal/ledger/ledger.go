// Package ledger keeps the per-session record of accepted petitions.
package ledger

import (
	"fmt"
	"sort"
	"sync"

	"github.com/montanaflynn/stats"

	"petitiondesk/domain/core"
	"petitiondesk/domain/petition"
	"petitiondesk/domain/submission"
	"petitiondesk/ports"
)

// Ledger is an append-only list of submissions owned by one session
type Ledger struct {
	mu      sync.RWMutex
	session core.SessionID
	subs    []submission.Submission
}

var _ ports.SubmissionLedger = (*Ledger)(nil)

// New creates an empty ledger for session
func New(session core.SessionID) *Ledger {
	return &Ledger{session: session}
}

func (l *Ledger) SessionID() core.SessionID {
	return l.session
}

// Append records sub. A blank session is filled in; a foreign one is rejected.
func (l *Ledger) Append(sub submission.Submission) error {
	if sub.ID == "" {
		return fmt.Errorf("submission has no ID")
	}
	if sub.SessionID == "" {
		sub.SessionID = l.session
	}
	if sub.SessionID != l.session {
		return fmt.Errorf("submission %s belongs to session %s, not %s", sub.ID, sub.SessionID, l.session)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.subs = append(l.subs, sub)
	return nil
}

// Len returns the number of recorded submissions
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.subs)
}

// List returns a copy of the matching submissions, High urgency first and
// oldest first within a level
func (l *Ledger) List(filter submission.Filter) []submission.Submission {
	l.mu.RLock()
	out := make([]submission.Submission, 0, len(l.subs))
	for _, s := range l.subs {
		if filter.Matches(s) {
			out = append(out, s)
		}
	}
	l.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Urgency.Rank(), out[j].Urgency.Rank()
		if ri != rj {
			return ri < rj
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Stats summarises every submission regardless of any review filter
func (l *Ledger) Stats() submission.Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	st := submission.Stats{
		Total:      len(l.subs),
		ByCategory: make(map[string]int),
		BySource:   make(map[string]int),
	}
	if len(l.subs) == 0 {
		return st
	}

	confidences := make(stats.Float64Data, 0, len(l.subs))
	for _, s := range l.subs {
		if s.Urgency == petition.UrgencyHigh {
			st.HighPriority++
		}
		st.ByCategory[s.Category]++
		st.BySource[string(s.SourceType)]++
		confidences = append(confidences, s.Confidence)
	}

	// both only fail on empty input, ruled out above
	st.MeanConfidence, _ = confidences.Mean()
	st.MedianConfidence, _ = confidences.Median()
	return st
}

package ledger

import (
	"sync"
	"time"

	"petitiondesk/domain/core"
)

// Registry defaults
const (
	DefaultIdleTTL     = 2 * time.Hour
	DefaultMaxSessions = 10000
)

type entry struct {
	ledger   *Ledger
	lastUsed time.Time
}

// Registry maps session IDs to their ledgers, creating them on first use.
// Ledgers idle for longer than the TTL are dropped, and the least recently
// used ledger is dropped when the registry is full.
type Registry struct {
	mu          sync.Mutex
	ledgers     map[core.SessionID]*entry
	idleTTL     time.Duration
	maxSessions int
	now         func() time.Time
}

// NewRegistry creates a registry with the default bounds
func NewRegistry() *Registry {
	return NewBoundedRegistry(DefaultIdleTTL, DefaultMaxSessions)
}

// NewBoundedRegistry creates a registry that evicts ledgers idle for longer
// than idleTTL and keeps at most maxSessions. Non-positive values fall back
// to the defaults.
func NewBoundedRegistry(idleTTL time.Duration, maxSessions int) *Registry {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Registry{
		ledgers:     make(map[core.SessionID]*entry),
		idleTTL:     idleTTL,
		maxSessions: maxSessions,
		now:         time.Now,
	}
}

// Get returns the ledger for session, creating an empty one if needed
func (r *Registry) Get(session core.SessionID) *Ledger {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if e, ok := r.live(session, now); ok {
		e.lastUsed = now
		return e.ledger
	}

	r.sweep(now)
	if len(r.ledgers) >= r.maxSessions {
		r.evictOldest()
	}
	e := &entry{ledger: New(session), lastUsed: now}
	r.ledgers[session] = e
	return e.ledger
}

// Lookup returns the ledger for session without creating one
func (r *Registry) Lookup(session core.SessionID) (*Ledger, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	e, ok := r.live(session, now)
	if !ok {
		return nil, false
	}
	e.lastUsed = now
	return e.ledger, true
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweep(r.now())
	return len(r.ledgers)
}

// live returns the entry for session, dropping it if it has expired
func (r *Registry) live(session core.SessionID, now time.Time) (*entry, bool) {
	e, ok := r.ledgers[session]
	if !ok {
		return nil, false
	}
	if r.expired(e, now) {
		delete(r.ledgers, session)
		return nil, false
	}
	return e, true
}

func (r *Registry) expired(e *entry, now time.Time) bool {
	return now.Sub(e.lastUsed) > r.idleTTL
}

func (r *Registry) sweep(now time.Time) {
	for id, e := range r.ledgers {
		if r.expired(e, now) {
			delete(r.ledgers, id)
		}
	}
}

func (r *Registry) evictOldest() {
	var (
		oldest core.SessionID
		at     time.Time
	)
	for id, e := range r.ledgers {
		if oldest == "" || e.lastUsed.Before(at) {
			oldest, at = id, e.lastUsed
		}
	}
	if oldest != "" {
		delete(r.ledgers, oldest)
	}
}

package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// v7 keeps submissions sortable by creation time
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	SubmissionID ID
	SessionID    ID
)

// String conversions for domain IDs
func (id SubmissionID) String() string { return ID(id).String() }
func (id SessionID) String() string    { return ID(id).String() }

// NewSessionID creates a fresh session identifier
func NewSessionID() SessionID { return SessionID(NewID()) }

// NewSubmissionID creates a fresh submission identifier
func NewSubmissionID() SubmissionID { return SubmissionID(NewID()) }

// ParseSessionID parses a string into SessionID. Only canonical UUIDs are accepted
// so arbitrary cookie values cannot pick a ledger.
func ParseSessionID(s string) (SessionID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("session ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("invalid session ID %q: %w", s, err)
	}
	return SessionID(s), nil
}

// Package modelstore persists fitted pipelines as versioned, checksummed blobs.
package modelstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"petitiondesk/domain/core"
	"petitiondesk/internal/textclf"
	"petitiondesk/ports"
)

// Blob names used by training and serving
const (
	CategoryModel = "category_model"
	UrgencyModel  = "urgency_model"
)

const (
	// FormatVersion is bumped whenever the envelope or payload layout changes
	FormatVersion = 1
	pipelineKind  = "tfidf_logreg"
)

type envelope struct {
	FormatVersion int             `json:"format_version"`
	Kind          string          `json:"kind"`
	Checksum      core.Hash       `json:"checksum"`
	SavedAt       time.Time       `json:"saved_at"`
	Payload       json.RawMessage `json:"payload"`
}

// Header is the envelope metadata without the payload
type Header struct {
	FormatVersion int
	Kind          string
	Checksum      core.Hash
	SavedAt       time.Time
}

// Store saves and loads pipelines through a BlobStore
type Store struct {
	blobs ports.BlobStore
	now   func() time.Time
}

// New wraps blobs
func New(blobs ports.BlobStore) *Store {
	return &Store{blobs: blobs, now: time.Now}
}

// Save overwrites name with p
func (s *Store) Save(ctx context.Context, p *textclf.Pipeline, name string) error {
	payload, err := json.Marshal(p.State())
	if err != nil {
		return fmt.Errorf("failed to encode pipeline %s: %w", name, err)
	}

	data, err := json.Marshal(envelope{
		FormatVersion: FormatVersion,
		Kind:          pipelineKind,
		Checksum:      core.NewHash(payload),
		SavedAt:       s.now().UTC(),
		Payload:       payload,
	})
	if err != nil {
		return fmt.Errorf("failed to encode envelope %s: %w", name, err)
	}

	if err := s.blobs.Put(ctx, name, data); err != nil {
		return fmt.Errorf("failed to save pipeline %s: %w", name, err)
	}
	return nil
}

// Load returns a core.ErrNotFound error when name is absent and a
// core.ErrCorruptBlob error when the blob cannot be rebuilt into a pipeline
func (s *Store) Load(ctx context.Context, name string) (*textclf.Pipeline, error) {
	data, err := s.blobs.Get(ctx, name)
	if err != nil {
		if core.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: %v", core.ErrModelAbsent, err)
		}
		return nil, fmt.Errorf("failed to load pipeline %s: %w", name, err)
	}

	if _, err := sniff(name, data); err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, core.NewCorruptBlobError(name, err.Error())
	}
	if !env.Checksum.Matches(env.Payload) {
		return nil, core.NewCorruptBlobError(name, "checksum mismatch")
	}

	var state textclf.State
	if err := json.Unmarshal(env.Payload, &state); err != nil {
		return nil, core.NewCorruptBlobError(name, err.Error())
	}
	p, err := textclf.FromState(state)
	if err != nil {
		return nil, core.NewCorruptBlobError(name, err.Error())
	}
	return p, nil
}

// Inspect reads only the envelope header of name
func (s *Store) Inspect(ctx context.Context, name string) (Header, error) {
	data, err := s.blobs.Get(ctx, name)
	if err != nil {
		return Header{}, err
	}
	return sniff(name, data)
}

// sniff validates the envelope header without decoding the payload
func sniff(name string, data []byte) (Header, error) {
	if !gjson.ValidBytes(data) {
		return Header{}, core.NewCorruptBlobError(name, "not valid JSON")
	}

	fields := gjson.GetManyBytes(data, "format_version", "kind", "checksum", "saved_at")
	switch {
	case !fields[0].Exists():
		return Header{}, core.NewCorruptBlobError(name, "missing format_version")
	case fields[0].Int() != FormatVersion:
		return Header{}, core.NewCorruptBlobError(name, fmt.Sprintf("unsupported format version %s", fields[0].Raw))
	case fields[1].String() != pipelineKind:
		return Header{}, core.NewCorruptBlobError(name, fmt.Sprintf("unexpected kind %q", fields[1].String()))
	}

	return Header{
		FormatVersion: int(fields[0].Int()),
		Kind:          fields[1].String(),
		Checksum:      core.Hash(fields[2].String()),
		SavedAt:       fields[3].Time(),
	}, nil
}

package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Training input errors
	ErrData          = errors.New("invalid training data")
	ErrEmptyDataset  = fmt.Errorf("%w: no examples", ErrData)
	ErrMissingClass  = fmt.Errorf("%w: class has no examples", ErrData)
	ErrUnknownLabel  = fmt.Errorf("%w: unknown label", ErrData)
	ErrMissingColumn = fmt.Errorf("%w: missing column", ErrData)

	// Model store errors
	ErrNotFound    = errors.New("resource not found")
	ErrModelAbsent = fmt.Errorf("%w: model blob", ErrNotFound)
	ErrCorruptBlob = errors.New("corrupt model blob")

	// Serving errors
	ErrNotReady  = errors.New("prediction service not ready")
	ErrEmptyText = errors.New("petition text is empty")

	// Transcription errors
	ErrTranscription        = errors.New("transcription failed")
	ErrTranscriptionTimeout = fmt.Errorf("%w: timed out", ErrTranscription)
	ErrUnsupportedAudio     = fmt.Errorf("%w: unsupported audio format", ErrTranscription)
)

// Error constructors with context
func NewDataError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrData, fmt.Sprintf(format, args...))
}

func NewNotFoundError(resource string, name string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, resource, name)
}

func NewCorruptBlobError(name string, reason string) error {
	return fmt.Errorf("%w %q: %s", ErrCorruptBlob, name, reason)
}

func NewTranscriptionError(cause string) error {
	return fmt.Errorf("%w: %s", ErrTranscription, cause)
}

// Error checking helpers
func IsDataError(err error) bool {
	return errors.Is(err, ErrData)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsCorruptBlobError(err error) bool {
	return errors.Is(err, ErrCorruptBlob)
}

func IsTranscriptionError(err error) bool {
	return errors.Is(err, ErrTranscription)
}

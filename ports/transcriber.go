package ports

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"petitiondesk/domain/core"
)

// AudioFormat is an accepted audio container
type AudioFormat string

const (
	AudioWAV AudioFormat = "wav"
	AudioMP3 AudioFormat = "mp3"
)

// MIMEType returns the content type sent with uploads
func (f AudioFormat) MIMEType() string {
	switch f {
	case AudioWAV:
		return "audio/wav"
	case AudioMP3:
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}

// Transcriber converts recorded speech into text
type Transcriber interface {
	// Transcribe returns core.ErrTranscriptionTimeout when ctx or the client
	// deadline expires and a core.ErrTranscription wrapper on other failures
	Transcribe(ctx context.Context, audio []byte, format AudioFormat) (string, error)
}

// ParseAudioFormat derives the format from a filename extension. Only wav and
// mp3 are accepted.
func ParseAudioFormat(filename string) (AudioFormat, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch AudioFormat(ext) {
	case AudioWAV:
		return AudioWAV, nil
	case AudioMP3:
		return AudioMP3, nil
	default:
		return "", fmt.Errorf("%w: %q", core.ErrUnsupportedAudio, filepath.Ext(filename))
	}
}

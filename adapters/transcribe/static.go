package transcribe

import (
	"context"
	"errors"
	"fmt"

	"petitiondesk/domain/core"
	"petitiondesk/ports"
)

// DefaultTranscript is what Static returns when Text is unset
const DefaultTranscript = "We urge the government to allocate more funds for emergency healthcare services."

// Static returns a fixed transcript for any valid input. Used when no
// endpoint is configured.
type Static struct {
	Text string
}

var _ ports.Transcriber = Static{}

func (s Static) Transcribe(ctx context.Context, audio []byte, format ports.AudioFormat) (string, error) {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", core.ErrTranscriptionTimeout
		}
		return "", core.NewTranscriptionError(err.Error())
	}
	if len(audio) == 0 {
		return "", core.NewTranscriptionError("empty audio")
	}
	if format != ports.AudioWAV && format != ports.AudioMP3 {
		return "", fmt.Errorf("%w: %q", core.ErrUnsupportedAudio, format)
	}
	if s.Text == "" {
		return DefaultTranscript, nil
	}
	return s.Text, nil
}

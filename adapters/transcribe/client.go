// Package transcribe turns recorded petitions into text.
package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"petitiondesk/domain/core"
	apperrors "petitiondesk/internal/errors"
	"petitiondesk/ports"
)

// Config configures an HTTPClient
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// HTTPClient calls an OpenAI-compatible /audio/transcriptions endpoint
type HTTPClient struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	client  *http.Client
}

var _ ports.Transcriber = (*HTTPClient)(nil)

// NewHTTPClient validates config and applies defaults
func NewHTTPClient(config Config) (*HTTPClient, error) {
	baseURL := strings.TrimSpace(config.BaseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("missing transcription base URL")
	}
	model := config.Model
	if model == "" {
		model = "whisper-1"
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  config.APIKey,
		Model:   model,
		Timeout: timeout,
		client:  &http.Client{},
	}, nil
}

// Transcribe uploads audio and returns the recognised text
func (c *HTTPClient) Transcribe(ctx context.Context, audio []byte, format ports.AudioFormat) (string, error) {
	if len(audio) == 0 {
		return "", core.NewTranscriptionError("empty audio")
	}
	if format != ports.AudioWAV && format != ports.AudioMP3 {
		return "", fmt.Errorf("%w: %q", core.ErrUnsupportedAudio, format)
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	body, contentType, err := c.encode(audio, format)
	if err != nil {
		return "", core.NewTranscriptionError(err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/audio/transcriptions", body)
	if err != nil {
		return "", core.NewTranscriptionError(fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", contentType)
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return "", fmt.Errorf("%w after %s", core.ErrTranscriptionTimeout, c.Timeout)
		}
		return "", apperrors.ExternalServiceError("transcription", core.NewTranscriptionError(fmt.Sprintf("request failed: %v", err)))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(ctx, err) {
			return "", fmt.Errorf("%w after %s", core.ErrTranscriptionTimeout, c.Timeout)
		}
		return "", apperrors.ExternalServiceError("transcription", core.NewTranscriptionError(fmt.Sprintf("read response: %v", err)))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := gjson.GetBytes(raw, "error.message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return "", apperrors.ExternalServiceError("transcription", core.NewTranscriptionError(fmt.Sprintf("http %d: %s", resp.StatusCode, msg)))
	}

	text := strings.TrimSpace(gjson.GetBytes(raw, "text").String())
	if text == "" {
		return "", apperrors.ExternalServiceError("transcription", core.NewTranscriptionError("empty transcript"))
	}
	return text, nil
}

func (c *HTTPClient) encode(audio []byte, format ports.AudioFormat) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("model", c.Model); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("response_format", "json"); err != nil {
		return nil, "", err
	}
	part, err := mw.CreateFormFile("file", "petition."+string(format))
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

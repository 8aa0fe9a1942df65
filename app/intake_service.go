package app

import (
	"context"
	"fmt"
	"time"

	"petitiondesk/domain/core"
	"petitiondesk/domain/submission"
	"petitiondesk/internal/logging"
	"petitiondesk/ports"
)

// IntakeService classifies incoming petitions and records them in a ledger
type IntakeService struct {
	predictor   *PredictionService
	transcriber ports.Transcriber
	now         func() time.Time
	log         *logging.Logger
}

// NewIntakeService wires the prediction service and a transcriber
func NewIntakeService(predictor *PredictionService, transcriber ports.Transcriber) *IntakeService {
	return &IntakeService{
		predictor:   predictor,
		transcriber: transcriber,
		now:         time.Now,
		log:         logging.New("Intake"),
	}
}

// SubmitText classifies text and appends the submission to ledger
func (s *IntakeService) SubmitText(ctx context.Context, ledger ports.SubmissionLedger, text string) (*submission.Submission, error) {
	return s.record(ctx, ledger, text, submission.SourceText)
}

// SubmitAudio transcribes audio, then proceeds as SubmitText. Nothing is
// recorded when transcription fails.
func (s *IntakeService) SubmitAudio(ctx context.Context, ledger ports.SubmissionLedger, audio []byte, filename string) (*submission.Submission, error) {
	format, err := ports.ParseAudioFormat(filename)
	if err != nil {
		return nil, err
	}
	if !s.predictor.Ready() {
		return nil, core.ErrNotReady
	}

	text, err := s.transcriber.Transcribe(ctx, audio, format)
	if err != nil {
		s.log.Warn("transcription of %s failed: %v", filename, err)
		return nil, err
	}
	return s.record(ctx, ledger, text, submission.SourceAudio)
}

func (s *IntakeService) record(ctx context.Context, ledger ports.SubmissionLedger, text string, source submission.SourceType) (*submission.Submission, error) {
	pred, err := s.predictor.Classify(ctx, text)
	if err != nil {
		return nil, err
	}

	sub := submission.Submission{
		ID:         core.NewSubmissionID(),
		SessionID:  ledger.SessionID(),
		Text:       text,
		Category:   pred.Category,
		Urgency:    pred.Urgency,
		Confidence: pred.Confidence,
		Timestamp:  s.now(),
		SourceType: source,
	}
	if err := ledger.Append(sub); err != nil {
		return nil, fmt.Errorf("failed to record submission: %w", err)
	}

	s.log.Debug("recorded %s submission %s as %s/%s (%.2f)", source, sub.ID, sub.Category, sub.Urgency, sub.Confidence)
	return &sub, nil
}

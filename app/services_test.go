package app

import (
	"context"
	"testing"
	"time"

	"petitiondesk/domain/core"
	"petitiondesk/domain/petition"
	"petitiondesk/domain/submission"
	"petitiondesk/internal/ledger"
	"petitiondesk/internal/modelstore"
	"petitiondesk/internal/testkit"
	"petitiondesk/internal/textclf"
	"petitiondesk/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const healthcarePetition = "We urge the government to allocate more funds for emergency healthcare services."

func TestTrainingService_Train(t *testing.T) {
	ctx := context.Background()
	store := testkit.EmptyStore(t)
	svc := NewTrainingService(store, textclf.DefaultOptions())

	report, err := svc.Train(ctx, testkit.Examples(t, testkit.DefaultRows, 42))
	require.NoError(t, err)

	assert.Equal(t, testkit.DefaultRows, report.Rows)
	assert.Equal(t, 360, report.Category.TrainRows)
	assert.Equal(t, 90, report.Category.TestRows)
	assert.Equal(t, report.Category.TestRows, report.Urgency.TestRows)
	assert.Len(t, report.Category.Classes, len(petition.Categories))
	assert.Len(t, report.Urgency.Classes, len(petition.Urgencies))

	// templates are distinct per category, so held-out category accuracy is perfect
	assert.Equal(t, 1.0, report.Category.Accuracy)
	assert.Greater(t, report.Category.MeanConfidence, 1.0/9)
	// urgency is independent of the text
	assert.InDelta(t, 1.0/3, report.Urgency.Accuracy, 0.25)

	for _, name := range []string{modelstore.CategoryModel, modelstore.UrgencyModel} {
		_, err := store.Load(ctx, name)
		assert.NoError(t, err, name)
	}
}

func TestTrainingService_DataErrors(t *testing.T) {
	ctx := context.Background()
	withoutEducation := func() []petition.LabeledExample {
		var out []petition.LabeledExample
		for _, e := range testkit.Examples(t, 300, 1) {
			if e.Category != petition.CategoryEducation {
				out = append(out, e)
			}
		}
		return out
	}

	tests := []struct {
		name     string
		examples []petition.LabeledExample
		target   error
	}{
		{"empty", nil, core.ErrEmptyDataset},
		{"too small to split", testkit.Examples(t, 1, 1), core.ErrData},
		{"missing category", withoutEducation(), core.ErrMissingClass},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testkit.EmptyStore(t)
			_, err := NewTrainingService(store, textclf.DefaultOptions()).Train(ctx, tt.examples)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.True(t, core.IsDataError(err))

			// nothing is saved when either task fails
			_, err = store.Load(ctx, modelstore.UrgencyModel)
			assert.True(t, core.IsNotFoundError(err))
		})
	}
}

func TestTrainingService_Reproducible(t *testing.T) {
	ctx := context.Background()
	examples := testkit.Examples(t, 270, 9)

	predict := func() (string, []float64) {
		store := testkit.EmptyStore(t)
		_, err := NewTrainingService(store, textclf.DefaultOptions()).Train(ctx, examples)
		require.NoError(t, err)
		p, err := store.Load(ctx, modelstore.UrgencyModel)
		require.NoError(t, err)
		return p.Predict(healthcarePetition), p.PredictProba(healthcarePetition)
	}

	label1, proba1 := predict()
	label2, proba2 := predict()
	assert.Equal(t, label1, label2)
	assert.Equal(t, proba1, proba2)
}

func TestPredictionService_NotReady(t *testing.T) {
	ctx := context.Background()
	svc := NewPredictionService(testkit.EmptyStore(t))

	assert.False(t, svc.Ready())
	assert.Nil(t, svc.Categories())

	_, err := svc.Classify(ctx, healthcarePetition)
	assert.ErrorIs(t, err, core.ErrNotReady)

	err = svc.Load(ctx)
	assert.True(t, core.IsNotFoundError(err))
	assert.False(t, svc.Ready())
}

func TestPredictionService_LoadCorruptBlob(t *testing.T) {
	for _, name := range []string{modelstore.CategoryModel, modelstore.UrgencyModel} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store, blobs := testkit.TrainedStoreWithBlobs(t)
			data, err := blobs.Get(ctx, name)
			require.NoError(t, err)
			require.NoError(t, blobs.Put(ctx, name, data[:len(data)/2]))

			svc := NewPredictionService(store)
			err = svc.Load(ctx)
			require.Error(t, err)
			assert.True(t, core.IsCorruptBlobError(err), "got %v", err)
			assert.False(t, svc.Ready())

			_, err = svc.Classify(ctx, healthcarePetition)
			assert.ErrorIs(t, err, core.ErrNotReady)
		})
	}
}

func TestPredictionService_FailedReloadClearsModels(t *testing.T) {
	ctx := context.Background()
	store, blobs := testkit.TrainedStoreWithBlobs(t)
	svc := NewPredictionService(store)
	require.NoError(t, svc.Load(ctx))
	require.True(t, svc.Ready())

	require.NoError(t, blobs.Put(ctx, modelstore.UrgencyModel, []byte("{")))
	require.Error(t, svc.Load(ctx))
	assert.False(t, svc.Ready())
}

func TestPredictionService_Classify(t *testing.T) {
	ctx := context.Background()
	svc := NewPredictionService(testkit.TrainedStore(t))
	require.NoError(t, svc.Load(ctx))
	assert.True(t, svc.Ready())
	assert.Len(t, svc.Categories(), len(petition.Categories))

	for _, c := range petition.Categories {
		pred, err := svc.Classify(ctx, petition.Templates[c].Petition)
		require.NoError(t, err)
		assert.Equal(t, string(c), pred.Category)
		assert.Greater(t, pred.Confidence, 1.0/9)
		assert.LessOrEqual(t, pred.Confidence, 1.0)
		assert.Contains(t, petition.Urgencies, pred.Urgency)
	}

	first, err := svc.Classify(ctx, healthcarePetition)
	require.NoError(t, err)
	second, err := svc.Classify(ctx, healthcarePetition)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPredictionService_EmptyText(t *testing.T) {
	svc := NewPredictionService(testkit.TrainedStore(t))
	require.NoError(t, svc.Load(context.Background()))

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := svc.Classify(context.Background(), text)
		assert.ErrorIs(t, err, core.ErrEmptyText)
	}
}

func newIntake(t *testing.T, transcriber ports.Transcriber) *IntakeService {
	t.Helper()
	predictor := NewPredictionService(testkit.TrainedStore(t))
	require.NoError(t, predictor.Load(context.Background()))
	svc := NewIntakeService(predictor, transcriber)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC) }
	return svc
}

func TestIntakeService_SubmitText(t *testing.T) {
	svc := newIntake(t, &testkit.MockTranscriber{})
	l := ledger.New(core.NewSessionID())

	sub, err := svc.SubmitText(context.Background(), l, healthcarePetition)
	require.NoError(t, err)
	assert.Equal(t, "Healthcare", sub.Category)
	assert.Equal(t, submission.SourceText, sub.SourceType)
	assert.Equal(t, l.SessionID(), sub.SessionID)
	assert.False(t, sub.ID == "")
	assert.Equal(t, 1, l.Len())

	_, err = svc.SubmitText(context.Background(), l, "  ")
	assert.ErrorIs(t, err, core.ErrEmptyText)
	assert.Equal(t, 1, l.Len())
}

func TestIntakeService_SubmitAudio(t *testing.T) {
	transcriber := &testkit.MockTranscriber{}
	audio := []byte("RIFF-audio")
	transcriber.On("Transcribe", mock.Anything, audio, ports.AudioWAV).Return(healthcarePetition, nil).Once()
	transcriber.On("Transcribe", mock.Anything, audio, ports.AudioMP3).Return("", core.ErrTranscriptionTimeout).Once()

	svc := newIntake(t, transcriber)
	l := ledger.New(core.NewSessionID())

	sub, err := svc.SubmitAudio(context.Background(), l, audio, "petition.wav")
	require.NoError(t, err)
	assert.Equal(t, "Healthcare", sub.Category)
	assert.Equal(t, healthcarePetition, sub.Text)
	assert.Equal(t, submission.SourceAudio, sub.SourceType)

	_, err = svc.SubmitAudio(context.Background(), l, audio, "petition.mp3")
	assert.ErrorIs(t, err, core.ErrTranscriptionTimeout)

	_, err = svc.SubmitAudio(context.Background(), l, audio, "petition.ogg")
	assert.ErrorIs(t, err, core.ErrUnsupportedAudio)

	assert.Equal(t, 1, l.Len())
	transcriber.AssertExpectations(t)
}

func TestIntakeService_NotReadySkipsTranscription(t *testing.T) {
	transcriber := &testkit.MockTranscriber{}
	svc := NewIntakeService(NewPredictionService(testkit.EmptyStore(t)), transcriber)

	_, err := svc.SubmitAudio(context.Background(), ledger.New(core.NewSessionID()), []byte("x"), "a.mp3")
	assert.ErrorIs(t, err, core.ErrNotReady)
	transcriber.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything, mock.Anything)
}

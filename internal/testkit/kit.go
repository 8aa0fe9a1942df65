// Package testkit provides fixtures shared by service and handler tests.
package testkit

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"petitiondesk/adapters/blobstore"
	"petitiondesk/domain/petition"
	"petitiondesk/internal/modelstore"
	"petitiondesk/internal/synthesizer"
	"petitiondesk/internal/textclf"
	"petitiondesk/ports"
)

// DefaultRows is large enough that every category and urgency lands in any
// 80% training split
const DefaultRows = 450

// Examples generates a seeded synthetic dataset
func Examples(t testing.TB, rows int, seed int64) []petition.LabeledExample {
	t.Helper()
	ds, err := synthesizer.Generate(synthesizer.Config{Rows: rows, Seed: seed})
	require.NoError(t, err)
	return ds.Examples
}

var (
	fitOnce     sync.Once
	categoryFit *textclf.Pipeline
	urgencyFit  *textclf.Pipeline
	fitErr      error
)

// fittedPipelines fits both pipelines once per test binary
func fittedPipelines(t testing.TB) (*textclf.Pipeline, *textclf.Pipeline) {
	t.Helper()
	fitOnce.Do(func() {
		examples := Examples(t, DefaultRows, 42)
		texts := petition.Texts(examples)
		categoryFit, _, fitErr = textclf.Fit(texts, petition.CategoryLabels(examples), textclf.DefaultOptions())
		if fitErr != nil {
			return
		}
		urgencyFit, _, fitErr = textclf.Fit(texts, petition.UrgencyLabels(examples), textclf.DefaultOptions())
	})
	require.NoError(t, fitErr)
	return categoryFit, urgencyFit
}

// EmptyStore returns a model store over a fresh temp directory
func EmptyStore(t testing.TB) *modelstore.Store {
	t.Helper()
	store, _ := emptyStoreWithBlobs(t)
	return store
}

// TrainedStore returns a model store holding both fitted pipelines
func TrainedStore(t testing.TB) *modelstore.Store {
	t.Helper()
	store, _ := TrainedStoreWithBlobs(t)
	return store
}

// TrainedStoreWithBlobs is TrainedStore plus the blob store underneath, for
// tests that damage saved models
func TrainedStoreWithBlobs(t testing.TB) (*modelstore.Store, *blobstore.Local) {
	t.Helper()
	store, blobs := emptyStoreWithBlobs(t)
	category, urgency := fittedPipelines(t)
	require.NoError(t, store.Save(context.Background(), category, modelstore.CategoryModel))
	require.NoError(t, store.Save(context.Background(), urgency, modelstore.UrgencyModel))
	return store, blobs
}

func emptyStoreWithBlobs(t testing.TB) (*modelstore.Store, *blobstore.Local) {
	t.Helper()
	blobs, err := blobstore.NewLocal(t.TempDir())
	require.NoError(t, err)
	return modelstore.New(blobs), blobs
}

// MockTranscriber is a testify mock of ports.Transcriber
type MockTranscriber struct {
	mock.Mock
}

var _ ports.Transcriber = (*MockTranscriber)(nil)

func (m *MockTranscriber) Transcribe(ctx context.Context, audio []byte, format ports.AudioFormat) (string, error) {
	args := m.Called(ctx, audio, format)
	return args.String(0), args.Error(1)
}

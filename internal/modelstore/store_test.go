package modelstore

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"petitiondesk/adapters/blobstore"
	"petitiondesk/domain/core"
	"petitiondesk/domain/petition"
	"petitiondesk/internal/synthesizer"
	"petitiondesk/internal/textclf"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fittedPipeline(t *testing.T) *textclf.Pipeline {
	t.Helper()
	return fittedFor(t, petition.CategoryLabels)
}

func fittedFor(t *testing.T, labels func([]petition.LabeledExample) []string) *textclf.Pipeline {
	t.Helper()
	ds, err := synthesizer.Generate(synthesizer.Config{Rows: 180, Seed: 42})
	require.NoError(t, err)
	p, _, err := textclf.Fit(petition.Texts(ds.Examples), labels(ds.Examples), textclf.DefaultOptions())
	require.NoError(t, err)
	return p
}

func newStore(t *testing.T) (*Store, *blobstore.Local) {
	t.Helper()
	blobs, err := blobstore.NewLocal(t.TempDir())
	require.NoError(t, err)
	store := New(blobs)
	store.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return store, blobs
}

func TestStore_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		model   string
		labels  func([]petition.LabeledExample) []string
		classes int
	}{
		{"category", CategoryModel, petition.CategoryLabels, len(petition.Categories)},
		{"urgency", UrgencyModel, petition.UrgencyLabels, len(petition.Urgencies)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store, _ := newStore(t)
			p := fittedFor(t, tt.labels)

			require.NoError(t, store.Save(ctx, p, tt.model))
			loaded, err := store.Load(ctx, tt.model)
			require.NoError(t, err)

			assert.Len(t, loaded.Classes(), tt.classes)
			assert.Equal(t, p.Classes(), loaded.Classes())
			for _, text := range []string{
				"The hospital in our area has long wait times.",
				"Crime rates are rising in our neighborhood.",
				"completely unrelated words",
			} {
				assert.Equal(t, p.Predict(text), loaded.Predict(text))
				assert.InDeltaSlice(t, p.PredictProba(text), loaded.PredictProba(text), 1e-12)
			}

			header, err := store.Inspect(ctx, tt.model)
			require.NoError(t, err)
			assert.Equal(t, FormatVersion, header.FormatVersion)
			assert.Equal(t, "tfidf_logreg", header.Kind)
			assert.True(t, header.SavedAt.Equal(store.now()))
			assert.False(t, header.Checksum.IsEmpty())
		})
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	store, blobs := newStore(t)
	p := fittedPipeline(t)

	require.NoError(t, store.Save(ctx, p, UrgencyModel))
	require.NoError(t, store.Save(ctx, p, UrgencyModel))

	names, err := blobs.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{UrgencyModel}, names)
}

func TestStore_LoadMissing(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.Load(context.Background(), CategoryModel)
	require.Error(t, err)
	assert.True(t, core.IsNotFoundError(err))
	assert.ErrorIs(t, err, core.ErrModelAbsent)
}

func TestStore_LoadCorrupt(t *testing.T) {
	ctx := context.Background()
	store, blobs := newStore(t)
	require.NoError(t, store.Save(ctx, fittedPipeline(t), CategoryModel))
	good, err := blobs.Get(ctx, CategoryModel)
	require.NoError(t, err)

	inconsistent := func() []byte {
		payload := []byte(`{"vocabulary":["road"],"idf":[1],"classes":["A","B"],"coef":[[1]],"intercept":[0,0],"seed":1}`)
		data, err := json.Marshal(envelope{
			FormatVersion: FormatVersion,
			Kind:          pipelineKind,
			Checksum:      core.NewHash(payload),
			Payload:       payload,
		})
		require.NoError(t, err)
		return data
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"truncated", good[:len(good)/2]},
		{"empty", []byte{}},
		{"not json", []byte("pickle protocol 4")},
		{"future version", bytes.Replace(good, []byte(`"format_version":1`), []byte(`"format_version":2`), 1)},
		{"wrong kind", bytes.Replace(good, []byte(`"kind":"tfidf_logreg"`), []byte(`"kind":"forest"`), 1)},
		{"tampered payload", bytes.Replace(good, []byte(`"seed":42`), []byte(`"seed":43`), 1)},
		{"inconsistent payload", inconsistent()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, blobs.Put(ctx, CategoryModel, tt.data))
			_, err := store.Load(ctx, CategoryModel)
			require.Error(t, err)
			assert.True(t, core.IsCorruptBlobError(err), "got %v", err)
		})
	}
}

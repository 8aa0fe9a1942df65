package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"petitiondesk/app"
	"petitiondesk/internal/testkit"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, trained bool) http.Handler {
	t.Helper()
	store := testkit.EmptyStore(t)
	if trained {
		store = testkit.TrainedStore(t)
	}
	predictor := app.NewPredictionService(store)
	if trained {
		require.NoError(t, predictor.Load(context.Background()))
	}
	return NewServer(predictor, gin.TestMode).Handler()
}

func call(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestClassify(t *testing.T) {
	h := newServer(t, true)

	rec := call(h, http.MethodPost, "/api/v1/classify",
		`{"text": "We request increased police patrols and better street lighting to reduce crime."}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Category   string  `json:"category"`
		Urgency    string  `json:"urgency"`
		Confidence float64 `json:"confidence"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Public Safety", got.Category)
	assert.Contains(t, []string{"High", "Medium", "Low"}, got.Urgency)
	assert.Greater(t, got.Confidence, 0.0)
	assert.LessOrEqual(t, got.Confidence, 1.0)
}

func TestClassify_Errors(t *testing.T) {
	tests := []struct {
		name    string
		trained bool
		body    string
		status  int
		code    string
	}{
		{"empty text", true, `{"text": "  "}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"malformed body", true, `{"text":`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"not ready", false, `{"text": "potholes"}`, http.StatusServiceUnavailable, "NOT_READY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(newServer(t, tt.trained), http.MethodPost, "/api/v1/classify", tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var body struct {
				Error ErrorBody `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestHealth(t *testing.T) {
	rec := call(newServer(t, false), http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_ready")

	rec = call(newServer(t, true), http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Economic Development")
}

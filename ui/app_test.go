package ui

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"petitiondesk/app"
	"petitiondesk/domain/core"
	"petitiondesk/domain/submission"
	"petitiondesk/internal/ledger"
	"petitiondesk/internal/testkit"
	"petitiondesk/ports"
	"petitiondesk/ui/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const healthcarePetition = "We urge the government to allocate more funds for emergency healthcare services."

type fixture struct {
	handler     http.Handler
	registry    *ledger.Registry
	transcriber *testkit.MockTranscriber
}

func newFixture(t *testing.T, trained bool) *fixture {
	t.Helper()
	store := testkit.EmptyStore(t)
	if trained {
		store = testkit.TrainedStore(t)
	}
	predictor := app.NewPredictionService(store)
	if trained {
		require.NoError(t, predictor.Load(context.Background()))
	}
	transcriber := &testkit.MockTranscriber{}
	registry := ledger.NewRegistry()

	a, err := NewApp(predictor, app.NewIntakeService(predictor, transcriber), registry)
	require.NoError(t, err)
	return &fixture{handler: a.Handler(), registry: registry, transcriber: transcriber}
}

func (f *fixture) do(t *testing.T, req *http.Request, session *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	if session != nil {
		req.AddCookie(session)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func postText(text string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/submit/text", strings.NewReader(url.Values{"text": {text}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func postAudio(t *testing.T, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio", filename)
	require.NoError(t, err)
	_, _ = part.Write(data)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/submit/audio", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie set", middleware.SessionCookie)
	return nil
}

func TestIndex_SetsSessionAndRendersHelp(t *testing.T) {
	f := newFixture(t, true)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "How it works</h3>")
	assert.Contains(t, rec.Body.String(), "Healthcare")

	c := sessionCookie(t, rec)
	_, err := core.ParseSessionID(c.Value)
	assert.NoError(t, err)
}

func TestSubmitText_RecordsInSessionLedger(t *testing.T) {
	f := newFixture(t, true)
	first := f.do(t, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	session := sessionCookie(t, first)

	rec := f.do(t, postText(healthcarePetition), session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Petition submitted successfully!")
	assert.Contains(t, rec.Body.String(), "Healthcare")

	l, ok := f.registry.Lookup(core.SessionID(session.Value))
	require.True(t, ok)
	assert.Equal(t, 1, l.Len())

	review := f.do(t, httptest.NewRequest(http.MethodGet, "/submissions", nil), session)
	require.Equal(t, http.StatusOK, review.Code)
	assert.Contains(t, review.Body.String(), healthcarePetition)

	// another session sees nothing
	other := f.do(t, httptest.NewRequest(http.MethodGet, "/submissions", nil), nil)
	assert.Contains(t, other.Body.String(), "No submissions matching selected filters")
}

func TestSubmitText_Errors(t *testing.T) {
	tests := []struct {
		name    string
		trained bool
		text    string
		status  int
		message string
	}{
		{"empty text", true, "   ", http.StatusBadRequest, "Please enter a petition"},
		{"not ready", false, healthcarePetition, http.StatusServiceUnavailable, "not loaded yet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.trained)
			rec := f.do(t, postText(tt.text), nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.message)
		})
	}
}

func TestSubmitAudio(t *testing.T) {
	f := newFixture(t, true)
	f.transcriber.On("Transcribe", mock.Anything, []byte("RIFF"), ports.AudioWAV).Return(healthcarePetition, nil)
	f.transcriber.On("Transcribe", mock.Anything, []byte("ID3"), ports.AudioMP3).Return("", core.ErrTranscriptionTimeout)

	rec := f.do(t, postAudio(t, "petition.wav", []byte("RIFF")), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Transcribed text")

	rec = f.do(t, postAudio(t, "petition.mp3", []byte("ID3")), nil)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Contains(t, rec.Body.String(), "timed out")

	rec = f.do(t, postAudio(t, "petition.ogg", []byte("OggS")), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Only WAV and MP3")

	missing := httptest.NewRequest(http.MethodPost, "/submit/audio", strings.NewReader(""))
	missing.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rec = f.do(t, missing, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmissions_FilterAndExport(t *testing.T) {
	f := newFixture(t, true)
	session := sessionCookie(t, f.do(t, httptest.NewRequest(http.MethodGet, "/", nil), nil))
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, f.do(t, postText(healthcarePetition), session).Code)
	}
	l, _ := f.registry.Lookup(core.SessionID(session.Value))
	all := l.List(submission.Filter{})
	require.Len(t, all, 3)

	bad := f.do(t, httptest.NewRequest(http.MethodGet, "/submissions?priority=Urgent", nil), session)
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	level := string(all[0].Urgency)
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/submissions/export.xlsx?priority="+level, nil), session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "submissions.xlsx")

	wb, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows("Submissions")
	require.NoError(t, err)

	want := 0
	for _, s := range all {
		if string(s.Urgency) == level {
			want++
		}
	}
	assert.Len(t, rows, want+1)
}


func TestReadOnlyPages_DoNotRegisterSessions(t *testing.T) {
	f := newFixture(t, true)

	for i := 0; i < 1000; i++ {
		rec := f.do(t, httptest.NewRequest(http.MethodGet, "/", nil), nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 0, f.registry.Len())

	forged := &http.Cookie{Name: middleware.SessionCookie, Value: core.NewSessionID().String()}
	for _, path := range []string{"/", "/submissions", "/submissions/export.xlsx"} {
		rec := f.do(t, httptest.NewRequest(http.MethodGet, path, nil), forged)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
	assert.Equal(t, 0, f.registry.Len())

	require.Equal(t, http.StatusOK, f.do(t, postText(healthcarePetition), forged).Code)
	assert.Equal(t, 1, f.registry.Len())
}

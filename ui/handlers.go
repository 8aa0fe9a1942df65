package ui

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"

	"petitiondesk/domain/core"
	"petitiondesk/domain/petition"
	"petitiondesk/domain/submission"
	"petitiondesk/internal/errors"
	"petitiondesk/internal/ledger"
	"petitiondesk/ui/middleware"
)

type indexPage struct {
	Ready      bool
	Categories []string
	Help       template.HTML
	Tab        string
	Text       string
	Result     *submission.Submission
	Error      string
}

type submissionsPage struct {
	Rows     []submission.Submission
	Stats    submission.Stats
	Selected map[string]bool
	Levels   []petition.Urgency
	Export   template.URL
}

func (a *App) indexPage() indexPage {
	return indexPage{
		Ready:      a.predictor.Ready(),
		Categories: a.predictor.Categories(),
		Help:       a.help,
		Tab:        "text",
	}
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	a.renderTemplate(w, http.StatusOK, "index.html", a.indexPage())
}

func (a *App) handleSubmitText(w http.ResponseWriter, r *http.Request) {
	l := a.sessionLedger(r)
	page := a.indexPage()
	page.Text = r.FormValue("text")

	sub, err := a.intake.SubmitText(r.Context(), l, page.Text)
	if err != nil {
		a.renderFailure(w, page, err)
		return
	}

	page.Result = sub
	page.Text = ""
	a.renderTemplate(w, http.StatusOK, "index.html", page)
}

func (a *App) handleSubmitAudio(w http.ResponseWriter, r *http.Request) {
	l := a.sessionLedger(r)
	page := a.indexPage()
	page.Tab = "audio"

	r.Body = http.MaxBytesReader(w, r.Body, MaxAudioBytes+1<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			page.Error = fmt.Sprintf("Audio files are limited to %d MB.", MaxAudioBytes>>20)
			a.renderTemplate(w, http.StatusRequestEntityTooLarge, "index.html", page)
			return
		}
		page.Error = "Please upload an audio file first."
		a.renderTemplate(w, http.StatusBadRequest, "index.html", page)
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		page.Error = "Please upload an audio file first."
		a.renderTemplate(w, http.StatusBadRequest, "index.html", page)
		return
	}
	defer file.Close()

	if header.Size > MaxAudioBytes {
		page.Error = fmt.Sprintf("Audio files are limited to %d MB.", MaxAudioBytes>>20)
		a.renderTemplate(w, http.StatusRequestEntityTooLarge, "index.html", page)
		return
	}
	audio, err := io.ReadAll(file)
	if err != nil {
		a.renderFailure(w, page, err)
		return
	}

	sub, err := a.intake.SubmitAudio(r.Context(), l, audio, header.Filename)
	if err != nil {
		a.renderFailure(w, page, err)
		return
	}

	page.Result = sub
	a.renderTemplate(w, http.StatusOK, "index.html", page)
}

func (a *App) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	filter, selected, err := parseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	l := a.existingLedger(r)

	a.renderTemplate(w, http.StatusOK, "submissions.html", submissionsPage{
		Rows:     l.List(filter),
		Stats:    l.Stats(),
		Selected: selected,
		Levels:   petition.Urgencies,
		Export:   exportURL(filter),
	})
}

func (a *App) handleExport(w http.ResponseWriter, r *http.Request) {
	filter, _, err := parseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := ledger.ExportXLSX(&buf, a.existingLedger(r).List(filter)); err != nil {
		a.log.Error("export: %v", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="submissions.xlsx"`)
	_, _ = buf.WriteTo(w)
}

// exportURL carries the review filter over to the spreadsheet download
func exportURL(filter submission.Filter) template.URL {
	q := url.Values{}
	for _, u := range filter.Urgencies {
		q.Add("priority", string(u))
	}
	if len(q) == 0 {
		return "/submissions/export.xlsx"
	}
	return template.URL("/submissions/export.xlsx?" + q.Encode())
}

// sessionLedger returns the ledger for the caller's session, registering it
// on first use
func (a *App) sessionLedger(r *http.Request) *ledger.Ledger {
	session, ok := middleware.SessionFrom(r.Context())
	if !ok {
		return ledger.New(core.NewSessionID())
	}
	return a.registry.Get(session)
}

// existingLedger returns the caller's ledger without registering one. Sessions
// that never submitted see an empty, unregistered ledger.
func (a *App) existingLedger(r *http.Request) *ledger.Ledger {
	session, ok := middleware.SessionFrom(r.Context())
	if !ok {
		return ledger.New(core.NewSessionID())
	}
	if l, found := a.registry.Lookup(session); found {
		return l
	}
	return ledger.New(session)
}

// parseFilter reads repeated ?priority= values. No values selects every level.
func parseFilter(r *http.Request) (submission.Filter, map[string]bool, error) {
	var filter submission.Filter
	selected := make(map[string]bool)
	for _, raw := range r.URL.Query()["priority"] {
		u, err := petition.ParseUrgency(raw)
		if err != nil {
			return filter, nil, err
		}
		filter.Urgencies = append(filter.Urgencies, u)
		selected[string(u)] = true
	}
	if len(selected) == 0 {
		for _, u := range petition.Urgencies {
			selected[string(u)] = true
		}
	}
	return filter, selected, nil
}

func (a *App) renderFailure(w http.ResponseWriter, page indexPage, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatus(code)

	switch {
	case stderrors.Is(err, core.ErrEmptyText):
		page.Error = "Please enter a petition before submitting."
	case stderrors.Is(err, core.ErrNotReady):
		page.Error = "The classifier is not loaded yet. Train the models and restart the server."
	case stderrors.Is(err, core.ErrUnsupportedAudio):
		page.Error = "Only WAV and MP3 recordings are accepted."
	case stderrors.Is(err, core.ErrTranscriptionTimeout):
		page.Error = "Transcription timed out. Please try again."
	case core.IsTranscriptionError(err):
		page.Error = fmt.Sprintf("Transcription failed: %v", err)
	default:
		a.log.Error("submission failed: %v", err)
		page.Error = "Something went wrong while processing the petition."
	}
	a.renderTemplate(w, status, "index.html", page)
}

// Package ui serves the petition submission and review pages.
package ui

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"petitiondesk/app"
	"petitiondesk/internal/ledger"
	"petitiondesk/internal/logging"
	"petitiondesk/ui/middleware"
)

//go:embed templates/*.html help.md
var embeddedFiles embed.FS

// MaxAudioBytes caps audio uploads
const MaxAudioBytes = 25 << 20

// App represents the UI application
type App struct {
	router    *chi.Mux
	predictor *app.PredictionService
	intake    *app.IntakeService
	registry  *ledger.Registry
	templates *template.Template
	help      template.HTML
	log       *logging.Logger
}

// NewApp creates a new UI application
func NewApp(predictor *app.PredictionService, intake *app.IntakeService, registry *ledger.Registry) (*App, error) {
	funcMap := template.FuncMap{
		"pct": func(v float64) string { return fmt.Sprintf("%.2f%%", v*100) },
		"stamp": func(t time.Time) string {
			return t.Local().Format("2006-01-02 15:04:05")
		},
		"selected": func(set map[string]bool, key string) bool { return set[key] },
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	help, err := renderHelp()
	if err != nil {
		return nil, err
	}

	a := &App{
		router:    chi.NewRouter(),
		predictor: predictor,
		intake:    intake,
		registry:  registry,
		templates: templates,
		help:      help,
		log:       logging.New("UI"),
	}

	a.setupMiddleware()
	a.setupRoutes()

	return a, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(chimw.RequestID)
	a.router.Use(chimw.Logger)
	a.router.Use(chimw.Recoverer)
	a.router.Use(chimw.Compress(5))
	a.router.Use(middleware.EnsureSession())
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Post("/submit/text", a.handleSubmitText)
	a.router.Post("/submit/audio", a.handleSubmitAudio)
	a.router.Get("/submissions", a.handleSubmissions)
	a.router.Get("/submissions/export.xlsx", a.handleExport)
}

// Handler exposes the router for tests and embedding
func (a *App) Handler() http.Handler {
	return a.router
}

// Start serves on addr until ctx is cancelled
func (a *App) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

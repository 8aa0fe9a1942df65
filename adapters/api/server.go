// Package api exposes the prediction service as a JSON API.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"petitiondesk/app"
	apperrors "petitiondesk/internal/errors"
	"petitiondesk/internal/logging"
)

// Server serves /api/v1 on gin
type Server struct {
	engine    *gin.Engine
	predictor *app.PredictionService
	log       *logging.Logger
}

// ClassifyRequest is the body of POST /api/v1/classify
type ClassifyRequest struct {
	Text string `json:"text"`
}

// ErrorBody is returned with every non-2xx response
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewServer builds the router. mode is a gin mode: debug, release or test.
func NewServer(predictor *app.PredictionService, mode string) *Server {
	if mode != "" {
		gin.SetMode(mode)
	}

	s := &Server{
		engine:    gin.New(),
		predictor: predictor,
		log:       logging.New("API"),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())

	v1 := s.engine.Group("/api/v1")
	v1.POST("/classify", s.handleClassify)
	v1.GET("/health", s.handleHealth)

	return s
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Microsecond))
	}
}

func (s *Server) handleClassify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, apperrors.ValidationError("request body must be JSON with a text field"))
		return
	}

	pred, err := s.predictor.Classify(c.Request.Context(), req.Text)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, pred)
}

func (s *Server) handleHealth(c *gin.Context) {
	if !s.predictor.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"categories": s.predictor.Categories(),
	})
}

func (s *Server) abort(c *gin.Context, err error) {
	code := apperrors.GetCode(err)
	status := apperrors.HTTPStatus(code)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		s.log.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": ErrorBody{Code: code, Message: err.Error()}})
}

// Start serves on addr until ctx is cancelled
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening on %s", addr)
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
		return srv.Shutdown(shutdownCtx)
	}
}

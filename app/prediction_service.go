package app

import (
	"context"
	"strings"
	"sync"

	"gonum.org/v1/gonum/floats"

	"petitiondesk/domain/core"
	"petitiondesk/domain/petition"
	"petitiondesk/internal/logging"
	"petitiondesk/internal/modelstore"
	"petitiondesk/ports"
)

// Prediction is the result of classifying one petition
type Prediction struct {
	Category   string           `json:"category"`
	Urgency    petition.Urgency `json:"urgency"`
	Confidence float64          `json:"confidence"`
}

// PredictionService serves the two stored pipelines. Loaded pipelines are
// never mutated, so Classify runs without holding the lock.
type PredictionService struct {
	store *modelstore.Store
	log   *logging.Logger

	mu       sync.RWMutex
	category ports.Classifier
	urgency  ports.Classifier
}

// NewPredictionService creates a service that is not ready until Load succeeds
func NewPredictionService(store *modelstore.Store) *PredictionService {
	return &PredictionService{
		store: store,
		log:   logging.New("Prediction"),
	}
}

// Load reads both pipelines. On any failure the service is left not ready.
func (s *PredictionService) Load(ctx context.Context) error {
	category, err := s.store.Load(ctx, modelstore.CategoryModel)
	if err != nil {
		s.reset()
		return err
	}
	urgency, err := s.store.Load(ctx, modelstore.UrgencyModel)
	if err != nil {
		s.reset()
		return err
	}

	s.mu.Lock()
	s.category, s.urgency = category, urgency
	s.mu.Unlock()

	s.log.Info("loaded %d categories and %d urgency levels", len(category.Classes()), len(urgency.Classes()))
	return nil
}

func (s *PredictionService) reset() {
	s.mu.Lock()
	s.category, s.urgency = nil, nil
	s.mu.Unlock()
}

func (s *PredictionService) classifiers() (ports.Classifier, ports.Classifier) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.category, s.urgency
}

// Ready reports whether both pipelines are loaded
func (s *PredictionService) Ready() bool {
	category, urgency := s.classifiers()
	return category != nil && urgency != nil
}

// Categories returns the category label space, or nil before Load
func (s *PredictionService) Categories() []string {
	category, _ := s.classifiers()
	if category == nil {
		return nil
	}
	return category.Classes()
}

// Classify predicts category, confidence and urgency for text
func (s *PredictionService) Classify(ctx context.Context, text string) (Prediction, error) {
	if strings.TrimSpace(text) == "" {
		return Prediction{}, core.ErrEmptyText
	}
	category, urgency := s.classifiers()
	if category == nil || urgency == nil {
		return Prediction{}, core.ErrNotReady
	}
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}

	proba := category.PredictProba(text)
	best := floats.MaxIdx(proba)

	return Prediction{
		Category:   category.Classes()[best],
		Urgency:    petition.Urgency(urgency.Predict(text)),
		Confidence: proba[best],
	}, nil
}

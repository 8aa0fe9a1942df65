package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"petitiondesk/domain/core"
	"petitiondesk/domain/petition"
	"petitiondesk/internal/logging"
	"petitiondesk/internal/modelstore"
	"petitiondesk/internal/textclf"
)

// TrainingService fits the category and urgency pipelines and saves them
type TrainingService struct {
	store    *modelstore.Store
	options  textclf.Options
	testSize float64
	log      *logging.Logger
}

// TaskReport summarises one fitted pipeline on the held-out split
type TaskReport struct {
	Name             string   `json:"name"`
	Classes          []string `json:"classes"`
	TrainRows        int      `json:"train_rows"`
	TestRows         int      `json:"test_rows"`
	Accuracy         float64  `json:"accuracy"`
	MeanConfidence   float64  `json:"mean_confidence"`
	MedianConfidence float64  `json:"median_confidence"`
	Warning          string   `json:"warning,omitempty"`
}

// TrainingReport is the outcome of one Train call
type TrainingReport struct {
	Rows     int           `json:"rows"`
	Seed     int64         `json:"seed"`
	Category TaskReport    `json:"category"`
	Urgency  TaskReport    `json:"urgency"`
	Duration time.Duration `json:"duration"`
}

// NewTrainingService creates a training service saving into store
func NewTrainingService(store *modelstore.Store, options textclf.Options) *TrainingService {
	return &TrainingService{
		store:    store,
		options:  options,
		testSize: 0.2,
		log:      logging.New("Training"),
	}
}

type task struct {
	name    string
	blob    string
	labels  []string
	classes []string
}

type fitted struct {
	pipeline *textclf.Pipeline
	report   TaskReport
}

// Train splits examples once, fits both pipelines concurrently on the shared
// split and saves them only when both succeed
func (s *TrainingService) Train(ctx context.Context, examples []petition.LabeledExample) (*TrainingReport, error) {
	start := time.Now()
	if len(examples) == 0 {
		return nil, core.ErrEmptyDataset
	}

	split, err := textclf.TrainTestSplit(len(examples), s.testSize, s.options.Seed)
	if err != nil {
		return nil, core.NewDataError("%v", err)
	}
	texts := petition.Texts(examples)
	trainDocs := textclf.Pick(texts, split.Train)
	testDocs := textclf.Pick(texts, split.Test)

	tasks := []task{
		{name: "category", blob: modelstore.CategoryModel, labels: petition.CategoryLabels(examples), classes: categoryClasses()},
		{name: "urgency", blob: modelstore.UrgencyModel, labels: petition.UrgencyLabels(examples), classes: urgencyClasses()},
	}
	results := make([]fitted, len(tasks))

	s.log.Info("fitting %d tasks on %d rows (%d train / %d test, seed %d)",
		len(tasks), len(examples), len(split.Train), len(split.Test), s.options.Seed)

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.fit(t, trainDocs, testDocs, textclf.Pick(t.labels, split.Train), textclf.Pick(t.labels, split.Test))
			if err != nil {
				return fmt.Errorf("%s pipeline: %w", t.name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, t := range tasks {
		if err := s.store.Save(ctx, results[i].pipeline, t.blob); err != nil {
			return nil, err
		}
		s.log.Info("saved %s pipeline as %s", t.name, t.blob)
	}

	return &TrainingReport{
		Rows:     len(examples),
		Seed:     s.options.Seed,
		Category: results[0].report,
		Urgency:  results[1].report,
		Duration: time.Since(start),
	}, nil
}

func (s *TrainingService) fit(t task, trainDocs, testDocs, trainLabels, testLabels []string) (fitted, error) {
	opts := s.options
	opts.Classes = t.classes

	p, warning, err := textclf.Fit(trainDocs, trainLabels, opts)
	if err != nil {
		return fitted{}, err
	}

	report := TaskReport{
		Name:      t.name,
		Classes:   p.Classes(),
		TrainRows: len(trainDocs),
		TestRows:  len(testDocs),
		Accuracy:  p.Accuracy(testDocs, testLabels),
	}
	if warning != nil {
		report.Warning = warning.Error()
		s.log.Warn("%s: %v", t.name, warning)
	}

	confidences := make(stats.Float64Data, len(testDocs))
	for i, doc := range testDocs {
		_, confidences[i] = p.PredictWithConfidence(doc)
	}
	if len(confidences) > 0 {
		report.MeanConfidence, _ = confidences.Mean()
		report.MedianConfidence, _ = confidences.Median()
	}

	s.log.Debug("%s: accuracy %.4f on %d held-out rows", t.name, report.Accuracy, len(testDocs))
	return fitted{pipeline: p, report: report}, nil
}

// Print writes a human-readable summary
func (r *TrainingReport) Print(w io.Writer) {
	fmt.Fprintf(w, "Trained on %d rows (seed %d) in %s\n", r.Rows, r.Seed, r.Duration.Round(time.Millisecond))
	for _, t := range []TaskReport{r.Category, r.Urgency} {
		fmt.Fprintf(w, "  %-8s accuracy %.4f  mean confidence %.4f  median confidence %.4f  (%d train / %d test)\n",
			t.Name, t.Accuracy, t.MeanConfidence, t.MedianConfidence, t.TrainRows, t.TestRows)
		if t.Warning != "" {
			fmt.Fprintf(w, "           warning: %s\n", t.Warning)
		}
	}
}

func categoryClasses() []string {
	out := make([]string, len(petition.Categories))
	for i, c := range petition.Categories {
		out[i] = string(c)
	}
	return out
}

func urgencyClasses() []string {
	out := make([]string, len(petition.Urgencies))
	for i, u := range petition.Urgencies {
		out[i] = string(u)
	}
	return out
}

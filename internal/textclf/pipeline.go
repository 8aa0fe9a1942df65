// Package textclf fits and applies TF-IDF + multinomial logistic regression
// text classifiers.
package textclf

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"petitiondesk/domain/core"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Options controls pipeline fitting
type Options struct {
	// MaxIter caps L-BFGS major iterations
	MaxIter int
	// C is the inverse L2 regularisation strength
	C float64
	// Tol is the gradient norm at which the optimizer stops
	Tol float64
	// Seed is recorded with the model; the split and any sampling derive from it
	Seed int64
	// Classes, when set, is the full label space; each must have training examples
	Classes []string
}

// DefaultOptions mirrors the reference training setup
func DefaultOptions() Options {
	return Options{
		MaxIter: 200,
		C:       1.0,
		Tol:     1e-4,
		Seed:    42,
	}
}

// Pipeline composes a fitted vectorizer with a fitted classifier
type Pipeline struct {
	vectorizer *Vectorizer
	classifier *LogisticRegression
	seed       int64
}

// Fit trains a pipeline on raw documents and their labels.
// A non-nil warning means the optimizer hit its limits; the pipeline is still returned.
func Fit(docs []string, labels []string, opts Options) (*Pipeline, *ConvergenceWarning, error) {
	if len(docs) == 0 {
		return nil, nil, core.ErrEmptyDataset
	}
	if len(docs) != len(labels) {
		return nil, nil, core.NewDataError("%d documents but %d labels", len(docs), len(labels))
	}
	for i, l := range labels {
		if strings.TrimSpace(l) == "" {
			return nil, nil, core.NewDataError("blank label at row %d", i)
		}
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = DefaultOptions().MaxIter
	}
	if opts.C <= 0 {
		opts.C = DefaultOptions().C
	}

	classes, y, err := labelIndex(labels, opts.Classes)
	if err != nil {
		var missing *missingClassError
		if errors.As(err, &missing) {
			return nil, nil, fmt.Errorf("%w: %s", core.ErrMissingClass, missing.class)
		}
		return nil, nil, core.NewDataError("%v", err)
	}
	if len(classes) < 2 {
		return nil, nil, core.NewDataError("need at least 2 classes, got %d", len(classes))
	}

	vec := NewVectorizer()
	if err := vec.Fit(docs); err != nil {
		return nil, nil, core.NewDataError("%v", err)
	}

	clf, warning, err := FitLogistic(vec.Transform(docs), y, classes, opts)
	if err != nil {
		return nil, nil, err
	}

	return &Pipeline{vectorizer: vec, classifier: clf, seed: opts.Seed}, warning, nil
}

// Classes returns the label space in posterior order
func (p *Pipeline) Classes() []string {
	return p.classifier.Classes()
}

// PredictProba returns the posterior over Classes for text
func (p *Pipeline) PredictProba(text string) []float64 {
	return p.classifier.PredictProba(p.vectorizer.TransformOne(text))
}

// Predict returns the most probable label for text
func (p *Pipeline) Predict(text string) string {
	return p.classifier.Predict(p.vectorizer.TransformOne(text))
}

// PredictWithConfidence returns the argmax label and its posterior probability
func (p *Pipeline) PredictWithConfidence(text string) (string, float64) {
	proba := p.PredictProba(text)
	best := floats.MaxIdx(proba)
	return p.classifier.classes[best], proba[best]
}

// Accuracy is the fraction of docs whose prediction matches labels
func (p *Pipeline) Accuracy(docs, labels []string) float64 {
	if len(docs) == 0 {
		return 0
	}
	correct := 0
	for i, doc := range docs {
		if p.Predict(doc) == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(docs))
}

// State is the serialisable form of a fitted pipeline
type State struct {
	Vocabulary []string    `json:"vocabulary"`
	IDF        []float64   `json:"idf"`
	Classes    []string    `json:"classes"`
	Coef       [][]float64 `json:"coef"`
	Intercept  []float64   `json:"intercept"`
	Seed       int64       `json:"seed"`
}

// State exports the fitted parameters
func (p *Pipeline) State() State {
	k, _ := p.classifier.weights.Dims()
	coef := make([][]float64, k)
	for c := 0; c < k; c++ {
		coef[c] = mat.Row(nil, c, p.classifier.weights)
	}
	return State{
		Vocabulary: p.vectorizer.Terms(),
		IDF:        append([]float64(nil), p.vectorizer.idf...),
		Classes:    p.classifier.Classes(),
		Coef:       coef,
		Intercept:  append([]float64(nil), p.classifier.intercept...),
		Seed:       p.seed,
	}
}

// FromState rebuilds a pipeline, rejecting shapes that do not line up
func FromState(s State) (*Pipeline, error) {
	dim := len(s.Vocabulary)
	k := len(s.Classes)
	switch {
	case dim == 0:
		return nil, fmt.Errorf("empty vocabulary")
	case len(s.IDF) != dim:
		return nil, fmt.Errorf("idf has %d entries for %d terms", len(s.IDF), dim)
	case k < 2:
		return nil, fmt.Errorf("need at least 2 classes, got %d", k)
	case len(s.Coef) != k:
		return nil, fmt.Errorf("coef has %d rows for %d classes", len(s.Coef), k)
	case len(s.Intercept) != k:
		return nil, fmt.Errorf("intercept has %d entries for %d classes", len(s.Intercept), k)
	}

	seen := make(map[string]bool, dim)
	for _, t := range s.Vocabulary {
		if seen[t] {
			return nil, fmt.Errorf("duplicate vocabulary term %q", t)
		}
		seen[t] = true
	}

	weights := mat.NewDense(k, dim, nil)
	for c, row := range s.Coef {
		if len(row) != dim {
			return nil, fmt.Errorf("coef row %d has %d weights for %d terms", c, len(row), dim)
		}
		weights.SetRow(c, row)
	}
	for _, v := range append(append([]float64(nil), s.IDF...), s.Intercept...) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("non-finite parameter")
		}
	}

	vec := NewVectorizer()
	vec.setState(append([]string(nil), s.Vocabulary...), append([]float64(nil), s.IDF...))

	return &Pipeline{
		vectorizer: vec,
		classifier: &LogisticRegression{
			classes:   append([]string(nil), s.Classes...),
			weights:   weights,
			intercept: append([]float64(nil), s.Intercept...),
		},
		seed: s.Seed,
	}, nil
}

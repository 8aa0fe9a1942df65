package textclf

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// ConvergenceWarning reports that the optimizer stopped before convergence.
// The fitted model is still usable.
type ConvergenceWarning struct {
	Iterations int
	Status     string
	Cause      error
}

func (w *ConvergenceWarning) Error() string {
	if w.Cause != nil {
		return fmt.Sprintf("lbfgs did not converge after %d iterations (%s): %v", w.Iterations, w.Status, w.Cause)
	}
	return fmt.Sprintf("lbfgs did not converge after %d iterations (%s)", w.Iterations, w.Status)
}

// LogisticRegression is a multinomial softmax classifier with L2-penalised weights
type LogisticRegression struct {
	classes   []string
	weights   *mat.Dense // classes x features
	intercept []float64
}

// Classes returns class labels in score order
func (m *LogisticRegression) Classes() []string {
	return append([]string(nil), m.classes...)
}

// FitLogistic minimises mean cross-entropy plus ||W||²/(2·C·n) with L-BFGS.
// y holds class indices into classes.
func FitLogistic(x *mat.Dense, y []int, classes []string, opts Options) (*LogisticRegression, *ConvergenceWarning, error) {
	n, dim := x.Dims()
	k := len(classes)
	if n != len(y) {
		return nil, nil, fmt.Errorf("feature rows (%d) and labels (%d) differ", n, len(y))
	}
	if k < 2 {
		return nil, nil, fmt.Errorf("need at least 2 classes, got %d", k)
	}

	onehot := mat.NewDense(n, k, nil)
	for i, c := range y {
		onehot.Set(i, c, 1)
	}

	obj := &softmaxObjective{x: x, y: onehot, n: n, k: k, dim: dim, alpha: 1 / (opts.C * float64(n))}
	problem := optimize.Problem{
		Func: obj.loss,
		Grad: obj.grad,
	}
	settings := &optimize.Settings{
		MajorIterations:   opts.MaxIter,
		GradientThreshold: opts.Tol,
	}

	// Zero start keeps the fit reproducible for a given training set
	x0 := make([]float64, k*(dim+1))
	result, err := optimize.Minimize(problem, x0, settings, &optimize.LBFGS{})
	if result == nil || len(result.X) != len(x0) {
		return nil, nil, fmt.Errorf("lbfgs failed: %w", err)
	}
	for _, v := range result.X {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, nil, fmt.Errorf("lbfgs produced non-finite weights")
		}
	}

	var warning *ConvergenceWarning
	switch {
	case err != nil:
		warning = &ConvergenceWarning{Iterations: result.MajorIterations, Status: result.Status.String(), Cause: err}
	case result.Status == optimize.IterationLimit:
		warning = &ConvergenceWarning{Iterations: result.MajorIterations, Status: result.Status.String()}
	}

	params := append([]float64(nil), result.X...)
	return &LogisticRegression{
		classes:   append([]string(nil), classes...),
		weights:   mat.NewDense(k, dim, params[:k*dim]),
		intercept: params[k*dim:],
	}, warning, nil
}

// DecisionFunction returns the raw per-class scores for one feature vector
func (m *LogisticRegression) DecisionFunction(features []float64) []float64 {
	k, _ := m.weights.Dims()
	scores := make([]float64, k)
	mat.NewVecDense(k, scores).MulVec(m.weights, mat.NewVecDense(len(features), features))
	floats.Add(scores, m.intercept)
	return scores
}

// PredictProba returns the softmax posterior for one feature vector
func (m *LogisticRegression) PredictProba(features []float64) []float64 {
	scores := m.DecisionFunction(features)
	softmaxInPlace(scores)
	return scores
}

// Predict returns the label with the highest posterior; ties go to the first class
func (m *LogisticRegression) Predict(features []float64) string {
	return m.classes[floats.MaxIdx(m.PredictProba(features))]
}

func softmaxInPlace(scores []float64) {
	lse := floats.LogSumExp(scores)
	for i, s := range scores {
		scores[i] = math.Exp(s - lse)
	}
}

// softmaxObjective lays parameters out as k*dim row-major weights followed by k intercepts
type softmaxObjective struct {
	x     *mat.Dense
	y     *mat.Dense
	n     int
	k     int
	dim   int
	alpha float64
}

func (o *softmaxObjective) unpack(params []float64) (*mat.Dense, []float64) {
	return mat.NewDense(o.k, o.dim, params[:o.k*o.dim]), params[o.k*o.dim:]
}

// scores computes X·Wᵀ + b
func (o *softmaxObjective) scores(params []float64) *mat.Dense {
	w, b := o.unpack(params)
	z := mat.NewDense(o.n, o.k, nil)
	z.Mul(o.x, w.T())
	for i := 0; i < o.n; i++ {
		floats.Add(z.RawRowView(i), b)
	}
	return z
}

func (o *softmaxObjective) loss(params []float64) float64 {
	z := o.scores(params)
	var total float64
	for i := 0; i < o.n; i++ {
		row := z.RawRowView(i)
		total += floats.LogSumExp(row) - floats.Dot(row, o.y.RawRowView(i))
	}
	w := params[:o.k*o.dim]
	return total/float64(o.n) + 0.5*o.alpha*floats.Dot(w, w)
}

func (o *softmaxObjective) grad(grad, params []float64) {
	z := o.scores(params)
	for i := 0; i < o.n; i++ {
		row := z.RawRowView(i)
		softmaxInPlace(row)
	}
	// z now holds P; residual G = P - Y
	z.Sub(z, o.y)

	gw, gb := o.unpack(grad)
	gw.Mul(z.T(), o.x)
	gw.Scale(1/float64(o.n), gw)

	w, _ := o.unpack(params)
	gw.Apply(func(r, c int, v float64) float64 {
		return v + o.alpha*w.At(r, c)
	}, gw)

	for c := 0; c < o.k; c++ {
		gb[c] = mat.Sum(z.ColView(c)) / float64(o.n)
	}
}

// labelIndex maps labels onto a sorted class list. If declared is non-empty every
// declared class must occur at least once and no other label may appear.
func labelIndex(labels []string, declared []string) ([]string, []int, error) {
	counts := make(map[string]int)
	for _, l := range labels {
		counts[l]++
	}

	var classes []string
	if len(declared) > 0 {
		allowed := make(map[string]bool, len(declared))
		for _, c := range declared {
			allowed[c] = true
			if counts[c] == 0 {
				return nil, nil, &missingClassError{class: c}
			}
		}
		for l := range counts {
			if !allowed[l] {
				return nil, nil, fmt.Errorf("label %q is not a declared class", l)
			}
		}
		classes = append(classes, declared...)
	} else {
		for l := range counts {
			classes = append(classes, l)
		}
	}
	sort.Strings(classes)

	pos := make(map[string]int, len(classes))
	for i, c := range classes {
		pos[c] = i
	}
	y := make([]int, len(labels))
	for i, l := range labels {
		y[i] = pos[l]
	}
	return classes, y, nil
}

type missingClassError struct {
	class string
}

func (e *missingClassError) Error() string {
	return fmt.Sprintf("class %q has no training examples", e.class)
}

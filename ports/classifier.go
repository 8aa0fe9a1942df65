package ports

// Classifier is a fitted text classifier. Implementations are immutable once
// fitted and safe for concurrent use.
type Classifier interface {
	// Classes returns the label space in posterior order
	Classes() []string
	// Predict returns the argmax label
	Predict(text string) string
	// PredictProba returns the posterior over Classes, summing to 1
	PredictProba(text string) []float64
}

package synthesizer

import (
	"fmt"
	"io"

	"petitiondesk/domain/petition"

	"gonum.org/v1/gonum/stat/distuv"
)

// Report summarises label balance in a generated dataset
type Report struct {
	Rows           int
	CategoryCounts map[petition.Category]int
	UrgencyCounts  map[petition.Urgency]int
	CategoryChiSq  float64
	CategoryPValue float64
	UrgencyChiSq   float64
	UrgencyPValue  float64
	UrgencyByText  bool
}

// Summarize counts labels and tests each marginal against a uniform distribution.
// UrgencyByText reports whether each petition text carries a single urgency level;
// when false the text alone cannot determine urgency.
func Summarize(ds *Dataset) Report {
	r := Report{
		Rows:           len(ds.Examples),
		CategoryCounts: make(map[petition.Category]int),
		UrgencyCounts:  make(map[petition.Urgency]int),
	}
	textUrgencies := make(map[string]map[petition.Urgency]bool)
	for _, e := range ds.Examples {
		r.CategoryCounts[e.Category]++
		r.UrgencyCounts[e.Urgency]++
		if textUrgencies[e.PetitionText] == nil {
			textUrgencies[e.PetitionText] = make(map[petition.Urgency]bool)
		}
		textUrgencies[e.PetitionText][e.Urgency] = true
	}

	catObs := make([]float64, len(petition.Categories))
	for i, c := range petition.Categories {
		catObs[i] = float64(r.CategoryCounts[c])
	}
	urgObs := make([]float64, len(petition.Urgencies))
	for i, u := range petition.Urgencies {
		urgObs[i] = float64(r.UrgencyCounts[u])
	}
	r.CategoryChiSq, r.CategoryPValue = uniformChiSquare(catObs)
	r.UrgencyChiSq, r.UrgencyPValue = uniformChiSquare(urgObs)

	r.UrgencyByText = true
	for _, seen := range textUrgencies {
		if len(seen) > 1 {
			r.UrgencyByText = false
			break
		}
	}
	return r
}

// uniformChiSquare is Pearson's goodness-of-fit test against equal expected counts
func uniformChiSquare(observed []float64) (float64, float64) {
	var total float64
	for _, o := range observed {
		total += o
	}
	if total == 0 || len(observed) < 2 {
		return 0, 1
	}
	expected := total / float64(len(observed))

	var chi float64
	for _, o := range observed {
		d := o - expected
		chi += d * d / expected
	}
	dist := distuv.ChiSquared{K: float64(len(observed) - 1)}
	return chi, 1 - dist.CDF(chi)
}

// Print writes a human-readable summary
func (r Report) Print(w io.Writer) {
	fmt.Fprintf(w, "Rows: %d\n", r.Rows)
	fmt.Fprintln(w, "Categories:")
	for _, c := range petition.Categories {
		fmt.Fprintf(w, "  %-22s %d\n", c, r.CategoryCounts[c])
	}
	fmt.Fprintf(w, "  chi2=%.3f p=%.3f\n", r.CategoryChiSq, r.CategoryPValue)
	fmt.Fprintln(w, "Urgency levels:")
	for _, u := range petition.Urgencies {
		fmt.Fprintf(w, "  %-22s %d\n", u, r.UrgencyCounts[u])
	}
	fmt.Fprintf(w, "  chi2=%.3f p=%.3f\n", r.UrgencyChiSq, r.UrgencyPValue)
	if !r.UrgencyByText {
		fmt.Fprintln(w, "Note: petition text depends only on category; urgency labels are not learnable from text.")
	}
}

package textclf

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// tokenPattern keeps runs of two or more letters, digits or underscores
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Tokenize lowercases text and splits it into word tokens
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// Vectorizer maps documents to L2-normalised TF-IDF vectors over a frozen vocabulary
type Vectorizer struct {
	terms []string
	index map[string]int
	idf   []float64
}

// NewVectorizer returns an unfitted vectorizer
func NewVectorizer() *Vectorizer {
	return &Vectorizer{}
}

// Fit learns the vocabulary and smoothed inverse document frequencies:
// idf(t) = ln((1+n)/(1+df(t))) + 1
func (v *Vectorizer) Fit(docs []string) error {
	if len(docs) == 0 {
		return fmt.Errorf("cannot fit vectorizer on zero documents")
	}

	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, tok := range Tokenize(doc) {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}
	if len(df) == 0 {
		return fmt.Errorf("empty vocabulary: documents contain no tokens")
	}

	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	n := float64(len(docs))
	idf := make([]float64, len(terms))
	for i, t := range terms {
		idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	v.setState(terms, idf)
	return nil
}

func (v *Vectorizer) setState(terms []string, idf []float64) {
	v.terms = terms
	v.idf = idf
	v.index = make(map[string]int, len(terms))
	for i, t := range terms {
		v.index[t] = i
	}
}

// Terms returns the vocabulary in dimension order
func (v *Vectorizer) Terms() []string {
	return append([]string(nil), v.terms...)
}

// TransformOne vectorizes a single document. Tokens outside the vocabulary are ignored.
func (v *Vectorizer) TransformOne(doc string) []float64 {
	vec := make([]float64, len(v.terms))
	for _, tok := range Tokenize(doc) {
		if j, ok := v.index[tok]; ok {
			vec[j]++
		}
	}
	floats.Mul(vec, v.idf)
	if norm := floats.Norm(vec, 2); norm > 0 {
		floats.Scale(1/norm, vec)
	}
	return vec
}

// Transform vectorizes documents into a matrix with one row per document and
// one column per vocabulary term
func (v *Vectorizer) Transform(docs []string) *mat.Dense {
	x := mat.NewDense(len(docs), len(v.terms), nil)
	for i, doc := range docs {
		x.SetRow(i, v.TransformOne(doc))
	}
	return x
}

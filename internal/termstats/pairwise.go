// Package termstats computes term frequency, document frequency and inverse
// document frequency in two deliberately separate modes: pairwise (exactly
// two documents, N fixed at 2, used by the step-by-step trace) and corpus
// (N documents, used by the batch similarity matrix). The two regimes are
// distinct code paths; conflating them changes recommendation correctness.
package termstats

import (
	"math"
	"sort"
)

// TermFrequency holds the raw count and normalized frequency of one term in
// one document.
type TermFrequency struct {
	Count int     `json:"count"`
	TF    float64 `json:"tf"`
}

// PairwiseStats holds the full TF/DF/IDF breakdown for exactly two
// documents. N is fixed at 2, so idf(t) = ln(2/df(t)): a term present in
// both documents has idf 0 and contributes nothing to either TF-IDF vector.
type PairwiseStats struct {
	Terms []string                   `json:"terms"` // sorted union vocabulary
	TFa   map[string]TermFrequency   `json:"tf_a"`
	TFb   map[string]TermFrequency   `json:"tf_b"`
	DF    map[string]int             `json:"df"`
	IDF   map[string]float64         `json:"idf"`
}

// pairwiseN is the document count of pairwise mode. Never parameterize this;
// the corpus regime lives in corpus.go.
const pairwiseN = 2

// Pairwise computes the pairwise-mode statistics for two token sequences.
// tf(t,d) = count(t,d)/len(d); df(t) in {1,2}; idf(t) = ln(2/df(t)).
func Pairwise(tokensA, tokensB []string) *PairwiseStats {
	countsA := counts(tokensA)
	countsB := counts(tokensB)

	union := make(map[string]bool, len(countsA)+len(countsB))
	for t := range countsA {
		union[t] = true
	}
	for t := range countsB {
		union[t] = true
	}
	terms := make([]string, 0, len(union))
	for t := range union {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	s := &PairwiseStats{
		Terms: terms,
		TFa:   make(map[string]TermFrequency, len(terms)),
		TFb:   make(map[string]TermFrequency, len(terms)),
		DF:    make(map[string]int, len(terms)),
		IDF:   make(map[string]float64, len(terms)),
	}
	for _, t := range terms {
		s.TFa[t] = termFrequency(countsA[t], len(tokensA))
		s.TFb[t] = termFrequency(countsB[t], len(tokensB))
		df := 0
		if countsA[t] > 0 {
			df++
		}
		if countsB[t] > 0 {
			df++
		}
		s.DF[t] = df
		s.IDF[t] = math.Log(float64(pairwiseN) / float64(df))
	}
	return s
}

// Vectors returns the two TF-IDF vectors over the sorted union vocabulary,
// in the same term order as Terms.
func (s *PairwiseStats) Vectors() (vecA, vecB []float64) {
	vecA = make([]float64, len(s.Terms))
	vecB = make([]float64, len(s.Terms))
	for i, t := range s.Terms {
		vecA[i] = s.TFa[t].TF * s.IDF[t]
		vecB[i] = s.TFb[t].TF * s.IDF[t]
	}
	return vecA, vecB
}

func termFrequency(count, docLen int) TermFrequency {
	tf := TermFrequency{Count: count}
	if docLen > 0 {
		tf.TF = float64(count) / float64(docLen)
	}
	return tf
}

func counts(tokens []string) map[string]int {
	m := make(map[string]int, len(tokens))
	for _, t := range tokens {
		m[t]++
	}
	return m
}

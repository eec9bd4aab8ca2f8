// Package similarity computes cosine and Jaccard similarity for document
// pairs and for whole corpus-by-corpus matrices, with step traces for the
// pairwise teaching mode and a fingerprinted cache for the batch matrix.
package similarity

import "math"

// Cosine returns the cosine similarity of two equal-length weight vectors:
// dot(a,b) / (|a|*|b|). Returns 0 when either norm is 0, never NaN.
// Symmetric and bounded to [0,1] for non-negative weights.
func Cosine(a, b []float64) float64 {
	dot, magA, magB := cosineParts(a, b)
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (magA * magB)
}

// cosineParts returns the dot product and both magnitudes, which the
// step-6 trace displays individually.
func cosineParts(a, b []float64) (dot, magA, magB float64) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	for _, v := range a {
		magA += v * v
	}
	for _, v := range b {
		magB += v * v
	}
	return dot, math.Sqrt(magA), math.Sqrt(magB)
}

// Jaccard returns |A∩B| / |A∪B| for two term sets, 0 when both are empty.
// Symmetric and bounded to [0,1].
func Jaccard(a, b map[string]bool) float64 {
	union := len(a)
	inter := 0
	for t := range b {
		if a[t] {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

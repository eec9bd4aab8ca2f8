package termstats

import "math"

// CorpusStats holds document frequencies and IDF weights over a whole
// corpus, with a fixed first-seen vocabulary ordering shared by every
// vector built from it. Read-only after Build.
type CorpusStats struct {
	// N is the corpus size used for IDF.
	N int
	// Vocab lists every term in deterministic first-seen order.
	Vocab []string
	// Position maps a term to its index in Vocab.
	Position map[string]int
	// DF maps a term to the number of documents containing it; df >= 1 for
	// every term present (terms are only added when observed).
	DF map[string]int
	// IDF is ln(N/df), guarded to 0 when df is 0.
	IDF map[string]float64
}

// Build computes corpus-mode statistics over the given token sequences.
// N = len(docs); vocabulary order is first-seen across the sequence.
func Build(docs [][]string) *CorpusStats {
	c := &CorpusStats{
		N:        len(docs),
		Position: make(map[string]int),
		DF:       make(map[string]int),
		IDF:      make(map[string]float64),
	}
	for _, tokens := range docs {
		seen := make(map[string]bool, len(tokens))
		for _, t := range tokens {
			if _, ok := c.Position[t]; !ok {
				c.Position[t] = len(c.Vocab)
				c.Vocab = append(c.Vocab, t)
			}
			if !seen[t] {
				seen[t] = true
				c.DF[t]++
			}
		}
	}
	for t, df := range c.DF {
		c.IDF[t] = idf(c.N, df)
	}
	return c
}

// idf is the corpus-mode weight ln(N/df), 0 when df is 0.
func idf(n, df int) float64 {
	if df == 0 {
		return 0
	}
	return math.Log(float64(n) / float64(df))
}

// Vector returns the TF-IDF vector of a token sequence over the shared
// vocabulary (0 for absent terms). Terms outside the vocabulary are ignored;
// they cannot occur for documents drawn from the corpus itself.
func (c *CorpusStats) Vector(tokens []string) []float64 {
	vec := make([]float64, len(c.Vocab))
	if len(tokens) == 0 {
		return vec
	}
	counts := counts(tokens)
	docLen := float64(len(tokens))
	for t, n := range counts {
		pos, ok := c.Position[t]
		if !ok {
			continue
		}
		vec[pos] = float64(n) / docLen * c.IDF[t]
	}
	return vec
}

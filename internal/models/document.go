// Package models defines core data structures for documents, recommendations,
// and market-gap reports.
package models

// CorpusKind identifies which corpus a document belongs to.
type CorpusKind string

const (
	// KindTraining is the training-program corpus.
	KindTraining CorpusKind = "training"
	// KindJob is the job-vacancy corpus.
	KindJob CorpusKind = "job"
)

// Valid reports whether k is a known corpus kind.
func (k CorpusKind) Valid() bool {
	return k == KindTraining || k == KindJob
}

// Document is one record of a corpus after preprocessing. Index is
// corpus-local and 0-based. Tokens preserves positional order (the step
// traces display it); TermSet is the deduplicated vocabulary.
// A Document is immutable once preprocessed.
type Document struct {
	Index    int             `json:"index"`
	Kind     CorpusKind      `json:"kind"`
	Name     string          `json:"name"`
	Company  string          `json:"company,omitempty"`
	RawText  string          `json:"raw_text"`
	Tokens   []string        `json:"tokens"`
	TermSet  map[string]bool `json:"-"`
	// Vacancies is the estimated vacancy count on a job posting (0 for training docs).
	Vacancies int `json:"vacancies,omitempty"`
}

// HasTerm reports whether the document's vocabulary contains term.
func (d *Document) HasTerm(term string) bool {
	return d.TermSet[term]
}

// Corpus is an ordered sequence of documents of one kind. Corpora are
// replaced wholesale on reload; Version increments on every replacement so
// downstream caches can detect staleness.
type Corpus struct {
	Kind      CorpusKind  `json:"kind"`
	Documents []*Document `json:"documents"`
	Version   uint64      `json:"version"`
}

// Len returns the number of documents.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Documents)
}

// StageTrace holds the output of every preprocessing stage for one document,
// for step-by-step display.
type StageTrace struct {
	Original      string   `json:"original"`
	Normalized    string   `json:"normalized"`
	NoStopwords   string   `json:"no_stopwords"`
	Tokens        []string `json:"tokens"`
	StemmedTokens []string `json:"stemmed_tokens"`
}

// PlacementRecord is one row of the placement (realisasi) dataset: how many
// people a program graduated and how many were placed in jobs.
type PlacementRecord struct {
	Program   string `json:"program"`
	Graduates int    `json:"graduates"`
	Placed    int    `json:"placed"`
}

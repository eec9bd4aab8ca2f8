package similarity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/balailatih/serasi/internal/models"
	"github.com/balailatih/serasi/internal/termstats"
)

// Metric selects which similarity plane of the matrix to read.
type Metric string

const (
	// MetricCosine is TF-IDF cosine similarity.
	MetricCosine Metric = "cosine"
	// MetricJaccard is term-set Jaccard similarity.
	MetricJaccard Metric = "jaccard"
)

// Valid reports whether m is a known metric.
func (m Metric) Valid() bool { return m == MetricCosine || m == MetricJaccard }

// Matrix holds both similarity planes for every (training, job) pair.
// Entries are dense and the structure is read-only after Build, so
// concurrent reads need no locking.
type Matrix struct {
	Fingerprint string
	Rows        int // training corpus size
	Cols        int // job corpus size
	cosine      [][]float64
	jaccard     [][]float64
}

// Cell is one (training, job) entry of the matrix.
type Cell struct {
	Cosine  float64 `json:"cosine"`
	Jaccard float64 `json:"jaccard"`
}

// At returns the cell at (trainingIndex, jobIndex). Bounds are the caller's
// responsibility; the engine validates indices before lookup.
func (m *Matrix) At(trainingIndex, jobIndex int) Cell {
	return Cell{
		Cosine:  m.cosine[trainingIndex][jobIndex],
		Jaccard: m.jaccard[trainingIndex][jobIndex],
	}
}

// Score returns one plane of the cell at (trainingIndex, jobIndex).
func (m *Matrix) Score(trainingIndex, jobIndex int, metric Metric) float64 {
	if metric == MetricJaccard {
		return m.jaccard[trainingIndex][jobIndex]
	}
	return m.cosine[trainingIndex][jobIndex]
}

// Build computes both planes for every pair. Corpus-mode IDF is computed
// once over the union corpus (training then jobs, N = rows + cols), matching
// the vectorizer fit of the batch pipeline; the pairwise N=2 regime is never
// used here.
func Build(training, jobs *models.Corpus) *Matrix {
	rows, cols := training.Len(), jobs.Len()
	m := &Matrix{
		Fingerprint: Fingerprint(training, jobs),
		Rows:        rows,
		Cols:        cols,
		cosine:      make([][]float64, rows),
		jaccard:     make([][]float64, rows),
	}

	union := make([][]string, 0, rows+cols)
	for _, d := range training.Documents {
		union = append(union, d.Tokens)
	}
	for _, d := range jobs.Documents {
		union = append(union, d.Tokens)
	}
	stats := termstats.Build(union)

	trainingVecs := make([][]float64, rows)
	for i, d := range training.Documents {
		trainingVecs[i] = stats.Vector(d.Tokens)
	}
	jobVecs := make([][]float64, cols)
	for j, d := range jobs.Documents {
		jobVecs[j] = stats.Vector(d.Tokens)
	}

	for i := 0; i < rows; i++ {
		m.cosine[i] = make([]float64, cols)
		m.jaccard[i] = make([]float64, cols)
		for j := 0; j < cols; j++ {
			m.cosine[i][j] = Cosine(trainingVecs[i], jobVecs[j])
			m.jaccard[i][j] = Jaccard(training.Documents[i].TermSet, jobs.Documents[j].TermSet)
		}
	}
	return m
}

// Fingerprint derives a cache key from both corpora: sizes, versions and a
// content hash of every document's token sequence. Any reload that changes
// a corpus changes the fingerprint.
func Fingerprint(training, jobs *models.Corpus) string {
	h := sha256.New()
	fmt.Fprintf(h, "t:%d:%d|j:%d:%d|", training.Len(), training.Version, jobs.Len(), jobs.Version)
	for _, d := range training.Documents {
		h.Write([]byte(strings.Join(d.Tokens, " ")))
		h.Write([]byte{0})
	}
	for _, d := range jobs.Documents {
		h.Write([]byte(strings.Join(d.Tokens, " ")))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// PlaneStats summarizes one plane of a built matrix.
type PlaneStats struct {
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Avg          float64 `json:"avg"`
	NonZero      int     `json:"non_zero"`
	Calculations int     `json:"total_calculations"`
}

// Stats returns summary statistics for the requested plane.
func (m *Matrix) Stats(metric Metric) PlaneStats {
	plane := m.cosine
	if metric == MetricJaccard {
		plane = m.jaccard
	}
	s := PlaneStats{Calculations: m.Rows * m.Cols}
	if s.Calculations == 0 {
		return s
	}
	s.Min = plane[0][0]
	var sum float64
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			v := plane[i][j]
			sum += v
			if v < s.Min {
				s.Min = v
			}
			if v > s.Max {
				s.Max = v
			}
			if v > 0 {
				s.NonZero++
			}
		}
	}
	s.Avg = sum / float64(s.Calculations)
	return s
}

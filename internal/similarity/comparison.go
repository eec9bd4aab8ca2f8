package similarity

import (
	"math"

	"github.com/balailatih/serasi/internal/models"
)

// ComparisonRow puts both similarity planes side by side for one pair.
type ComparisonRow struct {
	TrainingIndex     int     `json:"training_idx"`
	TrainingName      string  `json:"training_name"`
	JobIndex          int     `json:"job_idx"`
	JobName           string  `json:"job_name"`
	Cosine            float64 `json:"cosine_similarity"`
	Jaccard           float64 `json:"jaccard_similarity"`
	Difference        float64 `json:"difference"`
	CosinePercentage  float64 `json:"cosine_percentage"`
	JaccardPercentage float64 `json:"jaccard_percentage"`
}

// ComparisonStats aggregates a set of comparison rows.
type ComparisonStats struct {
	TotalComparisons int     `json:"total_comparisons"`
	AvgCosine        float64 `json:"avg_cosine"`
	AvgJaccard       float64 `json:"avg_jaccard"`
	AvgDifference    float64 `json:"avg_difference"`
	Correlation      float64 `json:"correlation"`
}

// ComparisonReport is the full cosine-vs-jaccard comparison over a matrix.
type ComparisonReport struct {
	Rows  []ComparisonRow `json:"comparisons"`
	Stats ComparisonStats `json:"stats"`
}

// CompareMetrics walks every cell of the matrix and reports the pairs where
// both planes clear floor, with aggregate statistics over the kept rows.
// Pearson correlation is 0 when fewer than two rows survive or either plane
// has no variance across them.
func CompareMetrics(m *Matrix, training, jobs *models.Corpus, floor float64) *ComparisonReport {
	report := &ComparisonReport{Rows: make([]ComparisonRow, 0)}
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			cell := m.At(i, j)
			if cell.Cosine < floor || cell.Jaccard < floor {
				continue
			}
			report.Rows = append(report.Rows, ComparisonRow{
				TrainingIndex:     i,
				TrainingName:      training.Documents[i].Name,
				JobIndex:          j,
				JobName:           jobs.Documents[j].Name,
				Cosine:            cell.Cosine,
				Jaccard:           cell.Jaccard,
				Difference:        math.Abs(cell.Cosine - cell.Jaccard),
				CosinePercentage:  cell.Cosine * 100,
				JaccardPercentage: cell.Jaccard * 100,
			})
		}
	}
	report.Stats = comparisonStats(report.Rows)
	return report
}

func comparisonStats(rows []ComparisonRow) ComparisonStats {
	s := ComparisonStats{TotalComparisons: len(rows)}
	if len(rows) == 0 {
		return s
	}
	var sumC, sumJ, sumD float64
	for _, r := range rows {
		sumC += r.Cosine
		sumJ += r.Jaccard
		sumD += r.Difference
	}
	n := float64(len(rows))
	s.AvgCosine = sumC / n
	s.AvgJaccard = sumJ / n
	s.AvgDifference = sumD / n

	if len(rows) < 2 {
		return s
	}
	var cov, varC, varJ float64
	for _, r := range rows {
		dc := r.Cosine - s.AvgCosine
		dj := r.Jaccard - s.AvgJaccard
		cov += dc * dj
		varC += dc * dc
		varJ += dj * dj
	}
	if varC > 0 && varJ > 0 {
		s.Correlation = cov / math.Sqrt(varC*varJ)
	}
	return s
}

package recommend

import (
	"fmt"
	"sort"

	"github.com/balailatih/serasi/internal/models"
	"github.com/balailatih/serasi/internal/similarity"
)

// Params describes one recommendation run. A nil ItemIndex means batch mode:
// one ranked list per source item, concatenated in source order.
type Params struct {
	Mode      models.RecommendMode
	ItemIndex *int
	TopN      int
	Threshold float64
	Metric    similarity.Metric
}

// Validate checks the parameter ranges against the corpora sizes.
func (p Params) Validate(sourceLen int) error {
	if !p.Mode.Valid() {
		return &models.ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", p.Mode)}
	}
	if p.TopN < 1 {
		return &models.ValidationError{Field: "top_n", Reason: "must be >= 1"}
	}
	if p.Threshold < 0 || p.Threshold > 1 {
		return &models.ValidationError{Field: "threshold", Reason: "must be within [0,1]"}
	}
	if p.Metric != "" && !p.Metric.Valid() {
		return &models.ValidationError{Field: "metric", Reason: fmt.Sprintf("unknown metric %q", p.Metric)}
	}
	if p.ItemIndex != nil && (*p.ItemIndex < 0 || *p.ItemIndex >= sourceLen) {
		return &models.ValidationError{Field: "item_idx", Reason: fmt.Sprintf("index %d out of range [0,%d)", *p.ItemIndex, sourceLen)}
	}
	return nil
}

// axis adapts both recommendation directions onto one ranking routine. The
// matrix is always indexed (training, job); the axis decides which side is
// held fixed per source item.
type axis struct {
	source *models.Corpus
	target *models.Corpus
	score  func(m *similarity.Matrix, sourceIdx, targetIdx int, metric similarity.Metric) float64
}

func newAxis(mode models.RecommendMode, training, jobs *models.Corpus) axis {
	if mode == models.ModeByTraining {
		return axis{
			source: training,
			target: jobs,
			score: func(m *similarity.Matrix, s, t int, metric similarity.Metric) float64 {
				return m.Score(s, t, metric)
			},
		}
	}
	return axis{
		source: jobs,
		target: training,
		score: func(m *similarity.Matrix, s, t int, metric similarity.Metric) float64 {
			return m.Score(t, s, metric)
		},
	}
}

// Run produces ranked recommendations from a built matrix. Every source item
// yields at least one row: qualified candidates sorted by score descending
// with ties broken by ascending target index, or a single NO_MATCH row
// carrying the best unqualified score when nothing clears the threshold.
func Run(m *similarity.Matrix, training, jobs *models.Corpus, thresholds models.MatchThresholds, p Params) ([]models.Recommendation, error) {
	ax := newAxis(p.Mode, training, jobs)
	if err := p.Validate(ax.source.Len()); err != nil {
		return nil, err
	}
	if m.Rows != training.Len() || m.Cols != jobs.Len() {
		return nil, fmt.Errorf("recommend: matrix shape %dx%d does not match corpora %dx%d",
			m.Rows, m.Cols, training.Len(), jobs.Len())
	}
	metric := p.Metric
	if metric == "" {
		metric = similarity.MetricCosine
	}

	var out []models.Recommendation
	forOne := func(sourceIdx int) {
		out = append(out, rankOne(m, ax, sourceIdx, thresholds, p, metric)...)
	}
	if p.ItemIndex != nil {
		forOne(*p.ItemIndex)
		return out, nil
	}
	for i := 0; i < ax.source.Len(); i++ {
		forOne(i)
	}
	return out, nil
}

type candidate struct {
	targetIdx int
	score     float64
}

func rankOne(m *similarity.Matrix, ax axis, sourceIdx int, thresholds models.MatchThresholds, p Params, metric similarity.Metric) []models.Recommendation {
	src := ax.source.Documents[sourceIdx]

	qualified := make([]candidate, 0, ax.target.Len())
	best := candidate{targetIdx: -1}
	for t := 0; t < ax.target.Len(); t++ {
		s := ax.score(m, sourceIdx, t, metric)
		if s > best.score || best.targetIdx < 0 {
			best = candidate{targetIdx: t, score: s}
		}
		if s >= p.Threshold {
			qualified = append(qualified, candidate{targetIdx: t, score: s})
		}
	}

	if len(qualified) == 0 {
		score := 0.0
		if best.targetIdx >= 0 {
			score = best.score
		}
		return []models.Recommendation{{
			Rank:        1,
			SourceIndex: sourceIdx,
			SourceName:  src.Name,
			TargetIndex: nil,
			Company:     src.Company,
			Score:       score,
			Percentage:  score * 100,
			Status:      models.StatusNoMatch,
			MatchLevel:  noMatchLabel(score, p.Threshold, thresholds),
		}}
	}

	sort.SliceStable(qualified, func(i, j int) bool {
		if qualified[i].score != qualified[j].score {
			return qualified[i].score > qualified[j].score
		}
		return qualified[i].targetIdx < qualified[j].targetIdx
	})
	if len(qualified) > p.TopN {
		qualified = qualified[:p.TopN]
	}

	rows := make([]models.Recommendation, 0, len(qualified))
	for rank, c := range qualified {
		tgt := ax.target.Documents[c.targetIdx]
		targetIdx := c.targetIdx
		company := src.Company
		if company == "" {
			company = tgt.Company
		}
		rows = append(rows, models.Recommendation{
			Rank:        rank + 1,
			SourceIndex: sourceIdx,
			SourceName:  src.Name,
			TargetIndex: &targetIdx,
			TargetName:  tgt.Name,
			Company:     company,
			Score:       c.score,
			Percentage:  c.score * 100,
			Status:      models.StatusMatched,
			MatchLevel:  Classify(c.score, thresholds),
		})
	}
	return rows
}

func noMatchLabel(best, threshold float64, thresholds models.MatchThresholds) string {
	if best <= 0 {
		return fmt.Sprintf("no candidate above threshold %.2f; no textual overlap found", threshold)
	}
	return fmt.Sprintf("no candidate above threshold %.2f; best scored %.2f%% (%s)",
		threshold, best*100, Classify(best, thresholds))
}

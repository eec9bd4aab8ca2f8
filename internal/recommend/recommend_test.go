package recommend

import (
	"math"
	"strings"
	"testing"

	"github.com/balailatih/serasi/internal/models"
	"github.com/balailatih/serasi/internal/similarity"
)

func testCorpus(kind models.CorpusKind, entries ...[2]string) *models.Corpus {
	c := &models.Corpus{Kind: kind, Version: 1}
	for i, e := range entries {
		tokens := strings.Fields(e[1])
		set := make(map[string]bool, len(tokens))
		for _, t := range tokens {
			set[t] = true
		}
		c.Documents = append(c.Documents, &models.Document{
			Index:   i,
			Kind:    kind,
			Name:    e[0],
			RawText: e[1],
			Tokens:  tokens,
			TermSet: set,
		})
	}
	return c
}

func testMatrix(t *testing.T) (*similarity.Matrix, *models.Corpus, *models.Corpus) {
	t.Helper()
	training := testCorpus(models.KindTraining,
		[2]string{"Teknik Las", "operator mesin las listrik"},
		[2]string{"Akuntansi", "laporan keuangan pajak"},
	)
	jobs := testCorpus(models.KindJob,
		[2]string{"Welder", "operator mesin las listrik"},
		[2]string{"Staf Pajak", "laporan pajak perusahaan"},
		[2]string{"Operator Produksi", "operator mesin produksi"},
	)
	return similarity.Build(training, jobs), training, jobs
}

func TestClassify(t *testing.T) {
	th := models.DefaultThresholds()
	tests := []struct {
		score float64
		want  string
	}{
		{0.95, LevelExcellent},
		{0.80, LevelExcellent},
		{0.79, LevelVeryGood},
		{0.65, LevelVeryGood},
		{0.50, LevelGood},
		{0.40, LevelFair},
		{0.35, LevelFair},
		{0.34, LevelWeak},
		{0, LevelWeak},
	}
	for _, tt := range tests {
		if got := Classify(tt.score, th); got != tt.want {
			t.Errorf("Classify(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestThresholdStore(t *testing.T) {
	s := NewThresholdStore(models.DefaultThresholds())

	valid := models.MatchThresholds{Excellent: 0.9, VeryGood: 0.7, Good: 0.5, Fair: 0.3}
	if err := s.Update(valid); err != nil {
		t.Fatalf("valid update rejected: %v", err)
	}
	if got := s.Get(); got != valid {
		t.Errorf("Get() = %+v, want %+v", got, valid)
	}

	invalid := models.MatchThresholds{Excellent: 0.5, VeryGood: 0.7, Good: 0.5, Fair: 0.3}
	if err := s.Update(invalid); err == nil {
		t.Fatal("invalid update accepted")
	}
	if got := s.Get(); got != valid {
		t.Errorf("rejected update replaced thresholds: %+v", got)
	}
}

func TestRunByTraining(t *testing.T) {
	m, training, jobs := testMatrix(t)
	idx := 0
	rows, err := Run(m, training, jobs, models.DefaultThresholds(), Params{
		Mode:      models.ModeByTraining,
		ItemIndex: &idx,
		TopN:      3,
		Threshold: 0.01,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) == 0 {
		t.Fatal("no rows")
	}
	// Best match for welding training is the identical welder posting.
	first := rows[0]
	if first.Rank != 1 || first.Status != models.StatusMatched {
		t.Fatalf("first row = %+v", first)
	}
	if first.TargetIndex == nil || *first.TargetIndex != 0 || first.TargetName != "Welder" {
		t.Errorf("first target = %v %q, want 0 Welder", first.TargetIndex, first.TargetName)
	}
	if math.Abs(first.Percentage-first.Score*100) > 1e-9 {
		t.Errorf("percentage %v does not match score %v", first.Percentage, first.Score)
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].Score > rows[i-1].Score {
			t.Errorf("rows not sorted by score: %v after %v", rows[i].Score, rows[i-1].Score)
		}
		if rows[i].Rank != rows[i-1].Rank+1 {
			t.Errorf("ranks not consecutive: %d after %d", rows[i].Rank, rows[i-1].Rank)
		}
	}
}

func TestRunByJobBatch(t *testing.T) {
	m, training, jobs := testMatrix(t)
	rows, err := Run(m, training, jobs, models.DefaultThresholds(), Params{
		Mode:      models.ModeByJob,
		TopN:      2,
		Threshold: 0,
	})
	if err != nil {
		t.Fatal(err)
	}
	// Every job yields at least one row, ranks restart at 1 per source item.
	seen := make(map[int]bool)
	for _, r := range rows {
		if !seen[r.SourceIndex] {
			if r.Rank != 1 {
				t.Errorf("source %d first rank = %d, want 1", r.SourceIndex, r.Rank)
			}
			seen[r.SourceIndex] = true
		}
	}
	for i := 0; i < jobs.Len(); i++ {
		if !seen[i] {
			t.Errorf("job %d has no rows", i)
		}
	}
}

func TestRunNoMatch(t *testing.T) {
	// No pair shares more than one weak term, so nothing comes near 0.9.
	training := testCorpus(models.KindTraining,
		[2]string{"Teknik Las", "operator mesin las"},
		[2]string{"Akuntansi", "laporan keuangan pajak"},
	)
	jobs := testCorpus(models.KindJob,
		[2]string{"Helper", "operator gudang"},
	)
	m := similarity.Build(training, jobs)
	rows, err := Run(m, training, jobs, models.DefaultThresholds(), Params{
		Mode:      models.ModeByTraining,
		TopN:      3,
		Threshold: 0.9,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != training.Len() {
		t.Fatalf("got %d rows, want exactly one per training program (%d)", len(rows), training.Len())
	}
	for _, r := range rows {
		if r.Status != models.StatusNoMatch {
			t.Errorf("source %d status = %q, want NO_MATCH", r.SourceIndex, r.Status)
		}
		if r.TargetIndex != nil {
			t.Errorf("source %d has non-nil target index %d", r.SourceIndex, *r.TargetIndex)
		}
		if r.Rank != 1 {
			t.Errorf("source %d rank = %d, want 1", r.SourceIndex, r.Rank)
		}
		if r.MatchLevel == "" {
			t.Errorf("source %d has empty match level", r.SourceIndex)
		}
	}
	// The synthetic row still carries the best unqualified score.
	if rows[0].Score <= 0 {
		t.Errorf("best unqualified score = %v, want > 0", rows[0].Score)
	}
}

func TestRunThresholdMonotonic(t *testing.T) {
	m, training, jobs := testMatrix(t)
	prev := -1
	for _, threshold := range []float64{0, 0.2, 0.5, 0.9} {
		rows, err := Run(m, training, jobs, models.DefaultThresholds(), Params{
			Mode:      models.ModeByJob,
			TopN:      10,
			Threshold: threshold,
		})
		if err != nil {
			t.Fatal(err)
		}
		matched := 0
		for _, r := range rows {
			if r.Status == models.StatusMatched {
				matched++
			}
		}
		if prev >= 0 && matched > prev {
			t.Errorf("threshold %v produced %d matches, more than looser threshold's %d", threshold, matched, prev)
		}
		prev = matched
	}
}

func TestRunJaccardMetric(t *testing.T) {
	m, training, jobs := testMatrix(t)
	idx := 0
	rows, err := Run(m, training, jobs, models.DefaultThresholds(), Params{
		Mode:      models.ModeByTraining,
		ItemIndex: &idx,
		TopN:      1,
		Threshold: 0.5,
		Metric:    similarity.MetricJaccard,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Status != models.StatusMatched || math.Abs(rows[0].Score-1) > 1e-9 {
		t.Errorf("identical term sets row = %+v, want matched score 1", rows[0])
	}
}

func TestRunValidation(t *testing.T) {
	m, training, jobs := testMatrix(t)
	bad := []Params{
		{Mode: "sideways", TopN: 1, Threshold: 0.5},
		{Mode: models.ModeByJob, TopN: 0, Threshold: 0.5},
		{Mode: models.ModeByJob, TopN: 1, Threshold: 1.5},
		{Mode: models.ModeByJob, TopN: 1, Threshold: 0.5, Metric: "hamming"},
	}
	for _, p := range bad {
		if _, err := Run(m, training, jobs, models.DefaultThresholds(), p); err == nil {
			t.Errorf("params %+v accepted", p)
		}
	}
	out := 99
	p := Params{Mode: models.ModeByJob, ItemIndex: &out, TopN: 1, Threshold: 0.5}
	if _, err := Run(m, training, jobs, models.DefaultThresholds(), p); err == nil {
		t.Error("out of range item index accepted")
	}
}

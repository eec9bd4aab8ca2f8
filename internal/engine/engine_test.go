package engine

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/balailatih/serasi/internal/config"
	"github.com/balailatih/serasi/internal/marketgap"
	"github.com/balailatih/serasi/internal/models"
	"github.com/balailatih/serasi/internal/recommend"
	"github.com/balailatih/serasi/internal/similarity"
	"github.com/balailatih/serasi/internal/store"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.History.DatabasePath = filepath.Join(t.TempDir(), "history.db")

	e, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { e.Close() })

	e.ReplaceTraining([]store.TrainingRecord{
		{Program: "Teknik Las", Objective: "operator mesin las listrik"},
		{Program: "Akuntansi", Objective: "menyusun laporan keuangan pajak"},
	})
	e.ReplaceJobs([]store.JobRecord{
		{Title: "Welder", Company: "PT Baja", Description: "operator mesin las listrik", Vacancies: 12},
		{Title: "Staf Pajak", Description: "menyusun laporan pajak", Vacancies: 4},
	})
	return e
}

func TestLoadDatasets(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
		return path
	}
	cfg := &config.Config{
		Data: config.DataConfig{
			TrainingPath:   write("training.json", `[{"program":"Teknik Las","objective":"mengelas pelat"}]`),
			JobsPath:       write("jobs.json", `[{"title":"Welder","description":"mengelas pelat","vacancies":3}]`),
			PlacementsPath: write("placements.json", `[{"program":"Teknik Las","graduates":10,"placed":6}]`),
		},
		History: config.HistoryConfig{DatabasePath: filepath.Join(dir, "history.db")},
	}
	config.ApplyDefaults(cfg)

	e, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if err := e.LoadDatasets(); err != nil {
		t.Fatal(err)
	}
	st := e.Status()
	if st.TrainingCount != 1 || st.JobCount != 1 || st.PlacementCount != 1 {
		t.Errorf("status = %+v", st)
	}
	if st.MatrixReady {
		t.Error("matrix should not build implicitly on load")
	}

	// Name lookup follows the loaded corpora.
	hits, err := e.SearchNames("welder", models.KindJob, 5, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Index != 0 {
		t.Errorf("hits = %+v", hits)
	}
}

func TestMatrixCachedUntilReplace(t *testing.T) {
	e := newEngine(t)

	m1, err := e.Matrix()
	if err != nil {
		t.Fatal(err)
	}
	m2, err := e.Matrix()
	if err != nil {
		t.Fatal(err)
	}
	if m1 != m2 {
		t.Error("unchanged corpora rebuilt the matrix")
	}
	if !e.Status().MatrixReady {
		t.Error("status should report a ready matrix")
	}

	e.ReplaceJobs([]store.JobRecord{{Title: "Operator Produksi", Description: "operator mesin produksi"}})
	if e.Status().MatrixReady {
		t.Error("stale matrix still reported ready after corpus replacement")
	}
	m3, err := e.Matrix()
	if err != nil {
		t.Fatal(err)
	}
	if m3 == m1 {
		t.Error("corpus replacement did not rebuild the matrix")
	}
}

func TestPairwiseTraceSteps(t *testing.T) {
	e := newEngine(t)

	payload, err := e.PairwiseTrace(0, 0, 6)
	if err != nil {
		t.Fatal(err)
	}
	// Identical token sequences share every term, so the pairwise regime's
	// ln(2/df) weights zero out the whole vector.
	if sim := payload["similarity"].(float64); math.Abs(sim) > 1e-9 {
		t.Errorf("pairwise similarity = %v, want 0", sim)
	}

	if _, err := e.PairwiseTrace(0, 0, 7); err == nil {
		t.Error("step 7 accepted")
	}
	if _, err := e.PairwiseTrace(9, 0, 1); err == nil {
		t.Error("out of range training index accepted")
	}
}

func TestJaccardTraceSteps(t *testing.T) {
	e := newEngine(t)

	payload, err := e.JaccardTrace(0, 0, 4)
	if err != nil {
		t.Fatal(err)
	}
	if sim := payload["jaccard_similarity"].(float64); math.Abs(sim-1) > 1e-9 {
		t.Errorf("jaccard = %v, want 1", sim)
	}
}

func TestRecommendRecordsHistory(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	recs, err := e.Recommend(ctx, recommend.Params{
		Mode:      models.ModeByJob,
		TopN:      3,
		Threshold: 0.01,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) == 0 {
		t.Fatal("no recommendations")
	}

	count, err := e.History().CountExperiments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("recorded %d experiments, want 1", count)
	}

	// Single-item runs are not recorded.
	idx := 0
	if _, err := e.Recommend(ctx, recommend.Params{
		Mode: models.ModeByJob, ItemIndex: &idx, TopN: 3, Threshold: 0.01,
	}); err != nil {
		t.Fatal(err)
	}
	count, _ = e.History().CountExperiments(ctx)
	if count != 1 {
		t.Errorf("single-item run recorded an experiment: count = %d", count)
	}
}

func TestUpdateThresholds(t *testing.T) {
	e := newEngine(t)

	bad := models.MatchThresholds{Excellent: 0.2, VeryGood: 0.4, Good: 0.3, Fair: 0.1}
	if err := e.UpdateThresholds(bad); err == nil {
		t.Fatal("invalid thresholds accepted")
	}
	if e.Thresholds() != models.DefaultThresholds() {
		t.Error("rejected update changed thresholds")
	}

	good := models.MatchThresholds{Excellent: 0.9, VeryGood: 0.7, Good: 0.5, Fair: 0.2}
	if err := e.UpdateThresholds(good); err != nil {
		t.Fatal(err)
	}
	if e.Thresholds() != good {
		t.Error("valid update not applied")
	}
}

func TestCompareAndStats(t *testing.T) {
	e := newEngine(t)

	cell, err := e.Compare(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(cell.Jaccard-1) > 1e-9 {
		t.Errorf("jaccard = %v, want 1 for identical token sets", cell.Jaccard)
	}
	if _, err := e.Compare(0, 9); err == nil {
		t.Error("out of range job index accepted")
	}

	stats, err := e.MatrixStats(similarity.MetricCosine)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Calculations != 4 {
		t.Errorf("calculations = %d, want 4", stats.Calculations)
	}
	if _, err := e.MatrixStats("hamming"); err == nil {
		t.Error("unknown metric accepted")
	}

	report, err := e.CompareMetrics(0.01)
	if err != nil {
		t.Fatal(err)
	}
	if report.Stats.TotalComparisons != len(report.Rows) {
		t.Errorf("comparison stats count = %d, rows = %d", report.Stats.TotalComparisons, len(report.Rows))
	}
	if _, err := e.CompareMetrics(1.5); err == nil {
		t.Error("out of range floor accepted")
	}
}

func TestAnalyzeMarketGapThroughEngine(t *testing.T) {
	e := newEngine(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "placements.json")
	if err := os.WriteFile(path, []byte(`[{"program":"Teknik Las","graduates":10,"placed":6}]`), 0600); err != nil {
		t.Fatal(err)
	}
	e.cfg.Data.PlacementsPath = path
	e.ReloadDataset(path)

	report, err := e.AnalyzeMarketGap(marketgap.Params{JobThreshold: 0.3, ProgramThreshold: 0.3})
	if err != nil {
		t.Fatal(err)
	}
	if report.Summary.TotalPrograms != 1 {
		t.Errorf("summary = %+v", report.Summary)
	}
}

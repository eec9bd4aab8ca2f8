// Package engine composes the store, similarity cache, recommender and
// market-gap analyzer behind one facade. The HTTP server and CLI commands
// talk only to this type.
package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/balailatih/serasi/internal/config"
	"github.com/balailatih/serasi/internal/history"
	"github.com/balailatih/serasi/internal/lookup"
	"github.com/balailatih/serasi/internal/marketgap"
	"github.com/balailatih/serasi/internal/models"
	"github.com/balailatih/serasi/internal/recommend"
	"github.com/balailatih/serasi/internal/similarity"
	"github.com/balailatih/serasi/internal/store"
	"github.com/balailatih/serasi/internal/textproc"
)

// Engine owns the full pipeline state for one running instance.
type Engine struct {
	cfg        *config.Config
	logger     *zap.Logger
	pre        *textproc.Preprocessor
	store      *store.Store
	cache      *similarity.Cache
	thresholds *recommend.ThresholdStore
	analyzer   *marketgap.Analyzer
	names      *lookup.Index
	history    *history.Store
}

// New wires an engine from configuration. The stemmer degrades to a no-op
// with a warning when unavailable; history persistence is optional.
func New(cfg *config.Config, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []textproc.Option{textproc.WithLogger(logger)}
	if stemmer, err := textproc.NewStemmer(cfg.Text.Language); err != nil {
		logger.Warn("stemmer unavailable, continuing without stemming", zap.Error(err))
	} else {
		opts = append(opts, textproc.WithStemmer(stemmer))
	}
	if len(cfg.Text.ExtraStopwords) > 0 {
		opts = append(opts, textproc.WithStopwords(append(textproc.DefaultStopwords(), cfg.Text.ExtraStopwords...)))
	}
	if len(cfg.Text.StemRules) > 0 {
		opts = append(opts, textproc.WithStemRules(cfg.Text.StemRules))
	}
	pre := textproc.New(opts...)

	names, err := lookup.New()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:        cfg,
		logger:     logger,
		pre:        pre,
		store:      store.New(pre, logger),
		cache:      similarity.NewCache(logger),
		thresholds: recommend.NewThresholdStore(cfg.Thresholds),
		analyzer:   marketgap.New(pre, logger),
		names:      names,
	}
	if cfg.History.EnabledOrDefault() {
		h, err := history.New(cfg.History.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open history store: %w", err)
		}
		e.history = h
	}
	return e, nil
}

// LoadDatasets loads all three dataset files from the configured paths.
// Missing placement data is tolerated; the gap analysis just has nothing to
// report until it arrives.
func (e *Engine) LoadDatasets() error {
	if _, err := e.store.LoadTraining(e.cfg.Data.TrainingPath); err != nil {
		return err
	}
	if _, err := e.store.LoadJobs(e.cfg.Data.JobsPath); err != nil {
		return err
	}
	if _, err := e.store.LoadPlacements(e.cfg.Data.PlacementsPath); err != nil {
		e.logger.Warn("placement dataset not loaded", zap.Error(err))
	}
	e.afterReplace()
	return nil
}

// ReloadDataset reloads whichever dataset lives at path. Called by the file
// watcher.
func (e *Engine) ReloadDataset(path string) {
	var err error
	switch path {
	case e.cfg.Data.TrainingPath:
		_, err = e.store.LoadTraining(path)
	case e.cfg.Data.JobsPath:
		_, err = e.store.LoadJobs(path)
	case e.cfg.Data.PlacementsPath:
		_, err = e.store.LoadPlacements(path)
		if err == nil {
			return
		}
	default:
		return
	}
	if err != nil {
		e.logger.Error("dataset reload failed", zap.String("path", path), zap.Error(err))
		return
	}
	e.afterReplace()
}

// afterReplace refreshes derived state after a corpus swap. The matrix cache
// is fingerprint-keyed so it self-invalidates; the name index needs an
// explicit rebuild.
func (e *Engine) afterReplace() {
	training, jobs := e.store.Snapshot()
	if err := e.names.Rebuild(training, jobs); err != nil {
		e.logger.Error("name index rebuild failed", zap.Error(err))
	}
}

// DatasetPaths returns the configured dataset file paths for the watcher.
func (e *Engine) DatasetPaths() []string {
	return []string{e.cfg.Data.TrainingPath, e.cfg.Data.JobsPath, e.cfg.Data.PlacementsPath}
}

// Corpus returns the corpus of the given kind.
func (e *Engine) Corpus(kind models.CorpusKind) (*models.Corpus, error) {
	return e.store.Corpus(kind)
}

// Document returns one document by kind and index.
func (e *Engine) Document(kind models.CorpusKind, index int) (*models.Document, error) {
	return e.store.Document(kind, index)
}

// PreprocessTrace reruns the preprocessing pipeline for one document and
// returns every stage's output.
func (e *Engine) PreprocessTrace(kind models.CorpusKind, index int) (*models.StageTrace, error) {
	doc, err := e.store.Document(kind, index)
	if err != nil {
		return nil, err
	}
	return e.pre.Trace(doc.RawText), nil
}

// SearchNames finds documents by free-text name query.
func (e *Engine) SearchNames(query string, kind models.CorpusKind, limit int, fuzzy bool) ([]lookup.Hit, error) {
	if kind != "" && !kind.Valid() {
		return nil, &models.ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown corpus kind %q", kind)}
	}
	return e.names.Search(query, kind, limit, fuzzy)
}

// Matrix builds the similarity matrix if the cached one is stale, otherwise
// returns the cached one.
func (e *Engine) Matrix() (*similarity.Matrix, error) {
	training, jobs := e.store.Snapshot()
	if training.Len() == 0 || jobs.Len() == 0 {
		return nil, &models.ValidationError{Field: "corpus", Reason: "both corpora must be loaded before building the matrix"}
	}
	return e.cache.Get(training, jobs), nil
}

// MatrixStats returns summary statistics for one plane of the matrix,
// building it first if needed.
func (e *Engine) MatrixStats(metric similarity.Metric) (similarity.PlaneStats, error) {
	if metric == "" {
		metric = similarity.MetricCosine
	}
	if !metric.Valid() {
		return similarity.PlaneStats{}, &models.ValidationError{Field: "metric", Reason: fmt.Sprintf("unknown metric %q", metric)}
	}
	m, err := e.Matrix()
	if err != nil {
		return similarity.PlaneStats{}, err
	}
	return m.Stats(metric), nil
}

// Compare returns both similarity planes for one (training, job) pair.
func (e *Engine) Compare(trainingIndex, jobIndex int) (similarity.Cell, error) {
	if _, err := e.store.Document(models.KindTraining, trainingIndex); err != nil {
		return similarity.Cell{}, err
	}
	if _, err := e.store.Document(models.KindJob, jobIndex); err != nil {
		return similarity.Cell{}, err
	}
	m, err := e.Matrix()
	if err != nil {
		return similarity.Cell{}, err
	}
	return m.At(trainingIndex, jobIndex), nil
}

// CompareMetrics reports every pair where both similarity planes clear
// floor, with aggregate statistics including the Pearson correlation between
// the planes.
func (e *Engine) CompareMetrics(floor float64) (*similarity.ComparisonReport, error) {
	if floor < 0 || floor > 1 {
		return nil, &models.ValidationError{Field: "min_threshold", Reason: "must be within [0, 1]"}
	}
	m, err := e.Matrix()
	if err != nil {
		return nil, err
	}
	training, jobs := e.store.Snapshot()
	return similarity.CompareMetrics(m, training, jobs, floor), nil
}

// PairwiseTrace returns one step of the six-step TF-IDF walkthrough for a
// (training, job) pair. The pairwise N=2 regime is used here and only here.
func (e *Engine) PairwiseTrace(trainingIndex, jobIndex, step int) (map[string]interface{}, error) {
	training, job, err := e.pair(trainingIndex, jobIndex)
	if err != nil {
		return nil, err
	}
	return similarity.TraceTFIDF(training, job).ForStep(step)
}

// JaccardTrace returns one step of the five-step Jaccard walkthrough.
func (e *Engine) JaccardTrace(trainingIndex, jobIndex, step int) (map[string]interface{}, error) {
	training, job, err := e.pair(trainingIndex, jobIndex)
	if err != nil {
		return nil, err
	}
	return similarity.TraceJaccard(training, job).ForStep(step)
}

func (e *Engine) pair(trainingIndex, jobIndex int) (*models.Document, *models.Document, error) {
	training, err := e.store.Document(models.KindTraining, trainingIndex)
	if err != nil {
		return nil, nil, err
	}
	job, err := e.store.Document(models.KindJob, jobIndex)
	if err != nil {
		return nil, nil, err
	}
	return training, job, nil
}

// Recommend runs a recommendation pass over the cached matrix. Batch runs
// are recorded to the experiment history when it is enabled.
func (e *Engine) Recommend(ctx context.Context, p recommend.Params) ([]models.Recommendation, error) {
	m, err := e.Matrix()
	if err != nil {
		return nil, err
	}
	training, jobs := e.store.Snapshot()
	thresholds := e.thresholds.Get()

	recs, err := recommend.Run(m, training, jobs, thresholds, p)
	if err != nil {
		return nil, err
	}

	if e.history != nil && p.ItemIndex == nil {
		exp, err := e.history.StartExperiment(ctx, training.Len(), jobs.Len(), thresholds)
		if err != nil {
			e.logger.Error("failed to record experiment", zap.Error(err))
			return recs, nil
		}
		if err := e.history.SaveRecommendations(ctx, exp.ID, p.Mode, recs); err != nil {
			e.logger.Error("failed to save recommendations", zap.Error(err))
			return recs, nil
		}
		if err := e.history.CompleteExperiment(ctx, exp.ID); err != nil {
			e.logger.Error("failed to complete experiment", zap.Error(err))
		}
	}
	return recs, nil
}

// Thresholds returns the active match-tier boundaries.
func (e *Engine) Thresholds() models.MatchThresholds {
	return e.thresholds.Get()
}

// UpdateThresholds validates and applies new match-tier boundaries. A
// rejected update leaves the previous boundaries in effect.
func (e *Engine) UpdateThresholds(t models.MatchThresholds) error {
	return e.thresholds.Update(t)
}

// AnalyzeMarketGap runs the gap analysis over the cached matrix and the
// placement dataset.
func (e *Engine) AnalyzeMarketGap(p marketgap.Params) (*models.MarketGapReport, error) {
	m, err := e.Matrix()
	if err != nil {
		return nil, err
	}
	training, jobs := e.store.Snapshot()
	return e.analyzer.Analyze(m, training, jobs, e.store.Placements(), p)
}

// History returns the experiment history store, or nil when disabled.
func (e *Engine) History() *history.Store {
	return e.history
}

// Status summarizes the engine state.
type Status struct {
	TrainingCount  int                    `json:"training_count"`
	JobCount       int                    `json:"job_count"`
	PlacementCount int                    `json:"placement_count"`
	MatrixReady    bool                   `json:"matrix_ready"`
	Thresholds     models.MatchThresholds `json:"thresholds"`
	HistoryEnabled bool                   `json:"history_enabled"`
}

// Status reports corpus sizes and whether a current matrix is cached.
func (e *Engine) Status() Status {
	training, jobs := e.store.Snapshot()
	_, ready := e.cache.Peek(training, jobs)
	return Status{
		TrainingCount:  training.Len(),
		JobCount:       jobs.Len(),
		PlacementCount: len(e.store.Placements()),
		MatrixReady:    ready,
		Thresholds:     e.thresholds.Get(),
		HistoryEnabled: e.history != nil,
	}
}

// ReplaceTraining swaps in new training records directly (used by tests and
// programmatic imports).
func (e *Engine) ReplaceTraining(records []store.TrainingRecord) int {
	n := e.store.ReplaceTraining(records)
	e.afterReplace()
	return n
}

// ReplaceJobs swaps in new job records directly.
func (e *Engine) ReplaceJobs(records []store.JobRecord) int {
	n := e.store.ReplaceJobs(records)
	e.afterReplace()
	return n
}

// Close releases engine resources.
func (e *Engine) Close() error {
	var first error
	if err := e.names.Close(); err != nil {
		first = err
	}
	if e.history != nil {
		if err := e.history.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Package marketgap joins recommendation output with historical placement
// records to derive per-program supply/demand indicators.
package marketgap

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/balailatih/serasi/internal/models"
	"github.com/balailatih/serasi/internal/similarity"
	"github.com/balailatih/serasi/internal/textproc"
	"github.com/balailatih/serasi/pkg/utils"
)

// topJobsPerProgram caps the per-program job detail listing.
const topJobsPerProgram = 10

// Params are the two independent threshold knobs of one analysis run.
// ProgramThreshold gates the fuzzy program-name match (its floor, scaled to
// 0-100, is the confidence floor); JobThreshold gates which job postings
// count toward a program's market capacity.
type Params struct {
	JobThreshold     float64
	ProgramThreshold float64
	Metric           similarity.Metric
}

// Validate checks both thresholds are within [0,1].
func (p Params) Validate() error {
	if p.JobThreshold < 0 || p.JobThreshold > 1 {
		return &models.ValidationError{Field: "job_threshold", Reason: "must be within [0,1]"}
	}
	if p.ProgramThreshold < 0 || p.ProgramThreshold > 1 {
		return &models.ValidationError{Field: "program_threshold", Reason: "must be within [0,1]"}
	}
	if p.Metric != "" && !p.Metric.Valid() {
		return &models.ValidationError{Field: "metric", Reason: fmt.Sprintf("unknown metric %q", p.Metric)}
	}
	return nil
}

// Analyzer computes market-gap reports. The preprocessor is reused for
// placement program names so fuzzy matching sees the same token space as the
// training corpus.
type Analyzer struct {
	pre    *textproc.Preprocessor
	logger *zap.Logger
}

// New creates an analyzer. logger may be nil.
func New(pre *textproc.Preprocessor, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{pre: pre, logger: logger}
}

// Analyze links each placement record to its closest training document by
// fuzzy name match, counts the job postings above JobThreshold for that
// document, and classifies the placement-rate versus market-capacity gap.
// Records whose best name match falls below ProgramThreshold are reported
// as unmatched and excluded from the summary aggregates.
func (a *Analyzer) Analyze(m *similarity.Matrix, training, jobs *models.Corpus, placements []models.PlacementRecord, p Params) (*models.MarketGapReport, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if training.Len() == 0 {
		return nil, &models.ValidationError{Field: "training", Reason: "corpus is empty"}
	}
	if m.Rows != training.Len() || m.Cols != jobs.Len() {
		return nil, fmt.Errorf("marketgap: matrix shape %dx%d does not match corpora %dx%d",
			m.Rows, m.Cols, training.Len(), jobs.Len())
	}
	metric := p.Metric
	if metric == "" {
		metric = similarity.MetricCosine
	}

	matcher := a.buildNameMatcher(training, placements)
	report := &models.MarketGapReport{}

	for i, rec := range placements {
		if rec.Program == "" {
			continue
		}
		trainingIdx, confidence := matcher.best(i)
		trainingName := training.Documents[trainingIdx].Name

		if confidence < p.ProgramThreshold {
			report.Unmatched = append(report.Unmatched, models.UnmatchedProgram{
				Program:    rec.Program,
				BestMatch:  trainingName,
				Confidence: utils.Round2(confidence * 100),
			})
			report.Records = append(report.Records, &models.MarketGapRecord{
				Program:       rec.Program,
				TrainingIndex: trainingIdx,
				TrainingMatch: trainingName,
				Confidence:    utils.Round2(confidence * 100),
				Graduates:     rec.Graduates,
				Placed:        rec.Placed,
				PlacementRate: utils.Round2(rate(rec.Placed, rec.Graduates)),
				Gap:           utils.Round2(rate(rec.Placed, rec.Graduates)),
				Status:        models.StatusUnmatched,
			})
			continue
		}

		record := a.matchedRecord(m, jobs, rec, trainingIdx, trainingName, confidence, p.JobThreshold, metric)
		report.Records = append(report.Records, record)

		report.Summary.TotalGraduates += rec.Graduates
		report.Summary.TotalPlaced += rec.Placed
		report.Summary.TotalVacancies += record.TotalVacancies
		report.Summary.MatchedPrograms++
	}

	report.Summary.TotalPrograms = len(report.Records)
	report.Summary.UnmatchedPrograms = len(report.Unmatched)
	report.Summary.OverallPlacementRate = utils.Round2(rate(report.Summary.TotalPlaced, report.Summary.TotalGraduates))
	report.Summary.OverallMarketCapacity = utils.Round2(rate(report.Summary.TotalVacancies, report.Summary.TotalGraduates))
	report.Summary.OverallGap = utils.Round2(report.Summary.OverallPlacementRate - report.Summary.OverallMarketCapacity)

	a.logger.Info("market gap analysis complete",
		zap.Int("programs", report.Summary.TotalPrograms),
		zap.Int("matched", report.Summary.MatchedPrograms),
		zap.Int("unmatched", report.Summary.UnmatchedPrograms),
		zap.Float64("overall_gap", report.Summary.OverallGap),
	)
	return report, nil
}

func (a *Analyzer) matchedRecord(m *similarity.Matrix, jobs *models.Corpus, rec models.PlacementRecord, trainingIdx int, trainingName string, confidence, jobThreshold float64, metric similarity.Metric) *models.MarketGapRecord {
	record := &models.MarketGapRecord{
		Program:       rec.Program,
		TrainingIndex: trainingIdx,
		TrainingMatch: trainingName,
		Confidence:    utils.Round2(confidence * 100),
		Graduates:     rec.Graduates,
		Placed:        rec.Placed,
		PlacementRate: utils.Round2(rate(rec.Placed, rec.Graduates)),
	}

	for j := 0; j < jobs.Len(); j++ {
		sim := m.Score(trainingIdx, j, metric)
		if sim < jobThreshold {
			continue
		}
		job := jobs.Documents[j]
		record.MatchingJobs++
		record.TotalVacancies += job.Vacancies
		record.TopJobs = append(record.TopJobs, models.GapJob{
			JobIndex:   j,
			JobName:    job.Name,
			Company:    job.Company,
			Similarity: utils.Round2(sim * 100),
			Vacancies:  job.Vacancies,
		})
	}
	sort.SliceStable(record.TopJobs, func(i, j int) bool {
		return record.TopJobs[i].Similarity > record.TopJobs[j].Similarity
	})
	if len(record.TopJobs) > topJobsPerProgram {
		record.TopJobs = record.TopJobs[:topJobsPerProgram]
	}

	record.MarketCapacity = utils.Round2(rate(record.TotalVacancies, rec.Graduates))
	record.Gap = utils.Round2(record.PlacementRate - record.MarketCapacity)
	record.Status = models.ClassifyGap(record.Gap)
	return record
}

// nameMatcher scores placement program names against training document
// names with TF-IDF cosine over the combined name corpus. Names are short
// and heavily overlapping, so the matcher uses smoothed idf
// (ln((1+N)/(1+df)) + 1, always positive) rather than the matrix regime's
// ln(N/df): with the raw formula, a name sharing every term with the whole
// name corpus would get a zero vector and a confidence of 0.
type nameMatcher struct {
	placementVecs [][]float64
	trainingVecs  [][]float64
}

func (a *Analyzer) buildNameMatcher(training *models.Corpus, placements []models.PlacementRecord) *nameMatcher {
	docs := make([][]string, 0, len(placements)+training.Len())
	for _, rec := range placements {
		docs = append(docs, a.pre.Preprocess(rec.Program))
	}
	for _, d := range training.Documents {
		docs = append(docs, a.pre.Preprocess(d.Name))
	}
	vecs := smoothedVectors(docs)

	return &nameMatcher{
		placementVecs: vecs[:len(placements)],
		trainingVecs:  vecs[len(placements):],
	}
}

// smoothedVectors computes TF-IDF vectors over a shared first-seen
// vocabulary with smoothed idf.
func smoothedVectors(docs [][]string) [][]float64 {
	position := make(map[string]int)
	df := make(map[string]int)
	for _, tokens := range docs {
		seen := make(map[string]bool, len(tokens))
		for _, t := range tokens {
			if _, ok := position[t]; !ok {
				position[t] = len(position)
			}
			if !seen[t] {
				seen[t] = true
				df[t]++
			}
		}
	}
	n := float64(len(docs))
	idf := make([]float64, len(position))
	for t, pos := range position {
		idf[pos] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	vecs := make([][]float64, len(docs))
	for i, tokens := range docs {
		vec := make([]float64, len(position))
		if len(tokens) > 0 {
			for _, t := range tokens {
				vec[position[t]] += 1 / float64(len(tokens))
			}
			for pos := range vec {
				vec[pos] *= idf[pos]
			}
		}
		vecs[i] = vec
	}
	return vecs
}

// best returns the training index with the highest cosine against placement
// record i, ties going to the lowest index.
func (m *nameMatcher) best(i int) (trainingIdx int, score float64) {
	for t, vec := range m.trainingVecs {
		s := similarity.Cosine(m.placementVecs[i], vec)
		if s > score {
			trainingIdx, score = t, s
		}
	}
	return trainingIdx, score
}

func rate(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// Package store loads the training, job and placement datasets and holds
// the preprocessed corpora for the engine. Corpora are replaced wholesale
// on reload; readers always see a complete, consistent snapshot.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/balailatih/serasi/internal/models"
	"github.com/balailatih/serasi/internal/textproc"
)

// TrainingRecord is one raw training-program row of the training dataset.
type TrainingRecord struct {
	Program     string `json:"program"`
	Objective   string `json:"objective"`
	Description string `json:"description"`
}

// JobRecord is one raw job-vacancy row of the jobs dataset.
type JobRecord struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Description string `json:"description"`
	Vacancies   int    `json:"vacancies"`
}

// Store owns the corpora and the placement dataset. All access goes through
// the mutex; returned corpora are immutable snapshots, safe to use without
// holding it.
type Store struct {
	mu         sync.RWMutex
	pre        *textproc.Preprocessor
	logger     *zap.Logger
	training   *models.Corpus
	jobs       *models.Corpus
	placements []models.PlacementRecord
	version    uint64
}

// New creates an empty store. logger may be nil.
func New(pre *textproc.Preprocessor, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		pre:      pre,
		logger:   logger,
		training: &models.Corpus{Kind: models.KindTraining},
		jobs:     &models.Corpus{Kind: models.KindJob},
	}
}

// LoadTraining reads the training dataset file and replaces the training corpus.
func (s *Store) LoadTraining(path string) (int, error) {
	var records []TrainingRecord
	if err := readJSON(path, &records); err != nil {
		return 0, fmt.Errorf("failed to load training dataset: %w", err)
	}
	return s.ReplaceTraining(records), nil
}

// LoadJobs reads the jobs dataset file and replaces the job corpus.
func (s *Store) LoadJobs(path string) (int, error) {
	var records []JobRecord
	if err := readJSON(path, &records); err != nil {
		return 0, fmt.Errorf("failed to load jobs dataset: %w", err)
	}
	return s.ReplaceJobs(records), nil
}

// LoadPlacements reads the placement dataset file and replaces the
// placement records. Placement names are matched lazily during analysis, so
// no preprocessing happens here.
func (s *Store) LoadPlacements(path string) (int, error) {
	var records []models.PlacementRecord
	if err := readJSON(path, &records); err != nil {
		return 0, fmt.Errorf("failed to load placements dataset: %w", err)
	}
	s.mu.Lock()
	s.placements = records
	s.mu.Unlock()
	s.logger.Info("placements loaded", zap.String("path", path), zap.Int("count", len(records)))
	return len(records), nil
}

// ReplaceTraining preprocesses the given records and swaps in a new training
// corpus. Rows with an empty program name are dropped. Returns the new
// corpus size.
func (s *Store) ReplaceTraining(records []TrainingRecord) int {
	docs := make([]*models.Document, 0, len(records))
	for _, r := range records {
		name := strings.TrimSpace(r.Program)
		if name == "" {
			continue
		}
		raw := trainingText(name, r.Objective)
		tokens := s.pre.Preprocess(raw)
		docs = append(docs, &models.Document{
			Index:   len(docs),
			Kind:    models.KindTraining,
			Name:    name,
			RawText: raw,
			Tokens:  tokens,
			TermSet: textproc.TermSet(tokens),
		})
	}
	s.mu.Lock()
	s.version++
	s.training = &models.Corpus{Kind: models.KindTraining, Documents: docs, Version: s.version}
	s.mu.Unlock()
	s.logger.Info("training corpus replaced", zap.Int("documents", len(docs)))
	return len(docs)
}

// ReplaceJobs preprocesses the given records and swaps in a new job corpus.
func (s *Store) ReplaceJobs(records []JobRecord) int {
	docs := make([]*models.Document, 0, len(records))
	for _, r := range records {
		name := strings.TrimSpace(r.Title)
		if name == "" {
			continue
		}
		raw := strings.TrimSpace(r.Description)
		if raw == "" {
			raw = name
		}
		tokens := s.pre.Preprocess(raw)
		docs = append(docs, &models.Document{
			Index:     len(docs),
			Kind:      models.KindJob,
			Name:      name,
			Company:   strings.TrimSpace(r.Company),
			RawText:   raw,
			Tokens:    tokens,
			TermSet:   textproc.TermSet(tokens),
			Vacancies: r.Vacancies,
		})
	}
	s.mu.Lock()
	s.version++
	s.jobs = &models.Corpus{Kind: models.KindJob, Documents: docs, Version: s.version}
	s.mu.Unlock()
	s.logger.Info("job corpus replaced", zap.Int("documents", len(docs)))
	return len(docs)
}

// Corpus returns the corpus of the given kind.
func (s *Store) Corpus(kind models.CorpusKind) (*models.Corpus, error) {
	if !kind.Valid() {
		return nil, &models.ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown corpus kind %q", kind)}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if kind == models.KindTraining {
		return s.training, nil
	}
	return s.jobs, nil
}

// Snapshot returns both corpora as one consistent pair.
func (s *Store) Snapshot() (training, jobs *models.Corpus) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.training, s.jobs
}

// Placements returns the placement records.
func (s *Store) Placements() []models.PlacementRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.placements
}

// Document returns one document by corpus kind and index.
func (s *Store) Document(kind models.CorpusKind, index int) (*models.Document, error) {
	c, err := s.Corpus(kind)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= c.Len() {
		return nil, &models.NotFoundError{Kind: string(kind), Index: index}
	}
	return c.Documents[index], nil
}

// trainingText picks the training document's text feature: the stated
// objective, or a synthesized sentence when the source row left it blank.
// The synthesized wording mirrors how the dataset authors phrase objectives
// so its token profile blends with real rows.
func trainingText(program, objective string) string {
	if t := strings.TrimSpace(objective); t != "" {
		return t
	}
	return fmt.Sprintf(
		"Setelah mengikuti pelatihan ini peserta kompeten dalam melaksanakan pekerjaan %s sesuai standar dan SOP di tempat kerja.",
		strings.ToLower(program),
	)
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

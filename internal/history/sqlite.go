// Package history persists experiment runs and their recommendation output
// to SQLite, so past runs can be listed and compared after the corpora have
// changed.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/balailatih/serasi/internal/models"
)

// Experiment is one recorded recommendation run.
type Experiment struct {
	ID            string                 `json:"id"`
	StartedAt     time.Time              `json:"started_at"`
	CompletedAt   *time.Time             `json:"completed_at,omitempty"`
	TrainingCount int                    `json:"training_count"`
	JobCount      int                    `json:"job_count"`
	Thresholds    models.MatchThresholds `json:"thresholds"`
}

// Store implements experiment history on SQLite.
type Store struct {
	db *sql.DB
}

// New opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS experiments (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP,
		training_count INTEGER NOT NULL,
		job_count INTEGER NOT NULL,
		thresholds TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_experiments_started_at ON experiments(started_at);

	CREATE TABLE IF NOT EXISTS recommendations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		experiment_id TEXT NOT NULL,
		mode TEXT NOT NULL,
		rank INTEGER NOT NULL,
		source_index INTEGER NOT NULL,
		source_name TEXT NOT NULL,
		target_index INTEGER,
		target_name TEXT,
		company TEXT,
		score REAL NOT NULL,
		status TEXT NOT NULL,
		match_level TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (experiment_id) REFERENCES experiments(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_recommendations_experiment ON recommendations(experiment_id);
	`
	_, err := db.Exec(schema)
	return err
}

// StartExperiment records a new run and returns it with a fresh ID.
func (s *Store) StartExperiment(ctx context.Context, trainingCount, jobCount int, thresholds models.MatchThresholds) (*Experiment, error) {
	thresholdsJSON, err := json.Marshal(thresholds)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal thresholds: %w", err)
	}

	exp := &Experiment{
		ID:            uuid.New().String(),
		StartedAt:     time.Now(),
		TrainingCount: trainingCount,
		JobCount:      jobCount,
		Thresholds:    thresholds,
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO experiments (id, started_at, training_count, job_count, thresholds)
		 VALUES (?, ?, ?, ?, ?)`,
		exp.ID, exp.StartedAt, exp.TrainingCount, exp.JobCount, string(thresholdsJSON),
	)
	if err != nil {
		return nil, err
	}
	return exp, nil
}

// CompleteExperiment stamps a run as finished.
func (s *Store) CompleteExperiment(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE experiments SET completed_at = ? WHERE id = ?`, time.Now(), id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("experiment not found: %s", id)
	}
	return nil
}

// GetExperiment returns one experiment by ID.
func (s *Store) GetExperiment(ctx context.Context, id string) (*Experiment, error) {
	var exp Experiment
	var thresholdsJSON string
	var completedAt sql.NullTime

	err := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, completed_at, training_count, job_count, thresholds
		 FROM experiments WHERE id = ?`, id,
	).Scan(&exp.ID, &exp.StartedAt, &completedAt, &exp.TrainingCount, &exp.JobCount, &thresholdsJSON)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("experiment not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		exp.CompletedAt = &completedAt.Time
	}
	if err := json.Unmarshal([]byte(thresholdsJSON), &exp.Thresholds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal thresholds: %w", err)
	}
	return &exp, nil
}

// ListExperiments returns experiments newest first.
func (s *Store) ListExperiments(ctx context.Context, offset, limit int) ([]*Experiment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, completed_at, training_count, job_count, thresholds
		 FROM experiments ORDER BY started_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Experiment
	for rows.Next() {
		var exp Experiment
		var thresholdsJSON string
		var completedAt sql.NullTime
		if err := rows.Scan(&exp.ID, &exp.StartedAt, &completedAt, &exp.TrainingCount, &exp.JobCount, &thresholdsJSON); err != nil {
			return nil, err
		}
		if completedAt.Valid {
			exp.CompletedAt = &completedAt.Time
		}
		_ = json.Unmarshal([]byte(thresholdsJSON), &exp.Thresholds)
		out = append(out, &exp)
	}
	return out, rows.Err()
}

// SaveRecommendations stores a run's rows in one transaction.
func (s *Store) SaveRecommendations(ctx context.Context, experimentID string, mode models.RecommendMode, recs []models.Recommendation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO recommendations
		 (experiment_id, mode, rank, source_index, source_name, target_index, target_name, company, score, status, match_level, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, r := range recs {
		var targetIdx interface{}
		if r.TargetIndex != nil {
			targetIdx = *r.TargetIndex
		}
		if _, err := stmt.ExecContext(ctx,
			experimentID, string(mode), r.Rank, r.SourceIndex, r.SourceName,
			targetIdx, r.TargetName, r.Company, r.Score, string(r.Status), r.MatchLevel, now,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetRecommendations returns a run's stored rows in insertion order.
func (s *Store) GetRecommendations(ctx context.Context, experimentID string) ([]models.Recommendation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rank, source_index, source_name, target_index, target_name, company, score, status, match_level
		 FROM recommendations WHERE experiment_id = ? ORDER BY id`,
		experimentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Recommendation
	for rows.Next() {
		var r models.Recommendation
		var targetIdx sql.NullInt64
		var status, matchLevel string
		if err := rows.Scan(&r.Rank, &r.SourceIndex, &r.SourceName, &targetIdx, &r.TargetName, &r.Company, &r.Score, &status, &matchLevel); err != nil {
			return nil, err
		}
		if targetIdx.Valid {
			v := int(targetIdx.Int64)
			r.TargetIndex = &v
		}
		r.Status = models.MatchStatus(status)
		r.MatchLevel = matchLevel
		r.Percentage = r.Score * 100
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountExperiments returns the total number of recorded runs.
func (s *Store) CountExperiments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM experiments`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Package recommend ranks similarity-matrix scores into per-item
// recommendation lists and classifies each score into a match tier.
package recommend

import (
	"sync"

	"github.com/balailatih/serasi/internal/models"
)

// Match tier labels, strongest first.
const (
	LevelExcellent = "Excellent"
	LevelVeryGood  = "Very Good"
	LevelGood      = "Good"
	LevelFair      = "Fair"
	LevelWeak      = "Weak"
)

// Classify maps a similarity score onto a tier label using the given
// boundaries. Boundaries are inclusive on the lower edge of each tier.
func Classify(score float64, t models.MatchThresholds) string {
	switch {
	case score >= t.Excellent:
		return LevelExcellent
	case score >= t.VeryGood:
		return LevelVeryGood
	case score >= t.Good:
		return LevelGood
	case score >= t.Fair:
		return LevelFair
	default:
		return LevelWeak
	}
}

// ThresholdStore holds the active tier boundaries. Updates are validated
// first; a rejected update leaves the previous boundaries untouched.
type ThresholdStore struct {
	mu sync.RWMutex
	t  models.MatchThresholds
}

// NewThresholdStore creates a store seeded with the given boundaries, or the
// defaults when the seed fails validation.
func NewThresholdStore(t models.MatchThresholds) *ThresholdStore {
	if err := t.Validate(); err != nil {
		t = models.DefaultThresholds()
	}
	return &ThresholdStore{t: t}
}

// Get returns the active boundaries.
func (s *ThresholdStore) Get() models.MatchThresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t
}

// Update replaces the boundaries after validating the ordering invariant.
func (s *ThresholdStore) Update(t models.MatchThresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.t = t
	s.mu.Unlock()
	return nil
}

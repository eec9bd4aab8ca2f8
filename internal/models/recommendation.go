package models

// RecommendMode selects which corpus is the source of a recommendation run.
type RecommendMode string

const (
	// ModeByJob recommends training programs for job vacancies.
	ModeByJob RecommendMode = "by_job"
	// ModeByTraining recommends job vacancies for training programs.
	ModeByTraining RecommendMode = "by_training"
)

// Valid reports whether m is a known mode.
func (m RecommendMode) Valid() bool {
	return m == ModeByJob || m == ModeByTraining
}

// MatchStatus classifies a recommendation row.
type MatchStatus string

const (
	// StatusMatched marks a row whose score cleared the threshold.
	StatusMatched MatchStatus = "MATCHED"
	// StatusNoMatch marks the synthetic row emitted when nothing qualified.
	StatusNoMatch MatchStatus = "NO_MATCH"
)

// Recommendation is one ranked row of a recommendation run. TargetIndex is
// nil only when Status is NO_MATCH; in that case Score carries the best
// unqualified candidate's score and MatchLevel explains why it fell short.
type Recommendation struct {
	Rank        int         `json:"rank"`
	SourceIndex int         `json:"source_index"`
	SourceName  string      `json:"source_name"`
	TargetIndex *int        `json:"target_index"`
	TargetName  string      `json:"target_name,omitempty"`
	Company     string      `json:"company,omitempty"`
	Score       float64     `json:"score"`
	Percentage  float64     `json:"percentage"`
	Status      MatchStatus `json:"status"`
	MatchLevel  string      `json:"match_level"`
}

// MatchThresholds is the ordered tier boundary tuple. The invariant
// excellent > very_good > good > fair >= 0 (all below 1) holds for every
// value of this type that passed Validate.
type MatchThresholds struct {
	Excellent float64 `json:"excellent" yaml:"excellent"`
	VeryGood  float64 `json:"very_good" yaml:"very_good"`
	Good      float64 `json:"good" yaml:"good"`
	Fair      float64 `json:"fair" yaml:"fair"`
}

// DefaultThresholds returns the standard tier boundaries.
func DefaultThresholds() MatchThresholds {
	return MatchThresholds{Excellent: 0.80, VeryGood: 0.65, Good: 0.50, Fair: 0.35}
}

// Validate checks the ordering invariant. A violating tuple is rejected,
// never clamped.
func (t MatchThresholds) Validate() error {
	if t.Fair < 0 {
		return &ValidationError{Field: "fair", Reason: "must be >= 0"}
	}
	if t.Excellent >= 1 {
		return &ValidationError{Field: "excellent", Reason: "must be below 1"}
	}
	if !(t.Excellent > t.VeryGood) {
		return &ValidationError{Field: "very_good", Reason: "must be below excellent"}
	}
	if !(t.VeryGood > t.Good) {
		return &ValidationError{Field: "good", Reason: "must be below very_good"}
	}
	if !(t.Good > t.Fair) {
		return &ValidationError{Field: "fair", Reason: "must be below good"}
	}
	return nil
}

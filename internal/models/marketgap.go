package models

// GapStatus classifies a program's supply/demand balance.
type GapStatus string

const (
	// StatusOversupply marks gap > 20 (placements far outpace local vacancies).
	StatusOversupply GapStatus = "OVERSUPPLY"
	// StatusHighExternal marks gap in (10, 20].
	StatusHighExternal GapStatus = "HIGH_EXTERNAL"
	// StatusBalanced marks gap in [-10, 10].
	StatusBalanced GapStatus = "BALANCED"
	// StatusUndersupply marks gap in [-20, -10).
	StatusUndersupply GapStatus = "UNDERSUPPLY"
	// StatusCriticalUndersupply marks gap < -20.
	StatusCriticalUndersupply GapStatus = "CRITICAL_UNDERSUPPLY"
	// StatusUnmatched marks a placement program that could not be linked to
	// a training document with enough confidence.
	StatusUnmatched GapStatus = "UNMATCHED"
)

// ClassifyGap buckets a gap value (placement rate minus market capacity,
// both in percent) into a status.
func ClassifyGap(gap float64) GapStatus {
	switch {
	case gap > 20:
		return StatusOversupply
	case gap > 10:
		return StatusHighExternal
	case gap >= -10:
		return StatusBalanced
	case gap >= -20:
		return StatusUndersupply
	default:
		return StatusCriticalUndersupply
	}
}

// GapJob is one job posting that matched a program in the gap analysis.
type GapJob struct {
	JobIndex   int     `json:"job_index"`
	JobName    string  `json:"job_name"`
	Company    string  `json:"company,omitempty"`
	Similarity float64 `json:"similarity"` // percent, 0-100
	Vacancies  int     `json:"vacancies"`
}

// MarketGapRecord is the per-program outcome of the gap analysis.
// PlacementRate and MarketCapacity are percentages; Gap is their difference.
// Confidence is the fuzzy-match score (0-100) of the placement program name
// against its linked training document.
type MarketGapRecord struct {
	Program        string    `json:"program"`
	TrainingIndex  int       `json:"training_index"`
	TrainingMatch  string    `json:"training_match"`
	Confidence     float64   `json:"confidence"`
	Graduates      int       `json:"graduates"`
	Placed         int       `json:"placed"`
	PlacementRate  float64   `json:"placement_rate"`
	MatchingJobs   int       `json:"matching_jobs"`
	TotalVacancies int       `json:"total_vacancies"`
	MarketCapacity float64   `json:"market_capacity"`
	Gap            float64   `json:"gap"`
	Status         GapStatus `json:"status"`
	TopJobs        []GapJob  `json:"top_jobs,omitempty"`
}

// UnmatchedProgram reports a placement record whose best training candidate
// fell below the confidence floor.
type UnmatchedProgram struct {
	Program    string  `json:"program"`
	BestMatch  string  `json:"best_match"`
	Confidence float64 `json:"confidence"`
}

// MarketGapSummary aggregates totals across matched programs only.
type MarketGapSummary struct {
	TotalPrograms         int     `json:"total_programs"`
	MatchedPrograms       int     `json:"matched_programs"`
	UnmatchedPrograms     int     `json:"unmatched_programs"`
	TotalGraduates        int     `json:"total_graduates"`
	TotalPlaced           int     `json:"total_placed"`
	TotalVacancies        int     `json:"total_vacancies"`
	OverallPlacementRate  float64 `json:"overall_placement_rate"`
	OverallMarketCapacity float64 `json:"overall_market_capacity"`
	OverallGap            float64 `json:"overall_gap"`
}

// MarketGapReport is the full result of a gap analysis run.
type MarketGapReport struct {
	Summary   MarketGapSummary   `json:"summary"`
	Records   []*MarketGapRecord `json:"records"`
	Unmatched []UnmatchedProgram `json:"unmatched"`
}

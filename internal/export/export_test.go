package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/balailatih/serasi/internal/models"
)

func sampleRecommendations() []models.Recommendation {
	target := 2
	return []models.Recommendation{
		{
			Rank: 1, SourceIndex: 0, SourceName: "Welder", TargetIndex: &target,
			TargetName: "Teknik Las", Company: "PT Baja", Score: 0.7251,
			Percentage: 72.51, Status: models.StatusMatched, MatchLevel: "Very Good",
		},
		{
			Rank: 1, SourceIndex: 1, SourceName: "Staf Pajak", Score: 0.1,
			Percentage: 10, Status: models.StatusNoMatch,
			MatchLevel: "no candidate above threshold 0.50; best scored 10.00% (Weak)",
		},
	}
}

func sampleReport() *models.MarketGapReport {
	return &models.MarketGapReport{
		Summary: models.MarketGapSummary{
			TotalPrograms: 2, MatchedPrograms: 1, UnmatchedPrograms: 1,
			TotalGraduates: 100, TotalPlaced: 62, TotalVacancies: 50,
			OverallPlacementRate: 62, OverallMarketCapacity: 50, OverallGap: 12,
		},
		Records: []*models.MarketGapRecord{
			{
				Program: "Teknik Las", TrainingMatch: "Teknik Las", Confidence: 100,
				Graduates: 100, Placed: 62, PlacementRate: 62, MatchingJobs: 1,
				TotalVacancies: 50, MarketCapacity: 50, Gap: 12,
				Status: models.StatusHighExternal,
				TopJobs: []models.GapJob{
					{JobName: "Welder", Company: "PT Baja", Similarity: 100, Vacancies: 50},
				},
			},
			{
				Program: "Budidaya Lebah Madu", TrainingMatch: "Teknik Las",
				Confidence: 4.5, Status: models.StatusUnmatched,
			},
		},
		Unmatched: []models.UnmatchedProgram{
			{Program: "Budidaya Lebah Madu", BestMatch: "Teknik Las", Confidence: 4.5},
		},
	}
}

func TestRecommendationsCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := RecommendationsCSV(&buf, sampleRecommendations()); err != nil {
		t.Fatal(err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0][0] != "Rank" || rows[0][9] != "Match Level" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][4] != "Teknik Las" || rows[1][8] != "MATCHED" {
		t.Errorf("matched row = %v", rows[1])
	}
	// NO_MATCH rows leave the target columns blank.
	if rows[2][3] != "" || rows[2][4] != "" {
		t.Errorf("no-match row target columns = %q %q", rows[2][3], rows[2][4])
	}
}

func TestRecommendationsXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := RecommendationsXLSX(&buf, sampleRecommendations()); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows("Recommendations")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[1][2] != "Welder" {
		t.Errorf("row 1 = %v", rows[1])
	}
}

func TestMarketGapXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := MarketGapXLSX(&buf, sampleReport()); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	want := []string{"Summary", "Program Analysis", "Matching Jobs", "Unmatched Programs", "Status Distribution"}
	got := f.GetSheetList()
	if len(got) != len(want) {
		t.Fatalf("sheets = %v, want %v", got, want)
	}
	for _, name := range want {
		if idx, _ := f.GetSheetIndex(name); idx < 0 {
			t.Errorf("missing sheet %q", name)
		}
	}

	summary, err := f.GetRows("Summary")
	if err != nil {
		t.Fatal(err)
	}
	var gapRow []string
	for _, row := range summary {
		if len(row) > 0 && strings.HasPrefix(row[0], "Overall Gap") {
			gapRow = row
		}
	}
	if len(gapRow) < 2 || gapRow[1] != "12.00" {
		t.Errorf("overall gap row = %v", gapRow)
	}

	jobs, err := f.GetRows("Matching Jobs")
	if err != nil {
		t.Fatal(err)
	}
	// One detail row per matched job plus the placeholder for the program
	// with no matches, plus the header.
	if len(jobs) != 3 {
		t.Fatalf("matching jobs rows = %d, want 3", len(jobs))
	}
	if jobs[2][2] != "No matching jobs" {
		t.Errorf("placeholder row = %v", jobs[2])
	}
}

func TestMarketGapXLSXNoUnmatched(t *testing.T) {
	report := sampleReport()
	report.Unmatched = nil
	report.Records = report.Records[:1]

	var buf bytes.Buffer
	if err := MarketGapXLSX(&buf, report); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex("Unmatched Programs"); idx >= 0 {
		t.Error("unmatched sheet present despite no unmatched programs")
	}
}

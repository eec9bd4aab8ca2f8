// Package export renders recommendation lists and market-gap reports to CSV
// and Excel for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/balailatih/serasi/internal/models"
	"github.com/balailatih/serasi/pkg/utils"
)

// maxColWidth caps auto-fit column widths so one long cell does not blow up
// the sheet layout.
const maxColWidth = 50

var recommendationHeader = []string{
	"Rank", "Source Index", "Source Name", "Target Index", "Target Name",
	"Company", "Score", "Percentage", "Status", "Match Level",
}

func recommendationRow(r models.Recommendation) []string {
	targetIdx, targetName := "", ""
	if r.TargetIndex != nil {
		targetIdx = strconv.Itoa(*r.TargetIndex)
		targetName = r.TargetName
	}
	return []string{
		strconv.Itoa(r.Rank),
		strconv.Itoa(r.SourceIndex),
		r.SourceName,
		targetIdx,
		targetName,
		r.Company,
		fmt.Sprintf("%.4f", r.Score),
		fmt.Sprintf("%.2f", r.Percentage),
		string(r.Status),
		r.MatchLevel,
	}
}

// RecommendationsCSV writes recommendations as CSV.
func RecommendationsCSV(w io.Writer, recs []models.Recommendation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recommendationHeader); err != nil {
		return err
	}
	for _, r := range recs {
		if err := cw.Write(recommendationRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// RecommendationsXLSX writes recommendations as a single-sheet workbook.
func RecommendationsXLSX(w io.Writer, recs []models.Recommendation) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Recommendations"
	f.SetSheetName(f.GetSheetName(0), sheet)

	rows := make([][]string, 0, len(recs)+1)
	rows = append(rows, recommendationHeader)
	for _, r := range recs {
		rows = append(rows, recommendationRow(r))
	}
	if err := writeSheet(f, sheet, rows); err != nil {
		return err
	}
	return f.Write(w)
}

// MarketGapXLSX writes the full market-gap report as a five-sheet workbook:
// summary, per-program analysis, matching-job detail, unmatched programs and
// the status distribution.
func MarketGapXLSX(w io.Writer, report *models.MarketGapReport) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), "Summary")
	if err := writeSheet(f, "Summary", summaryRows(report.Summary)); err != nil {
		return err
	}
	if err := addSheet(f, "Program Analysis", analysisRows(report.Records)); err != nil {
		return err
	}
	if err := addSheet(f, "Matching Jobs", jobDetailRows(report.Records)); err != nil {
		return err
	}
	if len(report.Unmatched) > 0 {
		if err := addSheet(f, "Unmatched Programs", unmatchedRows(report.Unmatched)); err != nil {
			return err
		}
	}
	if err := addSheet(f, "Status Distribution", statusRows(report.Records)); err != nil {
		return err
	}
	return f.Write(w)
}

func summaryRows(s models.MarketGapSummary) [][]string {
	return [][]string{
		{"Metric", "Value"},
		{"Total Programs Analyzed", strconv.Itoa(s.TotalPrograms)},
		{"Programs Matched", strconv.Itoa(s.MatchedPrograms)},
		{"Programs Unmatched", strconv.Itoa(s.UnmatchedPrograms)},
		{"Total Graduates", strconv.Itoa(s.TotalGraduates)},
		{"Total Placed", strconv.Itoa(s.TotalPlaced)},
		{"Overall Placement Rate (%)", fmt.Sprintf("%.2f", s.OverallPlacementRate)},
		{"Total Market Vacancies", strconv.Itoa(s.TotalVacancies)},
		{"Overall Market Capacity (%)", fmt.Sprintf("%.2f", s.OverallMarketCapacity)},
		{"Overall Gap (%)", fmt.Sprintf("%.2f", s.OverallGap)},
	}
}

func analysisRows(records []*models.MarketGapRecord) [][]string {
	rows := [][]string{{
		"Program Name", "Training Match", "Match Confidence (%)", "Graduates",
		"Placed", "Placement Rate (%)", "Unplaced", "Matching Jobs",
		"Total Vacancies", "Market Capacity (%)", "Gap (%)", "Status",
	}}
	for _, r := range records {
		rows = append(rows, []string{
			r.Program,
			r.TrainingMatch,
			fmt.Sprintf("%.2f", r.Confidence),
			strconv.Itoa(r.Graduates),
			strconv.Itoa(r.Placed),
			fmt.Sprintf("%.2f", r.PlacementRate),
			strconv.Itoa(r.Graduates - r.Placed),
			strconv.Itoa(r.MatchingJobs),
			strconv.Itoa(r.TotalVacancies),
			fmt.Sprintf("%.2f", r.MarketCapacity),
			fmt.Sprintf("%.2f", r.Gap),
			string(r.Status),
		})
	}
	return rows
}

func jobDetailRows(records []*models.MarketGapRecord) [][]string {
	rows := [][]string{{"Program Name", "Program Status", "Job Name", "Company", "Similarity (%)", "Vacancies"}}
	for _, r := range records {
		if len(r.TopJobs) == 0 {
			rows = append(rows, []string{r.Program, string(r.Status), "No matching jobs", "", "0", "0"})
			continue
		}
		for _, j := range r.TopJobs {
			rows = append(rows, []string{
				r.Program,
				string(r.Status),
				j.JobName,
				j.Company,
				fmt.Sprintf("%.2f", j.Similarity),
				strconv.Itoa(j.Vacancies),
			})
		}
	}
	return rows
}

func unmatchedRows(unmatched []models.UnmatchedProgram) [][]string {
	rows := [][]string{{"Program Name", "Best Training Match", "Confidence (%)", "Reason"}}
	for _, u := range unmatched {
		rows = append(rows, []string{
			u.Program,
			u.BestMatch,
			fmt.Sprintf("%.2f", u.Confidence),
			"Confidence below threshold",
		})
	}
	return rows
}

func statusRows(records []*models.MarketGapRecord) [][]string {
	counts := make(map[models.GapStatus]int)
	for _, r := range records {
		counts[r.Status]++
	}
	// Fixed order keeps the sheet stable across runs.
	order := []models.GapStatus{
		models.StatusOversupply, models.StatusHighExternal, models.StatusBalanced,
		models.StatusUndersupply, models.StatusCriticalUndersupply, models.StatusUnmatched,
	}
	rows := [][]string{{"Status", "Count", "Percentage"}}
	for _, status := range order {
		count := counts[status]
		if count == 0 {
			continue
		}
		pct := 0.0
		if len(records) > 0 {
			pct = utils.Round2(float64(count) / float64(len(records)) * 100)
		}
		rows = append(rows, []string{string(status), strconv.Itoa(count), fmt.Sprintf("%.2f", pct)})
	}
	return rows
}

func addSheet(f *excelize.File, name string, rows [][]string) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	return writeSheet(f, name, rows)
}

// writeSheet fills a sheet and auto-fits its column widths to the longest
// cell, capped at maxColWidth.
func writeSheet(f *excelize.File, sheet string, rows [][]string) error {
	widths := make([]int, 0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
		for c, v := range row {
			for len(widths) <= c {
				widths = append(widths, 0)
			}
			if len(v) > widths[c] {
				widths[c] = len(v)
			}
		}
	}
	for c, w := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		width := float64(w + 2)
		if width > maxColWidth {
			width = maxColWidth
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

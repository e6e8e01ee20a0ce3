package export

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"drone-survey-system/internal/domain"
)

// ContentType XLSX-файлу
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Назви аркушів книги
const (
	SheetReport    = "Report"
	SheetAnalysis  = "Analysis"
	SheetAnalytics = "Analytics"
	SheetSites     = "Sites"
)

// FileName формує ім'я файлу експорту звіту
func FileName(report *domain.Report, at time.Time) string {
	return fmt.Sprintf("%s-%s.xlsx", report.ReportType, at.UTC().Format("20060102T150405Z"))
}

// Workbook рендерить звіт у книгу XLSX. Аналітичні звіти отримують
// додаткові аркуші з розподілами та покриттям місць.
func Workbook(report *domain.Report) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetReport); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	w := &sheetWriter{f: f, bold: bold}

	w.sheet(SheetReport)
	w.pair("ID", report.ID.String())
	if report.MissionID.Valid {
		w.pair("Mission ID", report.MissionID.UUID.String())
	}
	w.pair("Type", string(report.ReportType))
	w.pair("Title", report.Title)
	w.pair("Content", report.Content)
	w.pair("Created At", report.CreatedAt.UTC().Format(time.RFC3339))
	w.pair("Distance Covered (m)", floatOrEmpty(report.Data.DistanceCovered))
	w.pair("Flight Time (min)", intOrEmpty(report.Data.FlightTime))
	w.pair("Battery Consumption", floatOrEmpty(report.Data.BatteryConsumption))
	w.pair("Images Captured", intOrEmpty(report.Data.ImagesCaptured))
	w.pair("Videos Captured", intOrEmpty(report.Data.VideosCaptured))
	if area := report.Data.SurveyArea; area != nil {
		w.pair("Survey Area (m²)", area.TotalArea)
		w.pair("Coverage (%)", intOrEmpty(area.CoveragePercentage))
		w.pair("Resolution (m)", floatOrEmpty(area.Resolution))
	}
	for _, a := range report.Data.Anomalies {
		w.pair("Anomaly", a)
	}

	w.sheet(SheetAnalysis)
	w.pair("Efficiency", intOrEmpty(report.Analysis.Efficiency))
	w.pair("Risk Assessment", report.Analysis.RiskAssessment)
	w.pair("Compliance", report.Analysis.Compliance)
	for _, rec := range report.Analysis.Recommendations {
		w.pair("Recommendation", rec)
	}

	if summary := report.Data.Analytics; summary != nil {
		writeAnalytics(w, summary)
	}

	if w.err != nil {
		return nil, w.err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return buf, nil
}

func writeAnalytics(w *sheetWriter, s *domain.AnalyticsSummary) {
	w.sheet(SheetAnalytics)
	w.pair("Total Missions", s.TotalMissions)
	w.pair("Completed Missions", s.CompletedMissions)
	w.pair("Failed Missions", s.FailedMissions)
	w.pair("Success Rate (%)", s.SuccessRate)
	w.pair("Average Duration (min)", s.AverageDuration)
	w.pair("Total Flight Time (min)", s.TotalFlightTime)
	w.pair("Total Distance (m)", s.TotalDistance)
	w.pair("Average Distance (m)", s.AverageDistance)
	w.pair("Coverage Efficiency (%)", s.CoverageEfficiency)

	w.counts("Status", s.StatusDistribution)
	w.counts("Mission Type", s.MissionTypes)
	w.counts("Month", s.MonthlyTrends)
	w.counts("Drone", s.DroneUtilization)

	w.sheet(SheetSites)
	w.header("Site", "Key", "Latitude", "Longitude", "Surveys", "Distance (m)", "Flight Time (min)")
	for _, site := range s.SiteCoverage {
		w.row(site.Name, site.Key, site.Location.Latitude, site.Location.Longitude,
			site.SurveyCount, site.TotalDistance, site.TotalFlightTime)
	}
}

// sheetWriter послідовно заповнює рядки поточного аркуша та запам'ятовує першу помилку
type sheetWriter struct {
	f      *excelize.File
	bold   int
	name   string
	rowNum int
	err    error
}

func (w *sheetWriter) sheet(name string) {
	if w.err != nil {
		return
	}
	if idx, _ := w.f.GetSheetIndex(name); idx < 0 {
		if _, err := w.f.NewSheet(name); err != nil {
			w.err = fmt.Errorf("failed to create sheet %s: %w", name, err)
			return
		}
	}
	w.name = name
	w.rowNum = 0
	w.err = w.f.SetColWidth(name, "A", "A", 28)
}

func (w *sheetWriter) pair(label string, value interface{}) {
	w.row(label, value)
	if w.err == nil {
		cell, _ := excelize.CoordinatesToCellName(1, w.rowNum)
		w.err = w.f.SetCellStyle(w.name, cell, cell, w.bold)
	}
}

func (w *sheetWriter) header(labels ...string) {
	values := make([]interface{}, len(labels))
	for i, l := range labels {
		values[i] = l
	}
	w.row(values...)
	if w.err == nil {
		first, _ := excelize.CoordinatesToCellName(1, w.rowNum)
		last, _ := excelize.CoordinatesToCellName(len(labels), w.rowNum)
		w.err = w.f.SetCellStyle(w.name, first, last, w.bold)
	}
}

func (w *sheetWriter) counts(label string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w.row()
	w.header(label, "Count")
	for _, k := range keys {
		w.row(k, counts[k])
	}
}

func (w *sheetWriter) row(values ...interface{}) {
	if w.err != nil {
		return
	}
	w.rowNum++
	if len(values) == 0 {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, w.rowNum)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(w.name, cell, &values); err != nil {
		w.err = fmt.Errorf("failed to write row %d of %s: %w", w.rowNum, w.name, err)
	}
}

func floatOrEmpty(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func intOrEmpty(v *int) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

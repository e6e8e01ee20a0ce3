package analytics

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"drone-survey-system/internal/domain"
)

// windowDateLayout форматує межі вікна у заголовках аналітичних звітів
const windowDateLayout = "2006-01-02"

// FillDerivedData заповнює data.FlightTime та data.DistanceCovered з місії,
// якщо їх не передано. Передані значення зберігаються.
func FillDerivedData(data *domain.ReportData, m *domain.Mission) {
	if m == nil {
		return
	}
	if data.FlightTime == nil && m.Duration != nil {
		flightTime := *m.Duration
		data.FlightTime = &flightTime
	}
	if data.DistanceCovered == nil && len(m.FlightPath) >= 2 {
		distance := FlightDistance(m)
		data.DistanceCovered = &distance
	}
}

// BuildAnalyticsReport загортає AnalyticsSummary у аналітичний звіт власника
func BuildAnalyticsReport(summary domain.AnalyticsSummary, window *domain.TimeWindow, owner uuid.UUID) *domain.Report {
	start, end := "All Time", "Present"
	if window != nil {
		if window.Start != nil {
			start = window.Start.Format(windowDateLayout)
		}
		if window.End != nil {
			end = window.End.Format(windowDateLayout)
		}
	}

	risk := "Low"
	if summary.FailedMissions > 0 {
		risk = "Medium"
	}

	recommendations := make([]string, 0, 3)
	if summary.FailedMissions > 0 {
		recommendations = append(recommendations, "Review failed missions for improvement opportunities")
	} else {
		recommendations = append(recommendations, "Maintain current operational standards")
	}
	if float64(summary.CompletedMissions) < float64(summary.TotalMissions)*0.8 {
		recommendations = append(recommendations, "Focus on mission completion rates")
	} else {
		recommendations = append(recommendations, "Excellent mission completion rate")
	}
	recommendations = append(recommendations, "Consider expanding drone fleet for increased capacity")

	efficiency := summary.SuccessRate
	flightTime := summary.TotalFlightTime
	distance := summary.TotalDistance

	return &domain.Report{
		ReportType: domain.ReportTypeAnalytics,
		Title:      fmt.Sprintf("Analytics Report - %s to %s", start, end),
		Content:    fmt.Sprintf("Comprehensive analytics report covering %d missions", summary.TotalMissions),
		Data: domain.ReportData{
			DistanceCovered: &distance,
			FlightTime:      &flightTime,
			Analytics:       &summary,
		},
		Analysis: domain.ReportAnalysis{
			Efficiency:      &efficiency,
			RiskAssessment:  risk,
			Recommendations: recommendations,
			Compliance:      true,
		},
		GeneratedBy: owner,
	}
}

// Stats рахує звіти загалом, за поточний календарний місяць та за типами
func Stats(reports []*domain.Report, now time.Time) domain.ReportStats {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	stats := domain.ReportStats{
		ReportTypes: CountReportTypes(reports),
	}
	for _, r := range reports {
		if r == nil {
			continue
		}
		stats.TotalReports++
		created := r.CreatedAt.In(now.Location())
		if !created.Before(monthStart) && !created.After(now) {
			stats.ThisMonth++
		}
	}
	return stats
}

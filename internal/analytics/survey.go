package analytics

import (
	"fmt"

	"github.com/google/uuid"

	"drone-survey-system/internal/domain"
	"drone-survey-system/pkg/geo"
)

// coverageTarget є відсотком покриття, нижче якого радимо переглянути маршрут
const coverageTarget = 80

// SurveyReportBuilder будує звіти survey_summary для однієї місії.
// Заповнюються лише значення, які можна обчислити з геометрії та часу місії.
// Показники батареї та зйомки залишаються nil.
type SurveyReportBuilder struct{}

// NewSurveyReportBuilder створює новий екземпляр SurveyReportBuilder
func NewSurveyReportBuilder() *SurveyReportBuilder {
	return &SurveyReportBuilder{}
}

// BuildSummary збирає незбережений звіт survey_summary власника місії.
// Перевірку власника виконує викликач.
func (b *SurveyReportBuilder) BuildSummary(m *domain.Mission) (*domain.Report, error) {
	if m == nil {
		return nil, &domain.NotFoundError{Entity: "mission"}
	}

	distance := FlightDistance(m)
	flightTime := 0
	if m.Duration != nil {
		flightTime = *m.Duration
	}

	data := domain.ReportData{
		DistanceCovered: &distance,
		FlightTime:      &flightTime,
	}
	if len(m.SurveyArea) > 2 {
		data.SurveyArea = SurveyAreaMetrics(m)
	}

	report := &domain.Report{
		MissionID:   uuid.NullUUID{UUID: m.ID, Valid: true},
		ReportType:  domain.ReportTypeSurveySummary,
		Title:       fmt.Sprintf("Survey Summary - %s", m.Name),
		Content:     surveyContent(m, distance, flightTime, data.SurveyArea),
		Data:        data,
		Analysis:    surveyAnalysis(m, data.SurveyArea),
		GeneratedBy: m.CreatedBy,
		IsPublic:    false,
	}

	return report, nil
}

// SurveyAreaMetrics обчислює площу області зйомки, а за наявності маршруту
// частку його точок всередині області та середню відстань між ними.
// Повертає nil для областей з менш ніж трьома вершинами.
func SurveyAreaMetrics(m *domain.Mission) *domain.SurveyAreaMetrics {
	if len(m.SurveyArea) < 3 {
		return nil
	}

	polygon := make([]geo.Point, len(m.SurveyArea))
	for i, p := range m.SurveyArea {
		polygon[i] = geo.Point{Latitude: p.Latitude, Longitude: p.Longitude}
	}

	metrics := &domain.SurveyAreaMetrics{
		TotalArea: float64(roundHalfUp(geo.PolygonArea(polygon))),
	}

	if len(m.FlightPath) > 0 {
		inside := 0
		for _, p := range m.FlightPath {
			if geo.Contains(polygon, geo.Point{Latitude: p.Latitude, Longitude: p.Longitude}) {
				inside++
			}
		}
		coverage := percentage(inside, len(m.FlightPath))
		metrics.CoveragePercentage = &coverage
	}

	if len(m.FlightPath) >= 2 {
		spacing := FlightDistance(m) / float64(len(m.FlightPath)-1)
		spacing = float64(roundHalfUp(spacing*10)) / 10
		metrics.Resolution = &spacing
	}

	return metrics
}

func surveyContent(m *domain.Mission, distance float64, flightTime int, area *domain.SurveyAreaMetrics) string {
	content := fmt.Sprintf("Survey report for mission: %s. This mission covered %.0fm with a flight time of %d minutes.",
		m.Name, distance, flightTime)
	if area != nil {
		content += fmt.Sprintf(" Survey area: %.0f m²", area.TotalArea)
		if area.CoveragePercentage != nil {
			content += fmt.Sprintf(", %d%% of flight path samples inside the area", *area.CoveragePercentage)
		}
		content += "."
	}
	return content
}

func surveyAnalysis(m *domain.Mission, area *domain.SurveyAreaMetrics) domain.ReportAnalysis {
	analysis := domain.ReportAnalysis{
		RiskAssessment:  riskFor(m),
		Recommendations: make([]string, 0, 3),
		Compliance:      m.Status != domain.MissionStatusFailed,
	}

	if area != nil && area.CoveragePercentage != nil {
		efficiency := *area.CoveragePercentage
		analysis.Efficiency = &efficiency
		if efficiency < coverageTarget {
			analysis.Recommendations = append(analysis.Recommendations, "Consider optimizing flight path for better coverage")
		}
	}

	if len(m.FlightPath) < 2 {
		analysis.Recommendations = append(analysis.Recommendations, "Record a flight path to enable distance and coverage metrics")
	}
	if m.Duration == nil {
		analysis.Recommendations = append(analysis.Recommendations, "Complete the mission lifecycle to capture flight time")
	}
	if m.Status == domain.MissionStatusFailed {
		analysis.Recommendations = append(analysis.Recommendations, "Review the failure cause before rescheduling this survey")
	}
	if len(analysis.Recommendations) == 0 {
		analysis.Recommendations = append(analysis.Recommendations, "Maintain current operational standards")
	}

	return analysis
}

func riskFor(m *domain.Mission) string {
	switch {
	case m.Status == domain.MissionStatusFailed:
		return "High"
	case m.Priority == domain.PriorityCritical || m.Priority == domain.PriorityHigh:
		return "Medium"
	default:
		return "Low"
	}
}

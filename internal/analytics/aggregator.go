package analytics

import (
	"math"
	"sort"

	"drone-survey-system/internal/domain"
)

// recentPerformanceSize є кількістю найновіших місій у зведенні
const recentPerformanceSize = 5

// Aggregator перетворює вибірку місій (та, за наявності, звітів) на статистику
// флоту. Фільтрація за вікном чи типом місії виконується раніше, вікно лише
// повертається у результаті.
type Aggregator struct {
	sites *SiteClusterer
}

// NewAggregator створює новий екземпляр Aggregator
func NewAggregator(sites *SiteClusterer) *Aggregator {
	if sites == nil {
		sites = NewSiteClusterer(DefaultSitePrecision)
	}
	return &Aggregator{sites: sites}
}

// Aggregate обчислює AnalyticsSummary. Порожня вибірка дає нульове зведення.
// ReportTypes заповнюється лише для reports != nil.
func (a *Aggregator) Aggregate(missions []*domain.Mission, reports []*domain.Report, window *domain.TimeWindow) domain.AnalyticsSummary {
	summary := domain.AnalyticsSummary{
		StatusDistribution: make(map[string]int, len(domain.MissionStatuses)),
		MissionTypes:       make(map[string]int, len(domain.MissionTypes)),
		MonthlyTrends:      make(map[string]int),
		DroneUtilization:   make(map[string]int),
		RecentPerformance:  make([]domain.MissionPerformance, 0, recentPerformanceSize),
		GeneratedFor:       window,
	}
	for _, s := range domain.MissionStatuses {
		summary.StatusDistribution[string(s)] = 0
	}
	for _, t := range domain.MissionTypes {
		summary.MissionTypes[string(t)] = 0
	}

	var (
		durationSum   int
		durationCount int
		pathCount     int
		valid         = make([]*domain.Mission, 0, len(missions))
	)

	for _, m := range missions {
		if m == nil {
			continue
		}
		valid = append(valid, m)

		summary.StatusDistribution[string(m.Status)]++
		summary.MissionTypes[string(m.MissionType)]++
		summary.MonthlyTrends[m.CreatedAt.UTC().Format("2006-01")]++

		if m.DroneID != "" {
			summary.DroneUtilization[m.DroneID]++
		}

		if m.Duration != nil {
			summary.TotalFlightTime += *m.Duration
			if *m.Duration > 0 {
				durationSum += *m.Duration
				durationCount++
			}
		}

		if len(m.FlightPath) >= 2 {
			summary.TotalDistance += FlightDistance(m)
			pathCount++
		}
	}

	summary.TotalMissions = len(valid)
	summary.CompletedMissions = summary.StatusDistribution[string(domain.MissionStatusCompleted)]
	summary.FailedMissions = summary.StatusDistribution[string(domain.MissionStatusFailed)]

	if durationCount > 0 {
		summary.AverageDuration = roundHalfUp(float64(durationSum) / float64(durationCount))
	}
	if pathCount > 0 {
		summary.AverageDistance = roundHalfUp(summary.TotalDistance / float64(pathCount))
	}

	summary.SiteCoverage = a.sites.ClusterBySite(valid)
	summary.SuccessRate = percentage(summary.CompletedMissions, summary.TotalMissions)
	summary.CoverageEfficiency = percentage(len(summary.SiteCoverage), summary.TotalMissions)
	summary.RecentPerformance = append(summary.RecentPerformance, recentPerformance(valid)...)

	if reports != nil {
		summary.ReportTypes = CountReportTypes(reports)
	}

	return summary
}

// CountReportTypes рахує звіти за типами. Кожен відомий тип присутній.
func CountReportTypes(reports []*domain.Report) map[string]int {
	counts := make(map[string]int, len(domain.ReportTypes))
	for _, t := range domain.ReportTypes {
		counts[string(t)] = 0
	}
	for _, r := range reports {
		if r != nil {
			counts[string(r.ReportType)]++
		}
	}
	return counts
}

func recentPerformance(missions []*domain.Mission) []domain.MissionPerformance {
	sorted := make([]*domain.Mission, len(missions))
	copy(sorted, missions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > recentPerformanceSize {
		sorted = sorted[:recentPerformanceSize]
	}

	rows := make([]domain.MissionPerformance, 0, len(sorted))
	for _, m := range sorted {
		row := domain.MissionPerformance{
			ID:          m.ID,
			Name:        m.Name,
			Status:      m.Status,
			MissionType: m.MissionType,
			Distance:    FlightDistance(m),
			CreatedAt:   m.CreatedAt,
		}
		if m.Duration != nil {
			row.Duration = *m.Duration
		}
		if row.Duration > 0 {
			row.MetersPerMinute = roundHalfUp(row.Distance / float64(row.Duration))
		}
		rows = append(rows, row)
	}
	return rows
}

// percentage повертає round(100 * part / total) або 0 для total == 0
func percentage(part, total int) int {
	if total == 0 {
		return 0
	}
	return roundHalfUp(100 * float64(part) / float64(total))
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

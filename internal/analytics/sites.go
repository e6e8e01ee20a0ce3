package analytics

import (
	"fmt"
	"math"
	"strconv"

	"drone-survey-system/internal/domain"
	"drone-survey-system/pkg/geo"
)

// DefaultSitePrecision округлює координати запуску до 4 знаків,
// об'єднуючи місії, запущені в межах приблизно 11 м.
const DefaultSitePrecision = 4

// SiteClusterer групує місії за місцями, округлюючи їхні координати
type SiteClusterer struct {
	precision int
	scale     float64
}

// NewSiteClusterer створює новий екземпляр SiteClusterer з точністю precision знаків
func NewSiteClusterer(precision int) *SiteClusterer {
	if precision < 0 {
		precision = 0
	}
	return &SiteClusterer{
		precision: precision,
		scale:     math.Pow(10, float64(precision)),
	}
}

// Precision повертає кількість знаків у ключах місць
func (c *SiteClusterer) Precision() int {
	return c.precision
}

// MergeRadiusMeters є приблизним розміром комірки одного місця
func (c *SiteClusterer) MergeRadiusMeters() float64 {
	return geo.CellSizeMeters(c.precision)
}

func (c *SiteClusterer) round(v float64) float64 {
	r := math.Round(v*c.scale) / c.scale
	if r == 0 {
		// -0 нормалізується, щоб обидва боки екватора чи меридіана мали один ключ
		return 0
	}
	return r
}

// SiteKey форматує округлені координати точки як "lat,lon"
func (c *SiteClusterer) SiteKey(lat, lon float64) string {
	return strconv.FormatFloat(c.round(lat), 'f', c.precision, 64) + "," +
		strconv.FormatFloat(c.round(lon), 'f', c.precision, 64)
}

// ClusterBySite групує місії за ключем місця. Місця називаються в порядку
// першої появи ("Site 1", "Site 2", ...) і повертаються в цьому ж порядку.
func (c *SiteClusterer) ClusterBySite(missions []*domain.Mission) []domain.SiteSummary {
	index := make(map[string]int)
	sites := make([]domain.SiteSummary, 0)

	for _, m := range missions {
		if m == nil {
			continue
		}

		key := c.SiteKey(m.Coordinates.Latitude, m.Coordinates.Longitude)
		i, ok := index[key]
		if !ok {
			i = len(sites)
			index[key] = i
			sites = append(sites, domain.SiteSummary{
				Name: fmt.Sprintf("Site %d", i+1),
				Key:  key,
				Location: domain.GeoPoint{
					Latitude:  c.round(m.Coordinates.Latitude),
					Longitude: c.round(m.Coordinates.Longitude),
				},
			})
		}

		site := &sites[i]
		site.SurveyCount++
		if m.Duration != nil {
			site.TotalFlightTime += *m.Duration
		}
		site.TotalDistance += FlightDistance(m)
	}

	return sites
}

// FlightDistance повертає довжину маршруту місії в метрах за haversine,
// 0 якщо точок менше двох
func FlightDistance(m *domain.Mission) float64 {
	if len(m.FlightPath) < 2 {
		return 0
	}
	points := make([]geo.Point, len(m.FlightPath))
	for i, p := range m.FlightPath {
		points[i] = geo.Point{Latitude: p.Latitude, Longitude: p.Longitude}
	}
	return geo.PathLength(points)
}

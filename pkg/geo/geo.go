package geo

import (
	"math"
)

// EarthRadiusMeters is the mean Earth radius used by all distance calculations
const EarthRadiusMeters = 6371000.0

// Point is a WGS84 position in decimal degrees
type Point struct {
	Latitude  float64
	Longitude float64
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Haversine returns the great-circle distance between two points in meters
func Haversine(a, b Point) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dlat := lat2 - lat1
	dlon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// PathLength sums the haversine distance of consecutive points and rounds the
// total to the nearest whole meter. Fewer than two points yield 0.
func PathLength(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}

	var total float64
	for i := 1; i < len(points); i++ {
		total += Haversine(points[i-1], points[i])
	}

	return math.Round(total)
}

// PolygonArea returns the area of a simple polygon in square meters.
// Vertices are projected onto a local equirectangular plane centred on the
// polygon's mean latitude and the shoelace formula is applied. The result is
// accurate for survey-sized areas (a few kilometres across); degenerate
// polygons with fewer than three vertices have zero area.
func PolygonArea(polygon []Point) float64 {
	if len(polygon) < 3 {
		return 0
	}

	var meanLat float64
	for _, p := range polygon {
		meanLat += p.Latitude
	}
	meanLat /= float64(len(polygon))
	cosLat := math.Cos(toRadians(meanLat))

	// Longitudes are taken relative to the first vertex so polygons crossing
	// the antimeridian stay contiguous.
	origin := polygon[0].Longitude
	project := func(p Point) (float64, float64) {
		dlon := p.Longitude - origin
		if dlon > 180 {
			dlon -= 360
		} else if dlon < -180 {
			dlon += 360
		}
		return EarthRadiusMeters * toRadians(dlon) * cosLat, EarthRadiusMeters * toRadians(p.Latitude)
	}

	var sum float64
	for i := range polygon {
		x1, y1 := project(polygon[i])
		x2, y2 := project(polygon[(i+1)%len(polygon)])
		sum += x1*y2 - x2*y1
	}

	return math.Abs(sum) / 2
}

// Contains reports whether p lies inside the polygon (ray casting).
// Points exactly on an edge may fall on either side.
func Contains(polygon []Point, p Point) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	j := len(polygon) - 1
	for i := range polygon {
		yi, xi := polygon[i].Latitude, polygon[i].Longitude
		yj, xj := polygon[j].Latitude, polygon[j].Longitude

		if (yi > p.Latitude) != (yj > p.Latitude) &&
			p.Longitude < (xj-xi)*(p.Latitude-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}

	return inside
}

// CellSizeMeters is the north-south extent of one grid cell when coordinates
// are rounded to the given number of decimal places. At precision 4 this is
// roughly 11 m, the radius within which two launch points merge into one site.
func CellSizeMeters(precision int) float64 {
	return toRadians(math.Pow(10, -float64(precision))) * EarthRadiusMeters
}

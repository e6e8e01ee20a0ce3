package domain

import (
	"fmt"
	"math"
)

// ValidateMission перевіряє геометрію місії: координати в допустимих межах,
// щонайменше три вершини області зйомки та висоту кожної точки маршруту
// для типів місій, яким вона потрібна.
func ValidateMission(m *Mission) error {
	if err := validatePosition("coordinates", m.Coordinates.Latitude, m.Coordinates.Longitude); err != nil {
		return err
	}

	if m.SurveyArea != nil {
		if len(m.SurveyArea) < 3 {
			return &GeometryError{Field: "surveyArea", Reason: "survey area must have at least 3 points"}
		}
		for i, p := range m.SurveyArea {
			if err := validatePosition(fmt.Sprintf("surveyArea[%d]", i), p.Latitude, p.Longitude); err != nil {
				return err
			}
		}
	}

	for i, p := range m.FlightPath {
		field := fmt.Sprintf("flightPath[%d]", i)
		if err := validatePosition(field, p.Latitude, p.Longitude); err != nil {
			return err
		}
		if p.Altitude == nil && m.MissionType.RequiresAltitude() {
			return &GeometryError{Field: field, Reason: fmt.Sprintf("altitude is required for %s missions", m.MissionType)}
		}
	}

	return nil
}

func validatePosition(field string, lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return &GeometryError{Field: field, Reason: fmt.Sprintf("position (%g, %g) is out of range", lat, lon)}
	}
	return nil
}

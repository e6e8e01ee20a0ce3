package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateMission(t *testing.T) {
	alt := 120.0
	base := func() *Mission {
		return &Mission{
			Coordinates: Coordinates{Latitude: 37.7749, Longitude: -122.4194, Altitude: 100},
			MissionType: MissionTypeSurveillance,
		}
	}

	tests := []struct {
		name    string
		mutate  func(m *Mission)
		wantErr bool
	}{
		{"minimal mission", func(m *Mission) {}, false},
		{"latitude out of range", func(m *Mission) { m.Coordinates.Latitude = 91 }, true},
		{"longitude out of range", func(m *Mission) { m.Coordinates.Longitude = -181 }, true},
		{"survey area with two points", func(m *Mission) {
			m.SurveyArea = []GeoPoint{{1, 1}, {1, 2}}
		}, true},
		{"empty survey area", func(m *Mission) { m.SurveyArea = []GeoPoint{} }, true},
		{"survey area triangle", func(m *Mission) {
			m.SurveyArea = []GeoPoint{{1, 1}, {1, 2}, {2, 2}}
		}, false},
		{"mapping path without altitude", func(m *Mission) {
			m.MissionType = MissionTypeMapping
			m.FlightPath = []PathPoint{{Latitude: 1, Longitude: 1, Altitude: &alt}, {Latitude: 1, Longitude: 2}}
		}, true},
		{"surveillance path without altitude", func(m *Mission) {
			m.FlightPath = []PathPoint{{Latitude: 1, Longitude: 1}, {Latitude: 1, Longitude: 2}}
		}, false},
		{"inspection path fully specified", func(m *Mission) {
			m.MissionType = MissionTypeInspection
			m.FlightPath = []PathPoint{{Latitude: 1, Longitude: 1, Altitude: &alt}}
		}, false},
		{"path point out of range", func(m *Mission) {
			m.FlightPath = []PathPoint{{Latitude: 100, Longitude: 1}}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := base()
			tt.mutate(m)
			err := ValidateMission(m)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedGeometry)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseMissionStatus(t *testing.T) {
	s, err := ParseMissionStatus("failed")
	assert.NoError(t, err)
	assert.Equal(t, MissionStatusFailed, s)

	_, err = ParseMissionStatus("archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.EqualError(t, err, `invalid status "archived"`)
}

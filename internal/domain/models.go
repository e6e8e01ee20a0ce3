package domain

import (
	"time"

	"github.com/google/uuid"
)

// Перелічувані типи статусів та видів
type MissionStatus string
type MissionType string
type Priority string
type ReportType string

const (
	// Статуси місій
	MissionStatusPending   MissionStatus = "pending"
	MissionStatusActive    MissionStatus = "active"
	MissionStatusCompleted MissionStatus = "completed"
	MissionStatusFailed    MissionStatus = "failed"
	MissionStatusCancelled MissionStatus = "cancelled"

	// Типи місій
	MissionTypeSurveillance MissionType = "surveillance"
	MissionTypeMapping      MissionType = "mapping"
	MissionTypeInspection   MissionType = "inspection"
	MissionTypeDelivery     MissionType = "delivery"

	// Пріоритети
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"

	// Типи звітів
	ReportTypeSummary       ReportType = "summary"
	ReportTypeDetailed      ReportType = "detailed"
	ReportTypeAnalytics     ReportType = "analytics"
	ReportTypeIncident      ReportType = "incident"
	ReportTypeSurveySummary ReportType = "survey_summary"
)

// DefaultAltitude застосовується до координат місії без висоти
const DefaultAltitude = 100.0

// MissionStatuses перелічує всі статуси в порядку життєвого циклу
var MissionStatuses = []MissionStatus{
	MissionStatusPending,
	MissionStatusActive,
	MissionStatusCompleted,
	MissionStatusFailed,
	MissionStatusCancelled,
}

// MissionTypes перелічує всі типи місій
var MissionTypes = []MissionType{
	MissionTypeSurveillance,
	MissionTypeMapping,
	MissionTypeInspection,
	MissionTypeDelivery,
}

// ReportTypes перелічує всі типи звітів
var ReportTypes = []ReportType{
	ReportTypeSummary,
	ReportTypeDetailed,
	ReportTypeAnalytics,
	ReportTypeIncident,
	ReportTypeSurveySummary,
}

// ParseMissionStatus перетворює сире значення на MissionStatus
func ParseMissionStatus(value string) (MissionStatus, error) {
	for _, s := range MissionStatuses {
		if string(s) == value {
			return s, nil
		}
	}
	return "", &StatusError{Value: value}
}

// Valid перевіряє, чи є t відомим типом місії
func (t MissionType) Valid() bool {
	for _, mt := range MissionTypes {
		if mt == t {
			return true
		}
	}
	return false
}

// Valid перевіряє, чи є p відомим пріоритетом
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Valid перевіряє, чи є t відомим типом звіту
func (t ReportType) Valid() bool {
	for _, rt := range ReportTypes {
		if rt == t {
			return true
		}
	}
	return false
}

// RequiresAltitude перевіряє, чи кожна точка маршруту місії цього типу
// повинна мати висоту.
func (t MissionType) RequiresAltitude() bool {
	return t == MissionTypeMapping || t == MissionTypeInspection
}

// Coordinates є точкою запуску місії
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

// GeoPoint є вершиною області зйомки
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PathPoint є однією записаною або запланованою точкою маршруту
type PathPoint struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Altitude  *float64   `json:"altitude,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// DataCollection описує, що дрон записує під час місії
type DataCollection struct {
	Frequency int      `json:"frequency"`
	Sensors   []string `json:"sensors"`
}

// Mission представляє заплановану або виконану операцію дрона
type Mission struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Status         MissionStatus   `json:"status"`
	Coordinates    Coordinates     `json:"coordinates"`
	SurveyArea     []GeoPoint      `json:"surveyArea,omitempty"`
	FlightPath     []PathPoint     `json:"flightPath,omitempty"`
	MissionType    MissionType     `json:"missionType"`
	Priority       Priority        `json:"priority"`
	ScheduledAt    *time.Time      `json:"scheduledAt"`
	StartedAt      *time.Time      `json:"startedAt"`
	CompletedAt    *time.Time      `json:"completedAt"`
	Duration       *int            `json:"duration"` // minutes
	CreatedBy      uuid.UUID       `json:"createdBy"`
	DroneID        string          `json:"droneId,omitempty"`
	DataCollection *DataCollection `json:"dataCollection,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// SurveyAreaMetrics обчислюються з полігону зйомки та маршруту
type SurveyAreaMetrics struct {
	TotalArea          float64  `json:"totalArea"`            // square meters
	CoveragePercentage *int     `json:"coveragePercentage"`   // share of path samples inside the area
	Resolution         *float64 `json:"resolution,omitempty"` // mean spacing between path samples, meters
}

// ReportData містить виміряні показники звіту. Nil означає "недоступно",
// а не нуль.
type ReportData struct {
	DistanceCovered    *float64           `json:"distanceCovered"` // meters
	FlightTime         *int               `json:"flightTime"`      // minutes
	BatteryConsumption *float64           `json:"batteryConsumption"`
	ImagesCaptured     *int               `json:"imagesCaptured"`
	VideosCaptured     *int               `json:"videosCaptured"`
	Anomalies          []string           `json:"anomalies,omitempty"`
	SurveyArea         *SurveyAreaMetrics `json:"surveyArea,omitempty"`
	Analytics          *AnalyticsSummary  `json:"analytics,omitempty"`
}

// ReportAnalysis є оціночною частиною звіту
type ReportAnalysis struct {
	Efficiency      *int     `json:"efficiency"`
	RiskAssessment  string   `json:"riskAssessment"`
	Recommendations []string `json:"recommendations"`
	Compliance      bool     `json:"compliance"`
}

// Report підсумовує одну місію або весь флот, якщо MissionID не задано
type Report struct {
	ID          uuid.UUID      `json:"id"`
	MissionID   uuid.NullUUID  `json:"missionId"`
	ReportType  ReportType     `json:"reportType"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	Data        ReportData     `json:"data"`
	Analysis    ReportAnalysis `json:"analysis"`
	GeneratedBy uuid.UUID      `json:"generatedBy"`
	IsPublic    bool           `json:"isPublic"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// TimeWindow обмежує записи за часом створення. Будь-яка межа може бути відкритою.
type TimeWindow struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// SiteSummary агрегує місії, запущені приблизно з однієї точки
type SiteSummary struct {
	Name            string   `json:"name"`
	Key             string   `json:"key"`
	Location        GeoPoint `json:"location"`
	SurveyCount     int      `json:"surveyCount"`
	TotalDistance   float64  `json:"totalDistance"`   // meters
	TotalFlightTime int      `json:"totalFlightTime"` // minutes
}

// MissionPerformance є рядком таблиці останніх місій
type MissionPerformance struct {
	ID              uuid.UUID     `json:"id"`
	Name            string        `json:"name"`
	Status          MissionStatus `json:"status"`
	MissionType     MissionType   `json:"missionType"`
	Duration        int           `json:"duration"`
	Distance        float64       `json:"distance"`
	MetersPerMinute int           `json:"metersPerMinute"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// AnalyticsSummary є зведенням по флоту для вибірки місій
type AnalyticsSummary struct {
	TotalMissions      int                  `json:"totalMissions"`
	CompletedMissions  int                  `json:"completedMissions"`
	FailedMissions     int                  `json:"failedMissions"`
	StatusDistribution map[string]int       `json:"statusDistribution"`
	MissionTypes       map[string]int       `json:"missionTypes"`
	AverageDuration    int                  `json:"averageDuration"`
	TotalFlightTime    int                  `json:"totalFlightTime"`
	TotalDistance      float64              `json:"totalDistance"`
	AverageDistance    int                  `json:"averageDistance"`
	SuccessRate        int                  `json:"successRate"`
	MonthlyTrends      map[string]int       `json:"monthlyTrends"`
	SiteCoverage       []SiteSummary        `json:"siteCoverage"`
	CoverageEfficiency int                  `json:"coverageEfficiency"`
	DroneUtilization   map[string]int       `json:"droneUtilization"`
	RecentPerformance  []MissionPerformance `json:"recentPerformance"`
	ReportTypes        map[string]int       `json:"reportTypes,omitempty"`
	GeneratedFor       *TimeWindow          `json:"generatedFor,omitempty"`
}

// ReportStats є оглядом звітів
type ReportStats struct {
	TotalReports int            `json:"totalReports"`
	ThisMonth    int            `json:"thisMonth"`
	ReportTypes  map[string]int `json:"reportTypes"`
}

// MissionFilter звужує запити місій. Нульові значення ігноруються.
type MissionFilter struct {
	CreatedBy   uuid.UUID
	Status      MissionStatus
	MissionType MissionType
	Window      TimeWindow
}

// ReportFilter звужує запити звітів. Нульові значення ігноруються.
type ReportFilter struct {
	GeneratedBy uuid.UUID
	ReportType  ReportType
	Window      TimeWindow
	Limit       int
	Offset      int
}

// MissionEventStatus є типом події для кожної зміни статусу
const MissionEventStatus = "mission.status"

// MissionEvent надсилається на дашборди власника при зміні місії
type MissionEvent struct {
	Type      string        `json:"type"`
	MissionID uuid.UUID     `json:"missionId"`
	OwnerID   uuid.UUID     `json:"-"`
	From      MissionStatus `json:"from"`
	To        MissionStatus `json:"to"`
	At        time.Time     `json:"at"`
}

package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drone-survey-system/internal/application"
	"drone-survey-system/internal/domain"
	"drone-survey-system/internal/infrastructure/export"
	"drone-survey-system/internal/infrastructure/repositories"
)

type testServer struct {
	t      *testing.T
	router http.Handler
	owner  uuid.UUID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := sql.Open(repositories.DriverSQLite, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repositories.InitializeSchema(context.Background(), db, repositories.DriverSQLite))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	missionRepo := repositories.NewSQLMissionRepository(db)
	reportRepo := repositories.NewSQLReportRepository(db)

	missionService := application.NewMissionService(missionRepo, nil, nil, logger)
	reportService := application.NewReportService(missionRepo, reportRepo, application.ReportServiceOptions{
		SitePrecision: 4,
		Logger:        logger,
	})

	r := chi.NewRouter()
	r.Use(RequireUser)
	NewMissionHandler(missionService, reportService, logger).RegisterRoutes(r)
	NewReportHandler(reportService, logger).RegisterRoutes(r)

	return &testServer{t: t, router: r, owner: uuid.New()}
}

func (s *testServer) do(method, path string, user uuid.UUID, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != uuid.Nil {
		req.Header.Set(UserIDHeader, user.String())
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createMission(name string) domain.Mission {
	s.t.Helper()

	rec := s.do(http.MethodPost, "/missions", s.owner, map[string]interface{}{
		"name":        name,
		"description": "grid survey",
		"coordinates": map[string]float64{"latitude": 50.45, "longitude": 30.52},
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	var m domain.Mission
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	return apiErr
}

func TestRequireUser(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/missions", uuid.Nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).ErrorCode)

	req := httptest.NewRequest(http.MethodGet, "/missions", nil)
	req.Header.Set(UserIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateMission(t *testing.T) {
	s := newTestServer(t)

	m := s.createMission("Field A")
	assert.Equal(t, domain.MissionStatusPending, m.Status)
	assert.Equal(t, domain.MissionTypeSurveillance, m.MissionType)
	assert.Equal(t, domain.DefaultAltitude, m.Coordinates.Altitude)
	assert.Equal(t, s.owner, m.CreatedBy)

	rec := s.do(http.MethodPost, "/missions", s.owner, map[string]interface{}{"description": "no name"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	apiErr := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)
	assert.Contains(t, fmt.Sprint(apiErr.Details), "name")
	assert.Contains(t, fmt.Sprint(apiErr.Details), "coordinates")

	rec = s.do(http.MethodPost, "/missions", s.owner, map[string]interface{}{
		"name":        "Bad area",
		"coordinates": map[string]float64{"latitude": 1, "longitude": 1},
		"surveyArea":  []map[string]float64{{"latitude": 1, "longitude": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MALFORMED_GEOMETRY", decodeError(t, rec).ErrorCode)
}

func TestListMissionsIsScopedToOwner(t *testing.T) {
	s := newTestServer(t)
	s.createMission("mine")

	rec := s.do(http.MethodGet, "/missions", s.owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var missions []domain.Mission
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &missions))
	assert.Len(t, missions, 1)

	rec = s.do(http.MethodGet, "/missions", uuid.New(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(http.MethodGet, "/missions?status=flying", s.owner, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateMissionStatusEndpoint(t *testing.T) {
	s := newTestServer(t)
	m := s.createMission("Field A")
	path := "/missions/" + m.ID.String() + "/status"

	tests := []struct {
		name     string
		path     string
		user     uuid.UUID
		status   string
		wantCode int
		wantErr  string
	}{
		{"unknown status", path, s.owner, "flying", http.StatusBadRequest, "INVALID_STATUS"},
		{"missing status", path, s.owner, "", http.StatusBadRequest, "VALIDATION_FAILED"},
		{"illegal transition", path, s.owner, "completed", http.StatusBadRequest, "ILLEGAL_TRANSITION"},
		{"foreign owner", path, uuid.New(), "active", http.StatusForbidden, "FORBIDDEN"},
		{"missing mission", "/missions/" + uuid.New().String() + "/status", s.owner, "active", http.StatusNotFound, "NOT_FOUND"},
		{"malformed id", "/missions/42/status", s.owner, "active", http.StatusBadRequest, "INVALID_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPatch, tt.path, tt.user, map[string]string{"status": tt.status})
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantErr, decodeError(t, rec).ErrorCode)
		})
	}

	rec := s.do(http.MethodPatch, path, s.owner, map[string]string{"status": "completed"})
	apiErr := decodeError(t, rec)
	assert.Equal(t, map[string]interface{}{"from": "pending", "to": "completed"}, apiErr.Details)

	rec = s.do(http.MethodPatch, path, s.owner, map[string]string{"status": "active"})
	require.Equal(t, http.StatusOK, rec.Code)
	var active domain.Mission
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &active))
	assert.Equal(t, domain.MissionStatusActive, active.Status)
	assert.NotNil(t, active.StartedAt)

	rec = s.do(http.MethodPut, "/missions/"+m.ID.String(), s.owner, map[string]string{"name": "late"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "NOT_EDITABLE", decodeError(t, rec).ErrorCode)

	rec = s.do(http.MethodDelete, "/missions/"+m.ID.String(), s.owner, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndDeleteMissionEndpoints(t *testing.T) {
	s := newTestServer(t)
	m := s.createMission("Field A")
	path := "/missions/" + m.ID.String()

	rec := s.do(http.MethodPut, path, s.owner, map[string]string{"name": "Field B", "priority": "high"})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated domain.Mission
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Field B", updated.Name)
	assert.Equal(t, domain.PriorityHigh, updated.Priority)

	rec = s.do(http.MethodGet, path, s.owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodDelete, path, s.owner, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, path, s.owner, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSurveySummaryEndpoint(t *testing.T) {
	s := newTestServer(t)
	m := s.createMission("Field A")

	rec := s.do(http.MethodPost, "/missions/"+m.ID.String()+"/survey-summary", s.owner, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var report domain.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, domain.ReportTypeSurveySummary, report.ReportType)
	assert.Equal(t, "Survey Summary - Field A", report.Title)
	assert.Equal(t, m.ID, report.MissionID.UUID)

	rec = s.do(http.MethodPost, "/missions/"+m.ID.String()+"/survey-summary", uuid.New(), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/reports/"+report.ID.String(), s.owner, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReportsEndpoints(t *testing.T) {
	s := newTestServer(t)
	m := s.createMission("Field A")

	rec := s.do(http.MethodPost, "/reports", s.owner, map[string]interface{}{
		"missionId": m.ID,
		"title":     "Flight log",
		"content":   "all nominal",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var report domain.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, domain.ReportTypeSummary, report.ReportType)

	rec = s.do(http.MethodPost, "/reports", s.owner, map[string]interface{}{"missionId": m.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/reports?page=1&limit=5", s.owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page application.ReportPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 1, page.TotalPages)
	assert.Len(t, page.Reports, 1)

	rec = s.do(http.MethodGet, "/reports?page=abc", s.owner, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/reports?startDate=yesterday", s.owner, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/reports/"+report.ID.String(), s.owner, map[string]interface{}{"isPublic": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isPublic":true`)

	rec = s.do(http.MethodGet, "/reports/stats", s.owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats domain.ReportStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalReports)
	assert.Equal(t, 1, stats.ReportTypes["summary"])

	rec = s.do(http.MethodDelete, "/reports/"+report.ID.String(), s.owner, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAnalyticsEndpoints(t *testing.T) {
	s := newTestServer(t)
	m := s.createMission("Field A")
	s.createMission("Field B")

	for _, status := range []string{"active", "completed"} {
		rec := s.do(http.MethodPatch, "/missions/"+m.ID.String()+"/status", s.owner, map[string]string{"status": status})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := s.do(http.MethodPost, "/reports/analytics", s.owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var summary domain.AnalyticsSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.TotalMissions)
	assert.Equal(t, 1, summary.CompletedMissions)
	assert.Equal(t, 50, summary.SuccessRate)
	assert.Len(t, summary.SiteCoverage, 1)

	rec = s.do(http.MethodPost, "/reports/analytics", s.owner, map[string]string{"startDate": "2999-01-01"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Zero(t, summary.TotalMissions)

	rec = s.do(http.MethodPost, "/reports/analytics", s.owner, map[string]string{"startDate": "2024-02-01", "endDate": "2024-01-01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/reports/analytics/report", s.owner, map[string]string{"startDate": "2024-01-01"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var report domain.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, domain.ReportTypeAnalytics, report.ReportType)
	assert.Equal(t, "Analytics Report - 2024-01-01 to Present", report.Title)
	assert.False(t, report.MissionID.Valid)
}

func TestExportEndpoints(t *testing.T) {
	s := newTestServer(t)
	m := s.createMission("Field A")

	rec := s.do(http.MethodPost, "/missions/"+m.ID.String()+"/survey-summary", s.owner, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var report domain.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))

	rec = s.do(http.MethodGet, "/reports/"+report.ID.String()+"/export", s.owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "survey_summary-")
	assert.NotZero(t, rec.Body.Len())

	// Архів не налаштовано
	rec = s.do(http.MethodPost, "/reports/"+report.ID.String()+"/archive", s.owner, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, rec).ErrorCode)
}

func TestErrorResponse(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"status", &domain.StatusError{Value: "x"}, http.StatusBadRequest},
		{"transition", &domain.TransitionError{From: "completed", To: "active"}, http.StatusBadRequest},
		{"geometry", &domain.GeometryError{Field: "surveyArea", Reason: "too short"}, http.StatusBadRequest},
		{"not editable", domain.ErrNotEditable, http.StatusBadRequest},
		{"input", fmt.Errorf("title: %w", domain.ErrInvalidInput), http.StatusBadRequest},
		{"forbidden", &domain.ForbiddenError{Entity: "mission", ID: id}, http.StatusForbidden},
		{"not found", &domain.NotFoundError{Entity: "mission", ID: id}, http.StatusNotFound},
		{"conflict", &domain.ConflictError{MissionID: id, Expected: "pending"}, http.StatusConflict},
		{"lost edit", fmt.Errorf("%w: %w", domain.ErrNotEditable, &domain.ConflictError{MissionID: id}), http.StatusConflict},
		{"archive", application.ErrArchiveUnavailable, http.StatusServiceUnavailable},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, errorResponse(tt.err).StatusCode)
		})
	}

	assert.Equal(t, "internal server error", errorResponse(errors.New("secret dsn")).Message)
}

func TestParseWindow(t *testing.T) {
	window, err := parseWindow("2024-01-01", "2024-01-31")
	require.NoError(t, err)
	require.NotNil(t, window.Start)
	require.NotNil(t, window.End)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *window.Start)
	assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, 999999999, time.UTC), *window.End)

	window, err = parseWindow("", "2024-01-31T10:00:00+02:00")
	require.NoError(t, err)
	assert.Nil(t, window.Start)
	assert.Equal(t, time.Date(2024, 1, 31, 8, 0, 0, 0, time.UTC), *window.End)

	_, err = parseWindow("01/02/2024", "")
	assert.Error(t, err)

	_, err = parseWindow("2024-02-01", "2024-01-31")
	assert.Error(t, err)

	window, err = parseWindow("2024-01-31", "2024-01-31")
	require.NoError(t, err)
	assert.True(t, window.End.After(*window.Start))
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(1, 2, slog.New(slog.NewTextHandler(io.Discard, nil)))
	handler := limiter.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:1002"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1000"))
}

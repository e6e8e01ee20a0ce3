package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"drone-survey-system/internal/application"
	"drone-survey-system/internal/domain"
)

// MissionHandler обробляє HTTP-запити, пов'язані з місіями
type MissionHandler struct {
	missionService *application.MissionService
	reportService  *application.ReportService
	logger         *slog.Logger
}

// NewMissionHandler створює новий MissionHandler
func NewMissionHandler(missionService *application.MissionService, reportService *application.ReportService, logger *slog.Logger) *MissionHandler {
	return &MissionHandler{
		missionService: missionService,
		reportService:  reportService,
		logger:         logger.With("component", "mission_handler"),
	}
}

// RegisterRoutes реєструє маршрути для MissionHandler
func (h *MissionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/missions", func(r chi.Router) {
		r.Get("/", h.ListMissions)
		r.Post("/", h.CreateMission)
		r.Get("/{id}", h.GetMission)
		r.Put("/{id}", h.UpdateMission)
		r.Delete("/{id}", h.DeleteMission)
		r.Patch("/{id}/status", h.UpdateMissionStatus)
		r.Post("/{id}/survey-summary", h.GenerateSurveySummary)
	})
}

type coordinatesRequest struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Altitude  *float64 `json:"altitude"`
}

type createMissionRequest struct {
	Name           string                 `json:"name" validate:"required,max=200"`
	Description    string                 `json:"description" validate:"max=2000"`
	Coordinates    *coordinatesRequest    `json:"coordinates" validate:"required"`
	SurveyArea     []domain.GeoPoint      `json:"surveyArea"`
	FlightPath     []domain.PathPoint     `json:"flightPath"`
	MissionType    domain.MissionType     `json:"missionType"`
	Priority       domain.Priority        `json:"priority"`
	ScheduledAt    *time.Time             `json:"scheduledAt"`
	DroneID        string                 `json:"droneId" validate:"max=100"`
	DataCollection *domain.DataCollection `json:"dataCollection"`
}

type updateMissionRequest struct {
	Name           *string                `json:"name" validate:"omitempty,max=200"`
	Description    *string                `json:"description" validate:"omitempty,max=2000"`
	Coordinates    *domain.Coordinates    `json:"coordinates"`
	SurveyArea     *[]domain.GeoPoint     `json:"surveyArea"`
	FlightPath     *[]domain.PathPoint    `json:"flightPath"`
	MissionType    *domain.MissionType    `json:"missionType"`
	Priority       *domain.Priority       `json:"priority"`
	ScheduledAt    *time.Time             `json:"scheduledAt"`
	DroneID        *string                `json:"droneId" validate:"omitempty,max=100"`
	DataCollection *domain.DataCollection `json:"dataCollection"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ListMissions обробляє GET /missions
func (h *MissionHandler) ListMissions(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	// Отримання фільтрів з query parameters
	filter := domain.MissionFilter{
		Status:      domain.MissionStatus(r.URL.Query().Get("status")),
		MissionType: domain.MissionType(r.URL.Query().Get("missionType")),
	}

	missions, err := h.missionService.ListMissions(r.Context(), userID, filter)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	render.JSON(w, r, missions)
}

// CreateMission обробляє POST /missions
func (h *MissionHandler) CreateMission(w http.ResponseWriter, r *http.Request) {
	var request createMissionRequest
	if err := decodeJSON(w, r, &request); err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	userID, _ := UserID(r.Context())
	mission, err := h.missionService.CreateMission(r.Context(), userID, application.MissionInput{
		Name:           request.Name,
		Description:    request.Description,
		Latitude:       request.Coordinates.Latitude,
		Longitude:      request.Coordinates.Longitude,
		Altitude:       request.Coordinates.Altitude,
		SurveyArea:     request.SurveyArea,
		FlightPath:     request.FlightPath,
		MissionType:    request.MissionType,
		Priority:       request.Priority,
		ScheduledAt:    request.ScheduledAt,
		DroneID:        request.DroneID,
		DataCollection: request.DataCollection,
	})
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, mission)
}

// GetMission обробляє GET /missions/{id}
func (h *MissionHandler) GetMission(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	userID, _ := UserID(r.Context())
	mission, err := h.missionService.GetMission(r.Context(), userID, id)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	render.JSON(w, r, mission)
}

// UpdateMission обробляє PUT /missions/{id}
func (h *MissionHandler) UpdateMission(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	var request updateMissionRequest
	if err := decodeJSON(w, r, &request); err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	userID, _ := UserID(r.Context())
	mission, err := h.missionService.UpdateMission(r.Context(), userID, id, application.MissionPatch{
		Name:           request.Name,
		Description:    request.Description,
		Coordinates:    request.Coordinates,
		SurveyArea:     request.SurveyArea,
		FlightPath:     request.FlightPath,
		MissionType:    request.MissionType,
		Priority:       request.Priority,
		ScheduledAt:    request.ScheduledAt,
		DroneID:        request.DroneID,
		DataCollection: request.DataCollection,
	})
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	render.JSON(w, r, mission)
}

// DeleteMission обробляє DELETE /missions/{id}
func (h *MissionHandler) DeleteMission(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	userID, _ := UserID(r.Context())
	if err := h.missionService.DeleteMission(r.Context(), userID, id); err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateMissionStatus обробляє PATCH /missions/{id}/status
func (h *MissionHandler) UpdateMissionStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	var request updateStatusRequest
	if err := decodeJSON(w, r, &request); err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	userID, _ := UserID(r.Context())
	mission, err := h.missionService.UpdateMissionStatus(r.Context(), userID, id, request.Status)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	render.JSON(w, r, mission)
}

// GenerateSurveySummary обробляє POST /missions/{id}/survey-summary
func (h *MissionHandler) GenerateSurveySummary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	userID, _ := UserID(r.Context())
	report, err := h.reportService.GenerateSurveySummary(r.Context(), userID, id)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, report)
}

// pathID розбирає UUID з параметра маршруту
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, badRequest("invalid " + name)
	}
	return id, nil
}

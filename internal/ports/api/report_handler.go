package api

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"drone-survey-system/internal/application"
	"drone-survey-system/internal/domain"
	"drone-survey-system/internal/infrastructure/export"
)

// dateLayout приймається для дат без часу
const dateLayout = "2006-01-02"

// ReportHandler обробляє HTTP-запити, пов'язані зі звітами та аналітикою
type ReportHandler struct {
	reportService *application.ReportService
	logger        *slog.Logger
}

// NewReportHandler створює новий ReportHandler
func NewReportHandler(reportService *application.ReportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger.With("component", "report_handler"),
	}
}

// RegisterRoutes реєструє маршрути для ReportHandler
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/", h.ListReports)
		r.Post("/", h.CreateReport)
		r.Get("/stats", h.GetStats)
		r.Post("/analytics", h.GetAnalytics)
		r.Post("/analytics/report", h.GenerateAnalyticsReport)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetReport)
			r.Put("/", h.UpdateReport)
			r.Delete("/", h.DeleteReport)
			r.Get("/export", h.ExportReport)
			r.Post("/archive", h.ArchiveReport)
			r.Get("/archive", h.ListArchived)
			r.Get("/archive/{name}", h.DownloadArchived)
		})
	})
}

type createReportRequest struct {
	MissionID  uuid.UUID             `json:"missionId" validate:"required"`
	ReportType domain.ReportType     `json:"reportType"`
	Title      string                `json:"title" validate:"required,max=200"`
	Content    string                `json:"content"`
	Data       domain.ReportData     `json:"data"`
	Analysis   domain.ReportAnalysis `json:"analysis"`
}

type updateReportRequest struct {
	Title    *string                `json:"title" validate:"omitempty,max=200"`
	Content  *string                `json:"content"`
	Analysis *domain.ReportAnalysis `json:"analysis"`
	IsPublic *bool                  `json:"isPublic"`
}

type analyticsRequest struct {
	StartDate   string             `json:"startDate"`
	EndDate     string             `json:"endDate"`
	MissionType domain.MissionType `json:"missionType"`
}

// ListReports обробляє GET /reports
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	window, err := parseWindow(q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	query := application.ReportQuery{
		ReportType: domain.ReportType(q.Get("reportType")),
		Window:     window,
	}
	if query.Page, err = queryInt(q.Get("page")); err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	if query.Limit, err = queryInt(q.Get("limit")); err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	userID, _ := UserID(r.Context())
	page, err := h.reportService.ListReports(r.Context(), userID, query)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	render.JSON(w, r, page)
}

// CreateReport обробляє POST /reports
func (h *ReportHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var request createReportRequest
	if err := decodeJSON(w, r, &request); err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	userID, _ := UserID(r.Context())
	report, err := h.reportService.CreateReport(r.Context(), userID, application.ReportInput{
		MissionID:  request.MissionID,
		ReportType: request.ReportType,
		Title:      request.Title,
		Content:    request.Content,
		Data:       request.Data,
		Analysis:   request.Analysis,
	})
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, report)
}

// GetStats обробляє GET /reports/stats
func (h *ReportHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	stats, err := h.reportService.Stats(r.Context(), userID)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	render.JSON(w, r, stats)
}

// GetAnalytics обробляє POST /reports/analytics
func (h *ReportHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	query, err := h.analyticsQuery(w, r)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	userID, _ := UserID(r.Context())
	summary, err := h.reportService.Analytics(r.Context(), userID, query)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	render.JSON(w, r, summary)
}

// GenerateAnalyticsReport обробляє POST /reports/analytics/report
func (h *ReportHandler) GenerateAnalyticsReport(w http.ResponseWriter, r *http.Request) {
	query, err := h.analyticsQuery(w, r)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	userID, _ := UserID(r.Context())
	report, err := h.reportService.GenerateAnalyticsReport(r.Context(), userID, query)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, report)
}

// GetReport обробляє GET /reports/{id}
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	userID, _ := UserID(r.Context())
	report, err := h.reportService.GetReport(r.Context(), userID, id)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	render.JSON(w, r, report)
}

// UpdateReport обробляє PUT /reports/{id}
func (h *ReportHandler) UpdateReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	var request updateReportRequest
	if err := decodeJSON(w, r, &request); err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	userID, _ := UserID(r.Context())
	report, err := h.reportService.UpdateReport(r.Context(), userID, id, application.ReportPatch{
		Title:    request.Title,
		Content:  request.Content,
		Analysis: request.Analysis,
		IsPublic: request.IsPublic,
	})
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	render.JSON(w, r, report)
}

// DeleteReport обробляє DELETE /reports/{id}
func (h *ReportHandler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	userID, _ := UserID(r.Context())
	if err := h.reportService.DeleteReport(r.Context(), userID, id); err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ExportReport обробляє GET /reports/{id}/export
func (h *ReportHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	userID, _ := UserID(r.Context())
	file, err := h.reportService.Export(r.Context(), userID, id)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+file.Name+"\"")
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	if _, err := w.Write(file.Data); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write export", "report_id", id, "error", err)
	}
}

// ArchiveReport обробляє POST /reports/{id}/archive
func (h *ReportHandler) ArchiveReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	userID, _ := UserID(r.Context())
	object, err := h.reportService.Archive(r.Context(), userID, id)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, object)
}

// ListArchived обробляє GET /reports/{id}/archive
func (h *ReportHandler) ListArchived(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	userID, _ := UserID(r.Context())
	objects, err := h.reportService.ListArchived(r.Context(), userID, id)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	render.JSON(w, r, objects)
}

// DownloadArchived обробляє GET /reports/{id}/archive/{name}
func (h *ReportHandler) DownloadArchived(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	name := chi.URLParam(r, "name")

	userID, _ := UserID(r.Context())
	rc, err := h.reportService.Download(r.Context(), userID, id, name)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.WarnContext(r.Context(), "failed to stream archived export", "report_id", id, "name", name, "error", err)
	}
}

func (h *ReportHandler) analyticsQuery(w http.ResponseWriter, r *http.Request) (application.AnalyticsQuery, error) {
	var request analyticsRequest
	// Порожнє тіло означає аналітику за весь час
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &request); err != nil {
			return application.AnalyticsQuery{}, err
		}
	}

	window, err := parseWindow(request.StartDate, request.EndDate)
	if err != nil {
		return application.AnalyticsQuery{}, err
	}

	return application.AnalyticsQuery{Window: window, MissionType: request.MissionType}, nil
}

// parseWindow розбирає межі вікна у форматі RFC3339 або 2006-01-02.
// Дата без часу як кінець вікна включає весь день.
func parseWindow(start, end string) (domain.TimeWindow, error) {
	var window domain.TimeWindow

	if start != "" {
		t, _, err := parseDate(start)
		if err != nil {
			return window, badRequest("invalid startDate: " + start)
		}
		window.Start = &t
	}

	if end != "" {
		t, dateOnly, err := parseDate(end)
		if err != nil {
			return window, badRequest("invalid endDate: " + end)
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		window.End = &t
	}

	if window.Start != nil && window.End != nil && window.End.Before(*window.Start) {
		return window, badRequest("endDate is before startDate")
	}

	return window, nil
}

func parseDate(value string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), false, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

func queryInt(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, badRequest("invalid integer: " + value)
	}
	return n, nil
}

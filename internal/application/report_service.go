package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"drone-survey-system/internal/analytics"
	"drone-survey-system/internal/domain"
	"drone-survey-system/internal/infrastructure/export"
	"drone-survey-system/internal/ports"
)

// ErrArchiveUnavailable повертається, коли сховище звітів не налаштоване
var ErrArchiveUnavailable = errors.New("report archive is not configured")

// Параметри пагінації за замовчуванням
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ReportRecorder збирає метрики звітів та аналітики
type ReportRecorder interface {
	RecordReport(reportType string)
	ObserveAnalytics(d time.Duration)
	RecordStatsCache(hit bool)
}

// ReportQuery задає фільтр та сторінку списку звітів
type ReportQuery struct {
	ReportType domain.ReportType
	Window     domain.TimeWindow
	Page       int
	Limit      int
}

// ReportPage є однією сторінкою списку звітів
type ReportPage struct {
	Reports     []*domain.Report `json:"reports"`
	Total       int              `json:"total"`
	TotalPages  int              `json:"totalPages"`
	CurrentPage int              `json:"currentPage"`
}

// ReportInput містить поля звіту, створеного користувачем
type ReportInput struct {
	MissionID  uuid.UUID
	ReportType domain.ReportType
	Title      string
	Content    string
	Data       domain.ReportData
	Analysis   domain.ReportAnalysis
}

// ReportPatch містить змінювані поля звіту
type ReportPatch struct {
	Title    *string
	Content  *string
	Analysis *domain.ReportAnalysis
	IsPublic *bool
}

// AnalyticsQuery задає вибірку для аналітики
type AnalyticsQuery struct {
	Window      domain.TimeWindow
	MissionType domain.MissionType
}

// ExportFile є згенерованим файлом експорту звіту
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReportService відповідає за звіти, аналітику та експорт
type ReportService struct {
	missionRepo ports.MissionRepository
	reportRepo  ports.ReportRepository
	archive     ports.ReportArchive
	aggregator  *analytics.Aggregator
	builder     *analytics.SurveyReportBuilder
	statsCache  *cache.Cache
	metrics     ReportRecorder
	logger      *slog.Logger
	now         func() time.Time
}

// ReportServiceOptions містить необов'язкові залежності ReportService
type ReportServiceOptions struct {
	Archive       ports.ReportArchive
	SitePrecision int
	StatsCacheTTL time.Duration
	Metrics       ReportRecorder
	Logger        *slog.Logger
}

// NewReportService створює новий екземпляр ReportService
func NewReportService(missionRepo ports.MissionRepository, reportRepo ports.ReportRepository, opts ReportServiceOptions) *ReportService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ttl := opts.StatsCacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}

	return &ReportService{
		missionRepo: missionRepo,
		reportRepo:  reportRepo,
		archive:     opts.Archive,
		aggregator:  analytics.NewAggregator(analytics.NewSiteClusterer(opts.SitePrecision)),
		builder:     analytics.NewSurveyReportBuilder(),
		statsCache:  cache.New(ttl, 10*time.Minute),
		metrics:     opts.Metrics,
		logger:      logger.With("component", "report_service"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ListReports повертає сторінку звітів власника, новіші першими
func (s *ReportService) ListReports(ctx context.Context, owner uuid.UUID, query ReportQuery) (*ReportPage, error) {
	if query.ReportType != "" && !query.ReportType.Valid() {
		return nil, fmt.Errorf("report type %q: %w", query.ReportType, domain.ErrInvalidInput)
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	filter := domain.ReportFilter{
		GeneratedBy: owner,
		ReportType:  query.ReportType,
		Window:      query.Window,
		Limit:       limit,
		Offset:      (page - 1) * limit,
	}

	reports, err := s.reportRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	total, err := s.reportRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ReportPage{
		Reports:     reports,
		Total:       total,
		TotalPages:  (total + limit - 1) / limit,
		CurrentPage: page,
	}, nil
}

// GetReport отримує звіт власника за ID
func (s *ReportService) GetReport(ctx context.Context, owner, reportID uuid.UUID) (*domain.Report, error) {
	report, err := s.reportRepo.FindByID(ctx, reportID)
	if err != nil {
		return nil, err
	}

	if report.GeneratedBy != owner {
		return nil, &domain.ForbiddenError{Entity: "report", ID: reportID}
	}

	return report, nil
}

// CreateReport зберігає звіт для місії власника. Час польоту та пройдена
// відстань доповнюються з місії, якщо їх не передано.
func (s *ReportService) CreateReport(ctx context.Context, owner uuid.UUID, input ReportInput) (*domain.Report, error) {
	title := strings.TrimSpace(input.Title)
	if input.MissionID == uuid.Nil || title == "" {
		return nil, fmt.Errorf("mission ID and title are required: %w", domain.ErrInvalidInput)
	}

	reportType := input.ReportType
	if reportType == "" {
		reportType = domain.ReportTypeSummary
	}
	if !reportType.Valid() {
		return nil, fmt.Errorf("report type %q: %w", reportType, domain.ErrInvalidInput)
	}

	mission, err := s.ownedMission(ctx, owner, input.MissionID)
	if err != nil {
		return nil, err
	}

	data := input.Data
	analytics.FillDerivedData(&data, mission)

	report := &domain.Report{
		MissionID:   uuid.NullUUID{UUID: mission.ID, Valid: true},
		ReportType:  reportType,
		Title:       title,
		Content:     input.Content,
		Data:        data,
		Analysis:    input.Analysis,
		GeneratedBy: owner,
	}

	if err := s.save(ctx, report); err != nil {
		return nil, err
	}

	return report, nil
}

// UpdateReport змінює заголовок, вміст, аналіз або видимість звіту
func (s *ReportService) UpdateReport(ctx context.Context, owner, reportID uuid.UUID, patch ReportPatch) (*domain.Report, error) {
	report, err := s.GetReport(ctx, owner, reportID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, fmt.Errorf("report title must not be empty: %w", domain.ErrInvalidInput)
		}
		report.Title = title
	}
	if patch.Content != nil {
		report.Content = *patch.Content
	}
	if patch.Analysis != nil {
		report.Analysis = *patch.Analysis
	}
	if patch.IsPublic != nil {
		report.IsPublic = *patch.IsPublic
	}
	report.UpdatedAt = s.now()

	if err := s.reportRepo.Update(ctx, report); err != nil {
		return nil, err
	}

	return report, nil
}

// DeleteReport видаляє звіт власника
func (s *ReportService) DeleteReport(ctx context.Context, owner, reportID uuid.UUID) error {
	if _, err := s.GetReport(ctx, owner, reportID); err != nil {
		return err
	}

	if err := s.reportRepo.Delete(ctx, reportID); err != nil {
		return err
	}

	s.statsCache.Delete(owner.String())
	s.logger.InfoContext(ctx, "report deleted", "report_id", reportID)
	return nil
}

// GenerateSurveySummary будує та зберігає звіт survey_summary для місії
func (s *ReportService) GenerateSurveySummary(ctx context.Context, owner, missionID uuid.UUID) (*domain.Report, error) {
	mission, err := s.ownedMission(ctx, owner, missionID)
	if err != nil {
		return nil, err
	}

	report, err := s.builder.BuildSummary(mission)
	if err != nil {
		return nil, err
	}

	if err := s.save(ctx, report); err != nil {
		return nil, err
	}

	return report, nil
}

// Analytics агрегує місії та звіти власника у вибраному вікні
func (s *ReportService) Analytics(ctx context.Context, owner uuid.UUID, query AnalyticsQuery) (*domain.AnalyticsSummary, error) {
	if query.MissionType != "" && !query.MissionType.Valid() {
		return nil, fmt.Errorf("mission type %q: %w", query.MissionType, domain.ErrInvalidInput)
	}
	if w := query.Window; w.Start != nil && w.End != nil && w.End.Before(*w.Start) {
		return nil, fmt.Errorf("end date is before start date: %w", domain.ErrInvalidInput)
	}

	start := time.Now()

	var (
		missions []*domain.Mission
		reports  []*domain.Report
	)

	// Місії та звіти завантажуються паралельно
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		missions, err = s.missionRepo.FindAll(gctx, domain.MissionFilter{
			CreatedBy:   owner,
			MissionType: query.MissionType,
			Window:      query.Window,
		})
		return err
	})
	g.Go(func() error {
		var err error
		reports, err = s.reportRepo.FindAll(gctx, domain.ReportFilter{
			GeneratedBy: owner,
			Window:      query.Window,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "failed to load analytics snapshot", "error", err)
		return nil, err
	}
	if reports == nil {
		reports = []*domain.Report{}
	}

	window := query.Window
	summary := s.aggregator.Aggregate(missions, reports, &window)

	if s.metrics != nil {
		s.metrics.ObserveAnalytics(time.Since(start))
	}

	return &summary, nil
}

// GenerateAnalyticsReport зберігає аналітику як звіт типу analytics
func (s *ReportService) GenerateAnalyticsReport(ctx context.Context, owner uuid.UUID, query AnalyticsQuery) (*domain.Report, error) {
	summary, err := s.Analytics(ctx, owner, query)
	if err != nil {
		return nil, err
	}

	report := analytics.BuildAnalyticsReport(*summary, &query.Window, owner)
	if err := s.save(ctx, report); err != nil {
		return nil, err
	}

	return report, nil
}

// Stats повертає огляд звітів власника. Результат кешується до наступного запису.
func (s *ReportService) Stats(ctx context.Context, owner uuid.UUID) (*domain.ReportStats, error) {
	key := owner.String()
	if cached, found := s.statsCache.Get(key); found {
		s.recordStatsCache(true)
		stats := cached.(domain.ReportStats)
		return &stats, nil
	}
	s.recordStatsCache(false)

	reports, err := s.reportRepo.FindAll(ctx, domain.ReportFilter{GeneratedBy: owner})
	if err != nil {
		return nil, err
	}

	stats := analytics.Stats(reports, s.now())
	s.statsCache.Set(key, stats, cache.DefaultExpiration)

	return &stats, nil
}

// Export рендерить звіт у книгу XLSX
func (s *ReportService) Export(ctx context.Context, owner, reportID uuid.UUID) (*ExportFile, error) {
	report, err := s.GetReport(ctx, owner, reportID)
	if err != nil {
		return nil, err
	}

	buf, err := export.Workbook(report)
	if err != nil {
		return nil, fmt.Errorf("failed to export report: %w", err)
	}

	return &ExportFile{
		Name:        export.FileName(report, s.now()),
		ContentType: export.ContentType,
		Data:        buf.Bytes(),
	}, nil
}

// Archive експортує звіт та зберігає файл в архіві
func (s *ReportService) Archive(ctx context.Context, owner, reportID uuid.UUID) (*ports.ArchivedObject, error) {
	if s.archive == nil {
		return nil, ErrArchiveUnavailable
	}

	file, err := s.Export(ctx, owner, reportID)
	if err != nil {
		return nil, err
	}

	key, err := s.archive.Save(ctx, reportID, file.Name, file.ContentType, bytes.NewReader(file.Data), int64(len(file.Data)))
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to archive report", "report_id", reportID, "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "report archived", "report_id", reportID, "key", key)
	return &ports.ArchivedObject{
		Name:         file.Name,
		Size:         int64(len(file.Data)),
		ContentType:  file.ContentType,
		LastModified: s.now(),
	}, nil
}

// ListArchived повертає збережені експорти звіту
func (s *ReportService) ListArchived(ctx context.Context, owner, reportID uuid.UUID) ([]ports.ArchivedObject, error) {
	if s.archive == nil {
		return nil, ErrArchiveUnavailable
	}

	if _, err := s.GetReport(ctx, owner, reportID); err != nil {
		return nil, err
	}

	return s.archive.List(ctx, reportID)
}

// Download відкриває збережений експорт звіту. Викликач закриває reader.
func (s *ReportService) Download(ctx context.Context, owner, reportID uuid.UUID, name string) (io.ReadCloser, error) {
	if s.archive == nil {
		return nil, ErrArchiveUnavailable
	}

	if _, err := s.GetReport(ctx, owner, reportID); err != nil {
		return nil, err
	}

	return s.archive.Get(ctx, reportID, name)
}

func (s *ReportService) ownedMission(ctx context.Context, owner, missionID uuid.UUID) (*domain.Mission, error) {
	mission, err := s.missionRepo.FindByID(ctx, missionID)
	if err != nil {
		return nil, err
	}

	if mission.CreatedBy != owner {
		return nil, &domain.ForbiddenError{Entity: "mission", ID: missionID}
	}

	return mission, nil
}

func (s *ReportService) save(ctx context.Context, report *domain.Report) error {
	now := s.now()
	report.ID = uuid.New()
	report.CreatedAt = now
	report.UpdatedAt = now

	if err := s.reportRepo.Save(ctx, report); err != nil {
		s.logger.ErrorContext(ctx, "failed to save report", "report_type", report.ReportType, "error", err)
		return err
	}

	s.statsCache.Delete(report.GeneratedBy.String())
	if s.metrics != nil {
		s.metrics.RecordReport(string(report.ReportType))
	}
	s.logger.InfoContext(ctx, "report generated", "report_id", report.ID, "report_type", report.ReportType)

	return nil
}

func (s *ReportService) recordStatsCache(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordStatsCache(hit)
	}
}

package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"drone-survey-system/internal/domain"
	"drone-survey-system/internal/ports"
)

// TransitionRecorder рахує запити на зміну статусу місії
type TransitionRecorder interface {
	RecordTransition(from, to, result string)
}

// Результати переходу для TransitionRecorder
const (
	transitionApplied  = "applied"
	transitionRejected = "rejected"
	transitionConflict = "conflict"
)

// MissionInput містить поля нової місії
type MissionInput struct {
	Name           string
	Description    string
	Latitude       float64
	Longitude      float64
	Altitude       *float64
	SurveyArea     []domain.GeoPoint
	FlightPath     []domain.PathPoint
	MissionType    domain.MissionType
	Priority       domain.Priority
	ScheduledAt    *time.Time
	DroneID        string
	DataCollection *domain.DataCollection
}

// MissionPatch містить змінювані поля місії. Nil означає "не змінювати".
type MissionPatch struct {
	Name           *string
	Description    *string
	Coordinates    *domain.Coordinates
	SurveyArea     *[]domain.GeoPoint
	FlightPath     *[]domain.PathPoint
	MissionType    *domain.MissionType
	Priority       *domain.Priority
	ScheduledAt    *time.Time
	DroneID        *string
	DataCollection *domain.DataCollection
}

// MissionService відповідає за бізнес-логіку життєвого циклу місій
type MissionService struct {
	missionRepo ports.MissionRepository
	events      ports.MissionEventPublisher
	metrics     TransitionRecorder
	logger      *slog.Logger
	now         func() time.Time
}

// NewMissionService створює новий екземпляр MissionService.
// events та metrics можуть бути nil.
func NewMissionService(
	missionRepo ports.MissionRepository,
	events ports.MissionEventPublisher,
	metrics TransitionRecorder,
	logger *slog.Logger,
) *MissionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MissionService{
		missionRepo: missionRepo,
		events:      events,
		metrics:     metrics,
		logger:      logger.With("component", "mission_service"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateMission створює нову місію у статусі pending
func (s *MissionService) CreateMission(ctx context.Context, owner uuid.UUID, input MissionInput) (*domain.Mission, error) {
	now := s.now()

	mission := &domain.Mission{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Status:      domain.MissionStatusPending,
		Coordinates: domain.Coordinates{
			Latitude:  input.Latitude,
			Longitude: input.Longitude,
			Altitude:  domain.DefaultAltitude,
		},
		SurveyArea:     input.SurveyArea,
		FlightPath:     input.FlightPath,
		MissionType:    input.MissionType,
		Priority:       input.Priority,
		ScheduledAt:    input.ScheduledAt,
		CreatedBy:      owner,
		DroneID:        input.DroneID,
		DataCollection: input.DataCollection,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if input.Altitude != nil {
		mission.Coordinates.Altitude = *input.Altitude
	}
	if mission.MissionType == "" {
		mission.MissionType = domain.MissionTypeSurveillance
	}
	if mission.Priority == "" {
		mission.Priority = domain.PriorityMedium
	}

	if err := validateMissionFields(mission); err != nil {
		return nil, err
	}

	if err := s.missionRepo.Save(ctx, mission); err != nil {
		s.logger.ErrorContext(ctx, "failed to save mission", "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "mission created", "mission_id", mission.ID, "owner", owner)
	return mission, nil
}

// GetMission отримує місію власника за ID
func (s *MissionService) GetMission(ctx context.Context, owner, missionID uuid.UUID) (*domain.Mission, error) {
	mission, err := s.missionRepo.FindByID(ctx, missionID)
	if err != nil {
		return nil, err
	}

	if mission.CreatedBy != owner {
		return nil, &domain.ForbiddenError{Entity: "mission", ID: missionID}
	}

	return mission, nil
}

// ListMissions отримує місії власника, новіші першими
func (s *MissionService) ListMissions(ctx context.Context, owner uuid.UUID, filter domain.MissionFilter) ([]*domain.Mission, error) {
	if filter.Status != "" {
		if _, err := domain.ParseMissionStatus(string(filter.Status)); err != nil {
			return nil, err
		}
	}
	if filter.MissionType != "" && !filter.MissionType.Valid() {
		return nil, fmt.Errorf("mission type %q: %w", filter.MissionType, domain.ErrInvalidInput)
	}

	filter.CreatedBy = owner
	return s.missionRepo.FindAll(ctx, filter)
}

// UpdateMission змінює поля місії, поки вона у статусі pending
func (s *MissionService) UpdateMission(ctx context.Context, owner, missionID uuid.UUID, patch MissionPatch) (*domain.Mission, error) {
	mission, err := s.GetMission(ctx, owner, missionID)
	if err != nil {
		return nil, err
	}

	if mission.Status != domain.MissionStatusPending {
		return nil, fmt.Errorf("mission %s is %s: %w", missionID, mission.Status, domain.ErrNotEditable)
	}

	applyPatch(mission, patch)
	mission.UpdatedAt = s.now()

	if err := validateMissionFields(mission); err != nil {
		return nil, err
	}

	if err := s.missionRepo.Update(ctx, mission, domain.MissionStatusPending); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.logger.WarnContext(ctx, "mission left pending during edit", "mission_id", missionID)
			return nil, fmt.Errorf("%w: %w", domain.ErrNotEditable, err)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "mission updated", "mission_id", missionID)
	return mission, nil
}

// UpdateMissionStatus переводить місію у запитаний статус. Зміна
// застосовується через compare-and-swap на статусі, прочитаному зі сховища.
func (s *MissionService) UpdateMissionStatus(ctx context.Context, owner, missionID uuid.UUID, requested string) (*domain.Mission, error) {
	mission, err := s.GetMission(ctx, owner, missionID)
	if err != nil {
		return nil, err
	}

	from := mission.Status
	now := s.now()

	updated, err := domain.Transition(*mission, requested, now)
	if err != nil {
		s.recordTransition(from, requested, transitionRejected)
		return nil, err
	}
	updated.UpdatedAt = now

	if err := s.missionRepo.UpdateStatus(ctx, &updated, from); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.recordTransition(from, requested, transitionConflict)
			s.logger.WarnContext(ctx, "concurrent status update lost",
				"mission_id", missionID, "from", from, "to", updated.Status)
		}
		return nil, err
	}

	s.recordTransition(from, requested, transitionApplied)
	s.logger.InfoContext(ctx, "mission status changed",
		"mission_id", missionID, "from", from, "to", updated.Status)

	if s.events != nil {
		s.events.PublishMissionEvent(domain.MissionEvent{
			Type:      domain.MissionEventStatus,
			MissionID: missionID,
			OwnerID:   owner,
			From:      from,
			To:        updated.Status,
			At:        now,
		})
	}

	return &updated, nil
}

// DeleteMission видаляє місію у статусі pending або cancelled
func (s *MissionService) DeleteMission(ctx context.Context, owner, missionID uuid.UUID) error {
	mission, err := s.GetMission(ctx, owner, missionID)
	if err != nil {
		return err
	}

	if mission.Status != domain.MissionStatusPending && mission.Status != domain.MissionStatusCancelled {
		return fmt.Errorf("mission %s is %s: %w", missionID, mission.Status, domain.ErrNotEditable)
	}

	if err := s.missionRepo.Delete(ctx, missionID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "mission deleted", "mission_id", missionID)
	return nil
}

func (s *MissionService) recordTransition(from domain.MissionStatus, to, result string) {
	if s.metrics == nil {
		return
	}
	if _, err := domain.ParseMissionStatus(to); err != nil {
		to = "invalid"
	}
	s.metrics.RecordTransition(string(from), to, result)
}

func applyPatch(m *domain.Mission, p MissionPatch) {
	if p.Name != nil {
		m.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.Coordinates != nil {
		m.Coordinates = *p.Coordinates
	}
	if p.SurveyArea != nil {
		m.SurveyArea = *p.SurveyArea
	}
	if p.FlightPath != nil {
		m.FlightPath = *p.FlightPath
	}
	if p.MissionType != nil {
		m.MissionType = *p.MissionType
	}
	if p.Priority != nil {
		m.Priority = *p.Priority
	}
	if p.ScheduledAt != nil {
		m.ScheduledAt = p.ScheduledAt
	}
	if p.DroneID != nil {
		m.DroneID = *p.DroneID
	}
	if p.DataCollection != nil {
		m.DataCollection = p.DataCollection
	}
}

func validateMissionFields(m *domain.Mission) error {
	if m.Name == "" {
		return fmt.Errorf("mission name is required: %w", domain.ErrInvalidInput)
	}
	if !m.MissionType.Valid() {
		return fmt.Errorf("mission type %q: %w", m.MissionType, domain.ErrInvalidInput)
	}
	if !m.Priority.Valid() {
		return fmt.Errorf("priority %q: %w", m.Priority, domain.ErrInvalidInput)
	}
	return domain.ValidateMission(m)
}

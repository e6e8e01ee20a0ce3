package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"drone-survey-system/internal/domain"
)

const missionColumns = `id, name, description, status, latitude, longitude, altitude, survey_area, flight_path,
		mission_type, priority, scheduled_at, started_at, completed_at, duration, created_by, drone_id,
		data_collection, created_at, updated_at`

// SQLMissionRepository імплементує MissionRepository поверх database/sql.
// Працює з PostgreSQL (lib/pq) та SQLite (go-sqlite3).
type SQLMissionRepository struct {
	db *sql.DB
}

// NewSQLMissionRepository створює новий екземпляр SQLMissionRepository
func NewSQLMissionRepository(db *sql.DB) *SQLMissionRepository {
	return &SQLMissionRepository{
		db: db,
	}
}

// Save зберігає нову місію
func (r *SQLMissionRepository) Save(ctx context.Context, mission *domain.Mission) error {
	query := `
		INSERT INTO missions (` + missionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	surveyArea, flightPath, dataCollection, err := encodeMissionGeometry(mission)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(
		ctx,
		query,
		mission.ID,
		mission.Name,
		mission.Description,
		string(mission.Status),
		mission.Coordinates.Latitude,
		mission.Coordinates.Longitude,
		mission.Coordinates.Altitude,
		surveyArea,
		flightPath,
		string(mission.MissionType),
		string(mission.Priority),
		nullTime(mission.ScheduledAt),
		nullTime(mission.StartedAt),
		nullTime(mission.CompletedAt),
		nullInt(mission.Duration),
		mission.CreatedBy,
		mission.DroneID,
		dataCollection,
		mission.CreatedAt.UTC(),
		mission.UpdatedAt.UTC(),
	)

	if err != nil {
		return fmt.Errorf("failed to save mission: %w", err)
	}

	return nil
}

// FindByID знаходить місію за ID
func (r *SQLMissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Mission, error) {
	query := `SELECT ` + missionColumns + ` FROM missions WHERE id = $1`

	mission, err := scanMission(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "mission", ID: id}
		}
		return nil, fmt.Errorf("failed to find mission: %w", err)
	}

	return mission, nil
}

// FindAll шукає місії за фільтром, новіші першими
func (r *SQLMissionRepository) FindAll(ctx context.Context, filter domain.MissionFilter) ([]*domain.Mission, error) {
	query := `SELECT ` + missionColumns + ` FROM missions WHERE 1=1`

	var args []interface{}
	argIndex := 1

	// Додавання фільтрів
	if filter.CreatedBy != uuid.Nil {
		query += " AND created_by = $" + strconv.Itoa(argIndex)
		args = append(args, filter.CreatedBy)
		argIndex++
	}

	if filter.Status != "" {
		query += " AND status = $" + strconv.Itoa(argIndex)
		args = append(args, string(filter.Status))
		argIndex++
	}

	if filter.MissionType != "" {
		query += " AND mission_type = $" + strconv.Itoa(argIndex)
		args = append(args, string(filter.MissionType))
		argIndex++
	}

	if filter.Window.Start != nil {
		query += " AND created_at >= $" + strconv.Itoa(argIndex)
		args = append(args, filter.Window.Start.UTC())
		argIndex++
	}

	if filter.Window.End != nil {
		query += " AND created_at <= $" + strconv.Itoa(argIndex)
		args = append(args, filter.Window.End.UTC())
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	missions := make([]*domain.Mission, 0)
	for rows.Next() {
		mission, err := scanMission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		missions = append(missions, mission)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return missions, nil
}

// Update оновлює редаговані поля місії за умови, що статус не змінився
func (r *SQLMissionRepository) Update(ctx context.Context, mission *domain.Mission, expected domain.MissionStatus) error {
	query := `
		UPDATE missions
		SET name = $1, description = $2, latitude = $3, longitude = $4, altitude = $5, survey_area = $6,
			flight_path = $7, mission_type = $8, priority = $9, scheduled_at = $10, drone_id = $11,
			data_collection = $12, updated_at = $13
		WHERE id = $14 AND status = $15
	`

	surveyArea, flightPath, dataCollection, err := encodeMissionGeometry(mission)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(
		ctx,
		query,
		mission.Name,
		mission.Description,
		mission.Coordinates.Latitude,
		mission.Coordinates.Longitude,
		mission.Coordinates.Altitude,
		surveyArea,
		flightPath,
		string(mission.MissionType),
		string(mission.Priority),
		nullTime(mission.ScheduledAt),
		mission.DroneID,
		dataCollection,
		mission.UpdatedAt.UTC(),
		mission.ID,
		string(expected),
	)
	if err != nil {
		return fmt.Errorf("failed to update mission: %w", err)
	}

	return r.checkSwapped(ctx, result, mission.ID, expected)
}

// UpdateStatus зберігає новий статус та часові мітки життєвого циклу.
// Рядок оновлюється лише тоді, коли його статус досі дорівнює expected.
func (r *SQLMissionRepository) UpdateStatus(ctx context.Context, mission *domain.Mission, expected domain.MissionStatus) error {
	query := `
		UPDATE missions
		SET status = $1, started_at = $2, completed_at = $3, duration = $4, updated_at = $5
		WHERE id = $6 AND status = $7
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		string(mission.Status),
		nullTime(mission.StartedAt),
		nullTime(mission.CompletedAt),
		nullInt(mission.Duration),
		mission.UpdatedAt.UTC(),
		mission.ID,
		string(expected),
	)
	if err != nil {
		return fmt.Errorf("failed to update mission status: %w", err)
	}

	return r.checkSwapped(ctx, result, mission.ID, expected)
}

// Delete видаляє місію у статусі pending або cancelled
func (r *SQLMissionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM missions WHERE id = $1 AND status IN ('pending', 'cancelled')`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete mission: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		exists, err := r.exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return &domain.NotFoundError{Entity: "mission", ID: id}
		}
		return fmt.Errorf("mission %s: %w", id, domain.ErrNotEditable)
	}

	return nil
}

// checkSwapped відрізняє видалену місію від програної гонки compare-and-swap
func (r *SQLMissionRepository) checkSwapped(ctx context.Context, result sql.Result, id uuid.UUID, expected domain.MissionStatus) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected > 0 {
		return nil
	}

	exists, err := r.exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return &domain.NotFoundError{Entity: "mission", ID: id}
	}

	return &domain.ConflictError{MissionID: id, Expected: expected}
}

func (r *SQLMissionRepository) exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM missions WHERE id = $1`, id).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check mission: %w", err)
	}
	return count > 0, nil
}

// scanMission - допоміжна функція для сканування рядка місії
func scanMission(row rowScanner) (*domain.Mission, error) {
	var (
		mission        domain.Mission
		status         string
		missionType    string
		priority       string
		surveyArea     []byte
		flightPath     []byte
		dataCollection []byte
		scheduledAt    sql.NullTime
		startedAt      sql.NullTime
		completedAt    sql.NullTime
		duration       sql.NullInt64
	)

	err := row.Scan(
		&mission.ID,
		&mission.Name,
		&mission.Description,
		&status,
		&mission.Coordinates.Latitude,
		&mission.Coordinates.Longitude,
		&mission.Coordinates.Altitude,
		&surveyArea,
		&flightPath,
		&missionType,
		&priority,
		&scheduledAt,
		&startedAt,
		&completedAt,
		&duration,
		&mission.CreatedBy,
		&mission.DroneID,
		&dataCollection,
		&mission.CreatedAt,
		&mission.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	mission.Status = domain.MissionStatus(status)
	mission.MissionType = domain.MissionType(missionType)
	mission.Priority = domain.Priority(priority)
	mission.ScheduledAt = timePtr(scheduledAt)
	mission.StartedAt = timePtr(startedAt)
	mission.CompletedAt = timePtr(completedAt)
	mission.CreatedAt = mission.CreatedAt.UTC()
	mission.UpdatedAt = mission.UpdatedAt.UTC()
	if duration.Valid {
		d := int(duration.Int64)
		mission.Duration = &d
	}

	// Розпакування геометрії з JSON
	if err := decodeJSON(surveyArea, &mission.SurveyArea); err != nil {
		return nil, fmt.Errorf("failed to unmarshal survey area: %w", err)
	}
	if err := decodeJSON(flightPath, &mission.FlightPath); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flight path: %w", err)
	}
	if len(dataCollection) > 0 {
		mission.DataCollection = &domain.DataCollection{}
		if err := decodeJSON(dataCollection, mission.DataCollection); err != nil {
			return nil, fmt.Errorf("failed to unmarshal data collection: %w", err)
		}
	}

	return &mission, nil
}

func encodeMissionGeometry(mission *domain.Mission) (surveyArea, flightPath, dataCollection sql.NullString, err error) {
	if mission.SurveyArea != nil {
		if surveyArea, err = encodeJSON(mission.SurveyArea); err != nil {
			return surveyArea, flightPath, dataCollection, fmt.Errorf("failed to marshal survey area: %w", err)
		}
	}
	if mission.FlightPath != nil {
		if flightPath, err = encodeJSON(mission.FlightPath); err != nil {
			return surveyArea, flightPath, dataCollection, fmt.Errorf("failed to marshal flight path: %w", err)
		}
	}
	if mission.DataCollection != nil {
		if dataCollection, err = encodeJSON(mission.DataCollection); err != nil {
			return surveyArea, flightPath, dataCollection, fmt.Errorf("failed to marshal data collection: %w", err)
		}
	}
	return surveyArea, flightPath, dataCollection, nil
}

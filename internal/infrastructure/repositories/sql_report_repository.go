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

const reportColumns = `id, mission_id, report_type, title, content, data, analysis, generated_by, is_public,
		created_at, updated_at`

// SQLReportRepository реалізує інтерфейс ReportRepository поверх database/sql
type SQLReportRepository struct {
	db *sql.DB
}

// NewSQLReportRepository створює новий екземпляр SQLReportRepository
func NewSQLReportRepository(db *sql.DB) *SQLReportRepository {
	return &SQLReportRepository{
		db: db,
	}
}

// Save зберігає новий звіт
func (r *SQLReportRepository) Save(ctx context.Context, report *domain.Report) error {
	query := `
		INSERT INTO reports (` + reportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	// Пакування даних та аналізу у JSON
	data, err := encodeJSON(report.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal report data: %w", err)
	}
	analysis, err := encodeJSON(report.Analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal report analysis: %w", err)
	}

	_, err = r.db.ExecContext(
		ctx,
		query,
		report.ID,
		report.MissionID,
		string(report.ReportType),
		report.Title,
		report.Content,
		data,
		analysis,
		report.GeneratedBy,
		report.IsPublic,
		report.CreatedAt.UTC(),
		report.UpdatedAt.UTC(),
	)

	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	return nil
}

// FindByID знаходить звіт за ID
func (r *SQLReportRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`

	report, err := scanReport(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "report", ID: id}
		}
		return nil, fmt.Errorf("failed to find report: %w", err)
	}

	return report, nil
}

// FindAll знаходить звіти за фільтром, новіші першими. Limit 0 означає без обмеження.
func (r *SQLReportRepository) FindAll(ctx context.Context, filter domain.ReportFilter) ([]*domain.Report, error) {
	where, args := reportWhere(filter)
	query := `SELECT ` + reportColumns + ` FROM reports` + where + ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += " LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	reports := make([]*domain.Report, 0)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return reports, nil
}

// Count повертає кількість звітів за фільтром без урахування пагінації
func (r *SQLReportRepository) Count(ctx context.Context, filter domain.ReportFilter) (int, error) {
	where, args := reportWhere(filter)

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}

	return count, nil
}

// Update оновлює заголовок, вміст, аналіз та видимість звіту
func (r *SQLReportRepository) Update(ctx context.Context, report *domain.Report) error {
	query := `
		UPDATE reports
		SET title = $1, content = $2, analysis = $3, is_public = $4, updated_at = $5
		WHERE id = $6
	`

	analysis, err := encodeJSON(report.Analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal report analysis: %w", err)
	}

	result, err := r.db.ExecContext(
		ctx,
		query,
		report.Title,
		report.Content,
		analysis,
		report.IsPublic,
		report.UpdatedAt.UTC(),
		report.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}

	return checkAffected(result, "report", report.ID)
}

// Delete видаляє звіт
func (r *SQLReportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}

	return checkAffected(result, "report", id)
}

func reportWhere(filter domain.ReportFilter) (string, []interface{}) {
	where := " WHERE 1=1"
	var args []interface{}

	// Додавання фільтрів
	if filter.GeneratedBy != uuid.Nil {
		args = append(args, filter.GeneratedBy)
		where += " AND generated_by = $" + strconv.Itoa(len(args))
	}

	if filter.ReportType != "" {
		args = append(args, string(filter.ReportType))
		where += " AND report_type = $" + strconv.Itoa(len(args))
	}

	if filter.Window.Start != nil {
		args = append(args, filter.Window.Start.UTC())
		where += " AND created_at >= $" + strconv.Itoa(len(args))
	}

	if filter.Window.End != nil {
		args = append(args, filter.Window.End.UTC())
		where += " AND created_at <= $" + strconv.Itoa(len(args))
	}

	return where, args
}

func checkAffected(result sql.Result, entity string, id uuid.UUID) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return &domain.NotFoundError{Entity: entity, ID: id}
	}

	return nil
}

// scanReport - допоміжна функція для сканування рядка звіту
func scanReport(row rowScanner) (*domain.Report, error) {
	var (
		report     domain.Report
		reportType string
		data       []byte
		analysis   []byte
	)

	err := row.Scan(
		&report.ID,
		&report.MissionID,
		&reportType,
		&report.Title,
		&report.Content,
		&data,
		&analysis,
		&report.GeneratedBy,
		&report.IsPublic,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	report.ReportType = domain.ReportType(reportType)
	report.CreatedAt = report.CreatedAt.UTC()
	report.UpdatedAt = report.UpdatedAt.UTC()

	// Розпакування JSON полів
	if err := decodeJSON(data, &report.Data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report data: %w", err)
	}
	if err := decodeJSON(analysis, &report.Analysis); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report analysis: %w", err)
	}

	return &report, nil
}

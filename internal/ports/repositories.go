package ports

import (
	"context"

	"github.com/google/uuid"

	"drone-survey-system/internal/domain"
)

// MissionRepository визначає методи для роботи з місіями
type MissionRepository interface {
	Save(ctx context.Context, mission *domain.Mission) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Mission, error)
	FindAll(ctx context.Context, filter domain.MissionFilter) ([]*domain.Mission, error)

	// Update перезаписує редаговані поля місії, лише якщо її статус у сховищі
	// досі дорівнює expected. Інакше повертає *domain.ConflictError.
	Update(ctx context.Context, mission *domain.Mission, expected domain.MissionStatus) error

	// UpdateStatus зберігає статус і часові мітки життєвого циклу за тією ж
	// умовою compare-and-swap, що й Update.
	UpdateStatus(ctx context.Context, mission *domain.Mission, expected domain.MissionStatus) error

	// Delete видаляє місію лише у статусі pending або cancelled
	Delete(ctx context.Context, id uuid.UUID) error
}

// ReportRepository визначає методи для роботи зі звітами
type ReportRepository interface {
	Save(ctx context.Context, report *domain.Report) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Report, error)
	FindAll(ctx context.Context, filter domain.ReportFilter) ([]*domain.Report, error)
	Count(ctx context.Context, filter domain.ReportFilter) (int, error)
	Update(ctx context.Context, report *domain.Report) error
	Delete(ctx context.Context, id uuid.UUID) error
}

package ports

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"drone-survey-system/internal/domain"
)

// ArchivedObject описує збережений у сховищі об'єкт звіту
type ArchivedObject struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"contentType"`
	LastModified time.Time `json:"lastModified"`
}

// ReportArchive визначає інтерфейс об'єктного сховища для експортованих звітів
type ReportArchive interface {
	// Save зберігає вміст під ключем reports/<reportID>/<name>
	Save(ctx context.Context, reportID uuid.UUID, name, contentType string, data io.Reader, size int64) (string, error)
	Get(ctx context.Context, reportID uuid.UUID, name string) (io.ReadCloser, error)
	List(ctx context.Context, reportID uuid.UUID) ([]ArchivedObject, error)
}

// MissionEventPublisher розсилає зміни місій підписаним клієнтам
type MissionEventPublisher interface {
	PublishMissionEvent(event domain.MissionEvent)
}

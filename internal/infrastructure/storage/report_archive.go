package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"drone-survey-system/internal/domain"
	"drone-survey-system/internal/ports"
)

const reportPrefix = "reports"

// MinioConfig містить параметри підключення до MinIO
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ReportArchive зберігає експортовані звіти в MinIO
type ReportArchive struct {
	minioClient *minio.Client
	bucketName  string
}

// NewReportArchive створює новий екземпляр ReportArchive та за потреби створює бакет
func NewReportArchive(ctx context.Context, cfg MinioConfig) (*ReportArchive, error) {
	// Ініціалізація MinIO клієнта
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	// Перевірка наявності бакета і створення його, якщо не існує
	exists, err := minioClient.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		err = minioClient.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &ReportArchive{
		minioClient: minioClient,
		bucketName:  cfg.Bucket,
	}, nil
}

// ObjectKey формує ключ об'єкта для файлу звіту
func ObjectKey(reportID uuid.UUID, name string) string {
	return path.Join(reportPrefix, reportID.String(), name)
}

// Save зберігає файл звіту в MinIO та повертає його ключ
func (s *ReportArchive) Save(ctx context.Context, reportID uuid.UUID, name, contentType string, data io.Reader, size int64) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}

	objectKey := ObjectKey(reportID, name)

	// Збереження даних у MinIO
	_, err := s.minioClient.PutObject(ctx, s.bucketName, objectKey, data, size, minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"report-id":    reportID.String(),
			"created-time": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive report: %w", err)
	}

	return objectKey, nil
}

// Get отримує файл звіту з MinIO
func (s *ReportArchive) Get(ctx context.Context, reportID uuid.UUID, name string) (io.ReadCloser, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	obj, err := s.minioClient.GetObject(ctx, s.bucketName, ObjectKey(reportID, name), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get archived report: %w", err)
	}

	// GetObject не звертається до сервера до першого читання
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, &domain.NotFoundError{Entity: "archived report", ID: reportID}
		}
		return nil, fmt.Errorf("failed to stat archived report: %w", err)
	}

	return obj, nil
}

// List повертає всі збережені файли звіту
func (s *ReportArchive) List(ctx context.Context, reportID uuid.UUID) ([]ports.ArchivedObject, error) {
	prefix := ObjectKey(reportID, "") + "/"

	// Створення каналу для отримання об'єктів
	objectCh := s.minioClient.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	objects := make([]ports.ArchivedObject, 0)
	for object := range objectCh {
		if object.Err != nil {
			return nil, fmt.Errorf("error listing objects: %w", object.Err)
		}
		objects = append(objects, ports.ArchivedObject{
			Name:         strings.TrimPrefix(object.Key, prefix),
			Size:         object.Size,
			ContentType:  object.ContentType,
			LastModified: object.LastModified,
		})
	}

	return objects, nil
}

func validateName(name string) error {
	if name == "" || name != path.Base(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("archive name %q: %w", name, domain.ErrInvalidInput)
	}
	return nil
}

package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// Імена драйверів database/sql, з якими працюють репозиторії
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS missions (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		altitude DOUBLE PRECISION NOT NULL,
		survey_area JSONB,
		flight_path JSONB,
		mission_type TEXT NOT NULL,
		priority TEXT NOT NULL,
		scheduled_at TIMESTAMPTZ,
		started_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ,
		duration INTEGER,
		created_by UUID NOT NULL,
		drone_id TEXT NOT NULL DEFAULT '',
		data_collection JSONB,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_missions_created_by ON missions (created_by, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS reports (
		id UUID PRIMARY KEY,
		mission_id UUID REFERENCES missions (id) ON DELETE SET NULL,
		report_type TEXT NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		data JSONB NOT NULL,
		analysis JSONB NOT NULL,
		generated_by UUID NOT NULL,
		is_public BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reports_generated_by ON reports (generated_by, created_at DESC)`,
}

// У SQLite часові колонки оголошені як TIMESTAMP, а прапорці як BOOLEAN,
// щоб go-sqlite3 повертав time.Time та bool
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS missions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		altitude REAL NOT NULL,
		survey_area TEXT,
		flight_path TEXT,
		mission_type TEXT NOT NULL,
		priority TEXT NOT NULL,
		scheduled_at TIMESTAMP,
		started_at TIMESTAMP,
		completed_at TIMESTAMP,
		duration INTEGER,
		created_by TEXT NOT NULL,
		drone_id TEXT NOT NULL DEFAULT '',
		data_collection TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_missions_created_by ON missions (created_by, created_at)`,
	`CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		mission_id TEXT REFERENCES missions (id) ON DELETE SET NULL,
		report_type TEXT NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		data TEXT NOT NULL,
		analysis TEXT NOT NULL,
		generated_by TEXT NOT NULL,
		is_public BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reports_generated_by ON reports (generated_by, created_at)`,
}

// InitializeSchema створює таблиці місій та звітів для вказаного драйвера
func InitializeSchema(ctx context.Context, db *sql.DB, driver string) error {
	var statements []string
	switch driver {
	case DriverPostgres:
		statements = postgresSchema
	case DriverSQLite:
		statements = sqliteSchema
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	return nil
}

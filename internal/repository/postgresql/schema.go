package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-bot/internal/pkg/database"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS attendances (
		seq             BIGSERIAL,
		employee_key    TEXT NOT NULL,
		employee_id     TEXT NOT NULL DEFAULT '',
		employee_name   TEXT NOT NULL DEFAULT '',
		date            DATE NOT NULL,
		clock_in        TIME,
		clock_out       TIME,
		total_hours     TEXT NOT NULL DEFAULT '',
		overtime_hours  TEXT NOT NULL DEFAULT '',
		undertime_hours TEXT NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (employee_key, date)
	) PARTITION BY RANGE (date)`,
	`CREATE TABLE IF NOT EXISTS attendance_requests (
		id            UUID PRIMARY KEY,
		type          TEXT NOT NULL CHECK (type IN ('overtime', 'undertime')),
		employee_id   TEXT NOT NULL,
		employee_name TEXT NOT NULL DEFAULT '',
		date          DATE NOT NULL,
		hours         TEXT NOT NULL,
		reason        TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL CHECK (status IN ('PENDING', 'APPROVED', 'DENIED', 'OVERWRITTEN')),
		request_time  TIMESTAMPTZ NOT NULL,
		decided_by    TEXT NOT NULL DEFAULT '',
		decided_at    TIMESTAMPTZ,
		deny_reason   TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS attendance_requests_one_pending
		ON attendance_requests (type, employee_id, date) WHERE status = 'PENDING'`,
	`CREATE TABLE IF NOT EXISTS admins (
		email      TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the tables this service needs. Yearly attendance
// partitions are created on demand by EnsureSegment.
func Migrate(ctx context.Context, db *database.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

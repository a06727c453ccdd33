package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendance-dashboard-api/internal/models"
)

const snapshotSchema = `CREATE TABLE IF NOT EXISTS attendance_snapshots (
	id TEXT PRIMARY KEY,
	student_id TEXT NOT NULL,
	overall_lecture INTEGER NOT NULL,
	overall_present INTEGER NOT NULL,
	overall_percentage DOUBLE PRECISION NOT NULL,
	pdp_total INTEGER NOT NULL DEFAULT 0,
	pdp_present INTEGER NOT NULL DEFAULT 0,
	subject_count INTEGER NOT NULL DEFAULT 0,
	captured_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_attendance_snapshots_student_captured
	ON attendance_snapshots (student_id, captured_at DESC)`

// SnapshotRepository persists attendance snapshots in Postgres.
type SnapshotRepository struct {
	db *sqlx.DB
}

// NewSnapshotRepository constructs the repository.
func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// EnsureSchema creates the snapshot table and index when missing.
func (r *SnapshotRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, snapshotSchema); err != nil {
		return fmt.Errorf("ensure attendance_snapshots schema: %w", err)
	}
	return nil
}

// Insert stores one snapshot, assigning an id and capture time when unset.
func (r *SnapshotRepository) Insert(ctx context.Context, snapshot *models.AttendanceSnapshot) error {
	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}
	if snapshot.CapturedAt.IsZero() {
		snapshot.CapturedAt = time.Now().UTC()
	}
	const query = `INSERT INTO attendance_snapshots
	(id, student_id, overall_lecture, overall_present, overall_percentage, pdp_total, pdp_present, subject_count, captured_at)
	VALUES (:id, :student_id, :overall_lecture, :overall_present, :overall_percentage, :pdp_total, :pdp_present, :subject_count, :captured_at)`
	if _, err := r.db.NamedExecContext(ctx, query, snapshot); err != nil {
		return fmt.Errorf("insert attendance snapshot: %w", err)
	}
	return nil
}

// ListByStudent returns up to limit snapshots, newest first.
func (r *SnapshotRepository) ListByStudent(ctx context.Context, studentID string, limit int) ([]models.AttendanceSnapshot, error) {
	const query = `SELECT id, student_id, overall_lecture, overall_present, overall_percentage,
       pdp_total, pdp_present, subject_count, captured_at
	FROM attendance_snapshots
	WHERE student_id = $1
	ORDER BY captured_at DESC
	LIMIT $2`
	snapshots := []models.AttendanceSnapshot{}
	if err := r.db.SelectContext(ctx, &snapshots, query, studentID, limit); err != nil {
		return nil, fmt.Errorf("list attendance snapshots: %w", err)
	}
	return snapshots, nil
}

// Ping checks database connectivity.
func (r *SnapshotRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

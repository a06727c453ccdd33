package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-dashboard-api/internal/models"
	"github.com/noah-isme/attendance-dashboard-api/pkg/jobs"
)

type snapshotWriter interface {
	Insert(ctx context.Context, snapshot *models.AttendanceSnapshot) error
}

// SnapshotRecorder persists dashboard snapshots off the request path.
type SnapshotRecorder struct {
	repo    snapshotWriter
	metrics *MetricsService
	logger  *zap.Logger
	queue   *jobs.Queue[models.AttendanceSnapshot]
}

// NewSnapshotRecorder wires a worker queue that writes snapshots through repo.
func NewSnapshotRecorder(repo snapshotWriter, metrics *MetricsService, cfg jobs.QueueConfig, logger *zap.Logger) *SnapshotRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &SnapshotRecorder{repo: repo, metrics: metrics, logger: logger}
	cfg.Logger = logger
	cfg.OnDrop = func(error) { r.metrics.RecordSnapshot(false) }
	r.queue = jobs.NewQueue[models.AttendanceSnapshot]("attendance-snapshots", r.handle, cfg)
	return r
}

// Start launches the workers.
func (r *SnapshotRecorder) Start(ctx context.Context) {
	r.queue.Start(ctx)
}

// Stop waits for in-flight writes.
func (r *SnapshotRecorder) Stop() {
	r.queue.Stop()
}

// Record enqueues a snapshot without blocking; a full buffer drops it.
func (r *SnapshotRecorder) Record(snapshot models.AttendanceSnapshot) {
	if err := r.queue.TryEnqueue(snapshot); err != nil {
		r.metrics.RecordSnapshot(false)
		level := zap.WarnLevel
		if errors.Is(err, jobs.ErrNotStarted) {
			level = zap.DebugLevel
		}
		r.logger.Check(level, "snapshot dropped").Write(zap.String("student_id", snapshot.StudentID), zap.Error(err))
	}
}

func (r *SnapshotRecorder) handle(ctx context.Context, job jobs.Job[models.AttendanceSnapshot]) error {
	snapshot := job.Payload
	if err := r.repo.Insert(ctx, &snapshot); err != nil {
		return err
	}
	r.metrics.RecordSnapshot(true)
	return nil
}

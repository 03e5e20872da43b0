package synclog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxLoggedErrors caps the error list stored per run. Beyond the cap further
// errors still count toward the run status, they are just not persisted.
const maxLoggedErrors = 5

// Run accumulates counters while a sync run is in flight and is flushed to a
// SyncRunLog row once, at the end.
type Run struct {
	TenantID   string
	SyncType   string
	TargetDate time.Time
	StartedAt  time.Time
	Scanned    int
	Synced     int
	Translated int
	Duplicates int
	SoftFails  int
	errs       []string
}

func NewRun(tenantID, syncType string, targetDate time.Time) *Run {
	return &Run{
		TenantID:   tenantID,
		SyncType:   syncType,
		TargetDate: targetDate,
		StartedAt:  time.Now(),
	}
}

// AddError records one failure message, bounded by maxLoggedErrors.
func (r *Run) AddError(msg string) {
	if len(r.errs) < maxLoggedErrors {
		r.errs = append(r.errs, msg)
	}
}

// Errors returns the recorded failure messages.
func (r *Run) Errors() []string {
	return r.errs
}

// DurationMs is the elapsed wall time since the run started.
func (r *Run) DurationMs() int64 {
	return time.Since(r.StartedAt).Milliseconds()
}

func (r *Run) status(failed bool) RunStatus {
	switch {
	case failed:
		return StatusFailed
	case len(r.errs) > 0 || r.SoftFails > 0:
		return StatusPartial
	default:
		return StatusCompleted
	}
}

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{db: p.DB, node: p.Node}
}

// Record writes the finished run. A failed write is logged and dropped; run
// logging must never fail the sync itself.
func (s *Service) Record(ctx context.Context, run *Run, failed bool) {
	raw, err := json.Marshal(run.errs)
	if err != nil {
		raw = []byte("[]")
	}

	finished := time.Now()
	row := &SyncRunLog{
		ID:              s.node.Generate().String(),
		TenantID:        run.TenantID,
		SyncType:        run.SyncType,
		TargetDate:      run.TargetDate,
		StartedAt:       run.StartedAt,
		FinishedAt:      finished,
		DurationMs:      finished.Sub(run.StartedAt).Milliseconds(),
		Scanned:         run.Scanned,
		RecordsSynced:   run.Synced,
		TranslatedCount: run.Translated,
		Duplicates:      run.Duplicates,
		SoftFails:       run.SoftFails,
		Status:          run.status(failed),
		ErrorSummary:    raw,
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		zap.L().Error("failed to record sync run",
			zap.String("tenant_id", run.TenantID),
			zap.String("sync_type", run.SyncType),
			zap.Error(err),
		)
	}
}

// ListRecent returns the tenant's latest runs, newest first.
func (s *Service) ListRecent(ctx context.Context, tenantID string, limit int) ([]SyncRunLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var rows []SyncRunLog
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("started_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

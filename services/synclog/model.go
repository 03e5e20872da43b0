package synclog

import (
	"time"

	"gorm.io/datatypes"
)

type RunStatus string

const (
	StatusCompleted RunStatus = "completed"
	StatusPartial   RunStatus = "partial"
	StatusFailed    RunStatus = "failed"
)

// SyncRunLog is the persisted outcome of one sync run. One row per run,
// written exactly once when the run finishes.
type SyncRunLog struct {
	ID              string         `gorm:"column:id;primaryKey"`
	TenantID        string         `gorm:"column:tenant_id;index;not null"`
	SyncType        string         `gorm:"column:sync_type;not null"`
	TargetDate      time.Time      `gorm:"column:target_date;not null"`
	StartedAt       time.Time      `gorm:"column:started_at;not null"`
	FinishedAt      time.Time      `gorm:"column:finished_at;not null"`
	DurationMs      int64          `gorm:"column:duration_ms;not null"`
	Scanned         int            `gorm:"column:scanned;not null"`
	RecordsSynced   int            `gorm:"column:records_synced;not null"`
	TranslatedCount int            `gorm:"column:translated_count;not null"`
	Duplicates      int            `gorm:"column:duplicates;not null"`
	SoftFails       int            `gorm:"column:soft_fails;not null"`
	Status          RunStatus      `gorm:"column:status;not null"`
	ErrorSummary    datatypes.JSON `gorm:"column:error_summary"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (SyncRunLog) TableName() string { return "sync_run_logs" }

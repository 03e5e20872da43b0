package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tutoring-controlplane/pkg/task"
	"tutoring-controlplane/pkg/taskname"
	"tutoring-controlplane/services/student"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var TaskModule = fx.Module("task.feedback",
	fx.Invoke(registerTaskHandlers),
)

func registerTaskHandlers(mux *asynq.ServeMux, svc *Service) {
	mux.HandleFunc(taskname.FeedbackSyncTask, svc.HandleSyncTask)
}

// SyncPayload is the queued task body for one tenant's daily sync.
type SyncPayload struct {
	TenantID string `json:"tenant_id"`
	SyncDate string `json:"sync_date"`
}

// NewSyncTask builds the queued task for one tenant and day.
func NewSyncTask(tenantID string, syncDate time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(SyncPayload{
		TenantID: tenantID,
		SyncDate: syncDate.Format(dateLayout),
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskname.FeedbackSyncTask, payload), nil
}

// HandleSyncTask runs one tenant's feedback sync from the queue.
func (s *Service) HandleSyncTask(ctx context.Context, t *asynq.Task) error {
	var payload SyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid sync payload: %w", err)
	}

	syncDate, err := time.Parse(dateLayout, payload.SyncDate)
	if err != nil {
		return fmt.Errorf("invalid sync date %q: %w", payload.SyncDate, err)
	}

	report, err := s.Sync(ctx, payload.TenantID, syncDate)
	if err != nil {
		zap.L().Error("feedback sync task failed",
			zap.String("tenant_id", payload.TenantID),
			zap.String("sync_date", payload.SyncDate),
			zap.Error(err),
		)
		return err
	}

	zap.L().Info("feedback sync task finished",
		zap.String("tenant_id", payload.TenantID),
		zap.String("sync_date", payload.SyncDate),
		zap.Int("feedback_entries_found", report.FeedbackEntriesFound),
		zap.Int("records_synced", report.RecordsSynced),
		zap.Int("feedback_translated", report.FeedbackTranslated),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("soft_fails", report.SoftFails),
		zap.Int64("duration_ms", report.DurationMs),
	)
	return nil
}

type Scheduler struct {
	db       *gorm.DB
	enqueuer task.Enqueuer

	loopCtx    context.Context
	loopCancel context.CancelFunc
}

func NewScheduler(db *gorm.DB, enqueuer task.Enqueuer) *Scheduler {
	return &Scheduler{db: db, enqueuer: enqueuer}
}

var SchedulerModule = fx.Module("feedback.scheduler",
	fx.Provide(NewScheduler),
	fx.Invoke(StartScheduler),
)

// StartScheduler runs the loop on its own background context. The fx start
// context is cancelled once startup finishes, so the loop must not inherit it.
func StartScheduler(lc fx.Lifecycle, s *Scheduler) {
	s.loopCtx, s.loopCancel = context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go s.run(s.loopCtx)
			return nil
		},
		OnStop: func(context.Context) error {
			s.loopCancel()
			return nil
		},
	})
}

func (s *Scheduler) run(ctx context.Context) {
	zap.L().Info("[Scheduler] started daily feedback sync scheduler")

	for {
		now := time.Now()
		next := nextRunTime(now, 2, 0)

		sleepDuration := next.Sub(now)
		zap.L().Info("[Scheduler] next run scheduled",
			zap.Time("next_run", next),
			zap.Duration("sleep_for", sleepDuration),
		)
		select {
		case <-time.After(sleepDuration):
			s.runDaily(ctx)
		case <-ctx.Done():
			zap.L().Warn("[Scheduler] stopped")
			return
		}
	}
}

// runDaily enqueues yesterday's sync for every tenant with a roster account,
// plus the system-wide expired invite sweep.
func (s *Scheduler) runDaily(ctx context.Context) {
	start := time.Now()
	syncDate := start.AddDate(0, 0, -1)

	if _, err := s.enqueuer.Enqueue(asynq.NewTask(taskname.InviteSweepTask, nil), asynq.Queue("low")); err != nil {
		zap.L().Error("[Scheduler] failed to enqueue invite sweep", zap.Error(err))
	}

	var tenantIDs []string
	err := s.db.WithContext(ctx).
		Model(&student.RosterAccount{}).
		Pluck("tenant_id", &tenantIDs).Error
	if err != nil {
		zap.L().Error("[Scheduler] failed to list roster accounts", zap.Error(err))
		return
	}

	enqueued := 0
	for _, tenantID := range tenantIDs {
		t, err := NewSyncTask(tenantID, syncDate)
		if err != nil {
			zap.L().Error("[Scheduler] failed to build sync task",
				zap.String("tenant_id", tenantID),
				zap.Error(err),
			)
			continue
		}
		if _, err := s.enqueuer.Enqueue(t, asynq.Queue("low"), asynq.MaxRetry(3)); err != nil {
			zap.L().Error("[Scheduler] failed to enqueue sync task",
				zap.String("tenant_id", tenantID),
				zap.Error(err),
			)
			continue
		}
		enqueued++
	}

	zap.L().Info("[Scheduler] finished enqueue for all tenants",
		zap.Int("tenants", enqueued),
		zap.Duration("duration", time.Since(start)),
	)
}

func nextRunTime(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if now.After(next) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

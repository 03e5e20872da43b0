package feedback

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"

	"tutoring-controlplane/pkg/taskname"
	"tutoring-controlplane/services/student"
	"tutoring-controlplane/services/testutil"
)

type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func (f *fakeEnqueuer) byType() map[string][]*asynq.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string][]*asynq.Task{}
	for _, task := range f.tasks {
		out[task.Type()] = append(out[task.Type()], task)
	}
	return out
}

func TestRunDailyEnqueuesTenantsAndSweep(t *testing.T) {
	db := testutil.NewTestDB(t, &student.RosterAccount{})
	require.NoError(t, db.Create(&student.RosterAccount{TenantID: "tenant_1", Username: "a", PasswordEnc: "x"}).Error)
	require.NoError(t, db.Create(&student.RosterAccount{TenantID: "tenant_2", Username: "b", PasswordEnc: "y"}).Error)

	enq := &fakeEnqueuer{}
	s := NewScheduler(db, enq)
	s.runDaily(context.Background())

	byType := enq.byType()
	require.Len(t, byType[taskname.InviteSweepTask], 1)
	require.Len(t, byType[taskname.FeedbackSyncTask], 2)

	var payload SyncPayload
	require.NoError(t, json.Unmarshal(byType[taskname.FeedbackSyncTask][0].Payload(), &payload))
	require.Equal(t, time.Now().AddDate(0, 0, -1).Format(dateLayout), payload.SyncDate)
}

func TestStartSchedulerOutlivesStartup(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := NewScheduler(db, &fakeEnqueuer{})

	lc := fxtest.NewLifecycle(t)
	StartScheduler(lc, s)
	lc.RequireStart()

	// The loop's context must survive the end of startup.
	select {
	case <-s.loopCtx.Done():
		t.Fatal("scheduler loop context cancelled during startup")
	default:
	}

	lc.RequireStop()
	require.Error(t, s.loopCtx.Err())
}

package invite

import (
	"context"

	"tutoring-controlplane/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var TaskModule = fx.Module("task.invite",
	fx.Invoke(registerTaskHandlers),
)

func registerTaskHandlers(mux *asynq.ServeMux, svc *Service) {
	mux.HandleFunc(taskname.InviteSweepTask, svc.HandleSweepTask)
}

// HandleSweepTask prunes expired unclaimed invite codes.
func (s *Service) HandleSweepTask(ctx context.Context, t *asynq.Task) error {
	removed, err := s.SweepExpired(ctx)
	if err != nil {
		zap.L().Error("invite sweep failed", zap.Error(err))
		return err
	}

	zap.L().Info("invite sweep finished", zap.Int64("removed", removed))
	return nil
}

package main

import (
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tutoring-controlplane/pkg/config"
	"tutoring-controlplane/pkg/db"
	"tutoring-controlplane/pkg/gen"
	"tutoring-controlplane/pkg/logger"
	"tutoring-controlplane/pkg/middleware"
	"tutoring-controlplane/pkg/notify"
	"tutoring-controlplane/pkg/redis"
	"tutoring-controlplane/pkg/roster"
	"tutoring-controlplane/pkg/server"
	"tutoring-controlplane/pkg/task"
	"tutoring-controlplane/pkg/translate"
	"tutoring-controlplane/services/apikey"
	"tutoring-controlplane/services/feedback"
	"tutoring-controlplane/services/invite"
	"tutoring-controlplane/services/license"
	"tutoring-controlplane/services/student"
	"tutoring-controlplane/services/synclog"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		gen.Module,
		task.Client,
		task.Server,
		notify.Module,
		roster.Module,
		translate.Module,

		apikey.Module,
		license.Module,
		invite.Module,
		synclog.Module,
		student.Module,
		feedback.Module,

		fx.Provide(provideTenantAuth),
		fx.Invoke(autoMigrate),

		server.Module,
		license.ServerModule,
		student.ServerModule,
		feedback.ServerModule,

		invite.TaskModule,
		feedback.TaskModule,
		feedback.SchedulerModule,

		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideTenantAuth(keys *apikey.Service) middleware.AuthMiddleware {
	return middleware.ProvideTenantAuth(keys)
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&apikey.APIKey{},
		&license.License{},
		&invite.InviteCode{},
		&student.StudentRecord{},
		&student.RosterAccount{},
		&feedback.LessonFeedbackRecord{},
		&synclog.SyncRunLog{},
	)
}

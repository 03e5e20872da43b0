package synclog

import (
	"go.uber.org/fx"
)

var Module = fx.Module("synclog.module",
	fx.Provide(NewService),
)

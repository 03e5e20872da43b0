package feedback

import (
	"go.uber.org/fx"
)

var Module = fx.Module("feedback.module",
	fx.Provide(NewService),
)

var ServerModule = fx.Module("feedback.server",
	fx.Invoke(RegisterRoutes),
)

package student

import (
	"go.uber.org/fx"
)

var Module = fx.Module("student.module",
	fx.Provide(
		NewRepository,
		NewService,
	),
)

var ServerModule = fx.Module("student.server",
	fx.Invoke(RegisterRoutes),
)

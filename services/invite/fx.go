package invite

import (
	"go.uber.org/fx"
)

var Module = fx.Module("invite.module",
	fx.Provide(NewService),
)

package license

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"tutoring-controlplane/pkg/middleware"
)

// Module and ServerModule are registered side by side in the binary; the
// graph must validate with the service provided exactly once.
func TestModuleGraphValidates(t *testing.T) {
	err := fx.ValidateApp(
		Module,
		ServerModule,
		fx.Provide(
			func() *gorm.DB { return &gorm.DB{} },
			func() (*snowflake.Node, error) { return snowflake.NewNode(1) },
			func() *gin.Engine { return gin.New() },
			func() middleware.AuthMiddleware { return func(*gin.Context) {} },
		),
	)
	require.NoError(t, err)
}

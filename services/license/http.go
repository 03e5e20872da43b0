package license

import (
	"net/http"

	"tutoring-controlplane/pkg/errutil"
	"tutoring-controlplane/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

type routesParams struct {
	fx.In

	Engine  *gin.Engine
	Auth    middleware.AuthMiddleware
	Service *Service
}

func RegisterRoutes(p routesParams) {
	svc := p.Service
	g := p.Engine.Group("/api/v1", gin.HandlerFunc(p.Auth))

	g.GET("/license/seats", func(c *gin.Context) {
		status, err := svc.GetSeatStatus(c.Request.Context(), middleware.TenantID(c))
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, status)
	})

	g.POST("/license/devices", func(c *gin.Context) {
		var body struct {
			DeviceID string `json:"device_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Error(errutil.BadRequest("invalid device payload", errutil.WithErr(err)))
			return
		}

		if err := svc.BindDevice(c.Request.Context(), middleware.TenantID(c), body.DeviceID); err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
}

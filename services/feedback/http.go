package feedback

import (
	"net/http"
	"strconv"
	"time"

	"tutoring-controlplane/pkg/errutil"
	"tutoring-controlplane/pkg/middleware"
	"tutoring-controlplane/services/synclog"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

type routesParams struct {
	fx.In
	Engine  *gin.Engine
	Auth    middleware.AuthMiddleware
	Service *Service
	Runs    *synclog.Service
}

func RegisterRoutes(p routesParams) {
	api := p.Engine.Group("/api/v1/feedback", gin.HandlerFunc(p.Auth))
	api.POST("/sync", syncFeedback(p.Service))
	api.GET("/runs", listRuns(p.Runs))
	api.GET("/students/:student_id", listByStudent(p.Service))
}

func syncFeedback(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			SyncDate string `json:"sync_date"`
		}
		if err := c.ShouldBindJSON(&body); err != nil && err.Error() != "EOF" {
			c.Error(errutil.BadRequest("invalid sync payload", errutil.WithErr(err)))
			return
		}

		// Defaults to yesterday, matching the nightly schedule.
		syncDate := time.Now().AddDate(0, 0, -1)
		if body.SyncDate != "" {
			parsed, err := time.Parse(dateLayout, body.SyncDate)
			if err != nil {
				c.Error(errutil.BadRequest("sync_date must be YYYY-MM-DD"))
				return
			}
			syncDate = parsed
		}

		report, err := svc.Sync(c.Request.Context(), middleware.TenantID(c), syncDate)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func listRuns(runs *synclog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		rows, err := runs.ListRecent(c.Request.Context(), middleware.TenantID(c), limit)
		if err != nil {
			c.Error(errutil.Internal("failed to list sync runs", errutil.WithErr(err)))
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": rows})
	}
}

func listByStudent(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := svc.ListByStudent(c.Request.Context(), middleware.TenantID(c), c.Param("student_id"))
		if err != nil {
			c.Error(errutil.Internal("failed to list feedback", errutil.WithErr(err)))
			return
		}
		c.JSON(http.StatusOK, gin.H{"feedback": rows})
	}
}

package student

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
	api := p.Engine.Group("/api/v1")

	students := api.Group("/students", gin.HandlerFunc(p.Auth))
	students.POST("/import", importStudents(p.Service))
	students.GET("/sync", getSync(p.Service))
	students.POST("/sync", postSync(p.Service))
	students.PUT("/roster-account", saveRosterAccount(p.Service))

	// Claiming is done by the student app before it has any tenant
	// credential, so the endpoint is unauthenticated.
	api.POST("/invites/claim", claimInvite(p.Service))
}

func importStudents(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Students []ImportItem `json:"students" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Error(errutil.BadRequest("invalid import payload", errutil.WithErr(err)))
			return
		}

		summary, err := svc.Import(c.Request.Context(), middleware.TenantID(c), body.Students)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func getSync(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := svc.GetSync(c.Request.Context(), middleware.TenantID(c))
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func postSync(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		// An empty body is a valid request and means "auto-link".
		var req SyncRequest
		if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
			c.Error(errutil.BadRequest("invalid sync payload", errutil.WithErr(err)))
			return
		}

		outcome, err := svc.PostSync(c.Request.Context(), middleware.TenantID(c), req)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, outcome)
	}
}

func saveRosterAccount(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Error(errutil.BadRequest("invalid account payload", errutil.WithErr(err)))
			return
		}

		if err := svc.SaveRosterAccount(c.Request.Context(), middleware.TenantID(c), body.Username, body.Password); err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func claimInvite(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Code string `json:"code" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Error(errutil.BadRequest("invalid claim payload", errutil.WithErr(err)))
			return
		}

		result, err := svc.ClaimCode(c.Request.Context(), body.Code)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

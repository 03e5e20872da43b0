package student

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"tutoring-controlplane/pkg/middleware"
)

func newTestRouter(t *testing.T, svc *Service, tenantID string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(middleware.Error())

	auth := middleware.AuthMiddleware(func(c *gin.Context) {
		c.Set(middleware.TenantContextKey, tenantID)
		c.Next()
	})
	RegisterRoutes(routesParams{Engine: engine, Auth: auth, Service: svc})
	return engine
}

func TestPostSyncEmptyBodyAutoLinks(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.svc.SaveRosterAccount(context.Background(), "tenant_1", "admin", "pw"))
	router := newTestRouter(t, env.svc, "tenant_1")

	// No body at all still performs the auto-link pass.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/students/sync", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "auto_linked")
}

func TestPostSyncMalformedBodyRejected(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(t, env.svc, "tenant_1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/students/sync", strings.NewReader(`{"auto_link":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

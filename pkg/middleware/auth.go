package middleware

import (
	"context"
	"strings"

	"tutoring-controlplane/pkg/errutil"

	"github.com/gin-gonic/gin"
)

// TenantContextKey holds the tenant resolved from the caller's API key.
const TenantContextKey = "tenant_id"

// KeyVerifier resolves an API key pair to a tenant identity.
type KeyVerifier interface {
	VerifyKey(ctx context.Context, keyID, secret string) (tenantID string, err error)
}

// TenantAuth authenticates the caller via `Authorization: Bearer <key_id>.<secret>`
// and scopes the request to the owning tenant. Requests without a valid key
// are rejected before any handler runs.
func TenantAuth(verifier KeyVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			abortUnauthorized(c, "missing api key")
			return
		}

		keyID, secret, ok := strings.Cut(token, ".")
		if !ok {
			abortUnauthorized(c, "malformed api key")
			return
		}

		tenantID, err := verifier.VerifyKey(c.Request.Context(), keyID, secret)
		if err != nil {
			abortUnauthorized(c, "invalid api key")
			return
		}

		c.Set(TenantContextKey, tenantID)
		c.Next()
	}
}

// AuthMiddleware is the named tenant-auth handler wired through fx so service
// modules can depend on it by type.
type AuthMiddleware gin.HandlerFunc

func ProvideTenantAuth(verifier KeyVerifier) AuthMiddleware {
	return AuthMiddleware(TenantAuth(verifier))
}

// TenantID returns the tenant bound to the request, empty when unauthenticated.
func TenantID(c *gin.Context) string {
	return c.GetString(TenantContextKey)
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.Error(errutil.Unauthorized(msg))
	c.Abort()
}

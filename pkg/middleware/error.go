package middleware

import (
	"errors"

	"tutoring-controlplane/pkg/errutil"

	"github.com/gin-gonic/gin"
)

// Error renders domain errors attached to the gin context as JSON bodies.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		err := c.Errors.Last()
		if err == nil {
			return
		}

		var base errutil.BaseError
		if errors.As(err.Err, &base) {
			c.JSON(base.Code.HTTPStatus(), base.JSON())
			return
		}

		c.JSON(500, gin.H{"error": err.Error()})
	}
}

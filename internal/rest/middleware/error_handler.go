package middleware

import (
	"github.com/gin-gonic/gin"
	ierr "github.com/loopcart/loopcart/internal/errors"
	"github.com/loopcart/loopcart/internal/logger"
)

// ErrorHandler converts errors attached by handlers into the standard error
// response envelope. Handlers call c.Error(err) and return; this middleware
// owns status-code mapping and serialization.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := ierr.HTTPStatusFromErr(err)
		if status >= 500 {
			log.Errorw("request failed",
				"path", c.Request.URL.Path,
				"status", status,
				"error", err)
		}
		c.JSON(status, ierr.NewErrorResponse(err))
	}
}

package middleware

import (
	"github.com/gin-gonic/gin"

	"messenger/pkg/errors"
	"messenger/pkg/logger"
)

// ErrorHandler renders the last error a handler attached with c.Error.
func ErrorHandler(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last()
		statusCode := errors.HTTPStatusFromError(err.Err)
		if statusCode >= 500 {
			log.Error("Request failed", "path", c.FullPath(), "error", err.Err)
		}

		c.JSON(statusCode, gin.H{
			"error": err.Error(),
		})
	}
}

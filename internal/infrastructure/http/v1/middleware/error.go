package middleware

import (
	"github.com/gin-gonic/gin"

	"newsletter/internal/core/apperror"
	"newsletter/pkg/logger"
)

// ErrorHandler transforms errors into consistent JSON responses. Hides
// internal errors from clients while logging full details.
//
// It never touches the idempotency store: a request that fails before the
// publish transaction commits leaves no idempotency row behind at all (the
// INSERT..ON CONFLICT DO NOTHING never ran, or its transaction rolled back),
// so the next attempt with the same key proceeds cleanly. There is no
// "failed" idempotency state to record here.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		if c.Writer.Written() {
			return
		}

		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.Err != nil {
				logger.Error(c.Request.Context(), "request error",
					"code", appErr.Code,
					"cause", appErr.Err,
				)
			}

			c.JSON(appErr.HTTPStatus, gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": appErr.Details,
			})
			return
		}

		logger.Error(c.Request.Context(), "unhandled error", "error", err)

		c.JSON(500, gin.H{
			"code":    apperror.CodeInternal,
			"message": "Internal server error",
			"details": map[string]any{
				"request_id": c.GetString("request_id"),
			},
		})
	}
}

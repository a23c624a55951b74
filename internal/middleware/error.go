package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "kpr/internal/errors"
	"kpr/internal/logger"
)

// ErrorHandler renders the last error attached with c.Error as the JSON error
// envelope. Handlers that already wrote a response are left alone. Anything
// that is not an AppError becomes a generic 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		log := logger.With("request_id", RequestID(c), "path", c.Request.URL.Path, "method", c.Request.Method)

		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			log.Errorw("unexpected error", "error", err.Error())
			writeAppError(c, apperrors.ErrInternalServer)
			return
		}
		if appErr.Internal != nil {
			log.Errorw("app error", "code", appErr.Code, "message", appErr.Message, "internal", appErr.Internal.Error())
		}
		writeAppError(c, appErr)
	}
}

func writeAppError(c *gin.Context, err *apperrors.AppError) {
	c.JSON(err.StatusCode, gin.H{
		"error": gin.H{
			"code":    err.Code,
			"message": err.Message,
		},
	})
}

func abortWithAppError(c *gin.Context, err *apperrors.AppError) {
	c.Abort()
	writeAppError(c, err)
}

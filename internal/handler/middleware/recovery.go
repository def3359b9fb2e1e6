package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipehub/api/pkg/response"
)

// Recovery turns a handler panic into a 500 JSON error.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				panicRecoveries.Inc()
				logger.Error("panic recovered",
					zap.Any("error", err),
					zap.String("request_id", GetRequestID(c)),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"),
				)
				response.Abort(c, http.StatusInternalServerError, "internal server error")
			}
		}()
		c.Next()
	}
}

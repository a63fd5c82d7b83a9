package middleware

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRecoveryMiddleware turns panics into a generic 500 and logs them
func NewRecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, err any) {
		zap.L().Error("Recovered from panic",
			zap.Any("panic", err),
			zap.String("requestID", c.GetString("requestID")),
			zap.String("path", c.Request.URL.Path),
		)

		abort(c, http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	})
}

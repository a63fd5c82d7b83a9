package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodySizeLimiter caps request bodies at maxBytes. Handlers that hit the
// cap while binding record the error with c.Error and return without
// responding, the limiter answers for them.
func BodySizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Fast reject for legit requests
		if c.Request.ContentLength > maxBytes {
			abort(c, http.StatusRequestEntityTooLarge, gin.H{
				"error": "Request body size exceeds limit",
			})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()

		var tooLarge *http.MaxBytesError
		if last := c.Errors.Last(); last != nil && errors.As(last.Err, &tooLarge) && !c.Writer.Written() {
			abort(c, http.StatusRequestEntityTooLarge, gin.H{
				"error": "Request body size exceeds limit",
			})
		}
	}
}

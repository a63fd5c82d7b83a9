// Package middleware contains any custom middleware used in the app
package middleware

import (
	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDSize   = 16
)

// NewRequestIDMiddleware returns a new middleware function that generates a request ID for
// each incoming request and sets it as requestID
func NewRequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := gonanoid.New(requestIDSize)
		if err != nil {
			id = "unknown"
		}

		c.Set("requestID", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// abort writes body with the request ID attached and stops the chain
func abort(c *gin.Context, code int, body gin.H) {
	if id := c.GetString("requestID"); id != "" {
		body["requestID"] = id
	}

	c.AbortWithStatusJSON(code, body)
}

package middleware

import (
	"context"
	"errors"
	"net/http"

	"flexgen/auth-api/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionChecker reports whether the session recorded for a token is
// still usable. A nil checker keeps verification stateless.
type SessionChecker interface {
	SessionActive(ctx context.Context, digest string) (bool, error)
}

// NewJWTMiddleware guards API routes. Requests without a bearer token get
// 401, bad or expired tokens get 403.
func NewJWTMiddleware(tokens *security.TokenIssuer, sessions SessionChecker) gin.HandlerFunc {
	return newAuthMiddleware(tokens, sessions,
		gin.H{"error": "Access token required"},
		gin.H{"error": "Invalid or expired token"},
	)
}

// NewToolAuthMiddleware guards tool execution. It behaves like the JWT
// middleware but tells the client to sign in.
func NewToolAuthMiddleware(tokens *security.TokenIssuer, sessions SessionChecker) gin.HandlerFunc {
	return newAuthMiddleware(tokens, sessions,
		gin.H{
			"error":        "Authentication required",
			"message":      "Please sign in to use this tool",
			"requiresAuth": true,
		},
		gin.H{
			"error":        "Invalid or expired token",
			"message":      "Please sign in again to continue",
			"requiresAuth": true,
		},
	)
}

func newAuthMiddleware(tokens *security.TokenIssuer, sessions SessionChecker, missing, invalid gin.H) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("requestID")

		tokenStr, err := security.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abort(c, http.StatusUnauthorized, clone(missing))
			return
		}

		claims, err := tokens.Verify(tokenStr)
		if err != nil {
			if !errors.Is(err, security.ErrTokenExpired) {
				zap.L().Debug("Rejected bearer token", zap.Error(err), zap.String("requestID", requestID))
			}

			abort(c, http.StatusForbidden, clone(invalid))
			return
		}

		if sessions != nil {
			ok, err := sessions.SessionActive(c.Request.Context(), security.SessionDigest(claims.ID))
			if err != nil {
				abort(c, http.StatusInternalServerError, gin.H{"error": "Internal server error"})

				zap.L().Error("Failed to check session", zap.Error(err), zap.String("requestID", requestID))
				return
			}

			if !ok {
				abort(c, http.StatusForbidden, clone(invalid))
				return
			}
		}

		c.Set("userID", claims.UserID)
		c.Set("tokenClaims", claims)
		c.Next()
	}
}

func clone(h gin.H) gin.H {
	out := make(gin.H, len(h)+1)
	for k, v := range h {
		out[k] = v
	}

	return out
}

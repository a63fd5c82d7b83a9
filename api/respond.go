package api

import (
	"errors"
	"net/http"
	"time"

	"flexgen/auth-api/internal/model"
	"flexgen/auth-api/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// fail aborts with a JSON error body carrying the request ID
func fail(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{
		"error":     msg,
		"requestID": c.GetString("requestID"),
	})
}

// internalError logs err with the request ID and answers with a generic 500
func internalError(c *gin.Context, msg string, err error) {
	fail(c, http.StatusInternalServerError, "Internal server error")

	zap.L().Error(msg, zap.Error(err), zap.String("requestID", c.GetString("requestID")))
}

// bindJSON decodes the request body into dst. Oversized bodies are left
// for the body size limiter to answer.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.Error(err)
		c.Abort()
		return false
	}

	fail(c, http.StatusBadRequest, "Invalid request body")

	zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
	return false
}

// issueToken signs a token for userID and records its session. A failed
// session insert only matters when sessions are used for revocation.
func (a *API) issueToken(c *gin.Context, userID string) (string, error) {
	token, claims, err := a.Tokens.Issue(userID)
	if err != nil {
		return "", err
	}

	err = a.Store.InsertSession(c.Request.Context(), &model.UserSession{
		UserID:       userID,
		SessionToken: security.SessionDigest(claims.ID),
		ExpiresAt:    claims.ExpiresAt.Time,
		IPAddress:    c.ClientIP(),
		UserAgent:    truncate(c.Request.UserAgent(), 512),
	})
	if err != nil {
		if a.Config.JWT.Revocation {
			return "", err
		}

		zap.L().Warn("Failed to record session", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
	}

	return token, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n]
}

func isoTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

package api

import (
	"net/http"

	"flexgen/auth-api/pkg/security"

	"github.com/gin-gonic/gin"
)

// UserLogout revokes the session of the presented token. Without
// revocation enabled the token stays valid until it expires and the
// client is expected to discard it.
func (a *API) UserLogout(c *gin.Context) {
	claims := c.MustGet("tokenClaims").(*security.Claims)

	err := a.Store.RevokeSession(c.Request.Context(), claims.UserID, security.SessionDigest(claims.ID))
	if err != nil {
		internalError(c, "Failed to revoke session", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

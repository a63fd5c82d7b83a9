package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ToolAuthorize acknowledges that the caller may run a tool. The tools
// themselves run elsewhere.
func (a *API) ToolAuthorize(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"authorized": true,
		"tool":       strings.TrimPrefix(c.Param("tool"), "/"),
		"userId":     c.GetString("userID"),
	})
}

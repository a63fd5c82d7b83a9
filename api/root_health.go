package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (a *API) Health(c *gin.Context) {
	if c.Request.Method == http.MethodHead {
		c.Status(http.StatusOK)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": isoTime(time.Now()),
	})
}

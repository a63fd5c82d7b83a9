package api

import (
	"net/http"
	"strconv"

	"flexgen/auth-api/internal/model"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ScanHistory returns a page of the user's scans, newest first. Bad or
// out of range paging parameters fall back to sane values.
func (a *API) ScanHistory(c *gin.Context) {
	userID := c.GetString("userID")

	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	total, err := a.Store.CountScansByUser(c.Request.Context(), userID)
	if err != nil {
		internalError(c, "Failed to count scans", err)
		return
	}

	totalPages := (total + int64(limit) - 1) / int64(limit)

	// Pages past the end are empty, which also keeps the offset below total
	scans := []model.ScanHistory{}
	if int64(page) <= totalPages {
		scans, err = a.Store.ListScansByUser(c.Request.Context(), userID, limit, (page-1)*limit)
		if err != nil {
			internalError(c, "Failed to fetch scans", err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"scans": scans,
		"pagination": gin.H{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": totalPages,
		},
	})
}

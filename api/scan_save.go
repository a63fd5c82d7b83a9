package api

import (
	"encoding/json"
	"net/http"

	"flexgen/auth-api/internal/model"
	"flexgen/auth-api/validators"

	"github.com/gin-gonic/gin"
)

type scanBody struct {
	ScanType     string          `json:"scanType"`
	TargetURL    *string         `json:"targetUrl"`
	TargetIP     *string         `json:"targetIp"`
	ScanResults  json.RawMessage `json:"scanResults"`
	RiskLevel    *string         `json:"riskLevel"`
	ThreatsFound int             `json:"threatsFound"`
	ScanDuration *int64          `json:"scanDuration"`
}

func (a *API) ScanSave(c *gin.Context) {
	var data scanBody
	if !bindJSON(c, &data) {
		return
	}

	if err := validators.ScanValidator(data.ScanType, data.ThreatsFound, data.ScanDuration, data.ScanResults); err != nil {
		fail(c, http.StatusBadRequest, message(err))
		return
	}

	scanID, err := a.Store.InsertScan(c.Request.Context(), &model.ScanHistory{
		UserID:       c.GetString("userID"),
		ScanType:     data.ScanType,
		TargetURL:    data.TargetURL,
		TargetIP:     data.TargetIP,
		ScanResults:  model.JSON(data.ScanResults),
		RiskLevel:    data.RiskLevel,
		ThreatsFound: data.ThreatsFound,
		ScanDuration: data.ScanDuration,
	})
	if err != nil {
		internalError(c, "Failed to save scan result", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Scan result saved successfully",
		"scanId":  scanID,
	})
}

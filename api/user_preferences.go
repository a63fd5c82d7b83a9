package api

import (
	"errors"
	"net/http"

	"flexgen/auth-api/db"
	"flexgen/auth-api/internal/model"
	"flexgen/auth-api/validators"

	"github.com/gin-gonic/gin"
)

// preferencesBody uses pointers so that fields left out of the body keep
// their current value
type preferencesBody struct {
	EmailNotifications *bool   `json:"emailNotifications"`
	SecurityAlerts     *bool   `json:"securityAlerts"`
	MarketingEmails    *bool   `json:"marketingEmails"`
	Theme              *string `json:"theme"`
	Language           *string `json:"language"`
	Timezone           *string `json:"timezone"`
}

func (a *API) PreferencesFetch(c *gin.Context) {
	prefs, ok := a.preferences(c, c.GetString("userID"))
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"preferences": prefs,
	})
}

func (a *API) PreferencesEdit(c *gin.Context) {
	userID := c.GetString("userID")

	var data preferencesBody
	if !bindJSON(c, &data) {
		return
	}

	prefs, ok := a.preferences(c, userID)
	if !ok {
		return
	}

	if data.EmailNotifications != nil {
		prefs.EmailNotifications = *data.EmailNotifications
	}
	if data.SecurityAlerts != nil {
		prefs.SecurityAlerts = *data.SecurityAlerts
	}
	if data.MarketingEmails != nil {
		prefs.MarketingEmails = *data.MarketingEmails
	}
	if data.Theme != nil {
		prefs.Theme = *data.Theme
	}
	if data.Language != nil {
		prefs.Language = *data.Language
	}
	if data.Timezone != nil {
		prefs.Timezone = *data.Timezone
	}

	if err := validators.PreferencesValidator(prefs.Theme, prefs.Language, prefs.Timezone); err != nil {
		fail(c, http.StatusBadRequest, message(err))
		return
	}

	if err := a.Store.UpdatePreferences(c.Request.Context(), userID, prefs); err != nil {
		internalError(c, "Failed to update preferences", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Preferences updated successfully",
	})
}

// preferences returns the stored preferences, or the defaults when the
// row was never created
func (a *API) preferences(c *gin.Context, userID string) (*model.UserPreferences, bool) {
	prefs, err := a.Store.GetPreferences(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return model.DefaultPreferences(userID), true
		}

		internalError(c, "Failed to fetch preferences", err)
		return nil, false
	}

	return prefs, true
}

package api

import (
	"errors"
	"net/http"
	"strings"

	"flexgen/auth-api/db"
	"flexgen/auth-api/validators"

	"github.com/gin-gonic/gin"
)

type profileBody struct {
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Avatar    *string `json:"avatar"`
}

// UserEdit overwrites the display fields of the signed in user. Fields
// left out of the body are cleared.
func (a *API) UserEdit(c *gin.Context) {
	userID := c.GetString("userID")

	var data profileBody
	if !bindJSON(c, &data) {
		return
	}

	data.FirstName = strings.TrimSpace(data.FirstName)
	data.LastName = strings.TrimSpace(data.LastName)

	if data.Avatar != nil && *data.Avatar == "" {
		data.Avatar = nil
	}

	if err := validators.NamesValidator(data.FirstName, data.LastName); err != nil {
		fail(c, http.StatusBadRequest, message(err))
		return
	}

	if err := validators.AvatarValidator(data.Avatar); err != nil {
		fail(c, http.StatusBadRequest, message(err))
		return
	}

	err := a.Store.UpdateProfile(c.Request.Context(), userID, db.ProfileUpdate{
		FirstName: data.FirstName,
		LastName:  data.LastName,
		Avatar:    data.Avatar,
	})
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			fail(c, http.StatusNotFound, "User not found")
			return
		}

		internalError(c, "Failed to update profile", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
	})
}

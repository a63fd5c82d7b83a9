package api

import (
	"errors"
	"net/http"

	"flexgen/auth-api/db"
	"flexgen/auth-api/internal/model"

	"github.com/gin-gonic/gin"
)

type profileResponse struct {
	*model.User
	Preferences *model.UserPreferences `json:"preferences"`
}

// UserFetch returns the signed in user together with their preferences
func (a *API) UserFetch(c *gin.Context) {
	userID := c.GetString("userID")

	user, ok := a.currentUser(c, userID)
	if !ok {
		return
	}

	prefs, err := a.Store.GetPreferences(c.Request.Context(), userID)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			internalError(c, "Failed to fetch preferences", err)
			return
		}

		prefs = model.DefaultPreferences(userID)
	}

	c.JSON(http.StatusOK, gin.H{
		"user": profileResponse{User: user, Preferences: prefs},
	})
}

// Validate returns the user a token belongs to
func (a *API) Validate(c *gin.Context) {
	user, ok := a.currentUser(c, c.GetString("userID"))
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}

// currentUser loads the active user behind the request's token. Tokens of
// deleted or deactivated users get a 404.
func (a *API) currentUser(c *gin.Context, userID string) (*model.User, bool) {
	user, err := a.Store.FindUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			fail(c, http.StatusNotFound, "User not found")
			return nil, false
		}

		internalError(c, "Failed to fetch user", err)
		return nil, false
	}

	return user, true
}

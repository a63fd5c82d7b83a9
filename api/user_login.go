package api

import (
	"errors"
	"net/http"

	"flexgen/auth-api/internal/auth"

	"github.com/gin-gonic/gin"
)

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) UserLogin(c *gin.Context) {
	var data loginBody
	if !bindJSON(c, &data) {
		return
	}

	if data.Email == "" || data.Password == "" {
		fail(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := a.Auth.Authenticate(c.Request.Context(), data.Email, data.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, message(err))
			return
		}

		internalError(c, "Failed to authenticate user", err)
		return
	}

	token, err := a.issueToken(c, user.ID)
	if err != nil {
		internalError(c, "Failed to generate auth token", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

package api

import (
	"errors"
	"net/http"

	"flexgen/auth-api/internal/auth"
	"flexgen/auth-api/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type registerBody struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (a *API) UserRegister(c *gin.Context) {
	requestID := c.GetString("requestID")

	var data registerBody
	if !bindJSON(c, &data) {
		return
	}

	data.Email = a.Auth.NormalizeEmail(data.Email)

	if err := validators.RegistrationValidator(data.Email, data.Password, data.FirstName, data.LastName); err != nil {
		zap.L().Debug("Invalid registration", zap.Error(err), zap.String("requestID", requestID))

		fail(c, http.StatusBadRequest, message(err))
		return
	}

	user, err := a.Auth.Register(c.Request.Context(), auth.Registration{
		Email:     data.Email,
		Password:  data.Password,
		FirstName: data.FirstName,
		LastName:  data.LastName,
	})
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			fail(c, http.StatusConflict, message(err))
			return
		}

		internalError(c, "Failed to create user", err)
		return
	}

	token, err := a.issueToken(c, user.ID)
	if err != nil {
		internalError(c, "Failed to generate auth token", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"token":   token,
		"user":    user,
	})
}

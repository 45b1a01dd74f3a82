package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/perchapp/perch/middleware"
	"github.com/perchapp/perch/services"
	"github.com/perchapp/perch/utils"
)

// AuthController handles login and logout.
type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// Login verifies credentials and issues a fresh session token.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	session, user, err := a.auth.Login(req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrAuthenticationFailed):
		utils.Error(ctx, http.StatusUnauthorized, 40106, "incorrect credentials")
		return
	case errors.Is(err, services.ErrAccountInactive):
		utils.Error(ctx, http.StatusForbidden, 40307, "account is not activated")
		return
	default:
		utils.Error(ctx, http.StatusInternalServerError, 50004, "login failed")
		return
	}

	utils.Success(ctx, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"image":    user.Image,
		"token":    session.Token,
	})
}

// Logout revokes the presented bearer token. Revoking twice, or with
// no token at all, succeeds; there is nothing to leak either way.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := middleware.BearerTokenFromHeader(ctx.GetHeader("Authorization"))
	if token != "" {
		if err := a.auth.Logout(token); err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50005, "logout failed")
			return
		}
	}
	utils.Success(ctx, nil)
}

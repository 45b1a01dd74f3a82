package controllers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/perchapp/perch/middleware"
	"github.com/perchapp/perch/models"
	"github.com/perchapp/perch/services"
	"github.com/perchapp/perch/utils"
)

// UserController handles account lifecycle endpoints.
type UserController struct {
	users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{users: users}
}

// Register creates an inactive account and mails the activation link.
func (u *UserController) Register(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required,min=4,max=32"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	err := u.users.Register(strings.TrimSpace(req.Username), strings.ToLower(req.Email), req.Password)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrEmailInUse):
		utils.Error(ctx, http.StatusConflict, 40901, "email already in use")
		return
	case errors.Is(err, services.ErrEmailDelivery):
		utils.Error(ctx, http.StatusBadGateway, 50210, "failed to send activation email")
		return
	default:
		utils.Error(ctx, http.StatusInternalServerError, 50010, "registration failed")
		return
	}
	utils.Success(ctx, gin.H{"message": "user created"})
}

// Activate redeems an activation token.
func (u *UserController) Activate(ctx *gin.Context) {
	token := strings.TrimSpace(ctx.Param("token"))
	if err := u.users.Activate(token); err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			utils.Error(ctx, http.StatusBadRequest, 40011, "invalid activation token")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50011, "activation failed")
		return
	}
	utils.Success(ctx, gin.H{"message": "account activated"})
}

// List returns a page of activated users excluding the caller.
func (u *UserController) List(ctx *gin.Context) {
	callerID, _ := middleware.AuthenticatedUserID(ctx)
	page, size := pagination(ctx)

	users, total, err := u.users.ListUsers(page, size, callerID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to list users")
		return
	}

	items := make([]gin.H, 0, len(users))
	for _, user := range users {
		items = append(items, publicUser(&user))
	}
	utils.Success(ctx, gin.H{
		"content":     items,
		"page":        page,
		"size":        size,
		"total_pages": totalPages(total, size),
	})
}

// Get returns one activated user's public profile, served from cache
// when possible.
func (u *UserController) Get(ctx *gin.Context) {
	idStr := strings.TrimSpace(ctx.Param("id"))
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid user id")
		return
	}

	cacheKey := userCacheKey(uint(id))
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	user, err := u.users.GetUser(uint(id))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to get user")
		return
	}

	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: publicUser(user)}
	utils.CacheSetJSON(cacheKey, wrapper, time.Hour)
	utils.Success(ctx, publicUser(user))
}

// Update changes a user's own profile. Identity may come from the
// bearer token or, on the legacy path, from basic credentials.
func (u *UserController) Update(ctx *gin.Context) {
	id, ok := targetUserID(ctx)
	if !ok {
		return
	}

	type request struct {
		Username string `json:"username" binding:"required,min=4,max=32"`
		Image    string `json:"image"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	var image []byte
	if req.Image != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40013, "image is not valid base64")
			return
		}
		image = decoded
	}

	user, err := u.users.UpdateUser(id, strings.TrimSpace(req.Username), image)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrImageTooLarge):
		utils.Error(ctx, http.StatusBadRequest, 40014, "profile image must be at most 2MB")
		return
	case errors.Is(err, services.ErrUnsupportedImageType):
		utils.Error(ctx, http.StatusBadRequest, 40015, "profile image must be png or jpeg")
		return
	default:
		utils.Error(ctx, http.StatusInternalServerError, 50014, "failed to update user")
		return
	}
	utils.CacheDelete(userCacheKey(id))
	utils.Success(ctx, publicUser(user))
}

// Delete removes the caller's own account along with its sessions,
// posts and files.
func (u *UserController) Delete(ctx *gin.Context) {
	id, ok := targetUserID(ctx)
	if !ok {
		return
	}

	if err := u.users.DeleteUser(id); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50015, "failed to delete user")
		return
	}
	utils.CacheDelete(userCacheKey(id))
	utils.Success(ctx, nil)
}

// RequestPasswordReset mails a reset token to the given address.
func (u *UserController) RequestPasswordReset(ctx *gin.Context) {
	type request struct {
		Email string `json:"email" binding:"required,email"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	err := u.users.RequestPasswordReset(strings.ToLower(req.Email))
	switch {
	case err == nil:
	case errors.Is(err, services.ErrUserNotFound):
		utils.Error(ctx, http.StatusNotFound, 40412, "unknown e-mail")
		return
	case errors.Is(err, services.ErrEmailDelivery):
		utils.Error(ctx, http.StatusBadGateway, 50211, "failed to send reset email")
		return
	default:
		utils.Error(ctx, http.StatusInternalServerError, 50016, "password reset failed")
		return
	}
	utils.Success(ctx, gin.H{"message": "check your e-mail for reset instructions"})
}

// CompletePasswordReset redeems a reset token and installs the new
// password.
func (u *UserController) CompletePasswordReset(ctx *gin.Context) {
	type request struct {
		PasswordResetToken string `json:"password_reset_token" binding:"required"`
		Password           string `json:"password" binding:"required,min=6"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	if err := u.users.CompletePasswordReset(req.PasswordResetToken, req.Password); err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			utils.Error(ctx, http.StatusForbidden, 40310, "invalid password reset token")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50017, "password reset failed")
		return
	}
	utils.Success(ctx, gin.H{"message": "password updated"})
}

// targetUserID parses the :id param and verifies the request identity
// matches it. Writes the error response itself when not.
func targetUserID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(ctx.Param("id")), 10, 32)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid user id")
		return 0, false
	}
	callerID, ok := middleware.IdentityFromRequest(ctx)
	if !ok || callerID != uint(id) {
		utils.Error(ctx, http.StatusForbidden, 40311, "not allowed to modify this user")
		return 0, false
	}
	return uint(id), true
}

func publicUser(user *models.User) gin.H {
	return gin.H{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
		"image":    user.Image,
	}
}

func userCacheKey(id uint) string {
	return fmt.Sprintf("cache:user:public:%d", id)
}

func pagination(ctx *gin.Context) (page, size int) {
	page, size = 0, 10
	if v := strings.TrimSpace(ctx.Query("page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			page = n
		}
	}
	if v := strings.TrimSpace(ctx.Query("size")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			size = n
		}
	}
	return page, size
}

func totalPages(total int64, size int) int {
	return int((total + int64(size) - 1) / int64(size))
}

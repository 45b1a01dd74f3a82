package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/perchapp/perch/middleware"
	"github.com/perchapp/perch/models"
	"github.com/perchapp/perch/services"
	"github.com/perchapp/perch/utils"
)

// PostController handles publishing and browsing posts.
type PostController struct {
	posts *services.PostService
}

func NewPostController(posts *services.PostService) *PostController {
	return &PostController{posts: posts}
}

// Create publishes a post, optionally linking a previously uploaded
// attachment.
func (p *PostController) Create(ctx *gin.Context) {
	userID, ok := middleware.AuthenticatedUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40101, "authentication required")
		return
	}

	type request struct {
		Content        string `json:"content" binding:"required,min=10,max=5000"`
		FileAttachment *uint  `json:"file_attachment"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	post, err := p.posts.Create(userID, req.Content, req.FileAttachment)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create post")
		return
	}
	utils.Success(ctx, gin.H{"id": post.ID})
}

// List returns a page of all posts, newest first.
func (p *PostController) List(ctx *gin.Context) {
	p.list(ctx, 0)
}

// ListForUser returns a page of one user's posts.
func (p *PostController) ListForUser(ctx *gin.Context) {
	id, err := strconv.ParseUint(strings.TrimSpace(ctx.Param("id")), 10, 32)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid user id")
		return
	}
	p.list(ctx, uint(id))
}

func (p *PostController) list(ctx *gin.Context, userID uint) {
	page, size := pagination(ctx)
	posts, total, err := p.posts.List(page, size, userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list posts")
		return
	}

	items := make([]gin.H, 0, len(posts))
	for i := range posts {
		items = append(items, postResponse(&posts[i]))
	}
	utils.Success(ctx, gin.H{
		"content":     items,
		"page":        page,
		"size":        size,
		"total_pages": totalPages(total, size),
	})
}

// Delete removes the caller's own post.
func (p *PostController) Delete(ctx *gin.Context) {
	userID, ok := middleware.AuthenticatedUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40101, "authentication required")
		return
	}
	id, err := strconv.ParseUint(strings.TrimSpace(ctx.Param("id")), 10, 32)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40051, "invalid post id")
		return
	}

	if err := p.posts.Delete(uint(id), userID); err != nil {
		if errors.Is(err, services.ErrForbidden) {
			utils.Error(ctx, http.StatusForbidden, 40320, "not allowed to delete this post")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to delete post")
		return
	}
	utils.Success(ctx, nil)
}

func postResponse(post *models.Post) gin.H {
	resp := gin.H{
		"id":         post.ID,
		"content":    post.Content,
		"created_at": post.CreatedAt,
		"user":       publicUser(&post.User),
	}
	if post.Attachment != nil {
		resp["attachment"] = gin.H{
			"filename":  post.Attachment.Filename,
			"file_type": post.Attachment.FileType,
		}
	}
	return resp
}

package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/perchapp/perch/services"
	"github.com/perchapp/perch/utils"
)

// FileController handles attachment uploads.
type FileController struct {
	files         *services.FileService
	maxUploadSize int64
}

func NewFileController(files *services.FileService, maxUploadSize int64) *FileController {
	return &FileController{files: files, maxUploadSize: maxUploadSize}
}

// UploadAttachment stores an uploaded binary and returns the metadata
// row id. The attachment starts unowned; the client links it to a post
// on publish, and unlinked uploads are reclaimed after the retention
// window.
func (f *FileController) UploadAttachment(ctx *gin.Context) {
	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "no file uploaded")
		return
	}
	defer file.Close()

	if header.Size > f.maxUploadSize {
		utils.Error(ctx, http.StatusBadRequest, 40032, "file too large")
		return
	}

	// The extra byte catches clients that lie about Content-Length.
	data, err := io.ReadAll(io.LimitReader(file, f.maxUploadSize+1))
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to read upload")
		return
	}
	if int64(len(data)) > f.maxUploadSize {
		utils.Error(ctx, http.StatusBadRequest, 40032, "file too large")
		return
	}

	attachment, err := f.files.SaveAttachment(data)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to save attachment")
		return
	}
	utils.Success(ctx, gin.H{"id": attachment.ID})
}

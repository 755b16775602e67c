package handler

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sirreidlos/e-form/internal/eform/service"
)

// UploadHandler stores form media in the object store and serves it
// back.
type UploadHandler struct {
	media *service.MediaService
}

func NewUploadHandler(media *service.MediaService) *UploadHandler {
	return &UploadHandler{media: media}
}

// UploadedFile describes one stored file.
type UploadedFile struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// Upload accepts multipart files and writes them to the object store.
// POST /upload
func (h *UploadHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		BadRequest(c, "Failed to parse upload: "+err.Error())
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["file"]
	}
	if len(files) == 0 {
		BadRequest(c, "No files uploaded")
		return
	}

	var uploaded []UploadedFile
	for _, fileHeader := range files {
		fileID := uuid.New().String()[:32]
		objectName := fileID + filepath.Ext(fileHeader.Filename)

		src, err := fileHeader.Open()
		if err != nil {
			InternalError(c, "Failed to read uploaded file: "+err.Error())
			return
		}

		contentType := fileHeader.Header.Get("Content-Type")
		url, err := h.media.Upload(c.Request.Context(), objectName, src, fileHeader.Size, contentType)
		src.Close()
		if err != nil {
			if errors.Is(err, service.ErrMediaUnavailable) {
				Error(c, 50300, "Media storage is not configured")
				return
			}
			InternalError(c, "Failed to store file: "+err.Error())
			return
		}

		uploaded = append(uploaded, UploadedFile{
			ID:          fileID,
			URL:         url,
			Filename:    fileHeader.Filename,
			Size:        fileHeader.Size,
			ContentType: contentType,
		})
	}

	Success(c, uploaded)
}

// Serve streams a stored object back to the client.
// GET /media/:object
func (h *UploadHandler) Serve(c *gin.Context) {
	objectName := c.Param("object")
	if objectName == "" {
		BadRequest(c, "Object name is required")
		return
	}

	reader, contentType, err := h.media.Open(c.Request.Context(), objectName)
	if err != nil {
		if errors.Is(err, service.ErrMediaUnavailable) {
			Error(c, 50300, "Media storage is not configured")
			return
		}
		NotFound(c, "File not found")
		return
	}
	defer reader.Close()

	c.Header("Content-Type", contentType)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		c.Error(fmt.Errorf("stream media object %s: %w", objectName, err))
	}
}

package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/roomchat/internal/handlers/dto"
	"github.com/thereayou/roomchat/internal/media"
)

const multipartOverhead = 64 << 10

type UploadHandler struct {
	uploader *media.Uploader
	tmpDir   string
	maxBytes int64
}

func NewUploadHandler(uploader *media.Uploader, tmpDir string, maxBytes int64) *UploadHandler {
	return &UploadHandler{uploader: uploader, tmpDir: tmpDir, maxBytes: maxBytes}
}

// Upload принимает multipart поле "media", кладёт файл во временный каталог
// и переносит его в хранилище блобов.
func (h *UploadHandler) Upload(c *gin.Context) {
	if h.maxBytes > 0 {
		// тело целиком не читаем: лимит файла плюс запас на заголовки multipart
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)
	}

	file, err := c.FormFile("media")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File is too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	if h.maxBytes > 0 && file.Size > h.maxBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is too large"})
		return
	}

	if err := os.MkdirAll(h.tmpDir, 0o755); err != nil {
		log.Error().Err(err).Str("module", "handlers.upload").Msg("create temp dir")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file"})
		return
	}

	tmpPath := filepath.Join(h.tmpDir, uuid.NewString()+filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, tmpPath); err != nil {
		log.Error().Err(err).Str("module", "handlers.upload").Msg("save temp file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file"})
		return
	}

	result := h.uploader.Store(c.Request.Context(), tmpPath, file.Filename, file.Header.Get("Content-Type"))
	if result == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "File uploaded successfully",
		"files": dto.UploadResult{
			URL:  result.URL,
			Type: result.Type,
			Name: result.Name,
			Size: result.Size,
		},
	})
}

// Download отдаёт сохранённый блоб по ссылке из Upload
func (h *UploadHandler) Download(c *gin.Context) {
	data, info, err := h.uploader.Open(c.Request.Context(), c.Param("id"), c.Param("name"))
	if err != nil {
		if errors.Is(err, media.ErrObjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		log.Error().Err(err).Str("module", "handlers.upload").Msg("download")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
		return
	}

	c.Data(http.StatusOK, info.ContentType, data)
}

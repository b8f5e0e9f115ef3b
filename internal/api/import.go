package api

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/larder/backend/internal/middleware"
	"github.com/pageza/larder/backend/internal/service"
	"github.com/pageza/larder/backend/internal/types"
)

// MaxImageSize caps uploaded recipe photos.
const MaxImageSize = 10 << 20

var imageTypes = map[string]string{
	"image/jpeg": "image/jpeg",
	"image/jpg":  "image/jpeg",
	"image/png":  "image/png",
	"image/webp": "image/webp",
	"image/heic": "image/heic",
	"image/heif": "image/heic",
}

var imageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heic",
}

// ImportHandler turns photos, pages and pasted text into recipe drafts.
type ImportHandler struct {
	extraction service.IExtractionService
	limiter    *middleware.RateLimiter
}

// NewImportHandler creates the handler. limiter may be nil.
func NewImportHandler(extraction service.IExtractionService, limiter *middleware.RateLimiter) *ImportHandler {
	return &ImportHandler{extraction: extraction, limiter: limiter}
}

// RegisterRoutes expects router to be behind AuthMiddleware.
func (h *ImportHandler) RegisterRoutes(router *gin.RouterGroup) {
	imports := router.Group("/import")
	extract := []gin.HandlerFunc{}
	if h.limiter != nil {
		extract = append(extract, h.limiter.RateLimitMiddleware())
	}
	imports.POST("/image", append(extract, h.ImportImage)...)
	imports.POST("/url", append(extract, h.ImportURL)...)
	imports.POST("/text", append(extract, h.ImportText)...)
	imports.GET("/drafts/:id", h.GetDraft)
	imports.DELETE("/drafts/:id", h.DiscardDraft)
}

func (h *ImportHandler) ImportImage(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	if file.Size > MaxImageSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image must be 10MB or smaller"})
		return
	}
	mimeType, ok := imageType(file.Header.Get("Content-Type"), file.Filename)
	if !ok {
		badRequest(c, "unsupported image type; use JPEG, PNG, WebP or HEIC")
		return
	}

	f, err := file.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, MaxImageSize+1))
	if err != nil {
		respondError(c, err)
		return
	}
	if len(data) > MaxImageSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image must be 10MB or smaller"})
		return
	}

	result, err := h.extraction.FromImage(c.Request.Context(), userID, data, mimeType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ImportHandler) ImportURL(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	var req types.ImportURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "a valid url is required")
		return
	}
	result, err := h.extraction.FromURL(c.Request.Context(), userID, req.URL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ImportHandler) ImportText(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	var req types.ImportTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "text is required")
		return
	}
	result, err := h.extraction.FromText(c.Request.Context(), userID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ImportHandler) GetDraft(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	draft, err := h.extraction.Draft(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (h *ImportHandler) DiscardDraft(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	if err := h.extraction.DiscardDraft(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// imageType accepts the declared content type, falling back to the file
// extension when the client sent a generic one.
func imageType(contentType, filename string) (string, bool) {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if t, ok := imageTypes[ct]; ok {
		return t, true
	}
	t, ok := imageExtensions[strings.ToLower(filepath.Ext(filename))]
	return t, ok
}

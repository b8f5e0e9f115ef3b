package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/larder/backend/internal/backup"
)

const (
	// MaxBackupSize caps uploaded backup files.
	MaxBackupSize = 50 << 20

	downloadURLTTL = 15 * time.Minute
)

// Downloader presigns snapshot downloads. storage.S3Archive implements it.
type Downloader interface {
	DownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// BackupHandler exports and imports the catalog. Snapshots are served only
// when an archive is configured.
type BackupHandler struct {
	exporter   *backup.Exporter
	importer   *backup.Importer
	snapshots  *backup.SnapshotService
	downloader Downloader
	now        func() time.Time
}

func NewBackupHandler(exporter *backup.Exporter, importer *backup.Importer, snapshots *backup.SnapshotService, downloader Downloader) *BackupHandler {
	return &BackupHandler{
		exporter:   exporter,
		importer:   importer,
		snapshots:  snapshots,
		downloader: downloader,
		now:        time.Now,
	}
}

// RegisterRoutes expects router to be admin-only.
func (h *BackupHandler) RegisterRoutes(router *gin.RouterGroup) {
	b := router.Group("/backup")
	{
		b.GET("/export", h.Export)
		b.POST("/preview", h.Preview)
		b.POST("/import", h.Import)
		b.GET("/snapshots", h.ListSnapshots)
		b.POST("/snapshots", h.CreateSnapshot)
		b.POST("/snapshots/restore", h.RestoreSnapshot)
		b.GET("/snapshots/download", h.SnapshotDownloadURL)
	}
}

// Export downloads the selected recipes, or the whole catalog, as a backup
// file.
func (h *BackupHandler) Export(c *gin.Context) {
	ids, err := recipeIDs(c.QueryArray("recipe_ids"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	doc, err := h.exporter.Export(c.Request.Context(), ids)
	if err != nil {
		respondError(c, err)
		return
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", backup.Filename(h.now())))
	c.Data(http.StatusOK, "application/json", data)
}

func (h *BackupHandler) Preview(c *gin.Context) {
	data, ok := readBackupUpload(c)
	if !ok {
		return
	}
	preview, err := h.importer.Preview(c.Request.Context(), data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// Import applies an uploaded backup file. The conflict strategy and title
// selection come from form fields, or the query string.
func (h *BackupHandler) Import(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	data, ok := readBackupUpload(c)
	if !ok {
		return
	}
	strategy, err := backup.ParseStrategy(formOrQuery(c, "conflict_strategy"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	titles := c.PostFormArray("selected_titles")
	if len(titles) == 0 {
		titles = c.QueryArray("selected_titles")
	}

	summary, err := h.importer.Import(c.Request.Context(), data, actor.UserID, backup.Options{
		Strategy:       strategy,
		SelectedTitles: titles,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *BackupHandler) ListSnapshots(c *gin.Context) {
	if !h.archiveConfigured(c) {
		return
	}
	snapshots, err := h.snapshots.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshots)
}

func (h *BackupHandler) CreateSnapshot(c *gin.Context) {
	if !h.archiveConfigured(c) {
		return
	}
	snapshot, err := h.snapshots.Create(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snapshot)
}

type restoreRequest struct {
	Key              string   `json:"key" binding:"required"`
	ConflictStrategy string   `json:"conflict_strategy"`
	SelectedTitles   []string `json:"selected_titles"`
}

func (h *BackupHandler) RestoreSnapshot(c *gin.Context) {
	if !h.archiveConfigured(c) {
		return
	}
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req restoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if !strings.HasPrefix(req.Key, backup.SnapshotPrefix) {
		badRequest(c, "unknown snapshot key")
		return
	}
	strategy, err := backup.ParseStrategy(req.ConflictStrategy)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	summary, err := h.snapshots.Restore(c.Request.Context(), req.Key, actor.UserID, backup.Options{
		Strategy:       strategy,
		SelectedTitles: req.SelectedTitles,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// SnapshotDownloadURL returns a short-lived link to a stored snapshot.
func (h *BackupHandler) SnapshotDownloadURL(c *gin.Context) {
	if !h.archiveConfigured(c) {
		return
	}
	if h.downloader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot downloads are not available"})
		return
	}
	key := c.Query("key")
	if !strings.HasPrefix(key, backup.SnapshotPrefix) {
		badRequest(c, "unknown snapshot key")
		return
	}
	url, err := h.downloader.DownloadURL(c.Request.Context(), key, downloadURLTTL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "expires_in": int(downloadURLTTL.Seconds())})
}

func (h *BackupHandler) archiveConfigured(c *gin.Context) bool {
	if h.snapshots == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot storage is not configured"})
		return false
	}
	return true
}

// readBackupUpload reads the multipart "file" field, which must be a .json
// file.
func readBackupUpload(c *gin.Context) ([]byte, bool) {
	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return nil, false
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".json") {
		badRequest(c, "backup file must be a .json file")
		return nil, false
	}
	if file.Size > MaxBackupSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "backup file is too large"})
		return nil, false
	}
	f, err := file.Open()
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, MaxBackupSize))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return data, true
}

// recipeIDs accepts repeated and comma separated ids.
func recipeIDs(values []string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return nil, fmt.Errorf("invalid recipe id %q", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func formOrQuery(c *gin.Context, key string) string {
	if v := c.PostForm(key); v != "" {
		return v
	}
	return c.Query(key)
}

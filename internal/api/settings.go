package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pageza/larder/backend/internal/service"
	"github.com/pageza/larder/backend/internal/types"
)

const (
	defaultUsagePageSize = 50
	maxUsagePageSize     = 500
	dateLayout           = "2006-01-02"
)

// SettingsHandler serves admin settings and AI usage reporting.
type SettingsHandler struct {
	settings *service.SettingsService
	usage    *service.AIUsageService
}

func NewSettingsHandler(settings *service.SettingsService, usage *service.AIUsageService) *SettingsHandler {
	return &SettingsHandler{settings: settings, usage: usage}
}

// RegisterRoutes expects router to be admin-only.
func (h *SettingsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/settings", h.GetSettings)
	router.PUT("/settings", h.UpdateSettings)

	usage := router.Group("/ai-usage")
	{
		usage.GET("/logs", h.ListUsage)
		usage.GET("/summary", h.UsageSummary)
		usage.DELETE("/logs", h.CleanupUsage)
	}
}

func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settings.AISettings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req types.AISettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	settings, err := h.settings.UpdateAISettings(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// ListUsage pages through usage entries, newest first.
func (h *SettingsHandler) ListUsage(c *gin.Context) {
	filter, ok := usageFilter(c)
	if !ok {
		return
	}
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return
	}
	if page < 1 {
		page = 1
	}
	pageSize, ok := queryInt(c, "page_size", defaultUsagePageSize)
	if !ok {
		return
	}
	if pageSize < 1 || pageSize > maxUsagePageSize {
		pageSize = defaultUsagePageSize
	}
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize

	logs, err := h.usage.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	total, err := h.usage.Count(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, UsageLogResponse{Logs: logs, Total: total, Page: page, PageSize: pageSize})
}

func (h *SettingsHandler) UsageSummary(c *gin.Context) {
	filter, ok := usageFilter(c)
	if !ok {
		return
	}
	summary, err := h.usage.Summary(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// CleanupUsage deletes entries older than retention_days (default 90).
func (h *SettingsHandler) CleanupUsage(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("retention_days", "90"))
	if err != nil {
		badRequest(c, "invalid retention_days")
		return
	}
	deleted, err := h.usage.Cleanup(c.Request.Context(), days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted, "retention_days": days})
}

func usageFilter(c *gin.Context) (service.UsageFilter, bool) {
	filter := service.UsageFilter{Provider: c.Query("provider")}
	var ok bool
	if filter.UserID, ok = optionalUUID(c, "user_id"); !ok {
		return filter, false
	}
	if filter.Since, ok = queryDate(c, "start_date", false); !ok {
		return filter, false
	}
	if filter.Until, ok = queryDate(c, "end_date", true); !ok {
		return filter, false
	}
	return filter, true
}

// queryDate parses a YYYY-MM-DD parameter. An end date covers the whole day.
func queryDate(c *gin.Context, key string, endOfDay bool) (*time.Time, bool) {
	v := c.Query(key)
	if v == "" {
		return nil, true
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		badRequest(c, "invalid "+key+"; use YYYY-MM-DD")
		return nil, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, true
}

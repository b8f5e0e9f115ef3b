package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/larder/backend/internal/service"
	"github.com/pageza/larder/backend/internal/types"
)

// CategoryHandler serves categories and tags. Reads need a login, writes an
// admin.
type CategoryHandler struct {
	categories *service.CategoryService
	tags       *service.TagService
}

func NewCategoryHandler(categories *service.CategoryService, tags *service.TagService) *CategoryHandler {
	return &CategoryHandler{categories: categories, tags: tags}
}

func (h *CategoryHandler) RegisterRoutes(authed, admin *gin.RouterGroup) {
	authed.GET("/categories", h.ListCategories)
	authed.GET("/categories/:id", h.GetCategory)
	admin.POST("/categories", h.CreateCategory)
	admin.PUT("/categories/:id", h.UpdateCategory)
	admin.DELETE("/categories/:id", h.DeleteCategory)

	authed.GET("/tags", h.ListTags)
	authed.GET("/tags/:id", h.GetTag)
	admin.POST("/tags", h.CreateTag)
	admin.DELETE("/tags/:id", h.DeleteTag)
}

func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	category, err := h.categories.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req types.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	category, err := h.categories.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	var req types.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	category, err := h.categories.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	if err := h.categories.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CategoryHandler) ListTags(c *gin.Context) {
	tags, err := h.tags.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

func (h *CategoryHandler) GetTag(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	tag, err := h.tags.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (h *CategoryHandler) CreateTag(c *gin.Context) {
	var req types.TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	tag, err := h.tags.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func (h *CategoryHandler) DeleteTag(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	if err := h.tags.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package api

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/larder/backend/internal/models"
	"github.com/pageza/larder/backend/internal/types"
)

func TestCategoriesAdminOnlyWrites(t *testing.T) {
	env := newTestEnv(t)

	req := types.CategoryRequest{Name: "Dessert"}
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPost, "/api/v1/categories", env.cookToken, req).Code)

	rec := env.do(http.MethodPost, "/api/v1/categories", env.adminToken, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var category models.Category
	decode(t, rec, &category)

	assert.Equal(t, http.StatusConflict, env.do(http.MethodPost, "/api/v1/categories", env.adminToken, req).Code)

	rec = env.do(http.MethodGet, "/api/v1/categories", env.cookToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []models.Category
	decode(t, rec, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, "Dessert", listed[0].Name)

	rec = env.do(http.MethodPut, "/api/v1/categories/"+category.ID.String(), env.adminToken, types.CategoryRequest{Name: "Sweets"})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &category)
	assert.Equal(t, "Sweets", category.Name)

	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/v1/categories/"+category.ID.String(), env.adminToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/v1/categories/"+category.ID.String(), env.cookToken, nil).Code)
}

func TestTags(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPost, "/api/v1/tags", env.cookToken, types.TagRequest{Name: "quick"}).Code)

	rec := env.do(http.MethodPost, "/api/v1/tags", env.adminToken, types.TagRequest{Name: "quick"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var tag models.Tag
	decode(t, rec, &tag)

	req := pancakes()
	req.TagIDs = []uuid.UUID{tag.ID}
	rec = env.do(http.MethodPost, "/api/v1/recipes", env.cookToken, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var page RecipeListResponse
	decode(t, env.do(http.MethodGet, "/api/v1/recipes?tag_id="+tag.ID.String(), env.cookToken, nil), &page)
	assert.Equal(t, int64(1), page.Total)

	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/v1/tags/"+tag.ID.String(), env.adminToken, nil).Code)
	decode(t, env.do(http.MethodGet, "/api/v1/recipes?tag_id="+tag.ID.String(), env.cookToken, nil), &page)
	assert.Equal(t, int64(0), page.Total)
}

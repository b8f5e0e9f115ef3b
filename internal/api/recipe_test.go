package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/larder/backend/internal/mocks"
	"github.com/pageza/larder/backend/internal/models"
	"github.com/pageza/larder/backend/internal/testhelpers"
	"github.com/pageza/larder/backend/internal/types"
)

func pancakes() types.RecipeRequest {
	return types.RecipeRequest{
		Title:        "Pancakes",
		Ingredients:  []models.Ingredient{{Name: "flour", Quantity: "2", Unit: "cups"}},
		Instructions: []models.Instruction{{StepNumber: 1, Text: "Mix"}, {StepNumber: 2, Text: "Fry"}},
	}
}

func TestRecipeCRUD(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/recipes", env.cookToken, pancakes())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Recipe
	decode(t, rec, &created)
	assert.Equal(t, env.cook.ID, created.UserID)
	assert.Len(t, created.Instructions, 2)

	rec = env.do(http.MethodGet, "/api/v1/recipes/"+created.ID.String(), env.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	update := pancakes()
	update.Title = "Fluffy Pancakes"
	rec = env.do(http.MethodPut, "/api/v1/recipes/"+created.ID.String(), env.cookToken, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.Recipe
	decode(t, rec, &updated)
	assert.Equal(t, "Fluffy Pancakes", updated.Title)
	assert.Equal(t, created.ID, updated.ID)

	rec = env.do(http.MethodDelete, "/api/v1/recipes/"+created.ID.String(), env.cookToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(http.MethodGet, "/api/v1/recipes/"+created.ID.String(), env.cookToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecipeOwnership(t *testing.T) {
	env := newTestEnv(t)
	other := testhelpers.CreateUser(t, env.db, "other", models.RoleStandard)
	recipe := testhelpers.CreateRecipe(t, env.db, other, "Soup")
	path := "/api/v1/recipes/" + recipe.ID.String()

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPut, path, env.cookToken, pancakes()).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodDelete, path, env.cookToken, nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodPut, path, env.adminToken, pancakes()).Code)
	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, path, env.adminToken, nil).Code)
}

func TestRecipeValidation(t *testing.T) {
	env := newTestEnv(t)

	req := pancakes()
	zero := 0
	req.Servings = &zero
	rec := env.do(http.MethodPost, "/api/v1/recipes", env.cookToken, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "servings must be positive")

	rec = env.do(http.MethodPost, "/api/v1/recipes", env.cookToken, map[string]string{"description": "no title"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/v1/recipes/not-a-uuid", env.cookToken, nil).Code)
}

func TestListRecipesFilters(t *testing.T) {
	env := newTestEnv(t)
	breakfast := models.Category{Name: "Breakfast"}
	require.NoError(t, env.db.Create(&breakfast).Error)

	testhelpers.CreateRecipe(t, env.db, env.cook, "Pancakes", func(r *models.Recipe) { r.CategoryID = &breakfast.ID })
	testhelpers.CreateRecipe(t, env.db, env.cook, "Waffles", func(r *models.Recipe) { r.CategoryID = &breakfast.ID })
	testhelpers.CreateRecipe(t, env.db, env.admin, "Stew")

	var page RecipeListResponse
	rec := env.do(http.MethodGet, "/api/v1/recipes?category_id="+breakfast.ID.String()+"&limit=1", env.cookToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &page)
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Recipes, 1)
	assert.Equal(t, 1, page.Limit)

	rec = env.do(http.MethodGet, "/api/v1/recipes?search=waf", env.cookToken, nil)
	decode(t, rec, &page)
	require.Len(t, page.Recipes, 1)
	assert.Equal(t, "Waffles", page.Recipes[0].Title)

	rec = env.do(http.MethodGet, "/api/v1/recipes?user_id="+env.admin.ID.String(), env.cookToken, nil)
	decode(t, rec, &page)
	assert.Equal(t, int64(1), page.Total)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/v1/recipes?skip=-1", env.cookToken, nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/v1/recipes?tag_id=nope", env.cookToken, nil).Code)
}

func TestRecipeHandlerHidesInternalErrors(t *testing.T) {
	recipes := &mocks.MockRecipeService{}
	recipes.On("ListRecipes", mock.Anything, mock.Anything).Return(nil, int64(0), errors.New("connection reset"))

	r := gin.New()
	NewRecipeHandler(recipes).RegisterRoutes(r.Group(""))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/recipes", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
	recipes.AssertExpectations(t)
}

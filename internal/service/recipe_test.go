package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pageza/larder/backend/internal/models"
	"github.com/pageza/larder/backend/internal/service"
	"github.com/pageza/larder/backend/internal/testhelpers"
	"github.com/pageza/larder/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func recipeRequest(title string) *types.RecipeRequest {
	return &types.RecipeRequest{
		Title:        title,
		Ingredients:  []models.Ingredient{{Name: "flour", Quantity: "2", Unit: "cups"}},
		Instructions: []models.Instruction{{StepNumber: 1, Text: "Mix"}},
	}
}

func TestRecipeLifecycle(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	recipes := service.NewRecipeService(db)
	categories := service.NewCategoryService(db)
	tags := service.NewTagService(db)
	ctx := context.Background()

	owner := testhelpers.CreateUser(t, db, "owner", models.RoleStandard)
	actor := service.Actor{UserID: owner.ID, Role: owner.Role}

	dessert, err := categories.Create(ctx, &types.CategoryRequest{Name: "Dessert"})
	require.NoError(t, err)
	sweet, err := tags.Create(ctx, &types.TagRequest{Name: "sweet"})
	require.NoError(t, err)
	quick, err := tags.Create(ctx, &types.TagRequest{Name: "quick"})
	require.NoError(t, err)

	req := recipeRequest("Brownies")
	req.CategoryID = &dessert.ID
	req.TagIDs = []uuid.UUID{sweet.ID, quick.ID}
	req.Complexity = strPtr("Easy")

	created, err := recipes.CreateRecipe(ctx, actor, req)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, created.UserID)
	require.NotNil(t, created.Category)
	assert.Equal(t, "Dessert", created.Category.Name)
	require.Len(t, created.Tags, 2)
	assert.Equal(t, "quick", created.Tags[0].Name)
	require.NotNil(t, created.Complexity)
	assert.Equal(t, models.ComplexityEasy, *created.Complexity)

	update := recipeRequest("Fudge Brownies")
	update.TagIDs = []uuid.UUID{sweet.ID}
	updated, err := recipes.UpdateRecipe(ctx, actor, created.ID, update)
	require.NoError(t, err)
	assert.Equal(t, "Fudge Brownies", updated.Title)
	assert.Nil(t, updated.CategoryID)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, created.CreatedAt.Unix(), updated.CreatedAt.Unix())

	require.NoError(t, recipes.DeleteRecipe(ctx, actor, created.ID))
	_, err = recipes.GetRecipe(ctx, created.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	var links int64
	require.NoError(t, db.Table("recipe_tags").Count(&links).Error)
	assert.Zero(t, links)
}

func TestRecipeOwnership(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	recipes := service.NewRecipeService(db)
	ctx := context.Background()

	owner := testhelpers.CreateUser(t, db, "owner", models.RoleStandard)
	stranger := testhelpers.CreateUser(t, db, "stranger", models.RoleStandard)
	admin := testhelpers.CreateUser(t, db, "admin", models.RoleAdmin)
	recipe := testhelpers.CreateRecipe(t, db, owner, "Soup")

	strangerActor := service.Actor{UserID: stranger.ID, Role: stranger.Role}
	_, err := recipes.UpdateRecipe(ctx, strangerActor, recipe.ID, recipeRequest("Stolen Soup"))
	assert.ErrorIs(t, err, service.ErrForbidden)
	assert.ErrorIs(t, recipes.DeleteRecipe(ctx, strangerActor, recipe.ID), service.ErrForbidden)

	adminActor := service.Actor{UserID: admin.ID, Role: admin.Role}
	updated, err := recipes.UpdateRecipe(ctx, adminActor, recipe.ID, recipeRequest("Better Soup"))
	require.NoError(t, err)
	assert.Equal(t, owner.ID, updated.UserID)
}

func TestRecipeValidation(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	recipes := service.NewRecipeService(db)
	ctx := context.Background()
	owner := testhelpers.CreateUser(t, db, "owner", models.RoleStandard)
	actor := service.Actor{UserID: owner.ID, Role: owner.Role}

	req := recipeRequest("Stew")
	req.Complexity = strPtr("impossible")
	_, err := recipes.CreateRecipe(ctx, actor, req)
	var validation *models.ValidationError
	assert.ErrorAs(t, err, &validation)

	req = recipeRequest("Stew")
	req.TagIDs = []uuid.UUID{uuid.New()}
	_, err = recipes.CreateRecipe(ctx, actor, req)
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	missing := uuid.New()
	req = recipeRequest("Stew")
	req.CategoryID = &missing
	_, err = recipes.CreateRecipe(ctx, actor, req)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestListRecipesFilters(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	recipes := service.NewRecipeService(db)
	ctx := context.Background()

	alice := testhelpers.CreateUser(t, db, "alice", models.RoleStandard)
	bob := testhelpers.CreateUser(t, db, "bob", models.RoleStandard)
	category := &models.Category{Name: "Soups"}
	require.NoError(t, db.Create(category).Error)
	tag := &models.Tag{Name: "winter"}
	require.NoError(t, db.Create(tag).Error)

	testhelpers.CreateRecipe(t, db, alice, "Tomato Soup", func(r *models.Recipe) {
		r.CategoryID = &category.ID
		r.Tags = []models.Tag{*tag}
	})
	testhelpers.CreateRecipe(t, db, alice, "Pancakes")
	testhelpers.CreateRecipe(t, db, bob, "Onion Soup")

	all, total, err := recipes.ListRecipes(ctx, types.RecipeFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)

	_, total, err = recipes.ListRecipes(ctx, types.RecipeFilter{Search: "soup"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	byCategory, total, err := recipes.ListRecipes(ctx, types.RecipeFilter{CategoryID: &category.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Tomato Soup", byCategory[0].Title)

	byTag, _, err := recipes.ListRecipes(ctx, types.RecipeFilter{TagID: &tag.ID})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, "Tomato Soup", byTag[0].Title)

	byUser, _, err := recipes.ListRecipes(ctx, types.RecipeFilter{UserID: &bob.ID})
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, "Onion Soup", byUser[0].Title)

	page, total, err := recipes.ListRecipes(ctx, types.RecipeFilter{Limit: 1, Skip: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 1)
}

package service_test

import (
	"context"
	"testing"

	"github.com/pageza/larder/backend/internal/models"
	"github.com/pageza/larder/backend/internal/service"
	"github.com/pageza/larder/backend/internal/testhelpers"
	"github.com/pageza/larder/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryCRUD(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	categories := service.NewCategoryService(db)
	ctx := context.Background()

	mains, err := categories.Create(ctx, &types.CategoryRequest{Name: "  Mains "})
	require.NoError(t, err)
	assert.Equal(t, "Mains", mains.Name)

	_, err = categories.Create(ctx, &types.CategoryRequest{Name: "Mains"})
	assert.ErrorIs(t, err, service.ErrConflict)

	_, err = categories.Create(ctx, &types.CategoryRequest{Name: "  "})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	desc := "Big plates"
	renamed, err := categories.Update(ctx, mains.ID, &types.CategoryRequest{Name: "Main Courses", Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Main Courses", renamed.Name)

	list, err := categories.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Big plates", *list[0].Description)
}

func TestDeleteCategoryKeepsRecipes(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	categories := service.NewCategoryService(db)
	recipes := service.NewRecipeService(db)
	ctx := context.Background()

	owner := testhelpers.CreateUser(t, db, "owner", models.RoleStandard)
	category, err := categories.Create(ctx, &types.CategoryRequest{Name: "Breakfast"})
	require.NoError(t, err)
	recipe := testhelpers.CreateRecipe(t, db, owner, "Porridge", func(r *models.Recipe) {
		r.CategoryID = &category.ID
	})

	require.NoError(t, categories.Delete(ctx, category.ID))

	got, err := recipes.GetRecipe(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
	assert.Nil(t, got.Category)

	assert.ErrorIs(t, categories.Delete(ctx, category.ID), service.ErrNotFound)
}

func TestDeleteTagUnlinksRecipes(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	tags := service.NewTagService(db)
	recipes := service.NewRecipeService(db)
	ctx := context.Background()

	owner := testhelpers.CreateUser(t, db, "owner", models.RoleStandard)
	tag, err := tags.Create(ctx, &types.TagRequest{Name: "vegan"})
	require.NoError(t, err)
	recipe := testhelpers.CreateRecipe(t, db, owner, "Salad", func(r *models.Recipe) {
		r.Tags = []models.Tag{*tag}
	})

	_, err = tags.Create(ctx, &types.TagRequest{Name: "vegan"})
	assert.ErrorIs(t, err, service.ErrConflict)

	require.NoError(t, tags.Delete(ctx, tag.ID))

	got, err := recipes.GetRecipe(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)
}

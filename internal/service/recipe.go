package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pageza/larder/backend/internal/models"
	"github.com/pageza/larder/backend/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Actor is the authenticated user on whose behalf a service call runs.
type Actor struct {
	UserID uuid.UUID
	Role   models.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

func (a Actor) canModify(r *models.Recipe) bool {
	return a.IsAdmin() || r.UserID == a.UserID
}

// RecipeService handles recipe operations
type RecipeService struct {
	db *gorm.DB
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{db: db}
}

// CreateRecipe stores a new recipe owned by the actor.
func (s *RecipeService) CreateRecipe(ctx context.Context, actor Actor, req *types.RecipeRequest) (*models.Recipe, error) {
	recipe, err := recipeFromRequest(req)
	if err != nil {
		return nil, err
	}
	recipe.UserID = actor.UserID

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := attachReferences(tx, recipe, req); err != nil {
			return err
		}
		return tx.Omit("Category", "User", "Tags.*").Create(recipe).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetRecipe(ctx, recipe.ID)
}

// GetRecipe retrieves a recipe by ID with its category and tags
func (s *RecipeService) GetRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		First(&recipe, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &recipe, nil
}

// UpdateRecipe overwrites every editable field of a recipe. Only the owner or
// an admin may update it.
func (s *RecipeService) UpdateRecipe(ctx context.Context, actor Actor, id uuid.UUID, req *types.RecipeRequest) (*models.Recipe, error) {
	fields, err := recipeFromRequest(req)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Recipe
		if err := tx.First(&existing, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		if !actor.canModify(&existing) {
			return ErrForbidden
		}
		if err := attachReferences(tx, fields, req); err != nil {
			return err
		}

		fields.ID = existing.ID
		fields.UserID = existing.UserID
		fields.CreatedAt = existing.CreatedAt
		tags := fields.Tags
		if err := tx.Omit(clause.Associations).Save(fields).Error; err != nil {
			return err
		}
		return replaceTags(tx, fields, tags)
	})
	if err != nil {
		return nil, err
	}
	return s.GetRecipe(ctx, id)
}

// DeleteRecipe removes a recipe and its tag links.
func (s *RecipeService) DeleteRecipe(ctx context.Context, actor Actor, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.First(&recipe, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		if !actor.canModify(&recipe) {
			return ErrForbidden
		}
		if err := tx.Model(&recipe).Association("Tags").Clear(); err != nil {
			return fmt.Errorf("failed to unlink tags: %w", err)
		}
		return tx.Delete(&recipe).Error
	})
}

// ListRecipes returns one page of recipes matching filter and the total count.
func (s *RecipeService) ListRecipes(ctx context.Context, filter types.RecipeFilter) ([]models.Recipe, int64, error) {
	var total int64
	if err := s.filtered(ctx, filter).Model(&models.Recipe{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	skip := filter.Skip
	if skip < 0 {
		skip = 0
	}

	var recipes []models.Recipe
	err := s.filtered(ctx, filter).
		Preload("Category").
		Preload("Tags").
		Order("created_at DESC").
		Offset(skip).
		Limit(limit).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, total, nil
}

func (s *RecipeService) filtered(ctx context.Context, filter types.RecipeFilter) *gorm.DB {
	query := s.db.WithContext(ctx)
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.TagID != nil {
		query = query.Where("id IN (?)", s.db.Table("recipe_tags").Select("recipe_id").Where("tag_id = ?", *filter.TagID))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	return query
}

func recipeFromRequest(req *types.RecipeRequest) (*models.Recipe, error) {
	recipe := &models.Recipe{
		Title:            req.Title,
		Description:      req.Description,
		Ingredients:      models.IngredientList(req.Ingredients),
		Instructions:     models.InstructionList(req.Instructions),
		PrepTimeMinutes:  req.PrepTimeMinutes,
		CookTimeMinutes:  req.CookTimeMinutes,
		Servings:         req.Servings,
		Notes:            req.Notes,
		SpecialEquipment: models.StringList(req.SpecialEquipment),
		SourceAuthor:     req.SourceAuthor,
		SourceURL:        req.SourceURL,
		CategoryID:       req.CategoryID,
	}
	if req.Complexity != nil && *req.Complexity != "" {
		c, ok := models.ParseComplexity(*req.Complexity)
		if !ok {
			return nil, &models.ValidationError{Problems: []string{fmt.Sprintf("unknown complexity %q", *req.Complexity)}}
		}
		recipe.Complexity = &c
	}
	if err := recipe.Validate(); err != nil {
		return nil, err
	}
	return recipe, nil
}

// attachReferences checks the requested category and loads the requested tags.
func attachReferences(tx *gorm.DB, recipe *models.Recipe, req *types.RecipeRequest) error {
	if req.CategoryID != nil {
		var count int64
		if err := tx.Model(&models.Category{}).Where("id = ?", *req.CategoryID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: category %s does not exist", ErrInvalidInput, *req.CategoryID)
		}
	}

	recipe.Tags = []models.Tag{}
	if len(req.TagIDs) == 0 {
		return nil
	}
	if err := tx.Where("id IN ?", req.TagIDs).Find(&recipe.Tags).Error; err != nil {
		return err
	}
	if len(recipe.Tags) != len(uniqueIDs(req.TagIDs)) {
		return fmt.Errorf("%w: one or more tags do not exist", ErrInvalidInput)
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

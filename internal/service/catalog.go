package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pageza/larder/backend/internal/backup"
	"github.com/pageza/larder/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogStore implements backup.Catalog on gorm.
type CatalogStore struct {
	db *gorm.DB
}

// NewCatalogStore creates a new CatalogStore instance
func NewCatalogStore(db *gorm.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

var _ backup.Catalog = (*CatalogStore)(nil)

func (s *CatalogStore) FindRecipeByTitle(ctx context.Context, title string) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).Where("title = ?", title).Order("created_at").First(&recipe).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find recipe by title: %w", err)
	}
	return &recipe, nil
}

func (s *CatalogStore) FindCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return &category, nil
}

func (s *CatalogStore) FindOrCreateCategory(ctx context.Context, name string) (*models.Category, bool, error) {
	existing, err := s.FindCategoryByName(ctx, name)
	if err != nil || existing != nil {
		return existing, false, err
	}
	category := &models.Category{Name: name}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, false, translateError("create category", err)
	}
	return category, true, nil
}

func (s *CatalogStore) FindOrCreateTag(ctx context.Context, name string) (*models.Tag, bool, error) {
	var tag models.Tag
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&tag).Error
	if err == nil {
		return &tag, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to find tag: %w", err)
	}
	tag = models.Tag{Name: name}
	if err := s.db.WithContext(ctx).Create(&tag).Error; err != nil {
		return nil, false, translateError("create tag", err)
	}
	return &tag, true, nil
}

// CreateRecipe inserts recipe and links its tags, which must already exist.
func (s *CatalogStore) CreateRecipe(ctx context.Context, recipe *models.Recipe) error {
	err := s.db.WithContext(ctx).Omit("Category", "User", "Tags.*").Create(recipe).Error
	return translateError("create recipe", err)
}

func (s *CatalogStore) ReplaceRecipe(ctx context.Context, id uuid.UUID, fields *models.Recipe) (*models.Recipe, error) {
	var existing models.Recipe
	if err := s.db.WithContext(ctx).First(&existing, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}

	fields.ID = existing.ID
	fields.UserID = existing.UserID
	fields.CreatedAt = existing.CreatedAt
	tags := fields.Tags

	db := s.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Save(fields).Error; err != nil {
		return nil, translateError("replace recipe", err)
	}
	if err := replaceTags(db, fields, tags); err != nil {
		return nil, translateError("replace recipe tags", err)
	}
	fields.Tags = tags
	return fields, nil
}

func replaceTags(db *gorm.DB, recipe *models.Recipe, tags []models.Tag) error {
	assoc := db.Model(recipe).Omit("Tags.*").Association("Tags")
	if len(tags) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(tags)
}

func (s *CatalogStore) ListRecipes(ctx context.Context, ids []uuid.UUID) ([]models.Recipe, error) {
	var recipes []models.Recipe
	query := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Tags").
		Preload("User").
		Order("created_at, title")
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	if err := query.Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, nil
}

func (s *CatalogStore) WithinTransaction(ctx context.Context, fn func(backup.Catalog) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&CatalogStore{db: tx})
	})
}

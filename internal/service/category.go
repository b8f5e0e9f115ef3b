package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pageza/larder/backend/internal/backup"
	"github.com/pageza/larder/backend/internal/models"
	"github.com/pageza/larder/backend/internal/types"
	"gorm.io/gorm"
)

// CategoryService manages the shared category list.
type CategoryService struct {
	db *gorm.DB
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) Get(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &category, nil
}

func (s *CategoryService) Create(ctx context.Context, req *types.CategoryRequest) (*models.Category, error) {
	category := &models.Category{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}
	if category.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, conflictOr(translateError("create category", err))
	}
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, req *types.CategoryRequest) (*models.Category, error) {
	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	category.Name = strings.TrimSpace(req.Name)
	category.Description = req.Description
	if category.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := s.db.WithContext(ctx).Save(category).Error; err != nil {
		return nil, conflictOr(translateError("update category", err))
	}
	return category, nil
}

// Delete removes a category. Its recipes remain, with no category.
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.First(&category, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Model(&models.Recipe{}).Where("category_id = ?", id).UpdateColumn("category_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach recipes: %w", err)
		}
		return tx.Delete(&category).Error
	})
}

// TagService manages the shared tag list.
type TagService struct {
	db *gorm.DB
}

func NewTagService(db *gorm.DB) *TagService {
	return &TagService{db: db}
}

func (s *TagService) List(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("name").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

func (s *TagService) Get(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &tag, nil
}

func (s *TagService) Create(ctx context.Context, req *types.TagRequest) (*models.Tag, error) {
	tag := &models.Tag{Name: strings.TrimSpace(req.Name)}
	if tag.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := s.db.WithContext(ctx).Create(tag).Error; err != nil {
		return nil, conflictOr(translateError("create tag", err))
	}
	return tag, nil
}

// Delete removes a tag and unlinks it from every recipe.
func (s *TagService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tag models.Tag
		if err := tx.First(&tag, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Exec("DELETE FROM recipe_tags WHERE tag_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to unlink tag: %w", err)
		}
		return tx.Delete(&tag).Error
	})
}

func conflictOr(err error) error {
	if errors.Is(err, backup.ErrConstraintViolation) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

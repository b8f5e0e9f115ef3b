package backup

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pageza/larder/backend/internal/models"
)

// Catalog is the persistence the importer and exporter work against.
type Catalog interface {
	// FindRecipeByTitle returns nil, nil when no recipe has exactly this title.
	FindRecipeByTitle(ctx context.Context, title string) (*models.Recipe, error)
	FindCategoryByName(ctx context.Context, name string) (*models.Category, error)
	// FindOrCreateCategory reports created=true when the category is new.
	FindOrCreateCategory(ctx context.Context, name string) (*models.Category, bool, error)
	FindOrCreateTag(ctx context.Context, name string) (*models.Tag, bool, error)
	CreateRecipe(ctx context.Context, recipe *models.Recipe) error
	// ReplaceRecipe overwrites every field of recipe id except its identity,
	// owner and creation time, including its tag set.
	ReplaceRecipe(ctx context.Context, id uuid.UUID, fields *models.Recipe) (*models.Recipe, error)
	// ListRecipes returns recipes with associations loaded; no ids means all.
	ListRecipes(ctx context.Context, ids []uuid.UUID) ([]models.Recipe, error)
	// WithinTransaction runs fn against a catalog bound to one transaction,
	// committing when fn returns nil.
	WithinTransaction(ctx context.Context, fn func(Catalog) error) error
}

// ErrConstraintViolation matches any ConstraintError via errors.Is.
var ErrConstraintViolation = errors.New("constraint violation")

// ConstraintError reports a write rejected by a store constraint such as a
// unique name.
type ConstraintError struct {
	Op  string
	Err error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s: constraint violation: %v", e.Op, e.Err)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

func (e *ConstraintError) Is(target error) bool { return target == ErrConstraintViolation }

package backup

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/larder/backend/internal/models"
)

// memCatalog is an in-memory Catalog whose transactions roll back on error
// or panic.
type memCatalog struct {
	recipes    []models.Recipe
	categories []models.Category
	tags       []models.Tag

	// failTitles makes CreateRecipe reject these titles with a constraint error.
	failTitles map[string]bool
	// panicTitles makes CreateRecipe panic for these titles.
	panicTitles map[string]bool
}

func newMemCatalog() *memCatalog {
	return &memCatalog{failTitles: map[string]bool{}, panicTitles: map[string]bool{}}
}

func (m *memCatalog) FindRecipeByTitle(_ context.Context, title string) (*models.Recipe, error) {
	for i := range m.recipes {
		if m.recipes[i].Title == title {
			r := m.recipes[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (m *memCatalog) FindCategoryByName(_ context.Context, name string) (*models.Category, error) {
	for i := range m.categories {
		if m.categories[i].Name == name {
			c := m.categories[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memCatalog) FindOrCreateCategory(ctx context.Context, name string) (*models.Category, bool, error) {
	if c, _ := m.FindCategoryByName(ctx, name); c != nil {
		return c, false, nil
	}
	c := models.Category{ID: uuid.New(), Name: name}
	m.categories = append(m.categories, c)
	return &c, true, nil
}

func (m *memCatalog) FindOrCreateTag(_ context.Context, name string) (*models.Tag, bool, error) {
	for i := range m.tags {
		if m.tags[i].Name == name {
			t := m.tags[i]
			return &t, false, nil
		}
	}
	t := models.Tag{ID: uuid.New(), Name: name}
	m.tags = append(m.tags, t)
	return &t, true, nil
}

func (m *memCatalog) CreateRecipe(_ context.Context, recipe *models.Recipe) error {
	if m.panicTitles[recipe.Title] {
		panic("storage exploded")
	}
	if m.failTitles[recipe.Title] {
		return &ConstraintError{Op: "create recipe", Err: errors.New("UNIQUE constraint failed")}
	}
	if err := recipe.Validate(); err != nil {
		return err
	}
	recipe.ID = uuid.New()
	recipe.CreatedAt = time.Now()
	m.recipes = append(m.recipes, *recipe)
	return nil
}

func (m *memCatalog) ReplaceRecipe(_ context.Context, id uuid.UUID, fields *models.Recipe) (*models.Recipe, error) {
	for i := range m.recipes {
		if m.recipes[i].ID != id {
			continue
		}
		existing := m.recipes[i]
		fields.ID = existing.ID
		fields.UserID = existing.UserID
		fields.CreatedAt = existing.CreatedAt
		m.recipes[i] = *fields
		r := m.recipes[i]
		return &r, nil
	}
	return nil, errors.New("recipe not found")
}

func (m *memCatalog) ListRecipes(_ context.Context, ids []uuid.UUID) ([]models.Recipe, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []models.Recipe
	for _, r := range m.recipes {
		if len(want) > 0 && !want[r.ID] {
			continue
		}
		if r.CategoryID != nil {
			for i := range m.categories {
				if m.categories[i].ID == *r.CategoryID {
					c := m.categories[i]
					r.Category = &c
				}
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memCatalog) WithinTransaction(ctx context.Context, fn func(Catalog) error) (err error) {
	recipes := append([]models.Recipe(nil), m.recipes...)
	categories := append([]models.Category(nil), m.categories...)
	tags := append([]models.Tag(nil), m.tags...)
	rollback := func() {
		m.recipes, m.categories, m.tags = recipes, categories, tags
	}
	defer func() {
		if r := recover(); r != nil {
			rollback()
			panic(r)
		}
	}()
	if err = fn(m); err != nil {
		rollback()
	}
	return err
}

func (m *memCatalog) seed(title string, owner uuid.UUID) models.Recipe {
	r := models.Recipe{
		ID:           uuid.New(),
		Title:        title,
		UserID:       owner,
		CreatedAt:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Ingredients:  models.IngredientList{{Name: "original"}},
		Instructions: models.InstructionList{{StepNumber: 1, Text: "Original step"}},
	}
	m.recipes = append(m.recipes, r)
	return r
}

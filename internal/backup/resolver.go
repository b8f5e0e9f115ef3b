package backup

import (
	"context"
	"fmt"
	"strings"

	"github.com/pageza/larder/backend/internal/models"
)

// Strategy decides what happens when an imported title already exists.
type Strategy string

const (
	StrategySkip    Strategy = "skip"
	StrategyReplace Strategy = "replace"
	StrategyRename  Strategy = "rename"
)

// ParseStrategy reads a strategy name; the empty string means skip.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategySkip:
		return StrategySkip, nil
	case StrategyReplace:
		return StrategyReplace, nil
	case StrategyRename:
		return StrategyRename, nil
	}
	return "", fmt.Errorf("unknown conflict strategy %q (want skip, replace or rename)", s)
}

// Action is what the resolver decided for one record.
type Action string

const (
	ActionCreate  Action = "create"
	ActionSkip    Action = "skip"
	ActionReplace Action = "replace"
)

// Decision is the resolver's verdict for a title. Title is the title the
// record will be stored under; Existing is set for skip and replace.
type Decision struct {
	Action   Action
	Title    string
	Existing *models.Recipe
}

const maxRenameAttempts = 10000

// Resolver applies a conflict strategy. Titles collide on exact,
// case-sensitive match across the whole catalog.
type Resolver struct {
	strategy Strategy
}

func NewResolver(strategy Strategy) *Resolver {
	return &Resolver{strategy: strategy}
}

func (r *Resolver) Strategy() Strategy { return r.strategy }

// Decide looks title up in catalog and picks an action.
func (r *Resolver) Decide(ctx context.Context, catalog Catalog, title string) (Decision, error) {
	existing, err := catalog.FindRecipeByTitle(ctx, title)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to look up title: %w", err)
	}
	if existing == nil {
		return Decision{Action: ActionCreate, Title: title}, nil
	}

	switch r.strategy {
	case StrategyReplace:
		return Decision{Action: ActionReplace, Title: title, Existing: existing}, nil
	case StrategyRename:
		free, err := r.freeTitle(ctx, catalog, title)
		if err != nil {
			return Decision{}, err
		}
		return Decision{Action: ActionCreate, Title: free}, nil
	default:
		return Decision{Action: ActionSkip, Title: title, Existing: existing}, nil
	}
}

// freeTitle tries "Title (2)", "Title (3)", ... until one is unused.
func (r *Resolver) freeTitle(ctx context.Context, catalog Catalog, title string) (string, error) {
	for n := 2; n <= maxRenameAttempts; n++ {
		candidate := fmt.Sprintf("%s (%d)", title, n)
		existing, err := catalog.FindRecipeByTitle(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to look up title: %w", err)
		}
		if existing == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free title found for %q", title)
}

// references resolves a record's category and tags, creating missing ones.
// The names it created are returned so the caller can count them once the
// surrounding transaction commits.
type references struct {
	category          *models.Category
	tags              []models.Tag
	createdCategories []string
	createdTags       []string
}

func (r *Resolver) resolveReferences(ctx context.Context, catalog Catalog, rec *Record) (*references, error) {
	refs := &references{}
	if rec.CategoryName != nil {
		category, created, err := catalog.FindOrCreateCategory(ctx, *rec.CategoryName)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve category %q: %w", *rec.CategoryName, err)
		}
		refs.category = category
		if created {
			refs.createdCategories = append(refs.createdCategories, category.Name)
		}
	}
	for _, name := range rec.TagNames {
		tag, created, err := catalog.FindOrCreateTag(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve tag %q: %w", name, err)
		}
		refs.tags = append(refs.tags, *tag)
		if created {
			refs.createdTags = append(refs.createdTags, tag.Name)
		}
	}
	return refs, nil
}

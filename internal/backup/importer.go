package backup

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/pageza/larder/backend/internal/models"
)

// Options controls one import run.
type Options struct {
	Strategy Strategy
	// SelectedTitles restricts the run to records with these titles. Empty
	// means every record in the file.
	SelectedTitles []string
}

// Outcome status values. Every processed record ends in exactly one.
const (
	StatusCreated  = "created"
	StatusSkipped  = "skipped"
	StatusReplaced = "replaced"
	StatusError    = "error"
)

// Outcome is the result for one processed record.
type Outcome struct {
	Index      int        `json:"index"`
	Title      string     `json:"title"`
	FinalTitle string     `json:"final_title,omitempty"`
	Status     string     `json:"status"`
	RecipeID   *uuid.UUID `json:"recipe_id,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	Warnings   []string   `json:"warnings,omitempty"`
}

// ErrorDetail names a record that failed and why.
type ErrorDetail struct {
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// Summary reports an import run.
type Summary struct {
	TotalInFile       int           `json:"total_in_file"`
	TotalSelected     int           `json:"total_selected"`
	Created           int           `json:"created"`
	Skipped           int           `json:"skipped"`
	Replaced          int           `json:"replaced"`
	Errors            int           `json:"errors"`
	CategoriesCreated int           `json:"categories_created"`
	TagsCreated       int           `json:"tags_created"`
	ErrorDetails      []ErrorDetail `json:"error_details"`
	Outcomes          []Outcome     `json:"outcomes"`
}

func (s *Summary) add(o Outcome) {
	switch o.Status {
	case StatusCreated:
		s.Created++
	case StatusSkipped:
		s.Skipped++
	case StatusReplaced:
		s.Replaced++
	case StatusError:
		s.Errors++
		s.ErrorDetails = append(s.ErrorDetails, ErrorDetail{Title: o.Title, Reason: o.Reason})
	}
	s.Outcomes = append(s.Outcomes, o)
}

// Importer merges backup documents into a catalog.
type Importer struct {
	catalog Catalog
}

func NewImporter(catalog Catalog) *Importer {
	return &Importer{catalog: catalog}
}

// Import reads data and applies every selected record for actor, who becomes
// the owner of created recipes. Records run one at a time, each in its own
// transaction, so one failure never undoes another record's work.
func (imp *Importer) Import(ctx context.Context, data []byte, actor uuid.UUID, opts Options) (*Summary, error) {
	parsed, err := Deserialize(data)
	if err != nil {
		return nil, err
	}
	return imp.Apply(ctx, parsed, actor, opts)
}

// Apply imports an already parsed document.
func (imp *Importer) Apply(ctx context.Context, parsed *Parsed, actor uuid.UUID, opts Options) (*Summary, error) {
	if opts.Strategy == "" {
		opts.Strategy = StrategySkip
	}
	resolver := NewResolver(opts.Strategy)
	selected := titleSet(opts.SelectedTitles)

	summary := &Summary{
		TotalInFile:  parsed.Total(),
		ErrorDetails: []ErrorDetail{},
		Outcomes:     []Outcome{},
	}
	countedCategories := map[string]bool{}
	countedTags := map[string]bool{}

	for _, entry := range parsed.Entries {
		if len(selected) > 0 && !selected[strings.TrimSpace(entry.Title())] {
			continue
		}
		summary.TotalSelected++

		if entry.Err != nil {
			summary.add(Outcome{
				Index:  entry.Index,
				Title:  fmt.Sprintf("record #%d", entry.Index+1),
				Status: StatusError,
				Reason: entry.Err.Reason,
			})
			continue
		}

		outcome, refs, err := imp.applyRecord(ctx, resolver, entry, actor)
		if err != nil {
			log.Printf("[Importer] record %d (%q) failed: %v", entry.Index+1, entry.Title(), err)
			summary.add(Outcome{
				Index:    entry.Index,
				Title:    entry.Title(),
				Status:   StatusError,
				Reason:   err.Error(),
				Warnings: entry.Warnings,
			})
			continue
		}
		if refs != nil {
			for _, name := range refs.createdCategories {
				if !countedCategories[name] {
					countedCategories[name] = true
					summary.CategoriesCreated++
				}
			}
			for _, name := range refs.createdTags {
				if !countedTags[name] {
					countedTags[name] = true
					summary.TagsCreated++
				}
			}
		}
		summary.add(outcome)
	}

	log.Printf("[Importer] %s import: %d in file, %d selected, %d created, %d skipped, %d replaced, %d errors",
		opts.Strategy, summary.TotalInFile, summary.TotalSelected, summary.Created, summary.Skipped, summary.Replaced, summary.Errors)
	return summary, nil
}

// applyRecord resolves and writes one record inside its own transaction.
// A panic anywhere in the record is reported as that record's failure.
func (imp *Importer) applyRecord(ctx context.Context, resolver *Resolver, entry Entry, actor uuid.UUID) (outcome Outcome, refs *references, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()

	rec := entry.Record
	outcome = Outcome{Index: entry.Index, Title: rec.Title, Warnings: entry.Warnings}

	err = imp.catalog.WithinTransaction(ctx, func(tx Catalog) error {
		decision, err := resolver.Decide(ctx, tx, rec.Title)
		if err != nil {
			return err
		}
		if decision.Action == ActionSkip {
			outcome.Status = StatusSkipped
			outcome.RecipeID = &decision.Existing.ID
			return nil
		}

		refs, err = resolver.resolveReferences(ctx, tx, rec)
		if err != nil {
			return err
		}
		recipe := recipeFromRecord(rec, decision.Title, refs)

		if decision.Action == ActionReplace {
			replaced, err := tx.ReplaceRecipe(ctx, decision.Existing.ID, recipe)
			if err != nil {
				return fmt.Errorf("failed to replace recipe: %w", err)
			}
			outcome.Status = StatusReplaced
			outcome.RecipeID = &replaced.ID
			outcome.FinalTitle = replaced.Title
			return nil
		}

		recipe.UserID = actor
		if err := tx.CreateRecipe(ctx, recipe); err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		outcome.Status = StatusCreated
		outcome.RecipeID = &recipe.ID
		outcome.FinalTitle = recipe.Title
		return nil
	})
	if err != nil {
		return Outcome{}, nil, err
	}
	return outcome, refs, nil
}

func recipeFromRecord(rec *Record, title string, refs *references) *models.Recipe {
	recipe := &models.Recipe{
		Title:            title,
		Description:      rec.Description,
		Ingredients:      models.IngredientList(rec.Ingredients),
		Instructions:     models.InstructionList(models.RenumberInstructions(rec.Instructions)),
		PrepTimeMinutes:  rec.PrepTimeMinutes,
		CookTimeMinutes:  rec.CookTimeMinutes,
		Servings:         rec.Servings,
		Notes:            rec.Notes,
		Complexity:       rec.Complexity,
		SpecialEquipment: models.StringList(rec.SpecialEquipment),
		SourceAuthor:     rec.SourceAuthor,
		SourceURL:        rec.SourceURL,
		Tags:             []models.Tag{},
	}
	if refs != nil {
		if refs.category != nil {
			id := refs.category.ID
			recipe.CategoryID = &id
		}
		if refs.tags != nil {
			recipe.Tags = refs.tags
		}
	}
	return recipe
}

func titleSet(titles []string) map[string]bool {
	if len(titles) == 0 {
		return nil
	}
	set := make(map[string]bool, len(titles))
	for _, t := range titles {
		if t = strings.TrimSpace(t); t != "" {
			set[t] = true
		}
	}
	return set
}

// PreviewEntry describes one record of a file before it is imported.
type PreviewEntry struct {
	Index    int      `json:"index"`
	Title    string   `json:"title"`
	Valid    bool     `json:"valid"`
	Reason   string   `json:"reason,omitempty"`
	Exists   bool     `json:"exists"`
	Category *string  `json:"category_name,omitempty"`
	Tags     []string `json:"tag_names"`
	Warnings []string `json:"warnings,omitempty"`
}

// Preview is what a client needs to let the user pick records to import.
type Preview struct {
	Version    string         `json:"version"`
	ExportedAt *string        `json:"exported_at,omitempty"`
	Total      int            `json:"total_in_file"`
	Recipes    []PreviewEntry `json:"recipes"`
}

// Preview parses data and flags titles that already exist, without writing.
func (imp *Importer) Preview(ctx context.Context, data []byte) (*Preview, error) {
	parsed, err := Deserialize(data)
	if err != nil {
		return nil, err
	}
	preview := &Preview{
		Version: parsed.Version,
		Total:   parsed.Total(),
		Recipes: make([]PreviewEntry, 0, parsed.Total()),
	}
	if parsed.ExportedAt != nil {
		s := parsed.ExportedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		preview.ExportedAt = &s
	}
	for _, entry := range parsed.Entries {
		item := PreviewEntry{Index: entry.Index, Tags: []string{}}
		if entry.Err != nil {
			item.Reason = entry.Err.Reason
			preview.Recipes = append(preview.Recipes, item)
			continue
		}
		rec := entry.Record
		existing, err := imp.catalog.FindRecipeByTitle(ctx, rec.Title)
		if err != nil {
			return nil, fmt.Errorf("failed to check title %q: %w", rec.Title, err)
		}
		item.Title = rec.Title
		item.Valid = true
		item.Exists = existing != nil
		item.Category = rec.CategoryName
		item.Tags = append(item.Tags, rec.TagNames...)
		item.Warnings = entry.Warnings
		preview.Recipes = append(preview.Recipes, item)
	}
	return preview, nil
}

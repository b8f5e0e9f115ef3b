package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Exporter produces backup documents from the catalog.
type Exporter struct {
	catalog Catalog
	now     func() time.Time
}

func NewExporter(catalog Catalog) *Exporter {
	return &Exporter{catalog: catalog, now: time.Now}
}

// Export serializes the recipes with the given ids, or the whole catalog
// when ids is empty.
func (e *Exporter) Export(ctx context.Context, ids []uuid.UUID) (*Document, error) {
	recipes, err := e.catalog.ListRecipes(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return Serialize(recipes, e.now()), nil
}

// Filename is the download name for an export taken at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("recipes-backup-%s.json", t.UTC().Format("2006-01-02"))
}

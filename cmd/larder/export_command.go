package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pageza/larder/backend/internal/backup"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var ids []string
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write recipes to a backup file",
		Long:  "Export writes the selected recipes, or the whole catalog, as a backup document. Use --out - for stdout.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recipeIDs := make([]uuid.UUID, 0, len(ids))
			for _, raw := range ids {
				id, err := uuid.Parse(raw)
				if err != nil {
					return fmt.Errorf("invalid recipe id %q", raw)
				}
				recipeIDs = append(recipeIDs, id)
			}

			catalog, err := ctx.catalog()
			if err != nil {
				return err
			}
			doc, err := backup.NewExporter(catalog).Export(cmd.Context(), recipeIDs)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode backup: %w", err)
			}

			if out == "-" {
				_, err := cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if out == "" {
				out = backup.Filename(time.Now())
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d recipes to %s\n", len(doc.Recipes), out)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&ids, "id", nil, "Recipe id to export (repeatable; default all)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default recipes-backup-DATE.json)")
	return cmd
}

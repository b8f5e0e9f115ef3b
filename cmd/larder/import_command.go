package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pageza/larder/backend/internal/backup"
	"github.com/pageza/larder/backend/internal/service"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var strategy string
	var selected []string
	var as string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import recipes from a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedStrategy, err := backup.ParseStrategy(strategy)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			owner, err := resolveOwner(cmd, ctx, as)
			if err != nil {
				return err
			}
			importer, err := ctx.importer()
			if err != nil {
				return err
			}

			summary, err := importer.Import(cmd.Context(), data, owner, backup.Options{
				Strategy:       parsedStrategy,
				SelectedTitles: selected,
			})
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&strategy, "strategy", "s", "skip", "Conflict strategy: skip, replace or rename")
	cmd.Flags().StringArrayVar(&selected, "select", nil, "Only import this title (repeatable; default all)")
	cmd.Flags().StringVar(&as, "as", "", "Username that will own imported recipes (default: first admin)")
	return cmd
}

// resolveOwner finds the user imported recipes are attributed to.
func resolveOwner(cmd *cobra.Command, ctx *commandContext, username string) (uuid.UUID, error) {
	db, err := ctx.database()
	if err != nil {
		return uuid.Nil, err
	}
	users := service.NewUserService(db)
	if username != "" {
		user, err := users.GetByUsername(cmd.Context(), username)
		if errors.Is(err, service.ErrNotFound) {
			return uuid.Nil, fmt.Errorf("no user named %q", username)
		}
		if err != nil {
			return uuid.Nil, err
		}
		return user.ID, nil
	}
	admin, err := users.FirstAdmin(cmd.Context())
	if errors.Is(err, service.ErrNotFound) {
		return uuid.Nil, errors.New("no admin account exists; run larder seed or pass --as")
	}
	if err != nil {
		return uuid.Nil, err
	}
	return admin.ID, nil
}

func printSummary(out io.Writer, summary *backup.Summary) {
	rows := make([][]string, 0, len(summary.Outcomes))
	for _, o := range summary.Outcomes {
		title := o.Title
		if o.FinalTitle != "" && o.FinalTitle != o.Title {
			title = fmt.Sprintf("%s -> %s", o.Title, o.FinalTitle)
		}
		rows = append(rows, []string{strconv.Itoa(o.Index + 1), title, o.Status, o.Reason})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable([]string{"#", "Title", "Status", "Reason"}, rows, []columnAlignment{alignRight}))
	}

	totals := [][]string{
		{"In file", strconv.Itoa(summary.TotalInFile)},
		{"Selected", strconv.Itoa(summary.TotalSelected)},
		{"Created", strconv.Itoa(summary.Created)},
		{"Skipped", strconv.Itoa(summary.Skipped)},
		{"Replaced", strconv.Itoa(summary.Replaced)},
		{"Errors", strconv.Itoa(summary.Errors)},
		{"New categories", strconv.Itoa(summary.CategoriesCreated)},
		{"New tags", strconv.Itoa(summary.TagsCreated)},
	}
	fmt.Fprintln(out, renderTable([]string{"Summary", "Count"}, totals, []columnAlignment{alignLeft, alignRight}))
}

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preview FILE",
		Short: "List the records of a backup file and flag existing titles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			importer, err := ctx.importer()
			if err != nil {
				return err
			}
			preview, err := importer.Preview(cmd.Context(), data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Format %s, %d records\n", preview.Version, preview.Total)
			rows := make([][]string, 0, len(preview.Recipes))
			for _, r := range preview.Recipes {
				state := "new"
				switch {
				case !r.Valid:
					state = "invalid: " + r.Reason
				case r.Exists:
					state = "exists"
				}
				category := ""
				if r.Category != nil {
					category = *r.Category
				}
				rows = append(rows, []string{strconv.Itoa(r.Index + 1), r.Title, category, state})
			}
			fmt.Fprintln(out, renderTable([]string{"#", "Title", "Category", "State"}, rows, []columnAlignment{alignRight}))
			return nil
		},
	}
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pageza/larder/backend/internal/models"
	"github.com/pageza/larder/backend/internal/service"
	"github.com/pageza/larder/backend/internal/types"
)

var (
	defaultCategories = []string{"Breakfast", "Lunch", "Dinner", "Dessert", "Snacks", "Drinks"}
	defaultTags       = []string{"quick", "vegetarian", "vegan", "gluten-free", "make-ahead", "family"}
)

func newSeedCommand(ctx *commandContext) *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the first admin account and the default categories and tags",
		Long:  "Seed is safe to run repeatedly: existing accounts, categories and tags are left alone.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("LARDER_ADMIN_PASSWORD")
			}
			db, err := ctx.database()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if password != "" {
				_, err := service.NewUserService(db).Create(cmd.Context(), &types.CreateUserRequest{
					Username: username,
					Email:    email,
					Password: password,
					Role:     models.RoleAdmin,
				})
				switch {
				case errors.Is(err, service.ErrConflict):
					fmt.Fprintf(out, "Admin %s already exists\n", username)
				case err != nil:
					return fmt.Errorf("failed to create admin: %w", err)
				default:
					fmt.Fprintf(out, "Created admin %s <%s>\n", username, email)
				}
			} else {
				fmt.Fprintln(out, "No admin password given; skipping admin account")
			}

			catalog := service.NewCatalogStore(db)
			var categories, tags int
			for _, name := range defaultCategories {
				_, created, err := catalog.FindOrCreateCategory(cmd.Context(), name)
				if err != nil {
					return err
				}
				if created {
					categories++
				}
			}
			for _, name := range defaultTags {
				_, created, err := catalog.FindOrCreateTag(cmd.Context(), name)
				if err != nil {
					return err
				}
				if created {
					tags++
				}
			}
			fmt.Fprintf(out, "Added %d categories and %d tags\n", categories, tags)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "admin", "Admin username")
	cmd.Flags().StringVar(&email, "email", "admin@localhost.localdomain", "Admin email")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (default $LARDER_ADMIN_PASSWORD)")
	return cmd
}

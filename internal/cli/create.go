package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aqasim81/cql-migrate/internal/migration"
)

var createCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "create <name>",
	Short: "Create a new migration file",
	Long: `Create an empty migration in the migrations directory using the next
free id. Writes a .cql file with up and down markers, or a .yaml file with
--structured.`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	createCmd.Flags().Bool("structured", false, "write a YAML migration instead of a .cql script")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	structured, _ := cmd.Flags().GetBool("structured")

	path, err := migration.Scaffold(AppConfig.MigrationsDir, args[0], migration.ScaffoldOptions{
		Structured: structured,
		Now:        time.Now(),
	})
	if err != nil {
		return fmt.Errorf("creating migration: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)

	return nil
}

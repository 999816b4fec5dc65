package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aqasim81/cql-migrate/internal/analyzer"
	"github.com/aqasim81/cql-migrate/internal/analyzer/rules"
	"github.com/aqasim81/cql-migrate/internal/engine"
	"github.com/aqasim81/cql-migrate/internal/migration"
)

// errDangerousMigrations is returned when up is blocked by high/critical findings.
var errDangerousMigrations = errors.New("up aborted: dangerous migrations detected (use --force to override)")

var upCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "up",
	Short: "Apply pending migrations",
	Long: `Apply every pending migration in ascending id order. The first failure
stops the run; migrations applied before it stay applied. Pending
migrations with HIGH or CRITICAL findings block the run unless --force
is given.`,
	RunE: runUp,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	upCmd.Flags().Bool("dry-run", false, "log the statements that would run without executing them")
	upCmd.Flags().Bool("force", false, "apply even when the analyzer reports dangerous operations")
	rootCmd.AddCommand(upCmd)
}

func runUp(cmd *cobra.Command, _ []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	force, _ := cmd.Flags().GetBool("force")

	var opts []engine.Option
	if !force && !dryRun {
		opts = append(opts, engine.WithPreflight(dangerPreflight(cmd.OutOrStdout())))
	}

	eng, err := openEngine(commandContext(cmd), AppConfig, opts...)
	if err != nil {
		return err
	}
	defer eng.Close()

	n, err := eng.Up(commandContext(cmd), dryRun)
	if err != nil {
		return err
	}

	if dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "Dry run complete: %d migration(s) would be applied.\n", n)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s).\n", n)
	}

	return nil
}

// dangerPreflight analyzes the pending set and refuses to continue when any
// migration carries a HIGH or CRITICAL finding. Findings are printed to out.
func dangerPreflight(out io.Writer) engine.PreflightFunc {
	return func(pending []migration.Migration) error {
		a := analyzer.New(analyzer.WithRegistry(rules.NewDefaultRegistry()))

		results, err := a.AnalyzeAll(pending)
		if err != nil {
			return fmt.Errorf("analyzing migrations: %w", err)
		}

		if len(analyzer.Blocking(results)) == 0 {
			return nil
		}

		printAnalysisResults(out, results)

		return errDangerousMigrations
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var downCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "down",
	Short: "Roll back the most recently applied migration",
	Long: `Run the down script of the most recently applied migration and remove
it from the tracking table. Does nothing when no migration is applied.`,
	RunE: runDown,
}

var resetCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "reset",
	Short: "Roll back every applied migration",
	Long: `Roll back all applied migrations, most recent first. Applied ids whose
file no longer exists are skipped with a warning.`,
	RunE: runReset,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	downCmd.Flags().Bool("dry-run", false, "log the statements that would run without executing them")
	resetCmd.Flags().Bool("dry-run", false, "log the statements that would run without executing them")
	rootCmd.AddCommand(downCmd, resetCmd)
}

func runDown(cmd *cobra.Command, _ []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	eng, err := openEngine(commandContext(cmd), AppConfig)
	if err != nil {
		return err
	}
	defer eng.Close()

	n, err := eng.Down(commandContext(cmd), dryRun)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migration(s).\n", n)

	return nil
}

func runReset(cmd *cobra.Command, _ []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	eng, err := openEngine(commandContext(cmd), AppConfig)
	if err != nil {
		return err
	}
	defer eng.Close()

	n, err := eng.Reset(commandContext(cmd), dryRun)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migration(s).\n", n)

	return nil
}

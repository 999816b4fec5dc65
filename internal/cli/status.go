package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aqasim81/cql-migrate/internal/engine"
)

var statusCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "status",
	Short: "Show migration status",
	Long: `Display every migration with its state: applied, pending, or missing
(applied but its file is gone).`,
	RunE: runStatus,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	statusCmd.Flags().String("format", "text", "output format (text, json)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}

	eng, err := openEngine(commandContext(cmd), AppConfig)
	if err != nil {
		return err
	}
	defer eng.Close()

	statuses, err := eng.Status(commandContext(cmd))
	if err != nil {
		return err
	}

	return printStatus(cmd.OutOrStdout(), statuses, format)
}

func printStatus(out io.Writer, statuses []engine.MigrationStatus, format string) error {
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")

		if statuses == nil {
			statuses = []engine.MigrationStatus{}
		}

		return enc.Encode(statuses)
	}

	if len(statuses) == 0 {
		fmt.Fprintln(out, "No migrations found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0) //nolint:mnd // column padding
	fmt.Fprintln(w, "ID\tFILENAME\tSTATE\tAPPLIED AT")

	var applied, pending int

	for _, s := range statuses {
		at := "-"
		if s.AppliedAt != nil {
			at = s.AppliedAt.UTC().Format(time.RFC3339)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Filename, s.State, at)

		switch s.State {
		case engine.StateApplied:
			applied++
		case engine.StatePending:
			pending++
		}
	}

	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d applied, %d pending.\n", applied, pending)

	return nil
}

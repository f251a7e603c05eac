// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/refresolve/internal/checkpoint"
)

var reportCmd = &cobra.Command{
	Use:   "report [run-id...]",
	Short: "Export checkpoint runs as YAML or JSON",
	Long: `Report exports the given checkpoint runs, or every run when no ID is
given, with the outcome and validation results of each processed
reference. Use --list for a one-line summary per run.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().String("checkpoint-db", checkpoint.DefaultPath, "checkpoint database path")
	reportCmd.Flags().String("format", "yaml", "output format: yaml or json")
	reportCmd.Flags().Bool("list", false, "list runs instead of exporting them")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	dbPath, _ := cmd.Flags().GetString("checkpoint-db")
	format, _ := cmd.Flags().GetString("format")
	list, _ := cmd.Flags().GetBool("list")

	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("checkpoint database %s: %w", dbPath, err)
	}
	store, err := checkpoint.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if list {
		runs, err := store.Runs(ctx)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}
		fmt.Printf("%-36s  %-8s  %-16s  %-9s  %s\n", "Run", "Batch", "Status", "Spent", "Started")
		fmt.Println(strings.Repeat("-", 100))
		for _, r := range runs {
			fmt.Printf("%-36s  %-8s  %-16s  %9.3f  %s\n", r.ID, r.Batch, r.Status, r.Spent, r.StartedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	}

	reports, err := store.Reports(ctx, args...)
	if err != nil {
		return err
	}
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return checkpoint.ExportYAML(os.Stdout, reports)
	case "json":
		return checkpoint.ExportJSON(os.Stdout, reports)
	}
	return fmt.Errorf("unknown format %q (want yaml or json)", format)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/officeconv/internal/history"
	"github.com/pdiddy/officeconv/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded directory runs (list, show, export)",
	Long: `History reads the SQLite database in which every "dir" run is
recorded. Use subcommands to list recent runs, show one run's files, or
export the whole history.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.List(cmd.Context(), limit)
		if err != nil {
			return err
		}
		return formatRuns(cmd.OutOrStdout(), runs, jsonOutput)
	},
}

func formatRuns(w io.Writer, runs []types.RunRecord, jsonOutput bool) error {
	if jsonOutput {
		if runs == nil {
			runs = []types.RunRecord{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-8s  %-20s  %-12s  %7s  %6s  %s\n",
		"ID", "Started", "Mode", "Success", "Failed", "Directory")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, r := range runs {
		fmt.Fprintf(w, "%-8s  %-20s  %-12s  %7d  %6d  %s\n",
			shortID(r.ID), r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Mode, r.SuccessCount, r.FailCount, r.Dir)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run and its files (an ID prefix is accepted)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		run, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		formatRun(cmd.OutOrStdout(), run)
		return nil
	},
}

func formatRun(w io.Writer, run types.RunRecord) {
	fmt.Fprintf(w, "Run:       %s\n", run.ID)
	fmt.Fprintf(w, "Mode:      %s\n", run.Mode)
	fmt.Fprintf(w, "Directory: %s\n", run.Dir)
	if run.OutputDir != "" {
		fmt.Fprintf(w, "Output:    %s\n", run.OutputDir)
	}
	fmt.Fprintf(w, "Recursive: %t\n", run.Recursive)
	fmt.Fprintf(w, "Started:   %s (%s)\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"), run.Duration().Round(time.Millisecond))
	fmt.Fprintf(w, "Result:    %d converted, %d failed\n\n", run.SuccessCount, run.FailCount)

	for _, f := range run.Files {
		switch f.Status {
		case types.FileConverted:
			fmt.Fprintf(w, "ok    %s -> %s\n", f.Input, f.Output)
		default:
			fmt.Fprintf(w, "fail  %s: %s\n", f.Input, f.Error)
		}
	}
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every recorded run to YAML or JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("output")

		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		w := cmd.OutOrStdout()
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("creating export file: %w", err)
			}
			defer f.Close()
			w = f
		}

		if err := store.Export(cmd.Context(), w, history.Format(format)); err != nil {
			return err
		}
		if outPath != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", outPath)
		}
		return nil
	},
}

func openHistory() (*history.Store, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	return history.Open(cfg.History.Path)
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	historyListCmd.Flags().Bool("json", false, "output runs as JSON")

	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	historyExportCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyExportCmd)

	rootCmd.AddCommand(historyCmd)
}

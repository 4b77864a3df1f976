// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/officeconv/internal/convert"
	"github.com/pdiddy/officeconv/internal/history"
	"github.com/pdiddy/officeconv/pkg/types"
)

var dirCmd = &cobra.Command{
	Use:   "dir <directory>",
	Short: "Convert every matching file in a directory",
	Long: `Dir converts every file under <directory> whose extension matches the
source format of --mode and prints a report of converted and failed files.
A file that fails does not stop the others.

In xlsx-to-csv mode a workbook with more than two sheets is written as
<name>_sheet1.csv, <name>_sheet2.csv and so on. It counts as one converted
file and only the first sheet's path is listed in the report.

With --output-dir, outputs are written under that directory at the same
relative path as their input. With --recursive, subdirectories are
included. Each run is recorded in the history database unless history is
disabled.`,
	Args: cobra.ExactArgs(1),
	RunE: runDir,
}

func runDir(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	modeStr, _ := cmd.Flags().GetString("mode")
	mode := types.Mode(modeStr)
	outputDir, _ := cmd.Flags().GetString("output-dir")
	recursive, _ := cmd.Flags().GetBool("recursive")
	noHistory, _ := cmd.Flags().GetBool("no-history")

	opts := convert.Options{
		ReferenceDoc: stringFlagOr(cmd, "reference-doc", cfg.Convert.ReferenceDoc),
		OutputDir:    outputDir,
		Recursive:    recursive,
		Workers:      intFlagOr(cmd, "workers", cfg.Convert.Workers),
	}

	d, err := newDispatcher(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	started := time.Now()
	res, err := d.Walk(ctx, args[0], mode, opts)
	if err != nil {
		return fmt.Errorf("Error converting directory: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), convert.FormatReport(res))

	if cfg.History.Enabled && !noHistory {
		recordRun(ctx, cfg.History.Path, history.NewRun(mode, args[0], opts, started, time.Now(), res))
	}
	return nil
}

// recordRun stores run in the history database. Failures are logged and do
// not affect the command's result.
func recordRun(ctx context.Context, path string, run types.RunRecord) {
	store, err := history.Open(path)
	if err != nil {
		logger.Warn("history unavailable", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	defer store.Close()

	id, err := store.Record(ctx, run)
	if err != nil {
		logger.Warn("recording run", slog.String("error", err.Error()))
		return
	}
	logger.Debug("run recorded", slog.String("id", id))
}

func init() {
	dirCmd.Flags().StringP("mode", "m", "", "conversion mode (see 'officeconv modes')")
	dirCmd.Flags().StringP("output-dir", "o", "", "write outputs under this directory, mirroring the input tree")
	dirCmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories")
	dirCmd.Flags().IntP("workers", "w", 1, "number of files converted concurrently")
	dirCmd.Flags().String("reference-doc", "", "style template for md-to-docx and md-to-pptx")
	dirCmd.Flags().Bool("no-history", false, "do not record this run in the history database")
	_ = dirCmd.MarkFlagRequired("mode")

	rootCmd.AddCommand(dirCmd)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/officeconv/pkg/types"
)

var fileCmd = &cobra.Command{
	Use:   "file <input>",
	Short: "Convert a single file",
	Long: `File converts one document according to --mode and prints the path
that was written. Without --output the result is written next to the input
with the target extension.

A spreadsheet with more than two sheets converted to CSV is split into one
file per sheet, named <name>_sheet<N>.csv; the first path is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runFile,
}

func runFile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	modeStr, _ := cmd.Flags().GetString("mode")
	output, _ := cmd.Flags().GetString("output")
	ref := stringFlagOr(cmd, "reference-doc", cfg.Convert.ReferenceDoc)

	d, err := newDispatcher(cfg)
	if err != nil {
		return err
	}

	out, err := d.ConvertFile(cmd.Context(), args[0], types.Mode(modeStr), output, ref)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func init() {
	fileCmd.Flags().StringP("mode", "m", "", "conversion mode (see 'officeconv modes')")
	fileCmd.Flags().StringP("output", "o", "", "output path (default: input with the target extension)")
	fileCmd.Flags().String("reference-doc", "", "style template for md-to-docx and md-to-pptx")
	_ = fileCmd.MarkFlagRequired("mode")

	rootCmd.AddCommand(fileCmd)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/officeconv/pkg/types"
)

var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "List the supported conversion modes",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		return formatModes(cmd.OutOrStdout(), jsonOutput)
	},
}

func formatModes(w io.Writer, jsonOutput bool) error {
	infos := make([]types.ModeInfo, 0, len(types.Modes()))
	for _, m := range types.Modes() {
		info, _ := m.Info()
		infos = append(infos, info)
	}

	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	fmt.Fprintf(w, "%-12s  %-6s  %-6s  %-9s  %s\n", "Mode", "From", "To", "Ref doc", "Description")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, info := range infos {
		ref := "-"
		if info.ForwardsReferenceDoc {
			ref = "yes"
		}
		fmt.Fprintf(w, "%-12s  %-6s  %-6s  %-9s  %s\n",
			info.Mode, info.SourceExt, info.TargetExt, ref, info.Label)
	}
	return nil
}

func init() {
	modesCmd.Flags().Bool("json", false, "output modes as JSON")
	rootCmd.AddCommand(modesCmd)
}

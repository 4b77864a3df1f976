// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/officeconv/internal/convert"
	"github.com/pdiddy/officeconv/internal/pandoc"
	"github.com/pdiddy/officeconv/internal/sheet"
	"github.com/pdiddy/officeconv/pkg/types"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: `Config prints the configuration after merging defaults, the config
file, and OFFICECONV_* environment variables (including those loaded from
a .env file). Keys use dots in the file and underscores in the
environment, e.g. pandoc.backend and OFFICECONV_PANDOC_BACKEND.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		return enc.Close()
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pandoc.backend", string(types.BackendAuto))
	v.SetDefault("pandoc.binary", pandoc.DefaultBinary)
	v.SetDefault("pandoc.image", pandoc.DefaultImage)
	v.SetDefault("sheet.delimiter", ",")
	v.SetDefault("convert.workers", 1)
	v.SetDefault("convert.reference_doc", "")
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", defaultHistoryPath())
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".officeconv", "history.db")
	}
	return filepath.Join(home, ".local", "share", "officeconv", "history.db")
}

// loadConfig decodes v into a Config and validates the fields that are
// parsed rather than copied.
func loadConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}

	switch cfg.Pandoc.Backend {
	case types.BackendAuto, types.BackendNative, types.BackendContainer:
	default:
		return types.Config{}, fmt.Errorf("invalid pandoc.backend %q: use auto, native, or container", cfg.Pandoc.Backend)
	}
	if _, err := sheet.ParseDelimiter(cfg.Sheet.Delimiter); err != nil {
		return types.Config{}, fmt.Errorf("invalid sheet.delimiter: %w", err)
	}
	if cfg.Convert.Workers < 1 {
		cfg.Convert.Workers = 1
	}
	return cfg, nil
}

// newDispatcher wires the production converters for cfg. Pandoc is located
// on first use, so spreadsheet modes work without it.
func newDispatcher(cfg types.Config) (*convert.Dispatcher, error) {
	delim, err := sheet.ParseDelimiter(cfg.Sheet.Delimiter)
	if err != nil {
		return nil, err
	}
	table := convert.NewTable(sheet.Options{Delimiter: delim}, pandoc.Lazy(cfg.Pandoc))
	return convert.NewDispatcher(table, convert.WithLogger(logger)), nil
}

// stringFlagOr returns the flag's value when it was set on the command line
// and fallback otherwise.
func stringFlagOr(cmd *cobra.Command, name, fallback string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return fallback
}

func intFlagOr(cmd *cobra.Command, name string, fallback int) int {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetInt(name)
		return v
	}
	return fallback
}

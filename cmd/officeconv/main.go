// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the officeconv CLI.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is configured in PersistentPreRunE from --verbose.
var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

// rootCmd is the base command for the officeconv CLI.
var rootCmd = &cobra.Command{
	Use:   "officeconv",
	Short: "Convert office documents between binary and text formats",
	Long: `officeconv converts spreadsheets, word-processing documents, and
presentations to and from plain-text formats: xlsx and csv, docx and
Markdown, pptx and Markdown.

Use "file" to convert a single document and "dir" to convert every matching
document under a directory. Spreadsheets are handled in-process; documents
and presentations are handed to pandoc, run natively or in a container.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logger = newLogger(os.Stderr, verbose)
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug("using config file", slog.String("path", f))
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./officeconv.yaml or ~/.config/officeconv/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log every converted file")
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func initConfig() {
	// A .env file in the working directory may carry OFFICECONV_* overrides.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("officeconv")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "officeconv"))
		}
	}

	setDefaults(viper.GetViper())

	viper.SetEnvPrefix("OFFICECONV")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			logger.Warn("reading config file", slog.String("error", err.Error()))
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

package types

// PandocBackend selects how pandoc is invoked for the document and
// presentation conversions.
type PandocBackend string

const (
	// BackendAuto uses the pandoc binary when it is on PATH and falls back
	// to the container image otherwise.
	BackendAuto      PandocBackend = "auto"
	BackendNative    PandocBackend = "native"
	BackendContainer PandocBackend = "container"
)

// PandocConfig holds settings for the pandoc-backed converters.
type PandocConfig struct {
	// Backend selects native, container, or auto (default auto).
	Backend PandocBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Binary is the pandoc executable name or path (default "pandoc").
	Binary string `json:"binary" yaml:"binary" mapstructure:"binary"`

	// Image is the container image used by the container backend
	// (default "pandoc/core:latest").
	Image string `json:"image" yaml:"image" mapstructure:"image"`
}

// SheetConfig holds settings for the spreadsheet/CSV converters.
type SheetConfig struct {
	// Delimiter is the CSV field separator. Accepts a single character or
	// one of the aliases "tab", "pipe", "semicolon", "comma" (default ",").
	Delimiter string `json:"delimiter" yaml:"delimiter" mapstructure:"delimiter"`
}

// ConvertConfig holds defaults for the file and dir commands.
type ConvertConfig struct {
	// Workers bounds concurrent conversions in a directory run (default 1).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// ReferenceDoc is the default style template for md-to-docx and
	// md-to-pptx conversions.
	ReferenceDoc string `json:"reference_doc,omitempty" yaml:"reference_doc,omitempty" mapstructure:"reference_doc"`
}

// HistoryConfig controls the SQLite record of directory runs.
type HistoryConfig struct {
	// Enabled records each directory run when true (default true).
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Path is the database file (default ~/.local/share/officeconv/history.db).
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// Config groups every configurable section.
type Config struct {
	Pandoc  PandocConfig  `json:"pandoc" yaml:"pandoc" mapstructure:"pandoc"`
	Sheet   SheetConfig   `json:"sheet" yaml:"sheet" mapstructure:"sheet"`
	Convert ConvertConfig `json:"convert" yaml:"convert" mapstructure:"convert"`
	History HistoryConfig `json:"history" yaml:"history" mapstructure:"history"`
}

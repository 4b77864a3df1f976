// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert dispatches single files to format converters and
// orchestrates conversion of whole directory trees.
//
// A Dispatcher holds one converter per mode. ConvertFile converts one file
// and returns its errors to the caller; ConvertDirectory walks a tree,
// converts every file matching the mode's source extension inside its own
// failure boundary, and renders a report of what succeeded and what failed.
package convert

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/pdiddy/officeconv/internal/engine"
	"github.com/pdiddy/officeconv/internal/pandoc"
	"github.com/pdiddy/officeconv/internal/sheet"
	"github.com/pdiddy/officeconv/pkg/types"
)

// Dispatcher maps modes to converters.
type Dispatcher struct {
	converters map[types.Mode]engine.Converter
	logger     *slog.Logger

	// readDir lists a directory during a walk. Tests replace it.
	readDir func(name string) ([]os.DirEntry, error)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for per-file progress.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l.With(slog.String("component", "convert"))
		}
	}
}

// NewDispatcher returns a dispatcher over converters. Modes missing from the
// map are reported as unsupported.
func NewDispatcher(converters map[types.Mode]engine.Converter, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		converters: converters,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		readDir:    os.ReadDir,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewTable wires the six production converters: excelize for the tabular
// pair and pandoc for the document and presentation pairs.
func NewTable(sheetOpts sheet.Options, backend pandoc.Backend) map[types.Mode]engine.Converter {
	return map[types.Mode]engine.Converter{
		types.ModeXlsxToCsv: sheet.NewXlsxToCsv(sheetOpts),
		types.ModeCsvToXlsx: sheet.NewCsvToXlsx(sheetOpts),
		types.ModeDocxToMd:  pandoc.DocxToMarkdown(backend),
		types.ModeMdToDocx:  pandoc.MarkdownToDocx(backend),
		types.ModePptxToMd:  pandoc.PptxToMarkdown(backend),
		types.ModeMdToPptx:  pandoc.MarkdownToPptx(backend),
	}
}

// ConvertFile converts input according to mode and returns the path the
// converter wrote. An empty output lets the converter choose (next to the
// input, with the target extension). referenceDoc is forwarded only to the
// modes that produce docx or pptx.
//
// An unknown mode fails with *UnsupportedModeError. A missing or unreadable
// input, or a converter failure, fails with *ConversionError naming the
// direction and wrapping the cause.
func (d *Dispatcher) ConvertFile(ctx context.Context, input string, mode types.Mode, output, referenceDoc string) (string, error) {
	info, conv, err := d.lookup(mode)
	if err != nil {
		return "", err
	}

	if err := engine.CheckReadable(input); err != nil {
		return "", &ConversionError{Mode: mode, Input: input, Err: err}
	}

	req := engine.Request{Input: input, Output: output}
	if info.ForwardsReferenceDoc {
		req.ReferenceDoc = referenceDoc
	}

	out, err := conv.Convert(ctx, req)
	if err != nil {
		return "", &ConversionError{Mode: mode, Input: input, Err: err}
	}
	return out, nil
}

func (d *Dispatcher) lookup(mode types.Mode) (types.ModeInfo, engine.Converter, error) {
	info, ok := mode.Info()
	if !ok {
		return types.ModeInfo{}, nil, &UnsupportedModeError{Mode: mode}
	}
	conv := d.converters[mode]
	if conv == nil {
		return types.ModeInfo{}, nil, &UnsupportedModeError{Mode: mode}
	}
	return info, conv, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sheet converts between XLSX workbooks and delimited text using
// excelize. Both converters satisfy engine.Converter.
package sheet

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/officeconv/internal/engine"
)

const (
	engineName = "excelize"

	// splitThreshold is the sheet count above which a workbook is written
	// as one CSV per sheet instead of a single file.
	splitThreshold = 2

	// csvSheetName is the name given to the only sheet of a workbook built
	// from CSV.
	csvSheetName = "sheet1"
)

// Options configures both directions.
type Options struct {
	// Delimiter separates CSV fields. Zero means comma.
	Delimiter rune
}

func (o Options) comma() rune {
	if o.Delimiter == 0 {
		return ','
	}
	return o.Delimiter
}

// ParseDelimiter accepts a single character or one of the aliases "comma",
// "tab" (or "\t"), "pipe", "semicolon". An empty string yields a comma.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "", ",", "comma":
		return ',', nil
	case "\t", `\t`, "tab":
		return '\t', nil
	case "|", "pipe":
		return '|', nil
	case ";", "semicolon":
		return ';', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError {
		return 0, fmt.Errorf("invalid CSV delimiter %q: must be a single character", s)
	}
	if r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("invalid CSV delimiter %q", s)
	}
	return r, nil
}

// XlsxToCsv writes workbook sheets as delimited text.
type XlsxToCsv struct {
	opts Options
}

// NewXlsxToCsv returns a converter using opts.
func NewXlsxToCsv(opts Options) *XlsxToCsv {
	return &XlsxToCsv{opts: opts}
}

// Convert reads req.Input and writes CSV. A workbook with more than two
// sheets is split into {base}_sheet{N}.csv files placed beside the resolved
// output path, and the first of them is returned. Otherwise the first sheet
// is written to the resolved output path.
func (c *XlsxToCsv) Convert(ctx context.Context, req engine.Request) (string, error) {
	if err := engine.CheckReadable(req.Input); err != nil {
		return "", err
	}
	out := req.Output
	if out == "" {
		out = engine.ReplaceExt(req.Input, ".csv")
	}

	f, err := excelize.OpenFile(req.Input)
	if err != nil {
		return "", &engine.EngineError{Engine: engineName, Err: fmt.Errorf("opening workbook: %w", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", &engine.EngineError{Engine: engineName, Err: errors.New("workbook has no sheets")}
	}

	if len(sheets) <= splitThreshold {
		if err := c.writeSheet(f, sheets[0], out); err != nil {
			return "", err
		}
		return out, nil
	}

	var first string
	for i, name := range sheets {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		path := SheetPath(out, i+1)
		if err := c.writeSheet(f, name, path); err != nil {
			return "", err
		}
		if i == 0 {
			first = path
		}
	}
	return first, nil
}

// SheetPath names the CSV file for the n-th sheet (1-indexed) of a split
// workbook whose nominal output is out.
func SheetPath(out string, n int) string {
	base := strings.TrimSuffix(filepath.Base(out), filepath.Ext(out))
	return filepath.Join(filepath.Dir(out), fmt.Sprintf("%s_sheet%d.csv", base, n))
}

func (c *XlsxToCsv) writeSheet(f *excelize.File, sheet, path string) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return &engine.EngineError{Engine: engineName, Err: fmt.Errorf("reading sheet %s: %w", sheet, err)}
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	w.Comma = c.opts.comma()
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return out.Close()
}

// CsvToXlsx builds a single-sheet workbook from delimited text.
type CsvToXlsx struct {
	opts Options
}

// NewCsvToXlsx returns a converter using opts.
func NewCsvToXlsx(opts Options) *CsvToXlsx {
	return &CsvToXlsx{opts: opts}
}

// Convert reads req.Input as CSV and writes an XLSX workbook with one sheet.
func (c *CsvToXlsx) Convert(ctx context.Context, req engine.Request) (string, error) {
	if err := engine.CheckReadable(req.Input); err != nil {
		return "", err
	}
	out := req.Output
	if out == "" {
		out = engine.ReplaceExt(req.Input, ".xlsx")
	}

	rows, err := c.readCSV(req.Input)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), csvSheetName); err != nil {
		return "", &engine.EngineError{Engine: engineName, Err: err}
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return "", &engine.EngineError{Engine: engineName, Err: err}
		}
		if err := f.SetSheetRow(csvSheetName, cell, &rows[i]); err != nil {
			return "", &engine.EngineError{Engine: engineName, Err: fmt.Errorf("writing row %d: %w", i+1, err)}
		}
	}
	if err := f.SaveAs(out); err != nil {
		return "", &engine.EngineError{Engine: engineName, Err: fmt.Errorf("saving workbook: %w", err)}
	}
	return out, nil
}

func (c *CsvToXlsx) readCSV(path string) ([][]string, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, &engine.FileAccessError{Path: path, Err: err}
	}
	defer in.Close()

	r := csv.NewReader(in)
	r.Comma = c.opts.comma()
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, &engine.EngineError{Engine: "csv", Err: fmt.Errorf("parsing %s: %w", path, err)}
	}
	return rows, nil
}

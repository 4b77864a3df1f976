// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine defines the contract shared by the format converters and
// the errors they report. Converters are opaque to the orchestrator: they
// receive an input path, an optional output path, and an optional reference
// document, and return the path they actually wrote.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Request describes one conversion.
type Request struct {
	// Input is the source file. It must exist and be readable.
	Input string

	// Output is the destination file. When empty the converter writes next
	// to Input, substituting its target extension.
	Output string

	// ReferenceDoc is an optional style template. Converters that do not
	// use one ignore it.
	ReferenceDoc string
}

// Converter transforms one file. Implementations return the path of the
// file written, or an error describing why nothing usable was produced.
type Converter interface {
	Convert(ctx context.Context, req Request) (string, error)
}

// ConverterFunc adapts a plain function to Converter.
type ConverterFunc func(ctx context.Context, req Request) (string, error)

// Convert calls f.
func (f ConverterFunc) Convert(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

var (
	// ErrFileAccess matches any *FileAccessError.
	ErrFileAccess = errors.New("file access failed")

	// ErrEngine matches any *EngineError.
	ErrEngine = errors.New("conversion engine failed")
)

// FileAccessError reports an input or reference file that is missing or
// cannot be read. It is raised before anything is written.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	if errors.Is(e.Err, fs.ErrNotExist) {
		return "file not found: " + e.Path
	}
	return fmt.Sprintf("file not readable: %s: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrFileAccess) match.
func (e *FileAccessError) Is(target error) bool { return target == ErrFileAccess }

// EngineError reports a failure inside the external engine. The engine's
// own message is kept verbatim.
type EngineError struct {
	Engine string
	Err    error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Engine, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrEngine) match.
func (e *EngineError) Is(target error) bool { return target == ErrEngine }

// CheckReadable verifies that path names a regular file that can be opened
// for reading.
func CheckReadable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &FileAccessError{Path: path, Err: err}
	}
	if info.IsDir() {
		return &FileAccessError{Path: path, Err: errors.New("is a directory")}
	}
	f, err := os.Open(path)
	if err != nil {
		return &FileAccessError{Path: path, Err: err}
	}
	return f.Close()
}

// ReplaceExt swaps the final extension of path for ext. Converters use it to
// derive their default output next to the input.
func ReplaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/pdiddy/officeconv/pkg/types"
)

var (
	// ErrUnsupportedMode matches any *UnsupportedModeError.
	ErrUnsupportedMode = errors.New("unsupported conversion mode")

	// ErrDirectoryAccess matches any *DirectoryAccessError.
	ErrDirectoryAccess = errors.New("directory not accessible")
)

// UnsupportedModeError reports a mode outside the mode table, or one with
// no converter registered. It is a caller or configuration bug.
type UnsupportedModeError struct {
	Mode types.Mode
}

func (e *UnsupportedModeError) Error() string {
	return fmt.Sprintf("Unsupported conversion mode: %s", e.Mode)
}

func (e *UnsupportedModeError) Is(target error) bool { return target == ErrUnsupportedMode }

// ConversionError wraps a single-file failure with the conversion direction,
// e.g. "Error converting DOCX to Markdown: file not found: a.docx".
type ConversionError struct {
	Mode  types.Mode
	Input string
	Err   error
}

func (e *ConversionError) Error() string {
	label := string(e.Mode)
	if info, ok := e.Mode.Info(); ok {
		label = info.Label
	}
	return fmt.Sprintf("Error converting %s: %v", label, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// DirectoryAccessError reports a root directory that is missing, not a
// directory, or unreadable. No traversal happens when it is returned.
type DirectoryAccessError struct {
	Path string
	Err  error
}

func (e *DirectoryAccessError) Error() string {
	switch {
	case errors.Is(e.Err, fs.ErrNotExist):
		return "directory not found: " + e.Path
	case e.Err == errNotDir:
		return "not a directory: " + e.Path
	default:
		return fmt.Sprintf("directory not readable: %s: %v", e.Path, e.Err)
	}
}

func (e *DirectoryAccessError) Unwrap() error { return e.Err }

func (e *DirectoryAccessError) Is(target error) bool { return target == ErrDirectoryAccess }

var errNotDir = errors.New("not a directory")

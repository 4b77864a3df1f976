// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/pdiddy/officeconv/internal/engine"
	"github.com/pdiddy/officeconv/pkg/types"
)

// Options controls a directory conversion.
type Options struct {
	// ReferenceDoc is forwarded to md-to-docx and md-to-pptx conversions.
	ReferenceDoc string

	// OutputDir, when set, receives every output at the input's path
	// relative to the walked root. When empty outputs land beside inputs.
	OutputDir string

	// Recursive descends into subdirectories.
	Recursive bool

	// Workers bounds concurrent conversions. Values below 2 convert one
	// file at a time.
	Workers int
}

// ConvertDirectory converts every file under dir whose extension matches
// mode's source extension and returns the rendered report. Failures of
// individual files are listed in the report; only an unsupported mode, an
// inaccessible dir, or cancellation of ctx produce an error.
func (d *Dispatcher) ConvertDirectory(ctx context.Context, dir string, mode types.Mode, opts Options) (string, error) {
	result, err := d.Walk(ctx, dir, mode, opts)
	if err != nil {
		return "", fmt.Errorf("Error converting directory: %w", err)
	}
	return FormatReport(result), nil
}

// Walk performs the traversal behind ConvertDirectory and returns the
// accumulated Result. Entries are visited in os.ReadDir order (sorted by
// name), files and subdirectories interleaved.
func (d *Dispatcher) Walk(ctx context.Context, dir string, mode types.Mode, opts Options) (*Result, error) {
	info, _, err := d.lookup(mode)
	if err != nil {
		return nil, err
	}
	if err := checkDir(dir); err != nil {
		return nil, err
	}

	w := &walker{
		d:      d,
		ctx:    ctx,
		root:   dir,
		info:   info,
		opts:   opts,
		result: NewResult(),
		logger: d.logger.With(slog.String("mode", string(mode))),
	}
	if opts.Workers > 1 {
		w.pool = pool.New().WithMaxGoroutines(opts.Workers)
	}

	w.logger.Info("converting directory",
		slog.String("dir", dir),
		slog.Bool("recursive", opts.Recursive),
		slog.String("output_dir", opts.OutputDir))

	walkErr := w.walkDir(dir)
	if w.pool != nil {
		w.pool.Wait()
	}
	if walkErr != nil {
		return w.result, walkErr
	}

	w.logger.Info("directory converted",
		slog.Int("converted", w.result.SuccessCount),
		slog.Int("failed", w.result.FailCount))
	return w.result, nil
}

func checkDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return &DirectoryAccessError{Path: dir, Err: err}
	}
	if !info.IsDir() {
		return &DirectoryAccessError{Path: dir, Err: errNotDir}
	}
	return nil
}

// walker carries the state of one Walk call. It is never shared between
// calls.
type walker struct {
	d      *Dispatcher
	ctx    context.Context
	root   string
	info   types.ModeInfo
	opts   Options
	result *Result
	pool   *pool.Pool
	logger *slog.Logger
}

func (w *walker) walkDir(dir string) error {
	entries, err := w.d.readDir(dir)
	if err != nil {
		if dir == w.root {
			return &DirectoryAccessError{Path: dir, Err: err}
		}
		w.logger.Warn("skipping unreadable directory", slog.String("dir", dir), slog.String("error", err.Error()))
		return nil
	}

	for _, entry := range entries {
		if err := w.ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(dir, entry.Name())

		switch {
		case entry.IsDir():
			if !w.opts.Recursive {
				continue
			}
			if err := w.walkDir(path); err != nil {
				return err
			}
		case entry.Type().IsRegular() && strings.EqualFold(filepath.Ext(entry.Name()), w.info.SourceExt):
			w.dispatch(path)
		}
	}
	return nil
}

// dispatch converts one candidate, inline or on the pool.
func (w *walker) dispatch(input string) {
	if w.pool == nil {
		w.convert(input)
		return
	}
	w.pool.Go(func() { w.convert(input) })
}

// convert is the failure boundary for one candidate: every error, and a
// converter panic, becomes a failed entry.
func (w *walker) convert(input string) {
	defer func() {
		if r := recover(); r != nil {
			w.fail(input, fmt.Errorf("converter panicked: %v", r))
		}
	}()

	output, err := w.outputPath(input)
	if err != nil {
		w.fail(input, err)
		return
	}

	got, err := w.d.ConvertFile(w.ctx, input, w.info.Mode, output, w.opts.ReferenceDoc)
	if err != nil {
		w.fail(input, err)
		return
	}
	w.result.RecordSuccess(input, got)
	w.logger.Debug("converted", slog.String("input", input), slog.String("output", got))
}

func (w *walker) fail(input string, err error) {
	w.result.RecordFailure(input, err)
	w.logger.Warn("conversion failed", slog.String("input", input), slog.String("error", err.Error()))
}

// outputPath mirrors input's position under the root into OutputDir, with
// the target extension, and creates the containing directory. Without
// OutputDir it returns "" so the converter writes beside the input.
func (w *walker) outputPath(input string) (string, error) {
	if w.opts.OutputDir == "" {
		return "", nil
	}
	rel, err := filepath.Rel(w.root, input)
	if err != nil {
		return "", fmt.Errorf("resolving output path: %w", err)
	}
	out := filepath.Join(w.opts.OutputDir, engine.ReplaceExt(rel, w.info.TargetExt))
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	return out, nil
}

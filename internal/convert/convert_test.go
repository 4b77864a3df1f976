// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/officeconv/internal/engine"
	"github.com/pdiddy/officeconv/internal/pandoc"
	"github.com/pdiddy/officeconv/internal/sheet"
	"github.com/pdiddy/officeconv/pkg/types"
)

// recorder is a converter that writes a marker file and remembers every
// request it saw. Inputs whose base name contains "bad" fail.
type recorder struct {
	ext string

	mu   sync.Mutex
	reqs []engine.Request
}

func (r *recorder) Convert(_ context.Context, req engine.Request) (string, error) {
	r.mu.Lock()
	r.reqs = append(r.reqs, req)
	r.mu.Unlock()

	if strings.Contains(filepath.Base(req.Input), "bad") {
		return "", &engine.EngineError{Engine: "fake", Err: errors.New("corrupt input")}
	}
	out := req.Output
	if out == "" {
		out = engine.ReplaceExt(req.Input, r.ext)
	}
	if err := os.WriteFile(out, []byte("converted"), 0o644); err != nil {
		return "", err
	}
	return out, nil
}

func (r *recorder) requests() []engine.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]engine.Request(nil), r.reqs...)
}

// fakeTable registers a recorder for every mode.
func fakeTable() (map[types.Mode]engine.Converter, map[types.Mode]*recorder) {
	table := make(map[types.Mode]engine.Converter)
	recs := make(map[types.Mode]*recorder)
	for _, m := range types.Modes() {
		info, _ := m.Info()
		rec := &recorder{ext: info.TargetExt}
		table[m] = rec
		recs[m] = rec
	}
	return table, recs
}

// fakeBackend stands in for pandoc and writes the requested output.
type fakeBackend struct{}

func (fakeBackend) Name() string { return "pandoc (fake)" }

func (fakeBackend) Run(_ context.Context, job pandoc.Job) error {
	return os.WriteFile(job.Output, []byte("# converted\n"), 0o644)
}

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func writeWorkbook(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]string{"id", "name"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]string{"1", filepath.Base(path)}))
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	table, _ := fakeTable()
	d := NewDispatcher(table)

	in := touch(t, filepath.Join(dir, "report.docx"))
	out, err := d.ConvertFile(context.Background(), in, types.ModeDocxToMd, "", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report.md"), out)
	assert.FileExists(t, out)

	explicit := filepath.Join(dir, "other.md")
	out, err = d.ConvertFile(context.Background(), in, types.ModeDocxToMd, explicit, "")
	require.NoError(t, err)
	assert.Equal(t, explicit, out)
}

func TestConvertFile_MissingInput(t *testing.T) {
	table, recs := fakeTable()
	d := NewDispatcher(table)
	missing := filepath.Join(t.TempDir(), "missing.docx")

	_, err := d.ConvertFile(context.Background(), missing, types.ModeDocxToMd, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DOCX to Markdown")
	assert.Contains(t, err.Error(), "file not found")
	assert.ErrorIs(t, err, engine.ErrFileAccess)

	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, missing, convErr.Input)
	assert.Empty(t, recs[types.ModeDocxToMd].requests(), "converter must not run")
}

func TestConvertFile_UnsupportedMode(t *testing.T) {
	table, _ := fakeTable()
	d := NewDispatcher(table)
	in := touch(t, filepath.Join(t.TempDir(), "a.txt"))

	tests := []struct {
		name string
		mode types.Mode
	}{
		{name: "unknown", mode: "txt-to-pdf"},
		{name: "empty", mode: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.ConvertFile(context.Background(), in, tt.mode, "", "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "Unsupported conversion mode")
			assert.ErrorIs(t, err, ErrUnsupportedMode)
		})
	}
}

func TestConvertFile_UnregisteredMode(t *testing.T) {
	d := NewDispatcher(map[types.Mode]engine.Converter{})
	in := touch(t, filepath.Join(t.TempDir(), "a.xlsx"))

	_, err := d.ConvertFile(context.Background(), in, types.ModeXlsxToCsv, "", "")
	assert.ErrorIs(t, err, ErrUnsupportedMode)
}

func TestConvertFile_EngineFailure(t *testing.T) {
	table, _ := fakeTable()
	d := NewDispatcher(table)
	in := touch(t, filepath.Join(t.TempDir(), "bad.pptx"))

	_, err := d.ConvertFile(context.Background(), in, types.ModePptxToMd, "", "")
	require.Error(t, err)
	assert.Equal(t, "Error converting PPTX to Markdown: fake: corrupt input", err.Error())
	assert.ErrorIs(t, err, engine.ErrEngine)
}

func TestConvertFile_ReferenceDocForwarding(t *testing.T) {
	dir := t.TempDir()
	ref := touch(t, filepath.Join(dir, "ref.docx"))

	tests := []struct {
		mode    types.Mode
		input   string
		wantRef string
	}{
		{mode: types.ModeMdToDocx, input: "a.md", wantRef: ref},
		{mode: types.ModeMdToPptx, input: "b.md", wantRef: ref},
		{mode: types.ModeDocxToMd, input: "c.docx", wantRef: ""},
		{mode: types.ModePptxToMd, input: "d.pptx", wantRef: ""},
		{mode: types.ModeXlsxToCsv, input: "e.xlsx", wantRef: ""},
		{mode: types.ModeCsvToXlsx, input: "f.csv", wantRef: ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			table, recs := fakeTable()
			d := NewDispatcher(table)
			in := touch(t, filepath.Join(dir, tt.input))

			_, err := d.ConvertFile(context.Background(), in, tt.mode, "", ref)
			require.NoError(t, err)

			reqs := recs[tt.mode].requests()
			require.Len(t, reqs, 1)
			assert.Equal(t, tt.wantRef, reqs[0].ReferenceDoc)
		})
	}
}

func TestConvertDirectory_Scenario(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, "a.xlsx"))
	writeWorkbook(t, filepath.Join(dir, "b.xlsx"))
	touch(t, filepath.Join(dir, "c.docx"))

	d := NewDispatcher(NewTable(sheet.Options{}, fakeBackend{}))
	report, err := d.ConvertDirectory(context.Background(), dir, types.ModeXlsxToCsv, Options{})
	require.NoError(t, err)

	want := "Converted 2 files, failed 0.\n\n" +
		"success:\n" +
		filepath.Join(dir, "a.csv") + "\n" +
		filepath.Join(dir, "b.csv") + "\n" +
		"\nfailed:\n"
	assert.Equal(t, want, report)
	assert.NotContains(t, report, "c.docx")
	assert.NoFileExists(t, filepath.Join(dir, "c.md"))
}

func TestConvertDirectory_EmptyDirectory(t *testing.T) {
	table, _ := fakeTable()
	d := NewDispatcher(table)

	report, err := d.ConvertDirectory(context.Background(), t.TempDir(), types.ModeXlsxToCsv, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Converted 0 files, failed 0.\n\nsuccess:\n\nfailed:\n", report)
}

func TestConvertDirectory_DirectoryErrors(t *testing.T) {
	table, _ := fakeTable()
	d := NewDispatcher(table)
	dir := t.TempDir()
	file := touch(t, filepath.Join(dir, "plain.xlsx"))
	locked := filepath.Join(t.TempDir(), "locked")
	touch(t, filepath.Join(locked, "a.xlsx"))
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	tests := []struct {
		name      string
		dir       string
		mode      types.Mode
		wantMsg   string
		wantIs    error
		needsPerm bool
	}{
		{
			name:    "missing",
			dir:     filepath.Join(dir, "nope"),
			mode:    types.ModeXlsxToCsv,
			wantMsg: "directory not found",
			wantIs:  ErrDirectoryAccess,
		},
		{
			name:    "file not dir",
			dir:     file,
			mode:    types.ModeXlsxToCsv,
			wantMsg: "not a directory",
			wantIs:  ErrDirectoryAccess,
		},
		{
			name:    "unsupported mode",
			dir:     dir,
			mode:    "pdf-to-md",
			wantMsg: "Unsupported conversion mode: pdf-to-md",
			wantIs:  ErrUnsupportedMode,
		},
		{
			name:      "unreadable",
			dir:       locked,
			mode:      types.ModeXlsxToCsv,
			wantMsg:   "directory not readable: " + locked,
			wantIs:    ErrDirectoryAccess,
			needsPerm: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.needsPerm && os.Geteuid() == 0 {
				t.Skip("root ignores directory permissions")
			}
			report, err := d.ConvertDirectory(context.Background(), tt.dir, tt.mode, Options{})
			require.Error(t, err)
			assert.Empty(t, report)
			assert.True(t, strings.HasPrefix(err.Error(), "Error converting directory: "), err.Error())
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.ErrorIs(t, err, tt.wantIs)
		})
	}
}

func TestWalk_Recursive(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "top.docx"))
	touch(t, filepath.Join(dir, "sub", "mid.docx"))
	touch(t, filepath.Join(dir, "sub", "deeper", "low.DOCX"))
	touch(t, filepath.Join(dir, "sub", "notes.txt"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "trap.docx"), 0o755))

	table, _ := fakeTable()
	d := NewDispatcher(table)

	flat, err := d.Walk(context.Background(), dir, types.ModeDocxToMd, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, flat.SuccessCount, "non-recursive sees only the root")

	deep, err := d.Walk(context.Background(), dir, types.ModeDocxToMd, Options{Recursive: true})
	require.NoError(t, err)
	assert.Equal(t, 3, deep.SuccessCount)
	assert.Equal(t, 0, deep.FailCount)
	assert.Equal(t, []string{
		filepath.Join(dir, "sub", "deeper", "low.md"),
		filepath.Join(dir, "sub", "mid.md"),
		filepath.Join(dir, "top.md"),
	}, deep.ConvertedFiles)
}

func TestWalk_UnreadableSubdirSkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.docx"))
	touch(t, filepath.Join(dir, "open", "b.docx"))
	locked := filepath.Join(dir, "locked")
	touch(t, filepath.Join(locked, "c.docx"))
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	table, _ := fakeTable()
	var logs bytes.Buffer
	d := NewDispatcher(table, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	res, err := d.Walk(context.Background(), dir, types.ModeDocxToMd, Options{Recursive: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.SuccessCount)
	assert.Equal(t, 0, res.FailCount)
	assert.Equal(t, 2, res.Total())
	assert.Contains(t, logs.String(), "level=WARN msg=\"skipping unreadable directory\"")
}

func TestWalk_ReadDirFailures(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.docx"))
	touch(t, filepath.Join(dir, "open", "b.docx"))
	touch(t, filepath.Join(dir, "shut", "c.docx"))
	touch(t, filepath.Join(dir, "shut", "d.docx"))

	failing := func(bad string) func(string) ([]os.DirEntry, error) {
		return func(name string) ([]os.DirEntry, error) {
			if name == bad {
				return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
			}
			return os.ReadDir(name)
		}
	}

	t.Run("subdirectory skipped", func(t *testing.T) {
		table, _ := fakeTable()
		var logs bytes.Buffer
		d := NewDispatcher(table, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
		d.readDir = failing(filepath.Join(dir, "shut"))

		res, err := d.Walk(context.Background(), dir, types.ModeDocxToMd, Options{Recursive: true})
		require.NoError(t, err)
		assert.Equal(t, 2, res.Total(), "the unreadable subtree is not counted")
		assert.Equal(t, []string{
			filepath.Join(dir, "a.md"),
			filepath.Join(dir, "open", "b.md"),
		}, res.ConvertedFiles)
		assert.Contains(t, logs.String(), "skipping unreadable directory")
		assert.Contains(t, logs.String(), filepath.Join(dir, "shut"))
	})

	t.Run("root rejected", func(t *testing.T) {
		table, recs := fakeTable()
		d := NewDispatcher(table)
		d.readDir = failing(dir)

		report, err := d.ConvertDirectory(context.Background(), dir, types.ModeDocxToMd, Options{Recursive: true})
		require.Error(t, err)
		assert.Empty(t, report)
		assert.True(t, strings.HasPrefix(err.Error(), "Error converting directory: directory not readable: "+dir), err.Error())
		assert.ErrorIs(t, err, ErrDirectoryAccess)
		assert.ErrorIs(t, err, fs.ErrPermission)
		assert.Empty(t, recs[types.ModeDocxToMd].requests())
	})
}

func TestWalk_SplitWorkbookReportsFirstSheet(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	f := excelize.NewFile()
	for _, name := range []string{"Two", "Three"} {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
	}
	require.NoError(t, f.SaveAs(filepath.Join(dir, "sub", "x.xlsx")))
	require.NoError(t, f.Close())

	d := NewDispatcher(NewTable(sheet.Options{}, fakeBackend{}))
	res, err := d.Walk(context.Background(), dir, types.ModeXlsxToCsv, Options{OutputDir: out, Recursive: true})
	require.NoError(t, err)

	assert.Equal(t, 1, res.SuccessCount, "a split workbook is one converted file")
	assert.Equal(t, []string{filepath.Join(out, "sub", "x_sheet1.csv")}, res.ConvertedFiles)
	for n := 1; n <= 3; n++ {
		assert.FileExists(t, sheet.SheetPath(filepath.Join(out, "sub", "x.csv"), n))
	}
}

func TestWalk_OutputDirMirrorsTree(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	writeWorkbook(t, filepath.Join(dir, "root.xlsx"))
	writeWorkbook(t, filepath.Join(dir, "sub", "x.xlsx"))
	writeWorkbook(t, filepath.Join(dir, "sub", "inner", "y.xlsx"))

	d := NewDispatcher(NewTable(sheet.Options{}, fakeBackend{}))
	res, err := d.Walk(context.Background(), dir, types.ModeXlsxToCsv, Options{OutputDir: out, Recursive: true})
	require.NoError(t, err)
	require.Equal(t, 3, res.SuccessCount, res.Failed())

	for _, rel := range []string{"root.csv", filepath.Join("sub", "x.csv"), filepath.Join("sub", "inner", "y.csv")} {
		assert.FileExists(t, filepath.Join(out, rel))
	}
	assert.NoFileExists(t, filepath.Join(dir, "sub", "x.csv"))
	assert.Contains(t, res.ConvertedFiles, filepath.Join(out, "sub", "x.csv"))
}

func TestWalk_FailureIsolation(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, "a.xlsx"))
	corrupt := filepath.Join(dir, "b.xlsx")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a workbook"), 0o644))
	writeWorkbook(t, filepath.Join(dir, "c.xlsx"))
	writeWorkbook(t, filepath.Join(dir, "sibling", "d.xlsx"))

	d := NewDispatcher(NewTable(sheet.Options{}, fakeBackend{}))
	res, err := d.Walk(context.Background(), dir, types.ModeXlsxToCsv, Options{Recursive: true})
	require.NoError(t, err)

	assert.Equal(t, 3, res.SuccessCount)
	assert.Equal(t, 1, res.FailCount)
	assert.Equal(t, res.SuccessCount+res.FailCount, res.Total())

	msg, ok := res.FailureFor(corrupt)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(msg, "Error converting XLSX to CSV: excelize: "), msg)

	report := FormatReport(res)
	assert.Contains(t, report, "Converted 3 files, failed 1.")
	assert.Contains(t, report, corrupt+": Error converting XLSX to CSV")
}

func TestWalk_Idempotent(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.md"))
	touch(t, filepath.Join(dir, "b.md"))

	table, _ := fakeTable()
	d := NewDispatcher(table)

	first, err := d.ConvertDirectory(context.Background(), dir, types.ModeMdToDocx, Options{})
	require.NoError(t, err)
	second, err := d.ConvertDirectory(context.Background(), dir, types.ModeMdToDocx, Options{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestWalk_ReferenceDocForwarded(t *testing.T) {
	dir := t.TempDir()
	ref := touch(t, filepath.Join(t.TempDir(), "template.pptx"))
	touch(t, filepath.Join(dir, "deck.md"))

	table, recs := fakeTable()
	d := NewDispatcher(table)
	_, err := d.Walk(context.Background(), dir, types.ModeMdToPptx, Options{ReferenceDoc: ref})
	require.NoError(t, err)

	reqs := recs[types.ModeMdToPptx].requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, ref, reqs[0].ReferenceDoc)
}

func TestWalk_ConverterPanicIsContained(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "boom.csv"))
	touch(t, filepath.Join(dir, "fine.csv"))

	table, _ := fakeTable()
	rec := table[types.ModeCsvToXlsx]
	table[types.ModeCsvToXlsx] = engine.ConverterFunc(func(ctx context.Context, req engine.Request) (string, error) {
		if filepath.Base(req.Input) == "boom.csv" {
			panic("index out of range")
		}
		return rec.Convert(ctx, req)
	})
	d := NewDispatcher(table)

	res, err := d.Walk(context.Background(), dir, types.ModeCsvToXlsx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 1, res.FailCount)
	msg, ok := res.FailureFor(filepath.Join(dir, "boom.csv"))
	require.True(t, ok)
	assert.Contains(t, msg, "converter panicked: index out of range")
}

func TestWalk_Workers(t *testing.T) {
	dir := t.TempDir()
	const n = 24
	for i := 0; i < n; i++ {
		name := "f" + string(rune('a'+i)) + ".xlsx"
		if i%6 == 0 {
			name = "bad" + name
		}
		touch(t, filepath.Join(dir, name))
	}

	var inFlight, peak atomic.Int32
	table, _ := fakeTable()
	rec := table[types.ModeXlsxToCsv]
	table[types.ModeXlsxToCsv] = engine.ConverterFunc(func(ctx context.Context, req engine.Request) (string, error) {
		cur := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		return rec.Convert(ctx, req)
	})
	d := NewDispatcher(table)

	res, err := d.Walk(context.Background(), dir, types.ModeXlsxToCsv, Options{Workers: 4})
	require.NoError(t, err)
	assert.Equal(t, n-4, res.SuccessCount)
	assert.Equal(t, 4, res.FailCount)
	assert.Len(t, res.ConvertedFiles, res.SuccessCount)
	assert.Len(t, res.Failed(), res.FailCount)
	assert.LessOrEqual(t, peak.Load(), int32(4))
}

func TestWalk_Cancelled(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.xlsx"))

	table, recs := fakeTable()
	d := NewDispatcher(table)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.ConvertDirectory(ctx, dir, types.ModeXlsxToCsv, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, recs[types.ModeXlsxToCsv].requests())
}

func TestWalk_OutputDirUnwritable(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.xlsx"))
	blocker := touch(t, filepath.Join(t.TempDir(), "blocker"))

	table, _ := fakeTable()
	d := NewDispatcher(table)

	// OutputDir is a regular file, so creating directories under it fails.
	res, err := d.Walk(context.Background(), dir, types.ModeXlsxToCsv, Options{OutputDir: blocker})
	require.NoError(t, err)
	assert.Equal(t, 0, res.SuccessCount)
	assert.Equal(t, 1, res.FailCount)
	msg, _ := res.FailureFor(filepath.Join(dir, "a.xlsx"))
	assert.Contains(t, msg, "creating output directory")
}

func TestResult_RecordFailureTwice(t *testing.T) {
	r := NewResult()
	r.RecordFailure("a.xlsx", errors.New("first"))
	r.RecordFailure("a.xlsx", errors.New("second"))
	r.RecordSuccess("b.xlsx", "b.csv")

	assert.Equal(t, 1, r.FailCount)
	assert.Equal(t, 1, r.SuccessCount)
	assert.Equal(t, []Failure{{Input: "a.xlsx", Message: "second"}}, r.Failed())
	assert.Len(t, r.Entries, 2)
	assert.True(t, r.HasFailures())
}

func TestFormatReport(t *testing.T) {
	r := NewResult()
	r.RecordSuccess("/d/a.xlsx", "/d/a.csv")
	r.RecordSuccess("/d/b.xlsx", "/d/b.csv")
	r.RecordFailure("/d/c.xlsx", errors.New("Error converting XLSX to CSV: excelize: zip: not a valid zip file"))

	want := `Converted 2 files, failed 1.

success:
/d/a.csv
/d/b.csv

failed:
/d/c.xlsx: Error converting XLSX to CSV: excelize: zip: not a valid zip file
`
	assert.Equal(t, want, FormatReport(r))
}

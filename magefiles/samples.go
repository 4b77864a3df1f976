//go:build mage

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"

	"github.com/pdiddy/officeconv/internal/container"
	"github.com/pdiddy/officeconv/internal/pandoc"
)

const samplesDir = "samples"

// sampleFiles seeds a small tree for trying the dir command by hand.
var sampleFiles = map[string]string{
	"sheets/people.csv":         "name,role\nAda,engineer\nGrace,admiral\n",
	"sheets/nested/orders.csv":  "id,total\n1,9.99\n2,24.50\n",
	"notes/readme.md":           "# Samples\n\nConverted by `mage smoke`.\n",
	"notes/nested/changelog.md": "# Changelog\n\n- first entry\n",
}

// Init writes the sample tree under samples/.
func Init() error {
	for rel, content := range sampleFiles {
		path := filepath.Join(samplesDir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Println("  ", path)
	}
	fmt.Println("Sample files initialized.")
	return nil
}

// Smoke builds the binary and converts the sample tree in both directions
// for the spreadsheet modes, writing into samples/out.
func Smoke() error {
	mg.Deps(Build, Init)

	bin := filepath.Join(binDir, binName)
	out := filepath.Join(samplesDir, "out")
	steps := [][]string{
		{"dir", filepath.Join(samplesDir, "sheets"), "-m", "csv-to-xlsx", "-r", "-o", out, "--no-history"},
		{"dir", out, "-m", "xlsx-to-csv", "-r", "--no-history"},
	}
	for _, args := range steps {
		if err := sh.RunV(bin, args...); err != nil {
			return fmt.Errorf("%s %v: %w", bin, args, err)
		}
	}
	return nil
}

// PandocImage pulls the container image used when pandoc is not installed.
func PandocImage(ctx context.Context) error {
	rt, err := container.DetectRuntime()
	if err != nil {
		return err
	}
	if rt.ImageExists(pandoc.DefaultImage) == nil {
		fmt.Printf("%s already present in %s\n", pandoc.DefaultImage, rt.Name())
		return nil
	}
	return rt.Pull(ctx, pandoc.DefaultImage, os.Stdout)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pandoc converts word-processing and presentation documents to and
// from Markdown by running pandoc, either installed on the host or from a
// container image.
package pandoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pdiddy/officeconv/internal/container"
	"github.com/pdiddy/officeconv/pkg/types"
)

const (
	// DefaultBinary is the pandoc executable looked up on PATH.
	DefaultBinary = "pandoc"

	// DefaultImage is the image run by the container backend.
	DefaultImage = "pandoc/core:latest"

	mountIn  = "/data/in"
	mountOut = "/data/out"
	mountRef = "/data/ref"
)

// Job is one pandoc invocation with host paths.
type Job struct {
	From         string
	To           string
	Input        string
	Output       string
	ReferenceDoc string
}

// args renders the pandoc command line for the given paths.
func (j Job) args(input, output, ref string) []string {
	args := []string{"-f", j.From, "-t", j.To, "-o", output}
	if ref != "" {
		args = append(args, "--reference-doc="+ref)
	}
	return append(args, input)
}

// Backend runs pandoc jobs.
type Backend interface {
	// Name identifies the backend in error messages, e.g. "pandoc" or
	// "pandoc (docker)".
	Name() string

	// Run executes job and waits for it to finish.
	Run(ctx context.Context, job Job) error
}

// runner abstracts process execution for testing.
type runner interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error
}

type osRunner struct{}

func (osRunner) LookPath(file string) (string, error) { return exec.LookPath(file) }

func (osRunner) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// Native runs a pandoc binary installed on the host.
type Native struct {
	bin string
	run runner
}

// NewNative locates bin on PATH (or uses it as a path) and returns a backend
// that executes it.
func NewNative(bin string) (*Native, error) {
	return newNative(bin, osRunner{})
}

func newNative(bin string, r runner) (*Native, error) {
	if bin == "" {
		bin = DefaultBinary
	}
	path, err := r.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("pandoc binary %s not found: %w", bin, err)
	}
	return &Native{bin: path, run: r}, nil
}

func (n *Native) Name() string { return "pandoc" }

func (n *Native) Run(ctx context.Context, job Job) error {
	var stderr bytes.Buffer
	err := n.run.Run(ctx, n.bin, job.args(job.Input, job.Output, job.ReferenceDoc), io.Discard, &stderr)
	return commandError(err, &stderr)
}

// Container runs pandoc from an image, bind-mounting the directories that
// hold the input, the output, and the reference document.
type Container struct {
	rt    container.Runtime
	image string
	user  string
}

// NewContainer verifies that image is present in rt.
func NewContainer(rt container.Runtime, image string) (*Container, error) {
	if image == "" {
		image = DefaultImage
	}
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("pandoc image not available in %s: %w", rt.Name(), err)
	}
	c := &Container{rt: rt, image: image}
	if uid, gid := os.Getuid(), os.Getgid(); uid >= 0 && gid >= 0 {
		c.user = fmt.Sprintf("%d:%d", uid, gid)
	}
	return c, nil
}

func (c *Container) Name() string { return "pandoc (" + c.rt.Name() + ")" }

func (c *Container) Run(ctx context.Context, job Job) error {
	input, err := filepath.Abs(job.Input)
	if err != nil {
		return err
	}
	output, err := filepath.Abs(job.Output)
	if err != nil {
		return err
	}

	mounts := []container.Mount{
		{Source: filepath.Dir(input), Target: mountIn, ReadOnly: true},
		{Source: filepath.Dir(output), Target: mountOut},
	}
	var ref string
	if job.ReferenceDoc != "" {
		abs, err := filepath.Abs(job.ReferenceDoc)
		if err != nil {
			return err
		}
		mounts = append(mounts, container.Mount{Source: filepath.Dir(abs), Target: mountRef, ReadOnly: true})
		ref = mountRef + "/" + filepath.Base(abs)
	}

	var stderr bytes.Buffer
	err = c.rt.Run(ctx, container.RunSpec{
		Image:   c.image,
		Args:    job.args(mountIn+"/"+filepath.Base(input), mountOut+"/"+filepath.Base(output), ref),
		Mounts:  mounts,
		Workdir: mountOut,
		User:    c.user,
		Stdout:  io.Discard,
		Stderr:  &stderr,
	})
	return commandError(err, &stderr)
}

// commandError folds captured stderr into err so the engine's own message
// reaches the caller.
func commandError(err error, stderr *bytes.Buffer) error {
	if err == nil {
		return nil
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return fmt.Errorf("%w: %s", err, msg)
	}
	return err
}

// Detect resolves a backend from cfg. With BackendAuto it prefers the host
// binary and falls back to the container image.
func Detect(cfg types.PandocConfig) (Backend, error) {
	return detect(cfg, osRunner{}, container.DetectRuntime)
}

func detect(cfg types.PandocConfig, r runner, detectRuntime func() (container.Runtime, error)) (Backend, error) {
	viaContainer := func() (Backend, error) {
		rt, err := detectRuntime()
		if err != nil {
			return nil, err
		}
		return NewContainer(rt, cfg.Image)
	}

	switch cfg.Backend {
	case types.BackendNative:
		return newNative(cfg.Binary, r)
	case types.BackendContainer:
		return viaContainer()
	case types.BackendAuto, "":
		native, nerr := newNative(cfg.Binary, r)
		if nerr == nil {
			return native, nil
		}
		c, cerr := viaContainer()
		if cerr == nil {
			return c, nil
		}
		return nil, fmt.Errorf("no pandoc backend available: %w", errors.Join(nerr, cerr))
	default:
		return nil, fmt.Errorf("unknown pandoc backend %q (valid: auto, native, container)", cfg.Backend)
	}
}

// lazy defers backend detection to the first job so that commands which
// never touch pandoc do not require it.
type lazy struct {
	once    sync.Once
	resolve func() (Backend, error)
	backend Backend
	err     error
}

// Lazy returns a Backend that calls Detect(cfg) on first use. A detection
// failure is reported by every subsequent Run.
func Lazy(cfg types.PandocConfig) Backend {
	return &lazy{resolve: func() (Backend, error) { return Detect(cfg) }}
}

func (l *lazy) load() {
	l.once.Do(func() { l.backend, l.err = l.resolve() })
}

func (l *lazy) Name() string {
	l.load()
	if l.err != nil {
		return "pandoc"
	}
	return l.backend.Name()
}

func (l *lazy) Run(ctx context.Context, job Job) error {
	l.load()
	if l.err != nil {
		return l.err
	}
	return l.backend.Run(ctx, job)
}

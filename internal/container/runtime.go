// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container detects a container runtime and runs one-shot
// containers with bind-mounted host directories. The pandoc container
// backend uses it when pandoc is not installed on the host.
package container

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Mount binds a host directory into the container.
type Mount struct {
	Source   string
	Target   string
	ReadOnly bool
}

// volume renders m as the value of a -v flag.
func (m Mount) volume() string {
	v := m.Source + ":" + m.Target
	if m.ReadOnly {
		v += ":ro"
	}
	return v
}

// RunSpec describes a single container invocation.
type RunSpec struct {
	Image string

	// Args are passed to the image entrypoint.
	Args []string

	Mounts []Mount

	// Workdir sets the working directory inside the container when non-empty.
	Workdir string

	// User is passed as --user when non-empty (e.g. "1000:1000") so files
	// written to mounts are owned by the caller.
	User string

	Stdout io.Writer
	Stderr io.Writer
}

// Runtime runs containers through a docker-compatible CLI.
type Runtime interface {
	// Name returns the runtime binary, "docker" or "podman".
	Name() string

	// Available reports whether the binary is on PATH and its daemon or
	// service answers.
	Available() bool

	// ImageExists returns nil when image is present locally.
	ImageExists(image string) error

	// Pull fetches image, streaming progress to w.
	Pull(ctx context.Context, image string, w io.Writer) error

	// Run starts a container from spec, removes it on exit, and waits.
	Run(ctx context.Context, spec RunSpec) error
}

// executor runs CLI commands. Tests replace it.
type executor interface {
	LookPath(file string) (string, error)
	Exec(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error
}

type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) { return exec.LookPath(file) }

func (osExecutor) Exec(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// flavor captures what differs between docker and podman.
type flavor struct {
	bin          string
	inspectImage []string
}

// flavors lists supported runtimes in order of preference.
var flavors = []flavor{
	{bin: "docker", inspectImage: []string{"image", "inspect"}},
	{bin: "podman", inspectImage: []string{"image", "exists"}},
}

type cli struct {
	flavor
	exec executor
}

func (c *cli) Name() string { return c.bin }

func (c *cli) Available() bool {
	if _, err := c.exec.LookPath(c.bin); err != nil {
		return false
	}
	return c.quiet(context.Background(), "info") == nil
}

func (c *cli) ImageExists(image string) error {
	args := append(append([]string(nil), c.inspectImage...), image)
	if err := c.quiet(context.Background(), args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, c.bin, err)
	}
	return nil
}

func (c *cli) Pull(ctx context.Context, image string, w io.Writer) error {
	var stderr bytes.Buffer
	if err := c.exec.Exec(ctx, c.bin, []string{"pull", image}, w, &stderr); err != nil {
		return fmt.Errorf("pulling %s with %s: %w", image, c.bin, withStderr(err, &stderr))
	}
	return nil
}

func (c *cli) Run(ctx context.Context, spec RunSpec) error {
	if err := c.exec.Exec(ctx, c.bin, runArgs(spec), spec.Stdout, spec.Stderr); err != nil {
		return fmt.Errorf("running %s container %s: %w", c.bin, spec.Image, err)
	}
	return nil
}

// quiet runs a command whose output is only interesting on failure.
func (c *cli) quiet(ctx context.Context, args ...string) error {
	var stderr bytes.Buffer
	return withStderr(c.exec.Exec(ctx, c.bin, args, io.Discard, &stderr), &stderr)
}

func withStderr(err error, stderr *bytes.Buffer) error {
	if err == nil {
		return nil
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return fmt.Errorf("%w: %s", err, msg)
	}
	return err
}

// runArgs builds the argument list for "<bin> run".
func runArgs(spec RunSpec) []string {
	args := []string{"run", "--rm"}
	for _, m := range spec.Mounts {
		args = append(args, "-v", m.volume())
	}
	if spec.Workdir != "" {
		args = append(args, "-w", spec.Workdir)
	}
	if spec.User != "" {
		args = append(args, "--user", spec.User)
	}
	args = append(args, spec.Image)
	return append(args, spec.Args...)
}

// DetectRuntime returns the first available runtime, docker before podman.
func DetectRuntime() (Runtime, error) {
	return detectRuntime(osExecutor{})
}

func detectRuntime(e executor) (Runtime, error) {
	names := make([]string, 0, len(flavors))
	for _, f := range flavors {
		c := &cli{flavor: f, exec: e}
		if c.Available() {
			return c, nil
		}
		names = append(names, f.bin)
	}
	return nil, fmt.Errorf("no container runtime available: none of %s found or responding",
		strings.Join(names, ", "))
}

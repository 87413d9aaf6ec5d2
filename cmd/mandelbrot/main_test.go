package main

import (
	"bytes"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/tiff"

	"github.com/gogpu/mandelbrot"
)

func TestRunWritesPNG(t *testing.T) {
	out := filepath.Join(t.TempDir(), "m.png")
	var stdout, stderr bytes.Buffer

	code := run([]string{"-width", "1200", "-height", "20", "-ul", "-2+1i", "-lr", "1-1i", "-o", out}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("run() = %d, stderr:\n%s", code, stderr.String())
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("png.Decode() = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 1200 || b.Dy() != 20 {
		t.Errorf("image bounds = %v, want 1200x20", b)
	}

	// Grouped digits from the x/text printer.
	if !strings.Contains(stdout.String(), "24,000 pixels") {
		t.Errorf("summary = %q, want grouped pixel count", stdout.String())
	}
	if !strings.Contains(stderr.String(), "render complete") {
		t.Errorf("stderr missing completion log:\n%s", stderr.String())
	}
}

func TestRunTIFFRGB(t *testing.T) {
	out := filepath.Join(t.TempDir(), "m.tiff")
	var stdout, stderr bytes.Buffer

	code := run([]string{"-width", "16", "-height", "8", "-color", "rgb", "-intensity", "log",
		"-schedule", "bands", "-workers", "2", "-limit", "500", "-o", out}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("run() = %d, stderr:\n%s", code, stderr.String())
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if _, err := tiff.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("tiff.Decode() = %v", err)
	}
}

func TestRunExitCodes(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"help", []string{"-h"}, exitOK},
		{"unknown flag", []string{"-bogus"}, exitConfig},
		{"extra argument", []string{"-width", "4", "-height", "4", "stray"}, exitConfig},
		{"bad point", []string{"-width", "4", "-height", "4", "-ul", "i", "-o", filepath.Join(dir, "a.png")}, exitConfig},
		{"inverted viewport", []string{"-width", "4", "-height", "4", "-ul", "1-1i", "-lr", "-2+1i", "-o", filepath.Join(dir, "b.png")}, exitConfig},
		{"negative radius", []string{"-width", "4", "-height", "4", "-radius", "-1", "-o", filepath.Join(dir, "c.png")}, exitConfig},
		{"unknown extension", []string{"-width", "4", "-height", "4", "-o", filepath.Join(dir, "d.jpg")}, exitConfig},
		{"missing directory", []string{"-width", "4", "-height", "4", "-o", filepath.Join(dir, "none", "e.png")}, exitEmit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if got := run(tt.args, &stdout, &stderr); got != tt.want {
				t.Errorf("run(%q) = %d, want %d; stderr:\n%s", tt.args, got, tt.want, stderr.String())
			}
		})
	}
}

func TestRunRejectsExplicitZeros(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero width", []string{"-width", "0", "-height", "2"}},
		{"zero height", []string{"-width", "2", "-height", "0"}},
		{"zero limit", []string{"-width", "2", "-height", "2", "-limit", "0"}},
		{"zero radius", []string{"-width", "2", "-height", "2", "-radius", "0"}},
		{"overflowing size", []string{"-width", "9223372036854775807", "-height", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "zero.png")
			args := append(tt.args, "-o", out)

			var stdout, stderr bytes.Buffer
			if got := run(args, &stdout, &stderr); got != exitConfig {
				t.Errorf("run(%q) = %d, want %d; stderr:\n%s", args, got, exitConfig, stderr.String())
			}
			if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
				t.Errorf("output file written for %q (stat error %v)", args, err)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{mandelbrot.ErrInvalidBounds, exitConfig},
		{&mandelbrot.TaskError{Row: 1, Cause: errors.New("x")}, exitRender},
		{&mandelbrot.EmitError{Err: errors.New("x")}, exitEmit},
		{errors.New("x"), exitUnknown},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

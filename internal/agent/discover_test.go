package agent

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "claudecast/internal/errors"
)

func writeExecutable(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDiscoverOverrideWins(t *testing.T) {
	override := writeExecutable(t, t.TempDir(), "claude")
	b := New(Options{BinaryPath: override}, nil)
	b.candidates = nil
	b.lookPath = func(string) (string, error) { return "", errors.New("no PATH hit") }

	got, err := b.Discover()
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if got != override {
		t.Errorf("Discover() = %q, want override %q", got, override)
	}
}

func TestDiscoverFallsThroughMissingCandidates(t *testing.T) {
	dir := t.TempDir()
	real := writeExecutable(t, dir, "claude")
	b := New(Options{}, nil)
	b.candidates = []string{
		filepath.Join(dir, "does-not-exist"),
		real,
	}
	b.lookPath = func(string) (string, error) { return "", errors.New("unused") }

	got, err := b.Discover()
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if got != real {
		t.Errorf("Discover() = %q, want %q", got, real)
	}
}

func TestDiscoverSkipsNonExecutable(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "claude")
	if err := os.WriteFile(plain, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	fromPath := writeExecutable(t, t.TempDir(), "claude")

	b := New(Options{}, nil)
	b.candidates = []string{plain}
	b.lookPath = func(name string) (string, error) {
		if name != "claude" {
			t.Errorf("lookPath called with %q", name)
		}
		return fromPath, nil
	}

	got, err := b.Discover()
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if got != fromPath {
		t.Errorf("Discover() = %q, want PATH hit %q", got, fromPath)
	}
}

func TestDiscoverNotFound(t *testing.T) {
	b := New(Options{}, nil)
	b.candidates = nil
	b.lookPath = func(string) (string, error) { return "", errors.New("not on PATH") }

	_, err := b.Discover()
	if err == nil {
		t.Fatal("expected not-found error")
	}
	if !apperrors.HasCode(err, apperrors.ErrCodeBinaryNotFound) {
		t.Errorf("error = %v, want %s", err, apperrors.ErrCodeBinaryNotFound)
	}
}

func TestInstalled(t *testing.T) {
	bin := writeExecutable(t, t.TempDir(), "claude")

	b := New(Options{BinaryPath: bin}, nil)
	if !b.Installed() {
		t.Error("Installed() = false with a valid override")
	}

	b = New(Options{}, nil)
	b.candidates = nil
	b.lookPath = func(string) (string, error) { return "", errors.New("nope") }
	if b.Installed() {
		t.Error("Installed() = true with nothing discoverable")
	}
}

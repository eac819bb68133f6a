package agent

import (
	"os"
	"path/filepath"

	apperrors "claudecast/internal/errors"
)

// defaultCandidates is the fixed ordered list of common install locations
// probed after the configured override.
func defaultCandidates() []string {
	paths := []string{
		"/usr/local/bin/claude",
		"/opt/homebrew/bin/claude",
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".claude", "local", "claude"),
			filepath.Join(home, ".local", "bin", "claude"),
		)
	}
	return append(paths, "/usr/bin/claude")
}

// Discover locates the CLI binary: the configured override first (only when
// it exists and is executable), then the fixed candidate list, then the
// shell's command resolution. Failing all three it reports not-installed
// rather than panicking.
func (b *Bridge) Discover() (string, error) {
	if p := b.opts.BinaryPath; p != "" && isExecutable(p) {
		return p, nil
	}
	for _, p := range b.candidates {
		if isExecutable(p) {
			return p, nil
		}
	}
	if p, err := b.lookPath("claude"); err == nil {
		return p, nil
	}
	return "", apperrors.BinaryNotFoundError()
}

// Installed reports whether any usable binary was found.
func (b *Bridge) Installed() bool {
	_, err := b.Discover()
	return err == nil
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0111 != 0
}

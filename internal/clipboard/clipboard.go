// Package clipboard shells out to the platform clipboard utilities for
// both directions: copying results out and reading clipboard text into
// prompt context.
package clipboard

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Error reports that no clipboard utility is available on this system.
type Error struct {
	OS      string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError() *Error {
	var msg string
	switch runtime.GOOS {
	case "linux":
		msg = "no clipboard utility found. Install one of:\n" +
			"  • Ubuntu/Debian: sudo apt install xclip\n" +
			"  • Fedora/RHEL: sudo dnf install xclip\n" +
			"  • Arch: sudo pacman -S xclip\n" +
			"  • For Wayland: install wl-clipboard"
	case "darwin":
		msg = "pbcopy not available (this should not happen on macOS)"
	default:
		msg = fmt.Sprintf("clipboard not supported on %s", runtime.GOOS)
	}
	return &Error{OS: runtime.GOOS, Message: msg}
}

// Copy places text on the system clipboard.
func Copy(text string) error {
	switch runtime.GOOS {
	case "darwin":
		return pipeTo(text, "pbcopy")
	case "linux":
		return copyLinux(text)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// Paste returns the current clipboard text, or "" when the clipboard is
// empty or unreadable. Capture treats an unreadable clipboard as absent
// context, never as a failure.
func Paste() string {
	switch runtime.GOOS {
	case "darwin":
		if out, err := exec.Command("pbpaste").Output(); err == nil {
			return string(out)
		}
	case "linux":
		for _, try := range [][]string{
			{"xclip", "-selection", "clipboard", "-o"},
			{"xsel", "--clipboard", "--output"},
			{"wl-paste", "--no-newline"},
		} {
			if !available(try[0]) {
				continue
			}
			if out, err := exec.Command(try[0], try[1:]...).Output(); err == nil {
				return string(out)
			}
		}
	}
	return ""
}

func copyLinux(text string) error {
	var lastErr error

	if available("xclip") {
		if err := pipeTo(text, "xclip", "-selection", "clipboard"); err == nil {
			return nil
		} else {
			lastErr = fmt.Errorf("xclip failed: %w", err)
		}
	}
	if available("xsel") {
		if err := pipeTo(text, "xsel", "--clipboard", "--input"); err == nil {
			return nil
		} else {
			lastErr = fmt.Errorf("xsel failed: %w", err)
		}
	}
	if available("wl-copy") {
		if err := pipeTo(text, "wl-copy"); err == nil {
			return nil
		} else {
			lastErr = fmt.Errorf("wl-copy failed: %w", err)
		}
	}

	if lastErr != nil {
		return fmt.Errorf("clipboard utilities available but failed: %w", lastErr)
	}
	return newError()
}

func pipeTo(text string, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

func available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// CopyWithFallback copies text and returns a user-facing status message.
func CopyWithFallback(text string) (string, error) {
	if err := Copy(text); err != nil {
		var clipErr *Error
		if errors.As(err, &clipErr) {
			return "", err
		}
		return "", fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	return "Copied to clipboard!", nil
}

// Available reports whether a clipboard utility can be found.
func Available() bool {
	switch runtime.GOOS {
	case "darwin":
		return available("pbcopy")
	case "linux":
		return available("xclip") || available("xsel") || available("wl-copy")
	default:
		return false
	}
}

package clipboard

import (
	"errors"
	"runtime"
	"testing"
)

func TestErrorType(t *testing.T) {
	err := newError()

	if err.OS != runtime.GOOS {
		t.Errorf("Expected OS to be %s, got %s", runtime.GOOS, err.OS)
	}
	if err.Error() == "" {
		t.Error("Error message should not be empty")
	}

	var clipErr *Error
	if !errors.As(error(err), &clipErr) {
		t.Error("Should unwrap as *Error")
	}
}

func TestAvailableDoesNotPanic(t *testing.T) {
	available := Available()

	if runtime.GOOS == "darwin" && !available {
		t.Error("Clipboard should be available on macOS")
	}
	_ = available
}

func TestPasteNeverErrors(t *testing.T) {
	// Paste degrades to "" on headless systems; it must never panic.
	_ = Paste()
}

func TestCopyUnsupportedPlatformMessage(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "linux" {
		t.Skip("only meaningful on unsupported platforms")
	}
	if err := Copy("text"); err == nil {
		t.Error("expected error on unsupported platform")
	}
}

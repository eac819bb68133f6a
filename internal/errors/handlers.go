package errors

import (
	"fmt"

	"go.uber.org/zap"
)

// ErrorHandler provides interface-specific error handling.
type ErrorHandler interface {
	HandleError(err error) error
	FormatError(err error) string
}

// CLIErrorHandler handles errors for the command-line interface.
type CLIErrorHandler struct {
	Verbose bool
	log     *zap.Logger
}

// NewCLIErrorHandler creates a new CLI error handler. A nil logger is
// replaced with a no-op one.
func NewCLIErrorHandler(log *zap.Logger, verbose bool) *CLIErrorHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CLIErrorHandler{Verbose: verbose, log: log}
}

// HandleError logs the error when verbose and returns the display form.
func (h *CLIErrorHandler) HandleError(err error) error {
	appErr := GetAppError(err)

	if h.Verbose {
		h.logger().Error("command failed",
			zap.String("code", string(appErr.Code)),
			zap.String("severity", string(appErr.Severity)),
			zap.Error(appErr))
		if appErr.Cause != nil {
			h.logger().Error("caused by", zap.Error(appErr.Cause))
		}
	}

	return fmt.Errorf("%s", h.FormatError(appErr))
}

func (h *CLIErrorHandler) logger() *zap.Logger {
	if h.log == nil {
		return zap.NewNop()
	}
	return h.log
}

// FormatError formats an error for terminal display.
func (h *CLIErrorHandler) FormatError(err error) string {
	appErr := GetAppError(err)

	msg := appErr.Message
	if h.Verbose && appErr.Details != "" {
		msg += "\n" + appErr.Details
	}

	switch appErr.Severity {
	case SeverityCritical:
		return fmt.Sprintf("❌ %s", msg)
	case SeverityError:
		suffix := ""
		if appErr.Retryable {
			suffix = " (retry may succeed)"
		}
		return fmt.Sprintf("❌ %s%s", msg, suffix)
	case SeverityWarning:
		return fmt.Sprintf("⚠️  %s", msg)
	default:
		return fmt.Sprintf("ℹ️  %s", msg)
	}
}

// TUIErrorHandler formats errors for display inside the bubbletea UI, where
// the status line owns the styling and only the text is needed.
type TUIErrorHandler struct{}

// NewTUIErrorHandler creates a new TUI error handler.
func NewTUIErrorHandler() *TUIErrorHandler {
	return &TUIErrorHandler{}
}

// HandleError returns the error unchanged; the TUI renders FormatError.
func (h *TUIErrorHandler) HandleError(err error) error {
	return err
}

// FormatError returns a single-line message suitable for the status bar.
func (h *TUIErrorHandler) FormatError(err error) string {
	appErr := GetAppError(err)
	if appErr.Retryable {
		return appErr.Message + " (try again)"
	}
	return appErr.Message
}

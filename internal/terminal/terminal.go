// Package terminal hands a prompt off to an interactive Claude session
// in a real terminal window. Unlike the bridge, the subprocess here is
// meant to outlive the launcher, so the prompt is passed positionally
// and stdin stays attached to the new terminal.
package terminal

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	apperrors "claudecast/internal/errors"
)

// Supported macOS terminal applications, in the order they are tried
// when none is configured.
var darwinApps = []string{"Terminal", "iTerm", "Warp", "Ghostty", "Alacritty", "kitty"}

// Linux terminal emulators tried in order.
var linuxApps = []string{"x-terminal-emulator", "gnome-terminal", "konsole", "alacritty", "kitty", "xterm"}

// Launcher opens interactive sessions.
type Launcher struct {
	app string // preferred terminal application, empty for auto
	bin string // claude binary path
}

// New returns a Launcher using the given terminal app and binary.
func New(app, bin string) *Launcher {
	if bin == "" {
		bin = "claude"
	}
	return &Launcher{app: app, bin: bin}
}

// SupportedApps lists the terminal applications known on this platform.
func SupportedApps() []string {
	switch runtime.GOOS {
	case "darwin":
		return darwinApps
	case "linux":
		return linuxApps
	default:
		return nil
	}
}

// Open launches an interactive session in dir. A non-empty prompt is
// passed as the positional argument; a non-empty sessionID resumes that
// conversation instead.
func (l *Launcher) Open(dir, prompt, sessionID string) error {
	command := l.commandLine(dir, prompt, sessionID)

	switch runtime.GOOS {
	case "darwin":
		return l.openDarwin(command)
	case "linux":
		return l.openLinux(command)
	default:
		return apperrors.ValidationError(fmt.Sprintf("interactive hand-off not supported on %s", runtime.GOOS))
	}
}

func (l *Launcher) commandLine(dir, prompt, sessionID string) string {
	var b strings.Builder
	if dir != "" {
		b.WriteString("cd " + shellQuote(dir) + " && ")
	}
	b.WriteString(shellQuote(l.bin))
	if sessionID != "" {
		b.WriteString(" -r " + shellQuote(sessionID))
	}
	if prompt != "" {
		b.WriteString(" " + shellQuote(prompt))
	}
	return b.String()
}

func (l *Launcher) openDarwin(command string) error {
	apps := darwinApps
	if l.app != "" {
		apps = []string{l.app}
	}

	var lastErr error
	for _, app := range apps {
		var err error
		switch app {
		case "Terminal":
			err = runOsascript(fmt.Sprintf(
				`tell application "Terminal"
	activate
	do script %s
end tell`, appleScriptQuote(command)))
		case "iTerm":
			err = runOsascript(fmt.Sprintf(
				`tell application "iTerm"
	activate
	create window with default profile command %s
end tell`, appleScriptQuote("/bin/sh -c "+shellQuote(command))))
		default:
			// Apps without an AppleScript dictionary get a launcher
			// script opened through Launch Services.
			err = openViaScript(app, command)
		}
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return apperrors.SpawnError(lastErr)
}

func (l *Launcher) openLinux(command string) error {
	apps := linuxApps
	if l.app != "" {
		apps = []string{l.app}
	}

	var lastErr error
	for _, app := range apps {
		path, err := exec.LookPath(app)
		if err != nil {
			continue
		}
		cmd := exec.Command(path, "-e", "sh", "-c", command)
		if err := cmd.Start(); err != nil {
			lastErr = err
			continue
		}
		// Detach; the terminal owns the session from here.
		go cmd.Wait()
		return nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no terminal emulator found")
	}
	return apperrors.SpawnError(lastErr)
}

func runOsascript(script string) error {
	return exec.Command("osascript", "-e", script).Run()
}

// openViaScript writes a one-shot .command script and opens it with the
// requested application.
func openViaScript(app, command string) error {
	f, err := os.CreateTemp("", "claudecast-*.command")
	if err != nil {
		return err
	}
	script := "#!/bin/sh\nrm -- \"$0\"\n" + command + "\n"
	if _, err := f.WriteString(script); err != nil {
		f.Close()
		return err
	}
	f.Close()
	if err := os.Chmod(f.Name(), 0o755); err != nil {
		return err
	}
	return exec.Command("open", "-a", app, filepath.Clean(f.Name())).Run()
}

// shellQuote wraps s in single quotes, escaping embedded ones.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// appleScriptQuote produces an AppleScript string literal.
func appleScriptQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

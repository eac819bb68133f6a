package terminal

import (
	"runtime"
	"strings"
	"testing"
)

func TestCommandLine(t *testing.T) {
	l := New("", "/usr/local/bin/claude")

	tests := []struct {
		name      string
		dir       string
		prompt    string
		sessionID string
		want      string
	}{
		{
			name:   "prompt in dir",
			dir:    "/home/u/proj",
			prompt: "fix the tests",
			want:   `cd '/home/u/proj' && '/usr/local/bin/claude' 'fix the tests'`,
		},
		{
			name:      "resume session",
			dir:       "/p",
			sessionID: "abc-123",
			want:      `cd '/p' && '/usr/local/bin/claude' -r 'abc-123'`,
		},
		{
			name: "bare session",
			want: `'/usr/local/bin/claude'`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.commandLine(tt.dir, tt.prompt, tt.sessionID); got != tt.want {
				t.Errorf("commandLine = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShellQuoteEscapesSingleQuotes(t *testing.T) {
	got := shellQuote("it's here")
	if got != `'it'\''s here'` {
		t.Errorf("shellQuote = %q", got)
	}
}

func TestAppleScriptQuote(t *testing.T) {
	got := appleScriptQuote(`say "hi" \ bye`)
	if got != `"say \"hi\" \\ bye"` {
		t.Errorf("appleScriptQuote = %q", got)
	}
}

func TestSupportedApps(t *testing.T) {
	apps := SupportedApps()
	switch runtime.GOOS {
	case "darwin", "linux":
		if len(apps) == 0 {
			t.Error("expected a non-empty app list")
		}
	default:
		if apps != nil {
			t.Errorf("apps = %v, want nil", apps)
		}
	}
}

func TestDefaultBinary(t *testing.T) {
	l := New("Terminal", "")
	if !strings.Contains(l.commandLine("", "p", ""), "'claude'") {
		t.Error("empty binary should default to claude")
	}
}

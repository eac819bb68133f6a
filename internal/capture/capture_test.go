package capture

import (
	"context"
	"runtime"
	"testing"
	"time"

	"claudecast/internal/gitinfo"
)

func TestSnapshotFillsGitFields(t *testing.T) {
	git := gitinfo.NewWithRunner(func(_ context.Context, _ string, args ...string) (string, error) {
		switch args[0] {
		case "branch":
			return "feature/capture\n", nil
		case "status":
			return " M file.go\n", nil
		}
		return "", nil
	})
	c := New(git, nil)

	snap := c.Snapshot(context.Background(), "/some/project")

	if snap.ProjectPath != "/some/project" {
		t.Errorf("ProjectPath = %q", snap.ProjectPath)
	}
	if snap.GitBranch != "feature/capture" {
		t.Errorf("GitBranch = %q", snap.GitBranch)
	}
	if !snap.HasUncommitted {
		t.Error("HasUncommitted = false, want true")
	}
}

func TestSelectedTextBestEffort(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// The probe must never fail loudly; off macOS it contributes nothing.
	got := selectedText(ctx)
	if runtime.GOOS != "darwin" && got != "" {
		t.Errorf("selectedText() = %q, want empty outside macOS", got)
	}
}

func TestSnapshotEmptyPathUsesCwd(t *testing.T) {
	git := gitinfo.NewWithRunner(func(_ context.Context, _ string, _ ...string) (string, error) {
		return "", nil
	})
	c := New(git, nil)

	snap := c.Snapshot(context.Background(), "")
	if snap.ProjectPath == "" {
		t.Error("ProjectPath not defaulted to the working directory")
	}
}

func TestUnderDir(t *testing.T) {
	tests := []struct {
		path, dir string
		want      bool
	}{
		{"/home/u/proj/main.go", "/home/u/proj", true},
		{"/home/u/proj", "/home/u/proj", true},
		{"/home/u/project-two/main.go", "/home/u/proj", false},
		{"/elsewhere/main.go", "/home/u/proj", false},
		{"/anything", "", true},
	}
	for _, tt := range tests {
		if got := underDir(tt.path, tt.dir); got != tt.want {
			t.Errorf("underDir(%q, %q) = %v, want %v", tt.path, tt.dir, got, tt.want)
		}
	}
}

func TestURIToPath(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"file:///home/u/proj/main.go", "/home/u/proj/main.go"},
		{"file:///with%20space/f.go", "/with space/f.go"},
		{"untitled:Untitled-1", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := uriToPath(tt.uri); got != tt.want {
			t.Errorf("uriToPath(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}

func TestRecentFileMissingStorage(t *testing.T) {
	c := New(gitinfo.NewWithRunner(func(_ context.Context, _ string, _ ...string) (string, error) {
		return "", nil
	}), nil)
	c.editorStateDir = t.TempDir()

	if file := c.recentFile("/proj"); file != "" {
		t.Errorf("recentFile = %q, want empty for empty storage", file)
	}
}

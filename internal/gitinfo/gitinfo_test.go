package gitinfo

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeRunner replays canned responses keyed by the git subcommand.
func fakeRunner(responses map[string]string, errs map[string]error) Runner {
	return func(_ context.Context, _ string, args ...string) (string, error) {
		key := args[0]
		if err, ok := errs[key]; ok {
			return "", err
		}
		return responses[key], nil
	}
}

func TestCurrentBranch(t *testing.T) {
	c := NewWithRunner(fakeRunner(map[string]string{"branch": "main\n"}, nil))

	got, err := c.CurrentBranch(context.Background(), "/repo")
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if got != "main" {
		t.Errorf("branch = %q, want main", got)
	}
}

func TestCurrentBranchOutsideRepo(t *testing.T) {
	c := NewWithRunner(fakeRunner(nil, map[string]error{"branch": errNotRepo}))

	got, err := c.CurrentBranch(context.Background(), "/tmp")
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if got != "" {
		t.Errorf("branch = %q, want empty outside a repo", got)
	}
}

func TestHasUncommittedChanges(t *testing.T) {
	tests := []struct {
		name   string
		status string
		err    error
		want   bool
	}{
		{"dirty tree", " M main.go\n?? new.go\n", nil, true},
		{"clean tree", "\n", nil, false},
		{"not a repo", "", errNotRepo, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errs map[string]error
			if tt.err != nil {
				errs = map[string]error{"status": tt.err}
			}
			c := NewWithRunner(fakeRunner(map[string]string{"status": tt.status}, errs))

			got, err := c.HasUncommittedChanges(context.Background(), "/repo")
			if err != nil {
				t.Fatalf("HasUncommittedChanges: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiffNotRepoIsEmpty(t *testing.T) {
	c := NewWithRunner(fakeRunner(nil, map[string]error{"diff": errNotRepo}))

	got, err := c.Diff(context.Background(), "/tmp")
	if err != nil || got != "" {
		t.Errorf("Diff = %q, %v; want empty, nil", got, err)
	}
}

func TestRecentLog(t *testing.T) {
	out := "abc123 fix parser\ndef456 add store\n"
	c := NewWithRunner(fakeRunner(map[string]string{"log": out}, nil))

	lines, err := c.RecentLog(context.Background(), "/repo", 2)
	if err != nil {
		t.Fatalf("RecentLog: %v", err)
	}
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "abc123") {
		t.Errorf("lines = %q", lines)
	}
}

func TestRecentLogEmptyRepo(t *testing.T) {
	c := NewWithRunner(fakeRunner(nil, map[string]error{"log": errors.New("fatal: no commits")}))

	lines, err := c.RecentLog(context.Background(), "/repo", 5)
	if err != nil {
		t.Fatalf("RecentLog: %v", err)
	}
	if lines != nil {
		t.Errorf("lines = %q, want nil for an empty repository", lines)
	}
}

func TestIsRepo(t *testing.T) {
	c := NewWithRunner(fakeRunner(map[string]string{"rev-parse": "true\n"}, nil))
	if !c.IsRepo(context.Background(), "/repo") {
		t.Error("IsRepo = false inside a repo")
	}

	c = NewWithRunner(fakeRunner(nil, map[string]error{"rev-parse": errNotRepo}))
	if c.IsRepo(context.Background(), "/tmp") {
		t.Error("IsRepo = true outside a repo")
	}
}

func TestGitErrorSurfaces(t *testing.T) {
	c := NewWithRunner(fakeRunner(nil, map[string]error{"branch": errors.New("git not installed")}))

	_, err := c.CurrentBranch(context.Background(), "/repo")
	if err == nil {
		t.Fatal("expected error when git itself fails")
	}
}

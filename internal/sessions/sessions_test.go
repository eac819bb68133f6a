package sessions

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTranscript(t *testing.T, root, project, id string, lines ...string) {
	t.Helper()
	dir := filepath.Join(root, project)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(dir, id+".jsonl"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSessionsReadsTranscript(t *testing.T) {
	root := t.TempDir()
	writeTranscript(t, root, "-home-u-proj", "11111111-aaaa",
		`{"type":"user","cwd":"/home/u/proj","timestamp":"2026-08-01T10:00:00Z","message":{"role":"user","content":"fix the login flow please"}}`,
		`{"type":"assistant","timestamp":"2026-08-01T10:00:30Z","message":{"role":"assistant","content":[{"type":"text","text":"Looking at it."}]}}`,
		`{"type":"user","timestamp":"2026-08-01T10:05:00Z","message":{"role":"user","content":"thanks"}}`,
	)

	sessions, err := NewScanner(root).Sessions("-home-u-proj")
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}

	s := sessions[0]
	if s.ID != "11111111-aaaa" {
		t.Errorf("ID = %q", s.ID)
	}
	if s.ProjectPath != "/home/u/proj" {
		t.Errorf("ProjectPath = %q", s.ProjectPath)
	}
	if s.FirstUserMessage != "fix the login flow please" {
		t.Errorf("FirstUserMessage = %q", s.FirstUserMessage)
	}
	if s.MessageCount != 3 {
		t.Errorf("MessageCount = %d, want 3", s.MessageCount)
	}
	if s.LastActivity.Hour() != 10 || s.LastActivity.Minute() != 5 {
		t.Errorf("LastActivity = %v", s.LastActivity)
	}
}

func TestSessionsSortedNewestFirst(t *testing.T) {
	root := t.TempDir()
	writeTranscript(t, root, "-p", "older",
		`{"type":"user","cwd":"/p","timestamp":"2026-07-01T00:00:00Z","message":{"role":"user","content":"old"}}`)
	writeTranscript(t, root, "-p", "newer",
		`{"type":"user","cwd":"/p","timestamp":"2026-08-01T00:00:00Z","message":{"role":"user","content":"new"}}`)

	sessions, err := NewScanner(root).Sessions("-p")
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != "newer" {
		t.Errorf("order = %v", []string{sessions[0].ID, sessions[1].ID})
	}
}

func TestSessionsSkipsCommandWrappers(t *testing.T) {
	root := t.TempDir()
	writeTranscript(t, root, "-p", "s1",
		`{"type":"user","cwd":"/p","timestamp":"2026-08-01T00:00:00Z","message":{"role":"user","content":"<command-name>clear</command-name>"}}`,
		`{"type":"user","timestamp":"2026-08-01T00:01:00Z","message":{"role":"user","content":"actual question"}}`,
	)

	sessions, err := NewScanner(root).Sessions("-p")
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if sessions[0].FirstUserMessage != "actual question" {
		t.Errorf("FirstUserMessage = %q", sessions[0].FirstUserMessage)
	}
}

func TestSessionsTruncatesLongPreview(t *testing.T) {
	root := t.TempDir()
	long := strings.Repeat("word ", 60)
	writeTranscript(t, root, "-p", "s1",
		`{"type":"user","cwd":"/p","timestamp":"2026-08-01T00:00:00Z","message":{"role":"user","content":"`+long+`"}}`)

	sessions, err := NewScanner(root).Sessions("-p")
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if got := len([]rune(sessions[0].FirstUserMessage)); got > firstMessageLimit {
		t.Errorf("preview length = %d, want <= %d", got, firstMessageLimit)
	}
	if !strings.HasSuffix(sessions[0].FirstUserMessage, "…") {
		t.Error("truncated preview should end with ellipsis")
	}
}

func TestSessionsToleratesCorruptLines(t *testing.T) {
	root := t.TempDir()
	writeTranscript(t, root, "-p", "s1",
		`not json`,
		`{"type":"user","cwd":"/p","timestamp":"2026-08-01T00:00:00Z","message":{"role":"user","content":"hello"}}`,
	)

	sessions, err := NewScanner(root).Sessions("-p")
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].FirstUserMessage != "hello" {
		t.Errorf("got %+v", sessions)
	}
}

func TestProjects(t *testing.T) {
	root := t.TempDir()
	writeTranscript(t, root, "-home-u-alpha", "a1",
		`{"type":"user","cwd":"/home/u/alpha","timestamp":"2026-08-02T00:00:00Z","message":{"role":"user","content":"one"}}`)
	writeTranscript(t, root, "-home-u-beta", "b1",
		`{"type":"user","cwd":"/home/u/beta","timestamp":"2026-08-10T00:00:00Z","message":{"role":"user","content":"two"}}`)
	writeTranscript(t, root, "-home-u-beta", "b2",
		`{"type":"user","cwd":"/home/u/beta","timestamp":"2026-08-05T00:00:00Z","message":{"role":"user","content":"three"}}`)

	projects, err := NewScanner(root).Projects()
	if err != nil {
		t.Fatalf("Projects: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("got %d projects, want 2", len(projects))
	}
	if projects[0].Name != "beta" || projects[0].SessionCount != 2 {
		t.Errorf("first project = %+v", projects[0])
	}
	if projects[0].Path != "/home/u/beta" {
		t.Errorf("Path = %q, want cwd from transcript", projects[0].Path)
	}
}

func TestProjectsMissingRoot(t *testing.T) {
	projects, err := NewScanner(filepath.Join(t.TempDir(), "absent")).Projects()
	if err != nil {
		t.Fatalf("Projects: %v", err)
	}
	if projects != nil {
		t.Errorf("got %v, want nil", projects)
	}
}

func TestDecodeProjectDir(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"-home-u-proj", "/home/u/proj"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := decodeProjectDir(tt.in); got != tt.want {
			t.Errorf("decodeProjectDir(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

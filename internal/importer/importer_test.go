package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"claudecast/internal/models"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestImportSlashCommands(t *testing.T) {
	home := t.TempDir()
	writeFile(t, filepath.Join(home, ".claude", "commands", "fix-issue.md"),
		"---\ndescription: Fix a GitHub issue\nargument-hint: issue number\nmodel: sonnet\n---\n\nFix issue $ARGUMENTS following our conventions.\n")
	writeFile(t, filepath.Join(home, ".claude", "commands", "review.md"),
		"Review this code for correctness.\n")

	result, err := NewCommandImporter(home).Import("")
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Templates) != 2 {
		t.Fatalf("got %d templates, want 2", len(result.Templates))
	}

	byID := make(map[string]*models.Template)
	for _, tmpl := range result.Templates {
		byID[tmpl.ID] = tmpl
	}

	fix := byID["cmd-fix-issue"]
	if fix == nil {
		t.Fatal("cmd-fix-issue not imported")
	}
	if fix.Name != "/fix-issue" {
		t.Errorf("Name = %q, want %q", fix.Name, "/fix-issue")
	}
	if fix.Model != "sonnet" {
		t.Errorf("Model = %q, want %q", fix.Model, "sonnet")
	}
	if !strings.Contains(fix.Body, "{{arguments}}") {
		t.Errorf("Body should map $ARGUMENTS onto a placeholder, got %q", fix.Body)
	}
	if len(fix.Variables) != 1 || fix.Variables[0].Name != "arguments" {
		t.Fatalf("Variables = %v, want a single arguments variable", fix.Variables)
	}
	if fix.Variables[0].Description != "issue number" {
		t.Errorf("argument hint = %q, want %q", fix.Variables[0].Description, "issue number")
	}

	review := byID["cmd-review"]
	if review == nil {
		t.Fatal("cmd-review not imported")
	}
	if len(review.Variables) != 0 {
		t.Errorf("command without $ARGUMENTS should declare no variables, got %v", review.Variables)
	}
	if review.Body != "Review this code for correctness." {
		t.Errorf("Body = %q", review.Body)
	}
}

func TestImportNamespacedCommand(t *testing.T) {
	home := t.TempDir()
	writeFile(t, filepath.Join(home, ".claude", "commands", "git", "commit.md"),
		"Write a commit message for the staged changes.\n")

	result, err := NewCommandImporter(home).Import("")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Templates) != 1 {
		t.Fatalf("got %d templates, want 1", len(result.Templates))
	}
	if got := result.Templates[0].Name; got != "/git:commit" {
		t.Errorf("Name = %q, want %q", got, "/git:commit")
	}
	if got := result.Templates[0].ID; got != "cmd-git-commit" {
		t.Errorf("ID = %q, want %q", got, "cmd-git-commit")
	}
}

func TestProjectCommandsShadowUserCommands(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	writeFile(t, filepath.Join(home, ".claude", "commands", "deploy.md"), "User-level deploy.\n")
	writeFile(t, filepath.Join(project, ".claude", "commands", "deploy.md"), "Project-level deploy.\n")

	result, err := NewCommandImporter(home).Import(project)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Templates) != 1 {
		t.Fatalf("got %d templates, want 1", len(result.Templates))
	}
	if got := result.Templates[0].Body; got != "Project-level deploy." {
		t.Errorf("Body = %q, project command should win", got)
	}
}

func TestImportPositionalArguments(t *testing.T) {
	home := t.TempDir()
	writeFile(t, filepath.Join(home, ".claude", "commands", "rename.md"),
		"Rename $1 everywhere it appears.\n")

	result, err := NewCommandImporter(home).Import("")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Templates) != 1 {
		t.Fatal("expected one template")
	}
	if got := result.Templates[0].Body; !strings.Contains(got, "{{arguments}}") {
		t.Errorf("Body = %q, want positional args mapped", got)
	}
}

func TestImportMissingCommandsDir(t *testing.T) {
	result, err := NewCommandImporter(t.TempDir()).Import("")
	if err != nil {
		t.Fatalf("missing commands dir should not error, got %v", err)
	}
	if len(result.Templates) != 0 {
		t.Errorf("got %d templates, want 0", len(result.Templates))
	}
}

func TestImportEmptyCommandReported(t *testing.T) {
	home := t.TempDir()
	writeFile(t, filepath.Join(home, ".claude", "commands", "blank.md"), "   \n")

	result, err := NewCommandImporter(home).Import("")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("got %d errors, want 1", len(result.Errors))
	}
	if len(result.Templates) != 0 {
		t.Errorf("empty command should not produce a template")
	}
}

func TestImportDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "triage.md"),
		"---\nid: triage\nname: Bug Triage\ncategory: debugging\nvariables:\n  - name: error\n    kind: text\n---\n\nTriage this failure:\n{{error}}\n")
	writeFile(t, filepath.Join(dir, "broken.md"), "no frontmatter here\n")

	result, err := ImportDirectory(dir)
	if err != nil {
		t.Fatalf("ImportDirectory() error: %v", err)
	}
	if len(result.Templates) != 1 {
		t.Fatalf("got %d templates, want 1", len(result.Templates))
	}
	if result.Templates[0].ID != "triage" {
		t.Errorf("ID = %q, want triage", result.Templates[0].ID)
	}
	if len(result.Errors) != 1 {
		t.Errorf("got %d errors, want 1 for the malformed file", len(result.Errors))
	}
}

func TestImportDirectoryMissing(t *testing.T) {
	if _, err := ImportDirectory(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}

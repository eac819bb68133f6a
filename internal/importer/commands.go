// Package importer converts external prompt sources into templates:
// Claude CLI custom slash commands and directories of frontmatter
// template files.
package importer

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"claudecast/internal/models"
)

// CommandImporter reads Claude CLI custom slash commands, stored as
// markdown files under .claude/commands directories, and converts them
// into templates.
type CommandImporter struct {
	homeDir string
}

// NewCommandImporter creates a slash command importer. An empty homeDir
// defaults to the user's home directory.
func NewCommandImporter(homeDir string) *CommandImporter {
	if homeDir == "" {
		homeDir, _ = os.UserHomeDir()
	}
	return &CommandImporter{homeDir: homeDir}
}

// Result collects what an import produced. Per-file failures land in
// Errors and never abort the rest of the scan.
type Result struct {
	Templates []*models.Template
	Errors    []error
}

// Import scans the user-level commands directory and, when projectPath
// is non-empty, the project-level one. Project commands shadow user
// commands with the same name.
func (i *CommandImporter) Import(projectPath string) (*Result, error) {
	result := &Result{}

	dirs := []string{filepath.Join(i.homeDir, ".claude", "commands")}
	if projectPath != "" {
		dirs = append(dirs, filepath.Join(projectPath, ".claude", "commands"))
	}

	seen := make(map[string]int)
	for _, dir := range dirs {
		entries, err := collectMarkdown(dir)
		if err != nil {
			continue // a missing commands directory is not an error
		}
		for _, path := range entries {
			t, err := i.parseCommand(dir, path)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("parse %s: %w", path, err))
				continue
			}
			if idx, ok := seen[t.ID]; ok {
				result.Templates[idx] = t
				continue
			}
			seen[t.ID] = len(result.Templates)
			result.Templates = append(result.Templates, t)
		}
	}

	return result, nil
}

// commandFrontmatter is the metadata block Claude CLI recognizes on a
// slash command file. Unknown keys are ignored.
type commandFrontmatter struct {
	Description  string `yaml:"description"`
	Model        string `yaml:"model"`
	ArgumentHint string `yaml:"argument-hint"`
}

func (i *CommandImporter) parseCommand(root, path string) (*models.Template, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var meta commandFrontmatter
	body := string(content)
	if rest, ok := splitFrontmatter(content, &meta); ok {
		body = rest
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("empty command body")
	}

	t := &models.Template{
		ID:        commandID(root, path),
		Name:      "/" + commandName(root, path),
		Category:  models.CategoryAdvanced,
		Model:     meta.Model,
		CreatedAt: time.Now(),
	}

	// Claude substitutes $ARGUMENTS (or positional $1..$9) at invocation
	// time. Map the whole argument string onto a single variable.
	if strings.Contains(body, "$ARGUMENTS") || positionalArg.MatchString(body) {
		body = positionalArg.ReplaceAllString(body, "{{arguments}}")
		body = strings.ReplaceAll(body, "$ARGUMENTS", "{{arguments}}")
		t.Variables = []models.Variable{{
			Name:        "arguments",
			Description: meta.ArgumentHint,
			Kind:        models.VarText,
		}}
	}
	t.Body = body

	return t, nil
}

var positionalArg = regexp.MustCompile(`\$[1-9]\b`)

// splitFrontmatter parses an optional leading YAML block delimited by
// "---" lines, returning the remaining body.
func splitFrontmatter(content []byte, meta *commandFrontmatter) (string, bool) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() || scanner.Text() != "---" {
		return "", false
	}

	var metaLines []string
	closed := false
	for scanner.Scan() {
		line := scanner.Text()
		if line == "---" {
			closed = true
			break
		}
		metaLines = append(metaLines, line)
	}
	if !closed {
		return "", false
	}
	if err := yaml.Unmarshal([]byte(strings.Join(metaLines, "\n")), meta); err != nil {
		return "", false
	}

	var bodyLines []string
	for scanner.Scan() {
		bodyLines = append(bodyLines, scanner.Text())
	}
	return strings.Join(bodyLines, "\n"), true
}

// commandName converts a file path under root into the slash command
// name Claude would use, with subdirectories as namespaces.
func commandName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(rel, ".md")
	return strings.ReplaceAll(rel, string(filepath.Separator), ":")
}

func commandID(root, path string) string {
	return "cmd-" + slugify(strings.ReplaceAll(commandName(root, path), ":", "-"))
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9_-]+`)

func slugify(s string) string {
	s = strings.ToLower(s)
	s = slugInvalid.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func collectMarkdown(dir string) ([]string, error) {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".md") {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

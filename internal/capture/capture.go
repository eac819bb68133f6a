// Package capture assembles a context snapshot at launch time: clipboard
// text, selected text, git state, the frontmost application and the most
// recently edited file. Every probe is optional; a probe that fails
// contributes an empty field, never an error.
package capture

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"claudecast/internal/clipboard"
	"claudecast/internal/gitinfo"
	"claudecast/internal/models"
)

// probeTimeout bounds each external probe so a slow one cannot delay the
// launcher noticeably.
const probeTimeout = 2 * time.Second

// Collector gathers the snapshot fields.
type Collector struct {
	git *gitinfo.Client
	log *zap.Logger

	// editorStateDir overrides the detected VS Code workspace storage
	// directory in tests.
	editorStateDir string
}

// New returns a Collector. A nil logger is replaced with a no-op one.
func New(git *gitinfo.Client, log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{git: git, log: log}
}

// Snapshot probes the environment around projectPath. An empty
// projectPath falls back to the current working directory.
func (c *Collector) Snapshot(ctx context.Context, projectPath string) *models.Snapshot {
	if projectPath == "" {
		if wd, err := os.Getwd(); err == nil {
			projectPath = wd
		}
	}

	snap := &models.Snapshot{ProjectPath: projectPath}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if branch, err := c.git.CurrentBranch(probeCtx, projectPath); err == nil {
		snap.GitBranch = branch
	} else {
		c.log.Debug("branch probe failed", zap.Error(err))
	}
	if dirty, err := c.git.HasUncommittedChanges(probeCtx, projectPath); err == nil {
		snap.HasUncommitted = dirty
	}

	snap.ClipboardText = clipboard.Paste()
	snap.FrontmostApp = frontmostApp(probeCtx)
	snap.SelectedText = selectedText(probeCtx)
	snap.CurrentFile = c.recentFile(projectPath)

	return snap
}

// frontmostApp returns the name of the foreground application on macOS,
// "" elsewhere.
func frontmostApp(ctx context.Context) string {
	if runtime.GOOS != "darwin" {
		return ""
	}
	out, err := exec.CommandContext(ctx, "osascript", "-e",
		`tell application "System Events" to get name of first application process whose frontmost is true`).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// selectedText returns the text selected in the foreground application
// on macOS, read through the accessibility API. Requires the
// accessibility permission; without it, or in apps that do not expose
// AXSelectedText, the probe comes back empty.
func selectedText(ctx context.Context) string {
	if runtime.GOOS != "darwin" {
		return ""
	}
	out, err := exec.CommandContext(ctx, "osascript",
		"-e", `tell application "System Events"`,
		"-e", `set focused to value of attribute "AXFocusedUIElement" of (first application process whose frontmost is true)`,
		"-e", `value of attribute "AXSelectedText" of focused`,
		"-e", `end tell`).Output()
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(out), "\n")
}

// recentFile returns the most recently opened editor file under
// projectPath, read from VS Code family workspace storage.
func (c *Collector) recentFile(projectPath string) string {
	dirs := c.storageDirs()
	for _, dir := range dirs {
		if file := recentFileFromStorage(dir, projectPath); file != "" {
			return file
		}
	}
	return ""
}

// VS Code forks share the same storage layout under different app names.
var editorAppDirs = []string{"Code", "Cursor", "VSCodium", "Windsurf"}

func (c *Collector) storageDirs() []string {
	if c.editorStateDir != "" {
		return []string{c.editorStateDir}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	var dirs []string
	for _, app := range editorAppDirs {
		switch runtime.GOOS {
		case "darwin":
			dirs = append(dirs, filepath.Join(home, "Library", "Application Support", app, "User", "workspaceStorage"))
		default:
			dirs = append(dirs, filepath.Join(home, ".config", app, "User", "workspaceStorage"))
		}
	}
	return dirs
}

// recentFileFromStorage scans one workspaceStorage directory. Each
// workspace keeps a history.entries record in state.vscdb; the newest
// entry under projectPath wins. Workspaces are visited newest first.
func recentFileFromStorage(storageDir, projectPath string) string {
	entries, err := os.ReadDir(storageDir)
	if err != nil {
		return ""
	}

	type workspace struct {
		dir   string
		mtime time.Time
	}
	var workspaces []workspace
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		workspaces = append(workspaces, workspace{
			dir:   filepath.Join(storageDir, e.Name()),
			mtime: info.ModTime(),
		})
	}
	for i := 1; i < len(workspaces); i++ {
		for j := i; j > 0 && workspaces[j].mtime.After(workspaces[j-1].mtime); j-- {
			workspaces[j], workspaces[j-1] = workspaces[j-1], workspaces[j]
		}
	}

	for _, ws := range workspaces {
		for _, file := range historyEntries(filepath.Join(ws.dir, "state.vscdb")) {
			if underDir(file, projectPath) {
				return file
			}
		}
	}
	return ""
}

// historyEntries reads the ordered open-file history out of a VS Code
// state database via the sqlite3 CLI, newest first.
func historyEntries(dbPath string) []string {
	if _, err := os.Stat(dbPath); err != nil {
		return nil
	}
	out, err := exec.Command("sqlite3", dbPath,
		"SELECT value FROM ItemTable WHERE key='history.entries';").Output()
	if err != nil {
		return nil
	}
	raw := strings.TrimSpace(string(out))
	if raw == "" {
		return nil
	}

	var records []struct {
		Editor struct {
			Resource string `json:"resource"`
		} `json:"editor"`
	}
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil
	}

	var files []string
	for _, r := range records {
		if path := uriToPath(r.Editor.Resource); path != "" {
			files = append(files, path)
		}
	}
	return files
}

func uriToPath(rawURI string) string {
	if rawURI == "" {
		return ""
	}
	u, err := url.Parse(rawURI)
	if err != nil || u.Scheme != "file" {
		return ""
	}
	return u.Path
}

func underDir(path, dir string) bool {
	if dir == "" {
		return true
	}
	prefix := dir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return path == dir || strings.HasPrefix(path, prefix)
}

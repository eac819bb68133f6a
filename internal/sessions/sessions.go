// Package sessions reads the Claude CLI's transcript directory and turns
// it into browsable projects and resumable sessions. Transcripts live
// under ~/.claude/projects/<encoded-path>/<session-id>.jsonl, one JSON
// record per line.
package sessions

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "claudecast/internal/errors"
	"claudecast/internal/models"
)

// firstMessageLimit caps the preview text shown in session lists.
const firstMessageLimit = 120

// Scanner walks the transcript tree.
type Scanner struct {
	root string
}

// NewScanner returns a Scanner over root. An empty root selects
// ~/.claude/projects.
func NewScanner(root string) *Scanner {
	if root == "" {
		if home, err := os.UserHomeDir(); err == nil {
			root = filepath.Join(home, ".claude", "projects")
		}
	}
	return &Scanner{root: root}
}

// Projects lists every project that has at least one transcript, newest
// activity first. A missing transcript directory yields an empty list.
func (s *Scanner) Projects() ([]models.Project, error) {
	entries, err := os.ReadDir(s.root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.StorageError("list projects", err)
	}

	var projects []models.Project
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sessions, err := s.Sessions(e.Name())
		if err != nil || len(sessions) == 0 {
			continue
		}

		// The transcript's own cwd is authoritative; the encoded
		// directory name is a lossy fallback.
		path := sessions[0].ProjectPath
		if path == "" {
			path = decodeProjectDir(e.Name())
		}

		projects = append(projects, models.Project{
			Name:         filepath.Base(path),
			Path:         path,
			SessionCount: len(sessions),
			LastActivity: sessions[0].LastActivity,
			Sessions:     sessions,
		})
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].LastActivity.After(projects[j].LastActivity)
	})
	return projects, nil
}

// Sessions lists the sessions in one encoded project directory, newest
// first.
func (s *Scanner) Sessions(encodedDir string) ([]models.Session, error) {
	dir := filepath.Join(s.root, encodedDir)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.StorageError("list sessions", err)
	}

	var sessions []models.Session
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		path := filepath.Join(dir, name)
		sess, err := readTranscript(path)
		if err != nil {
			// A corrupt transcript is skipped, not fatal.
			continue
		}
		sess.ID = strings.TrimSuffix(name, ".jsonl")
		sess.FilePath = path
		if sess.LastActivity.IsZero() {
			if info, err := e.Info(); err == nil {
				sess.LastActivity = info.ModTime()
			}
		}
		sessions = append(sessions, *sess)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastActivity.After(sessions[j].LastActivity)
	})
	return sessions, nil
}

// transcriptLine is the subset of transcript record fields the scanner
// needs.
type transcriptLine struct {
	Type      string          `json:"type"`
	CWD       string          `json:"cwd"`
	Timestamp string          `json:"timestamp"`
	Message   *struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"message"`
}

func readTranscript(path string) (*models.Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sess := &models.Session{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec transcriptLine
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}

		if rec.CWD != "" && sess.ProjectPath == "" {
			sess.ProjectPath = rec.CWD
		}
		if ts, err := time.Parse(time.RFC3339, rec.Timestamp); err == nil && ts.After(sess.LastActivity) {
			sess.LastActivity = ts
		}

		if rec.Message == nil {
			continue
		}
		switch rec.Type {
		case "user", "assistant":
			sess.MessageCount++
		default:
			continue
		}
		if rec.Type == "user" && sess.FirstUserMessage == "" {
			if text := messageText(rec.Message.Content); text != "" {
				sess.FirstUserMessage = truncate(text, firstMessageLimit)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return sess, nil
}

// messageText extracts displayable text from a message content field,
// which is either a plain string or an array of typed blocks. Tool
// results and command wrappers are not user prose and are skipped.
func messageText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return cleanPreview(s)
	}

	var blocks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}
	for _, b := range blocks {
		if b.Type == "text" {
			if text := cleanPreview(b.Text); text != "" {
				return text
			}
		}
	}
	return ""
}

func cleanPreview(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "<") {
		// Command output and meta wrappers, not something a user typed.
		return ""
	}
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

// decodeProjectDir reverses the CLI's path encoding as far as possible.
// The encoding replaces separators with dashes, so dashes that were part
// of the original name cannot be recovered.
func decodeProjectDir(name string) string {
	if !strings.HasPrefix(name, "-") {
		return name
	}
	return strings.ReplaceAll(name, "-", string(filepath.Separator))
}

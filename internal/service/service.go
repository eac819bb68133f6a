// Package service provides the business logic shared by the CLI and the
// TUI: the template library, prompt execution, session browsing, context
// capture and usage statistics.
package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"

	"claudecast/internal/agent"
	"claudecast/internal/capture"
	"claudecast/internal/config"
	apperrors "claudecast/internal/errors"
	"claudecast/internal/gitinfo"
	"claudecast/internal/importer"
	"claudecast/internal/models"
	"claudecast/internal/sessions"
	"claudecast/internal/stats"
	"claudecast/internal/store"
	"claudecast/internal/template"
	"claudecast/internal/terminal"
)

// maxRecentProjects caps the recent-project list.
const maxRecentProjects = 10

// Service wires the launcher's subsystems together.
type Service struct {
	cfg      *config.Settings
	log      *zap.Logger
	store    *store.Store
	bridge   *agent.Bridge
	git      *gitinfo.Client
	capture  *capture.Collector
	scanner  *sessions.Scanner
	stats    *stats.Aggregator
	terminal *terminal.Launcher

	mu     sync.Mutex
	custom []models.Template // cached custom templates
	loaded bool
}

// New builds a Service from settings. A nil logger is replaced with a
// no-op one.
func New(cfg *config.Settings, log *zap.Logger) (*Service, error) {
	if cfg == nil {
		d := config.Defaults()
		cfg = &d
	}
	if log == nil {
		log = zap.NewNop()
	}

	libDir, err := cfg.LibraryPath()
	if err != nil {
		return nil, err
	}
	st, err := store.New(libDir)
	if err != nil {
		return nil, err
	}

	git := gitinfo.New()
	bridge := agent.New(agent.Options{
		BinaryPath:   cfg.BinaryPath,
		DefaultModel: cfg.DefaultModel,
		OAuthToken:   cfg.OAuthToken,
	}, log)

	return &Service{
		cfg:      cfg,
		log:      log,
		store:    st,
		bridge:   bridge,
		git:      git,
		capture:  capture.New(git, log),
		scanner:  sessions.NewScanner(""),
		stats:    stats.New("", st, log),
		terminal: terminal.New(cfg.TerminalApp, cfg.BinaryPath),
	}, nil
}

// ── Template library ───

// Logger exposes the service logger so sibling layers share one sink.
func (s *Service) Logger() *zap.Logger {
	return s.log
}

// ListTemplates returns builtins plus custom templates, most used first,
// ties broken by name.
func (s *Service) ListTemplates() ([]models.Template, error) {
	custom, err := s.customTemplates()
	if err != nil {
		return nil, err
	}

	builtins := template.Builtins()
	all := make([]models.Template, 0, len(builtins)+len(custom))
	for _, t := range builtins {
		all = append(all, *t)
	}
	all = append(all, custom...)

	counts := s.usageCounts()
	for i := range all {
		all[i].UsageCount = counts[all[i].ID]
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].UsageCount != all[j].UsageCount {
			return all[i].UsageCount > all[j].UsageCount
		}
		return all[i].Name < all[j].Name
	})
	return all, nil
}

// SearchTemplates fuzzy-matches query against template names,
// descriptions and categories. An empty query returns everything.
func (s *Service) SearchTemplates(query string) ([]models.Template, error) {
	all, err := s.ListTemplates()
	if err != nil {
		return nil, err
	}
	if query == "" {
		return all, nil
	}

	var searchStrings []string
	for _, t := range all {
		searchStrings = append(searchStrings, fmt.Sprintf("%s %s %s %s",
			t.Name, t.Description(), t.ID, t.Category))
	}

	matches := fuzzy.Find(query, searchStrings)

	var results []models.Template
	for _, match := range matches {
		results = append(results, all[match.Index])
	}
	return results, nil
}

// GetTemplate looks up a template by ID, custom templates first.
func (s *Service) GetTemplate(id string) (*models.Template, error) {
	custom, err := s.customTemplates()
	if err != nil {
		return nil, err
	}
	for i := range custom {
		if custom[i].ID == id {
			t := custom[i]
			return &t, nil
		}
	}
	if t, ok := template.Builtin(id); ok {
		return t, nil
	}
	return nil, apperrors.NotFoundError(fmt.Sprintf("template %q", id))
}

// SaveTemplate creates or updates a custom template. Builtin IDs cannot
// be overwritten.
func (s *Service) SaveTemplate(t *models.Template) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if _, ok := template.Builtin(t.ID); ok {
		return apperrors.ImmutableError(fmt.Sprintf("builtin template %q", t.ID))
	}
	if err := template.Validate(t); err != nil {
		return err
	}

	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()

	custom, err := s.customTemplatesLocked()
	if err != nil {
		return err
	}
	replaced := false
	for i := range custom {
		if custom[i].ID == t.ID {
			t.CreatedAt = custom[i].CreatedAt
			custom[i] = *t
			replaced = true
			break
		}
	}
	if !replaced {
		custom = append(custom, *t)
	}
	return s.writeCustomLocked(custom)
}

// DeleteTemplate removes a custom template.
func (s *Service) DeleteTemplate(id string) error {
	if _, ok := template.Builtin(id); ok {
		return apperrors.ImmutableError(fmt.Sprintf("builtin template %q", id))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	custom, err := s.customTemplatesLocked()
	if err != nil {
		return err
	}
	for i := range custom {
		if custom[i].ID == id {
			custom = append(custom[:i], custom[i+1:]...)
			return s.writeCustomLocked(custom)
		}
	}
	return apperrors.NotFoundError(fmt.Sprintf("template %q", id))
}

// ImportTemplate reads a markdown template file with YAML frontmatter
// and saves it as a custom template.
func (s *Service) ImportTemplate(path string) (*models.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.StorageError("read template file", err)
	}
	t, err := template.ParseFile(data)
	if err != nil {
		return nil, err
	}
	if err := s.SaveTemplate(t); err != nil {
		return nil, err
	}
	return t, nil
}

// ImportDirectory imports every frontmatter template file under dir.
// It returns the imported templates plus per-file errors for anything
// that failed to parse or save.
func (s *Service) ImportDirectory(dir string) ([]*models.Template, []error, error) {
	result, err := importer.ImportDirectory(dir)
	if err != nil {
		return nil, nil, err
	}
	return s.saveImported(result)
}

// ImportSlashCommands imports Claude CLI custom slash commands, from
// the user commands directory and projectPath's if given, as templates.
func (s *Service) ImportSlashCommands(projectPath string) ([]*models.Template, []error, error) {
	result, err := importer.NewCommandImporter("").Import(projectPath)
	if err != nil {
		return nil, nil, err
	}
	return s.saveImported(result)
}

func (s *Service) saveImported(result *importer.Result) ([]*models.Template, []error, error) {
	errs := result.Errors
	var saved []*models.Template
	for _, t := range result.Templates {
		if err := s.SaveTemplate(t); err != nil {
			errs = append(errs, fmt.Errorf("save %s: %w", t.ID, err))
			continue
		}
		saved = append(saved, t)
	}
	return saved, errs, nil
}

// ExportTemplate writes a template as a markdown file with YAML
// frontmatter.
func (s *Service) ExportTemplate(id, path string) error {
	t, err := s.GetTemplate(id)
	if err != nil {
		return err
	}
	data, err := template.MarshalFile(t)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.StorageError("write template file", err)
	}
	return nil
}

// RenderTemplate expands the template's conditionals and placeholders
// with the given values.
func (s *Service) RenderTemplate(id string, values map[string]string) (string, error) {
	t, err := s.GetTemplate(id)
	if err != nil {
		return "", err
	}
	return template.Render(t, values), nil
}

func (s *Service) customTemplates() ([]models.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customTemplatesLocked()
}

func (s *Service) customTemplatesLocked() ([]models.Template, error) {
	if s.loaded {
		return s.custom, nil
	}
	var custom []models.Template
	if _, err := s.store.Get(store.KeyCustomTemplates, &custom); err != nil {
		return nil, err
	}
	s.custom = custom
	s.loaded = true
	return custom, nil
}

func (s *Service) writeCustomLocked(custom []models.Template) error {
	if err := s.store.Set(store.KeyCustomTemplates, custom); err != nil {
		return err
	}
	s.custom = custom
	return nil
}

// ── Execution ──────

// ExecutePrompt runs a one-shot prompt through the bridge and records
// the project as recently used.
func (s *Service) ExecutePrompt(ctx context.Context, req agent.Request) (*agent.Response, error) {
	resp, err := s.bridge.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	s.recordRecentProject(req.WorkDir)
	return resp, nil
}

// StreamPrompt runs a prompt in streaming mode, delivering text chunks
// through onChunk.
func (s *Service) StreamPrompt(ctx context.Context, req agent.Request, onChunk func(string)) (*agent.Response, error) {
	resp, err := s.bridge.Stream(ctx, req, onChunk)
	if err != nil {
		return nil, err
	}
	s.recordRecentProject(req.WorkDir)
	return resp, nil
}

// ExecuteTemplate renders a template and runs the result. The template's
// usage count is bumped on success.
func (s *Service) ExecuteTemplate(ctx context.Context, id string, values map[string]string, workDir string) (*agent.Response, error) {
	t, err := s.GetTemplate(id)
	if err != nil {
		return nil, err
	}

	resp, err := s.ExecutePrompt(ctx, agent.Request{
		Prompt:  template.Render(t, values),
		Model:   t.Model,
		WorkDir: workDir,
	})
	if err != nil {
		return nil, err
	}
	s.bumpUsage(id)
	return resp, nil
}

// StreamTemplate renders a template and runs it in streaming mode,
// delivering text chunks through onChunk as they arrive.
func (s *Service) StreamTemplate(ctx context.Context, id string, values map[string]string, workDir string, onChunk func(string)) (*agent.Response, error) {
	t, err := s.GetTemplate(id)
	if err != nil {
		return nil, err
	}

	resp, err := s.StreamPrompt(ctx, agent.Request{
		Prompt:  template.Render(t, values),
		Model:   t.Model,
		WorkDir: workDir,
	}, onChunk)
	if err != nil {
		return nil, err
	}
	s.bumpUsage(id)
	return resp, nil
}

// OpenInteractive hands the prompt off to a terminal window.
func (s *Service) OpenInteractive(dir, prompt, sessionID string) error {
	if err := s.terminal.Open(dir, prompt, sessionID); err != nil {
		return err
	}
	s.recordRecentProject(dir)
	return nil
}

// Resume continues an existing session. With a prompt the exchange runs
// headless through the bridge; without one it opens interactively.
func (s *Service) Resume(ctx context.Context, sess *models.Session, prompt string) (*agent.Response, error) {
	if prompt == "" {
		return nil, s.OpenInteractive(sess.ProjectPath, "", sess.ID)
	}
	return s.ExecutePrompt(ctx, agent.Request{
		Prompt:    prompt,
		SessionID: sess.ID,
		WorkDir:   sess.ProjectPath,
	})
}

// BinaryInstalled reports whether the Claude CLI can be found.
func (s *Service) BinaryInstalled() bool {
	return s.bridge.Installed()
}

// BinaryPath returns the resolved binary path.
func (s *Service) BinaryPath() (string, error) {
	return s.bridge.Discover()
}

// ── Context, sessions, stats ─────

// Snapshot captures launch context around projectPath.
func (s *Service) Snapshot(ctx context.Context, projectPath string) *models.Snapshot {
	return s.capture.Snapshot(ctx, projectPath)
}

// Projects lists projects with existing transcripts.
func (s *Service) Projects() ([]models.Project, error) {
	return s.scanner.Projects()
}

// GitDiff returns the working-tree diff for a project directory.
func (s *Service) GitDiff(ctx context.Context, dir string) (string, error) {
	return s.git.Diff(ctx, dir)
}

// GitLog returns recent one-line commits for a project directory.
func (s *Service) GitLog(ctx context.Context, dir string, n int) ([]string, error) {
	return s.git.RecentLog(ctx, dir, n)
}

// Stats returns the usage report, recomputing when force is set.
func (s *Service) Stats(force bool) (*stats.Report, error) {
	return s.stats.Report(force)
}

// ── Favorites and recents ──────

// ToggleFavorite flips a template's favorite flag and reports the new
// state.
func (s *Service) ToggleFavorite(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var favs []string
	if _, err := s.store.Get(store.KeyFavorites, &favs); err != nil {
		return false, err
	}
	for i, f := range favs {
		if f == id {
			favs = append(favs[:i], favs[i+1:]...)
			return false, s.store.Set(store.KeyFavorites, favs)
		}
	}
	favs = append(favs, id)
	return true, s.store.Set(store.KeyFavorites, favs)
}

// Favorites returns the favorited template IDs.
func (s *Service) Favorites() ([]string, error) {
	var favs []string
	if _, err := s.store.Get(store.KeyFavorites, &favs); err != nil {
		return nil, err
	}
	return favs, nil
}

// RecentProjects returns recently used project paths, newest first.
func (s *Service) RecentProjects() ([]string, error) {
	var recents []string
	if _, err := s.store.Get(store.KeyRecentProjects, &recents); err != nil {
		return nil, err
	}
	return recents, nil
}

func (s *Service) recordRecentProject(dir string) {
	if dir == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var recents []string
	if _, err := s.store.Get(store.KeyRecentProjects, &recents); err != nil {
		s.log.Warn("recent projects unreadable", zap.Error(err))
		return
	}
	updated := []string{dir}
	for _, r := range recents {
		if r != dir && len(updated) < maxRecentProjects {
			updated = append(updated, r)
		}
	}
	if err := s.store.Set(store.KeyRecentProjects, updated); err != nil {
		s.log.Warn("recent projects write failed", zap.Error(err))
	}
}

func (s *Service) usageCounts() map[string]int {
	counts := make(map[string]int)
	if _, err := s.store.Get(store.KeyUsageCounts, &counts); err != nil {
		s.log.Warn("usage counts unreadable", zap.Error(err))
	}
	return counts
}

func (s *Service) bumpUsage(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int)
	if _, err := s.store.Get(store.KeyUsageCounts, &counts); err != nil {
		s.log.Warn("usage counts unreadable", zap.Error(err))
		return
	}
	counts[id]++
	if err := s.store.Set(store.KeyUsageCounts, counts); err != nil {
		s.log.Warn("usage count write failed", zap.Error(err))
	}
}

// ── Library watching ─────

// Watch invalidates the cached custom templates and calls onChange
// whenever the library directory changes on disk. The returned stop
// function releases the watcher.
func (s *Service) Watch(onChange func()) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, apperrors.StorageError("watch library", err)
	}
	if err := watcher.Add(s.store.Dir()); err != nil {
		watcher.Close()
		return nil, apperrors.StorageError("watch library", err)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
					continue
				}
				if !strings.HasSuffix(event.Name, ".json") {
					continue
				}
				s.mu.Lock()
				s.loaded = false
				s.mu.Unlock()
				if onChange != nil {
					onChange()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Warn("library watcher error", zap.Error(err))
			}
		}
	}()

	return func() { watcher.Close() }, nil
}

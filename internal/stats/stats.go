// Package stats aggregates token usage and cost across every transcript
// on disk. Walking the full tree is slow enough to be worth caching, so
// reports are kept in the store for an hour unless a refresh is forced.
package stats

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "claudecast/internal/errors"
	"claudecast/internal/store"
)

// cacheTTL is the freshness window for a cached report.
const cacheTTL = time.Hour

// Totals accumulates usage over one bucket.
type Totals struct {
	Messages     int     `json:"messages"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

func (t *Totals) add(in, out int64, cost float64) {
	t.Messages++
	t.InputTokens += in
	t.OutputTokens += out
	t.CostUSD += cost
}

// ProjectTotals is one row of the per-project breakdown.
type ProjectTotals struct {
	Path   string `json:"path"`
	Totals Totals `json:"totals"`
}

// Report is the full usage summary.
type Report struct {
	Today       Totals          `json:"today"`
	Week        Totals          `json:"week"`
	Month       Totals          `json:"month"`
	AllTime     Totals          `json:"all_time"`
	Projects    []ProjectTotals `json:"projects"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// Aggregator computes and caches usage reports.
type Aggregator struct {
	root  string
	store *store.Store
	log   *zap.Logger
	now   func() time.Time
}

// New returns an Aggregator over the transcript root. An empty root
// selects ~/.claude/projects.
func New(root string, st *store.Store, log *zap.Logger) *Aggregator {
	if root == "" {
		if home, err := os.UserHomeDir(); err == nil {
			root = filepath.Join(home, ".claude", "projects")
		}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{root: root, store: st, log: log, now: time.Now}
}

// Report returns the usage summary, serving the cached copy when it is
// fresh. force bypasses the cache.
func (a *Aggregator) Report(force bool) (*Report, error) {
	if !force && a.store != nil {
		var cached Report
		ok, err := a.store.GetFresh(store.KeyStatsCache, cacheTTL, &cached)
		if err != nil {
			a.log.Warn("stats cache unreadable", zap.Error(err))
		} else if ok {
			return &cached, nil
		}
	}

	report, err := a.compute()
	if err != nil {
		return nil, err
	}
	if a.store != nil {
		if err := a.store.Set(store.KeyStatsCache, report); err != nil {
			a.log.Warn("stats cache write failed", zap.Error(err))
		}
	}
	return report, nil
}

// usageLine is the subset of transcript fields that carry usage data.
type usageLine struct {
	Type      string  `json:"type"`
	CWD       string  `json:"cwd"`
	Timestamp string  `json:"timestamp"`
	CostUSD   float64 `json:"costUSD"`
	Message   *struct {
		Usage *struct {
			InputTokens  int64 `json:"input_tokens"`
			OutputTokens int64 `json:"output_tokens"`
		} `json:"usage"`
	} `json:"message"`
}

func (a *Aggregator) compute() (*Report, error) {
	now := a.now()
	report := &Report{GeneratedAt: now}
	byProject := make(map[string]*Totals)

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := now.AddDate(0, 0, -7)
	monthStart := now.AddDate(0, -1, 0)

	entries, err := os.ReadDir(a.root)
	if os.IsNotExist(err) {
		return report, nil
	}
	if err != nil {
		return nil, apperrors.StorageError("read transcripts", err)
	}

	for _, dir := range entries {
		if !dir.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(a.root, dir.Name()))
		if err != nil {
			continue
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".jsonl") {
				continue
			}
			a.aggregateFile(filepath.Join(a.root, dir.Name(), f.Name()),
				report, byProject, dayStart, weekStart, monthStart)
		}
	}

	report.Projects = make([]ProjectTotals, 0, len(byProject))
	for path, totals := range byProject {
		report.Projects = append(report.Projects, ProjectTotals{Path: path, Totals: *totals})
	}
	sort.Slice(report.Projects, func(i, j int) bool {
		return report.Projects[i].Totals.CostUSD > report.Projects[j].Totals.CostUSD
	})
	return report, nil
}

func (a *Aggregator) aggregateFile(path string, report *Report, byProject map[string]*Totals, dayStart, weekStart, monthStart time.Time) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	projectPath := ""
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec usageLine
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		if rec.CWD != "" && projectPath == "" {
			projectPath = rec.CWD
		}
		if rec.Type != "assistant" || rec.Message == nil || rec.Message.Usage == nil {
			continue
		}

		in := rec.Message.Usage.InputTokens
		out := rec.Message.Usage.OutputTokens
		report.AllTime.add(in, out, rec.CostUSD)

		if ts, err := time.Parse(time.RFC3339, rec.Timestamp); err == nil {
			if !ts.Before(dayStart) {
				report.Today.add(in, out, rec.CostUSD)
			}
			if !ts.Before(weekStart) {
				report.Week.add(in, out, rec.CostUSD)
			}
			if !ts.Before(monthStart) {
				report.Month.add(in, out, rec.CostUSD)
			}
		}

		key := projectPath
		if key == "" {
			key = filepath.Base(filepath.Dir(path))
		}
		totals, ok := byProject[key]
		if !ok {
			totals = &Totals{}
			byProject[key] = totals
		}
		totals.add(in, out, rec.CostUSD)
	}
}

package stats

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"claudecast/internal/store"
)

var testNow = time.Date(2026, 8, 20, 15, 0, 0, 0, time.UTC)

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

func assistantLine(ts string, in, out int, cost float64) string {
	return `{"type":"assistant","timestamp":"` + ts + `","costUSD":` + strconv.FormatFloat(cost, 'f', -1, 64) +
		`,"message":{"usage":{"input_tokens":` + strconv.Itoa(in) + `,"output_tokens":` + strconv.Itoa(out) + `}}}`
}

func newAggregator(t *testing.T, root string, st *store.Store) *Aggregator {
	a := New(root, st, nil)
	a.now = func() time.Time { return testNow }
	return a
}

func TestReportBuckets(t *testing.T) {
	root := t.TempDir()
	writeTranscript(t, root, "-p-alpha", "s1",
		`{"type":"user","cwd":"/p/alpha","timestamp":"2026-08-20T10:00:00Z"}`,
		assistantLine("2026-08-20T10:00:05Z", 100, 50, 0.02),
		assistantLine("2026-08-16T09:00:00Z", 200, 80, 0.05),
		assistantLine("2026-07-28T09:00:00Z", 300, 90, 0.10),
		assistantLine("2026-05-01T09:00:00Z", 400, 10, 0.20),
	)

	report, err := newAggregator(t, root, nil).Report(false)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}

	if report.Today.Messages != 1 || report.Today.InputTokens != 100 {
		t.Errorf("Today = %+v", report.Today)
	}
	if report.Week.Messages != 2 {
		t.Errorf("Week.Messages = %d, want 2", report.Week.Messages)
	}
	if report.Month.Messages != 3 {
		t.Errorf("Month.Messages = %d, want 3", report.Month.Messages)
	}
	if report.AllTime.Messages != 4 || report.AllTime.InputTokens != 1000 {
		t.Errorf("AllTime = %+v", report.AllTime)
	}
	if got := report.AllTime.CostUSD; got < 0.369 || got > 0.371 {
		t.Errorf("AllTime.CostUSD = %v, want 0.37", got)
	}
}

func TestReportPerProject(t *testing.T) {
	root := t.TempDir()
	writeTranscript(t, root, "-p-alpha", "s1",
		`{"type":"user","cwd":"/p/alpha","timestamp":"2026-08-20T10:00:00Z"}`,
		assistantLine("2026-08-20T10:00:05Z", 10, 5, 0.01),
	)
	writeTranscript(t, root, "-p-beta", "s2",
		`{"type":"user","cwd":"/p/beta","timestamp":"2026-08-20T11:00:00Z"}`,
		assistantLine("2026-08-20T11:00:05Z", 20, 8, 0.50),
	)

	report, err := newAggregator(t, root, nil).Report(false)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if len(report.Projects) != 2 {
		t.Fatalf("got %d projects", len(report.Projects))
	}
	// Sorted by cost, highest first.
	if report.Projects[0].Path != "/p/beta" {
		t.Errorf("first project = %q, want /p/beta", report.Projects[0].Path)
	}
}

func TestReportUsesCache(t *testing.T) {
	root := t.TempDir()
	st, err := store.New(filepath.Join(t.TempDir(), "store"))
	if err != nil {
		t.Fatal(err)
	}
	writeTranscript(t, root, "-p", "s1",
		`{"type":"user","cwd":"/p","timestamp":"2026-08-20T10:00:00Z"}`,
		assistantLine("2026-08-20T10:00:05Z", 10, 5, 0.01),
	)

	a := newAggregator(t, root, st)
	first, err := a.Report(false)
	if err != nil {
		t.Fatalf("first Report: %v", err)
	}
	if first.AllTime.Messages != 1 {
		t.Fatalf("AllTime = %+v", first.AllTime)
	}

	// New transcript data does not show up while the cache is fresh.
	writeTranscript(t, root, "-p", "s2",
		assistantLine("2026-08-20T12:00:00Z", 99, 99, 9.99))

	cached, err := a.Report(false)
	if err != nil {
		t.Fatalf("cached Report: %v", err)
	}
	if cached.AllTime.Messages != 1 {
		t.Errorf("cached AllTime.Messages = %d, want 1", cached.AllTime.Messages)
	}

	// A forced refresh sees it.
	fresh, err := a.Report(true)
	if err != nil {
		t.Fatalf("forced Report: %v", err)
	}
	if fresh.AllTime.Messages != 2 {
		t.Errorf("forced AllTime.Messages = %d, want 2", fresh.AllTime.Messages)
	}
}

func TestReportMissingRoot(t *testing.T) {
	report, err := newAggregator(t, filepath.Join(t.TempDir(), "absent"), nil).Report(false)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if report.AllTime.Messages != 0 {
		t.Errorf("AllTime = %+v, want zero", report.AllTime)
	}
}

// Package gitinfo reads repository state for prompt context and the
// git-aware quick actions. Everything degrades to absence: outside a
// repository the queries return zero values instead of errors.
package gitinfo

import (
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"
	"time"

	apperrors "claudecast/internal/errors"
)

// commandTimeout bounds each git invocation so a hung process cannot
// stall the UI.
const commandTimeout = 5 * time.Second

// errNotRepo marks the exit-128 "not a git repository" case.
var errNotRepo = errors.New("not a git repository")

// Runner executes a git command in dir and returns its stdout. Tests
// inject a fake to avoid depending on a real repository.
type Runner func(ctx context.Context, dir string, args ...string) (string, error)

// Client answers questions about a working directory's git state.
type Client struct {
	run Runner
}

// New returns a Client backed by the system git binary.
func New() *Client {
	return &Client{run: runGit}
}

// NewWithRunner returns a Client backed by a custom runner.
func NewWithRunner(run Runner) *Client {
	return &Client{run: run}
}

// IsRepo reports whether dir sits inside a git working tree.
func (c *Client) IsRepo(ctx context.Context, dir string) bool {
	out, err := c.run(ctx, dir, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

// CurrentBranch returns the checked-out branch name, or "" outside a
// repository or on a detached HEAD.
func (c *Client) CurrentBranch(ctx context.Context, dir string) (string, error) {
	out, err := c.run(ctx, dir, "branch", "--show-current")
	if errors.Is(err, errNotRepo) {
		return "", nil
	}
	if err != nil {
		return "", apperrors.GitError("read branch", err)
	}
	return strings.TrimSpace(out), nil
}

// HasUncommittedChanges reports whether the working tree differs from
// HEAD, including untracked files. Outside a repository it is false.
func (c *Client) HasUncommittedChanges(ctx context.Context, dir string) (bool, error) {
	out, err := c.run(ctx, dir, "status", "--porcelain")
	if errors.Is(err, errNotRepo) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.GitError("read status", err)
	}
	return strings.TrimSpace(out) != "", nil
}

// Diff returns the combined staged and unstaged diff against HEAD.
func (c *Client) Diff(ctx context.Context, dir string) (string, error) {
	out, err := c.run(ctx, dir, "diff", "HEAD")
	if errors.Is(err, errNotRepo) {
		return "", nil
	}
	if err != nil {
		return "", apperrors.GitError("read diff", err)
	}
	return out, nil
}

// StagedDiff returns only the staged changes.
func (c *Client) StagedDiff(ctx context.Context, dir string) (string, error) {
	out, err := c.run(ctx, dir, "diff", "--cached")
	if errors.Is(err, errNotRepo) {
		return "", nil
	}
	if err != nil {
		return "", apperrors.GitError("read staged diff", err)
	}
	return out, nil
}

// RecentLog returns up to n one-line commit summaries, newest first.
func (c *Client) RecentLog(ctx context.Context, dir string, n int) ([]string, error) {
	if n <= 0 {
		n = 10
	}
	out, err := c.run(ctx, dir, "log", "--oneline", "-n", strconv.Itoa(n))
	if errors.Is(err, errNotRepo) {
		return nil, nil
	}
	if err != nil {
		// A repository with no commits yet also exits non-zero.
		return nil, nil
	}
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 128 {
			return "", errNotRepo
		}
		return "", errors.New(strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Package agent is the process bridge to the Claude CLI: it locates the
// binary, spawns it with controlled stream wiring, parses its JSON-lines
// output, and enforces a watchdog timeout in single-shot mode.
package agent

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	apperrors "claudecast/internal/errors"
	"go.uber.org/zap"
)

// DefaultTimeout is the single-shot watchdog duration.
const DefaultTimeout = 120 * time.Second

// Options configures a Bridge. All fields are optional.
type Options struct {
	BinaryPath   string // user-configured binary override
	DefaultModel string // model used when a request names none
	OAuthToken   string // injected as CLAUDE_CODE_OAUTH_TOKEN when set
}

// Request describes one CLI invocation.
type Request struct {
	Prompt    string
	Model     string // overrides the configured default
	SessionID string // resume an earlier conversation
	WorkDir   string // subprocess working directory, empty for inherited
}

// Response is the normalized result of one invocation. Immutable after
// construction.
type Response struct {
	Result       string
	SessionID    string
	TotalCostUSD float64
	InputTokens  int
	OutputTokens int
	IsError      bool
}

// Bridge executes the external CLI. It is stateless across calls;
// concurrent invocations run as fully independent subprocesses with
// independent timers.
type Bridge struct {
	opts    Options
	log     *zap.Logger
	timeout time.Duration

	// candidates and lookPath allow tests to control discovery.
	candidates []string
	lookPath   func(string) (string, error)
}

// New creates a bridge with the default watchdog duration.
func New(opts Options, log *zap.Logger) *Bridge {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bridge{
		opts:       opts,
		log:        log,
		timeout:    DefaultTimeout,
		candidates: defaultCandidates(),
		lookPath:   exec.LookPath,
	}
}

// Run executes the CLI in single-shot print mode and returns the parsed
// response. The watchdog kills the subprocess if it neither exits nor
// errors within the timeout.
func (b *Bridge) Run(ctx context.Context, req Request) (*Response, error) {
	bin, err := b.Discover()
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	args := []string{"-p", req.Prompt, "--output-format", "json", "--model", b.model(req)}
	if req.SessionID != "" {
		args = append(args, "-r", req.SessionID)
	}

	cmd := exec.CommandContext(runCtx, bin, args...)
	cmd.Env = b.environ()
	cmd.Dir = req.WorkDir
	// Never inherit stdin: the CLI blocks indefinitely waiting for input
	// that will not arrive in this context. nil wires it to /dev/null.
	cmd.Stdin = nil
	configureKill(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	b.log.Debug("spawning claude", zap.String("binary", bin), zap.String("model", b.model(req)),
		zap.Bool("resume", req.SessionID != ""))

	if err := cmd.Start(); err != nil {
		return nil, apperrors.SpawnError(err)
	}
	waitErr := cmd.Wait()

	if runCtx.Err() == context.DeadlineExceeded {
		b.log.Warn("claude timed out", zap.Duration("after", b.timeout))
		return nil, apperrors.TimeoutError(int(b.timeout.Seconds()))
	}

	if waitErr != nil && stdout.Len() == 0 {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			return nil, apperrors.ExitError(exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, apperrors.SpawnError(waitErr)
	}

	resp := parseOutput(stdout.Bytes(), stderr.Bytes())
	b.log.Debug("claude finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.String("session_id", resp.SessionID),
		zap.Float64("cost_usd", resp.TotalCostUSD))
	return resp, nil
}

// Stream executes the CLI in streaming mode, invoking onChunk with each
// piece of incremental text. Result-tagged records only contribute
// metadata; the accumulated chunks form the final result text. Streaming
// mode carries no watchdog: cancellation, if any, comes from the caller's
// context.
func (b *Bridge) Stream(ctx context.Context, req Request, onChunk func(string)) (*Response, error) {
	bin, err := b.Discover()
	if err != nil {
		return nil, err
	}

	args := []string{"-p", req.Prompt, "--output-format", "stream-json", "--verbose",
		"--model", b.model(req)}
	if req.SessionID != "" {
		args = append(args, "-r", req.SessionID)
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Env = b.environ()
	cmd.Dir = req.WorkDir
	cmd.Stdin = nil
	configureKill(cmd)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, apperrors.SpawnError(err)
	}

	if err := cmd.Start(); err != nil {
		return nil, apperrors.SpawnError(err)
	}

	resp := &Response{}
	var acc strings.Builder

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		text, ok := consumeStreamLine(line, resp)
		if !ok {
			// Not JSON: degrade to plain text, but keep streaming.
			text = line + "\n"
		}
		if text != "" {
			acc.WriteString(text)
			if onChunk != nil {
				onChunk(text)
			}
		}
	}

	waitErr := cmd.Wait()
	if waitErr != nil && acc.Len() == 0 {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			return nil, apperrors.ExitError(exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, apperrors.SpawnError(waitErr)
	}

	resp.Result = strings.TrimSpace(acc.String())
	return resp, nil
}

func (b *Bridge) model(req Request) string {
	if req.Model != "" {
		return req.Model
	}
	if b.opts.DefaultModel != "" {
		return b.opts.DefaultModel
	}
	return "sonnet"
}

// environ builds the subprocess environment: the parent's variables with
// PATH prepended with the common install directories, HOME pinned, and the
// OAuth token injected when configured. The token path exists because the
// OS keychain is unavailable where the subprocess runs.
func (b *Bridge) environ() []string {
	env := os.Environ()
	env = append(env, "PATH=/usr/local/bin:/opt/homebrew/bin:"+os.Getenv("PATH"))
	if home, err := os.UserHomeDir(); err == nil {
		env = append(env, "HOME="+home)
	}
	if b.opts.OAuthToken != "" {
		env = append(env, "CLAUDE_CODE_OAUTH_TOKEN="+b.opts.OAuthToken)
	}
	return env
}

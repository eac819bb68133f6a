// Package renderer formats execution results for terminal output.
package renderer

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"

	"claudecast/internal/agent"
)

// Renderer turns bridge responses into printable text.
type Renderer struct {
	pretty bool
}

// New returns a Renderer. With pretty set, result text is treated as
// markdown and rendered through glamour.
func New(pretty bool) *Renderer {
	return &Renderer{pretty: pretty}
}

// IsTTY reports whether stdout is attached to a terminal. Piped output
// stays plain so it can be post-processed.
func IsTTY() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// Result renders the response body, falling back to the raw text when
// markdown rendering fails.
func (r *Renderer) Result(resp *agent.Response) string {
	text := resp.Result
	if !r.pretty {
		return text
	}
	rendered, err := glamour.Render(text, "auto")
	if err != nil {
		return text
	}
	return strings.TrimRight(rendered, "\n") + "\n"
}

// Footer renders the cost and session line shown after a result.
func (r *Renderer) Footer(resp *agent.Response) string {
	var parts []string
	if resp.TotalCostUSD > 0 {
		parts = append(parts, fmt.Sprintf("cost $%.4f", resp.TotalCostUSD))
	}
	if resp.InputTokens > 0 || resp.OutputTokens > 0 {
		parts = append(parts, fmt.Sprintf("tokens %d in / %d out", resp.InputTokens, resp.OutputTokens))
	}
	if resp.SessionID != "" {
		parts = append(parts, "session "+resp.SessionID)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " · ")
}

// JSON renders any value as indented JSON for --format json output.
func (r *Renderer) JSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	return string(data), nil
}

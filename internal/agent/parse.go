package agent

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
)

// record is the superset of the JSON-lines shapes the CLI emits in both
// output modes. Unknown fields are ignored.
type record struct {
	Type         string   `json:"type"`
	Result       *string  `json:"result"`
	SessionID    string   `json:"session_id"`
	TotalCostUSD float64  `json:"total_cost_usd"`
	IsError      bool     `json:"is_error"`
	Usage        *usage   `json:"usage"`
	Message      *message `json:"message"`
	Delta        *delta   `json:"delta"`
}

type usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type message struct {
	Content []contentBlock `json:"content"`
	Usage   *usage         `json:"usage"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type delta struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// parseOutput interprets single-shot stdout as newline-delimited JSON
// records: "result" records supply the final values
// (later ones overwrite earlier ones), "assistant" records contribute their
// text blocks to an accumulator, and unparseable lines degrade to raw text.
// When nothing parses at all, the raw stdout (or stderr, flagged as an
// error) is returned verbatim rather than failing.
func parseOutput(stdout, stderr []byte) *Response {
	resp := &Response{}
	var acc strings.Builder
	var finalResult *string
	parsedJSON := false

	scanner := bufio.NewScanner(bytes.NewReader(stdout))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			// Best-effort plain-text fallback.
			if acc.Len() > 0 {
				acc.WriteString("\n")
			}
			acc.WriteString(line)
			continue
		}
		parsedJSON = true

		switch {
		case rec.Type == "result":
			applyResult(resp, &rec, &finalResult)
		case rec.Type == "assistant" && rec.Message != nil:
			for _, block := range rec.Message.Content {
				if block.Type == "text" {
					acc.WriteString(block.Text)
				}
			}
			if rec.Message.Usage != nil {
				resp.InputTokens = rec.Message.Usage.InputTokens
				resp.OutputTokens = rec.Message.Usage.OutputTokens
			}
		case rec.Result != nil:
			// Untagged record with a top-level result field.
			applyResult(resp, &rec, &finalResult)
		}
	}

	if !parsedJSON && acc.Len() == 0 {
		// Nothing usable on stdout at all.
		out := strings.TrimSpace(string(stdout))
		if out == "" {
			resp.Result = strings.TrimSpace(string(stderr))
			resp.IsError = resp.Result != ""
			return resp
		}
		resp.Result = out
		return resp
	}

	if finalResult != nil {
		resp.Result = *finalResult
	} else {
		resp.Result = acc.String()
	}
	return resp
}

// applyResult folds a result-tagged record into resp. Fields are
// last-write-wins across records; partial fields are never merged beyond
// that.
func applyResult(resp *Response, rec *record, finalResult **string) {
	if rec.Result != nil {
		*finalResult = rec.Result
	}
	if rec.SessionID != "" {
		resp.SessionID = rec.SessionID
	}
	if rec.TotalCostUSD != 0 {
		resp.TotalCostUSD = rec.TotalCostUSD
	}
	if rec.Usage != nil {
		resp.InputTokens = rec.Usage.InputTokens
		resp.OutputTokens = rec.Usage.OutputTokens
	}
	if rec.IsError {
		resp.IsError = true
	}
}

// consumeStreamLine folds one streaming-mode line into resp and returns the
// incremental text it carries, if any. ok is false when the line is not
// valid JSON.
func consumeStreamLine(line string, resp *Response) (text string, ok bool) {
	var rec record
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return "", false
	}

	switch {
	case rec.Type == "result" || (rec.Type != "assistant" && rec.Result != nil):
		// Metadata only: streaming results come from the accumulated
		// chunks, not the result record.
		if rec.SessionID != "" {
			resp.SessionID = rec.SessionID
		}
		if rec.TotalCostUSD != 0 {
			resp.TotalCostUSD = rec.TotalCostUSD
		}
		if rec.Usage != nil {
			resp.InputTokens = rec.Usage.InputTokens
			resp.OutputTokens = rec.Usage.OutputTokens
		}
		if rec.IsError {
			resp.IsError = true
		}
		return "", true
	case rec.Type == "assistant" && rec.Message != nil:
		var b strings.Builder
		for _, block := range rec.Message.Content {
			if block.Type == "text" {
				b.WriteString(block.Text)
			}
		}
		if rec.Message.Usage != nil {
			resp.InputTokens = rec.Message.Usage.InputTokens
			resp.OutputTokens = rec.Message.Usage.OutputTokens
		}
		return b.String(), true
	case rec.Delta != nil && rec.Delta.Text != "":
		return rec.Delta.Text, true
	}
	return "", true
}

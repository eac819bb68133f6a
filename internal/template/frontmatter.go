package template

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"claudecast/internal/models"
	"gopkg.in/yaml.v3"
)

// ParseFile parses a template from a markdown file with YAML frontmatter.
// The frontmatter carries the metadata and variable declarations; the
// markdown content is the template body.
func ParseFile(content []byte) (*models.Template, error) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() || scanner.Text() != "---" {
		return nil, fmt.Errorf("missing frontmatter delimiter")
	}

	var frontmatterLines []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "---" {
			break
		}
		frontmatterLines = append(frontmatterLines, line)
	}

	var t models.Template
	if err := yaml.Unmarshal([]byte(strings.Join(frontmatterLines, "\n")), &t); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	var contentLines []string
	for scanner.Scan() {
		contentLines = append(contentLines, scanner.Text())
	}
	t.Body = strings.TrimLeft(strings.Join(contentLines, "\n"), " \t\n")

	return &t, nil
}

// MarshalFile serializes a template to YAML frontmatter plus markdown body,
// the format `templates export` writes and `templates import` reads.
func MarshalFile(t *models.Template) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("---\n")
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(t); err != nil {
		return nil, fmt.Errorf("failed to encode frontmatter: %w", err)
	}
	buf.WriteString("---\n")

	if t.Body != "" {
		buf.WriteString("\n")
		buf.WriteString(t.Body)
		if !strings.HasSuffix(t.Body, "\n") {
			buf.WriteString("\n")
		}
	}

	return buf.Bytes(), nil
}

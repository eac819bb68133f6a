package importer

import (
	"fmt"
	"os"

	"claudecast/internal/template"
)

// ImportDirectory parses every frontmatter template file under dir, in
// the format `templates export` writes. Files that fail to parse or
// validate are reported in Result.Errors without stopping the walk.
func ImportDirectory(dir string) (*Result, error) {
	paths, err := collectMarkdown(dir)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("read %s: %w", path, err))
			continue
		}
		t, err := template.ParseFile(content)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("parse %s: %w", path, err))
			continue
		}
		if t.ID == "" {
			result.Errors = append(result.Errors, fmt.Errorf("parse %s: missing id", path))
			continue
		}
		if err := template.Validate(t); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("validate %s: %w", path, err))
			continue
		}
		result.Templates = append(result.Templates, t)
	}
	return result, nil
}

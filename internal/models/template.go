package models

import (
	"fmt"
	"strings"
	"time"
)

// Category classifies a template by the stage of work it supports.
type Category string

const (
	CategoryPlanning    Category = "planning"
	CategoryTDD         Category = "tdd"
	CategoryReview      Category = "review"
	CategoryRefactoring Category = "refactoring"
	CategoryDebugging   Category = "debugging"
	CategoryDocs        Category = "docs"
	CategoryAdvanced    Category = "advanced"
)

// Categories returns all valid categories in display order.
func Categories() []Category {
	return []Category{
		CategoryPlanning,
		CategoryTDD,
		CategoryReview,
		CategoryRefactoring,
		CategoryDebugging,
		CategoryDocs,
		CategoryAdvanced,
	}
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// VarKind describes what a template variable holds, which controls how the
// form pre-fills it from captured context.
type VarKind string

const (
	VarText      VarKind = "text"      // free-form text
	VarCode      VarKind = "code"      // pasted code blob
	VarSelection VarKind = "selection" // text captured from the frontmost app
	VarPath      VarKind = "path"      // filesystem path
)

// Variable declares a named slot in a template body.
type Variable struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Kind        VarKind `json:"kind,omitempty" yaml:"kind,omitempty"`

	// AllowFileRef lets a code variable take a file path instead of pasted code.
	AllowFileRef bool `json:"allow_file_ref,omitempty" yaml:"allow_file_ref,omitempty"`
	// AllowDirectory lets a path variable point at a directory.
	AllowDirectory bool `json:"allow_directory,omitempty" yaml:"allow_directory,omitempty"`
}

// Placeholder returns the token this variable is substituted for in a body.
func (v Variable) Placeholder() string {
	return "{{" + v.Name + "}}"
}

// Template is a prompt scaffold with {{name}} placeholders and
// {{#if name}}...{{/if}} conditional spans.
type Template struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Category  Category   `json:"category" yaml:"category"`
	Body      string     `json:"body" yaml:"-"`
	Variables []Variable `json:"variables" yaml:"variables"`
	Model     string     `json:"model,omitempty" yaml:"model,omitempty"`
	CreatedAt time.Time  `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`

	// BuiltIn templates are compiled-in constants; they are never persisted
	// and cannot be edited or deleted.
	BuiltIn bool `json:"-" yaml:"-"`

	// UsageCount is bookkeeping loaded from the store, not part of the
	// template itself.
	UsageCount int `json:"-" yaml:"-"`
}

// Variable returns the declaration for name, if any.
func (t *Template) Variable(name string) (Variable, bool) {
	for _, v := range t.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// Implement list.Item for the bubbles list component.

// FilterValue returns the value used for filtering in lists.
func (t Template) FilterValue() string {
	return cleanString(t.Name)
}

// Title satisfies the list.Item interface.
func (t Template) Title() string {
	if t.Name != "" {
		return cleanString(t.Name)
	}
	return cleanString(t.ID)
}

// Description satisfies the list.Item interface.
func (t Template) Description() string {
	parts := []string{string(t.Category)}
	if len(t.Variables) > 0 {
		names := make([]string, len(t.Variables))
		for i, v := range t.Variables {
			names[i] = v.Name
		}
		parts = append(parts, "vars: "+strings.Join(names, ", "))
	}
	if t.UsageCount > 0 {
		parts = append(parts, fmt.Sprintf("used %d times", t.UsageCount))
	}
	if t.BuiltIn {
		parts = append(parts, "built-in")
	}
	return cleanString(strings.Join(parts, " • "))
}

// cleanString removes control characters that could break list rendering.
func cleanString(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteRune(' ')
		case r >= 32 && r != 127:
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	for strings.Contains(cleaned, "  ") {
		cleaned = strings.ReplaceAll(cleaned, "  ", " ")
	}
	return strings.TrimSpace(cleaned)
}

// Package template implements the prompt template engine: conditional block
// expansion followed by placeholder substitution.
package template

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"claudecast/internal/errors"
	"claudecast/internal/models"
)

var (
	// condRe matches one {{#if name}}...{{/if}} span. The inner match is
	// non-greedy, so the first {{/if}} after a block start closes that
	// block. Nested conditionals are not supported.
	condRe = regexp.MustCompile(`(?s)\{\{#if\s+([A-Za-z0-9_]+)\s*\}\}(.*?)\{\{/if\}\}`)

	// placeholderRe matches a bare {{name}} token.
	placeholderRe = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)
)

// Render expands t.Body against the supplied values. It never fails:
// malformed or unmatched delimiters are simply left in place as literal
// text.
//
// Step 1 expands conditional spans: a block whose variable is present and
// non-blank (after trimming whitespace) is replaced by its inner content
// verbatim; otherwise the entire span, delimiters included, is removed.
// Placeholders inside a kept block are not touched by this step.
//
// Step 2 replaces every declared variable's {{name}} token with its value,
// in declaration order; absent values substitute as the empty string. The
// replace is literal, so a value that itself contains {{other}}-shaped text
// can collide with a later substitution.
func Render(t *models.Template, values map[string]string) string {
	out := ExpandConditionals(t.Body, values)
	for _, v := range t.Variables {
		out = strings.ReplaceAll(out, v.Placeholder(), values[v.Name])
	}
	return out
}

// ExpandConditionals performs only the conditional-expansion step over body.
func ExpandConditionals(body string, values map[string]string) string {
	return condRe.ReplaceAllStringFunc(body, func(span string) string {
		sub := condRe.FindStringSubmatch(span)
		if strings.TrimSpace(values[sub[1]]) == "" {
			return ""
		}
		return sub[2]
	})
}

// Expand substitutes every key of values into body, without consulting a
// template's declarations. Keys are applied in sorted order so the result
// is deterministic.
func Expand(body string, values map[string]string) string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		body = strings.ReplaceAll(body, "{{"+name+"}}", values[name])
	}
	return body
}

// Validate checks a template at registration time: the category must be one
// of the fixed set, variable names must be unique, and every {{name}} or
// {{#if name}} token in the body must correspond to a declared variable.
// Built-in bodies are held to the same rule by tests.
func Validate(t *models.Template) error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.ValidationError("template id must not be empty")
	}
	if strings.TrimSpace(t.Name) == "" {
		return errors.ValidationError("template name must not be empty")
	}
	if !t.Category.Valid() {
		return errors.ValidationError(fmt.Sprintf("unknown category %q", t.Category))
	}

	declared := make(map[string]bool, len(t.Variables))
	for _, v := range t.Variables {
		if strings.TrimSpace(v.Name) == "" {
			return errors.ValidationError("variable name must not be empty")
		}
		if declared[v.Name] {
			return errors.ValidationError(fmt.Sprintf("variable %q declared twice", v.Name))
		}
		declared[v.Name] = true
	}

	var unknown []string
	seen := make(map[string]bool)
	for _, name := range referencedNames(t.Body) {
		if !declared[name] && !seen[name] {
			seen[name] = true
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return errors.ValidationError("body references undeclared variables").
			WithDetails(strings.Join(unknown, ", "))
	}

	return nil
}

// referencedNames returns every variable name the body refers to, through
// either a placeholder token or a conditional block.
func referencedNames(body string) []string {
	var names []string
	for _, m := range condRe.FindAllStringSubmatch(body, -1) {
		names = append(names, m[1])
	}
	// Strip conditional delimiters so {{#if x}} is not misread below, then
	// collect bare placeholders (including those inside block content).
	stripped := condRe.ReplaceAllString(body, "$2")
	for _, m := range placeholderRe.FindAllStringSubmatch(stripped, -1) {
		names = append(names, m[1])
	}
	return names
}

package template

import (
	"strings"
	"testing"

	"claudecast/internal/models"
)

// Every built-in must pass the same validation user templates are held to.
func TestBuiltinsValidate(t *testing.T) {
	seen := make(map[string]bool)
	for _, bt := range Builtins() {
		if err := Validate(bt); err != nil {
			t.Errorf("builtin %s fails validation: %v", bt.ID, err)
		}
		if seen[bt.ID] {
			t.Errorf("duplicate builtin id %s", bt.ID)
		}
		seen[bt.ID] = true
		if !bt.BuiltIn {
			t.Errorf("builtin %s not flagged BuiltIn", bt.ID)
		}
	}
}

func TestBuiltinsCoverEveryCategory(t *testing.T) {
	covered := make(map[models.Category]bool)
	for _, bt := range Builtins() {
		covered[bt.Category] = true
	}
	for _, c := range models.Categories() {
		if !covered[c] {
			t.Errorf("no builtin for category %s", c)
		}
	}
}

func TestBuiltinReturnsCopy(t *testing.T) {
	a, ok := Builtin("code-review")
	if !ok {
		t.Fatal("code-review builtin missing")
	}
	a.Name = "mutated"

	b, _ := Builtin("code-review")
	if b.Name == "mutated" {
		t.Error("Builtin() returned a shared instance")
	}
}

func TestBuiltinRenderWithValues(t *testing.T) {
	bt, ok := Builtin("debug-error")
	if !ok {
		t.Fatal("debug-error builtin missing")
	}

	got := Render(bt, map[string]string{
		"error_message": "panic: nil map write",
		"code":          "m[\"k\"] = 1",
	})

	if !strings.Contains(got, "panic: nil map write") {
		t.Errorf("error message missing from render: %q", got)
	}
	if !strings.Contains(got, "m[\"k\"] = 1") {
		t.Errorf("code block missing from render: %q", got)
	}
	// The context block was not filled in, so it must vanish entirely.
	if strings.Contains(got, "Context:") {
		t.Errorf("empty context block survived: %q", got)
	}
}

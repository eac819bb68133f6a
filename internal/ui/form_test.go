package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"claudecast/internal/models"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPrefillValue(t *testing.T) {
	snap := &models.Snapshot{
		ProjectPath:   "/work/app",
		GitBranch:     "main",
		ClipboardText: "pasted code",
		SelectedText:  "picked text",
		CurrentFile:   "/work/app/main.go",
	}

	tests := []struct {
		name string
		v    models.Variable
		want string
	}{
		{"by name wins", models.Variable{Name: "branch", Kind: models.VarText}, "main"},
		{"selection kind", models.Variable{Name: "snippet", Kind: models.VarSelection}, "picked text"},
		{"code falls back to clipboard", models.Variable{Name: "blob", Kind: models.VarCode}, "pasted code"},
		{"path prefers current file", models.Variable{Name: "target", Kind: models.VarPath}, "/work/app/main.go"},
		{"plain text gets nothing", models.Variable{Name: "question", Kind: models.VarText}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := prefillValue(tc.v, snap); got != tc.want {
				t.Errorf("prefillValue() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestPrefillValueNilSnapshot(t *testing.T) {
	v := models.Variable{Name: "snippet", Kind: models.VarSelection}
	if got := prefillValue(v, nil); got != "" {
		t.Errorf("prefillValue(nil snapshot) = %q, want empty", got)
	}
}

func TestPrefillValueSelectionFallsBackToClipboard(t *testing.T) {
	snap := &models.Snapshot{ClipboardText: "from clipboard"}
	v := models.Variable{Name: "snippet", Kind: models.VarSelection}
	if got := prefillValue(v, snap); got != "from clipboard" {
		t.Errorf("prefillValue() = %q, want clipboard fallback", got)
	}
}

func formTemplate() *models.Template {
	return &models.Template{
		ID:   "review",
		Name: "Code Review",
		Body: "Review {{target}} on {{branch}}",
		Variables: []models.Variable{
			{Name: "target", Kind: models.VarText},
			{Name: "branch", Kind: models.VarText},
		},
	}
}

func TestFormEnterAdvancesThenSubmits(t *testing.T) {
	f := NewVariableForm(formTemplate(), nil)

	f, _ = f.Update(keyMsg("enter"))
	if f.Submitted() {
		t.Fatal("enter on first field should advance, not submit")
	}
	if f.focus != 1 {
		t.Fatalf("focus = %d, want 1", f.focus)
	}

	f, _ = f.Update(keyMsg("enter"))
	if !f.Submitted() {
		t.Fatal("enter on last field should submit")
	}
}

func TestFormEscCancels(t *testing.T) {
	f := NewVariableForm(formTemplate(), nil)
	f, _ = f.Update(keyMsg("esc"))
	if !f.Cancelled() {
		t.Fatal("esc should cancel the form")
	}
}

func TestFormCtrlSSubmitsAnywhere(t *testing.T) {
	f := NewVariableForm(formTemplate(), nil)
	f, _ = f.Update(keyMsg("ctrl+s"))
	if !f.Submitted() {
		t.Fatal("ctrl+s should submit from any field")
	}
}

func TestFormTabCycles(t *testing.T) {
	f := NewVariableForm(formTemplate(), nil)
	f, _ = f.Update(keyMsg("tab"))
	if f.focus != 1 {
		t.Fatalf("focus after tab = %d, want 1", f.focus)
	}
	f, _ = f.Update(keyMsg("tab"))
	if f.focus != 0 {
		t.Fatalf("focus should wrap back to 0, got %d", f.focus)
	}
}

func TestFormTypedValuesCollected(t *testing.T) {
	f := NewVariableForm(formTemplate(), nil)
	for _, r := range "auth.go" {
		f, _ = f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	f, _ = f.Update(keyMsg("tab"))
	for _, r := range "main" {
		f, _ = f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	values := f.Values()
	if values["target"] != "auth.go" {
		t.Errorf("target = %q, want %q", values["target"], "auth.go")
	}
	if values["branch"] != "main" {
		t.Errorf("branch = %q, want %q", values["branch"], "main")
	}
}

func TestFormPrefilledFromSnapshot(t *testing.T) {
	snap := &models.Snapshot{GitBranch: "feature/login"}
	f := NewVariableForm(formTemplate(), snap)
	if got := f.Values()["branch"]; got != "feature/login" {
		t.Errorf("branch prefill = %q, want %q", got, "feature/login")
	}
}

func TestEmptyFormSubmitsOnEnter(t *testing.T) {
	tmpl := &models.Template{ID: "quick", Name: "Quick", Body: "Explain this project"}
	f := NewVariableForm(tmpl, nil)
	if !f.Empty() {
		t.Fatal("template without variables should produce an empty form")
	}
	f, _ = f.Update(keyMsg("enter"))
	if !f.Submitted() {
		t.Fatal("enter should submit an empty form")
	}
}

func TestCodeVariableGetsTextarea(t *testing.T) {
	tmpl := &models.Template{
		ID:   "explain",
		Name: "Explain",
		Body: "Explain:\n{{code}}",
		Variables: []models.Variable{
			{Name: "code", Kind: models.VarCode},
		},
	}
	f := NewVariableForm(tmpl, nil)
	if !f.fields[0].multiline {
		t.Fatal("code variable should use a multiline widget")
	}
}

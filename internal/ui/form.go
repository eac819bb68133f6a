package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"claudecast/internal/models"
)

// formField pairs a template variable with its input widget. Code and
// selection variables get a textarea, everything else a single-line
// input.
type formField struct {
	variable  models.Variable
	input     textinput.Model
	area      textarea.Model
	multiline bool
}

// VariableForm collects values for a template's variables before
// execution. Fields are pre-filled from the captured context snapshot.
type VariableForm struct {
	template *models.Template
	fields   []formField
	focus    int
	width    int

	submitted bool
	cancelled bool
}

// NewVariableForm builds a form for t, prefilled from snap.
func NewVariableForm(t *models.Template, snap *models.Snapshot) *VariableForm {
	f := &VariableForm{template: t}

	for _, v := range t.Variables {
		field := formField{variable: v}
		prefill := prefillValue(v, snap)

		switch v.Kind {
		case models.VarCode, models.VarSelection:
			area := textarea.New()
			area.Placeholder = v.Description
			area.SetHeight(5)
			area.CharLimit = 0
			if prefill != "" {
				area.SetValue(prefill)
			}
			field.area = area
			field.multiline = true
		default:
			input := textinput.New()
			input.Placeholder = v.Description
			input.CharLimit = 0
			if prefill != "" {
				input.SetValue(prefill)
			}
			field.input = input
		}
		f.fields = append(f.fields, field)
	}

	if len(f.fields) > 0 {
		f.setFocus(0)
	}
	return f
}

// prefillValue picks a snapshot value matching the variable, by name
// first and then by kind.
func prefillValue(v models.Variable, snap *models.Snapshot) string {
	if snap == nil {
		return ""
	}
	values := snap.Values()
	if val, ok := values[v.Name]; ok && val != "" {
		return val
	}
	switch v.Kind {
	case models.VarSelection:
		if snap.SelectedText != "" {
			return snap.SelectedText
		}
		return snap.ClipboardText
	case models.VarCode:
		return snap.ClipboardText
	case models.VarPath:
		if snap.CurrentFile != "" {
			return snap.CurrentFile
		}
		return snap.ProjectPath
	}
	return ""
}

// Empty reports whether the template has no variables to fill.
func (f *VariableForm) Empty() bool {
	return len(f.fields) == 0
}

// Submitted reports whether the user confirmed the form.
func (f *VariableForm) Submitted() bool { return f.submitted }

// Cancelled reports whether the user backed out.
func (f *VariableForm) Cancelled() bool { return f.cancelled }

// Values returns the entered variable values keyed by name.
func (f *VariableForm) Values() map[string]string {
	values := make(map[string]string, len(f.fields))
	for _, field := range f.fields {
		if field.multiline {
			values[field.variable.Name] = field.area.Value()
		} else {
			values[field.variable.Name] = field.input.Value()
		}
	}
	return values
}

// SetWidth resizes the input widgets.
func (f *VariableForm) SetWidth(width int) {
	f.width = width
	for i := range f.fields {
		if f.fields[i].multiline {
			f.fields[i].area.SetWidth(width - 6)
		} else {
			f.fields[i].input.Width = width - 6
		}
	}
}

// Update handles a message. Enter advances through single-line fields
// and submits from the last one; ctrl+s submits from anywhere, which is
// the only way out of a textarea without leaving it.
func (f *VariableForm) Update(msg tea.Msg) (*VariableForm, tea.Cmd) {
	if f.Empty() {
		if key, ok := msg.(tea.KeyMsg); ok {
			switch key.String() {
			case "enter", "ctrl+s":
				f.submitted = true
			case "esc":
				f.cancelled = true
			}
		}
		return f, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			f.cancelled = true
			return f, nil
		case "ctrl+s":
			f.submitted = true
			return f, nil
		case "tab", "shift+tab":
			dir := 1
			if key.String() == "shift+tab" {
				dir = -1
			}
			f.setFocus((f.focus + dir + len(f.fields)) % len(f.fields))
			return f, nil
		case "enter":
			if !f.fields[f.focus].multiline {
				if f.focus == len(f.fields)-1 {
					f.submitted = true
					return f, nil
				}
				f.setFocus(f.focus + 1)
				return f, nil
			}
		}
	}

	var cmd tea.Cmd
	if f.fields[f.focus].multiline {
		f.fields[f.focus].area, cmd = f.fields[f.focus].area.Update(msg)
	} else {
		f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	}
	return f, cmd
}

func (f *VariableForm) setFocus(i int) {
	for j := range f.fields {
		if f.fields[j].multiline {
			f.fields[j].area.Blur()
		} else {
			f.fields[j].input.Blur()
		}
	}
	f.focus = i
	if f.fields[i].multiline {
		f.fields[i].area.Focus()
	} else {
		f.fields[i].input.Focus()
	}
}

// View renders the form.
func (f *VariableForm) View() string {
	var b strings.Builder
	b.WriteString(StyleSubtitle.Render(f.template.Name))
	b.WriteString("\n\n")

	for i, field := range f.fields {
		label := field.variable.Name
		if i == f.focus {
			label = StyleSelected.Render(label)
		} else {
			label = StyleFormLabel.Render(label)
		}
		b.WriteString(label)
		b.WriteString("\n")
		if field.multiline {
			b.WriteString(field.area.View())
		} else {
			b.WriteString(field.input.View())
		}
		b.WriteString("\n\n")
	}

	b.WriteString(CreateHelp([]string{
		"enter/tab next field",
		"ctrl+s run",
		"esc back",
	}))
	return b.String()
}

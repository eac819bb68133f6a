package models

// Snapshot is the ambient context captured once per invocation. It is
// assembled fresh for each user action, never persisted, and discarded after
// the prompt is built. Every field is best-effort: an empty value means the
// probe found nothing.
type Snapshot struct {
	SelectedText   string
	ClipboardText  string
	ProjectPath    string
	CurrentFile    string
	GitBranch      string
	HasUncommitted bool
	FrontmostApp   string
}

// Values maps the snapshot onto the well-known variable names templates use
// for context prefill.
func (s Snapshot) Values() map[string]string {
	vals := make(map[string]string)
	if s.SelectedText != "" {
		vals["selection"] = s.SelectedText
	}
	if s.ClipboardText != "" {
		vals["clipboard"] = s.ClipboardText
	}
	if s.ProjectPath != "" {
		vals["project_path"] = s.ProjectPath
	}
	if s.CurrentFile != "" {
		vals["current_file"] = s.CurrentFile
	}
	if s.GitBranch != "" {
		vals["branch"] = s.GitBranch
	}
	return vals
}

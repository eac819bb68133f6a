package template

import "claudecast/internal/models"

// Builtins returns the compiled-in template set. Callers receive fresh
// copies; the definitions themselves are immutable.
func Builtins() []*models.Template {
	out := make([]*models.Template, len(builtins))
	for i := range builtins {
		t := builtins[i]
		out[i] = &t
	}
	return out
}

// Builtin returns the built-in template with the given id, if any.
func Builtin(id string) (*models.Template, bool) {
	for i := range builtins {
		if builtins[i].ID == id {
			t := builtins[i]
			return &t, true
		}
	}
	return nil, false
}

var builtins = []models.Template{
	{
		ID:       "feature-plan",
		Name:     "Plan a Feature",
		Category: models.CategoryPlanning,
		Model:    "opus",
		BuiltIn:  true,
		Variables: []models.Variable{
			{Name: "feature", Description: "What should be built", Kind: models.VarText},
			{Name: "code", Description: "Relevant existing code", Kind: models.VarCode, AllowFileRef: true},
			{Name: "constraints", Description: "Constraints or requirements", Kind: models.VarText},
		},
		Body: `Create an implementation plan for the following feature:

{{feature}}

{{#if code}}Relevant existing code:

{{code}}

{{/if}}{{#if constraints}}Constraints:
{{constraints}}

{{/if}}Break the work into ordered steps. For each step, name the files to touch, the risk involved, and how to verify it. Call out anything that needs a decision before work starts.`,
	},
	{
		ID:       "tdd-cycle",
		Name:     "Write Tests First",
		Category: models.CategoryTDD,
		BuiltIn:  true,
		Variables: []models.Variable{
			{Name: "behavior", Description: "Behavior to implement", Kind: models.VarText},
			{Name: "code", Description: "Code under test", Kind: models.VarCode, AllowFileRef: true},
			{Name: "framework", Description: "Test framework to use", Kind: models.VarText},
		},
		Body: `Write failing tests for this behavior before any implementation:

{{behavior}}

{{#if code}}Code under test:

{{code}}

{{/if}}{{#if framework}}Use {{framework}}.

{{/if}}Cover the happy path, edge cases, and error cases. Then implement the minimum code to make the tests pass, and note any behavior the tests intentionally leave unspecified.`,
	},
	{
		ID:       "code-review",
		Name:     "Review Code",
		Category: models.CategoryReview,
		BuiltIn:  true,
		Variables: []models.Variable{
			{Name: "code", Description: "Code to review", Kind: models.VarCode, AllowFileRef: true},
			{Name: "focus", Description: "Specific concerns to focus on", Kind: models.VarText},
		},
		Body: `Review the following code:

{{code}}

{{#if focus}}Focus on: {{focus}}

{{/if}}Report correctness issues first, then design concerns, then style. For every finding, include the line it refers to and a concrete fix. Finish with anything the code does well that should be kept.`,
	},
	{
		ID:       "review-diff",
		Name:     "Review Working Changes",
		Category: models.CategoryReview,
		BuiltIn:  true,
		Variables: []models.Variable{
			{Name: "diff", Description: "Uncommitted diff", Kind: models.VarCode},
			{Name: "branch", Description: "Current branch", Kind: models.VarText},
		},
		Body: `Review these uncommitted changes{{#if branch}} on branch {{branch}}{{/if}}:

{{diff}}

Flag bugs, missing error handling, and anything that will surprise a reviewer. If the diff mixes unrelated changes, say how to split it.`,
	},
	{
		ID:       "extract-refactor",
		Name:     "Refactor",
		Category: models.CategoryRefactoring,
		BuiltIn:  true,
		Variables: []models.Variable{
			{Name: "code", Description: "Code to refactor", Kind: models.VarCode, AllowFileRef: true},
			{Name: "goal", Description: "What the refactor should achieve", Kind: models.VarText},
		},
		Body: `Refactor the following code{{#if goal}} with this goal: {{goal}}{{/if}}

{{code}}

Preserve behavior exactly. Show the refactored code, then list each transformation applied and why it is safe.`,
	},
	{
		ID:       "debug-error",
		Name:     "Debug an Error",
		Category: models.CategoryDebugging,
		BuiltIn:  true,
		Variables: []models.Variable{
			{Name: "error_message", Description: "The error output", Kind: models.VarSelection},
			{Name: "code", Description: "Code that produced it", Kind: models.VarCode, AllowFileRef: true},
			{Name: "context", Description: "What you were doing", Kind: models.VarText},
		},
		Body: `Help me debug this error:

{{error_message}}

{{#if code}}The code involved:

{{code}}

{{/if}}{{#if context}}Context: {{context}}

{{/if}}Explain the most likely cause first, then less likely ones. For the top cause, give the exact fix and a way to confirm the diagnosis before applying it.`,
	},
	{
		ID:       "write-docs",
		Name:     "Write Documentation",
		Category: models.CategoryDocs,
		Model:    "haiku",
		BuiltIn:  true,
		Variables: []models.Variable{
			{Name: "code", Description: "Code to document", Kind: models.VarCode, AllowFileRef: true},
			{Name: "audience", Description: "Who the docs are for", Kind: models.VarText},
		},
		Body: `Write documentation for the following code:

{{code}}

{{#if audience}}Audience: {{audience}}

{{/if}}Cover what it does, how to use it with a runnable example, and any sharp edges. Keep it short enough to actually get read.`,
	},
	{
		ID:       "commit-message",
		Name:     "Draft a Commit Message",
		Category: models.CategoryAdvanced,
		Model:    "haiku",
		BuiltIn:  true,
		Variables: []models.Variable{
			{Name: "diff", Description: "Staged or working diff", Kind: models.VarCode},
			{Name: "branch", Description: "Current branch", Kind: models.VarText},
		},
		Body: `Draft a commit message for this diff{{#if branch}} (branch {{branch}}){{/if}}:

{{diff}}

One-line summary under 72 characters, then a body explaining what changed and why. Do not describe the diff line by line.`,
	},
	{
		ID:       "explain-project",
		Name:     "Explain This Project",
		Category: models.CategoryAdvanced,
		BuiltIn:  true,
		Variables: []models.Variable{
			{Name: "project_path", Description: "Project directory", Kind: models.VarPath, AllowDirectory: true},
			{Name: "question", Description: "What you want to know", Kind: models.VarText},
		},
		Body: `Explore the project at {{project_path}} and answer:

{{#if question}}{{question}}{{/if}}

Start from the entry points and build layout, then describe the parts relevant to the question. Quote file paths for everything you reference.`,
	},
}

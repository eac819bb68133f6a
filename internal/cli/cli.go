// Package cli provides the headless command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"claudecast/internal/agent"
	"claudecast/internal/clipboard"
	apperrors "claudecast/internal/errors"
	"claudecast/internal/models"
	"claudecast/internal/renderer"
	"claudecast/internal/service"
	"claudecast/internal/template"
	"claudecast/internal/terminal"
)

// CLI dispatches headless commands against the service layer.
type CLI struct {
	service  *service.Service
	renderer *renderer.Renderer
	handler  *apperrors.CLIErrorHandler
}

// NewCLI creates a new CLI instance.
func NewCLI(svc *service.Service) *CLI {
	return &CLI{
		service:  svc,
		renderer: renderer.New(renderer.IsTTY()),
		handler:  apperrors.NewCLIErrorHandler(svc.Logger(), false),
	}
}

// ExecuteCommand processes a CLI command and returns the result.
func (c *CLI) ExecuteCommand(args []string) error {
	if len(args) == 0 {
		return c.printUsage()
	}

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "ask":
		return c.ask(commandArgs)
	case "stream":
		return c.stream(commandArgs)
	case "run":
		return c.runTemplate(commandArgs)
	case "render":
		return c.render(commandArgs)
	case "templates", "ls":
		return c.listTemplates(commandArgs)
	case "template":
		return c.handleTemplate(commandArgs)
	case "projects":
		return c.listProjects(commandArgs)
	case "sessions":
		return c.listSessions(commandArgs)
	case "resume":
		return c.resume(commandArgs)
	case "open":
		return c.open(commandArgs)
	case "favorites":
		return c.handleFavorites(commandArgs)
	case "stats":
		return c.showStats(commandArgs)
	case "doctor":
		return c.doctor()
	case "help":
		return c.printUsage()
	default:
		return fmt.Errorf("unknown command: %s. Use 'help' for usage information", command)
	}
}

// ── Execution commands ─────

func (c *CLI) ask(args []string) error {
	var model, workDir, sessionID string
	var prompt []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--model", "-m":
			if i+1 < len(args) {
				model = args[i+1]
				i++
			}
		case "--dir", "-C":
			if i+1 < len(args) {
				workDir = args[i+1]
				i++
			}
		case "--resume", "-r":
			if i+1 < len(args) {
				sessionID = args[i+1]
				i++
			}
		default:
			prompt = append(prompt, args[i])
		}
	}
	if len(prompt) == 0 {
		return fmt.Errorf("usage: ask [--model m] [--dir d] [--resume id] <prompt>")
	}

	resp, err := c.service.ExecutePrompt(context.Background(), agent.Request{
		Prompt:    strings.Join(prompt, " "),
		Model:     model,
		WorkDir:   workDir,
		SessionID: sessionID,
	})
	if err != nil {
		return err
	}
	c.printResponse(resp)
	return nil
}

func (c *CLI) stream(args []string) error {
	var model, workDir string
	var prompt []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--model", "-m":
			if i+1 < len(args) {
				model = args[i+1]
				i++
			}
		case "--dir", "-C":
			if i+1 < len(args) {
				workDir = args[i+1]
				i++
			}
		default:
			prompt = append(prompt, args[i])
		}
	}
	if len(prompt) == 0 {
		return fmt.Errorf("usage: stream [--model m] [--dir d] <prompt>")
	}

	resp, err := c.service.StreamPrompt(context.Background(), agent.Request{
		Prompt:  strings.Join(prompt, " "),
		Model:   model,
		WorkDir: workDir,
	}, func(chunk string) {
		fmt.Print(chunk)
	})
	if err != nil {
		return err
	}
	fmt.Println()
	if footer := c.renderer.Footer(resp); footer != "" {
		fmt.Fprintln(os.Stderr, footer)
	}
	return nil
}

func (c *CLI) runTemplate(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: run <template-id> [--var name=value ...] [--dir d]")
	}
	id := args[0]
	values := make(map[string]string)
	var workDir string
	for i := 1; i < len(args); i++ {
		switch args[i] {
		case "--var", "-v":
			if i+1 < len(args) {
				name, value, ok := strings.Cut(args[i+1], "=")
				if !ok {
					return fmt.Errorf("invalid --var %q, expected name=value", args[i+1])
				}
				values[name] = value
				i++
			}
		case "--dir", "-C":
			if i+1 < len(args) {
				workDir = args[i+1]
				i++
			}
		}
	}

	resp, err := c.service.ExecuteTemplate(context.Background(), id, values, workDir)
	if err != nil {
		return err
	}
	c.printResponse(resp)
	return nil
}

func (c *CLI) render(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: render <template-id> [--var name=value ...]")
	}
	id := args[0]
	values := make(map[string]string)
	copyOut := false
	for i := 1; i < len(args); i++ {
		switch args[i] {
		case "--var", "-v":
			if i+1 < len(args) {
				name, value, ok := strings.Cut(args[i+1], "=")
				if !ok {
					return fmt.Errorf("invalid --var %q, expected name=value", args[i+1])
				}
				values[name] = value
				i++
			}
		case "--copy":
			copyOut = true
		}
	}

	out, err := c.service.RenderTemplate(id, values)
	if err != nil {
		return err
	}
	if copyOut {
		msg, err := clipboard.CopyWithFallback(out)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	}
	fmt.Println(out)
	return nil
}

func (c *CLI) printResponse(resp *agent.Response) {
	fmt.Println(c.renderer.Result(resp))
	if footer := c.renderer.Footer(resp); footer != "" {
		fmt.Fprintln(os.Stderr, footer)
	}
}

// ── Template library commands ──────

func (c *CLI) listTemplates(args []string) error {
	var format, query string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--format", "-f":
			if i+1 < len(args) {
				format = args[i+1]
				i++
			}
		default:
			query = args[i]
		}
	}

	templates, err := c.service.SearchTemplates(query)
	if err != nil {
		return err
	}

	if format == "json" {
		out, err := c.renderer.JSON(templates)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}

	favs, _ := c.service.Favorites()
	favorite := make(map[string]bool, len(favs))
	for _, id := range favs {
		favorite[id] = true
	}

	for _, t := range templates {
		marker := " "
		if favorite[t.ID] {
			marker = "★"
		}
		kind := "builtin"
		if !t.BuiltIn {
			kind = "custom"
		}
		fmt.Printf("%s %-20s %-12s %-8s %s\n", marker, t.ID, t.Category, kind, t.Name)
	}
	return nil
}

func (c *CLI) handleTemplate(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: template <show|create|delete|import|export> ...")
	}
	switch args[0] {
	case "show":
		return c.showTemplate(args[1:])
	case "create", "new":
		return c.createTemplate(args[1:])
	case "delete", "rm":
		return c.deleteTemplate(args[1:])
	case "import":
		return c.importTemplate(args[1:])
	case "export":
		return c.exportTemplate(args[1:])
	default:
		return fmt.Errorf("unknown template subcommand: %s", args[0])
	}
}

func (c *CLI) showTemplate(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: template show <id> [--format json]")
	}
	t, err := c.service.GetTemplate(args[0])
	if err != nil {
		return err
	}

	if len(args) > 2 && args[1] == "--format" && args[2] == "json" {
		out, err := c.renderer.JSON(t)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}

	fmt.Printf("ID:       %s\n", t.ID)
	fmt.Printf("Name:     %s\n", t.Name)
	fmt.Printf("Category: %s\n", t.Category)
	if t.Model != "" {
		fmt.Printf("Model:    %s\n", t.Model)
	}
	if len(t.Variables) > 0 {
		fmt.Println("Variables:")
		for _, v := range t.Variables {
			fmt.Printf("  %-12s %s (%s)\n", v.Name, v.Description, v.Kind)
		}
	}
	fmt.Println("---")
	fmt.Println(t.Body)
	return nil
}

func (c *CLI) createTemplate(args []string) error {
	t := &models.Template{Category: models.CategoryAdvanced}
	var body string
	fromStdin := false
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--name":
			if i+1 < len(args) {
				t.Name = args[i+1]
				i++
			}
		case "--category":
			if i+1 < len(args) {
				t.Category = models.Category(args[i+1])
				i++
			}
		case "--model":
			if i+1 < len(args) {
				t.Model = args[i+1]
				i++
			}
		case "--body":
			if i+1 < len(args) {
				body = args[i+1]
				i++
			}
		case "--var":
			if i+1 < len(args) {
				name, desc, _ := strings.Cut(args[i+1], "=")
				t.Variables = append(t.Variables, models.Variable{
					Name:        name,
					Description: desc,
					Kind:        models.VarText,
				})
				i++
			}
		case "--stdin":
			fromStdin = true
		}
	}

	if fromStdin {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
		body = string(data)
	}
	t.Body = body

	if err := c.service.SaveTemplate(t); err != nil {
		return err
	}
	fmt.Printf("Created template %s\n", t.ID)
	return nil
}

func (c *CLI) deleteTemplate(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: template delete <id>")
	}
	if err := c.service.DeleteTemplate(args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted template %s\n", args[0])
	return nil
}

func (c *CLI) importTemplate(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: template import <file.md|dir> | template import --commands [project-dir]")
	}

	if args[0] == "--commands" {
		projectPath := ""
		if len(args) > 1 {
			projectPath = args[1]
		}
		saved, errs, err := c.service.ImportSlashCommands(projectPath)
		if err != nil {
			return err
		}
		return c.reportImport(saved, errs)
	}

	info, err := os.Stat(args[0])
	if err != nil {
		return err
	}
	if info.IsDir() {
		saved, errs, err := c.service.ImportDirectory(args[0])
		if err != nil {
			return err
		}
		return c.reportImport(saved, errs)
	}

	t, err := c.service.ImportTemplate(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Imported template %s (%s)\n", t.ID, t.Name)
	return nil
}

func (c *CLI) reportImport(saved []*models.Template, errs []error) error {
	for _, t := range saved {
		fmt.Printf("Imported template %s (%s)\n", t.ID, t.Name)
	}
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "skipped: %v\n", e)
	}
	if len(saved) == 0 && len(errs) > 0 {
		return fmt.Errorf("nothing imported")
	}
	fmt.Printf("%d imported, %d skipped\n", len(saved), len(errs))
	return nil
}

func (c *CLI) exportTemplate(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: template export <id> <file.md>")
	}
	if err := c.service.ExportTemplate(args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("Exported %s to %s\n", args[0], args[1])
	return nil
}

// ── Projects and sessions ──────

func (c *CLI) listProjects(args []string) error {
	projects, err := c.service.Projects()
	if err != nil {
		return err
	}
	if len(args) > 0 && args[0] == "--format" && len(args) > 1 && args[1] == "json" {
		out, err := c.renderer.JSON(projects)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}

	for _, p := range projects {
		fmt.Printf("%-30s %3d sessions  last %s\n", p.Name, p.SessionCount,
			p.LastActivity.Format("2006-01-02 15:04"))
	}
	return nil
}

func (c *CLI) listSessions(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: sessions <project-path>")
	}
	project, err := c.findProject(args[0])
	if err != nil {
		return err
	}
	for _, s := range project.Sessions {
		preview := s.FirstUserMessage
		if preview == "" {
			preview = "(no user message)"
		}
		fmt.Printf("%-38s %3d msgs  %s  %s\n", s.ID, s.MessageCount,
			s.LastActivity.Format("2006-01-02 15:04"), preview)
	}
	return nil
}

func (c *CLI) resume(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: resume <session-id> [prompt]")
	}
	sess, err := c.findSession(args[0])
	if err != nil {
		return err
	}
	prompt := strings.Join(args[1:], " ")

	resp, err := c.service.Resume(context.Background(), sess, prompt)
	if err != nil {
		return err
	}
	if resp != nil {
		c.printResponse(resp)
	} else {
		fmt.Printf("Resumed session %s in a terminal window\n", sess.ID)
	}
	return nil
}

func (c *CLI) open(args []string) error {
	var dir string
	var prompt []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--dir", "-C":
			if i+1 < len(args) {
				dir = args[i+1]
				i++
			}
		default:
			prompt = append(prompt, args[i])
		}
	}
	if err := c.service.OpenInteractive(dir, strings.Join(prompt, " "), ""); err != nil {
		return err
	}
	fmt.Println("Opened an interactive session")
	return nil
}

func (c *CLI) findProject(path string) (*models.Project, error) {
	projects, err := c.service.Projects()
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].Path == path || projects[i].Name == path {
			return &projects[i], nil
		}
	}
	return nil, apperrors.NotFoundError(fmt.Sprintf("project %q", path))
}

func (c *CLI) findSession(id string) (*models.Session, error) {
	projects, err := c.service.Projects()
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		for i := range p.Sessions {
			if p.Sessions[i].ID == id || strings.HasPrefix(p.Sessions[i].ID, id) {
				return &p.Sessions[i], nil
			}
		}
	}
	return nil, apperrors.NotFoundError(fmt.Sprintf("session %q", id))
}

// ── Favorites and stats ───

func (c *CLI) handleFavorites(args []string) error {
	if len(args) > 0 {
		on, err := c.service.ToggleFavorite(args[0])
		if err != nil {
			return err
		}
		if on {
			fmt.Printf("Favorited %s\n", args[0])
		} else {
			fmt.Printf("Unfavorited %s\n", args[0])
		}
		return nil
	}

	favs, err := c.service.Favorites()
	if err != nil {
		return err
	}
	sort.Strings(favs)
	for _, id := range favs {
		fmt.Println(id)
	}
	return nil
}

func (c *CLI) showStats(args []string) error {
	force := false
	format := ""
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--refresh":
			force = true
		case "--format", "-f":
			if i+1 < len(args) {
				format = args[i+1]
				i++
			}
		}
	}

	report, err := c.service.Stats(force)
	if err != nil {
		return err
	}

	if format == "json" {
		out, err := c.renderer.JSON(report)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}

	fmt.Printf("%-10s %8s %14s %14s %10s\n", "", "msgs", "tokens in", "tokens out", "cost")
	rows := []struct {
		label    string
		messages int
		in, out  int64
		cost     float64
	}{
		{"today", report.Today.Messages, report.Today.InputTokens, report.Today.OutputTokens, report.Today.CostUSD},
		{"week", report.Week.Messages, report.Week.InputTokens, report.Week.OutputTokens, report.Week.CostUSD},
		{"month", report.Month.Messages, report.Month.InputTokens, report.Month.OutputTokens, report.Month.CostUSD},
		{"all time", report.AllTime.Messages, report.AllTime.InputTokens, report.AllTime.OutputTokens, report.AllTime.CostUSD},
	}
	for _, row := range rows {
		fmt.Printf("%-10s %8d %14d %14d %9.2f$\n", row.label, row.messages, row.in, row.out, row.cost)
	}

	if len(report.Projects) > 0 {
		fmt.Println("\nBy project:")
		for i, p := range report.Projects {
			if i >= 10 {
				break
			}
			fmt.Printf("  %-40s %8d msgs %9.2f$\n", p.Path, p.Totals.Messages, p.Totals.CostUSD)
		}
	}
	return nil
}

// ── Diagnostics ────

func (c *CLI) doctor() error {
	fmt.Println("claudecast doctor")

	if path, err := c.service.BinaryPath(); err == nil {
		fmt.Printf("  claude binary:   %s\n", path)
	} else {
		fmt.Println("  claude binary:   NOT FOUND")
		fmt.Println("                   install with: npm install -g @anthropic-ai/claude-code")
	}

	if clipboard.Available() {
		fmt.Println("  clipboard:       ok")
	} else {
		fmt.Println("  clipboard:       no utility found")
	}

	if apps := terminal.SupportedApps(); len(apps) > 0 {
		fmt.Printf("  terminal apps:   %s\n", strings.Join(apps, ", "))
	} else {
		fmt.Println("  terminal apps:   interactive hand-off not supported here")
	}

	templates, err := c.service.ListTemplates()
	if err != nil {
		return err
	}
	custom := 0
	for _, t := range templates {
		if !t.BuiltIn {
			custom++
		}
	}
	fmt.Printf("  templates:       %d builtin, %d custom\n", len(template.Builtins()), custom)

	projects, err := c.service.Projects()
	if err == nil {
		sessions := 0
		for _, p := range projects {
			sessions += p.SessionCount
		}
		fmt.Printf("  transcripts:     %d projects, %d sessions\n", len(projects), sessions)
	}
	return nil
}

func (c *CLI) printUsage() error {
	fmt.Println(`claudecast - Headless CLI mode

Usage: claudecast <command> [options]

Commands:
  ask <prompt>          Run a one-shot prompt
  stream <prompt>       Run a prompt with streaming output
  run <template-id>     Render a template and run it
  render <template-id>  Render a template without running it
  templates, ls         List templates (optionally fuzzy-filtered)
  template              Template management (show, create, delete, import, export);
                        import accepts a file, a directory, or --commands for
                        Claude slash commands
  projects              List projects with sessions
  sessions <project>    List sessions for a project
  resume <session-id>   Resume a session (headless with a prompt, interactive without)
  open                  Open an interactive session in a terminal
  favorites [id]        List favorites, or toggle one
  stats                 Show usage statistics
  doctor                Check the local setup
  help                  Show help

Common options:
  --model, -m           Model selector (sonnet, opus, haiku)
  --dir, -C             Project working directory
  --var, -v name=value  Template variable value
  --format, -f json     Machine-readable output

Use 'claudecast' with no arguments to start the interactive TUI.`)
	return nil
}

// HandleError prints err the way the CLI surfaces failures and returns a
// process exit code.
func (c *CLI) HandleError(err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintln(os.Stderr, c.handler.FormatError(err))
	if appErr := apperrors.GetAppError(err); appErr != nil && appErr.Code == apperrors.ErrCodeValidation {
		return 2
	}
	return 1
}

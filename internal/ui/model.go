// Package ui implements the interactive terminal interface: template
// browsing and execution, project and session browsing, and usage
// statistics.
package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"claudecast/internal/agent"
	"claudecast/internal/clipboard"
	apperrors "claudecast/internal/errors"
	"claudecast/internal/models"
	"claudecast/internal/service"
	"claudecast/internal/stats"
)

// createGlamourRenderer builds a markdown renderer matched to the
// terminal's background and color depth.
func createGlamourRenderer(wordWrap int) (*glamour.TermRenderer, error) {
	if style := os.Getenv("GLAMOUR_STYLE"); style != "" {
		return glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(wordWrap),
		)
	}

	profile := termenv.ColorProfile()
	var styleOption glamour.TermRendererOption
	if lipgloss.HasDarkBackground() {
		styleOption = glamour.WithStandardStyle("dark")
	} else {
		styleOption = glamour.WithStandardStyle("light")
	}
	if profile == termenv.Ascii {
		styleOption = glamour.WithAutoStyle()
	}

	return glamour.NewTermRenderer(
		styleOption,
		glamour.WithColorProfile(profile),
		glamour.WithWordWrap(wordWrap),
	)
}

// ViewMode represents the current view in the TUI.
type ViewMode int

const (
	ViewTemplates ViewMode = iota
	ViewVariableForm
	ViewExecuting
	ViewResult
	ViewProjects
	ViewSessions
	ViewStats
)

// Messages for async operations.

type templatesMsg struct {
	templates []models.Template
	err       error
}

type snapshotMsg struct {
	snap *models.Snapshot
}

type execDoneMsg struct {
	resp *agent.Response
	err  error
}

type streamChunkMsg struct {
	text string
}

type projectsMsg struct {
	projects []models.Project
	err      error
}

type statsMsg struct {
	report *stats.Report
	err    error
}

type statusExpiredMsg struct{}

// LibraryChangedMsg is sent from outside the program when the template
// store changes on disk, so the list can be reloaded.
type LibraryChangedMsg struct{}

func loadTemplatesCmd(svc *service.Service) tea.Cmd {
	return func() tea.Msg {
		templates, err := svc.SearchTemplates("")
		return templatesMsg{templates: templates, err: err}
	}
}

func captureSnapshotCmd(svc *service.Service) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg{snap: svc.Snapshot(context.Background(), "")}
	}
}

func streamTemplateCmd(svc *service.Service, id string, values map[string]string, workDir string, ch chan<- string) tea.Cmd {
	return func() tea.Msg {
		resp, err := svc.StreamTemplate(context.Background(), id, values, workDir, func(chunk string) {
			ch <- chunk
		})
		close(ch)
		return execDoneMsg{resp: resp, err: err}
	}
}

// waitChunkCmd relays one streamed chunk into the update loop, then
// re-arms itself until the channel closes.
func waitChunkCmd(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		text, ok := <-ch
		if !ok {
			return nil
		}
		return streamChunkMsg{text: text}
	}
}

func resumeCmd(svc *service.Service, sess models.Session) tea.Cmd {
	return func() tea.Msg {
		resp, err := svc.Resume(context.Background(), &sess, "")
		return execDoneMsg{resp: resp, err: err}
	}
}

func loadProjectsCmd(svc *service.Service) tea.Cmd {
	return func() tea.Msg {
		projects, err := svc.Projects()
		return projectsMsg{projects: projects, err: err}
	}
}

func loadStatsCmd(svc *service.Service, force bool) tea.Cmd {
	return func() tea.Msg {
		report, err := svc.Stats(force)
		return statsMsg{report: report, err: err}
	}
}

func clearStatusCmd() tea.Cmd {
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return statusExpiredMsg{}
	})
}

// KeyMap defines all key bindings.
type KeyMap struct {
	Enter    key.Binding
	Back     key.Binding
	Quit     key.Binding
	Projects key.Binding
	Stats    key.Binding
	Favorite key.Binding
	Copy     key.Binding
	Open     key.Binding
	Refresh  key.Binding
}

var keys = KeyMap{
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	Projects: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "projects"),
	),
	Stats: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "stats"),
	),
	Favorite: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "favorite"),
	),
	Copy: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "copy"),
	),
	Open: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "open in terminal"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "refresh"),
	),
}

// Model represents the TUI application state.
type Model struct {
	service  *service.Service
	viewMode ViewMode

	// UI components
	templateList list.Model
	projectList  list.Model
	sessionList  list.Model
	viewport     viewport.Model
	spin         spinner.Model
	keys         KeyMap

	// Data
	snapshot         *models.Snapshot
	selectedTemplate *models.Template
	selectedProject  *models.Project
	form             *VariableForm
	response         *agent.Response
	report           *stats.Report

	// Streaming execution state.
	chunks     chan string
	streamText strings.Builder

	glamourRenderer *glamour.TermRenderer
	errHandler      *apperrors.TUIErrorHandler

	width  int
	height int

	statusMsg  string
	statusKind string
	err        error
}

// NewModel creates a new TUI model.
func NewModel(svc *service.Service) (*Model, error) {
	initializeColors()

	delegate := list.NewDefaultDelegate()
	templateList := list.New(nil, delegate, 0, 0)
	templateList.Title = "Templates"
	templateList.SetShowStatusBar(false)

	projectList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	projectList.Title = "Projects"
	projectList.SetShowStatusBar(false)

	sessionList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	sessionList.Title = "Sessions"
	sessionList.SetShowStatusBar(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	renderer, err := createGlamourRenderer(80)
	if err != nil {
		return nil, err
	}

	return &Model{
		service:         svc,
		viewMode:        ViewTemplates,
		templateList:    templateList,
		projectList:     projectList,
		sessionList:     sessionList,
		spin:            sp,
		keys:            keys,
		glamourRenderer: renderer,
		errHandler:      apperrors.NewTUIErrorHandler(),
	}, nil
}

// Init loads templates and captures context in the background.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		loadTemplatesCmd(m.service),
		captureSnapshotCmd(m.service),
	)
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listHeight := msg.Height - 4
		m.templateList.SetSize(msg.Width, listHeight)
		m.projectList.SetSize(msg.Width, listHeight)
		m.sessionList.SetSize(msg.Width, listHeight)
		m.viewport = viewport.New(msg.Width-4, listHeight)
		if m.form != nil {
			m.form.SetWidth(msg.Width)
		}
		if renderer, err := createGlamourRenderer(msg.Width - 8); err == nil {
			m.glamourRenderer = renderer
		}
		if m.response != nil {
			m.viewport.SetContent(m.renderResult())
		}
		return m, nil

	case templatesMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		items := make([]list.Item, len(msg.templates))
		for i := range msg.templates {
			items[i] = msg.templates[i]
		}
		m.templateList.SetItems(items)
		return m, nil

	case snapshotMsg:
		m.snapshot = msg.snap
		return m, nil

	case streamChunkMsg:
		m.streamText.WriteString(msg.text)
		m.viewport.SetContent(m.streamText.String())
		m.viewport.GotoBottom()
		return m, waitChunkCmd(m.chunks)

	case execDoneMsg:
		if msg.err != nil {
			m.viewMode = ViewTemplates
			m.setError(msg.err)
			return m, nil
		}
		m.response = msg.resp
		if msg.resp == nil {
			// Interactive hand-off; nothing to show.
			m.viewMode = ViewTemplates
			m.setStatus("Opened in a terminal window", "success")
			return m, clearStatusCmd()
		}
		m.viewMode = ViewResult
		m.viewport.SetContent(m.renderResult())
		m.viewport.GotoTop()
		return m, nil

	case projectsMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		items := make([]list.Item, len(msg.projects))
		for i := range msg.projects {
			items[i] = msg.projects[i]
		}
		m.projectList.SetItems(items)
		return m, nil

	case statsMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.report = msg.report
		return m, nil

	case statusExpiredMsg:
		m.statusMsg = ""
		return m, nil

	case LibraryChangedMsg:
		return m, loadTemplatesCmd(m.service)

	case spinner.TickMsg:
		if m.viewMode == ViewExecuting {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.viewMode {
	case ViewTemplates:
		return m.updateTemplates(msg)
	case ViewVariableForm:
		return m.updateForm(msg)
	case ViewExecuting:
		// Only quit is available while a run is in flight.
		return m, nil
	case ViewResult:
		return m.updateResult(msg)
	case ViewProjects:
		return m.updateProjects(msg)
	case ViewSessions:
		return m.updateSessions(msg)
	case ViewStats:
		return m.updateStats(msg)
	}
	return m, nil
}

func (m *Model) updateTemplates(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The list's filter input owns most keys while filtering.
	if m.templateList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.templateList, cmd = m.templateList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Enter):
		t, ok := m.templateList.SelectedItem().(models.Template)
		if !ok {
			return m, nil
		}
		m.selectedTemplate = &t
		m.form = NewVariableForm(&t, m.snapshot)
		m.form.SetWidth(m.width)
		if m.form.Empty() {
			return m.startExecution(t.ID, nil)
		}
		m.viewMode = ViewVariableForm
		return m, nil
	case key.Matches(msg, m.keys.Projects):
		m.viewMode = ViewProjects
		return m, loadProjectsCmd(m.service)
	case key.Matches(msg, m.keys.Stats):
		m.viewMode = ViewStats
		return m, loadStatsCmd(m.service, false)
	case key.Matches(msg, m.keys.Favorite):
		if t, ok := m.templateList.SelectedItem().(models.Template); ok {
			on, err := m.service.ToggleFavorite(t.ID)
			if err != nil {
				m.setError(err)
				return m, nil
			}
			if on {
				m.setStatus("Favorited "+t.ID, "success")
			} else {
				m.setStatus("Unfavorited "+t.ID, "success")
			}
			return m, clearStatusCmd()
		}
		return m, nil
	case key.Matches(msg, m.keys.Open):
		if err := m.service.OpenInteractive(m.projectPath(), "", ""); err != nil {
			m.setError(err)
			return m, nil
		}
		m.setStatus("Opened an interactive session", "success")
		return m, clearStatusCmd()
	}

	var cmd tea.Cmd
	m.templateList, cmd = m.templateList.Update(msg)
	return m, cmd
}

func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)

	if m.form.Cancelled() {
		m.viewMode = ViewTemplates
		m.form = nil
		return m, nil
	}
	if m.form.Submitted() {
		return m.startExecution(m.selectedTemplate.ID, m.form.Values())
	}
	return m, cmd
}

func (m *Model) startExecution(id string, values map[string]string) (tea.Model, tea.Cmd) {
	m.viewMode = ViewExecuting
	m.streamText.Reset()
	m.chunks = make(chan string, 64)
	return m, tea.Batch(
		m.spin.Tick,
		streamTemplateCmd(m.service, id, values, m.projectPath(), m.chunks),
		waitChunkCmd(m.chunks),
	)
}

func (m *Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.viewMode = ViewTemplates
		return m, nil
	case key.Matches(msg, m.keys.Copy):
		if m.response != nil {
			if _, err := clipboard.CopyWithFallback(m.response.Result); err != nil {
				m.setError(err)
				return m, nil
			}
			m.setStatus("Copied to clipboard!", "success")
			return m, clearStatusCmd()
		}
		return m, nil
	case key.Matches(msg, m.keys.Open):
		if m.response != nil && m.response.SessionID != "" {
			if err := m.service.OpenInteractive(m.projectPath(), "", m.response.SessionID); err != nil {
				m.setError(err)
				return m, nil
			}
			m.setStatus("Continued in a terminal window", "success")
			return m, clearStatusCmd()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) updateProjects(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.projectList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.projectList, cmd = m.projectList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		m.viewMode = ViewTemplates
		return m, nil
	case key.Matches(msg, m.keys.Enter):
		p, ok := m.projectList.SelectedItem().(models.Project)
		if !ok {
			return m, nil
		}
		m.selectedProject = &p
		items := make([]list.Item, len(p.Sessions))
		for i := range p.Sessions {
			items[i] = p.Sessions[i]
		}
		m.sessionList.SetItems(items)
		m.sessionList.Title = "Sessions · " + p.Name
		m.viewMode = ViewSessions
		return m, nil
	case key.Matches(msg, m.keys.Open):
		if p, ok := m.projectList.SelectedItem().(models.Project); ok {
			if err := m.service.OpenInteractive(p.Path, "", ""); err != nil {
				m.setError(err)
				return m, nil
			}
			m.setStatus("Opened "+p.Name+" in a terminal window", "success")
			return m, clearStatusCmd()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.projectList, cmd = m.projectList.Update(msg)
	return m, cmd
}

func (m *Model) updateSessions(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.sessionList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.sessionList, cmd = m.sessionList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		m.viewMode = ViewProjects
		return m, nil
	case key.Matches(msg, m.keys.Enter):
		s, ok := m.sessionList.SelectedItem().(models.Session)
		if !ok {
			return m, nil
		}
		m.viewMode = ViewExecuting
		m.streamText.Reset()
		return m, tea.Batch(m.spin.Tick, resumeCmd(m.service, s))
	}

	var cmd tea.Cmd
	m.sessionList, cmd = m.sessionList.Update(msg)
	return m, cmd
}

func (m *Model) updateStats(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.viewMode = ViewTemplates
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		m.report = nil
		return m, loadStatsCmd(m.service, true)
	}
	return m, nil
}

func (m *Model) projectPath() string {
	if m.snapshot != nil {
		return m.snapshot.ProjectPath
	}
	return ""
}

func (m *Model) setError(err error) {
	m.err = err
	m.statusMsg = m.errHandler.FormatError(err)
	m.statusKind = "error"
}

func (m *Model) setStatus(text, kind string) {
	m.err = nil
	m.statusMsg = text
	m.statusKind = kind
}

func (m *Model) renderResult() string {
	if m.response == nil {
		return ""
	}
	rendered, err := m.glamourRenderer.Render(m.response.Result)
	if err != nil {
		return m.response.Result
	}
	return rendered
}

// View renders the current view.
func (m *Model) View() string {
	var body string
	switch m.viewMode {
	case ViewTemplates:
		body = m.templateList.View() + "\n" + m.templatesFooter()
	case ViewVariableForm:
		body = StyleContainer.Render(m.form.View())
	case ViewExecuting:
		head := m.spin.View() + " Running claude..."
		if m.streamText.Len() > 0 {
			body = StyleContainer.Render(head) + "\n" + m.viewport.View()
		} else {
			body = StyleContainer.Render(head + "\n\n" + StyleDim.Render("waiting for the first response"))
		}
	case ViewResult:
		body = m.resultView()
	case ViewProjects:
		body = m.projectList.View() + "\n" + CreateHelp([]string{
			"enter sessions", "o open in terminal", "esc back",
		})
	case ViewSessions:
		body = m.sessionList.View() + "\n" + CreateHelp([]string{
			"enter resume", "esc back",
		})
	case ViewStats:
		body = m.statsView()
	}

	if m.statusMsg != "" {
		body += "\n" + CreateStatus(m.statusMsg, m.statusKind)
	}
	return body
}

func (m *Model) templatesFooter() string {
	parts := []string{"enter run", "/ filter", "f favorite", "p projects", "s stats", "o terminal", "ctrl+c quit"}
	footer := CreateHelp(parts)
	if m.snapshot != nil && m.snapshot.GitBranch != "" {
		footer = CreateGitStatus(m.snapshot.GitBranch, m.snapshot.HasUncommitted) + "  " + footer
	}
	return footer
}

func (m *Model) resultView() string {
	header := CreateHeader("esc", "Result")
	footer := ""
	if m.response != nil {
		var parts []string
		if m.response.TotalCostUSD > 0 {
			parts = append(parts, fmt.Sprintf("$%.4f", m.response.TotalCostUSD))
		}
		if m.response.SessionID != "" {
			parts = append(parts, "session "+m.response.SessionID)
		}
		parts = append(parts, "c copy", "o continue in terminal")
		footer = CreateHelp(parts)
	}
	return header + "\n" + m.viewport.View() + "\n" + footer
}

func (m *Model) statsView() string {
	header := CreateHeader("esc", "Usage")
	if m.report == nil {
		return header + "\n\n" + StyleMuted.Render("  computing...")
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")

	row := func(label string, t stats.Totals) {
		b.WriteString(fmt.Sprintf("  %-10s %6d msgs %12d in %12d out  $%.2f\n",
			label, t.Messages, t.InputTokens, t.OutputTokens, t.CostUSD))
	}
	row("today", m.report.Today)
	row("week", m.report.Week)
	row("month", m.report.Month)
	row("all time", m.report.AllTime)

	if len(m.report.Projects) > 0 {
		b.WriteString("\n" + StyleSubtitle.Render("By project") + "\n")
		for i, p := range m.report.Projects {
			if i >= 8 {
				break
			}
			b.WriteString(fmt.Sprintf("  %-42s $%.2f\n", p.Path, p.Totals.CostUSD))
		}
	}

	b.WriteString("\n" + CreateHelp([]string{"R refresh", "esc back"}))
	return b.String()
}

package tui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/robby/pmdash/internal/dialog"
	"github.com/robby/pmdash/internal/domain"
	"github.com/robby/pmdash/internal/logging"
)

// Layout constants
const (
	leftPanelRatio = 0.35
	minLeftWidth   = 30
	maxLeftWidth   = 48
	headerHeight   = 1
	footerHeight   = 1
	borderSize     = 2
)

var (
	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205"))

	detailLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))

	detailValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	panelBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	focusedPanelBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("205"))
)

var (
	mdRendererMu sync.Mutex
	// Renderers keyed by wrap width. A fixed style avoids terminal background queries.
	mdRenderers = map[int]*glamour.TermRenderer{}
)

// renderMarkdown renders a project description, falling back to plain
// wrapped text when glamour fails.
func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}

	mdRendererMu.Lock()
	defer mdRendererMu.Unlock()

	r := mdRenderers[width]
	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return wordwrap.String(md, width)
		}
		mdRenderers[width] = rr
		r = rr
	}

	out, err := r.Render(md)
	if err != nil {
		return wordwrap.String(md, width)
	}
	return strings.TrimRight(out, "\n")
}

// DetailModel shows one project with its rendered description.
type DetailModel struct {
	deps Deps
	id   string

	project *domain.ProjectWithClient
	loading bool
	err     error

	spinner  spinner.Model
	viewport viewport.Model

	width  int
	height int
}

// NewDetailModel creates a detail view for the project with the given ID.
func NewDetailModel(deps Deps, id string) DetailModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	vp := viewport.New(40, 10) // resized in WindowSizeMsg
	vp.MouseWheelEnabled = true
	vp.MouseWheelDelta = 3

	return DetailModel{
		deps:     deps,
		id:       id,
		loading:  true,
		spinner:  sp,
		viewport: vp,
	}
}

// Init loads the project fresh from the backend.
func (m DetailModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.WindowSize(), m.loadProject())
}

func (m DetailModel) loadProject() tea.Cmd {
	deps, id := m.deps, m.id
	return func() tea.Msg {
		ctx, cancel := deps.requestContext()
		defer cancel()
		p, err := deps.Source.GetProject(ctx, id)
		return projectDetailMsg{project: p, err: err}
	}
}

// Update handles messages
func (m DetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeComponents()
		return m, nil

	case projectDetailMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.deps.log().Error().Err(msg.err).Str(logging.EVENT, "get_project").Str(logging.ID, m.id).Msg("load failed")
			return m, nil
		}
		p := msg.project
		m.project = &p
		m.updateViewportContent()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m DetailModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		return m, func() tea.Msg { return closeDetailMsg{} }
	case "o":
		url := projectURL(m.deps.SiteURL, m.id)
		if err := openURL(url); err != nil {
			m.deps.log().Warn().Err(err).Str("url", url).Msg("open browser failed")
		}
	case "e":
		if m.project != nil {
			payload := editPayload(*m.project)
			return m, func() tea.Msg {
				return openDialogMsg{action: dialog.ActionNewProject, payload: payload}
			}
		}
	case "r":
		m.loading = true
		m.err = nil
		return m, tea.Batch(m.spinner.Tick, m.loadProject())
	case "j", "down":
		m.viewport.LineDown(1)
	case "k", "up":
		m.viewport.LineUp(1)
	case "ctrl+d":
		m.viewport.HalfViewDown()
	case "ctrl+u":
		m.viewport.HalfViewUp()
	case "g":
		m.viewport.GotoTop()
	case "G":
		m.viewport.GotoBottom()
	}
	return m, nil
}

func (m DetailModel) panelWidths(width int) (int, int) {
	left := int(float64(width) * leftPanelRatio)
	if left < minLeftWidth {
		left = minLeftWidth
	}
	if left > maxLeftWidth {
		left = maxLeftWidth
	}
	right := width - left - 1
	if right < 30 {
		right = 30
	}
	return left, right
}

func (m *DetailModel) resizeComponents() {
	_, right := m.panelWidths(m.width)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 10 {
		contentHeight = 10
	}
	m.viewport.Width = right - borderSize - 2
	m.viewport.Height = contentHeight - borderSize - 1 // panel title line
	if m.project != nil {
		m.updateViewportContent()
	}
}

func (m *DetailModel) updateViewportContent() {
	tr := m.deps.Translator
	body := renderMarkdown(m.project.DescriptionOrEmpty(), m.viewport.Width-2)
	if body == "" {
		body = dimStyle.Render(tr.T("Message.no_data"))
	}
	m.viewport.SetContent(body)
}

// View renders the split-screen detail view
func (m DetailModel) View() string {
	tr := m.deps.Translator
	width, height := m.width, m.height
	if width == 0 {
		width = defaultViewWidth
	}
	if height == 0 {
		height = 30
	}

	header := dimStyle.Render("[q]back [o]" + tr.T("Common.open_in_browser") + " [e]" + tr.T("Common.edit") + " [r]refresh [j/k]scroll")

	switch {
	case m.loading:
		return lipgloss.JoinVertical(lipgloss.Left, header, m.spinner.View()+" "+tr.T("Message.loading"))
	case m.err != nil:
		return lipgloss.JoinVertical(lipgloss.Left, header, ErrorStyle.Render("Error: "+m.err.Error()))
	}

	left, right := m.panelWidths(width)
	contentHeight := height - headerHeight - footerHeight
	if contentHeight < 10 {
		contentHeight = 10
	}

	leftPanel := panelBorderStyle.
		Width(left - borderSize).
		Height(contentHeight - borderSize).
		Render(m.renderInfo(left - borderSize))

	rightContent := detailLabelStyle.Render(tr.T("Common.description")) + "\n" + m.viewport.View()
	rightPanel := focusedPanelBorderStyle.
		Width(right - borderSize).
		Height(contentHeight - borderSize).
		Render(rightContent)

	panels := lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, " ", rightPanel)
	return lipgloss.JoinVertical(lipgloss.Left, header, panels, m.renderFooter())
}

func (m DetailModel) renderInfo(width int) string {
	tr := m.deps.Translator
	p := m.project
	var b strings.Builder

	b.WriteString(detailLabelStyle.Render(tr.T("Dashboard.project_detail")))
	b.WriteString("\n\n")
	b.WriteString(detailTitleStyle.Render(wordwrap.String(p.Name, width-2)))
	b.WriteString("\n\n")

	client := p.ClientName()
	if client == "" {
		client = "-"
	}
	row := func(label, value string, style lipgloss.Style) {
		b.WriteString(detailLabelStyle.Render(label + ": "))
		b.WriteString(style.Render(value))
		b.WriteString("\n")
	}
	row(tr.T("Common.client"), client, detailValueStyle)
	row(tr.T("Common.status"), tr.StatusLabel(string(p.Status)), statusBadgeStyle(p.Status))
	row(tr.T("Common.start_date"), tr.FormatLongDate(p.StartDate), detailValueStyle)
	row(tr.T("Common.end_date"), tr.FormatLongDate(p.EndDate), detailValueStyle)
	created := domain.NewDate(p.CreatedAt.Year(), p.CreatedAt.Month(), p.CreatedAt.Day())
	row(tr.T("Common.created_at"), tr.FormatLongDate(&created), detailValueStyle)

	return b.String()
}

func (m DetailModel) renderFooter() string {
	if m.viewport.TotalLineCount() <= m.viewport.Height {
		return ""
	}
	switch {
	case m.viewport.AtTop():
		return dimStyle.Render("TOP")
	case m.viewport.AtBottom():
		return dimStyle.Render("END")
	}
	return dimStyle.Render(fmt.Sprintf("%d%%", int(m.viewport.ScrollPercent()*100)))
}

package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/browser"

	"github.com/robby/pmdash/internal/dialog"
	"github.com/robby/pmdash/internal/domain"
	"github.com/robby/pmdash/internal/forms"
	"github.com/robby/pmdash/internal/logging"
	"github.com/robby/pmdash/internal/rowmodel"
	"github.com/robby/pmdash/internal/store"
)

// openURL is swapped out in tests.
var openURL = browser.OpenURL

// DashboardModel is the project list with summary widgets and the dialog host.
type DashboardModel struct {
	deps Deps

	// UI components
	keymap      KeyMap
	help        HelpModel
	spinner     spinner.Model
	searchInput textinput.Model

	// Overlays
	picker *PickerModel
	form   dialogForm

	// View state
	width      int
	height     int
	cursor     int // selected row within the page
	showHelp   bool
	searchMode bool
	toast      string
	toastErr   bool
}

// NewDashboardModel creates the dashboard.
func NewDashboardModel(deps Deps) DashboardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = deps.Translator.T("Common.search")
	ti.Prompt = "/ "
	ti.SetValue(deps.Store.State().SearchTerm)

	return DashboardModel{
		deps:        deps,
		keymap:      DefaultKeyMap(),
		help:        NewHelpModel(DefaultKeyMap(), deps.Translator.T("Common.keyboard_shortcuts")),
		spinner:     sp,
		searchInput: ti,
	}
}

// Init starts the first fetch.
func (m DashboardModel) Init() tea.Cmd {
	seq := m.deps.Store.BeginFetch()
	return tea.Batch(m.spinner.Tick, tea.WindowSize(), m.fetchProjects(seq))
}

// fetchProjects issues the fetch numbered seq. Results of superseded
// fetches are dropped in Update.
func (m DashboardModel) fetchProjects(seq uint64) tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		ctx, cancel := deps.requestContext()
		defer cancel()
		projects, err := deps.Source.ListProjects(ctx)
		return projectsLoadedMsg{seq: seq, projects: projects, err: err}
	}
}

// refreshCmd marks a fetch as outstanding and returns the command issuing it.
func (m DashboardModel) refreshCmd() tea.Cmd {
	seq := m.deps.Store.BeginFetch()
	return tea.Batch(m.spinner.Tick, m.fetchProjects(seq))
}

func (m DashboardModel) refresh() (DashboardModel, tea.Cmd) {
	return m, m.refreshCmd()
}

// Update handles messages
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case projectsLoadedMsg:
		log := m.deps.log()
		if !m.deps.Store.IsLatestFetch(msg.seq) {
			log.Debug().Str(logging.EVENT, "fetch_projects").Uint64("seq", msg.seq).Msg("dropping superseded fetch result")
			return m, nil
		}
		if msg.err != nil {
			m.deps.Store.FetchFailed(msg.err)
			log.Error().Err(msg.err).Str(logging.EVENT, "fetch_projects").Msg("fetch failed")
			return m, nil
		}
		m.deps.Store.SetProjects(msg.projects)
		log.Debug().Str(logging.EVENT, "fetch_projects").Int("count", len(msg.projects)).Msg("projects loaded")
		m.clampCursor()
		return m, nil

	case spinner.TickMsg:
		var cmds []tea.Cmd
		if status, _ := m.deps.Store.FetchStatus(); status == store.FetchLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		if m.form != nil {
			var cmd tea.Cmd
			m.form, cmd = m.form.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case openDialogMsg:
		return m.openDialog(msg.action, msg.payload)

	case dialogClosedMsg:
		m.deps.Dialog.Close()
		m.form = nil
		return m, nil

	case projectSavedMsg:
		m.deps.Dialog.Close()
		m.form = nil
		m.toast, m.toastErr = m.deps.Translator.T("Message.success"), false
		m.deps.log().Info().Str(logging.EVENT, "save_project").Str(logging.ID, msg.project.ID).
			Bool("edited", msg.edited).Msg("project saved")
		return m.refresh()

	case projectSaveFailedMsg:
		m.toast, m.toastErr = m.deps.Translator.T("Message.error"), true
		m.deps.log().Error().Err(msg.err).Str(logging.EVENT, "save_project").Msg("save failed")
		if m.form != nil {
			var cmd tea.Cmd
			m.form, cmd = m.form.Update(msg)
			return m, cmd
		}
		return m, nil

	case PickedMsg:
		m.picker = nil
		return m.handlePicked(msg)

	case pickerClosedMsg:
		m.picker = nil
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	if m.form != nil {
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}
	if m.searchMode {
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKeyPress processes keyboard input
func (m DashboardModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// The dialog owns the keyboard while open
	if m.form != nil {
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}

	if m.picker != nil {
		p, cmd := m.picker.Update(msg)
		m.picker = &p
		return m, cmd
	}

	if m.showHelp {
		if msg.String() == "?" || msg.String() == "q" || msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}

	if m.searchMode {
		return m.handleSearchKey(msg)
	}

	m.toast = ""
	s := m.deps.Store

	switch {
	case key.Matches(msg, m.keymap.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Help):
		m.showHelp = true
	case key.Matches(msg, m.keymap.Search):
		m.searchMode = true
		m.searchInput.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keymap.Status):
		return m.openStatusPicker()
	case key.Matches(msg, m.keymap.Sort):
		idx := int(msg.Runes[0] - '1')
		if idx >= 0 && idx < len(rowmodel.SortableColumns) {
			s.ToggleSort(rowmodel.SortableColumns[idx])
		}
	case key.Matches(msg, m.keymap.ToggleView):
		mode := store.ViewGrid
		if s.ViewMode() == store.ViewGrid {
			mode = store.ViewTable
		}
		_ = s.SetViewMode(mode)
	case key.Matches(msg, m.keymap.PrevPage):
		s.PrevPage()
		m.cursor = 0
	case key.Matches(msg, m.keymap.NextPage):
		s.NextPage()
		m.cursor = 0
	case key.Matches(msg, m.keymap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keymap.Down):
		m.cursor++
		m.clampCursor()
	case key.Matches(msg, m.keymap.Top):
		m.cursor = 0
	case key.Matches(msg, m.keymap.Bottom):
		m.cursor = len(s.RowModel().Rows) - 1
		m.clampCursor()
	case key.Matches(msg, m.keymap.Refresh):
		return m.refresh()
	case key.Matches(msg, m.keymap.View):
		if p, ok := m.selectedProject(); ok {
			id := p.ID
			return m, func() tea.Msg { return openDetailMsg{id: id} }
		}
	case key.Matches(msg, m.keymap.Open):
		if p, ok := m.selectedProject(); ok {
			m.openInBrowser(p.ID)
		}
	case key.Matches(msg, m.keymap.NewProject):
		return m.openDialog(dialog.ActionNewProject, nil)
	case key.Matches(msg, m.keymap.QuickActions):
		return m.openQuickActions()
	case key.Matches(msg, m.keymap.RowActions):
		return m.openRowActions()
	default:
		// alt+1..alt+5 open a quick action directly
		if msg.Alt && len(msg.Runes) == 1 && msg.Runes[0] >= '1' && msg.Runes[0] <= '9' {
			idx := int(msg.Runes[0] - '1')
			if idx < len(dialog.QuickActions) {
				return m.openDialog(dialog.QuickActions[idx], nil)
			}
		}
	}

	return m, nil
}

// handleSearchKey updates the search term as the user types.
func (m DashboardModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.searchInput.Blur()
		return m, nil
	case "esc":
		m.searchMode = false
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.deps.Store.SetSearchTerm("")
		m.cursor = 0
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	before := m.deps.Store.State().SearchTerm
	m.deps.Store.SetSearchTerm(m.searchInput.Value())
	if before != m.searchInput.Value() {
		m.cursor = 0
	}
	return m, cmd
}

func (m DashboardModel) openStatusPicker() (tea.Model, tea.Cmd) {
	tr := m.deps.Translator
	items := []pickerItem{{value: domain.StatusAll, label: tr.StatusLabel(domain.StatusAll)}}
	for _, st := range domain.Statuses {
		items = append(items, pickerItem{value: string(st), label: tr.StatusLabel(string(st))})
	}
	p := NewPickerModel(pickerStatus, tr.T("Common.select_status"), items, m.deps.Store.State().StatusFilter)
	m.picker = &p
	return m, nil
}

func (m DashboardModel) openQuickActions() (tea.Model, tea.Cmd) {
	tr := m.deps.Translator
	items := make([]pickerItem, 0, len(dialog.QuickActions))
	for _, a := range dialog.QuickActions {
		items = append(items, pickerItem{value: a.String(), label: tr.T(quickActionLabel(a))})
	}
	p := NewPickerModel(pickerQuickAction, tr.T("Dashboard.quick_actions"), items, "")
	m.picker = &p
	return m, nil
}

func (m DashboardModel) openRowActions() (tea.Model, tea.Cmd) {
	p, ok := m.selectedProject()
	if !ok {
		return m, nil
	}
	tr := m.deps.Translator
	items := []pickerItem{
		{value: rowActionView, label: tr.T("Common.view_details")},
		{value: rowActionEdit, label: tr.T("Common.edit")},
		{value: rowActionDelete, label: tr.T("Common.delete")},
	}
	picker := NewPickerModel(pickerRowAction, p.Name, items, "")
	m.picker = &picker
	return m, nil
}

func (m DashboardModel) handlePicked(msg PickedMsg) (tea.Model, tea.Cmd) {
	switch msg.Kind {
	case pickerStatus:
		if err := m.deps.Store.SetStatusFilter(msg.Value); err != nil {
			m.toast, m.toastErr = err.Error(), true
			return m, nil
		}
		m.cursor = 0
		return m, nil

	case pickerQuickAction:
		action, err := dialog.ParseAction(msg.Value)
		if err != nil {
			return m, nil
		}
		return m.openDialog(action, nil)

	case pickerRowAction:
		p, ok := m.selectedProject()
		if !ok {
			return m, nil
		}
		switch msg.Value {
		case rowActionView:
			id := p.ID
			return m, func() tea.Msg { return openDetailMsg{id: id} }
		case rowActionEdit:
			return m.openDialog(dialog.ActionNewProject, editPayload(p))
		case rowActionDelete:
			m.toast, m.toastErr = m.deps.Translator.T("Message.delete_unavailable"), false
		}
	}
	return m, nil
}

// openDialog records the intent and mounts the matching form, if any.
func (m DashboardModel) openDialog(action dialog.Action, payload dialog.Payload) (tea.Model, tea.Cmd) {
	m.deps.Dialog.Open(action, payload)
	m.form = newDialogForm(m.deps.Dialog.Snapshot(), m.deps)
	m.picker = nil
	if m.form == nil {
		return m, nil
	}
	m.deps.log().Debug().Str(logging.EVENT, "open_dialog").Str("action", action.String()).Msg("dialog opened")
	return m, m.form.Init()
}

// editPayload prefills the project dialog from an existing project.
func editPayload(p domain.ProjectWithClient) dialog.Payload {
	payload := dialog.Payload{
		PayloadID:              p.ID,
		forms.FieldName:        p.Name,
		forms.FieldStatus:      string(p.Status),
		forms.FieldDescription: p.DescriptionOrEmpty(),
	}
	if p.ClientID != nil {
		payload[forms.FieldClientID] = *p.ClientID
	}
	if p.StartDate != nil {
		payload[forms.FieldStartDate] = p.StartDate.String()
	}
	if p.EndDate != nil {
		payload[forms.FieldEndDate] = p.EndDate.String()
	}
	return payload
}

func (m DashboardModel) openInBrowser(id string) {
	url := projectURL(m.deps.SiteURL, id)
	if err := openURL(url); err != nil {
		m.deps.log().Warn().Err(err).Str("url", url).Msg("open browser failed")
	}
}

func projectURL(siteURL, id string) string {
	return strings.TrimRight(siteURL, "/") + "/projects/" + id
}

func (m DashboardModel) selectedProject() (domain.ProjectWithClient, bool) {
	rows := m.deps.Store.RowModel().Rows
	if m.cursor < 0 || m.cursor >= len(rows) {
		return domain.ProjectWithClient{}, false
	}
	return rows[m.cursor], true
}

func (m *DashboardModel) clampCursor() {
	n := len(m.deps.Store.RowModel().Rows)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// effectiveViewMode forces the grid on narrow terminals.
func (m DashboardModel) effectiveViewMode() store.ViewMode {
	if m.width > 0 && m.width < narrowWidth {
		return store.ViewGrid
	}
	return m.deps.Store.ViewMode()
}

// View renders the dashboard
func (m DashboardModel) View() string {
	width := m.width
	if width == 0 {
		width = defaultViewWidth
	}
	tr := m.deps.Translator
	s := m.deps.Store

	var sections []string
	sections = append(sections, m.renderHeader(width))
	sections = append(sections, RenderStats(s.Stats(), tr, width))

	if m.searchMode {
		sections = append(sections, m.searchInput.View())
	}

	var main string
	status, fetchErr := s.FetchStatus()
	switch {
	case m.form != nil:
		main = lipgloss.PlaceHorizontal(width, lipgloss.Center, m.form.View(width))
	case m.picker != nil:
		main = m.picker.View()
	case m.showHelp:
		main = m.help.View(width)
	case status == store.FetchLoading && len(s.Projects()) == 0:
		main = m.spinner.View() + " " + tr.T("Message.loading")
	case status == store.FetchFailed:
		main = ErrorStyle.Render(tr.Tf("Message.fetch_failed", map[string]any{"error": fetchErr})) +
			"\n" + dimStyle.Render(tr.T("Message.retry_hint"))
	default:
		rm := s.RowModel()
		if m.effectiveViewMode() == store.ViewGrid {
			main = RenderGrid(rm, tr, width, m.cursor)
		} else {
			main = RenderTable(rm, tr, width, m.cursor)
		}
		if footer := RenderPagination(rm, tr); footer != "" {
			main += "\n\n" + footer
		}
	}
	sections = append(sections, main)

	sections = append(sections, m.renderFooter(width))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the title with the active search and filter on the right.
func (m DashboardModel) renderHeader(width int) string {
	tr := m.deps.Translator
	st := m.deps.Store.State()

	title := tr.T("Dashboard.project_management")

	var parts []string
	if status, _ := m.deps.Store.FetchStatus(); status == store.FetchLoading && len(m.deps.Store.Projects()) > 0 {
		parts = append(parts, m.spinner.View()+tr.T("Message.loading"))
	}
	if st.SearchTerm != "" {
		parts = append(parts, "/"+st.SearchTerm)
	}
	parts = append(parts, tr.T("Common.status")+": "+tr.StatusLabel(st.StatusFilter))
	view := tr.T("Common.list")
	if m.effectiveViewMode() == store.ViewGrid {
		view = tr.T("Common.grid")
	}
	parts = append(parts, view)
	right := strings.Join(parts, " | ")

	padding := width - lipgloss.Width(title) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}
	return TitleStyle.UnsetMarginBottom().Render(title) + strings.Repeat(" ", padding) + dimStyle.Render(right) +
		"\n" + dimStyle.Render(tr.T("Dashboard.project_management_desc"))
}

// renderFooter shows the toast, or the short key help.
func (m DashboardModel) renderFooter(width int) string {
	if m.toast != "" {
		if m.toastErr {
			return ErrorStyle.Render("✗ " + m.toast)
		}
		return SuccessStyle.Render("✓ " + m.toast)
	}
	return m.help.ShortView(width, m.searchMode)
}

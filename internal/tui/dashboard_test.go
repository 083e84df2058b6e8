package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/robby/pmdash/internal/backend/mocks"
	"github.com/robby/pmdash/internal/dialog"
	"github.com/robby/pmdash/internal/domain"
	"github.com/robby/pmdash/internal/i18n"
	"github.com/robby/pmdash/internal/rowmodel"
	"github.com/robby/pmdash/internal/store"
)

// createTestDeps wires a dashboard against a mock source.
func createTestDeps(t *testing.T, src *mocks.Source) Deps {
	t.Helper()
	return Deps{
		Source:      src,
		Store:       store.New(5),
		Dialog:      dialog.NewStore(),
		Translator:  i18n.MustNew("en"),
		Logger:      zerolog.Nop(),
		SessionPath: t.TempDir() + "/session.json",
		SiteURL:     "http://localhost:3000",
	}
}

// createLoadedDashboard returns a dashboard that has received the test projects.
func createLoadedDashboard(t *testing.T, src *mocks.Source) (DashboardModel, Deps) {
	t.Helper()
	deps := createTestDeps(t, src)
	m := NewDashboardModel(deps)
	m.Init()
	m = updateDashboard(t, m, projectsLoadedMsg{seq: deps.Store.BeginFetch(), projects: createTestProjects()})
	return m, deps
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func updateDashboard(t *testing.T, m DashboardModel, msg tea.Msg) DashboardModel {
	t.Helper()
	next, _ := updateDashboardCmd(t, m, msg)
	return next
}

func updateDashboardCmd(t *testing.T, m DashboardModel, msg tea.Msg) (DashboardModel, tea.Cmd) {
	t.Helper()
	model, cmd := m.Update(msg)
	dm, ok := model.(DashboardModel)
	require.True(t, ok, "expected DashboardModel")
	return dm, cmd
}

func typeText(t *testing.T, m DashboardModel, text string) DashboardModel {
	t.Helper()
	for _, r := range text {
		m = updateDashboard(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

// collectMsgs runs cmd and flattens batches into their messages.
func collectMsgs(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collectMsgs(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func findMsg[T any](msgs []tea.Msg) (T, bool) {
	for _, msg := range msgs {
		if v, ok := msg.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// TestDashboard_FetchLifecycle verifies Init marks a fetch outstanding and the result lands in the store
func TestDashboard_FetchLifecycle(t *testing.T) {
	src := new(mocks.Source)
	src.On("ListProjects", mock.Anything).Return(createTestProjects(), nil).Once()

	deps := createTestDeps(t, src)
	m := NewDashboardModel(deps)

	cmd := m.Init()
	status, _ := deps.Store.FetchStatus()
	assert.Equal(t, store.FetchLoading, status)
	assert.Contains(t, m.View(), "Loading...")

	loaded, ok := findMsg[projectsLoadedMsg](collectMsgs(cmd))
	require.True(t, ok)
	m = updateDashboard(t, m, loaded)

	status, _ = deps.Store.FetchStatus()
	assert.Equal(t, store.FetchLoaded, status)
	assert.Equal(t, store.Stats{Total: 12, Active: 5, Completed: 3}, deps.Store.Stats())
	assert.Len(t, deps.Store.RowModel().Rows, 5)

	view := m.View()
	assert.Contains(t, view, "Website Redesign")
	assert.Contains(t, view, "Showing 1-5 of 12")
	src.AssertExpectations(t)
}

func TestDashboard_FetchFailed(t *testing.T) {
	src := new(mocks.Source)
	src.On("ListProjects", mock.Anything).Return(nil, errors.New("boom"))

	deps := createTestDeps(t, src)
	m := NewDashboardModel(deps)
	loaded, ok := findMsg[projectsLoadedMsg](collectMsgs(m.Init()))
	require.True(t, ok)
	m = updateDashboard(t, m, loaded)

	view := m.View()
	assert.Contains(t, view, "Failed to load projects: boom")
	assert.Contains(t, view, "Press r to retry")

	// r retries
	m, cmd := updateDashboardCmd(t, m, keyMsg("r"))
	status, _ := deps.Store.FetchStatus()
	assert.Equal(t, store.FetchLoading, status)
	assert.NotNil(t, cmd)
}

// TestDashboard_RefreshDropsSupersededResult verifies an older fetch that
// answers last does not overwrite the newer result
func TestDashboard_RefreshDropsSupersededResult(t *testing.T) {
	projects := createTestProjects()
	src := new(mocks.Source)
	src.On("ListProjects", mock.Anything).Return(projects, nil).Once()
	src.On("ListProjects", mock.Anything).Return(projects[:2], nil).Once()

	m, deps := createLoadedDashboard(t, src)

	m, first := updateDashboardCmd(t, m, keyMsg("r"))
	m, second := updateDashboardCmd(t, m, keyMsg("r"))
	older, ok := findMsg[projectsLoadedMsg](collectMsgs(first))
	require.True(t, ok)
	newer, ok := findMsg[projectsLoadedMsg](collectMsgs(second))
	require.True(t, ok)
	require.Len(t, newer.projects, 2)

	m = updateDashboard(t, m, newer)
	m = updateDashboard(t, m, older)

	assert.Len(t, deps.Store.Projects(), 2)
	status, _ := deps.Store.FetchStatus()
	assert.Equal(t, store.FetchLoaded, status)
	assert.NotContains(t, m.View(), "Kiosk Firmware")
	src.AssertExpectations(t)
}

// TestDashboard_SearchResetsPage verifies typing narrows the rows and returns to the first page
func TestDashboard_SearchResetsPage(t *testing.T) {
	m, deps := createLoadedDashboard(t, new(mocks.Source))

	m = updateDashboard(t, m, keyMsg("l"))
	assert.Equal(t, 1, deps.Store.State().Page)

	m = updateDashboard(t, m, keyMsg("/"))
	assert.True(t, m.searchMode)
	m = typeText(t, m, "acme")

	state := deps.Store.State()
	assert.Equal(t, "acme", state.SearchTerm)
	assert.Equal(t, 0, state.Page)

	rm := deps.Store.RowModel()
	assert.Len(t, rm.Rows, 3)
	assert.Equal(t, 1, rm.PageCount)
	assert.NotContains(t, m.View(), "Showing")

	// Letters typed while searching must not trigger shortcuts
	assert.Equal(t, store.ViewTable, deps.Store.ViewMode())

	m = updateDashboard(t, m, keyMsg("esc"))
	assert.False(t, m.searchMode)
	assert.Empty(t, deps.Store.State().SearchTerm)
	assert.Len(t, deps.Store.RowModel().Rows, 5)
}

func TestDashboard_StatusPicker(t *testing.T) {
	m, deps := createLoadedDashboard(t, new(mocks.Source))

	m = updateDashboard(t, m, keyMsg("f"))
	require.NotNil(t, m.picker)
	assert.Contains(t, m.View(), "Cancelled")

	// 6 is "Cancelled": all, active, completed, on hold, planning, cancelled
	m, cmd := updateDashboardCmd(t, m, keyMsg("6"))
	picked, ok := findMsg[PickedMsg](collectMsgs(cmd))
	require.True(t, ok)
	assert.Equal(t, pickerStatus, picked.Kind)

	m = updateDashboard(t, m, picked)
	assert.Nil(t, m.picker)
	assert.Equal(t, string(domain.StatusCancelled), deps.Store.State().StatusFilter)
	assert.Contains(t, m.View(), "No projects with status Cancelled")
	// Widgets describe the whole portfolio
	assert.Equal(t, 12, deps.Store.Stats().Total)
}

func TestDashboard_StatusPickerClosed(t *testing.T) {
	m, deps := createLoadedDashboard(t, new(mocks.Source))

	m = updateDashboard(t, m, keyMsg("f"))
	m, cmd := updateDashboardCmd(t, m, keyMsg("esc"))
	msgs := collectMsgs(cmd)
	require.Len(t, msgs, 1)
	m = updateDashboard(t, m, msgs[0])

	assert.Nil(t, m.picker)
	assert.Equal(t, domain.StatusAll, deps.Store.State().StatusFilter)
}

// TestDashboard_SortKeys verifies a column cycles ascending, descending, unsorted
func TestDashboard_SortKeys(t *testing.T) {
	m, deps := createLoadedDashboard(t, new(mocks.Source))

	m = updateDashboard(t, m, keyMsg("1"))
	assert.Equal(t, []rowmodel.SortKey{{Column: rowmodel.ColumnName}}, deps.Store.State().Sort)
	assert.Equal(t, "Analytics Pilot", deps.Store.RowModel().Rows[0].Name)

	m = updateDashboard(t, m, keyMsg("1"))
	assert.Equal(t, []rowmodel.SortKey{{Column: rowmodel.ColumnName, Desc: true}}, deps.Store.State().Sort)
	assert.Equal(t, "Website Redesign", deps.Store.RowModel().Rows[0].Name)
	assert.Contains(t, m.View(), "▼")

	updateDashboard(t, m, keyMsg("1"))
	assert.Empty(t, deps.Store.State().Sort)
}

func TestDashboard_ViewToggle(t *testing.T) {
	m, deps := createLoadedDashboard(t, new(mocks.Source))
	m = updateDashboard(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	m = updateDashboard(t, m, keyMsg("v"))
	assert.Equal(t, store.ViewGrid, deps.Store.ViewMode())
	assert.Contains(t, m.View(), "m: View details")

	m = updateDashboard(t, m, keyMsg("v"))
	assert.Equal(t, store.ViewTable, deps.Store.ViewMode())
	assert.NotContains(t, m.View(), "m: View details")
}

// TestDashboard_NarrowForcesGrid verifies narrow terminals show cards without changing the stored mode
func TestDashboard_NarrowForcesGrid(t *testing.T) {
	m, deps := createLoadedDashboard(t, new(mocks.Source))

	m = updateDashboard(t, m, tea.WindowSizeMsg{Width: 60, Height: 40})

	assert.Equal(t, store.ViewTable, deps.Store.ViewMode())
	assert.Equal(t, store.ViewGrid, m.effectiveViewMode())
	assert.Contains(t, m.View(), "m: View details")
}

func TestDashboard_CursorMovement(t *testing.T) {
	m, _ := createLoadedDashboard(t, new(mocks.Source))

	m = updateDashboard(t, m, keyMsg("j"))
	m = updateDashboard(t, m, keyMsg("j"))
	assert.Equal(t, 2, m.cursor)

	m = updateDashboard(t, m, keyMsg("G"))
	assert.Equal(t, 4, m.cursor)

	m = updateDashboard(t, m, keyMsg("j"))
	assert.Equal(t, 4, m.cursor, "cursor stays on the last row")

	m = updateDashboard(t, m, keyMsg("g"))
	assert.Equal(t, 0, m.cursor)

	m = updateDashboard(t, m, keyMsg("k"))
	assert.Equal(t, 0, m.cursor)
}

func TestDashboard_PagingResetsCursor(t *testing.T) {
	m, deps := createLoadedDashboard(t, new(mocks.Source))

	m = updateDashboard(t, m, keyMsg("G"))
	m = updateDashboard(t, m, keyMsg("l"))
	assert.Equal(t, 1, deps.Store.State().Page)
	assert.Equal(t, 0, m.cursor)
	assert.Contains(t, m.View(), "Showing 6-10 of 12")

	m = updateDashboard(t, m, keyMsg("l"))
	m = updateDashboard(t, m, keyMsg("l"))
	assert.Equal(t, 2, deps.Store.State().Page, "next on the last page is a no-op")

	updateDashboard(t, m, keyMsg("h"))
	assert.Equal(t, 1, deps.Store.State().Page)
}

func TestDashboard_ViewDetail(t *testing.T) {
	m, _ := createLoadedDashboard(t, new(mocks.Source))

	m = updateDashboard(t, m, keyMsg("j"))
	_, cmd := updateDashboardCmd(t, m, keyMsg("enter"))

	msg, ok := findMsg[openDetailMsg](collectMsgs(cmd))
	require.True(t, ok)
	assert.Equal(t, "p2", msg.id)
}

func TestDashboard_OpenInBrowser(t *testing.T) {
	var opened string
	orig := openURL
	openURL = func(url string) error {
		opened = url
		return nil
	}
	t.Cleanup(func() { openURL = orig })

	m, _ := createLoadedDashboard(t, new(mocks.Source))
	updateDashboard(t, m, keyMsg("o"))

	assert.Equal(t, "http://localhost:3000/projects/p1", opened)
}

func TestDashboard_NewProjectDialog(t *testing.T) {
	src := new(mocks.Source)
	src.On("ListClients", mock.Anything).Return([]domain.Client{{ID: "c1", Name: "Acme Corp"}}, nil)

	m, deps := createLoadedDashboard(t, src)

	m, cmd := updateDashboardCmd(t, m, keyMsg("n"))
	intent := deps.Dialog.Snapshot()
	assert.True(t, intent.IsOpen)
	assert.Equal(t, dialog.ActionNewProject, intent.Action)
	require.NotNil(t, m.form)

	clients, ok := findMsg[clientsLoadedMsg](collectMsgs(cmd))
	require.True(t, ok)
	m = updateDashboard(t, m, clients)
	assert.Contains(t, m.View(), "New project")
	assert.Contains(t, m.View(), "‹ Acme Corp ›")

	// The dialog owns the keyboard: v must not toggle the view
	m = updateDashboard(t, m, keyMsg("v"))
	assert.Equal(t, store.ViewTable, deps.Store.ViewMode())

	m, cmd = updateDashboardCmd(t, m, keyMsg("esc"))
	closed, ok := findMsg[dialogClosedMsg](collectMsgs(cmd))
	require.True(t, ok)
	m = updateDashboard(t, m, closed)

	assert.Nil(t, m.form)
	assert.Equal(t, dialog.Intent{}, deps.Dialog.Snapshot())
	src.AssertExpectations(t)
}

// TestDashboard_QuickActionPlaceholder verifies actions without a form show a placeholder
func TestDashboard_QuickActionPlaceholder(t *testing.T) {
	m, deps := createLoadedDashboard(t, new(mocks.Source))

	m = updateDashboard(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}, Alt: true})

	assert.Equal(t, dialog.ActionNewContract, deps.Dialog.Snapshot().Action)
	assert.Empty(t, deps.Store.State().Sort, "alt+2 is not a sort key")
	view := m.View()
	assert.Contains(t, view, "New contract")
	assert.Contains(t, view, "This form is not available yet.")
}

func TestDashboard_QuickActionMenu(t *testing.T) {
	m, deps := createLoadedDashboard(t, new(mocks.Source))

	m = updateDashboard(t, m, keyMsg("a"))
	require.NotNil(t, m.picker)

	m, cmd := updateDashboardCmd(t, m, keyMsg("4"))
	picked, ok := findMsg[PickedMsg](collectMsgs(cmd))
	require.True(t, ok)
	m = updateDashboard(t, m, picked)

	assert.Equal(t, dialog.ActionAddClient, deps.Dialog.Snapshot().Action)
	assert.Contains(t, m.View(), "Add client")
}

func TestDashboard_RowActions(t *testing.T) {
	t.Run("delete shows a notice", func(t *testing.T) {
		m, deps := createLoadedDashboard(t, new(mocks.Source))

		m = updateDashboard(t, m, keyMsg("m"))
		require.NotNil(t, m.picker)
		m, cmd := updateDashboardCmd(t, m, keyMsg("3"))
		picked, ok := findMsg[PickedMsg](collectMsgs(cmd))
		require.True(t, ok)
		m = updateDashboard(t, m, picked)

		assert.Contains(t, m.View(), "Delete not implemented yet")
		assert.False(t, deps.Dialog.Snapshot().IsOpen)
		assert.Len(t, deps.Store.Projects(), 12)
	})

	t.Run("edit prefills the dialog", func(t *testing.T) {
		src := new(mocks.Source)
		src.On("ListClients", mock.Anything).Return([]domain.Client{}, nil).Maybe()
		m, deps := createLoadedDashboard(t, src)

		m = updateDashboard(t, m, keyMsg("m"))
		m, cmd := updateDashboardCmd(t, m, keyMsg("2"))
		picked, ok := findMsg[PickedMsg](collectMsgs(cmd))
		require.True(t, ok)
		m = updateDashboard(t, m, picked)

		intent := deps.Dialog.Snapshot()
		assert.Equal(t, dialog.ActionNewProject, intent.Action)
		assert.Equal(t, "p1", intent.Payload.String(PayloadID))
		assert.Equal(t, "Website Redesign", intent.Payload.String("name"))
		assert.Equal(t, "2024-01-08", intent.Payload.String("start_date"))
		assert.Contains(t, m.View(), "Edit project")
	})
}

func TestDashboard_ProjectSaved(t *testing.T) {
	src := new(mocks.Source)
	src.On("ListProjects", mock.Anything).Return(createTestProjects(), nil)
	m, deps := createLoadedDashboard(t, src)
	deps.Dialog.Open(dialog.ActionNewProject, dialog.Payload{"name": "Launch"})
	m.form = newDialogForm(deps.Dialog.Snapshot(), deps)

	m, cmd := updateDashboardCmd(t, m, projectSavedMsg{project: domain.Project{ID: "p13", Name: "Launch"}})

	assert.Nil(t, m.form)
	assert.False(t, deps.Dialog.Snapshot().IsOpen)
	status, _ := deps.Store.FetchStatus()
	assert.Equal(t, store.FetchLoading, status)
	assert.Contains(t, m.View(), "Saved successfully")

	// Rows stay visible while the refetch is outstanding
	assert.Contains(t, m.View(), "Website Redesign")

	_, ok := findMsg[projectsLoadedMsg](collectMsgs(cmd))
	assert.True(t, ok)
	src.AssertCalled(t, "ListProjects", mock.Anything)
}

func TestDashboard_Help(t *testing.T) {
	m, _ := createLoadedDashboard(t, new(mocks.Source))

	m = updateDashboard(t, m, keyMsg("?"))
	assert.True(t, m.showHelp)
	view := m.View()
	assert.Contains(t, view, "Keyboard shortcuts")
	assert.Contains(t, view, "refresh")

	m = updateDashboard(t, m, keyMsg("?"))
	assert.False(t, m.showHelp)
}

// TestDashboard_SearchFooter verifies the footer switches to search keys while typing
func TestDashboard_SearchFooter(t *testing.T) {
	m, _ := createLoadedDashboard(t, new(mocks.Source))
	m = updateDashboard(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.NotContains(t, m.View(), "clear search")

	m = updateDashboard(t, m, keyMsg("/"))

	assert.Contains(t, m.View(), "clear search")
}

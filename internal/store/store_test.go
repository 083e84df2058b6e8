package store

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/robby/pmdash/internal/domain"
	"github.com/robby/pmdash/internal/rowmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test fixtures
func createTestProject(id, name string, status domain.ProjectStatus, client string) domain.ProjectWithClient {
	p := domain.ProjectWithClient{
		Project: domain.Project{
			ID:        id,
			Name:      name,
			Status:    status,
			CreatedAt: time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC),
		},
	}
	if client != "" {
		p.Client = &domain.ClientRef{Name: client}
	}
	return p
}

// createTestProjects returns 12 projects: 5 active, 3 completed, 3 of them for Acme.
func createTestProjects() []domain.ProjectWithClient {
	return []domain.ProjectWithClient{
		createTestProject("p1", "Website Redesign", domain.StatusActive, "Acme Corp"),
		createTestProject("p2", "Mobile App", domain.StatusActive, "Acme Corp"),
		createTestProject("p3", "Data Warehouse", domain.StatusActive, "Acme Corp"),
		createTestProject("p4", "CRM Migration", domain.StatusActive, "Globex"),
		createTestProject("p5", "Billing Revamp", domain.StatusActive, "Initech"),
		createTestProject("p6", "Onboarding Flow", domain.StatusCompleted, "Globex"),
		createTestProject("p7", "Brand Refresh", domain.StatusCompleted, "Initech"),
		createTestProject("p8", "Legacy Cleanup", domain.StatusOnHold, "Globex"),
		createTestProject("p9", "Analytics Pilot", domain.StatusPlanning, "Umbrella"),
		createTestProject("p10", "Kiosk Firmware", domain.StatusPlanning, ""),
		createTestProject("p11", "Support Portal", domain.StatusOnHold, "Umbrella"),
		createTestProject("p12", "Partner API", domain.StatusCompleted, "Initech"),
	}
}

func createLoadedStore(pageSize int) *Store {
	s := New(pageSize)
	s.SetProjects(createTestProjects())
	return s
}

// TestNew verifies the initial list state
func TestNew(t *testing.T) {
	s := New(0)

	st := s.State()
	assert.Equal(t, "", st.SearchTerm)
	assert.Equal(t, domain.StatusAll, st.StatusFilter)
	assert.Empty(t, st.Sort)
	assert.Equal(t, 0, st.Page)
	assert.Equal(t, DefaultPageSize, st.PageSize)
	assert.Equal(t, ViewTable, s.ViewMode())

	status, err := s.FetchStatus()
	assert.Equal(t, FetchIdle, status)
	assert.NoError(t, err)
}

func TestNew_CustomPageSize(t *testing.T) {
	s := New(20)
	assert.Equal(t, 20, s.State().PageSize)
}

// TestFetchLifecycle verifies loading, loaded and failed states
func TestFetchLifecycle(t *testing.T) {
	s := New(5)

	s.BeginFetch()
	status, _ := s.FetchStatus()
	assert.Equal(t, FetchLoading, status)

	s.SetProjects(createTestProjects())
	status, err := s.FetchStatus()
	assert.Equal(t, FetchLoaded, status)
	assert.NoError(t, err)

	boom := errors.New("network down")
	s.BeginFetch()
	s.FetchFailed(boom)
	status, err = s.FetchStatus()
	assert.Equal(t, FetchFailed, status)
	assert.ErrorIs(t, err, boom)

	// A failed refetch keeps the previous collection
	assert.Len(t, s.Projects(), 12)
}

func TestFetchStatus_String(t *testing.T) {
	assert.Equal(t, "idle", FetchIdle.String())
	assert.Equal(t, "loading", FetchLoading.String())
	assert.Equal(t, "loaded", FetchLoaded.String())
	assert.Equal(t, "failed", FetchFailed.String())
}

// TestSetProjects_KeepsListState verifies a refetch does not reset the view
func TestSetProjects_KeepsListState(t *testing.T) {
	s := createLoadedStore(2)
	s.SetSearchTerm("acme")
	s.ToggleSort(rowmodel.ColumnName)
	s.SetPage(1)
	before := s.State()

	s.SetProjects(createTestProjects())

	assert.Equal(t, before, s.State())
}

// TestSetProjects_ClampsPageWhenShrunk verifies a smaller refetch never
// leaves the page past the end
func TestSetProjects_ClampsPageWhenShrunk(t *testing.T) {
	s := createLoadedStore(5)
	s.SetPage(2)
	require.Equal(t, 2, s.State().Page)

	s.SetProjects(createTestProjects()[:4])

	assert.Equal(t, 0, s.State().Page)
	rm := s.RowModel()
	assert.Len(t, rm.Rows, 4)
	assert.Equal(t, 4, rm.Total)
}

func TestSetProjects_CopiesInput(t *testing.T) {
	s := New(5)
	input := createTestProjects()
	s.SetProjects(input)

	input[0].Name = "mutated"

	p, err := s.GetProject("p1")
	require.NoError(t, err)
	assert.Equal(t, "Website Redesign", p.Name)
}

func TestGetProject(t *testing.T) {
	s := createLoadedStore(5)

	p, err := s.GetProject("p4")
	require.NoError(t, err)
	assert.Equal(t, "CRM Migration", p.Name)

	_, err = s.GetProject("missing")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

// TestSetSearchTerm_ResetsPage verifies a changed term returns to page 0
func TestSetSearchTerm_ResetsPage(t *testing.T) {
	s := createLoadedStore(2)
	s.SetPage(3)
	require.Equal(t, 3, s.State().Page)

	s.SetSearchTerm("a")
	assert.Equal(t, 0, s.State().Page)
}

func TestSetSearchTerm_SameValueKeepsPage(t *testing.T) {
	s := createLoadedStore(2)
	s.SetPage(2)

	s.SetSearchTerm("")
	assert.Equal(t, 2, s.State().Page)
}

func TestSetStatusFilter(t *testing.T) {
	s := createLoadedStore(2)
	s.SetPage(2)

	require.NoError(t, s.SetStatusFilter("active"))
	assert.Equal(t, "active", s.State().StatusFilter)
	assert.Equal(t, 0, s.State().Page)

	require.NoError(t, s.SetStatusFilter(""))
	assert.Equal(t, domain.StatusAll, s.State().StatusFilter)
}

func TestSetStatusFilter_Invalid(t *testing.T) {
	s := createLoadedStore(5)

	err := s.SetStatusFilter("archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Equal(t, domain.StatusAll, s.State().StatusFilter)
}

// TestToggleSort verifies the asc -> desc -> none cycle through the store
func TestToggleSort(t *testing.T) {
	s := createLoadedStore(5)

	s.ToggleSort(rowmodel.ColumnName)
	assert.Equal(t, []rowmodel.SortKey{{Column: rowmodel.ColumnName}}, s.State().Sort)

	s.ToggleSort(rowmodel.ColumnName)
	assert.Equal(t, []rowmodel.SortKey{{Column: rowmodel.ColumnName, Desc: true}}, s.State().Sort)

	s.ToggleSort(rowmodel.ColumnName)
	assert.Empty(t, s.State().Sort)
}

func TestState_ReturnsCopy(t *testing.T) {
	s := createLoadedStore(5)
	s.ToggleSort(rowmodel.ColumnName)

	st := s.State()
	st.Sort[0].Desc = true

	assert.False(t, s.State().Sort[0].Desc)
}

// TestSetPage_Clamps verifies the page stays inside [0, PageCount-1]
func TestSetPage_Clamps(t *testing.T) {
	s := createLoadedStore(5)

	s.SetPage(99)
	assert.Equal(t, 2, s.State().Page)

	s.SetPage(-4)
	assert.Equal(t, 0, s.State().Page)
}

func TestSetPage_EmptyCollection(t *testing.T) {
	s := New(5)

	s.SetPage(3)
	assert.Equal(t, 0, s.State().Page)
}

func TestNextPrevPage(t *testing.T) {
	s := createLoadedStore(5)

	s.NextPage()
	s.NextPage()
	s.NextPage()
	assert.Equal(t, 2, s.State().Page)

	s.PrevPage()
	assert.Equal(t, 1, s.State().Page)

	s.PrevPage()
	s.PrevPage()
	assert.Equal(t, 0, s.State().Page)
}

func TestSetPageSize(t *testing.T) {
	s := createLoadedStore(2)
	s.SetPage(5)

	require.NoError(t, s.SetPageSize(10))
	assert.Equal(t, 10, s.State().PageSize)
	assert.Equal(t, 1, s.State().Page)

	for _, bad := range []int{0, -1} {
		err := s.SetPageSize(bad)
		assert.ErrorIs(t, err, ErrInvalidPageSize, fmt.Sprint(bad))
	}
	assert.Equal(t, 10, s.State().PageSize)
}

func TestSetViewMode(t *testing.T) {
	s := New(5)

	require.NoError(t, s.SetViewMode(ViewGrid))
	assert.Equal(t, ViewGrid, s.ViewMode())

	err := s.SetViewMode("kanban")
	assert.ErrorIs(t, err, ErrInvalidViewMode)
	assert.Equal(t, ViewGrid, s.ViewMode())
}

func TestParseViewMode(t *testing.T) {
	m, err := ParseViewMode("grid")
	require.NoError(t, err)
	assert.Equal(t, ViewGrid, m)

	_, err = ParseViewMode("")
	assert.Error(t, err)
}

// TestRowModel_SearchScenario verifies the Acme search over 12 projects
func TestRowModel_SearchScenario(t *testing.T) {
	s := createLoadedStore(10)
	s.SetSearchTerm("Acme")

	rm := s.RowModel()
	require.Len(t, rm.Rows, 3)
	for _, r := range rm.Rows {
		assert.Equal(t, "Acme Corp", r.ClientName())
	}
	assert.LessOrEqual(t, rm.PageCount, 1)
}

func TestRowModel_StatusScenario(t *testing.T) {
	s := createLoadedStore(10)
	require.NoError(t, s.SetStatusFilter("active"))

	rm := s.RowModel()
	assert.Len(t, rm.Rows, 5)
	assert.Equal(t, 5, rm.Filtered)
}

// TestStats_IndependentOfListState verifies the widgets ignore search and filter
func TestStats_IndependentOfListState(t *testing.T) {
	s := createLoadedStore(5)
	want := Stats{Total: 12, Active: 5, Completed: 3}
	assert.Equal(t, want, s.Stats())

	s.SetSearchTerm("acme")
	require.NoError(t, s.SetStatusFilter("completed"))
	s.SetPage(1)
	s.ToggleSort(rowmodel.ColumnStatus)

	assert.Equal(t, want, s.Stats())
}

func TestComputeStats(t *testing.T) {
	tests := []struct {
		name     string
		projects []domain.ProjectWithClient
		want     Stats
	}{
		{"empty", nil, Stats{}},
		{"fixtures", createTestProjects(), Stats{Total: 12, Active: 5, Completed: 3}},
		{
			"no active",
			[]domain.ProjectWithClient{
				createTestProject("x", "X", domain.StatusOnHold, ""),
				createTestProject("y", "Y", domain.StatusCancelled, ""),
			},
			Stats{Total: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStats(tt.projects)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, got.Active+got.Completed, got.Total)
		})
	}
}

// TestReset verifies the store returns to its initial state
func TestReset(t *testing.T) {
	s := createLoadedStore(7)
	s.SetSearchTerm("acme")
	s.ToggleSort(rowmodel.ColumnName)
	require.NoError(t, s.SetViewMode(ViewGrid))

	s.Reset()

	assert.Empty(t, s.Projects())
	st := s.State()
	assert.Equal(t, "", st.SearchTerm)
	assert.Equal(t, domain.StatusAll, st.StatusFilter)
	assert.Empty(t, st.Sort)
	assert.Equal(t, 7, st.PageSize)
	assert.Equal(t, ViewGrid, s.ViewMode())

	status, _ := s.FetchStatus()
	assert.Equal(t, FetchIdle, status)
}

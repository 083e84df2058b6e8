// Package store provides the in-memory state of the project list view.
// It owns the fetched collection and the list state (search, status filter,
// sort, page) and exposes setters as the only mutation path. The displayed
// rows are always derived on demand through the rowmodel package.
package store

import (
	"errors"
	"fmt"

	"github.com/robby/pmdash/internal/domain"
	"github.com/robby/pmdash/internal/rowmodel"
)

var (
	// ErrProjectNotFound indicates the requested project is not in the collection.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidPageSize indicates a non-positive page size.
	ErrInvalidPageSize = errors.New("page size must be positive")
	// ErrInvalidStatus indicates a status filter outside the known statuses.
	ErrInvalidStatus = errors.New("invalid status filter")
	// ErrInvalidViewMode indicates an unknown view mode.
	ErrInvalidViewMode = errors.New("invalid view mode")
)

// DefaultPageSize is the number of rows per page when nothing else is configured.
const DefaultPageSize = 5

// ListState is the filter, sort and page state of the list view.
type ListState = rowmodel.State

// ViewMode selects how the list is rendered.
type ViewMode string

const (
	ViewTable ViewMode = "table"
	ViewGrid  ViewMode = "grid"
)

// ParseViewMode converts a raw view mode name.
func ParseViewMode(raw string) (ViewMode, error) {
	switch m := ViewMode(raw); m {
	case ViewTable, ViewGrid:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidViewMode, raw)
}

// FetchStatus tracks the lifecycle of the most recent collection fetch.
type FetchStatus int

const (
	FetchIdle FetchStatus = iota
	FetchLoading
	FetchLoaded
	FetchFailed
)

func (f FetchStatus) String() string {
	switch f {
	case FetchLoading:
		return "loading"
	case FetchLoaded:
		return "loaded"
	case FetchFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Store manages the project collection and the list view state.
// It is not safe for concurrent use; the TUI mutates it from Update only.
type Store struct {
	projects []domain.ProjectWithClient

	state    ListState
	viewMode ViewMode

	fetch    FetchStatus
	fetchErr error
	fetchSeq uint64
}

// New creates an empty Store with the initial list state.
// A non-positive pageSize falls back to DefaultPageSize.
func New(pageSize int) *Store {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Store{
		state:    initialState(pageSize),
		viewMode: ViewTable,
	}
}

func initialState(pageSize int) ListState {
	return ListState{
		StatusFilter: domain.StatusAll,
		PageSize:     pageSize,
	}
}

// BeginFetch marks a fetch as outstanding and returns its sequence number.
// Only the result of the latest fetch should be applied.
func (s *Store) BeginFetch() uint64 {
	s.fetchSeq++
	s.fetch = FetchLoading
	s.fetchErr = nil
	return s.fetchSeq
}

// IsLatestFetch reports whether seq was returned by the most recent BeginFetch.
func (s *Store) IsLatestFetch(seq uint64) bool {
	return seq == s.fetchSeq
}

// SetProjects replaces the collection with a fetch result.
// The list state is kept; the page is clamped when the collection shrank.
func (s *Store) SetProjects(projects []domain.ProjectWithClient) {
	s.projects = make([]domain.ProjectWithClient, len(projects))
	copy(s.projects, projects)
	s.state.Page = s.clampPage(s.state.Page)
	s.fetch = FetchLoaded
	s.fetchErr = nil
}

// FetchFailed records a failed fetch. The previous collection is kept.
func (s *Store) FetchFailed(err error) {
	s.fetch = FetchFailed
	s.fetchErr = err
}

// FetchStatus returns the fetch lifecycle state and the last fetch error.
func (s *Store) FetchStatus() (FetchStatus, error) {
	return s.fetch, s.fetchErr
}

// Projects returns a copy of the unfiltered collection.
func (s *Store) Projects() []domain.ProjectWithClient {
	out := make([]domain.ProjectWithClient, len(s.projects))
	copy(out, s.projects)
	return out
}

// GetProject looks up a project in the collection by ID.
func (s *Store) GetProject(id string) (domain.ProjectWithClient, error) {
	for _, p := range s.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.ProjectWithClient{}, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
}

// State returns a copy of the current list state.
func (s *Store) State() ListState {
	st := s.state
	st.Sort = append([]rowmodel.SortKey(nil), s.state.Sort...)
	return st
}

// SetSearchTerm updates the search term. A changed term returns to the first page.
func (s *Store) SetSearchTerm(term string) {
	if term == s.state.SearchTerm {
		return
	}
	s.state.SearchTerm = term
	s.state.Page = 0
}

// SetStatusFilter updates the status filter. Accepts "all" or a known status.
// A changed filter returns to the first page.
func (s *Store) SetStatusFilter(filter string) error {
	if filter == "" {
		filter = domain.StatusAll
	}
	if filter != domain.StatusAll && !domain.ProjectStatus(filter).Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, filter)
	}
	if filter == s.state.StatusFilter {
		return nil
	}
	s.state.StatusFilter = filter
	s.state.Page = 0
	return nil
}

// ToggleSort advances the sort cycle of column.
func (s *Store) ToggleSort(column rowmodel.Column) {
	s.state.Sort = rowmodel.NextSort(s.state.Sort, column)
}

// SetPage moves to page, clamped into the valid range for the current filters.
func (s *Store) SetPage(page int) {
	s.state.Page = s.clampPage(page)
}

// NextPage advances one page if possible.
func (s *Store) NextPage() {
	s.SetPage(s.state.Page + 1)
}

// PrevPage goes back one page if possible.
func (s *Store) PrevPage() {
	s.SetPage(s.state.Page - 1)
}

// SetPageSize changes the page size and clamps the current page.
func (s *Store) SetPageSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, size)
	}
	s.state.PageSize = size
	s.state.Page = s.clampPage(s.state.Page)
	return nil
}

// ViewMode returns the current list presentation.
func (s *Store) ViewMode() ViewMode {
	return s.viewMode
}

// SetViewMode switches between table and grid presentation.
func (s *Store) SetViewMode(mode ViewMode) error {
	if _, err := ParseViewMode(string(mode)); err != nil {
		return err
	}
	s.viewMode = mode
	return nil
}

// RowModel derives the current page of rows from the collection and list state.
func (s *Store) RowModel() rowmodel.RowModel {
	return rowmodel.Build(s.projects, s.state)
}

// Stats summarizes the unfiltered collection.
func (s *Store) Stats() Stats {
	return ComputeStats(s.projects)
}

// Reset clears the collection and restores the initial list state,
// keeping the configured page size and view mode.
func (s *Store) Reset() {
	s.projects = nil
	s.state = initialState(s.state.PageSize)
	s.fetch = FetchIdle
	s.fetchErr = nil
}

func (s *Store) clampPage(page int) int {
	filtered := len(rowmodel.Filter(s.projects, s.state.SearchTerm, s.state.StatusFilter))
	pages := rowmodel.PageCount(filtered, s.state.PageSize)
	if page >= pages {
		page = pages - 1
	}
	if page < 0 {
		page = 0
	}
	return page
}

// Package rowmodel derives the displayed page of projects from the fetched
// collection and the current list state. Everything here is a pure function of
// its inputs: nothing is cached and the input slice is never modified.
package rowmodel

import (
	"strings"

	"github.com/robby/pmdash/internal/domain"
)

// State is the list view state the row model is derived from.
type State struct {
	SearchTerm   string
	StatusFilter string
	Sort         []SortKey
	Page         int
	PageSize     int
}

// RowModel is the filtered, sorted, paginated view of a project collection.
type RowModel struct {
	Rows         []domain.ProjectWithClient // current page window
	Total        int                        // size of the unfiltered collection
	Filtered     int                        // rows matching search and status
	Page         int
	PageSize     int
	PageCount    int
	SearchTerm   string
	StatusFilter string
	Sort         []SortKey
}

// HasPrev reports whether a previous page exists.
func (rm RowModel) HasPrev() bool { return rm.Page > 0 }

// HasNext reports whether a following page exists.
func (rm RowModel) HasNext() bool { return rm.Page+1 < rm.PageCount }

// Window returns the 1-based first and last row numbers of the current page
// within the filtered result. Both are 0 when the page is empty.
func (rm RowModel) Window() (first, last int) {
	if len(rm.Rows) == 0 {
		return 0, 0
	}
	start := rm.Page * rm.PageSize
	if rm.PageSize <= 0 {
		start = 0
	}
	return start + 1, start + len(rm.Rows)
}

// SortFor returns the active sort key for column, if any.
func (rm RowModel) SortFor(column Column) (SortKey, bool) {
	for _, k := range rm.Sort {
		if k.Column == column {
			return k, true
		}
	}
	return SortKey{}, false
}

// Match reports whether the project matches the search term. An empty term
// matches everything; otherwise the term must be a case-insensitive substring
// of the name, description or client name.
func Match(p domain.ProjectWithClient, term string) bool {
	if term == "" {
		return true
	}
	needle := strings.ToLower(term)
	for _, field := range []string{p.Name, p.DescriptionOrEmpty(), p.ClientName()} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// MatchStatus reports whether the project passes the status filter.
func MatchStatus(p domain.ProjectWithClient, filter string) bool {
	if filter == "" || filter == domain.StatusAll {
		return true
	}
	return string(p.Status) == filter
}

// Filter returns the projects matching both the search term and the status
// filter, preserving input order.
func Filter(records []domain.ProjectWithClient, term, status string) []domain.ProjectWithClient {
	out := make([]domain.ProjectWithClient, 0, len(records))
	for _, p := range records {
		if Match(p, term) && MatchStatus(p, status) {
			out = append(out, p)
		}
	}
	return out
}

// PageCount returns the number of pages needed for n rows.
// A non-positive page size means a single page holding everything.
func PageCount(n, pageSize int) int {
	if n == 0 {
		return 0
	}
	if pageSize <= 0 {
		return 1
	}
	return (n + pageSize - 1) / pageSize
}

// Paginate returns the window rows[page*pageSize : page*pageSize+pageSize].
// Out-of-range pages yield an empty slice; the page index is not clamped.
func Paginate(rows []domain.ProjectWithClient, page, pageSize int) []domain.ProjectWithClient {
	if pageSize <= 0 {
		if page != 0 {
			return []domain.ProjectWithClient{}
		}
		return rows
	}
	start := page * pageSize
	if page < 0 || start >= len(rows) {
		return []domain.ProjectWithClient{}
	}
	end := start + pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// Build applies filter, sort and paging to records in that order.
func Build(records []domain.ProjectWithClient, state State) RowModel {
	filtered := Filter(records, state.SearchTerm, state.StatusFilter)
	sorted := SortRows(filtered, state.Sort)

	statusFilter := state.StatusFilter
	if statusFilter == "" {
		statusFilter = domain.StatusAll
	}

	sortCopy := make([]SortKey, len(state.Sort))
	copy(sortCopy, state.Sort)

	return RowModel{
		Rows:         Paginate(sorted, state.Page, state.PageSize),
		Total:        len(records),
		Filtered:     len(sorted),
		Page:         state.Page,
		PageSize:     state.PageSize,
		PageCount:    PageCount(len(sorted), state.PageSize),
		SearchTerm:   state.SearchTerm,
		StatusFilter: statusFilter,
		Sort:         sortCopy,
	}
}

package store

import "github.com/robby/pmdash/internal/domain"

// Stats are the dashboard summary counts.
type Stats struct {
	Total     int
	Active    int
	Completed int
}

// ComputeStats counts projects over the whole collection. It ignores search,
// filter and paging so the widgets describe the portfolio, not the view.
func ComputeStats(projects []domain.ProjectWithClient) Stats {
	st := Stats{Total: len(projects)}
	for _, p := range projects {
		switch p.Status {
		case domain.StatusActive:
			st.Active++
		case domain.StatusCompleted:
			st.Completed++
		}
	}
	return st
}

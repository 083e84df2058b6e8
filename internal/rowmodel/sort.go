package rowmodel

import (
	"sort"
	"strings"

	"github.com/robby/pmdash/internal/domain"
)

// Column identifies a list column.
type Column string

const (
	ColumnName      Column = "name"
	ColumnStatus    Column = "status"
	ColumnClient    Column = "client"
	ColumnStartDate Column = "start_date"
	ColumnEndDate   Column = "end_date"
	ColumnCreatedAt Column = "created_at"
)

// SortableColumns lists the columns with a sort affordance, in header order.
var SortableColumns = []Column{ColumnName, ColumnStatus, ColumnStartDate, ColumnEndDate}

// ParseColumn converts a raw column name.
func ParseColumn(raw string) (Column, bool) {
	switch c := Column(strings.TrimSpace(raw)); c {
	case ColumnName, ColumnStatus, ColumnClient, ColumnStartDate, ColumnEndDate, ColumnCreatedAt:
		return c, true
	}
	return "", false
}

// Sortable reports whether the column header toggles sorting.
// The client column only displays the joined name.
func (c Column) Sortable() bool {
	switch c {
	case ColumnName, ColumnStatus, ColumnStartDate, ColumnEndDate, ColumnCreatedAt:
		return true
	}
	return false
}

// SortKey is one (column, direction) pair.
type SortKey struct {
	Column Column
	Desc   bool
}

// NextSort returns the sort after activating column's header.
// Reactivating the same column cycles ascending -> descending -> unsorted;
// activating a different column replaces the sort with that column ascending.
func NextSort(current []SortKey, column Column) []SortKey {
	if !column.Sortable() {
		return current
	}
	if len(current) > 0 && current[0].Column == column {
		if !current[0].Desc {
			return []SortKey{{Column: column, Desc: true}}
		}
		return nil
	}
	return []SortKey{{Column: column}}
}

// SortRows returns a stably sorted copy of rows. Ties keep input order.
func SortRows(rows []domain.ProjectWithClient, keys []SortKey) []domain.ProjectWithClient {
	out := make([]domain.ProjectWithClient, len(rows))
	copy(out, rows)
	if len(keys) == 0 {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		for _, k := range keys {
			if c := compare(out[i], out[j], k); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return out
}

// compare orders a and b for key k. Absent dates sort last in both directions.
func compare(a, b domain.ProjectWithClient, k SortKey) int {
	var c int
	switch k.Column {
	case ColumnName:
		c = compareStrings(a.Name, b.Name)
	case ColumnStatus:
		c = compareStrings(string(a.Status), string(b.Status))
	case ColumnClient:
		c = compareStrings(a.ClientName(), b.ClientName())
	case ColumnStartDate:
		return compareDates(a.StartDate, b.StartDate, k.Desc)
	case ColumnEndDate:
		return compareDates(a.EndDate, b.EndDate, k.Desc)
	case ColumnCreatedAt:
		c = a.CreatedAt.Compare(b.CreatedAt)
	default:
		return 0
	}
	if k.Desc {
		return -c
	}
	return c
}

func compareStrings(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func compareDates(a, b *domain.Date, desc bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	c := a.Time().Compare(b.Time())
	if desc {
		return -c
	}
	return c
}

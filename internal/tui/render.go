package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/padding"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/robby/pmdash/internal/domain"
	"github.com/robby/pmdash/internal/i18n"
	"github.com/robby/pmdash/internal/rowmodel"
	"github.com/robby/pmdash/internal/store"
)

// Layout constants
const (
	statusColWidth   = 12
	dateColWidth     = 12
	minNameColWidth  = 12
	cardWidth        = 38
	cardDescLines    = 2
	narrowWidth      = 80 // below this the grid replaces the table
	tableRowPrefix   = 2  // "> " or "  "
	columnGap        = 1
	maxPageButtons   = 7
	statBoxMinWidth  = 20
	statBoxMaxWidth  = 34
	defaultViewWidth = 100
)

// tableColumn describes one table column.
type tableColumn struct {
	column rowmodel.Column
	label  string
	width  int
}

func tableColumns(tr *i18n.Translator, width int) []tableColumn {
	flex := width - tableRowPrefix - statusColWidth - 2*dateColWidth - 4*columnGap
	if flex < 2*minNameColWidth {
		flex = 2 * minNameColWidth
	}
	nameWidth := flex * 3 / 5
	return []tableColumn{
		{rowmodel.ColumnName, tr.T("Common.project_name"), nameWidth},
		{rowmodel.ColumnClient, tr.T("Common.client"), flex - nameWidth},
		{rowmodel.ColumnStatus, tr.T("Common.status"), statusColWidth},
		{rowmodel.ColumnStartDate, tr.T("Common.start_date"), dateColWidth},
		{rowmodel.ColumnEndDate, tr.T("Common.end_date"), dateColWidth},
	}
}

// sortShortcut returns the 1-based key that toggles sorting on column, or 0.
func sortShortcut(column rowmodel.Column) int {
	for i, c := range rowmodel.SortableColumns {
		if c == column {
			return i + 1
		}
	}
	return 0
}

func fitCell(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return padding.String(truncate.StringWithTail(s, uint(width), "…"), uint(width))
}

// RenderTable renders the row model as a table. selected is the highlighted
// row index within the page, or -1.
func RenderTable(rm rowmodel.RowModel, tr *i18n.Translator, width, selected int) string {
	if width <= 0 {
		width = defaultViewWidth
	}
	cols := tableColumns(tr, width)

	var b strings.Builder

	headers := make([]string, len(cols))
	for i, c := range cols {
		label := c.label
		if n := sortShortcut(c.column); n > 0 {
			label = fmt.Sprintf("%d %s", n, label)
		}
		if k, ok := rm.SortFor(c.column); ok {
			if k.Desc {
				label += " ▼"
			} else {
				label += " ▲"
			}
		}
		headers[i] = headerCellStyle.Render(fitCell(label, c.width))
	}
	b.WriteString(strings.Repeat(" ", tableRowPrefix))
	b.WriteString(strings.Join(headers, strings.Repeat(" ", columnGap)))
	b.WriteString("\n")

	if len(rm.Rows) == 0 {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(emptyMessage(rm, tr)))
		return b.String()
	}

	for i, p := range rm.Rows {
		cells := make([]string, len(cols))
		for j, c := range cols {
			cell := fitCell(cellText(p, c.column, tr), c.width)
			if c.column == rowmodel.ColumnStatus {
				cell = statusBadgeStyle(p.Status).Render(cell)
			}
			cells[j] = cell
		}
		line := strings.Join(cells, strings.Repeat(" ", columnGap))
		if i == selected {
			b.WriteString(SelectedItemStyle.Render("> ") + line)
		} else {
			b.WriteString("  " + line)
		}
		if i < len(rm.Rows)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func cellText(p domain.ProjectWithClient, column rowmodel.Column, tr *i18n.Translator) string {
	switch column {
	case rowmodel.ColumnName:
		return p.Name
	case rowmodel.ColumnClient:
		if name := p.ClientName(); name != "" {
			return name
		}
		return "-"
	case rowmodel.ColumnStatus:
		return tr.StatusLabel(string(p.Status))
	case rowmodel.ColumnStartDate:
		return tr.FormatDate(p.StartDate)
	case rowmodel.ColumnEndDate:
		return tr.FormatDate(p.EndDate)
	}
	return ""
}

// emptyMessage tells "nothing at all" apart from "nothing with this status".
func emptyMessage(rm rowmodel.RowModel, tr *i18n.Translator) string {
	if rm.Total > 0 && rm.StatusFilter != "" && rm.StatusFilter != domain.StatusAll {
		return tr.Tf("Message.no_projects_with_status", map[string]any{
			"status": tr.StatusLabel(rm.StatusFilter),
		})
	}
	return tr.T("Message.no_projects")
}

// RenderGrid renders the row model as cards. selected is the highlighted
// card index within the page, or -1.
func RenderGrid(rm rowmodel.RowModel, tr *i18n.Translator, width, selected int) string {
	if width <= 0 {
		width = defaultViewWidth
	}
	if len(rm.Rows) == 0 {
		if rm.Total == 0 {
			return dimStyle.Render(tr.T("Message.no_data"))
		}
		return dimStyle.Render(emptyMessage(rm, tr))
	}

	perRow := width / cardWidth
	if perRow < 1 {
		perRow = 1
	}
	w := cardWidth
	if width < cardWidth {
		w = width
	}

	var rows []string
	for start := 0; start < len(rm.Rows); start += perRow {
		end := min(start+perRow, len(rm.Rows))
		cards := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			cards = append(cards, renderCard(rm.Rows[i], tr, w, i == selected))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderCard(p domain.ProjectWithClient, tr *i18n.Translator, width int, selected bool) string {
	inner := width - 4 // border + padding
	if inner < 8 {
		inner = 8
	}

	client := p.ClientName()
	if client == "" {
		client = "-"
	}

	desc := wordwrap.String(p.DescriptionOrEmpty(), inner)
	descLines := strings.Split(desc, "\n")
	if len(descLines) > cardDescLines {
		descLines = descLines[:cardDescLines]
		descLines[cardDescLines-1] = truncate.String(descLines[cardDescLines-1], uint(inner-1)) + "…"
	}
	for len(descLines) < cardDescLines {
		descLines = append(descLines, "")
	}

	dates := fmt.Sprintf("%s → %s", tr.FormatDate(p.StartDate), tr.FormatDate(p.EndDate))
	actions := strings.Join([]string{
		tr.T("Common.view_details"),
		tr.T("Common.edit"),
		tr.T("Common.delete"),
	}, " · ")

	lines := []string{
		lipgloss.NewStyle().Bold(true).Render(truncate.StringWithTail(p.Name, uint(inner), "…")),
		dimStyle.Render(truncate.StringWithTail(client, uint(inner), "…")),
	}
	for _, l := range descLines {
		lines = append(lines, truncate.StringWithTail(l, uint(inner), "…"))
	}
	lines = append(lines,
		statusBadgeStyle(p.Status).Render(tr.StatusLabel(string(p.Status))),
		dimStyle.Render(truncate.StringWithTail(dates, uint(inner), "…")),
		dimStyle.Render(truncate.StringWithTail("m: "+actions, uint(inner), "…")),
	)

	style := cardStyle
	if selected {
		style = selectedCardStyle
	}
	return style.Width(width - 2).Render(strings.Join(lines, "\n"))
}

// RenderStats renders the summary widgets.
func RenderStats(st store.Stats, tr *i18n.Translator, width int) string {
	if width <= 0 {
		width = defaultViewWidth
	}
	boxWidth := width/3 - 1
	if boxWidth > statBoxMaxWidth {
		boxWidth = statBoxMaxWidth
	}
	if boxWidth < statBoxMinWidth {
		boxWidth = statBoxMinWidth
	}

	widget := func(title string, value int, desc string) string {
		inner := boxWidth - 4
		content := strings.Join([]string{
			dimStyle.Render(truncate.StringWithTail(title, uint(inner), "…")),
			statValueStyle.Render(tr.FormatNumber(value)),
			dimStyle.Render(truncate.StringWithTail(desc, uint(inner), "…")),
		}, "\n")
		return statBoxStyle.Width(boxWidth - 2).Render(content)
	}

	boxes := []string{
		widget(tr.T("Dashboard.total_projects"), st.Total, tr.T("Dashboard.total_projects_desc")),
		widget(tr.T("Dashboard.active_projects"), st.Active, tr.T("Dashboard.active_projects_desc")),
		widget(tr.T("Dashboard.completed_projects"), st.Completed, tr.T("Dashboard.completed_projects_desc")),
	}
	if width < 3*boxWidth {
		return lipgloss.JoinVertical(lipgloss.Left, boxes...)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

// RenderPagination renders the "showing x-y of n" footer with page buttons.
// It returns "" when everything fits on one page.
func RenderPagination(rm rowmodel.RowModel, tr *i18n.Translator) string {
	if rm.PageCount <= 1 {
		return ""
	}
	first, last := rm.Window()
	showing := tr.Tf("Common.pagination.showing", map[string]any{
		"startIndex": first,
		"endIndex":   last,
		"total":      rm.Filtered,
	})

	prev := "‹ " + tr.T("Common.pagination.previous")
	next := tr.T("Common.pagination.next") + " ›"
	if rm.HasPrev() {
		prev = NormalItemStyle.Render(prev)
	} else {
		prev = dimStyle.Render(prev)
	}
	if rm.HasNext() {
		next = NormalItemStyle.Render(next)
	} else {
		next = dimStyle.Render(next)
	}

	from, to := pageButtonRange(rm.Page, rm.PageCount)
	buttons := make([]string, 0, to-from)
	for p := from; p < to; p++ {
		label := fmt.Sprintf("%d", p+1)
		if p == rm.Page {
			buttons = append(buttons, SelectedItemStyle.Render("["+label+"]"))
		} else {
			buttons = append(buttons, dimStyle.Render(" "+label+" "))
		}
	}

	return dimStyle.Render(showing) + "   " + prev + " " + strings.Join(buttons, "") + " " + next
}

// pageButtonRange returns the half-open range of page indexes to show as
// buttons, centered on page.
func pageButtonRange(page, count int) (int, int) {
	if count <= maxPageButtons {
		return 0, count
	}
	from := page - maxPageButtons/2
	if from < 0 {
		from = 0
	}
	to := from + maxPageButtons
	if to > count {
		to = count
		from = to - maxPageButtons
	}
	return from, to
}

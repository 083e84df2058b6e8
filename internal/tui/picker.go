package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// pickerKind tells the dashboard what a picked value means.
type pickerKind int

const (
	pickerStatus pickerKind = iota
	pickerQuickAction
	pickerRowAction
)

// Row menu values.
const (
	rowActionView   = "view"
	rowActionEdit   = "edit"
	rowActionDelete = "delete"
)

// pickerItem is one menu entry.
type pickerItem struct {
	value string
	label string
}

func (i pickerItem) FilterValue() string { return i.label }

// pickerItemDelegate renders menu entries as "n. label".
type pickerItemDelegate struct{}

func (d pickerItemDelegate) Height() int                             { return 1 }
func (d pickerItemDelegate) Spacing() int                            { return 0 }
func (d pickerItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d pickerItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(pickerItem)
	if !ok {
		return
	}

	str := fmt.Sprintf("%d. %s", index+1, i.label)

	fn := NormalItemStyle.Render
	if index == m.Index() {
		fn = func(s ...string) string {
			return SelectedItemStyle.Render("> " + s[0])
		}
	} else {
		str = "  " + str
	}

	fmt.Fprint(w, fn(str))
}

// PickerModel is a small menu shown over the dashboard.
type PickerModel struct {
	kind pickerKind
	list list.Model
}

// NewPickerModel creates a menu with the given entries. selected is the
// initially highlighted value.
func NewPickerModel(kind pickerKind, title string, items []pickerItem, selected string) PickerModel {
	listItems := make([]list.Item, len(items))
	cursor := 0
	for i, it := range items {
		listItems[i] = it
		if it.value == selected {
			cursor = i
		}
	}

	l := list.New(listItems, pickerItemDelegate{}, 40, len(items)+4)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = TitleStyle
	l.Styles.PaginationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	l.Select(cursor)

	return PickerModel{kind: kind, list: l}
}

// Init initializes the model.
func (m PickerModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m PickerModel) Update(msg tea.Msg) (PickerModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			return m, m.pick(m.list.Index())
		case "esc", "q":
			return m, func() tea.Msg { return pickerClosedMsg{} }
		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			idx := int(msg.Runes[0] - '1')
			if idx < len(m.list.Items()) {
				return m, m.pick(idx)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m PickerModel) pick(idx int) tea.Cmd {
	items := m.list.Items()
	if idx < 0 || idx >= len(items) {
		return nil
	}
	item, ok := items[idx].(pickerItem)
	if !ok {
		return nil
	}
	kind := m.kind
	return func() tea.Msg {
		return PickedMsg{Kind: kind, Value: item.value}
	}
}

// View renders the menu.
func (m PickerModel) View() string {
	return dialogStyle.Render(m.list.View())
}

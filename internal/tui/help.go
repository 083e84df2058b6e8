package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// HelpOverlayStyle frames the full key reference.
var HelpOverlayStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("62")).
	Padding(1, 2).
	MarginTop(1)

// searchKeyMap lists the keys that apply while typing a search.
type searchKeyMap struct {
	Apply key.Binding
	Clear key.Binding
}

func newSearchKeyMap() searchKeyMap {
	return searchKeyMap{
		Apply: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "keep search")),
		Clear: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear search")),
	}
}

func (k searchKeyMap) ShortHelp() []key.Binding { return []key.Binding{k.Apply, k.Clear} }

func (k searchKeyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

// HelpModel renders the dashboard key reference and the footer hints.
type HelpModel struct {
	help   help.Model
	keymap help.KeyMap
	search help.KeyMap
	title  string
}

// NewHelpModel creates the help model. title heads the full overlay.
func NewHelpModel(keymap help.KeyMap, title string) HelpModel {
	return HelpModel{
		help:   help.New(),
		keymap: keymap,
		search: newSearchKeyMap(),
		title:  title,
	}
}

// View renders the full reference as an overlay.
func (m HelpModel) View(width int) string {
	m.help.ShowAll = true
	m.help.Width = width - 8 // border and padding
	body := TitleStyle.Render(m.title) + "\n" + m.help.View(m.keymap)
	return HelpOverlayStyle.Render(body)
}

// ShortView renders the one-line footer. While searching only the search
// keys apply.
func (m HelpModel) ShortView(width int, searching bool) string {
	m.help.ShowAll = false
	m.help.Width = width
	if searching {
		return m.help.View(m.search)
	}
	return m.help.View(m.keymap)
}

package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/robby/pmdash/internal/dialog"
)

// dialogForm is a form mounted in the dialog slot.
type dialogForm interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (dialogForm, tea.Cmd)
	View(width int) string
}

// newDialogForm maps the current intent to its form. It returns nil when the
// slot is closed or the action has no form, and the host then renders nothing.
func newDialogForm(intent dialog.Intent, deps Deps) dialogForm {
	if !intent.IsOpen {
		return nil
	}
	switch intent.Action {
	case dialog.ActionNewProject:
		return newProjectForm(deps, intent.Payload)
	case dialog.ActionNewContract:
		return newPlaceholderForm(deps, "Dashboard.new_contract", "Dashboard.new_contract_desc")
	case dialog.ActionCreateInvoice:
		return newPlaceholderForm(deps, "Dashboard.create_invoice", "Dashboard.create_invoice_desc")
	case dialog.ActionAddClient:
		return newPlaceholderForm(deps, "Dashboard.add_client", "Dashboard.add_client_desc")
	case dialog.ActionNewQuotation:
		return newPlaceholderForm(deps, "Dashboard.new_quotation", "Dashboard.new_quotation_desc")
	case dialog.ActionNone:
		return nil
	default:
		return nil
	}
}

// quickActionLabel returns the translation key for a quick action's menu entry.
func quickActionLabel(a dialog.Action) string {
	switch a {
	case dialog.ActionNewProject:
		return "Dashboard.new_project"
	case dialog.ActionNewContract:
		return "Dashboard.new_contract"
	case dialog.ActionCreateInvoice:
		return "Dashboard.create_invoice"
	case dialog.ActionAddClient:
		return "Dashboard.add_client"
	case dialog.ActionNewQuotation:
		return "Dashboard.new_quotation"
	}
	return ""
}

// placeholderForm is shown for actions whose forms are not built yet.
type placeholderForm struct {
	deps     Deps
	titleKey string
	descKey  string
}

func newPlaceholderForm(deps Deps, titleKey, descKey string) placeholderForm {
	return placeholderForm{deps: deps, titleKey: titleKey, descKey: descKey}
}

func (f placeholderForm) Init() tea.Cmd { return nil }

func (f placeholderForm) Update(msg tea.Msg) (dialogForm, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc", "enter", "q":
			return f, func() tea.Msg { return dialogClosedMsg{} }
		}
	}
	return f, nil
}

func (f placeholderForm) View(width int) string {
	tr := f.deps.Translator
	body := TitleStyle.Render(tr.T(f.titleKey)) + "\n" +
		tr.T(f.descKey) + "\n\n" +
		dimStyle.Render(tr.T("Message.placeholder")) + "\n\n" +
		HelpStyle.Render("[esc] "+tr.T("Common.cancel"))
	return dialogStyle.Width(dialogWidth(width)).Render(body)
}

func dialogWidth(width int) int {
	w := width - 8
	if w > 72 {
		w = 72
	}
	if w < 30 {
		w = 30
	}
	return w
}

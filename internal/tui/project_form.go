package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/robby/pmdash/internal/dialog"
	"github.com/robby/pmdash/internal/domain"
	"github.com/robby/pmdash/internal/forms"
)

// PayloadID is the dialog payload key holding the project being edited.
const PayloadID = "id"

type projectField int

const (
	fieldName projectField = iota
	fieldClient
	fieldStatus
	fieldDescription
	fieldStart
	fieldEnd
	fieldCount
)

// formKeys maps form positions to field names.
var formKeys = [fieldCount]string{
	fieldName:        forms.FieldName,
	fieldClient:      forms.FieldClientID,
	fieldStatus:      forms.FieldStatus,
	fieldDescription: forms.FieldDescription,
	fieldStart:       forms.FieldStartDate,
	fieldEnd:         forms.FieldEndDate,
}

// projectForm creates a project, or edits one when the payload carries an id.
type projectForm struct {
	deps   Deps
	editID string

	inputs  [fieldCount]textinput.Model
	focus   projectField
	spinner spinner.Model

	clients        []domain.Client
	clientIdx      int
	wantClientID   string
	loadingClients bool
	clientsErr     error

	statusIdx int

	// Set while an edited project's value has no option and saving would
	// replace it; cleared once the user picks a value.
	replacedStatus string
	missingClient  bool

	errs      forms.Errors
	saving    bool
	submitErr string
}

func newProjectForm(deps Deps, payload dialog.Payload) projectForm {
	f := projectForm{
		deps:           deps,
		editID:         payload.String(PayloadID),
		wantClientID:   payload.String(forms.FieldClientID),
		loadingClients: true,
		spinner:        spinner.New(spinner.WithSpinner(spinner.Dot)),
	}

	for i := range f.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 256
		ti.SetValue(payload.String(formKeys[i]))
		f.inputs[i] = ti
	}
	f.inputs[fieldStart].Placeholder = domain.DateLayout
	f.inputs[fieldEnd].Placeholder = domain.DateLayout
	f.inputs[fieldName].Focus()

	if status := payload.String(forms.FieldStatus); status != "" {
		f.replacedStatus = status
		for i, opt := range forms.ProjectStatusOptions {
			if opt == status {
				f.statusIdx = i
				f.replacedStatus = ""
			}
		}
	}
	return f
}

func (f projectForm) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, f.spinner.Tick, f.loadClients())
}

func (f projectForm) loadClients() tea.Cmd {
	deps := f.deps
	return func() tea.Msg {
		ctx, cancel := deps.requestContext()
		defer cancel()
		clients, err := deps.Source.ListClients(ctx)
		return clientsLoadedMsg{clients: clients, err: err}
	}
}

func (f projectForm) Update(msg tea.Msg) (dialogForm, tea.Cmd) {
	switch msg := msg.(type) {
	case clientsLoadedMsg:
		f.loadingClients = false
		f.clientsErr = msg.err
		f.clients = msg.clients
		f.missingClient = f.editID != "" && f.wantClientID != "" && msg.err == nil
		for i, c := range f.clients {
			if c.ID == f.wantClientID {
				f.clientIdx = i
				f.missingClient = false
			}
		}
		return f, nil

	case projectSaveFailedMsg:
		f.saving = false
		f.submitErr = msg.err.Error()
		// Keep the draft in the slot so it survives a remount.
		f.deps.Dialog.UpdateData(f.payload())
		return f, nil

	case spinner.TickMsg:
		if !f.saving && !f.loadingClients {
			return f, nil
		}
		var cmd tea.Cmd
		f.spinner, cmd = f.spinner.Update(msg)
		return f, cmd

	case tea.KeyMsg:
		if f.saving {
			return f, nil
		}
		return f.handleKey(msg)
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f projectForm) handleKey(msg tea.KeyMsg) (dialogForm, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return f, func() tea.Msg { return dialogClosedMsg{} }
	case "tab", "down":
		f.setFocus((f.focus + 1) % fieldCount)
		return f, nil
	case "shift+tab", "up":
		f.setFocus((f.focus + fieldCount - 1) % fieldCount)
		return f, nil
	case "ctrl+s":
		return f.submit()
	case "enter":
		if f.focus == fieldCount-1 {
			return f.submit()
		}
		f.setFocus(f.focus + 1)
		return f, nil
	case "left", "right":
		delta := 1
		if msg.String() == "left" {
			delta = -1
		}
		switch f.focus {
		case fieldClient:
			if n := len(f.clients); n > 0 {
				f.clientIdx = (f.clientIdx + delta + n) % n
				f.missingClient = false
			}
			return f, nil
		case fieldStatus:
			n := len(forms.ProjectStatusOptions)
			f.statusIdx = (f.statusIdx + delta + n) % n
			f.replacedStatus = ""
			return f, nil
		}
	}

	if f.focus == fieldClient || f.focus == fieldStatus {
		return f, nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	f.deps.Dialog.UpdateData(dialog.Payload{formKeys[f.focus]: f.inputs[f.focus].Value()})
	return f, cmd
}

func (f *projectForm) setFocus(field projectField) {
	f.inputs[f.focus].Blur()
	f.focus = field
	if field != fieldClient && field != fieldStatus {
		f.inputs[field].Focus()
	}
}

func (f projectForm) values() forms.Values {
	v := forms.Values{}
	for i, ti := range f.inputs {
		v[formKeys[i]] = ti.Value()
	}
	v[forms.FieldClientID] = ""
	if f.clientIdx < len(f.clients) {
		v[forms.FieldClientID] = f.clients[f.clientIdx].ID
	}
	v[forms.FieldStatus] = forms.ProjectStatusOptions[f.statusIdx]
	return v
}

func (f projectForm) payload() dialog.Payload {
	p := dialog.Payload{}
	for k, v := range f.values() {
		p[k] = v
	}
	if f.editID != "" {
		p[PayloadID] = f.editID
	}
	return p
}

func (f projectForm) submit() (dialogForm, tea.Cmd) {
	np, err := forms.NewProjectInput(f.values())
	var ferrs forms.Errors
	if errors.As(err, &ferrs) {
		f.errs = ferrs
		f.submitErr = ""
		return f, nil
	}
	if err != nil {
		f.submitErr = err.Error()
		return f, nil
	}

	f.errs = nil
	f.submitErr = ""
	f.saving = true
	return f, tea.Batch(f.spinner.Tick, f.save(np))
}

func (f projectForm) save(np domain.NewProject) tea.Cmd {
	deps, id := f.deps, f.editID
	return func() tea.Msg {
		ctx, cancel := deps.requestContext()
		defer cancel()

		var (
			p   domain.Project
			err error
		)
		if id != "" {
			p, err = deps.Source.UpdateProject(ctx, id, np)
		} else {
			p, err = deps.Source.CreateProject(ctx, np)
		}
		if err != nil {
			return projectSaveFailedMsg{err: err}
		}
		return projectSavedMsg{project: p, edited: id != ""}
	}
}

func (f projectForm) View(width int) string {
	tr := f.deps.Translator
	var b strings.Builder

	title := tr.T("Dashboard.new_project")
	if f.editID != "" {
		title = tr.T("Dashboard.edit_project")
	}
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(tr.T("Dashboard.new_project_desc")))
	b.WriteString("\n\n")

	labels := [fieldCount]string{
		fieldName:        tr.T("Common.project_name"),
		fieldClient:      tr.T("Common.client"),
		fieldStatus:      tr.T("Common.status"),
		fieldDescription: tr.T("Common.description"),
		fieldStart:       tr.T("Common.start_date"),
		fieldEnd:         tr.T("Common.end_date"),
	}

	for i := projectField(0); i < fieldCount; i++ {
		label := PromptStyle.Render(labels[i])
		if i == f.focus {
			label = SelectedItemStyle.Render("> " + labels[i])
		}
		b.WriteString(label)
		b.WriteString("\n")

		switch i {
		case fieldClient:
			b.WriteString(f.clientView())
		case fieldStatus:
			b.WriteString("‹ " + tr.StatusLabel(forms.ProjectStatusOptions[f.statusIdx]) + " ›")
		default:
			b.WriteString(f.inputs[i].View())
		}
		b.WriteString("\n")

		if w := f.fieldWarning(i); w != "" {
			b.WriteString(fieldWarnStyle.Render(w))
			b.WriteString("\n")
		}
		for _, fe := range f.errs.Field(formKeys[i]) {
			b.WriteString(fieldErrorStyle.Render(tr.Tf(fe.Key, fe.Params)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	switch {
	case f.saving:
		b.WriteString(f.spinner.View() + " " + tr.T("Common.saving"))
	case f.submitErr != "":
		b.WriteString(ErrorStyle.Render("✗ " + f.submitErr))
	default:
		b.WriteString(HelpStyle.Render("[tab] next  [ctrl+s] " + tr.T("Common.save") + "  [esc] " + tr.T("Common.cancel")))
	}

	return dialogStyle.Width(dialogWidth(width)).Render(b.String())
}

// fieldWarning explains a value saving would replace.
func (f projectForm) fieldWarning(field projectField) string {
	tr := f.deps.Translator
	switch {
	case field == fieldStatus && f.replacedStatus != "":
		return tr.Tf("Dashboard.status_replaced", map[string]any{
			"status":      tr.StatusLabel(f.replacedStatus),
			"replacement": tr.StatusLabel(forms.ProjectStatusOptions[f.statusIdx]),
		})
	case field == fieldClient && f.missingClient && len(f.clients) > 0:
		return tr.Tf("Dashboard.client_replaced", map[string]any{
			"replacement": f.clients[f.clientIdx].Name,
		})
	}
	return ""
}

func (f projectForm) clientView() string {
	tr := f.deps.Translator
	switch {
	case f.loadingClients:
		return f.spinner.View() + " " + tr.T("Message.loading")
	case f.clientsErr != nil:
		return ErrorStyle.Render(f.clientsErr.Error())
	case len(f.clients) == 0:
		return dimStyle.Render(tr.T("Message.no_clients"))
	}
	return "‹ " + f.clients[f.clientIdx].Name + " ›"
}

package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/robby/pmdash/internal/auth"
	"github.com/robby/pmdash/internal/forms"
)

// SignInModel asks for email and password.
type SignInModel struct {
	deps Deps

	email    textinput.Model
	password textinput.Model
	spinner  spinner.Model

	errs       forms.Errors
	loading    bool
	errorMsg   string
	width      int
	height     int
	focusEmail bool
}

// NewSignInModel creates the sign in screen.
func NewSignInModel(deps Deps) SignInModel {
	email := textinput.New()
	email.Prompt = ""
	email.Placeholder = "you@example.com"
	email.Focus()

	password := textinput.New()
	password.Prompt = ""
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return SignInModel{
		deps:       deps,
		email:      email,
		password:   password,
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
		focusEmail: true,
	}
}

// Init initializes the model.
func (m SignInModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tea.WindowSize())
}

// Update handles messages.
func (m SignInModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case signInFailedMsg:
		m.loading = false
		if errors.Is(msg.err, auth.ErrInvalidCredentials) {
			m.errorMsg = msg.err.Error()
		} else {
			m.errorMsg = m.deps.Translator.T("Message.error") + ": " + msg.err.Error()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.loading {
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "shift+tab", "up", "down":
			m.toggleFocus()
			return m, nil
		case "enter":
			if m.focusEmail {
				m.toggleFocus()
				return m, nil
			}
			return m.submit()
		}
	}

	var cmd tea.Cmd
	if m.focusEmail {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *SignInModel) toggleFocus() {
	m.focusEmail = !m.focusEmail
	if m.focusEmail {
		m.password.Blur()
		m.email.Focus()
	} else {
		m.email.Blur()
		m.password.Focus()
	}
}

func (m SignInModel) submit() (tea.Model, tea.Cmd) {
	values := forms.Values{
		forms.FieldEmail:    m.email.Value(),
		forms.FieldPassword: m.password.Value(),
	}
	if err := forms.SignInSchema().Validate(values); err != nil {
		var ferrs forms.Errors
		if errors.As(err, &ferrs) {
			m.errs = ferrs
		}
		return m, nil
	}

	m.errs = nil
	m.errorMsg = ""
	m.loading = true

	deps := m.deps
	email, password := values.Get(forms.FieldEmail), m.password.Value()
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := deps.requestContext()
		defer cancel()
		sess, err := deps.Auth.SignIn(ctx, email, password)
		if err != nil {
			return signInFailedMsg{err: err}
		}
		return SignedInMsg{Session: sess}
	})
}

// View renders the sign in form.
func (m SignInModel) View() string {
	tr := m.deps.Translator
	var b strings.Builder

	b.WriteString(TitleStyle.Render(tr.T("Auth.sign_in")))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(tr.T("Auth.sign_in_desc")))
	b.WriteString("\n\n")

	field := func(label string, focused bool, input textinput.Model, name string) {
		if focused {
			b.WriteString(SelectedItemStyle.Render("> " + label))
		} else {
			b.WriteString(PromptStyle.Render(label))
		}
		b.WriteString("\n")
		b.WriteString(input.View())
		b.WriteString("\n")
		for _, fe := range m.errs.Field(name) {
			b.WriteString(fieldErrorStyle.Render(tr.Tf(fe.Key, fe.Params)))
			b.WriteString("\n")
		}
	}
	field(tr.T("Auth.email"), m.focusEmail, m.email, forms.FieldEmail)
	field(tr.T("Auth.password"), !m.focusEmail, m.password, forms.FieldPassword)

	b.WriteString("\n")
	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " " + tr.T("Message.loading"))
	case m.errorMsg != "":
		b.WriteString(ErrorStyle.Render("✗ " + m.errorMsg))
	default:
		b.WriteString(HelpStyle.Render("[enter] " + tr.T("Auth.sign_in") + "  [esc] quit"))
	}

	box := dialogStyle.Width(dialogWidth(m.width)).Render(b.String())
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

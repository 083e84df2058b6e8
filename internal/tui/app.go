package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/robby/pmdash/internal/auth"
	"github.com/robby/pmdash/internal/backend"
	"github.com/robby/pmdash/internal/dialog"
	"github.com/robby/pmdash/internal/i18n"
	"github.com/robby/pmdash/internal/logging"
	"github.com/robby/pmdash/internal/store"
)

// Deps are the collaborators shared by every screen.
type Deps struct {
	Ctx        context.Context
	Source     backend.Source
	Auth       auth.Authenticator // nil when the backend needs no sign in
	Store      *store.Store
	Dialog     *dialog.Store
	Translator *i18n.Translator
	Logger     zerolog.Logger

	SessionPath string
	SiteURL     string
	Timeout     time.Duration
}

// requestContext derives the context for one backend call.
func (d Deps) requestContext() (context.Context, context.CancelFunc) {
	ctx := d.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if d.Timeout > 0 {
		return context.WithTimeout(ctx, d.Timeout)
	}
	return context.WithCancel(ctx)
}

func (d Deps) log() *zerolog.Logger {
	l := logging.Package(d.Logger, "tui")
	return &l
}

// AppScreen represents the different screens in the application flow.
type AppScreen int

const (
	ScreenSignIn AppScreen = iota
	ScreenDashboard
	ScreenDetail
)

// AppModel is the root Bubble Tea model that manages screen transitions.
// It routes from sign in to the dashboard, and between the dashboard and
// the project detail view.
type AppModel struct {
	deps Deps

	currentScreen AppScreen
	currentModel  tea.Model
	err           error

	// Cached so list state and overlays survive a trip to the detail view
	dashboard *DashboardModel
}

// NewAppModel creates the app. needsSignIn starts on the sign in screen.
func NewAppModel(deps Deps, needsSignIn bool) AppModel {
	m := AppModel{deps: deps}
	if needsSignIn && deps.Auth != nil {
		m.currentScreen = ScreenSignIn
		m.currentModel = NewSignInModel(deps)
		return m
	}
	m.currentScreen = ScreenDashboard
	dash := NewDashboardModel(deps)
	m.dashboard = &dash
	m.currentModel = dash
	return m
}

// Init initializes the current screen.
func (m AppModel) Init() tea.Cmd {
	return m.currentModel.Init()
}

// Update handles messages and transitions between screens.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case QuitMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		if m.err != nil && msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case SignedInMsg:
		if err := auth.SaveSession(m.deps.SessionPath, msg.Session); err != nil {
			m.deps.log().Warn().Err(err).Msg("failed to persist session")
		}
		m.deps.log().Info().Str(logging.EVENT, "sign_in").Str(logging.ID, msg.Session.User.ID).Msg("signed in")
		// A new session starts from a clean list
		m.deps.Store.Reset()
		m.deps.Dialog.Close()
		return m.showDashboard()

	case projectsLoadedMsg:
		if m.deps.Auth != nil && m.deps.Store.IsLatestFetch(msg.seq) && errors.Is(msg.err, backend.ErrUnauthorized) {
			m.deps.log().Info().Err(msg.err).Str(logging.EVENT, "session_rejected").Msg("asking to sign in again")
			return m.showSignIn()
		}

	case openDetailMsg:
		m.currentScreen = ScreenDetail
		detail := NewDetailModel(m.deps, msg.id)
		m.currentModel = detail
		return m, detail.Init()

	case closeDetailMsg:
		m.currentScreen = ScreenDashboard
		m.currentModel = *m.dashboard
		// Refetch so edits made elsewhere show up
		return m, tea.Batch(tea.WindowSize(), m.dashboard.refreshCmd())

	case openDialogMsg:
		if m.currentScreen == ScreenDetail {
			m.currentScreen = ScreenDashboard
			m.currentModel = *m.dashboard
		}
	}

	var cmd tea.Cmd
	m.currentModel, cmd = m.currentModel.Update(msg)
	if m.currentScreen == ScreenDashboard {
		if dm, ok := m.currentModel.(DashboardModel); ok {
			m.dashboard = &dm
		}
	}
	return m, cmd
}

func (m AppModel) showSignIn() (tea.Model, tea.Cmd) {
	m.currentScreen = ScreenSignIn
	m.dashboard = nil
	signIn := NewSignInModel(m.deps)
	m.currentModel = signIn
	return m, signIn.Init()
}

func (m AppModel) showDashboard() (tea.Model, tea.Cmd) {
	m.currentScreen = ScreenDashboard
	dash := NewDashboardModel(m.deps)
	m.dashboard = &dash
	m.currentModel = dash
	return m, dash.Init()
}

// View renders the current screen.
func (m AppModel) View() string {
	if m.err != nil {
		return ErrorStyle.Render(fmt.Sprintf("Error: %v\n\nPress Ctrl+C to quit", m.err))
	}
	return m.currentModel.View()
}

// Screen returns the active screen.
func (m AppModel) Screen() AppScreen {
	return m.currentScreen
}

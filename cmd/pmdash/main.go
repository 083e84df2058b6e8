package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/robby/pmdash/internal/auth"
	"github.com/robby/pmdash/internal/backend"
	"github.com/robby/pmdash/internal/config"
	"github.com/robby/pmdash/internal/dialog"
	"github.com/robby/pmdash/internal/i18n"
	"github.com/robby/pmdash/internal/logging"
	"github.com/robby/pmdash/internal/sqlite"
	"github.com/robby/pmdash/internal/store"
	"github.com/robby/pmdash/internal/supa"
	"github.com/robby/pmdash/internal/tui"
)

var (
	// Global CLI flags
	configFlag   string
	backendFlag  string
	localeFlag   string
	logLevelFlag string
)

// localSessionTTL is how long an offline session stays valid.
const localSessionTTL = 24 * time.Hour

func main() {
	rootCmd := &cobra.Command{
		Use:   "pmdash",
		Short: "Terminal dashboard for managing projects",
		Long: `pmdash is a terminal dashboard for the projects of a small agency.

Browse, search, filter, sort and page through projects, and create or edit
them without leaving the terminal.

Backends:
  supabase  Hosted backend. Set SUPABASE_URL and SUPABASE_ANON_KEY.
  sqlite    Offline database file. Run 'pmdash --backend sqlite seed' for demo data.

Authentication (supabase):
  1. Run 'pmdash signin' (or sign in from the dashboard)
  2. Environment variable: Set PMDASH_ACCESS_TOKEN`,
		SilenceUsage: true,
		RunE:         run,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFlag, "config", "", "Path to a YAML config file (default $PMDASH_CONFIG)")
	pf.StringVar(&backendFlag, "backend", "", "Backend to use: supabase or sqlite")
	pf.StringVar(&localeFlag, "locale", "", "Interface language: "+fmt.Sprint(i18n.Available()))
	pf.StringVar(&logLevelFlag, "log-level", "", "Log level: trace, debug, info, warn, error")

	rootCmd.AddCommand(
		newSignInCmd(),
		newSignUpCmd(),
		newSignOutCmd(),
		newWhoAmICmd(),
		newForgotPasswordCmd(),
		newResetPasswordCmd(),
		newProjectsCmd(),
		newSeedCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env holds what every command builds from flags and configuration.
type env struct {
	cfg    config.Config
	logger zerolog.Logger
	tr     *i18n.Translator
	source backend.Source
	authn  auth.Authenticator
	repo   *sqlite.Repository // set for the sqlite backend only

	closers []io.Closer
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return config.Config{}, err
	}
	if backendFlag != "" {
		cfg.Backend.Kind = backendFlag
	}
	if localeFlag != "" {
		cfg.UI.Locale = localeFlag
	}
	if logLevelFlag != "" {
		cfg.Log.Level = logLevelFlag
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setup loads configuration and opens the configured backend.
func setup() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, logCloser, err := logging.New(cfg.Log.Level, cfg.Log.Path)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, logger: logger, closers: []io.Closer{logCloser}}

	e.tr, err = i18n.New(cfg.UI.Locale)
	if err != nil {
		e.Close()
		return nil, err
	}

	switch cfg.Backend.Kind {
	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		e.closers = append(e.closers, db)
		e.repo = sqlite.NewRepository(db, logger)
		e.source = e.repo
		e.authn = auth.NewLocalAuthenticator(localSessionTTL)
	default:
		e.source = supa.New(cfg.SupabaseURL(), cfg.Backend.AnonKey, auth.DefaultChain(cfg.Session.Path), cfg.Backend.Timeout, logger)
		e.authn = auth.NewClient(cfg.SupabaseURL(), cfg.Backend.AnonKey, cfg.Backend.Timeout, logger)
	}

	logger.Debug().Str(logging.EVENT, "startup").Str("backend", cfg.Backend.Kind).Str("locale", e.tr.Locale()).Msg("configured")
	return e, nil
}

// Close releases the database and log file.
func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i].Close()
	}
}

// hosted reports whether the backend needs a signed in session.
func (e *env) hosted() bool {
	return e.cfg.Backend.Kind == config.BackendSupabase
}

func run(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	s := store.New(e.cfg.UI.PageSize)
	mode, err := store.ParseViewMode(e.cfg.UI.ViewMode)
	if err != nil {
		return err
	}
	if err := s.SetViewMode(mode); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps := tui.Deps{
		Ctx:         ctx,
		Source:      e.source,
		Store:       s,
		Dialog:      dialog.NewStore(),
		Translator:  e.tr,
		Logger:      e.logger,
		SessionPath: e.cfg.Session.Path,
		SiteURL:     e.cfg.UI.SiteURL,
		Timeout:     e.cfg.Backend.Timeout,
	}

	needsSignIn := false
	if e.hosted() {
		deps.Auth = e.authn
		if _, err := auth.DefaultChain(e.cfg.Session.Path).GetToken(); err != nil {
			needsSignIn = true
			e.logger.Info().Err(err).Str(logging.EVENT, "startup").Msg("no usable session, asking to sign in")
		}
	}

	app := tui.NewAppModel(deps, needsSignIn)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return fmt.Errorf("program error: %w", err)
	}

	return nil
}

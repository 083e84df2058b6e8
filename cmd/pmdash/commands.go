package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/robby/pmdash/internal/auth"
	"github.com/robby/pmdash/internal/forms"
	"github.com/robby/pmdash/internal/i18n"
	"github.com/robby/pmdash/internal/logging"
	"github.com/robby/pmdash/internal/rowmodel"
	"github.com/robby/pmdash/internal/store"
	"github.com/robby/pmdash/internal/tui"
)

const defaultTermWidth = 100

// requestContext bounds one backend call by the configured timeout.
func (e *env) requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	if e.cfg.Backend.Timeout > 0 {
		return context.WithTimeout(cmd.Context(), e.cfg.Backend.Timeout)
	}
	return context.WithCancel(cmd.Context())
}

// validationError renders field errors in the active locale, one per line.
func validationError(tr *i18n.Translator, err error) error {
	var ferrs forms.Errors
	if !errors.As(err, &ferrs) {
		return err
	}
	lines := make([]string, 0, len(ferrs))
	for _, fe := range ferrs {
		lines = append(lines, fmt.Sprintf("  %s: %s", fe.Field, tr.Tf(fe.Key, fe.Params)))
	}
	return fmt.Errorf("invalid input:\n%s", strings.Join(lines, "\n"))
}

// promptSecret asks for a value without echo when stdin is a terminal.
func promptSecret(out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(label, ": "), err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newSignInCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.Close()

			if password == "" {
				if password, err = promptSecret(cmd.OutOrStdout(), "Password: "); err != nil {
					return err
				}
			}
			values := forms.Values{forms.FieldEmail: email, forms.FieldPassword: password}
			if err := forms.SignInSchema().Validate(values); err != nil {
				return validationError(e.tr, err)
			}

			ctx, cancel := e.requestContext(cmd)
			defer cancel()
			sess, err := e.authn.SignIn(ctx, values.Get(forms.FieldEmail), password)
			if err != nil {
				return err
			}
			if err := auth.SaveSession(e.cfg.Session.Path, sess); err != nil {
				return err
			}
			e.logger.Info().Str(logging.EVENT, "sign_in").Str(logging.ID, sess.User.ID).Msg("signed in")

			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", sess.User.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted)")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newSignUpCmd() *cobra.Command {
	var name, email, password, confirm string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			if password == "" {
				if password, err = promptSecret(out, "Password: "); err != nil {
					return err
				}
			}
			if confirm == "" {
				if confirm, err = promptSecret(out, "Confirm password: "); err != nil {
					return err
				}
			}

			values := forms.Values{
				forms.FieldName:     name,
				forms.FieldEmail:    email,
				forms.FieldPassword: password,
				forms.FieldConfirm:  confirm,
			}
			if err := forms.SignUpSchema().Validate(values); err != nil {
				return validationError(e.tr, err)
			}

			ctx, cancel := e.requestContext(cmd)
			defer cancel()
			user, err := e.authn.SignUp(ctx, values.Get(forms.FieldName), values.Get(forms.FieldEmail), password)
			if err != nil {
				return err
			}
			e.logger.Info().Str(logging.EVENT, "sign_up").Str(logging.ID, user.ID).Msg("account created")

			fmt.Fprintf(out, "Account created for %s\n", user.Email)
			if e.hosted() {
				fmt.Fprintln(out, "Check your inbox to confirm the address, then run 'pmdash signin'.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	cmd.Flags().StringVar(&confirm, "confirm", "", "Password confirmation (prompted when omitted)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newSignOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Revoke and remove the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.Close()

			sess, err := auth.LoadSession(e.cfg.Session.Path)
			if errors.Is(err, auth.ErrNoSession) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			if err != nil {
				return err
			}

			ctx, cancel := e.requestContext(cmd)
			defer cancel()
			if err := e.authn.SignOut(ctx, sess.AccessToken); err != nil {
				// Expired tokens cannot be revoked; the file is removed anyway
				e.logger.Warn().Err(err).Str(logging.EVENT, "sign_out").Msg("revoke failed")
			}
			if err := auth.ClearSession(e.cfg.Session.Path); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoAmICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.Close()

			sess, err := auth.LoadSession(e.cfg.Session.Path)
			if err != nil {
				return err
			}

			user := sess.User.Domain()
			if e.hosted() {
				ctx, cancel := e.requestContext(cmd)
				defer cancel()
				u, err := e.authn.GetUser(ctx, sess.AccessToken)
				if err != nil {
					return err
				}
				user = *u
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Email: %s\n", user.Email)
			if user.Name != "" {
				fmt.Fprintf(out, "Name:  %s\n", user.Name)
			}
			fmt.Fprintf(out, "ID:    %s\n", user.ID)
			if !sess.ExpiresAt.IsZero() {
				fmt.Fprintf(out, "Session expires %s\n", sess.ExpiresAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func newForgotPasswordCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Send a password recovery email",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.Close()

			values := forms.Values{forms.FieldEmail: email}
			if err := forms.ForgotPasswordSchema().Validate(values); err != nil {
				return validationError(e.tr, err)
			}

			ctx, cancel := e.requestContext(cmd)
			defer cancel()
			if err := e.authn.Recover(ctx, values.Get(forms.FieldEmail)); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "If %s has an account, a recovery link is on its way\n", values.Get(forms.FieldEmail))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newResetPasswordCmd() *cobra.Command {
	var password, confirm string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password for the signed in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			if password == "" {
				if password, err = promptSecret(out, "New password: "); err != nil {
					return err
				}
			}
			if confirm == "" {
				if confirm, err = promptSecret(out, "Confirm password: "); err != nil {
					return err
				}
			}

			values := forms.Values{forms.FieldPassword: password, forms.FieldConfirm: confirm}
			if err := forms.ResetPasswordSchema().Validate(values); err != nil {
				return validationError(e.tr, err)
			}

			token, err := auth.DefaultChain(e.cfg.Session.Path).GetToken()
			if err != nil {
				return err
			}

			ctx, cancel := e.requestContext(cmd)
			defer cancel()
			if err := e.authn.UpdatePassword(ctx, token, password); err != nil {
				return err
			}
			e.logger.Info().Str(logging.EVENT, "reset_password").Msg("password updated")

			fmt.Fprintln(out, "Password updated")
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "New password (prompted when omitted)")
	cmd.Flags().StringVar(&confirm, "confirm", "", "Password confirmation (prompted when omitted)")
	return cmd
}

// listOptions are the flags of the projects command.
type listOptions struct {
	search   string
	status   string
	sort     string
	page     int
	pageSize int
	grid     bool
}

// parseSort reads "column" or "column:desc".
func parseSort(raw string) ([]rowmodel.SortKey, error) {
	if raw == "" {
		return nil, nil
	}
	name, dir, _ := strings.Cut(raw, ":")
	column, ok := rowmodel.ParseColumn(name)
	if !ok {
		return nil, fmt.Errorf("unknown sort column %q", name)
	}
	if !column.Sortable() {
		return nil, fmt.Errorf("column %q is not sortable", name)
	}
	switch strings.ToLower(dir) {
	case "", "asc":
		return []rowmodel.SortKey{{Column: column}}, nil
	case "desc":
		return []rowmodel.SortKey{{Column: column, Desc: true}}, nil
	}
	return nil, fmt.Errorf("unknown sort direction %q", dir)
}

// applyListOptions drives the store the way the dashboard keys do.
func applyListOptions(s *store.Store, opts listOptions) error {
	if opts.pageSize > 0 {
		if err := s.SetPageSize(opts.pageSize); err != nil {
			return err
		}
	}
	s.SetSearchTerm(opts.search)
	if opts.status != "" {
		if err := s.SetStatusFilter(opts.status); err != nil {
			return err
		}
	}
	keys, err := parseSort(opts.sort)
	if err != nil {
		return err
	}
	for _, k := range keys {
		s.ToggleSort(k.Column)
		if k.Desc {
			s.ToggleSort(k.Column)
		}
	}
	if opts.page > 1 {
		s.SetPage(opts.page - 1)
	}
	if opts.grid {
		return s.SetViewMode(store.ViewGrid)
	}
	return nil
}

// renderList prints the stats, the current page and the pagination footer.
func renderList(w io.Writer, s *store.Store, tr *i18n.Translator, width int) {
	rm := s.RowModel()

	fmt.Fprintln(w, tui.RenderStats(s.Stats(), tr, width))
	fmt.Fprintln(w)
	if s.ViewMode() == store.ViewGrid {
		fmt.Fprintln(w, tui.RenderGrid(rm, tr, width, -1))
	} else {
		fmt.Fprintln(w, tui.RenderTable(rm, tr, width, -1))
	}
	if footer := tui.RenderPagination(rm, tr); footer != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, footer)
	}
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return defaultTermWidth
}

func newProjectsCmd() *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Print one page of the project list",
		Long: `Print one page of the project list without starting the dashboard.

The same search, status filter, sort and paging rules as the dashboard apply.
Sort takes a column name with an optional direction, e.g. --sort end_date:desc.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, cancel := e.requestContext(cmd)
			defer cancel()
			projects, err := e.source.ListProjects(ctx)
			if err != nil {
				return fmt.Errorf("failed to list projects: %w", err)
			}

			size := e.cfg.UI.PageSize
			s := store.New(size)
			s.SetProjects(projects)
			if err := applyListOptions(s, opts); err != nil {
				return err
			}

			renderList(cmd.OutOrStdout(), s, e.tr, terminalWidth())
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.search, "search", "", "Filter by name, description or client")
	cmd.Flags().StringVar(&opts.status, "status", "", "Filter by status: all, active, completed, on_hold, planning, cancelled")
	cmd.Flags().StringVar(&opts.sort, "sort", "", "Sort by name, status, start_date or end_date, optionally :desc")
	cmd.Flags().IntVar(&opts.page, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", 0, "Rows per page (default from config)")
	cmd.Flags().BoolVar(&opts.grid, "grid", false, "Render cards instead of a table")
	return cmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the offline database with demo data",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.Close()

			if e.repo == nil {
				return errors.New("seed needs the sqlite backend (--backend sqlite)")
			}

			n, err := e.repo.Seed(cmd.Context())
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already has projects, nothing to do\n", e.cfg.SQLite.Path)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d projects into %s\n", n, e.cfg.SQLite.Path)
			return nil
		},
	}
}

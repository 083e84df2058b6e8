package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/robby/pmdash/internal/backend"
	"github.com/robby/pmdash/internal/domain"
)

// Repository implements backend.Source for SQLite
type Repository struct {
	db  *DB
	log zerolog.Logger
	now func() time.Time
}

var _ backend.Source = (*Repository)(nil)

// NewRepository creates a new Repository
func NewRepository(db *DB, logger zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: logger.With().Str("pkg", "sqlite").Logger(),
		now: time.Now,
	}
}

const selectProjects = `
	SELECT p.id, p.name, p.description, p.status, p.start_date, p.end_date,
	       p.client_id, p.created_at, c.name
	FROM projects p
	LEFT JOIN clients c ON c.id = p.client_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanProject(row rowScanner) (domain.ProjectWithClient, error) {
	var (
		p                     domain.ProjectWithClient
		description, clientID sql.NullString
		startDate, endDate    sql.NullString
		clientName            sql.NullString
		status, createdAt     string
	)
	if err := row.Scan(&p.ID, &p.Name, &description, &status, &startDate, &endDate,
		&clientID, &createdAt, &clientName); err != nil {
		return domain.ProjectWithClient{}, err
	}

	var err error
	if p.Status, err = domain.ParseStatus(status); err != nil {
		return domain.ProjectWithClient{}, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.ProjectWithClient{}, fmt.Errorf("project %s created_at: %w", p.ID, err)
	}
	if description.Valid {
		p.Description = &description.String
	}
	if clientID.Valid {
		p.ClientID = &clientID.String
	}
	p.StartDate = r.nullDate(p.ID, "start_date", startDate)
	p.EndDate = r.nullDate(p.ID, "end_date", endDate)
	if clientName.Valid {
		p.Client = &domain.ClientRef{Name: clientName.String}
	}
	return p, nil
}

// ListProjects returns all projects joined with their client name, newest first
func (r *Repository) ListProjects(ctx context.Context) ([]domain.ProjectWithClient, error) {
	rows, err := r.db.QueryContext(ctx, selectProjects+` ORDER BY p.created_at DESC, p.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.ProjectWithClient
	for rows.Next() {
		p, err := r.scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	r.log.Debug().Str("event", "list_projects").Int("count", len(projects)).Msg("projects fetched")
	return projects, nil
}

// GetProject retrieves a project by ID
func (r *Repository) GetProject(ctx context.Context, id string) (domain.ProjectWithClient, error) {
	p, err := r.scanProject(r.db.QueryRowContext(ctx, selectProjects+` WHERE p.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ProjectWithClient{}, fmt.Errorf("project %s: %w", id, backend.ErrNotFound)
	}
	if err != nil {
		return domain.ProjectWithClient{}, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// ListClients returns all clients ordered by name
func (r *Repository) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, contact_email, contact_phone, address
		FROM clients
		ORDER BY name COLLATE NOCASE, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		var c domain.Client
		var email, phone, address sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &email, &phone, &address); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		c.ContactEmail, c.ContactPhone, c.Address = email.String, phone.String, address.String
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// CreateClient inserts a client and returns it with its generated ID
func (r *Repository) CreateClient(ctx context.Context, c domain.Client) (domain.Client, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, contact_email, contact_phone, address, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, nullString(c.ContactEmail), nullString(c.ContactPhone), nullString(c.Address), formatTime(r.now()))
	if err != nil {
		return domain.Client{}, fmt.Errorf("failed to create client: %w", err)
	}
	return c, nil
}

// CreateProject inserts a project with a generated ID
func (r *Repository) CreateProject(ctx context.Context, np domain.NewProject) (domain.Project, error) {
	return r.insertProject(ctx, np, r.now())
}

func (r *Repository) insertProject(ctx context.Context, np domain.NewProject, createdAt time.Time) (domain.Project, error) {
	p := projectFrom(uuid.NewString(), np, createdAt)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, status, start_date, end_date, client_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID,
		p.Name,
		p.Description,
		string(p.Status),
		dateValue(p.StartDate),
		dateValue(p.EndDate),
		p.ClientID,
		formatTime(p.CreatedAt),
	)
	if isForeignKeyViolation(err) {
		return domain.Project{}, fmt.Errorf("client %s: %w", np.ClientID, backend.ErrNotFound)
	}
	if err != nil {
		return domain.Project{}, fmt.Errorf("failed to create project: %w", err)
	}

	r.log.Info().Str("event", "create_project").Str("id", p.ID).Msg("project created")
	return p, nil
}

// UpdateProject overwrites the editable fields of a project
func (r *Repository) UpdateProject(ctx context.Context, id string, np domain.NewProject) (domain.Project, error) {
	existing, err := r.GetProject(ctx, id)
	if err != nil {
		return domain.Project{}, err
	}
	p := projectFrom(id, np, existing.CreatedAt)

	_, err = r.db.ExecContext(ctx, `
		UPDATE projects
		SET name = ?, description = ?, status = ?, start_date = ?, end_date = ?, client_id = ?
		WHERE id = ?
	`,
		p.Name,
		p.Description,
		string(p.Status),
		dateValue(p.StartDate),
		dateValue(p.EndDate),
		p.ClientID,
		id,
	)
	if isForeignKeyViolation(err) {
		return domain.Project{}, fmt.Errorf("client %s: %w", np.ClientID, backend.ErrNotFound)
	}
	if err != nil {
		return domain.Project{}, fmt.Errorf("failed to update project: %w", err)
	}

	r.log.Info().Str("event", "update_project").Str("id", id).Msg("project updated")
	return p, nil
}

func projectFrom(id string, np domain.NewProject, createdAt time.Time) domain.Project {
	p := domain.Project{
		ID:          id,
		Name:        np.Name,
		Description: np.Description,
		Status:      np.Status,
		StartDate:   np.StartDate,
		EndDate:     np.EndDate,
		CreatedAt:   createdAt.UTC().Truncate(time.Microsecond),
	}
	if np.ClientID != "" {
		clientID := np.ClientID
		p.ClientID = &clientID
	}
	return p
}

// nullDate parses an optional date column. Malformed values read as unset.
func (r *Repository) nullDate(id, column string, s sql.NullString) *domain.Date {
	if !s.Valid || s.String == "" {
		return nil
	}
	d, err := domain.ParseDate(s.String)
	if err != nil {
		r.log.Warn().Err(err).Str("id", id).Str("column", column).Msg("ignoring malformed date")
		return nil
	}
	return &d
}

func dateValue(d *domain.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

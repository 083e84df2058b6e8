package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/robby/pmdash/internal/domain"
)

type seedProject struct {
	name        string
	description string
	status      domain.ProjectStatus
	client      int // index into seedClients, -1 for none
	start, end  string
}

var seedClients = []domain.Client{
	{Name: "Acme Corp", ContactEmail: "ops@acme.test", ContactPhone: "+1 555 0100", Address: "1 Industrial Way"},
	{Name: "Globex", ContactEmail: "hello@globex.test"},
	{Name: "Initech", ContactPhone: "+1 555 0199"},
	{Name: "Umbrella", Address: "42 Raccoon St"},
}

var seedProjects = []seedProject{
	{"Website Redesign", "Refresh the **marketing site** and move it to the new CMS.", domain.StatusActive, 0, "2024-01-08", "2024-04-30"},
	{"Mobile App", "Native app for field technicians.", domain.StatusActive, 0, "2024-02-01", ""},
	{"Data Warehouse", "Consolidate reporting into a single warehouse.", domain.StatusActive, 0, "2024-03-15", "2024-12-20"},
	{"CRM Migration", "Move customer records off the legacy CRM.", domain.StatusActive, 1, "2024-01-20", "2024-06-01"},
	{"Billing Revamp", "", domain.StatusActive, 2, "", ""},
	{"Onboarding Flow", "Self-serve onboarding with guided setup.", domain.StatusCompleted, 1, "2023-09-01", "2023-12-15"},
	{"Brand Refresh", "New logo, palette and type system.", domain.StatusCompleted, 2, "2023-06-01", "2023-08-31"},
	{"Legacy Cleanup", "Retire unused services.", domain.StatusOnHold, 1, "2023-11-01", ""},
	{"Analytics Pilot", "Trial product analytics with two teams.", domain.StatusPlanning, 3, "2024-07-01", "2024-09-30"},
	{"Kiosk Firmware", "Firmware update for lobby kiosks.", domain.StatusPlanning, -1, "", ""},
	{"Support Portal", "Customer support portal with ticket history.", domain.StatusOnHold, 3, "2024-02-10", ""},
	{"Partner API", "Public API for partner integrations.", domain.StatusCompleted, 2, "2023-03-01", "2023-10-01"},
}

// Seed inserts demo clients and projects into an empty database.
// It returns the number of projects inserted; a populated database is left alone.
func (r *Repository) Seed(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	clientIDs := make([]string, len(seedClients))
	for i, c := range seedClients {
		created, err := r.CreateClient(ctx, c)
		if err != nil {
			return 0, err
		}
		clientIDs[i] = created.ID
	}

	base := r.now()
	for i, sp := range seedProjects {
		np := domain.NewProject{Name: sp.name, Status: sp.status}
		if sp.client >= 0 {
			np.ClientID = clientIDs[sp.client]
		}
		if sp.description != "" {
			desc := sp.description
			np.Description = &desc
		}
		var err error
		if np.StartDate, err = seedDate(sp.start); err != nil {
			return i, err
		}
		if np.EndDate, err = seedDate(sp.end); err != nil {
			return i, err
		}

		// One hour apart, newest first in seed order
		createdAt := base.Add(-time.Duration(i) * time.Hour)
		if _, err := r.insertProject(ctx, np, createdAt); err != nil {
			return i, err
		}
	}

	r.log.Info().Str("event", "seed").Int("projects", len(seedProjects)).Msg("demo data inserted")
	return len(seedProjects), nil
}

func seedDate(raw string) (*domain.Date, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

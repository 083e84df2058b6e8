package supa

import (
	"context"
	"fmt"
	"time"

	"github.com/machinebox/graphql"
	"github.com/rs/zerolog"

	"github.com/robby/pmdash/internal/backend"
	"github.com/robby/pmdash/internal/domain"
)

// projectFields is the node selection shared by project queries.
const projectFields = `
	id
	name
	description
	status
	start_date
	end_date
	client_id
	created_at
	client {
		name
	}
`

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type projectNode struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	ClientID    *string `json:"client_id"`
	CreatedAt   *string `json:"created_at"`
	Client      *struct {
		Name string `json:"name"`
	} `json:"client"`
}

type projectConnection struct {
	PageInfo pageInfo `json:"pageInfo"`
	Edges    []struct {
		Node projectNode `json:"node"`
	} `json:"edges"`
}

// ListProjects fetches every project with its client name, newest first.
// It follows the collection cursor until the last page.
func (c *Client) ListProjects(ctx context.Context) ([]domain.ProjectWithClient, error) {
	query := `
		query($first: Int!, $after: Cursor) {
			projectsCollection(first: $first, after: $after, orderBy: [{created_at: DescNullsLast}]) {
				pageInfo {
					hasNextPage
					endCursor
				}
				edges {
					node {` + projectFields + `}
				}
			}
		}
	`

	var projects []domain.ProjectWithClient
	cursor := ""
	for {
		req := graphql.NewRequest(query)
		req.Var("first", pageSize)
		if cursor != "" {
			req.Var("after", cursor)
		} else {
			req.Var("after", nil)
		}

		var resp struct {
			ProjectsCollection projectConnection `json:"projectsCollection"`
		}
		if err := c.makeRequest(ctx, req, &resp); err != nil {
			return nil, fmt.Errorf("failed to list projects: %w", err)
		}

		for _, edge := range resp.ProjectsCollection.Edges {
			p, err := edge.Node.toDomain(c.log)
			if err != nil {
				// Skip rows with unknown statuses
				c.log.Warn().Err(err).Str("id", edge.Node.ID).Msg("skipping project")
				continue
			}
			projects = append(projects, p)
		}

		page := resp.ProjectsCollection.PageInfo
		if !page.HasNextPage || page.EndCursor == "" {
			break
		}
		cursor = page.EndCursor
	}

	c.log.Debug().Str("event", "list_projects").Int("count", len(projects)).Msg("projects fetched")
	return projects, nil
}

// GetProject fetches a single project by ID.
// Returns backend.ErrNotFound if no project has that ID.
func (c *Client) GetProject(ctx context.Context, id string) (domain.ProjectWithClient, error) {
	req := graphql.NewRequest(`
		query($id: UUID!) {
			projectsCollection(filter: {id: {eq: $id}}, first: 1) {
				edges {
					node {` + projectFields + `}
				}
			}
		}
	`)
	req.Var("id", id)

	var resp struct {
		ProjectsCollection projectConnection `json:"projectsCollection"`
	}
	if err := c.makeRequest(ctx, req, &resp); err != nil {
		return domain.ProjectWithClient{}, fmt.Errorf("failed to get project: %w", err)
	}

	if len(resp.ProjectsCollection.Edges) == 0 {
		return domain.ProjectWithClient{}, fmt.Errorf("project %s: %w", id, backend.ErrNotFound)
	}
	return resp.ProjectsCollection.Edges[0].Node.toDomain(c.log)
}

// ListClients fetches every client ordered by name.
func (c *Client) ListClients(ctx context.Context) ([]domain.Client, error) {
	query := `
		query($first: Int!, $after: Cursor) {
			clientsCollection(first: $first, after: $after, orderBy: [{name: AscNullsLast}]) {
				pageInfo {
					hasNextPage
					endCursor
				}
				edges {
					node {
						id
						name
						contact_email
						contact_phone
						address
					}
				}
			}
		}
	`

	var clients []domain.Client
	cursor := ""
	for {
		req := graphql.NewRequest(query)
		req.Var("first", pageSize)
		if cursor != "" {
			req.Var("after", cursor)
		} else {
			req.Var("after", nil)
		}

		var resp struct {
			ClientsCollection struct {
				PageInfo pageInfo `json:"pageInfo"`
				Edges    []struct {
					Node struct {
						ID           string  `json:"id"`
						Name         string  `json:"name"`
						ContactEmail *string `json:"contact_email"`
						ContactPhone *string `json:"contact_phone"`
						Address      *string `json:"address"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"clientsCollection"`
		}
		if err := c.makeRequest(ctx, req, &resp); err != nil {
			return nil, fmt.Errorf("failed to list clients: %w", err)
		}

		for _, edge := range resp.ClientsCollection.Edges {
			n := edge.Node
			clients = append(clients, domain.Client{
				ID:           n.ID,
				Name:         n.Name,
				ContactEmail: deref(n.ContactEmail),
				ContactPhone: deref(n.ContactPhone),
				Address:      deref(n.Address),
			})
		}

		page := resp.ClientsCollection.PageInfo
		if !page.HasNextPage || page.EndCursor == "" {
			break
		}
		cursor = page.EndCursor
	}

	return clients, nil
}

// toDomain converts a GraphQL node. An unknown status is an error; a malformed
// optional date is logged and dropped.
func (n projectNode) toDomain(log zerolog.Logger) (domain.ProjectWithClient, error) {
	status, err := domain.ParseStatus(n.Status)
	if err != nil {
		return domain.ProjectWithClient{}, err
	}

	p := domain.ProjectWithClient{
		Project: domain.Project{
			ID:          n.ID,
			Name:        n.Name,
			Description: n.Description,
			Status:      status,
			ClientID:    n.ClientID,
		},
	}
	p.StartDate = optionalDate(log, n.ID, "start_date", n.StartDate)
	p.EndDate = optionalDate(log, n.ID, "end_date", n.EndDate)
	if n.CreatedAt != nil {
		if p.CreatedAt, err = parseTimestamp(*n.CreatedAt); err != nil {
			return domain.ProjectWithClient{}, err
		}
	}
	if n.Client != nil {
		p.Client = &domain.ClientRef{Name: n.Client.Name}
	}
	return p, nil
}

func optionalDate(log zerolog.Logger, id, field string, raw *string) *domain.Date {
	if raw == nil || *raw == "" {
		return nil
	}
	d, err := domain.ParseDate(*raw)
	if err != nil {
		log.Warn().Err(err).Str("id", id).Str("field", field).Msg("ignoring malformed date")
		return nil
	}
	return &d
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package supa

import (
	"context"
	"fmt"

	"github.com/machinebox/graphql"

	"github.com/robby/pmdash/internal/backend"
	"github.com/robby/pmdash/internal/domain"
)

// projectRecord converts the form input into a collection insert/update object.
// Absent optional fields are sent as null.
func projectRecord(p domain.NewProject) map[string]interface{} {
	rec := map[string]interface{}{
		"name":        p.Name,
		"client_id":   p.ClientID,
		"status":      string(p.Status),
		"description": nil,
		"start_date":  nil,
		"end_date":    nil,
	}
	if p.Description != nil {
		rec["description"] = *p.Description
	}
	if p.StartDate != nil {
		rec["start_date"] = p.StartDate.String()
	}
	if p.EndDate != nil {
		rec["end_date"] = p.EndDate.String()
	}
	return rec
}

type mutationResult struct {
	AffectedCount int           `json:"affectedCount"`
	Records       []projectNode `json:"records"`
}

const mutationFields = `
	affectedCount
	records {
		id
		name
		description
		status
		start_date
		end_date
		client_id
		created_at
	}
`

// CreateProject inserts a project and returns the stored record.
func (c *Client) CreateProject(ctx context.Context, p domain.NewProject) (domain.Project, error) {
	req := graphql.NewRequest(`
		mutation($objects: [projectsInsertInput!]!) {
			insertIntoprojectsCollection(objects: $objects) {` + mutationFields + `}
		}
	`)
	req.Var("objects", []map[string]interface{}{projectRecord(p)})

	var resp struct {
		InsertIntoprojectsCollection mutationResult `json:"insertIntoprojectsCollection"`
	}
	if err := c.makeRequest(ctx, req, &resp); err != nil {
		return domain.Project{}, fmt.Errorf("failed to create project: %w", err)
	}

	proj, err := c.firstRecord(resp.InsertIntoprojectsCollection)
	if err != nil {
		return domain.Project{}, fmt.Errorf("failed to create project: %w", err)
	}
	c.log.Info().Str("event", "create_project").Str("id", proj.ID).Msg("project created")
	return proj, nil
}

// UpdateProject overwrites the editable fields of the project with id.
// Returns backend.ErrNotFound when no row matched.
func (c *Client) UpdateProject(ctx context.Context, id string, p domain.NewProject) (domain.Project, error) {
	req := graphql.NewRequest(`
		mutation($id: UUID!, $set: projectsUpdateInput!) {
			updateprojectsCollection(set: $set, filter: {id: {eq: $id}}, atMost: 1) {` + mutationFields + `}
		}
	`)
	req.Var("id", id)
	req.Var("set", projectRecord(p))

	var resp struct {
		UpdateprojectsCollection mutationResult `json:"updateprojectsCollection"`
	}
	if err := c.makeRequest(ctx, req, &resp); err != nil {
		return domain.Project{}, fmt.Errorf("failed to update project: %w", err)
	}

	proj, err := c.firstRecord(resp.UpdateprojectsCollection)
	if err != nil {
		return domain.Project{}, fmt.Errorf("failed to update project %s: %w", id, err)
	}
	c.log.Info().Str("event", "update_project").Str("id", proj.ID).Msg("project updated")
	return proj, nil
}

func (c *Client) firstRecord(res mutationResult) (domain.Project, error) {
	if res.AffectedCount == 0 || len(res.Records) == 0 {
		return domain.Project{}, backend.ErrNotFound
	}
	p, err := res.Records[0].toDomain(c.log)
	if err != nil {
		return domain.Project{}, err
	}
	return p.Project, nil
}

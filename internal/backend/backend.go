// Package backend defines the data contract shared by the hosted and offline
// project stores. The list view always reads the full collection; filtering,
// sorting and paging happen client side.
package backend

import (
	"context"
	"errors"

	"github.com/robby/pmdash/internal/domain"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized indicates the backend rejected the credentials.
	ErrUnauthorized = errors.New("unauthorized")
)

// Source is the project data source.
type Source interface {
	// ListProjects returns every project joined with its client name,
	// newest first.
	ListProjects(ctx context.Context) ([]domain.ProjectWithClient, error)
	GetProject(ctx context.Context, id string) (domain.ProjectWithClient, error)
	// ListClients returns the clients ordered by name.
	ListClients(ctx context.Context) ([]domain.Client, error)
	CreateProject(ctx context.Context, p domain.NewProject) (domain.Project, error)
	UpdateProject(ctx context.Context, id string, p domain.NewProject) (domain.Project, error)
}

package mocks

import (
	"context"

	"github.com/robby/pmdash/internal/domain"
	"github.com/stretchr/testify/mock"
)

// Source is a mock for backend.Source.
type Source struct {
	mock.Mock
}

func (m *Source) ListProjects(ctx context.Context) ([]domain.ProjectWithClient, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]domain.ProjectWithClient); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Source) GetProject(ctx context.Context, id string) (domain.ProjectWithClient, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(domain.ProjectWithClient); ok {
		return p, args.Error(1)
	}
	return domain.ProjectWithClient{}, args.Error(1)
}

func (m *Source) ListClients(ctx context.Context) ([]domain.Client, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]domain.Client); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Source) CreateProject(ctx context.Context, p domain.NewProject) (domain.Project, error) {
	args := m.Called(ctx, p)
	if proj, ok := args.Get(0).(domain.Project); ok {
		return proj, args.Error(1)
	}
	return domain.Project{}, args.Error(1)
}

func (m *Source) UpdateProject(ctx context.Context, id string, p domain.NewProject) (domain.Project, error) {
	args := m.Called(ctx, id, p)
	if proj, ok := args.Get(0).(domain.Project); ok {
		return proj, args.Error(1)
	}
	return domain.Project{}, args.Error(1)
}

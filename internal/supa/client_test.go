package supa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robby/pmdash/internal/backend"
	"github.com/robby/pmdash/internal/domain"
)

type staticToken string

func (s staticToken) GetToken() (string, error) { return string(s), nil }

type failingToken struct{}

func (failingToken) GetToken() (string, error) { return "", errors.New("not signed in") }

type gqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// fakeGraphQL records requests and answers each one with respond.
type fakeGraphQL struct {
	mu       sync.Mutex
	requests []gqlRequest
	headers  []http.Header
	respond  func(req gqlRequest) (int, string)
}

func (f *fakeGraphQL) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req gqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.headers = append(f.headers, r.Header.Clone())
	f.mu.Unlock()

	status, body := f.respond(req)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}

func newTestClient(t *testing.T, respond func(req gqlRequest) (int, string)) (*Client, *fakeGraphQL) {
	t.Helper()
	fake := &fakeGraphQL{respond: respond}
	mux := http.NewServeMux()
	mux.Handle("/graphql/v1", fake)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return New(srv.URL+"/", "anon-key", staticToken("user-token"), 5*time.Second, zerolog.Nop()), fake
}

func projectEdge(id, name, status, created string, client *string) string {
	clientJSON := "null"
	if client != nil {
		clientJSON = fmt.Sprintf(`{"name":%q}`, *client)
	}
	return fmt.Sprintf(`{"node":{"id":%q,"name":%q,"description":null,"status":%q,
		"start_date":"2024-03-01","end_date":null,"client_id":"c1","created_at":%q,"client":%s}}`,
		id, name, status, created, clientJSON)
}

func TestListProjects_FollowsCursor(t *testing.T) {
	acme := "Acme Corp"
	client, fake := newTestClient(t, func(req gqlRequest) (int, string) {
		if req.Variables["after"] == nil {
			return 200, `{"data":{"projectsCollection":{
				"pageInfo":{"hasNextPage":true,"endCursor":"cur-1"},
				"edges":[` + projectEdge("p2", "Mobile App", "active", "2024-02-01T10:00:00.123456+00:00", &acme) + `]}}}`
		}
		return 200, `{"data":{"projectsCollection":{
			"pageInfo":{"hasNextPage":false,"endCursor":"cur-2"},
			"edges":[` + projectEdge("p1", "Kiosk", "planning", "2024-01-01T10:00:00", nil) + `]}}}`
	})

	projects, err := client.ListProjects(context.Background())
	require.NoError(t, err)

	require.Len(t, projects, 2)
	assert.Equal(t, "p2", projects[0].ID)
	assert.Equal(t, "Acme Corp", projects[0].ClientName())
	assert.Equal(t, domain.StatusActive, projects[0].Status)
	require.NotNil(t, projects[0].StartDate)
	assert.Equal(t, "2024-03-01", projects[0].StartDate.String())
	assert.Nil(t, projects[0].EndDate)
	assert.Equal(t, 2024, projects[0].CreatedAt.Year())

	assert.Nil(t, projects[1].Client)
	assert.Equal(t, domain.StatusPlanning, projects[1].Status)

	require.Len(t, fake.requests, 2)
	assert.Contains(t, fake.requests[0].Query, "projectsCollection")
	assert.Contains(t, fake.requests[0].Query, "DescNullsLast")
	assert.Equal(t, "cur-1", fake.requests[1].Variables["after"])
	assert.Equal(t, "anon-key", fake.headers[0].Get("apikey"))
	assert.Equal(t, "Bearer user-token", fake.headers[0].Get("Authorization"))
}

func TestListProjects_SkipsMalformedRows(t *testing.T) {
	client, _ := newTestClient(t, func(req gqlRequest) (int, string) {
		return 200, `{"data":{"projectsCollection":{
			"pageInfo":{"hasNextPage":false,"endCursor":null},
			"edges":[` +
			projectEdge("p1", "Good", "active", "2024-01-01T00:00:00Z", nil) + `,` +
			projectEdge("p2", "Bad", "archived", "2024-01-01T00:00:00Z", nil) + `]}}}`
	})

	projects, err := client.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "p1", projects[0].ID)
}

// TestListProjects_KeepsRowsWithMalformedDates verifies a bad optional date
// reads as unset instead of dropping the project
func TestListProjects_KeepsRowsWithMalformedDates(t *testing.T) {
	badDates := `{"node":{"id":"p2","name":"Kiosk","description":null,"status":"active",
		"start_date":"03/01/2024","end_date":"soon","client_id":"c1","created_at":"2024-01-01T00:00:00Z","client":null}}`
	client, _ := newTestClient(t, func(req gqlRequest) (int, string) {
		return 200, `{"data":{"projectsCollection":{
			"pageInfo":{"hasNextPage":false,"endCursor":null},
			"edges":[` +
			projectEdge("p1", "Good", "active", "2024-01-01T00:00:00Z", nil) + `,` + badDates + `]}}}`
	})

	projects, err := client.ListProjects(context.Background())
	require.NoError(t, err)

	require.Len(t, projects, 2)
	assert.Equal(t, "p2", projects[1].ID)
	assert.Equal(t, domain.StatusActive, projects[1].Status)
	assert.Nil(t, projects[1].StartDate)
	assert.Nil(t, projects[1].EndDate)
	require.NotNil(t, projects[0].StartDate)
}

func TestListProjects_GraphQLError(t *testing.T) {
	client, _ := newTestClient(t, func(req gqlRequest) (int, string) {
		return 200, `{"data":null,"errors":[{"message":"permission denied for table projects"}]}`
	})

	_, err := client.ListProjects(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestListProjects_Unauthorized(t *testing.T) {
	client, _ := newTestClient(t, func(req gqlRequest) (int, string) {
		return 401, `{"message":"JWT expired"}`
	})

	_, err := client.ListProjects(context.Background())
	assert.ErrorIs(t, err, backend.ErrUnauthorized)
}

func TestListProjects_NoToken(t *testing.T) {
	client, fake := newTestClient(t, func(req gqlRequest) (int, string) {
		return 200, `{"data":{}}`
	})
	client.tokens = failingToken{}

	_, err := client.ListProjects(context.Background())
	assert.ErrorIs(t, err, backend.ErrUnauthorized)
	assert.Empty(t, fake.requests)
}

func TestGetProject(t *testing.T) {
	client, fake := newTestClient(t, func(req gqlRequest) (int, string) {
		if req.Variables["id"] == "missing" {
			return 200, `{"data":{"projectsCollection":{"edges":[]}}}`
		}
		return 200, `{"data":{"projectsCollection":{"edges":[` +
			projectEdge("p1", "Website", "completed", "2024-01-01T00:00:00Z", nil) + `]}}}`
	})

	p, err := client.GetProject(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Website", p.Name)
	assert.Equal(t, "p1", fake.requests[0].Variables["id"])

	_, err = client.GetProject(context.Background(), "missing")
	assert.ErrorIs(t, err, backend.ErrNotFound)
}

func TestListClients(t *testing.T) {
	client, fake := newTestClient(t, func(req gqlRequest) (int, string) {
		return 200, `{"data":{"clientsCollection":{
			"pageInfo":{"hasNextPage":false,"endCursor":null},
			"edges":[
				{"node":{"id":"c1","name":"Acme","contact_email":"ops@acme.test","contact_phone":null,"address":null}},
				{"node":{"id":"c2","name":"Globex","contact_email":null,"contact_phone":"555","address":"Main St"}}
			]}}}`
	})

	clients, err := client.ListClients(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []domain.Client{
		{ID: "c1", Name: "Acme", ContactEmail: "ops@acme.test"},
		{ID: "c2", Name: "Globex", ContactPhone: "555", Address: "Main St"},
	}, clients)
	assert.Contains(t, fake.requests[0].Query, "AscNullsLast")
}

func TestCreateProject(t *testing.T) {
	client, fake := newTestClient(t, func(req gqlRequest) (int, string) {
		return 200, `{"data":{"insertIntoprojectsCollection":{"affectedCount":1,"records":[
			{"id":"new-1","name":"Portal","description":"desc","status":"on_hold",
			 "start_date":"2024-05-01","end_date":"2024-06-01","client_id":"c1","created_at":"2024-04-01T00:00:00Z"}]}}}`
	})

	desc := "desc"
	start := domain.NewDate(2024, 5, 1)
	np := domain.NewProject{Name: "Portal", ClientID: "c1", Status: domain.StatusOnHold, Description: &desc, StartDate: &start}

	p, err := client.CreateProject(context.Background(), np)
	require.NoError(t, err)
	assert.Equal(t, "new-1", p.ID)
	assert.Equal(t, domain.StatusOnHold, p.Status)

	req := fake.requests[0]
	assert.True(t, strings.Contains(req.Query, "insertIntoprojectsCollection"))
	objects, ok := req.Variables["objects"].([]interface{})
	require.True(t, ok)
	require.Len(t, objects, 1)
	obj := objects[0].(map[string]interface{})
	assert.Equal(t, "Portal", obj["name"])
	assert.Equal(t, "c1", obj["client_id"])
	assert.Equal(t, "on_hold", obj["status"])
	assert.Equal(t, "2024-05-01", obj["start_date"])
	assert.Nil(t, obj["end_date"])
}

func TestUpdateProject(t *testing.T) {
	client, fake := newTestClient(t, func(req gqlRequest) (int, string) {
		if req.Variables["id"] == "missing" {
			return 200, `{"data":{"updateprojectsCollection":{"affectedCount":0,"records":[]}}}`
		}
		return 200, `{"data":{"updateprojectsCollection":{"affectedCount":1,"records":[
			{"id":"p1","name":"Renamed","description":null,"status":"completed",
			 "start_date":null,"end_date":null,"client_id":"c2","created_at":"2024-04-01T00:00:00Z"}]}}}`
	})

	np := domain.NewProject{Name: "Renamed", ClientID: "c2", Status: domain.StatusCompleted}

	p, err := client.UpdateProject(context.Background(), "p1", np)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", p.Name)

	set := fake.requests[0].Variables["set"].(map[string]interface{})
	assert.Equal(t, "completed", set["status"])

	_, err = client.UpdateProject(context.Background(), "missing", np)
	assert.ErrorIs(t, err, backend.ErrNotFound)
}

func TestParseTimestamp(t *testing.T) {
	for _, raw := range []string{
		"2024-01-02T03:04:05Z",
		"2024-01-02T03:04:05.123456+00:00",
		"2024-01-02T03:04:05",
		"2024-01-02 03:04:05+00:00",
	} {
		ts, err := parseTimestamp(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, 2, ts.Day(), raw)
	}

	_, err := parseTimestamp("yesterday")
	assert.Error(t, err)
}

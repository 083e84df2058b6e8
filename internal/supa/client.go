// Package supa provides a GraphQL client for the hosted project database.
// It talks to the pg_graphql endpoint and implements backend.Source with
// simple methods hiding the collection queries and cursor paging.
package supa

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/machinebox/graphql"
	"github.com/rs/zerolog"

	"github.com/robby/pmdash/internal/auth"
	"github.com/robby/pmdash/internal/backend"
)

// pageSize is the number of records requested per collection page.
const pageSize = 100

// Client is a pg_graphql API client for projects and clients.
type Client struct {
	gql     *graphql.Client
	anonKey string
	tokens  auth.TokenProvider
	log     zerolog.Logger
}

var _ backend.Source = (*Client)(nil)

// New creates a client for the project at baseURL.
// Requests authenticate with the token from tokens, sent alongside the anon key.
func New(baseURL, anonKey string, tokens auth.TokenProvider, timeout time.Duration, logger zerolog.Logger) *Client {
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: statusTransport{base: http.DefaultTransport},
	}
	endpoint := strings.TrimRight(baseURL, "/") + "/graphql/v1"

	l := logger.With().Str("pkg", "supa").Logger()
	gql := graphql.NewClient(endpoint, graphql.WithHTTPClient(httpClient))
	gql.Log = func(s string) { l.Trace().Msg(s) }

	return &Client{
		gql:     gql,
		anonKey: anonKey,
		tokens:  tokens,
		log:     l,
	}
}

// makeRequest executes a GraphQL request with authentication.
func (c *Client) makeRequest(ctx context.Context, req *graphql.Request, resp interface{}) error {
	token, err := c.tokens.GetToken()
	if err != nil {
		return fmt.Errorf("%w: %v", backend.ErrUnauthorized, err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)
	return c.gql.Run(ctx, req, resp)
}

// statusTransport turns auth failures into errors. The GraphQL client would
// otherwise decode a JSON error body as an empty successful response.
type statusTransport struct {
	base http.RoundTripper
}

func (t statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: server returned %s", backend.ErrUnauthorized, resp.Status)
	}
	return resp, nil
}

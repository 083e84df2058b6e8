package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"

	"github.com/robby/pmdash/internal/domain"
)

// APIError is an error response from the auth API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("auth api %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("auth api %d: %s", e.Status, e.Message)
}

// Client talks to a GoTrue auth API under {baseURL}/auth/v1.
type Client struct {
	api gotrue.Client
	log zerolog.Logger
	now func() time.Time
}

// NewClient creates an auth client. A zero timeout means no timeout.
func NewClient(baseURL, anonKey string, timeout time.Duration, logger zerolog.Logger) *Client {
	api := gotrue.New("", anonKey).
		WithCustomGoTrueURL(strings.TrimRight(baseURL, "/") + "/auth/v1").
		WithClient(http.Client{Timeout: timeout})
	return &Client{
		api: api,
		log: logger.With().Str("pkg", "auth").Logger(),
		now: time.Now,
	}
}

// SignIn exchanges email and password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	resp, err := call(ctx, func() (*types.TokenResponse, error) {
		return c.api.SignInWithEmailPassword(email, password)
	})
	if err != nil {
		err = apiError(err)
		var apiErr *APIError
		if errors.As(err, &apiErr) && isCredentialError(apiErr) {
			c.log.Info().Str("event", "signin_rejected").Str("email", email).Msg("sign in rejected")
			return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, apiErr.Message)
		}
		return nil, fmt.Errorf("sign in: %w", err)
	}

	s := c.sessionFrom(resp.Session)
	c.log.Info().Str("event", "signin").Str("user", s.User.ID).Msg("signed in")
	return s, nil
}

// SignUp registers an account. The display name is stored in user metadata.
func (c *Client) SignUp(ctx context.Context, name, email, password string) (*domain.User, error) {
	resp, err := call(ctx, func() (*types.SignupResponse, error) {
		return c.api.Signup(types.SignupRequest{
			Email:    email,
			Password: password,
			Data:     map[string]interface{}{"name": name},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", apiError(err))
	}

	// The API answers with a session when confirmation is off, a bare user otherwise
	user := resp.User
	if user.Email == "" {
		user = resp.Session.User
	}
	u := toDomainUser(user)
	c.log.Info().Str("event", "signup").Str("user", u.ID).Msg("account created")
	return &u, nil
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	_, err := call(ctx, func() (struct{}, error) {
		return struct{}{}, c.api.WithToken(accessToken).Logout()
	})
	if err != nil {
		return fmt.Errorf("sign out: %w", apiError(err))
	}
	c.log.Info().Str("event", "signout").Msg("signed out")
	return nil
}

// Recover sends a password recovery email. The link points at the site URL
// configured on the auth server.
func (c *Client) Recover(ctx context.Context, email string) error {
	_, err := call(ctx, func() (struct{}, error) {
		return struct{}{}, c.api.Recover(types.RecoverRequest{Email: email})
	})
	if err != nil {
		return fmt.Errorf("recover: %w", apiError(err))
	}
	return nil
}

// UpdatePassword sets a new password for the signed-in user.
func (c *Client) UpdatePassword(ctx context.Context, accessToken, password string) error {
	_, err := call(ctx, func() (*types.UpdateUserResponse, error) {
		return c.api.WithToken(accessToken).UpdateUser(types.UpdateUserRequest{Password: &password})
	})
	if err != nil {
		return fmt.Errorf("update password: %w", apiError(err))
	}
	return nil
}

// GetUser returns the user that owns accessToken.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*domain.User, error) {
	resp, err := call(ctx, func() (*types.UserResponse, error) {
		return c.api.WithToken(accessToken).GetUser()
	})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", apiError(err))
	}
	u := toDomainUser(resp.User)
	return &u, nil
}

func (c *Client) sessionFrom(resp types.Session) *Session {
	u := toDomainUser(resp.User)
	s := &Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         User{ID: u.ID, Email: u.Email, Name: u.Name},
	}
	switch {
	case resp.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(resp.ExpiresAt, 0).UTC()
	case resp.ExpiresIn > 0:
		s.ExpiresAt = c.now().Add(time.Duration(resp.ExpiresIn) * time.Second).UTC()
	}
	return s
}

func toDomainUser(u types.User) domain.User {
	name, _ := u.UserMetadata["name"].(string)
	return domain.User{ID: u.ID.String(), Email: u.Email, Name: name}
}

// call runs fn and returns early when ctx ends. The gotrue client takes no
// context; an abandoned request is bounded by the http.Client timeout.
func call[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-done:
		return r.v, r.err
	}
}

// statusErr matches the errors gotrue-go builds from non-2xx responses.
var statusErr = regexp.MustCompile(`(?s)^response status code (\d+)(?:: (.*))?$`)

// apiError turns a gotrue-go status error into an *APIError. Other errors
// pass through.
func apiError(err error) error {
	m := statusErr.FindStringSubmatch(err.Error())
	if m == nil {
		return err
	}
	status, _ := strconv.Atoi(m[1])
	return parseAPIError(status, []byte(m[2]))
}

func parseAPIError(status int, data []byte) *APIError {
	var body struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		ErrorCode        string `json:"error_code"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
	}
	_ = json.Unmarshal(data, &body)

	apiErr := &APIError{Status: status, Code: body.ErrorCode}
	if apiErr.Code == "" {
		apiErr.Code = body.Error
	}
	for _, m := range []string{body.Msg, body.ErrorDescription, body.Message} {
		if m != "" {
			apiErr.Message = m
			break
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func isCredentialError(e *APIError) bool {
	switch e.Code {
	case "invalid_grant", "invalid_credentials":
		return true
	}
	return false
}

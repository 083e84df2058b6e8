// Package auth provides sign-in, session persistence and access token lookup
// for the hosted backend. Token lookup follows a provider chain so scripts
// can inject a token through the environment while interactive use relies on
// the session file written by sign-in.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robby/pmdash/internal/domain"
)

var (
	// ErrNoSession indicates no stored session exists.
	ErrNoSession = errors.New("not signed in")
	// ErrSessionExpired indicates the stored session is past its expiry.
	ErrSessionExpired = errors.New("session expired")
	// ErrInvalidCredentials indicates the email and password were rejected.
	ErrInvalidCredentials = errors.New("invalid login credentials")
)

// AccessTokenEnv is the environment variable read by EnvProvider.
const AccessTokenEnv = "PMDASH_ACCESS_TOKEN"

// TokenProvider defines the interface for obtaining an access token.
type TokenProvider interface {
	GetToken() (string, error)
}

// EnvProvider obtains tokens from the PMDASH_ACCESS_TOKEN environment variable.
type EnvProvider struct{}

// GetToken reads the PMDASH_ACCESS_TOKEN environment variable.
func (e *EnvProvider) GetToken() (string, error) {
	token := strings.TrimSpace(os.Getenv(AccessTokenEnv))
	if token == "" {
		return "", fmt.Errorf("%s environment variable not set or empty", AccessTokenEnv)
	}
	return token, nil
}

// FileProvider obtains tokens from the session file written by sign-in.
type FileProvider struct {
	Path string
	Now  func() time.Time
}

// GetToken loads the session file and returns its access token.
// Expired sessions are reported as ErrSessionExpired.
func (f *FileProvider) GetToken() (string, error) {
	s, err := LoadSession(f.Path)
	if err != nil {
		return "", err
	}
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	if s.Expired(now()) {
		return "", ErrSessionExpired
	}
	return s.AccessToken, nil
}

// Chain tries each provider in order and returns the first token found.
type Chain []TokenProvider

// GetToken returns the first token any provider yields.
func (c Chain) GetToken() (string, error) {
	var errs []error
	for _, p := range c {
		token, err := p.GetToken()
		if err == nil {
			return token, nil
		}
		errs = append(errs, err)
	}
	return "", fmt.Errorf(
		"failed to obtain access token (%w).\n"+
			"Please either:\n"+
			"  1. Run 'pmdash signin' to sign in, or\n"+
			"  2. Set %s to a valid access token",
		errors.Join(errs...), AccessTokenEnv,
	)
}

// DefaultChain is the lookup order used by the application:
// the environment first, then the session file at sessionPath.
func DefaultChain(sessionPath string) Chain {
	return Chain{&EnvProvider{}, &FileProvider{Path: sessionPath}}
}

// Authenticator performs the account flows against a backend.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, name, email, password string) (*domain.User, error)
	SignOut(ctx context.Context, accessToken string) error
	Recover(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, accessToken, password string) error
	GetUser(ctx context.Context, accessToken string) (*domain.User, error)
}

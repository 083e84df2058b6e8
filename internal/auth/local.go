package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/robby/pmdash/internal/domain"
)

// LocalAuthenticator serves the account flows for the offline backend.
// Accounts live in memory for the lifetime of the process; any email signs in
// with a non-empty password unless it was registered with a different one.
type LocalAuthenticator struct {
	mu       sync.Mutex
	accounts map[string]localAccount // email -> account
	sessions map[string]string       // token -> email
	ttl      time.Duration
	now      func() time.Time
}

type localAccount struct {
	user   domain.User
	digest string
}

// NewLocalAuthenticator returns an authenticator whose sessions last ttl.
func NewLocalAuthenticator(ttl time.Duration) *LocalAuthenticator {
	return &LocalAuthenticator{
		accounts: make(map[string]localAccount),
		sessions: make(map[string]string),
		ttl:      ttl,
		now:      time.Now,
	}
}

func digest(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// SignIn issues a session for email.
func (a *LocalAuthenticator) SignIn(_ context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	acct, ok := a.accounts[email]
	if !ok {
		acct = localAccount{
			user:   domain.User{ID: uuid.NewString(), Email: email},
			digest: digest(password),
		}
		a.accounts[email] = acct
	}
	if acct.digest != digest(password) {
		return nil, ErrInvalidCredentials
	}

	token := uuid.NewString()
	a.sessions[token] = email

	s := &Session{
		AccessToken: token,
		User:        User{ID: acct.user.ID, Email: acct.user.Email, Name: acct.user.Name},
	}
	if a.ttl > 0 {
		s.ExpiresAt = a.now().Add(a.ttl).UTC()
	}
	return s, nil
}

// SignUp registers email. Registering an existing email fails.
func (a *LocalAuthenticator) SignUp(_ context.Context, name, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.accounts[email]; exists {
		return nil, &APIError{Status: 422, Code: "user_already_exists", Message: "User already registered"}
	}
	u := domain.User{ID: uuid.NewString(), Email: email, Name: name}
	a.accounts[email] = localAccount{user: u, digest: digest(password)}
	return &u, nil
}

// SignOut forgets accessToken.
func (a *LocalAuthenticator) SignOut(_ context.Context, accessToken string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, accessToken)
	return nil
}

// Recover is accepted for any address; no email is sent offline.
func (a *LocalAuthenticator) Recover(context.Context, string) error {
	return nil
}

// UpdatePassword changes the password of the account behind accessToken.
func (a *LocalAuthenticator) UpdatePassword(_ context.Context, accessToken, password string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	email, ok := a.sessions[accessToken]
	if !ok {
		return ErrNoSession
	}
	acct := a.accounts[email]
	acct.digest = digest(password)
	a.accounts[email] = acct
	return nil
}

// GetUser returns the account behind accessToken.
func (a *LocalAuthenticator) GetUser(_ context.Context, accessToken string) (*domain.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	email, ok := a.sessions[accessToken]
	if !ok {
		return nil, fmt.Errorf("get user: %w", ErrNoSession)
	}
	u := a.accounts[email].user
	return &u, nil
}

// Package auth is the default implementation of syncapi.Credentials: it exchanges a
// username/password for a bearer token at /v1/auth/login and caches the
// token in memory, re-authenticating once on demand policy.
package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/openmined/projectsync/internal/client/syncapi"
)

// Login talks to the auth endpoint; kept as an interface so tests can
// stub it without a real *syncapi.Client.
type Login interface {
	Login(ctx context.Context, username, password string) (*syncapi.LoginResponse, error)
}

// TokenAuth is a Credentials implementation holding one bearer token,
// refreshed on demand from a stored username/password.
type TokenAuth struct {
	login    Login
	username string
	password string

	mu    sync.Mutex
	token string
}

// New builds a TokenAuth for username/password. It holds no Login
// implementation yet: the caller sets one with SetLogin once the
// *syncapi.Client that will use these Credentials exists, breaking the
// construction cycle (the client needs Credentials, TokenAuth needs the
// client to call /v1/auth/login). The first Header() call returns "" until
// Authenticate or Reauthenticate has run at least once.
func New(username, password string) *TokenAuth {
	return &TokenAuth{username: username, password: password}
}

// SetLogin attaches the Login implementation used by Authenticate and
// Reauthenticate.
func (a *TokenAuth) SetLogin(login Login) {
	a.mu.Lock()
	a.login = login
	a.mu.Unlock()
}

// Authenticate performs the initial login, populating the cached token.
func (a *TokenAuth) Authenticate(ctx context.Context) error {
	a.mu.Lock()
	login := a.login
	a.mu.Unlock()

	resp, err := login.Login(ctx, a.username, a.password)
	if err != nil {
		return fmt.Errorf("auth: login: %w", err)
	}

	a.mu.Lock()
	a.token = resp.Token
	a.mu.Unlock()
	return nil
}

// Header implements syncapi.Credentials.
func (a *TokenAuth) Header() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token == "" {
		return ""
	}
	return "Bearer " + a.token
}

// Reauthenticate implements syncapi.Credentials: the one re-authentication
// attempt allows after an Unauthorized response.
func (a *TokenAuth) Reauthenticate() error {
	return a.Authenticate(context.Background())
}

var _ syncapi.Credentials = (*TokenAuth)(nil)

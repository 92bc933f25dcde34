package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/openmined/projectsync/internal/client/syncapi"
	"github.com/stretchr/testify/require"
)

type fakeLogin struct {
	calls int
	token string
	err   error
}

func (f *fakeLogin) Login(ctx context.Context, username, password string) (*syncapi.LoginResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &syncapi.LoginResponse{Token: f.token}, nil
}

func TestTokenAuth_HeaderEmptyBeforeAuthenticate(t *testing.T) {
	a := New("bob", "secret")
	require.Equal(t, "", a.Header())
}

func TestTokenAuth_AuthenticatePopulatesHeader(t *testing.T) {
	a := New("bob", "secret")
	login := &fakeLogin{token: "tok123"}
	a.SetLogin(login)

	require.NoError(t, a.Authenticate(context.Background()))
	require.Equal(t, "Bearer tok123", a.Header())
	require.Equal(t, 1, login.calls)
}

func TestTokenAuth_ReauthenticateRefreshesToken(t *testing.T) {
	a := New("bob", "secret")
	login := &fakeLogin{token: "tok1"}
	a.SetLogin(login)
	require.NoError(t, a.Authenticate(context.Background()))

	login.token = "tok2"
	require.NoError(t, a.Reauthenticate())
	require.Equal(t, "Bearer tok2", a.Header())
	require.Equal(t, 2, login.calls)
}

func TestTokenAuth_AuthenticateError(t *testing.T) {
	a := New("bob", "secret")
	login := &fakeLogin{err: errors.New("bad credentials")}
	a.SetLogin(login)

	err := a.Authenticate(context.Background())
	require.Error(t, err)
	require.Equal(t, "", a.Header())
}

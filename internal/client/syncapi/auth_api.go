package syncapi

import (
	"context"
	"fmt"
)

const v1AuthLogin = "/v1/auth/login"

// Login exchanges a username/password for a bearer token.
// Like Ping, this call never attaches the current bearer header: it's how
// you get one in the first place.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var resp LoginResponse

	r, err := c.http.R().
		SetContext(ctx).
		SetBody(LoginRequest{Login: username, Password: password}).
		SetSuccessResult(&resp).
		SetErrorResult(&APIError{}).
		Post(v1AuthLogin)

	if err := handleResponse(r, err, "login"); err != nil {
		return nil, fmt.Errorf("syncapi: login: %w", err)
	}

	return &resp, nil
}

const v1Ping = "/ping"

// Ping fetches the server's compile-time version string.
func (c *Client) Ping(ctx context.Context) (*PingResponse, error) {
	var resp PingResponse

	r, err := c.http.R().
		SetContext(ctx).
		SetSuccessResult(&resp).
		SetErrorResult(&APIError{}).
		Get(v1Ping)

	if err := handleResponse(r, err, "ping"); err != nil {
		return nil, fmt.Errorf("syncapi: ping: %w", err)
	}

	return &resp, nil
}

// CompatibleVersion is the reference client/server version this build
// targets.
const CompatibleVersion = "2019.4"

// CheckVersion compares the server's /ping version to CompatibleVersion and
// classifies the result
func (c *Client) CheckVersion(ctx context.Context) APIVersionStatus {
	resp, err := c.Ping(ctx)
	if err != nil {
		return APIVersionUnknown
	}
	if resp.Version == "" {
		return APIVersionNotFound
	}
	if resp.Version != CompatibleVersion {
		return APIVersionIncompatible
	}
	return APIVersionOK
}

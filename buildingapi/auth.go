package buildingapi

import (
	"context"
	"errors"
	nethttp "net/http"

	"github.com/gaborage/facility-client/httpclient"
)

// ErrNoSession is returned by Login and Logout when the client was built
// without a session manager.
var ErrNoSession = errors.New("buildingapi: no session manager configured")

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token and stores token and user in the
// session so later calls are authenticated.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	if c.session == nil {
		return nil, ErrNoSession
	}
	result, err := postJSON[LoginResult](ctx, c, "/login", credentials{Email: email, Password: password}, "Login failed")
	if err != nil {
		return nil, err
	}
	if result.Token == "" {
		return nil, httpclient.NewValidationError("login response has no token", "token")
	}
	if err := c.session.Save(ctx, result.Token, result.User); err != nil {
		return nil, err
	}
	c.logger.Info().Int("user_id", result.User.ID).Msg("Logged in")
	return &result.User, nil
}

// Logout revokes the token server-side and clears the session. The session
// is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	if c.session == nil {
		return ErrNoSession
	}
	_, callErr := c.http.Do(ctx, nethttp.MethodPost, &httpclient.Request{Path: "/logout", FailureMessage: "Logout failed"})
	if callErr != nil && httpclient.IsUnauthorized(callErr) {
		// already evicted by the client
		callErr = nil
	}
	return errors.Join(callErr, c.session.Evict(ctx))
}

// CurrentUser returns the user stored at login, or nil when anonymous.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	if c.session == nil {
		return nil, ErrNoSession
	}
	var u User
	ok, err := c.session.User(ctx, &u)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

package apiclient

import (
	"context"
	"fmt"
	"net/http"

	apperrors "github.com/jrsteele09/attendance-client/internal/errors"
	"github.com/jrsteele09/attendance-client/token"
	"github.com/jrsteele09/attendance-client/users"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	Access  string     `json:"access"`
	Refresh string     `json:"refresh"`
	User    users.User `json:"user"`
}

func (r *LoginResponse) Pair() token.TokenPair {
	return token.TokenPair{AccessToken: r.Access, RefreshToken: r.Refresh}
}

// Login exchanges credentials for a token pair and the user's profile. It
// does not touch the client's token or the store.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.Do(ctx, http.MethodPost, EndpointLogin, loginRequest{Username: username, Password: password}, &resp); err != nil {
		return nil, err
	}
	if resp.Access == "" || resp.Refresh == "" {
		return nil, fmt.Errorf("[apiclient Login] response has no token pair: %w", apperrors.ErrInvalidToken)
	}
	if err := resp.User.Validate(); err != nil {
		return nil, fmt.Errorf("[apiclient Login] %v: %w", err, apperrors.ErrInvalidCredentials)
	}
	return &resp, nil
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// Refresh mints a new access token. The returned pair keeps refreshToken
// unless the backend rotated it.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (token.TokenPair, error) {
	if refreshToken == "" {
		return token.TokenPair{}, apperrors.ErrNoRefreshToken
	}
	var resp refreshResponse
	if err := c.Do(ctx, http.MethodPost, EndpointRefresh, refreshRequest{Refresh: refreshToken}, &resp); err != nil {
		return token.TokenPair{}, err
	}
	if resp.Access == "" {
		return token.TokenPair{}, fmt.Errorf("[apiclient Refresh] response has no access token: %w", apperrors.ErrInvalidToken)
	}
	pair := token.TokenPair{AccessToken: resp.Access, RefreshToken: resp.Refresh}
	if pair.RefreshToken == "" {
		pair.RefreshToken = refreshToken
	}
	return pair, nil
}

// Package sessions owns the client's authentication state machine. A Manager
// starts in CHECKING, settles on ANONYMOUS or AUTHENTICATED at boot and moves
// between the two on login, logout and lost authentication.
package sessions

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/attendance-client/apiclient"
	apperrors "github.com/jrsteele09/attendance-client/internal/errors"
	"github.com/jrsteele09/attendance-client/token"
	"github.com/jrsteele09/attendance-client/users"
	"github.com/rs/zerolog/log"
)

// Client is the part of the API client the manager drives.
type Client interface {
	Login(ctx context.Context, username, password string) (*apiclient.LoginResponse, error)
	SetToken(pair token.TokenPair)
	ClearToken()
	OnAuthLost(fn apiclient.AuthLostFunc)
}

type Options struct {
	Verifier  token.Verifier // Optional signature check at boot
	ClockSkew time.Duration  // Tolerance when checking exp at boot
}

// Manager holds the current Session and keeps the token store and the
// client's bearer token in step with it.
type Manager struct {
	store  token.Store
	client Client
	opts   Options

	mu        sync.RWMutex
	session   Session
	listeners []func(Session)
}

func NewManager(store token.Store, client Client, opts Options) *Manager {
	m := &Manager{
		store:   store,
		client:  client,
		opts:    opts,
		session: Session{State: StateChecking},
	}
	client.OnAuthLost(m.authLost)
	return m
}

// Session returns a copy of the current session.
func (m *Manager) Session() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.clone()
}

// OnChange registers fn to run after every state transition.
func (m *Manager) OnChange(fn func(Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Boot validates the stored session. A present, decodable and unexpired
// access token authenticates the user from the cached profile, or from the
// token's claims when no profile is cached. Anything else clears the store.
func (m *Manager) Boot(ctx context.Context) Session {
	pair, user, err := m.restore(ctx)
	if err != nil {
		log.Info().Err(err).Msg("no usable stored session")
		m.clearStore()
		m.becomeAnonymous()
		return m.Session()
	}
	m.becomeAuthenticated(user, pair)
	return m.Session()
}

func (m *Manager) restore(ctx context.Context) (token.TokenPair, *users.User, error) {
	access, err := m.store.GetAccess()
	if err != nil {
		return token.TokenPair{}, nil, apperrors.Wrapf(err, "[sessions Boot] reading access token")
	}
	if access == "" {
		return token.TokenPair{}, nil, apperrors.ErrNoSession
	}

	claims, err := token.DecodeClaims(access)
	if err != nil {
		return token.TokenPair{}, nil, err
	}
	if claims.Expired(m.opts.ClockSkew) {
		return token.TokenPair{}, nil, apperrors.Wrapf(apperrors.ErrTokenExpired, "[sessions Boot] access token expired at %s", claims.ExpiresAt.Format(time.RFC3339))
	}
	if m.opts.Verifier != nil {
		if err := m.opts.Verifier.Verify(ctx, access); err != nil {
			return token.TokenPair{}, nil, err
		}
	}

	user, err := m.store.GetUser()
	if err != nil || user == nil || user.Validate() != nil {
		if user, err = claims.User(); err != nil {
			return token.TokenPair{}, nil, err
		}
	} else if claims.Role != "" && claims.Role != user.Role {
		return token.TokenPair{}, nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "[sessions Boot] cached role %q does not match token role %q", user.Role, claims.Role)
	}

	refresh, err := m.store.GetRefresh()
	if err != nil {
		return token.TokenPair{}, nil, apperrors.Wrapf(err, "[sessions Boot] reading refresh token")
	}
	return token.TokenPair{AccessToken: access, RefreshToken: refresh}, user, nil
}

// Login signs in and persists the returned pair and profile. When
// expectedRole is set and the account holds a different role, the tokens are
// discarded and ErrRoleMismatch is returned.
func (m *Manager) Login(ctx context.Context, username, password string, expectedRole users.RoleType) (*users.User, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return nil, apperrors.NewUserError(apperrors.ErrValidation, "Please enter both username and password.")
	}

	resp, err := m.client.Login(ctx, username, password)
	if err != nil {
		log.Err(err).Str("username", username).Msg("login failed")
		return nil, err
	}
	user := resp.User

	if expectedRole != "" && user.Role != expectedRole {
		log.Warn().Str("username", username).Str("role", string(user.Role)).Str("expected", string(expectedRole)).Msg("login role mismatch")
		m.clearStore()
		m.becomeAnonymous()
		return nil, apperrors.NewUserError(apperrors.ErrRoleMismatch, "Login successful, but role mismatch. Logged in as %s.", user.Role)
	}

	pair := resp.Pair()
	if err := m.store.Save(pair); err != nil {
		log.Err(err).Msg("failed to persist token pair")
	}
	if err := m.store.SaveUser(&user); err != nil {
		log.Err(err).Msg("failed to persist user profile")
	}
	m.becomeAuthenticated(&user, pair)
	log.Info().Str("username", user.Username).Str("role", string(user.Role)).Msg("logged in")

	u := user
	return &u, nil
}

// Logout forgets the session. The in-memory session is reset even when the
// store can't be cleared.
func (m *Manager) Logout() error {
	err := m.store.Clear()
	if err != nil {
		log.Err(err).Msg("failed to clear token store on logout")
	}
	m.becomeAnonymous()
	return err
}

// authLost is called by the client after a failed refresh. The client has
// already cleared the store.
func (m *Manager) authLost(cause error) {
	log.Warn().Err(cause).Msg("authentication lost")
	m.becomeAnonymous()
}

func (m *Manager) clearStore() {
	if err := m.store.Clear(); err != nil {
		log.Err(err).Msg("failed to clear token store")
	}
}

func (m *Manager) becomeAuthenticated(user *users.User, pair token.TokenPair) {
	m.client.SetToken(pair)
	m.transition(Session{State: StateAuthenticated, User: user})
}

func (m *Manager) becomeAnonymous() {
	m.client.ClearToken()
	m.transition(Session{State: StateAnonymous})
}

func (m *Manager) transition(next Session) {
	m.mu.Lock()
	m.session = next.clone()
	listeners := append([]func(Session){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(next.clone())
	}
}

// Package apiclient talks to the attendance REST API. A Client owns its
// bearer token, refreshes it once on a 401 and re-issues the failed request.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/attendance-client/internal/errors"
	"github.com/jrsteele09/attendance-client/token"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	RequestIDHeader = "X-Request-ID"

	defaultTimeout  = 10 * time.Second
	maxResponseBody = 8 << 20
)

// AuthLostFunc is called after a failed refresh has cleared the stored
// session.
type AuthLostFunc func(err error)

type Options struct {
	HTTPClient *http.Client          // Defaults to a client with Timeout
	Timeout    time.Duration         // Per request, default 10s
	Registerer prometheus.Registerer // Metrics registry, nil to skip registration
}

// Client is an API client bound to one base URL and one token store.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	store   token.Store
	metrics *metrics
	flight  singleflight.Group

	mu         sync.RWMutex
	token      *oauth2.Token
	onAuthLost AuthLostFunc
}

func New(baseURL string, store token.Store, opts Options) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("[apiclient New] base url is required")
	}
	if store == nil {
		return nil, fmt.Errorf("[apiclient New] token store is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		timeout: timeout,
		store:   store,
		metrics: newMetrics(opts.Registerer),
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetToken makes pair the bearer credential for every following request.
func (c *Client) SetToken(pair token.TokenPair) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pair.Empty() {
		c.token = nil
		return
	}
	c.token = pair.OAuth2Token()
}

func (c *Client) ClearToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = nil
}

// AccessToken returns the current bearer token, "" when none is set.
func (c *Client) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == nil {
		return ""
	}
	return c.token.AccessToken
}

// OnAuthLost registers the listener told about failed refreshes. A later
// call replaces the earlier listener.
func (c *Client) OnAuthLost(fn AuthLostFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAuthLost = fn
}

// Do sends a JSON request and decodes a 2xx JSON response into out. body and
// out may be nil. A 401 triggers one token refresh and one retry.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("[apiclient Do] error encoding request body: %w", err)
		}
	}
	return c.do(ctx, method, path, payload, out, false)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, out any, retry bool) error {
	authenticated := !unauthenticatedEndpoints[path]

	c.mu.RLock()
	tok := c.token
	c.mu.RUnlock()
	if !authenticated {
		tok = nil
	}

	status, data, err := c.send(ctx, method, path, payload, tok)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && authenticated && !retry {
		sent := ""
		if tok != nil {
			sent = tok.AccessToken
		}
		if refreshErr := c.refreshAfter(ctx, sent); refreshErr != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("[apiclient Do] %s %s: %w", method, path, ctx.Err())
			}
			apiErr := parseError(method, path, status, data)
			apiErr.SessionExpired = true
			return apiErr
		}
		c.metrics.retries.Inc()
		return c.do(ctx, method, path, payload, out, true)
	}

	if status < 200 || status > 299 {
		return parseError(method, path, status, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("[apiclient Do] error decoding %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, tok *oauth2.Token) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, joinURL(c.baseURL, path), body)
	if err != nil {
		return 0, nil, fmt.Errorf("[apiclient send] error building request: %w", err)
	}
	requestID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != nil {
		tok.SetAuthHeader(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.observe(method, 0)
		log.Warn().Err(err).Str("method", method).Str("path", path).Str("request_id", requestID).Msg("API request failed")
		return 0, nil, fmt.Errorf("[apiclient send] %s %s: %w: %w", method, path, apperrors.ErrNetwork, err)
	}
	defer resp.Body.Close()

	c.metrics.observe(method, resp.StatusCode)
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return 0, nil, fmt.Errorf("[apiclient send] %s %s: error reading response: %w: %w", method, path, apperrors.ErrNetwork, err)
	}
	log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Str("request_id", requestID).Msg("API request")
	return resp.StatusCode, data, nil
}

// refreshAfter makes sure a token newer than sent is in place. Callers that
// fail together share one refresh call, which outlives any one caller's
// context. When another request has already replaced sent, nothing is
// refreshed.
func (c *Client) refreshAfter(ctx context.Context, sent string) error {
	if current := c.AccessToken(); current != "" && current != sent {
		return nil
	}
	ch := c.flight.DoChan("refresh", func() (any, error) {
		if current := c.AccessToken(); current != "" && current != sent {
			return nil, nil
		}
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return nil, c.refresh(rctx)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) refresh(ctx context.Context) error {
	refreshToken, err := c.store.GetRefresh()
	if err == nil && refreshToken == "" {
		err = apperrors.ErrNoRefreshToken
	}
	if err != nil {
		c.metrics.refreshes.WithLabelValues("failure").Inc()
		c.loseAuth(err)
		return fmt.Errorf("[apiclient refresh] %w", err)
	}

	pair, err := c.Refresh(ctx, refreshToken)
	if err != nil {
		c.metrics.refreshes.WithLabelValues("failure").Inc()
		if !errors.Is(err, context.Canceled) {
			c.loseAuth(err)
		}
		return fmt.Errorf("[apiclient refresh] %w", err)
	}
	c.metrics.refreshes.WithLabelValues("success").Inc()

	if err := c.store.Save(pair); err != nil {
		log.Err(err).Msg("failed to persist refreshed token")
	}
	c.SetToken(pair)
	return nil
}

func (c *Client) loseAuth(cause error) {
	log.Warn().Err(cause).Msg("token refresh failed, clearing session")
	if err := c.store.Clear(); err != nil {
		log.Err(err).Msg("failed to clear token store")
	}

	c.mu.Lock()
	c.token = nil
	listener := c.onAuthLost
	c.mu.Unlock()

	if listener != nil {
		listener(cause)
	}
}

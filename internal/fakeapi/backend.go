// Package fakeapi is an in-memory stand-in for the college attendance REST
// API. It mirrors the backend's endpoints, payload shapes and status codes
// closely enough to drive the client end to end in tests.
package fakeapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Secret signs every access token the backend issues.
const Secret = "fake-attendance-secret"

type Options struct {
	AccessTTL     time.Duration    // Access token lifetime, default 5 minutes
	ProfileClaims bool             // Add username and role claims to access tokens
	RotateRefresh bool             // Return a new refresh token on every refresh
	Now           func() time.Time // Clock, default time.Now
}

// Backend is a running fake API server.
type Backend struct {
	server *httptest.Server
	signer *hmacSigner
	opts   Options

	mu            sync.Mutex
	users         map[int64]*user
	profiles      map[int64]*studentProfile
	courses       map[int64]*course
	attendance    map[attendanceKey]string
	refreshTokens map[string]int64
	issued        []string
	revoked       map[string]bool
	requests      map[string]int
	authHeaders   map[string][]string
	nextID        int64
	failRefresh   bool
	refreshDelay  time.Duration

	refreshCalls atomic.Int64
}

// New seeds the backend and starts it on a loopback port.
func New(opts Options) *Backend {
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 5 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	b := &Backend{
		signer:        newHMACSigner(Secret),
		opts:          opts,
		users:         make(map[int64]*user),
		profiles:      make(map[int64]*studentProfile),
		courses:       make(map[int64]*course),
		attendance:    make(map[attendanceKey]string),
		refreshTokens: make(map[string]int64),
		revoked:       make(map[string]bool),
		requests:      make(map[string]int),
		authHeaders:   make(map[string][]string),
	}
	b.seed()
	b.server = httptest.NewServer(b.routes())
	return b
}

// URL is the API base URL, e.g. http://127.0.0.1:port/api.
func (b *Backend) URL() string {
	return b.server.URL + "/api"
}

func (b *Backend) Close() {
	b.server.Close()
}

// Issue logs username in directly and returns its token pair.
func (b *Backend) Issue(username string) (access, refresh string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := b.userByUsername(username)
	if u == nil {
		panic("fakeapi: unknown user " + username)
	}
	return b.issueLocked(u)
}

// ExpireAccessTokens makes every access token issued so far fail with 401.
func (b *Backend) ExpireAccessTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.issued {
		b.revoked[t] = true
	}
}

// SetFailRefresh makes the refresh endpoint reject every refresh token.
func (b *Backend) SetFailRefresh(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failRefresh = fail
}

// SetRefreshDelay slows the refresh endpoint down so concurrent callers
// overlap.
func (b *Backend) SetRefreshDelay(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshDelay = d
}

// RefreshCalls counts requests to the refresh endpoint.
func (b *Backend) RefreshCalls() int64 {
	return b.refreshCalls.Load()
}

// Requests counts requests for a "METHOD /api/path/" key.
func (b *Backend) Requests(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[key]
}

// AuthHeaders returns the Authorization headers seen for a request key, in
// arrival order.
func (b *Backend) AuthHeaders(key string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.authHeaders[key]...)
}

// AttendanceStatus returns the stored mark for a course, student and date.
func (b *Backend) AttendanceStatus(courseID, studentID int64, date string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.attendance[attendanceKey{courseID, studentID, date}]
	return s, ok
}

func (b *Backend) issueLocked(u *user) (string, string) {
	access, err := b.signer.mint(AccessClaims{
		UserID:      u.ID,
		Username:    u.Username,
		Role:        u.Role,
		TTL:         b.opts.AccessTTL,
		WithProfile: b.opts.ProfileClaims,
	}, b.opts.Now())
	if err != nil {
		panic(err)
	}
	refresh := newOpaqueRefreshToken()
	b.refreshTokens[refresh] = u.ID
	b.issued = append(b.issued, access)
	return access, refresh
}

func (b *Backend) record(r *http.Request) {
	key := r.Method + " " + r.URL.Path
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests[key]++
	b.authHeaders[key] = append(b.authHeaders[key], r.Header.Get("Authorization"))
}

// authenticate resolves the bearer token to a user and enforces role.
func (b *Backend) authenticate(w http.ResponseWriter, r *http.Request, role string) (*user, bool) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if header == "" || len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return nil, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id, err := b.signer.verify(parts[1], b.opts.Now())
	if err != nil || b.revoked[parts[1]] {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"detail": "Given token not valid for any token type",
			"code":   "token_not_valid",
		})
		return nil, false
	}
	u, ok := b.users[id]
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "User not found")
		return nil, false
	}
	if role != "" && u.Role != role {
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return nil, false
	}
	return u, true
}

package sessions_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jrsteele09/attendance-client/apiclient"
	apperrors "github.com/jrsteele09/attendance-client/internal/errors"
	"github.com/jrsteele09/attendance-client/internal/fakeapi"
	"github.com/jrsteele09/attendance-client/sessions"
	"github.com/jrsteele09/attendance-client/token"
	tokenfakerepo "github.com/jrsteele09/attendance-client/token/repofake"
	"github.com/jrsteele09/attendance-client/users"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	backend *fakeapi.Backend
	store   *tokenfakerepo.FakeTokenStore
	client  *apiclient.Client
	manager *sessions.Manager
	changes []sessions.Session
}

func setupTestFixture(t *testing.T, backendOpts fakeapi.Options, opts sessions.Options) *testFixture {
	t.Helper()

	backend := fakeapi.New(backendOpts)
	t.Cleanup(backend.Close)

	store := tokenfakerepo.NewFakeTokenStore()
	client, err := apiclient.New(backend.URL(), store, apiclient.Options{})
	require.NoError(t, err)

	f := &testFixture{backend: backend, store: store, client: client}
	f.manager = sessions.NewManager(store, client, opts)
	f.manager.OnChange(func(s sessions.Session) { f.changes = append(f.changes, s) })
	return f
}

func accessToken(role string, withProfile bool, issued time.Time, ttl time.Duration) string {
	return fakeapi.MintAccessToken(fakeapi.Secret, fakeapi.AccessClaims{
		UserID:      fakeapi.FacultyAdaID,
		Username:    "ada",
		Role:        role,
		TTL:         ttl,
		WithProfile: withProfile,
	}, issued)
}

type rejectingVerifier struct{}

func (rejectingVerifier) Verify(context.Context, string) error {
	return apperrors.ErrInvalidToken
}

func TestManagerStartsChecking(t *testing.T) {
	f := setupTestFixture(t, fakeapi.Options{}, sessions.Options{})
	s := f.manager.Session()
	require.Equal(t, sessions.StateChecking, s.State)
	require.False(t, s.IsAuthenticated())
	require.Equal(t, "CHECKING", s.State.String())
}

func TestBootAnonymous(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, store *tokenfakerepo.FakeTokenStore)
		opts  sessions.Options
	}{
		{
			name: "no token",
			setup: func(t *testing.T, store *tokenfakerepo.FakeTokenStore) {
				require.NoError(t, store.SaveUser(&users.User{ID: 1, Username: "alice", Role: users.RoleStudent}))
			},
		},
		{
			name: "malformed token",
			setup: func(t *testing.T, store *tokenfakerepo.FakeTokenStore) {
				require.NoError(t, store.Save(token.TokenPair{AccessToken: "not-a-jwt", RefreshToken: "r"}))
			},
		},
		{
			name: "expired token",
			setup: func(t *testing.T, store *tokenfakerepo.FakeTokenStore) {
				access := accessToken("faculty", true, time.Now().Add(-time.Hour), 5*time.Minute)
				require.NoError(t, store.Save(token.TokenPair{AccessToken: access, RefreshToken: "r"}))
			},
		},
		{
			name: "no cached profile and no role claim",
			setup: func(t *testing.T, store *tokenfakerepo.FakeTokenStore) {
				access := accessToken("faculty", false, time.Now(), 5*time.Minute)
				require.NoError(t, store.Save(token.TokenPair{AccessToken: access, RefreshToken: "r"}))
			},
		},
		{
			name: "cached role disagrees with token",
			setup: func(t *testing.T, store *tokenfakerepo.FakeTokenStore) {
				access := accessToken("faculty", true, time.Now(), 5*time.Minute)
				require.NoError(t, store.Save(token.TokenPair{AccessToken: access, RefreshToken: "r"}))
				require.NoError(t, store.SaveUser(&users.User{ID: fakeapi.FacultyAdaID, Username: "ada", Role: users.RoleAdmin}))
			},
		},
		{
			name: "signature rejected",
			setup: func(t *testing.T, store *tokenfakerepo.FakeTokenStore) {
				access := accessToken("faculty", true, time.Now(), 5*time.Minute)
				require.NoError(t, store.Save(token.TokenPair{AccessToken: access, RefreshToken: "r"}))
			},
			opts: sessions.Options{Verifier: rejectingVerifier{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t, fakeapi.Options{}, tt.opts)
			tt.setup(t, f.store)

			s := f.manager.Boot(context.Background())
			require.Equal(t, sessions.StateAnonymous, s.State)
			require.Nil(t, s.User)
			require.True(t, f.store.Empty())
			require.Empty(t, f.client.AccessToken())
			require.Len(t, f.changes, 1)
		})
	}
}

func TestBootStoreUnavailable(t *testing.T) {
	f := setupTestFixture(t, fakeapi.Options{}, sessions.Options{})
	f.store.SetUnavailable(true)

	s := f.manager.Boot(context.Background())
	require.Equal(t, sessions.StateAnonymous, s.State)
}

func TestBootWithCachedProfile(t *testing.T) {
	f := setupTestFixture(t, fakeapi.Options{}, sessions.Options{})
	access, refresh := f.backend.Issue("alice")
	require.NoError(t, f.store.Save(token.TokenPair{AccessToken: access, RefreshToken: refresh}))
	require.NoError(t, f.store.SaveUser(&users.User{ID: fakeapi.StudentAliceID, Username: "alice", Role: users.RoleStudent, FirstName: "Alice", LastName: "Johnson"}))

	s := f.manager.Boot(context.Background())
	require.True(t, s.IsAuthenticated())
	require.Equal(t, users.RoleStudent, s.Role())
	require.Equal(t, "Alice Johnson", s.User.DisplayName())
	require.Equal(t, access, f.client.AccessToken())

	// The restored token works against the API.
	d, err := f.client.StudentDashboard(context.Background())
	require.NoError(t, err)
	require.Equal(t, "S101", d.RollNumber)
}

func TestBootFromClaims(t *testing.T) {
	f := setupTestFixture(t, fakeapi.Options{}, sessions.Options{})
	access := accessToken("faculty", true, time.Now(), 5*time.Minute)
	require.NoError(t, f.store.Save(token.TokenPair{AccessToken: access, RefreshToken: "r"}))

	s := f.manager.Boot(context.Background())
	require.True(t, s.IsAuthenticated())
	require.Equal(t, users.RoleFaculty, s.User.Role)
	require.Equal(t, "ada", s.User.Username)
	require.Equal(t, fakeapi.FacultyAdaID, s.User.ID)
}

func TestBootAllowsClockSkew(t *testing.T) {
	f := setupTestFixture(t, fakeapi.Options{}, sessions.Options{ClockSkew: 30 * time.Second})
	access := accessToken("faculty", true, time.Now().Add(-70*time.Second), time.Minute)
	require.NoError(t, f.store.Save(token.TokenPair{AccessToken: access, RefreshToken: "r"}))

	s := f.manager.Boot(context.Background())
	require.True(t, s.IsAuthenticated())
}

func TestBootUsesNowTimeFunc(t *testing.T) {
	original := token.NowTimeFunc
	t.Cleanup(func() { token.NowTimeFunc = original })

	issued := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	access := accessToken("faculty", true, issued, 5*time.Minute)

	f := setupTestFixture(t, fakeapi.Options{}, sessions.Options{})
	require.NoError(t, f.store.Save(token.TokenPair{AccessToken: access, RefreshToken: "r"}))

	token.NowTimeFunc = func() time.Time { return issued.Add(time.Minute) }
	require.True(t, f.manager.Boot(context.Background()).IsAuthenticated())

	token.NowTimeFunc = func() time.Time { return issued.Add(10 * time.Minute) }
	require.NoError(t, f.store.Save(token.TokenPair{AccessToken: access, RefreshToken: "r"}))
	require.False(t, f.manager.Boot(context.Background()).IsAuthenticated())
}

func TestLogin(t *testing.T) {
	f := setupTestFixture(t, fakeapi.Options{}, sessions.Options{})
	f.manager.Boot(context.Background())

	user, err := f.manager.Login(context.Background(), "ada", fakeapi.SeedPassword, users.RoleFaculty)
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", user.DisplayName())

	s := f.manager.Session()
	require.True(t, s.IsAuthenticated())
	require.Equal(t, users.RoleFaculty, s.Role())

	access, err := f.store.GetAccess()
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.Equal(t, access, f.client.AccessToken())
	cached, err := f.store.GetUser()
	require.NoError(t, err)
	require.Equal(t, "Mathematics", cached.Department)

	require.Len(t, f.changes, 2)
	require.Equal(t, sessions.StateAuthenticated, f.changes[1].State)
}

func TestLoginWithoutExpectedRole(t *testing.T) {
	f := setupTestFixture(t, fakeapi.Options{}, sessions.Options{})

	user, err := f.manager.Login(context.Background(), "admin", fakeapi.SeedPassword, "")
	require.NoError(t, err)
	require.Equal(t, users.RoleAdmin, user.Role)
}

func TestLoginOverwritesPreviousSession(t *testing.T) {
	f := setupTestFixture(t, fakeapi.Options{}, sessions.Options{})
	_, err := f.manager.Login(context.Background(), "alice", fakeapi.SeedPassword, users.RoleStudent)
	require.NoError(t, err)
	_, err = f.manager.Login(context.Background(), "bob", fakeapi.SeedPassword, users.RoleStudent)
	require.NoError(t, err)

	cached, err := f.store.GetUser()
	require.NoError(t, err)
	require.Equal(t, "bob", cached.Username)
	require.Equal(t, "bob", f.manager.Session().User.Username)
}

func TestLoginRequiresCredentials(t *testing.T) {
	f := setupTestFixture(t, fakeapi.Options{}, sessions.Options{})

	_, err := f.manager.Login(context.Background(), "  ", "pass", users.RoleStudent)
	require.True(t, apperrors.Is(err, apperrors.ErrValidation))
	require.Equal(t, "Please enter both username and password.", apiclient.UserMessage(err))
	require.Zero(t, f.backend.Requests("POST /api/auth/login/"))
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := setupTestFixture(t, fakeapi.Options{}, sessions.Options{})
	f.manager.Boot(context.Background())

	_, err := f.manager.Login(context.Background(), "ada", "nope", users.RoleFaculty)
	require.True(t, apperrors.Is(err, apperrors.ErrInvalidCredentials))
	require.Equal(t, sessions.StateAnonymous, f.manager.Session().State)
	require.True(t, f.store.Empty())
}

func TestLoginRoleMismatch(t *testing.T) {
	f := setupTestFixture(t, fakeapi.Options{}, sessions.Options{})
	f.manager.Boot(context.Background())

	_, err := f.manager.Login(context.Background(), "ada", fakeapi.SeedPassword, users.RoleStudent)
	require.True(t, apperrors.Is(err, apperrors.ErrRoleMismatch))
	require.Equal(t, "Login successful, but role mismatch. Logged in as faculty.", apiclient.UserMessage(err))

	require.False(t, f.manager.Session().IsAuthenticated())
	require.True(t, f.store.Empty())
	require.Empty(t, f.client.AccessToken())
}

func TestLogout(t *testing.T) {
	f := setupTestFixture(t, fakeapi.Options{}, sessions.Options{})
	_, err := f.manager.Login(context.Background(), "alice", fakeapi.SeedPassword, users.RoleStudent)
	require.NoError(t, err)

	require.NoError(t, f.manager.Logout())
	require.Equal(t, sessions.StateAnonymous, f.manager.Session().State)
	require.True(t, f.store.Empty())
	require.Empty(t, f.client.AccessToken())
}

func TestLogoutStoreUnavailable(t *testing.T) {
	f := setupTestFixture(t, fakeapi.Options{}, sessions.Options{})
	_, err := f.manager.Login(context.Background(), "alice", fakeapi.SeedPassword, users.RoleStudent)
	require.NoError(t, err)

	f.store.SetUnavailable(true)
	err = f.manager.Logout()
	require.True(t, errors.Is(err, apperrors.ErrStoreUnavailable))
	require.False(t, f.manager.Session().IsAuthenticated())
	require.Empty(t, f.client.AccessToken())
}

func TestRefreshFailureEndsSession(t *testing.T) {
	f := setupTestFixture(t, fakeapi.Options{}, sessions.Options{})
	_, err := f.manager.Login(context.Background(), "alice", fakeapi.SeedPassword, users.RoleStudent)
	require.NoError(t, err)

	f.backend.ExpireAccessTokens()
	f.backend.SetFailRefresh(true)

	_, err = f.client.StudentDashboard(context.Background())
	require.True(t, apperrors.Is(err, apperrors.ErrSessionExpired))
	require.Equal(t, sessions.StateAnonymous, f.manager.Session().State)
	require.True(t, f.store.Empty())
}

func TestRefreshSuccessKeepsSession(t *testing.T) {
	f := setupTestFixture(t, fakeapi.Options{}, sessions.Options{})
	_, err := f.manager.Login(context.Background(), "alice", fakeapi.SeedPassword, users.RoleStudent)
	require.NoError(t, err)
	f.backend.ExpireAccessTokens()

	_, err = f.client.StudentDashboard(context.Background())
	require.NoError(t, err)
	require.True(t, f.manager.Session().IsAuthenticated())
	require.EqualValues(t, 1, f.backend.RefreshCalls())
}

func TestSessionSnapshotIsCopy(t *testing.T) {
	f := setupTestFixture(t, fakeapi.Options{}, sessions.Options{})
	_, err := f.manager.Login(context.Background(), "alice", fakeapi.SeedPassword, users.RoleStudent)
	require.NoError(t, err)

	s := f.manager.Session()
	s.User.Role = users.RoleAdmin
	require.Equal(t, users.RoleStudent, f.manager.Session().Role())
}

func TestSessionHasRole(t *testing.T) {
	f := setupTestFixture(t, fakeapi.Options{}, sessions.Options{})
	require.False(t, f.manager.Session().HasRole(users.RoleFaculty))

	_, err := f.manager.Login(context.Background(), "ada", fakeapi.SeedPassword, users.RoleFaculty)
	require.NoError(t, err)
	s := f.manager.Session()
	require.True(t, s.HasRole(users.RoleFaculty))
	require.False(t, s.HasRole(users.RoleAdmin))

	require.NoError(t, f.manager.Logout())
	require.False(t, f.manager.Session().HasRole(users.RoleFaculty))
}

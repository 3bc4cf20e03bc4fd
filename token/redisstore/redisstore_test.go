package redisstore_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	apperrors "github.com/jrsteele09/attendance-client/internal/errors"
	"github.com/jrsteele09/attendance-client/token"
	"github.com/jrsteele09/attendance-client/token/redisstore"
	"github.com/jrsteele09/attendance-client/users"
	"github.com/stretchr/testify/require"
)

const origin = "http_127.0.0.1_8000"

var testUser = &users.User{ID: 3, Username: "prof", Role: users.RoleFaculty, FirstName: "Ada"}

func newStore(t *testing.T, mr *miniredis.Miniredis, origin string) *redisstore.Store {
	t.Helper()
	client := redisstore.NewClient(redisstore.Options{Addr: mr.Addr(), Timeout: time.Second})
	t.Cleanup(func() { _ = client.Close() })
	s, err := redisstore.New(client, origin, time.Second)
	require.NoError(t, err)
	return s
}

func TestEmptyStore(t *testing.T) {
	s := newStore(t, miniredis.RunT(t), origin)

	access, err := s.GetAccess()
	require.NoError(t, err)
	require.Empty(t, access)

	u, err := s.GetUser()
	require.NoError(t, err)
	require.Nil(t, u)

	require.NoError(t, s.Clear())
}

func TestSaveAndClear(t *testing.T) {
	mr := miniredis.RunT(t)
	s := newStore(t, mr, origin)

	require.NoError(t, s.Save(token.TokenPair{AccessToken: "a1", RefreshToken: "r1"}))
	require.NoError(t, s.SaveUser(testUser))

	access, err := s.GetAccess()
	require.NoError(t, err)
	require.Equal(t, "a1", access)
	refresh, err := s.GetRefresh()
	require.NoError(t, err)
	require.Equal(t, "r1", refresh)
	u, err := s.GetUser()
	require.NoError(t, err)
	require.Equal(t, testUser, u)

	require.Equal(t, []string{
		"attendance:" + origin + ":access_token",
		"attendance:" + origin + ":refresh_token",
		"attendance:" + origin + ":user",
	}, mr.Keys())
	raw, err := mr.Get("attendance:" + origin + ":access_token")
	require.NoError(t, err)
	require.Equal(t, "a1", raw)

	require.NoError(t, s.Clear())
	require.Empty(t, mr.Keys())
	access, err = s.GetAccess()
	require.NoError(t, err)
	require.Empty(t, access)
	u, err = s.GetUser()
	require.NoError(t, err)
	require.Nil(t, u)
}

func TestNewLoginOverwritesPair(t *testing.T) {
	s := newStore(t, miniredis.RunT(t), origin)

	require.NoError(t, s.Save(token.TokenPair{AccessToken: "a1", RefreshToken: "r1"}))
	require.NoError(t, s.SaveUser(testUser))
	require.NoError(t, s.Save(token.TokenPair{AccessToken: "a2", RefreshToken: "r2"}))

	access, _ := s.GetAccess()
	refresh, _ := s.GetRefresh()
	require.Equal(t, "a2", access)
	require.Equal(t, "r2", refresh)

	u, err := s.GetUser()
	require.NoError(t, err)
	require.Equal(t, testUser, u)

	require.NoError(t, s.SaveUser(nil))
	u, err = s.GetUser()
	require.NoError(t, err)
	require.Nil(t, u)
}

func TestOriginsAreIsolated(t *testing.T) {
	mr := miniredis.RunT(t)
	local := newStore(t, mr, origin)
	remote := newStore(t, mr, "https_college.example.com")

	require.NoError(t, local.Save(token.TokenPair{AccessToken: "a1", RefreshToken: "r1"}))
	require.NoError(t, remote.Save(token.TokenPair{AccessToken: "b1", RefreshToken: "s1"}))

	require.NoError(t, local.Clear())
	access, err := local.GetAccess()
	require.NoError(t, err)
	require.Empty(t, access)

	access, err = remote.GetAccess()
	require.NoError(t, err)
	require.Equal(t, "b1", access)
}

func TestCorruptUserIsUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	s := newStore(t, mr, origin)
	require.NoError(t, mr.Set("attendance:"+origin+":user", "{not json"))

	_, err := s.GetUser()
	require.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
}

func TestUnreachableRedisIsUnavailable(t *testing.T) {
	client := redisstore.NewClient(redisstore.Options{Addr: "127.0.0.1:1", Timeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })

	s, err := redisstore.New(client, "http_127.0.0.1_8000", 200*time.Millisecond)
	require.NoError(t, err)

	_, err = s.GetAccess()
	require.ErrorIs(t, err, apperrors.ErrStoreUnavailable)

	err = s.Save(token.TokenPair{AccessToken: "a", RefreshToken: "r"})
	require.ErrorIs(t, err, apperrors.ErrStoreUnavailable)

	_, err = s.GetUser()
	require.ErrorIs(t, err, apperrors.ErrStoreUnavailable)

	require.ErrorIs(t, s.Clear(), apperrors.ErrStoreUnavailable)
}

func TestNewValidatesArguments(t *testing.T) {
	_, err := redisstore.New(nil, "origin", time.Second)
	require.Error(t, err)

	client := redisstore.NewClient(redisstore.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })
	_, err = redisstore.New(client, "", time.Second)
	require.Error(t, err)
}

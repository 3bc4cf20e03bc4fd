package tokenfakerepo

import (
	"sync"

	apperrors "github.com/jrsteele09/attendance-client/internal/errors"
	"github.com/jrsteele09/attendance-client/token"
	"github.com/jrsteele09/attendance-client/users"
)

var _ token.Store = (*FakeTokenStore)(nil)

// FakeTokenStore keeps the session in memory. It backs the "memory" store
// driver and tests.
type FakeTokenStore struct {
	values      map[string]string
	user        *users.User
	unavailable bool
	lock        sync.RWMutex
}

func NewFakeTokenStore() *FakeTokenStore {
	return &FakeTokenStore{
		values: make(map[string]string),
	}
}

// SetUnavailable makes every call fail as if the storage backend were gone.
func (s *FakeTokenStore) SetUnavailable(unavailable bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.unavailable = unavailable
}

func (s *FakeTokenStore) Save(pair token.TokenPair) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.unavailable {
		return apperrors.ErrStoreUnavailable
	}
	s.values[token.KeyAccess] = pair.AccessToken
	s.values[token.KeyRefresh] = pair.RefreshToken
	return nil
}

func (s *FakeTokenStore) GetAccess() (string, error) {
	return s.get(token.KeyAccess)
}

func (s *FakeTokenStore) GetRefresh() (string, error) {
	return s.get(token.KeyRefresh)
}

func (s *FakeTokenStore) Clear() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.unavailable {
		return apperrors.ErrStoreUnavailable
	}
	s.values = make(map[string]string)
	s.user = nil
	return nil
}

func (s *FakeTokenStore) SaveUser(user *users.User) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.unavailable {
		return apperrors.ErrStoreUnavailable
	}
	if user == nil {
		s.user = nil
		return nil
	}
	u := *user
	s.user = &u
	return nil
}

func (s *FakeTokenStore) GetUser() (*users.User, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.unavailable {
		return nil, apperrors.ErrStoreUnavailable
	}
	if s.user == nil {
		return nil, nil
	}
	u := *s.user
	return &u, nil
}

// Empty reports whether nothing at all is stored.
func (s *FakeTokenStore) Empty() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.values[token.KeyAccess] == "" && s.values[token.KeyRefresh] == "" && s.user == nil
}

func (s *FakeTokenStore) get(key string) (string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.unavailable {
		return "", apperrors.ErrStoreUnavailable
	}
	return s.values[key], nil
}

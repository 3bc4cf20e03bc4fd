package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/attendance-client/internal/errors"
	"github.com/jrsteele09/attendance-client/token"
	"github.com/jrsteele09/attendance-client/users"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "attendance"

var _ token.Store = (*Store)(nil)

// Store keeps one origin's session in Redis so that several terminals on a
// shared lab machine see the same login.
type Store struct {
	client  redis.UniversalClient
	origin  string
	timeout time.Duration
}

// Options configures NewClient.
type Options struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

// NewClient builds the go-redis client used by the store.
func NewClient(opts Options) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.Timeout,
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
	})
}

func New(client redis.UniversalClient, origin string, timeout time.Duration) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("[redisstore New] client is required")
	}
	if origin == "" {
		return nil, fmt.Errorf("[redisstore New] origin is required")
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Store{client: client, origin: origin, timeout: timeout}, nil
}

func (s *Store) key(name string) string {
	return keyPrefix + ":" + s.origin + ":" + name
}

func (s *Store) Save(pair token.TokenPair) error {
	ctx, cancel := s.ctx()
	defer cancel()

	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.key(token.KeyAccess), pair.AccessToken, 0)
		p.Set(ctx, s.key(token.KeyRefresh), pair.RefreshToken, 0)
		return nil
	})
	return unavailable("Save", err)
}

func (s *Store) GetAccess() (string, error) {
	return s.get(token.KeyAccess)
}

func (s *Store) GetRefresh() (string, error) {
	return s.get(token.KeyRefresh)
}

func (s *Store) Clear() error {
	ctx, cancel := s.ctx()
	defer cancel()

	err := s.client.Del(ctx, s.key(token.KeyAccess), s.key(token.KeyRefresh), s.key(token.KeyUser)).Err()
	return unavailable("Clear", err)
}

func (s *Store) SaveUser(user *users.User) error {
	ctx, cancel := s.ctx()
	defer cancel()

	if user == nil {
		return unavailable("SaveUser", s.client.Del(ctx, s.key(token.KeyUser)).Err())
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("[redisstore SaveUser] failed to encode user: %w", err)
	}
	return unavailable("SaveUser", s.client.Set(ctx, s.key(token.KeyUser), raw, 0).Err())
}

func (s *Store) GetUser() (*users.User, error) {
	raw, err := s.get(token.KeyUser)
	if err != nil || raw == "" {
		return nil, err
	}
	var u users.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[redisstore GetUser] corrupt user: %v", err)
	}
	return &u, nil
}

func (s *Store) get(name string) (string, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	v, err := s.client.Get(ctx, s.key(name)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", unavailable("get "+name, err)
	}
	return v, nil
}

func (s *Store) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[redisstore %s] %v", op, err)
}

package filestore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/jrsteele09/attendance-client/internal/errors"
	"github.com/jrsteele09/attendance-client/token"
	"github.com/jrsteele09/attendance-client/users"
)

const documentVersion = 1

var _ token.Store = (*Store)(nil)

// document is the on-disk layout. Keys match the fixed token store keys.
type document struct {
	Version      int         `json:"version"`
	AccessToken  string      `json:"access_token,omitempty"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	User         *users.User `json:"user,omitempty"`
}

// Store keeps one origin's session in a single JSON file, optionally
// encrypted with a passphrase.
type Store struct {
	path   string
	sealer *sealer // nil stores plain JSON
	lock   sync.Mutex
}

// New returns a store for origin under dir. The directory is created with
// 0700 permissions if needed.
func New(dir, origin, passphrase string) (*Store, error) {
	if origin == "" {
		return nil, fmt.Errorf("[filestore New] origin is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("[filestore New] failed to create %s: %w", dir, err)
	}
	s := &Store{path: filepath.Join(dir, origin+".json")}
	if passphrase != "" {
		s.sealer = newSealer([]byte(passphrase))
	}
	return s, nil
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Save(pair token.TokenPair) error {
	return s.update(func(d *document) {
		d.AccessToken = pair.AccessToken
		d.RefreshToken = pair.RefreshToken
	})
}

func (s *Store) GetAccess() (string, error) {
	d, err := s.read()
	if err != nil {
		return "", err
	}
	return d.AccessToken, nil
}

func (s *Store) GetRefresh() (string, error) {
	d, err := s.read()
	if err != nil {
		return "", err
	}
	return d.RefreshToken, nil
}

func (s *Store) Clear() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[filestore Clear] %v", err)
	}
	return nil
}

func (s *Store) SaveUser(user *users.User) error {
	return s.update(func(d *document) {
		d.User = user
	})
}

func (s *Store) GetUser() (*users.User, error) {
	d, err := s.read()
	if err != nil {
		return nil, err
	}
	return d.User, nil
}

func (s *Store) read() (*document, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.load()
}

// update applies fn to the current document and writes it back. An
// unreadable document is replaced rather than blocking the write.
func (s *Store) update(fn func(*document)) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	d, err := s.load()
	if err != nil {
		d = &document{}
	}
	fn(d)
	return s.write(d)
}

func (s *Store) load() (*document, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &document{Version: documentVersion}, nil
	}
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[filestore load] %v", err)
	}

	if s.sealer != nil {
		if raw, err = s.sealer.open(raw); err != nil {
			return nil, apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[filestore load] %v", err)
		}
	}

	var d document
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[filestore load] corrupt session file: %v", err)
	}
	if d.Version != documentVersion {
		return nil, apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[filestore load] unsupported version %d", d.Version)
	}
	return &d, nil
}

func (s *Store) write(d *document) error {
	d.Version = documentVersion
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("[filestore write] failed to encode session: %w", err)
	}
	if s.sealer != nil {
		if raw, err = s.sealer.seal(raw); err != nil {
			return fmt.Errorf("[filestore write] failed to encrypt session: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[filestore write] %v", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[filestore write] %v", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[filestore write] %v", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[filestore write] %v", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[filestore write] %v", err)
	}
	return nil
}

package filestore

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const saltSize = 16

// Argon2id parameters. Lighter than the password-hashing defaults because the
// key is derived on every read of a file written by another process.
const (
	argonTime    = 1
	argonMemory  = 19 * 1024
	argonThreads = 1
)

// envelope wraps the encrypted document on disk.
type envelope struct {
	Version    int    `json:"version"`
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// sealer encrypts documents with XChaCha20-Poly1305 under a passphrase
// derived key. The last derived key is cached by salt.
type sealer struct {
	passphrase []byte
	salt       []byte
	key        []byte
}

func newSealer(passphrase []byte) *sealer {
	return &sealer{passphrase: passphrase}
}

func (s *sealer) keyFor(salt []byte) []byte {
	if s.key != nil && bytes.Equal(s.salt, salt) {
		return s.key
	}
	s.salt = append([]byte(nil), salt...)
	s.key = argon2.IDKey(s.passphrase, salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
	return s.key
}

func (s *sealer) seal(plaintext []byte) ([]byte, error) {
	salt := s.salt
	if salt == nil {
		salt = make([]byte, saltSize)
		if _, err := rand.Read(salt); err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}
	}
	aead, err := chacha20poly1305.NewX(s.keyFor(salt))
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return json.Marshal(envelope{
		Version:    documentVersion,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: aead.Seal(nil, nonce, plaintext, salt),
	})
}

func (s *sealer) open(raw []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("not an encrypted session file: %w", err)
	}
	if len(env.Salt) != saltSize || len(env.Nonce) != chacha20poly1305.NonceSizeX {
		return nil, errors.New("malformed encrypted session file")
	}
	aead, err := chacha20poly1305.NewX(s.keyFor(env.Salt))
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, env.Nonce, env.Ciphertext, env.Salt)
	if err != nil {
		return nil, errors.New("session file could not be decrypted")
	}
	return plaintext, nil
}

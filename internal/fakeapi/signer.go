package fakeapi

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// hmacSigner mints and checks HS256 access tokens shaped like the backend's
// SimpleJWT tokens.
type hmacSigner struct {
	secret []byte
}

func newHMACSigner(secret string) *hmacSigner {
	return &hmacSigner{secret: []byte(secret)}
}

// AccessClaims describes an access token to mint.
type AccessClaims struct {
	UserID   int64
	Username string
	Role     string
	TTL      time.Duration
	// WithProfile adds username and role claims. SimpleJWT leaves them out
	// unless the backend customises the token.
	WithProfile bool
}

func (h *hmacSigner) mint(c AccessClaims, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"token_type": "access",
		"user_id":    c.UserID,
		"iat":        now.Unix(),
		"exp":        now.Add(c.TTL).Unix(),
		"jti":        uuid.New().String(),
	}
	if c.WithProfile {
		claims["username"] = c.Username
		claims["role"] = c.Role
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token with HMAC: %w", err)
	}
	return signed, nil
}

// verify returns the user id of a valid, unexpired access token.
func (h *hmacSigner) verify(raw string, now time.Time) (int64, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return h.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return 0, fmt.Errorf("token not valid: %w", err)
	}
	claims, _ := parsed.Claims.(jwt.MapClaims)
	if tt, _ := claims["token_type"].(string); tt != "access" {
		return 0, fmt.Errorf("token_type %q is not access", tt)
	}
	id, ok := claims["user_id"].(float64)
	if !ok {
		return 0, fmt.Errorf("token has no user_id")
	}
	return int64(id), nil
}

// newOpaqueRefreshToken returns a random hex refresh token.
func newOpaqueRefreshToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("failed to generate random bytes: %v", err))
	}
	return hex.EncodeToString(b)
}

// MintAccessToken signs a standalone access token with secret. Tests use it
// to seed token stores without a running backend.
func MintAccessToken(secret string, c AccessClaims, now time.Time) string {
	raw, err := newHMACSigner(secret).mint(c, now)
	if err != nil {
		panic(err)
	}
	return raw
}

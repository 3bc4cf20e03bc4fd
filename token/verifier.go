package token

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	apperrors "github.com/jrsteele09/attendance-client/internal/errors"
)

// Verifier checks an access token's signature.
type Verifier interface {
	Verify(ctx context.Context, raw string) error
}

// KeySetVerifier verifies tokens against a JSON Web Key Set.
type KeySetVerifier struct {
	keySet oidc.KeySet
}

// NewKeySetVerifier wraps any key set, e.g. an oidc.StaticKeySet in tests.
func NewKeySetVerifier(keySet oidc.KeySet) *KeySetVerifier {
	return &KeySetVerifier{keySet: keySet}
}

// NewRemoteVerifier fetches and caches keys from jwksURL on demand.
func NewRemoteVerifier(ctx context.Context, jwksURL string) *KeySetVerifier {
	return NewKeySetVerifier(oidc.NewRemoteKeySet(ctx, jwksURL))
}

func (v *KeySetVerifier) Verify(ctx context.Context, raw string) error {
	if _, err := v.keySet.VerifySignature(ctx, raw); err != nil {
		return fmt.Errorf("[token Verify] %v: %w", err, apperrors.ErrInvalidToken)
	}
	return nil
}

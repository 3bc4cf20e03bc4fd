package token

import (
	"strings"

	"golang.org/x/oauth2"
)

// TokenPair is the credential pair returned by login. The access token is a
// short-lived signed JWT; the refresh token is only ever exchanged for a new
// access token.
type TokenPair struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
}

func (p TokenPair) Empty() bool {
	return strings.TrimSpace(p.AccessToken) == ""
}

// OAuth2Token converts the pair into a bearer token. Expiry comes from the
// access token's exp claim and stays zero when the token can't be decoded.
func (p TokenPair) OAuth2Token() *oauth2.Token {
	t := &oauth2.Token{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    "Bearer",
	}
	if claims, err := DecodeClaims(p.AccessToken); err == nil {
		t.Expiry = claims.ExpiresAt
	}
	return t
}

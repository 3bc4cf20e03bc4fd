package token

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/attendance-client/internal/errors"
	"github.com/jrsteele09/attendance-client/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Claims are the parts of an access token the client reads. The signature is
// not checked here; see Verifier.
type Claims struct {
	TokenType string         // "access" for SimpleJWT access tokens
	UserID    string         // user_id claim, stringified
	Username  string         // username claim when the backend adds it
	Role      users.RoleType // role claim when the backend adds it
	JTI       string         // Unique token ID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// DecodeClaims parses raw without verifying it. Tokens without an exp claim
// and refresh tokens are rejected.
func DecodeClaims(raw string) (*Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, apperrors.ErrInvalidToken
	}

	unverified, _, err := jwtlib.NewParser().ParseUnverified(raw, jwtlib.MapClaims{})
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "[token DecodeClaims] %v", err)
	}
	mc, ok := unverified.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, fmt.Errorf("[token DecodeClaims] error extracting claims: %w", apperrors.ErrInvalidToken)
	}

	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("[token DecodeClaims] missing exp claim: %w", apperrors.ErrInvalidToken)
	}

	c := &Claims{ExpiresAt: exp.Time}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	c.TokenType, _ = mc["token_type"].(string)
	if c.TokenType != "" && c.TokenType != "access" {
		return nil, fmt.Errorf("[token DecodeClaims] token_type %q is not an access token: %w", c.TokenType, apperrors.ErrInvalidToken)
	}
	c.JTI, _ = mc["jti"].(string)
	c.Username, _ = mc["username"].(string)
	c.UserID = stringClaim(mc["user_id"])
	if c.UserID == "" {
		c.UserID, _ = mc.GetSubject()
	}
	if roleClaim, _ := mc["role"].(string); roleClaim != "" {
		if role, err := users.ParseRole(roleClaim); err == nil {
			c.Role = role
		}
	}
	return c, nil
}

// Expired reports whether the token's expiry is not in the future, allowing
// for skew.
func (c *Claims) Expired(skew time.Duration) bool {
	return !NowTimeFunc().Add(-skew).Before(c.ExpiresAt)
}

// User builds the minimal profile the claims allow. It fails when the token
// carries no role, since no route can be authorised without one.
func (c *Claims) User() (*users.User, error) {
	if !c.Role.Valid() {
		return nil, fmt.Errorf("[token Claims.User] token has no role claim: %w", apperrors.ErrInvalidToken)
	}
	u := &users.User{Username: c.Username, Role: c.Role}
	if id, err := strconv.ParseInt(c.UserID, 10, 64); err == nil {
		u.ID = id
	}
	if u.Username == "" {
		u.Username = c.UserID
	}
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("[token Claims.User] %v: %w", err, apperrors.ErrInvalidToken)
	}
	return u, nil
}

func stringClaim(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

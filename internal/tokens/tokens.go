package tokens

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/usagi-project/usagi-api/internal/apperr"
)

// Type tags a token as either half of the access/refresh pair.
type Type string

const (
	TypeAccess  Type = "access_token"
	TypeRefresh Type = "refresh_token"
)

const (
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 100 * 24 * time.Hour
)

type Claims struct {
	TokenType Type `json:"type"`
	jwt.RegisteredClaims
}

// RevokedBy reports whether the token predates the account's revocation
// stamp. Strict less-than: a token issued in the same instant as the
// revocation stays valid.
func (c *Claims) RevokedBy(revokedAt *time.Time) bool {
	if revokedAt == nil || c.IssuedAt == nil {
		return false
	}
	return c.IssuedAt.Time.Before(*revokedAt)
}

// Codec signs and parses the self-contained bearer tokens. It holds no
// state beyond the startup configuration and never touches storage.
type Codec struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func NewCodec(secret []byte, accessTTL, refreshTTL time.Duration) *Codec {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &Codec{Secret: secret, AccessTTL: accessTTL, RefreshTTL: refreshTTL}
}

func (c *Codec) lifetime(typ Type, override ...time.Duration) time.Duration {
	if len(override) > 0 && override[0] > 0 {
		return override[0]
	}
	if typ == TypeRefresh {
		return c.RefreshTTL
	}
	return c.AccessTTL
}

// Issue signs an HS256 token for subject with iat=now and a type-specific
// expiry unless an explicit override lifetime is supplied.
func (c *Codec) Issue(subject string, typ Type, override ...time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.lifetime(typ, override...))),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.Secret)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "cannot sign token", err)
	}
	return signed, nil
}

// Parse verifies signature and expiry and decodes the payload. Any failure
// is an InvalidToken: the caller cannot distinguish forgery from expiry.
func (c *Codec) Parse(raw string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, apperr.New(apperr.KindInvalidToken, "unexpected signing method")
		}
		return c.Secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.Wrap(apperr.KindInvalidToken, "invalid auth token", err)
	}
	if claims.TokenType != TypeAccess && claims.TokenType != TypeRefresh {
		return nil, apperr.New(apperr.KindInvalidToken, "invalid auth token")
	}
	return &claims, nil
}

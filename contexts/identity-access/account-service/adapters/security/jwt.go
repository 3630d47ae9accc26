package security

import (
	"errors"
	"fmt"
	"time"

	"ballotbox/contexts/identity-access/account-service/domain/entities"
	domainerrors "ballotbox/contexts/identity-access/account-service/domain/errors"
	"ballotbox/contexts/identity-access/account-service/ports"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 24 * time.Hour

// Claims carries the subject's role so callers can render role-aware views
// without a lookup. The engine still re-checks the role on every write.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// JWTIssuer signs HS256 access tokens.
type JWTIssuer struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

func NewJWTIssuer(secret string, issuer string, ttl time.Duration) JWTIssuer {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return JWTIssuer{Secret: []byte(secret), Issuer: issuer, TTL: ttl}
}

func (i JWTIssuer) Issue(user entities.User, now time.Time) (string, time.Time, error) {
	if len(i.Secret) == 0 {
		return "", time.Time{}, errors.New("jwt secret is not configured")
	}
	ttl := i.TTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	expiresAt := now.UTC().Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserID,
			Issuer:    i.Issuer,
			IssuedAt:  jwt.NewNumericDate(now.UTC()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: string(user.Role),
	})
	signed, err := token.SignedString(i.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (i JWTIssuer) Verify(raw string, now time.Time) (ports.TokenClaims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.Secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }), jwt.WithExpirationRequired())
	if err != nil || !token.Valid || claims.Subject == "" {
		return ports.TokenClaims{}, domainerrors.ErrInvalidToken
	}
	out := ports.TokenClaims{
		UserID: claims.Subject,
		Role:   entities.Role(claims.Role),
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return out, nil
}

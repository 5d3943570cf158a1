package utils // package utils provides helper functions for token creation, hashing and formatting

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and verifying signed tokens
)

// DefaultAccessTTL is used when neither the caller nor the issuer supplies a
// positive lifetime.
const DefaultAccessTTL = 15 * time.Minute

// ErrInvalidCredentials is the only error Validate returns.  Bad signatures,
// malformed tokens and expired tokens are deliberately collapsed into it.
var ErrInvalidCredentials = errors.New("could not validate credentials")

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// TokenIssuer signs and verifies HS256 bearer tokens whose subject is the
// username.  It is stateless apart from the shared secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer builds an issuer.  A non-positive ttl falls back to
// DefaultAccessTTL.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultAccessTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for subject.  When ttl is not positive the issuer's
// configured lifetime is used.  The JWT carries sub, iat and exp.
func (i *TokenIssuer) Issue(subject string, ttl time.Duration) (AccessToken, error) {
	if ttl <= 0 {
		ttl = i.ttl
	}
	now := i.now().UTC()
	exp := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// Validate verifies the signature and expiry of raw and returns its subject.
// jwt/v5 checks the HMAC before the registered claims, so an expired token
// costs the same work as a forged one.
func (i *TokenIssuer) Validate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidCredentials
	}
	var claims jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidCredentials
		}
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !tok.Valid || claims.Subject == "" {
		return "", ErrInvalidCredentials
	}
	return claims.Subject, nil
}

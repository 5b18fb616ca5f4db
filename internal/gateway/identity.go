package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cheildo/game-of-three/internal/protocol"
)

const identityIssuer = "game-of-three"

var ErrInvalidIdentityToken = errors.New("invalid identity token")

// IdentityIssuer hands out participant identities and keeps them sticky
// across reconnects with a signed cookie. An issuer without a secret still
// assigns identities but never sets or trusts a cookie.
type IdentityIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIdentityIssuer(secret string, ttl time.Duration) *IdentityIssuer {
	return &IdentityIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// NewIdentity returns a fresh opaque identity.
func (i *IdentityIssuer) NewIdentity() string {
	return uuid.NewString()
}

// Resolve returns the identity carried by the request cookie, if it is valid.
func (i *IdentityIssuer) Resolve(r *http.Request) (string, bool) {
	if len(i.secret) == 0 {
		return "", false
	}
	cookie, err := r.Cookie(protocol.HeaderSocketUserName)
	if err != nil {
		return "", false
	}
	identity, err := i.parse(cookie.Value)
	if err != nil {
		return "", false
	}
	return identity, true
}

// Cookie builds the signed cookie for identity. It returns nil when no
// secret is configured.
func (i *IdentityIssuer) Cookie(identity string) (*http.Cookie, error) {
	if len(i.secret) == 0 {
		return nil, nil
	}

	now := i.now()
	claims := jwt.RegisteredClaims{
		Issuer:    identityIssuer,
		Subject:   identity,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("could not sign identity token: %w", err)
	}

	return &http.Cookie{
		Name:     protocol.HeaderSocketUserName,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(i.ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

func (i *IdentityIssuer) parse(value string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(value, claims,
		func(token *jwt.Token) (interface{}, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(identityIssuer),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidIdentityToken, err)
	}
	if claims.Subject == "" {
		return "", ErrInvalidIdentityToken
	}
	return claims.Subject, nil
}

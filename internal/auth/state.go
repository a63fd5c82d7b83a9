package auth

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const StateTTL = 10 * time.Minute

var ErrInvalidState = errors.New("invalid oauth state")

// StateSigner issues the CSRF state of an OAuth handshake. The state is a
// short-lived JWT bound to one provider and echoed back by the provider
// on callback, where it must match the copy kept in the browser cookie.
type StateSigner struct {
	secret []byte
	now    func() time.Time
}

func NewStateSigner(secret string) (*StateSigner, error) {
	if secret == "" {
		return nil, errors.New("no session secret provided")
	}

	return &StateSigner{secret: []byte(secret), now: time.Now}, nil
}

func (s *StateSigner) New(provider string) (string, error) {
	nonce, err := gonanoid.New()
	if err != nil {
		return "", err
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        nonce,
		Subject:   provider,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(StateTTL)),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks the state returned by the provider against the cookie
// copy and the provider that started the handshake
func (s *StateSigner) Verify(state, cookie, provider string) error {
	if state == "" || subtle.ConstantTimeCompare([]byte(state), []byte(cookie)) != 1 {
		return ErrInvalidState
	}

	var claims jwt.RegisteredClaims

	_, err := jwt.ParseWithClaims(state, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || claims.Subject != provider {
		return ErrInvalidState
	}

	return nil
}

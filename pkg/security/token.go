package security

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissingToken = errors.New("access token required")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims carried by every bearer token
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 bearer tokens
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("no token secret provided")
	}

	if ttl <= 0 {
		return nil, errors.New("token ttl must be bigger than 0")
	}

	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Issue returns a signed token for userID along with its claims
func (t *TokenIssuer) Issue(userID string) (string, *Claims, error) {
	if userID == "" {
		return "", nil, errors.New("no user ID provided")
	}

	now := t.now().Truncate(time.Second)
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", nil, err
	}

	return signed, claims, nil
}

// Verify parses and validates a token. Expired tokens fail with
// ErrTokenExpired, anything else that is wrong with ErrInvalidToken.
func (t *TokenIssuer) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	var claims Claims

	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}

		return nil, ErrInvalidToken
	}

	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissingToken
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}

	return token, nil
}

// SessionDigest is the value stored for a token's ID in user_sessions
func SessionDigest(tokenID string) string {
	sum := sha256.Sum256([]byte(tokenID))
	return hex.EncodeToString(sum[:])
}

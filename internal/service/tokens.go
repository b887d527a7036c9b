package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/dom/studyhub/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token revoked")
)

type TokenKind int

const (
	AccessToken TokenKind = iota
	RefreshToken
)

func (k TokenKind) String() string {
	if k == RefreshToken {
		return "refresh"
	}
	return "access"
}

// Claims is the payload shared by access and refresh tokens.
type Claims struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() domain.Identity {
	return domain.Identity{UserID: c.UserID, Username: c.Username}
}

// IssuedToken is a signed token along with the claims it carries.
type IssuedToken struct {
	Value     string
	ID        string
	ExpiresAt time.Time
	TTL       time.Duration
}

// TokenManager signs and verifies HS256 tokens. Each kind has its own secret,
// so a refresh token never verifies as an access token and vice versa.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// WithClock returns a copy of the manager that reads time from now.
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
	cp := *m
	cp.now = now
	return &cp
}

func (m *TokenManager) TTL(kind TokenKind) time.Duration {
	if kind == RefreshToken {
		return m.refreshTTL
	}
	return m.accessTTL
}

func (m *TokenManager) secret(kind TokenKind) []byte {
	if kind == RefreshToken {
		return m.refreshSecret
	}
	return m.accessSecret
}

func (m *TokenManager) Issue(kind TokenKind, identity domain.Identity) (*IssuedToken, error) {
	now := m.now()
	ttl := m.TTL(kind)
	claims := Claims{
		UserID:   identity.UserID,
		Username: identity.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret(kind))
	if err != nil {
		return nil, fmt.Errorf("sign %s token: %w", kind, err)
	}

	return &IssuedToken{
		Value:     signed,
		ID:        claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
		TTL:       ttl,
	}, nil
}

// Parse verifies signature and expiry. A token is expired from its exp instant onward.
func (m *TokenManager) Parse(kind TokenKind, tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.secret(kind), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

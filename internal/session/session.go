// Package session turns bearer tokens into owner identities. An
// authenticated request is served by the remote store of its owner; a
// request without a token is a guest.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "anjo"

var (
	ErrMissingToken = errors.New("session: authorization header is required")
	ErrInvalidToken = errors.New("session: invalid or expired token")
	ErrDisabled     = errors.New("session: sessions are not configured")
)

// Claims represents the claims in the JWT.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller.
type Identity struct {
	Owner string
	Name  string
}

// Manager issues and verifies HS256 tokens.
type Manager struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewManager returns nil when secret is empty; a nil Manager treats every
// request as a guest.
func NewManager(secret string, ttl time.Duration) *Manager {
	if secret == "" {
		return nil
	}
	return &Manager{key: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Issue signs a token for owner.
func (m *Manager) Issue(owner, name string) (string, error) {
	if m == nil {
		return "", ErrDisabled
	}
	if strings.TrimSpace(owner) == "" {
		return "", fmt.Errorf("session: owner is required")
	}
	now := m.now()
	claims := &Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   owner,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.key)
}

// Parse validates a token and returns its identity.
func (m *Manager) Parse(token string) (Identity, error) {
	if m == nil {
		return Identity{}, ErrDisabled
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.key, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{Owner: claims.Subject, Name: claims.Name}, nil
}

// FromRequest resolves the identity of r. ok is false for guests, that
// is requests without an Authorization header or a server without
// sessions. A malformed or expired token is an error, not a guest.
func (m *Manager) FromRequest(r *http.Request) (id Identity, ok bool, err error) {
	header := r.Header.Get("Authorization")
	if header == "" || m == nil {
		return Identity{}, false, nil
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return Identity{}, false, ErrInvalidToken
	}
	id, err = m.Parse(parts[1])
	if err != nil {
		return Identity{}, false, err
	}
	return id, true, nil
}

type ctxKey struct{}

// NewContext returns a context carrying id.
func NewContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored in ctx, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

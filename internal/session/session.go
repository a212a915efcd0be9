package session

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Ahmad-Bilal009/SiteNative-Task/internal/domain"
)

// ErrUnauthenticated is returned for missing, malformed, badly signed,
// or expired tokens.
var ErrUnauthenticated = errors.New("authentication required")

// DefaultTTL is the token lifetime used when none is configured.
const DefaultTTL = 24 * time.Hour

type claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Manager issues and verifies signed identity tokens. Verification is
// stateless: nothing is persisted server-side and there is no
// revocation list.
type Manager struct {
	Secret string
	TTL    time.Duration
	Now    func() time.Time
}

func (m Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m Manager) ttl() time.Duration {
	if m.TTL > 0 {
		return m.TTL
	}
	return DefaultTTL
}

// Issue returns a signed token embedding the user id, role, and expiry.
func (m Manager) Issue(userID string, role domain.Role) (string, error) {
	if strings.TrimSpace(m.Secret) == "" {
		return "", errors.New("token secret not configured")
	}
	now := m.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl())),
		},
		Role: string(role),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(m.Secret))
}

// Resolve maps a token back to the actor it was issued for.
func (m Manager) Resolve(token string) (domain.Actor, error) {
	if strings.TrimSpace(m.Secret) == "" {
		return domain.Actor{}, errors.New("token secret not configured")
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	c := &claims{}
	parsed, err := parser.ParseWithClaims(token, c, func(t *jwt.Token) (any, error) {
		return []byte(m.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return domain.Actor{}, ErrUnauthenticated
	}
	if c.Subject == "" {
		return domain.Actor{}, ErrUnauthenticated
	}
	role, err := domain.ParseRole(c.Role)
	if err != nil {
		return domain.Actor{}, ErrUnauthenticated
	}
	return domain.Actor{ID: c.Subject, Role: role}, nil
}

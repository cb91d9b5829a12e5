// Package token issues and verifies signed session tokens and derives
// password-reset tokens.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// ResetTokenTTL is how long a password-reset token stays redeemable
const ResetTokenTTL = 10 * time.Minute

// Claims is the verified content of a session token
type Claims struct {
	UserID   string
	IssuedAt time.Time
}

// Config holds signing settings
type Config struct {
	Secret   string
	TokenTTL time.Duration
	Issuer   string
}

// Service signs and verifies session tokens. The now func is injectable for
// tests and defaults to time.Now.
type Service struct {
	config *Config
	now    func() time.Time
}

// NewService creates a token service
func NewService(cfg *Config) *Service {
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 90 * 24 * time.Hour
	}
	return &Service{config: cfg, now: time.Now}
}

// WithClock overrides the clock, for tests
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// TTL returns the configured token lifetime
func (s *Service) TTL() time.Duration {
	return s.config.TokenTTL
}

// Issue produces a signed token binding the user id and the issue time
func (s *Service) Issue(userID string) (string, error) {
	now := s.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"iss": s.config.Issuer,
		"iat": now.Unix(),
		"exp": now.Add(s.config.TokenTTL).Unix(),
	})
	signed, err := tok.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the claims. Malformed or
// badly signed tokens fail with ErrTokenInvalid, stale ones with
// ErrTokenExpired; neither ever passes silently.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	tok, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tok.Valid {
		return nil, ErrTokenInvalid
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, ErrTokenInvalid
	}
	iat, ok := claims["iat"].(float64)
	if !ok {
		return nil, ErrTokenInvalid
	}

	return &Claims{
		UserID:   sub,
		IssuedAt: time.Unix(int64(iat), 0),
	}, nil
}

// NewResetToken generates a high-entropy reset token. The raw value goes to
// the user out-of-band; only the hash is ever stored.
func NewResetToken() (raw, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	raw = hex.EncodeToString(buf)
	return raw, HashForLookup(raw), nil
}

// HashForLookup is the deterministic one-way hash used to match a presented
// reset token against the stored one.
func HashForLookup(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

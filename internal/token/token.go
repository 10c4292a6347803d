// Package token issues and decodes the signed, time-bounded bearer tokens
// that identify a caller. Nothing outside this package builds or interprets
// token strings.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/ItemKeeper/internal/clock"
	"github.com/atinyakov/ItemKeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the lifetime used when none is configured.
const DefaultTTL = 30 * time.Minute

// Type is the token type discriminator returned to clients.
const Type = "bearer"

// Claims are the decoded fields of a token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Service signs tokens with a process-wide HMAC secret. It keeps no state
// besides its configuration and is safe for concurrent use.
type Service struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

// NewService returns a Service signing with secret. A non-positive ttl falls
// back to DefaultTTL; a nil clock falls back to clock.Real.
func NewService(secret []byte, ttl time.Duration, clk clock.Clock) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clk == nil {
		clk = clock.Real()
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &Service{secret: key, ttl: ttl, clock: clk}
}

// TTL returns the default token lifetime.
func (s *Service) TTL() time.Duration { return s.ttl }

// Issue signs a token for subject with the default lifetime.
func (s *Service) Issue(subject string) (string, Claims, error) {
	return s.IssueWithTTL(subject, s.ttl)
}

// IssueWithTTL signs a token for subject expiring ttl after issuance.
func (s *Service) IssueWithTTL(subject string, ttl time.Duration) (string, Claims, error) {
	if subject == "" {
		return "", Claims{}, errors.New("issue token: empty subject")
	}
	now := s.clock.Now().Truncate(time.Second)
	claims := Claims{Subject: subject, IssuedAt: now, ExpiresAt: now.Add(ttl)}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
	})
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Decode verifies the signature and expiry of raw. A token whose structure,
// algorithm or signature is wrong yields common.ErrMalformedToken; a genuine
// token at or past its expiry yields common.ErrExpiredToken.
func (s *Service) Decode(raw string) (Claims, error) {
	rc := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, rc, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, common.ErrExpiredToken
		}
		return Claims{}, fmt.Errorf("%w: %v", common.ErrMalformedToken, err)
	}
	if rc.Subject == "" {
		return Claims{}, fmt.Errorf("%w: no subject", common.ErrMalformedToken)
	}

	claims := Claims{Subject: rc.Subject, ExpiresAt: rc.ExpiresAt.Time.UTC()}
	if rc.IssuedAt != nil {
		claims.IssuedAt = rc.IssuedAt.Time.UTC()
	}
	return claims, nil
}

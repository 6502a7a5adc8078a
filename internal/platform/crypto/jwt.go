package crypto

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "bookcatalog"

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

type Claims struct {
	Type  TokenType `json:"typ"`
	Roles []string  `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 tokens. Validity is computed from the
// token alone; nothing is stored.
type Tokens struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

type Option func(*Tokens)

// WithClock replaces time.Now for issuance and validation.
func WithClock(now func() time.Time) Option {
	return func(t *Tokens) { t.now = now }
}

func NewTokens(secret string, accessTTL, refreshTTL time.Duration, opts ...Option) *Tokens {
	t := &Tokens{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tokens) AccessTTL() time.Duration { return t.accessTTL }

func (t *Tokens) IssueAccessToken(subject string, roles []string) (string, error) {
	return t.issue(subject, AccessToken, roles, t.accessTTL)
}

func (t *Tokens) IssueRefreshToken(subject string) (string, error) {
	return t.issue(subject, RefreshToken, nil, t.refreshTTL)
}

func (t *Tokens) issue(subject string, typ TokenType, roles []string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is empty")
	}
	now := t.now()
	c := Claims{
		Type:  typ,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

// Validate checks signature, expiry, issuer, subject and token type.
func (t *Tokens) Validate(tokenStr, expectedSubject string, typ TokenType) error {
	if expectedSubject == "" {
		return fmt.Errorf("%w: empty expected subject", ErrInvalidToken)
	}
	claims, err := t.parse(tokenStr,
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuer),
		jwt.WithSubject(expectedSubject),
	)
	if err != nil {
		return err
	}
	if claims.Type != typ {
		return fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, typ, claims.Type)
	}
	return nil
}

// ExtractSubject verifies the signature but ignores time-based claims, so an
// expired token still yields its subject.
func (t *Tokens) ExtractSubject(tokenStr string) (string, error) {
	claims, err := t.parse(tokenStr, jwt.WithoutClaimsValidation())
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

func (t *Tokens) parse(tokenStr string, opts ...jwt.ParserOption) (*Claims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	tok, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

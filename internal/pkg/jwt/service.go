// Package jwt issues and verifies the HS256 access/refresh token pairs used by
// the API and the websocket endpoint.
package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"skillmatch/internal/config"
)

// Kind separates access from refresh tokens. Each kind is signed with its
// own secret.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

const issuer = "skillmatch"

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

type Claims struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username,omitempty"`
	Kind     Kind      `json:"kind"`

	jwtlib.RegisteredClaims
}

type Pair struct {
	Access    string
	Refresh   string
	ExpiresIn time.Duration
}

type Service interface {
	IssuePair(userID uuid.UUID, username string) (Pair, error)
	Verify(token string, want Kind) (Claims, error)
}

type HMACService struct {
	secrets map[Kind][]byte
	ttl     map[Kind]time.Duration
	now     func() time.Time
}

func NewHMACService(cfg config.JWTConfig) *HMACService {
	return &HMACService{
		secrets: map[Kind][]byte{
			KindAccess:  []byte(cfg.AccessSecret),
			KindRefresh: []byte(cfg.RefreshSecret),
		},
		ttl: map[Kind]time.Duration{
			KindAccess:  cfg.AccessExpiresIn,
			KindRefresh: cfg.RefreshExpiresIn,
		},
		now: time.Now,
	}
}

// AccessExpiresIn is reported to clients next to the access token.
func (s *HMACService) AccessExpiresIn() time.Duration {
	return s.ttl[KindAccess]
}

func (s *HMACService) IssuePair(userID uuid.UUID, username string) (Pair, error) {
	access, err := s.issue(KindAccess, userID, username)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := s.issue(KindRefresh, userID, "")
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh, ExpiresIn: s.ttl[KindAccess]}, nil
}

// Verify checks signature, issuer and expiry against the secret of want, and
// rejects a token of the other kind.
func (s *HMACService) Verify(token string, want Kind) (Claims, error) {
	secret, ok := s.secrets[want]
	if !ok || len(secret) == 0 {
		return Claims{}, ErrTokenInvalid
	}

	p := jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(issuer),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(s.now),
	)

	var c Claims
	tok, err := p.ParseWithClaims(token, &c, func(*jwtlib.Token) (any, error) {
		return secret, nil
	})
	switch {
	case errors.Is(err, jwtlib.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil, tok == nil, !tok.Valid:
		return Claims{}, ErrTokenInvalid
	}

	if c.Kind != want || c.UserID == uuid.Nil {
		return Claims{}, ErrTokenInvalid
	}
	return c, nil
}

func (s *HMACService) issue(kind Kind, userID uuid.UUID, username string) (string, error) {
	secret, ttl := s.secrets[kind], s.ttl[kind]
	if len(secret) == 0 || ttl <= 0 {
		return "", ErrTokenInvalid
	}

	now := s.now().UTC()
	c := Claims{
		UserID:   userID,
		Username: username,
		Kind:     kind,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   userID.String(),
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, c).SignedString(secret)
}

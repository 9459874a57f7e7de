package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillmatch/internal/config"
)

func newTestService() *HMACService {
	return NewHMACService(config.JWTConfig{
		AccessSecret:     "access-secret",
		RefreshSecret:    "refresh-secret",
		AccessExpiresIn:  15 * time.Minute,
		RefreshExpiresIn: time.Hour,
	})
}

func TestIssuePair_RoundTrip(t *testing.T) {
	s := newTestService()
	id := uuid.New()

	p, err := s.IssuePair(id, "jdoe")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, p.ExpiresIn)

	c, err := s.Verify(p.Access, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, id, c.UserID)
	assert.Equal(t, "jdoe", c.Username)
	assert.Equal(t, KindAccess, c.Kind)
	assert.Equal(t, issuer, c.Issuer)
	assert.NotEmpty(t, c.ID)

	c, err = s.Verify(p.Refresh, KindRefresh)
	require.NoError(t, err)
	assert.Equal(t, id.String(), c.Subject)
	assert.Empty(t, c.Username)
}

func TestVerify_WrongKind(t *testing.T) {
	s := newTestService()
	p, err := s.IssuePair(uuid.New(), "jdoe")
	require.NoError(t, err)

	_, err = s.Verify(p.Refresh, KindAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = s.Verify(p.Access, KindRefresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = s.Verify(p.Access, Kind("admin"))
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_Expired(t *testing.T) {
	s := newTestService()
	s.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	p, err := s.IssuePair(uuid.New(), "")
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.Verify(p.Access, KindAccess)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerify_Invalid(t *testing.T) {
	s := newTestService()

	_, err := s.Verify("not.a.token", KindAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	other := NewHMACService(config.JWTConfig{
		AccessSecret: "x", RefreshSecret: "y",
		AccessExpiresIn: time.Minute, RefreshExpiresIn: time.Minute,
	})
	p, err := other.IssuePair(uuid.New(), "")
	require.NoError(t, err)
	_, err = s.Verify(p.Access, KindAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	hs512 := jwtlib.NewWithClaims(jwtlib.SigningMethodHS512, Claims{
		UserID: uuid.New(),
		Kind:   KindAccess,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	raw, err := hs512.SignedString([]byte("access-secret"))
	require.NoError(t, err)
	_, err = s.Verify(raw, KindAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestIssuePair_MissingSecret(t *testing.T) {
	s := NewHMACService(config.JWTConfig{AccessExpiresIn: time.Minute})
	_, err := s.IssuePair(uuid.New(), "")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

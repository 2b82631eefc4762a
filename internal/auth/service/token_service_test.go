package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jacintalama/socsargen-system/internal/auth/domain"
	autherror "github.com/Jacintalama/socsargen-system/internal/errors"
)

func testAccount() *domain.Account {
	return &domain.Account{
		ID:    "user-123",
		Email: "patient@example.com",
		Role:  domain.RolePatient,
	}
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	ts := NewTokenService("test-secret", 15*time.Minute, 7*24*time.Hour)

	token, err := ts.IssueAccessToken(testAccount())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ts.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "patient@example.com", claims.Email)
	assert.Equal(t, "patient", claims.Role)

	expiry, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiry.Time, 5*time.Second)
}

func TestVerifyAccessTokenFailsClosed(t *testing.T) {
	ts := NewTokenService("test-secret", 15*time.Minute, 7*24*time.Hour)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenService("different-secret", 15*time.Minute, 7*24*time.Hour)
		token, err := other.IssueAccessToken(testAccount())
		require.NoError(t, err)

		_, err = ts.VerifyAccessToken(token)
		assert.ErrorIs(t, err, autherror.ErrInvalidAccessToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewTokenService("test-secret", -time.Minute, 7*24*time.Hour)
		token, err := expired.IssueAccessToken(testAccount())
		require.NoError(t, err)

		_, err = ts.VerifyAccessToken(token)
		assert.ErrorIs(t, err, autherror.ErrInvalidAccessToken)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ts.VerifyAccessToken("not.a.jwt")
		assert.ErrorIs(t, err, autherror.ErrInvalidAccessToken)
	})

	t.Run("alg none rejected", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"id": "user-123"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = ts.VerifyAccessToken(unsigned)
		assert.ErrorIs(t, err, autherror.ErrInvalidAccessToken)
	})
}

func TestIssueRefreshToken(t *testing.T) {
	ts := NewTokenService("test-secret", 15*time.Minute, 7*24*time.Hour)

	first, err := ts.IssueRefreshToken()
	require.NoError(t, err)

	// 64 random bytes, hex encoded.
	assert.Len(t, first.Secret, 128)
	assert.Len(t, first.LookupHash, 64)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), first.ExpiresAt, 5*time.Second)

	second, err := ts.IssueRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, first.Secret, second.Secret)
	assert.NotEqual(t, first.LookupHash, second.LookupHash)
}

func TestHashForLookup(t *testing.T) {
	ts := NewTokenService("test-secret", 15*time.Minute, 7*24*time.Hour)

	cred, err := ts.IssueRefreshToken()
	require.NoError(t, err)

	// The hash recomputed from the client-presented secret must match the
	// stored lookup hash exactly.
	assert.Equal(t, cred.LookupHash, ts.HashForLookup(cred.Secret))
	assert.NotEqual(t, cred.LookupHash, ts.HashForLookup(cred.Secret+"x"))
	assert.NotContains(t, cred.LookupHash, cred.Secret)
}

package password_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Jacintalama/socsargen-system/internal/auth/password"
)

// testParams keeps unit tests fast; production defaults are exercised in
// TestHashDefaultParams.
var testParams = password.Params{
	Memory:      8 * 1024,
	Time:        1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func TestHashVerifyRoundTrip(t *testing.T) {
	h := password.NewHasher(testParams)

	hash, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	v, err := h.Verify("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, v.Valid)
	assert.False(t, v.NeedsRehash)
}

func TestVerifyWrongPassword(t *testing.T) {
	h := password.NewHasher(testParams)

	hash, err := h.Hash("password-one")
	require.NoError(t, err)

	v, err := h.Verify("password-two", hash)
	require.NoError(t, err, "a wrong password is not an error")
	assert.False(t, v.Valid)
	assert.False(t, v.NeedsRehash)
}

func TestHashIsSalted(t *testing.T) {
	h := password.NewHasher(testParams)

	first, err := h.Hash("same-password")
	require.NoError(t, err)
	second, err := h.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifyLegacyBcrypt(t *testing.T) {
	h := password.NewHasher(testParams)

	legacy, err := bcrypt.GenerateFromPassword([]byte("patient-password"), bcrypt.MinCost)
	require.NoError(t, err)

	t.Run("correct password needs rehash", func(t *testing.T) {
		v, err := h.Verify("patient-password", string(legacy))
		require.NoError(t, err)
		assert.True(t, v.Valid)
		assert.True(t, v.NeedsRehash)
	})

	t.Run("wrong password", func(t *testing.T) {
		v, err := h.Verify("not-it", string(legacy))
		require.NoError(t, err)
		assert.False(t, v.Valid)
		assert.False(t, v.NeedsRehash)
	})

	t.Run("rehashed credential no longer needs rehash", func(t *testing.T) {
		upgraded, err := h.Hash("patient-password")
		require.NoError(t, err)

		v, err := h.Verify("patient-password", upgraded)
		require.NoError(t, err)
		assert.True(t, v.Valid)
		assert.False(t, v.NeedsRehash)
	})
}

func TestVerifyMalformedCredential(t *testing.T) {
	h := password.NewHasher(testParams)

	cases := []struct {
		name       string
		credential string
	}{
		{"empty", ""},
		{"unknown prefix", "plaintext-not-a-hash"},
		{"truncated argon2", "$argon2id$v=19$m=8192,t=1"},
		{"bad version", "$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA"},
		{"bad salt encoding", "$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaA"},
		{"missing cost parameter", "$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.Verify("anything", tc.credential)
			assert.ErrorIs(t, err, password.ErrMalformedCredential)
		})
	}
}

func TestDetect(t *testing.T) {
	assert.Equal(t, password.AlgorithmArgon2id, password.Detect("$argon2id$v=19$m=65536,t=3,p=4$x$y"))
	assert.Equal(t, password.AlgorithmBcrypt, password.Detect("$2a$10$abcdefghijklmnopqrstuv"))
	assert.Equal(t, password.AlgorithmBcrypt, password.Detect("$2b$12$abcdefghijklmnopqrstuv"))
	assert.Equal(t, password.AlgorithmUnknown, password.Detect("$argon2i$v=19$m=65536,t=3,p=4$x$y"))
	assert.Equal(t, password.AlgorithmUnknown, password.Detect("md5:abcdef"))
}

func TestHashDefaultParams(t *testing.T) {
	if testing.Short() {
		t.Skip("default params are memory-hard; skipping in short mode")
	}

	h := password.NewHasher(password.DefaultParams)

	hash, err := h.Hash("production-strength")
	require.NoError(t, err)
	assert.Contains(t, hash, "m=65536,t=3,p=4")

	v, err := h.Verify("production-strength", hash)
	require.NoError(t, err)
	assert.True(t, v.Valid)
}

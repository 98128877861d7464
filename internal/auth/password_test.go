package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasherRoundTrip(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	for _, password := range []string{"pw123", "correct horse battery staple", "ünïcødé-✓", strings.Repeat("x", MaxPasswordBytes)} {
		digest, err := hasher.Hash(password)
		require.NoError(t, err)
		assert.True(t, hasher.Verify(password, digest), "password %q should verify", password)
		assert.False(t, hasher.Verify(password+"!", digest))
	}
}

func TestPasswordHasherSaltsEveryHash(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	first, err := hasher.Hash("pw123")
	require.NoError(t, err)
	second, err := hasher.Hash("pw123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, hasher.Verify("pw123", first))
	assert.True(t, hasher.Verify("pw123", second))
}

func TestPasswordHasherRejectsOtherPasswords(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	digest, err := hasher.Hash("alpha")
	require.NoError(t, err)
	assert.False(t, hasher.Verify("beta", digest))
	assert.False(t, hasher.Verify("", digest))
}

func TestPasswordHasherMalformedDigest(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	for _, digest := range []string{"", "plaintext", "$2a$", "$9z$04$abcdefghijklmnopqrstuuABCDEFGHIJKLMNOPQRSTUVWXYZ01234", "$2a$99$abcdefghijklmnopqrstuuABCDEFGHIJKLMNOPQRSTUVWXYZ01234"} {
		assert.False(t, hasher.Verify("pw123", digest), "digest %q", digest)
	}
}

func TestPasswordHasherInputLimits(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	_, err := hasher.Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)

	_, err = hasher.Hash(strings.Repeat("x", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestPasswordHasherRejectsOverlongCandidates(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)
	base := strings.Repeat("k", MaxPasswordBytes)

	digest, err := hasher.Hash(base)
	require.NoError(t, err)

	assert.True(t, hasher.Verify(base, digest))
	assert.False(t, hasher.Verify(base+"-entirely-different-suffix", digest))
	assert.False(t, hasher.Verify(base+"k", digest))
}

func TestNewPasswordHasherClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(bcrypt.MaxCost+1).cost)
	assert.Equal(t, bcrypt.MinCost, NewPasswordHasher(bcrypt.MinCost).cost)
}

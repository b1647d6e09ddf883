package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_VerifyRoundTrip(t *testing.T) {
	t.Parallel()

	digest, err := HashPassword("secret1")
	require.NoError(t, err)
	require.NotEmpty(t, digest)
	assert.True(t, strings.HasPrefix(digest, "$2"))

	assert.True(t, CheckPassword(digest, "secret1"))
	assert.False(t, CheckPassword(digest, "secret2"))
}

func TestHashPassword_DigestsAreSalted(t *testing.T) {
	t.Parallel()

	a, err := HashPassword("secret1")
	require.NoError(t, err)
	b, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCheckPassword_MalformedDigestIsFalse(t *testing.T) {
	t.Parallel()

	assert.False(t, CheckPassword("", "secret1"))
	assert.False(t, CheckPassword("not-a-bcrypt-digest", "secret1"))
}

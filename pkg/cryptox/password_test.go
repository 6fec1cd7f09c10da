package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("hunter2hunter2")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))
	require.NotContains(t, hash, "hunter2")

	// Fresh salt per call.
	hash2, err := HashPassword("hunter2hunter2")
	require.NoError(t, err)
	require.NotEqual(t, hash, hash2)
}

func TestVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct-password")
	require.NoError(t, err)

	t.Run("matching password verifies", func(t *testing.T) {
		require.NoError(t, VerifyPassword("correct-password", hash))
	})

	t.Run("wrong password fails", func(t *testing.T) {
		require.Error(t, VerifyPassword("wrong-password", hash))
	})

	t.Run("malformed hashes fail closed", func(t *testing.T) {
		require.Error(t, VerifyPassword("anything", ""))
		require.Error(t, VerifyPassword("anything", "plaintext"))
		require.Error(t, VerifyPassword("anything", "$argon2id$v=19$m=65536,t=3,p=2$short"))
		require.Error(t, VerifyPassword("anything", "$bcrypt$whatever"))
	})
}

package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateInviteCode(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for range 100 {
		code, err := GenerateInviteCode()
		require.NoError(t, err)
		require.Len(t, code, 32)
		require.Regexp(t, "^[0-9a-f]{32}$", code)
		require.False(t, seen[code])
		seen[code] = true
	}
}

func TestGenerateSubmissionCode(t *testing.T) {
	t.Parallel()

	for range 100 {
		code, err := GenerateSubmissionCode(6)
		require.NoError(t, err)
		require.Len(t, code, 6)

		// Ambiguous glyphs (0, O, 1, I) are excluded from the alphabet.
		require.NotContains(t, code, "0")
		require.NotContains(t, code, "O")
		require.NotContains(t, code, "1")
		require.NotContains(t, code, "I")
	}
}

func TestFingerprintToken(t *testing.T) {
	t.Parallel()

	a := FingerprintToken("token-a")
	b := FingerprintToken("token-b")

	require.NotEqual(t, a, b)
	require.Equal(t, a, FingerprintToken("token-a"))
	require.False(t, strings.Contains(a, "token-a"))
}

package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Pepper in a throwaway location so tests never touch a real one.
	SetPepperPath(filepath.Join(os.TempDir(), "cryptox_test_pepper"))
	os.Exit(m.Run())
}

func TestHashVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	require.NoError(t, VerifyPassword("correct horse battery staple", hash))
	require.ErrorIs(t, VerifyPassword("wrong password", hash), ErrPasswordMismatch)
}

func TestHashPassword_UniqueSalt(t *testing.T) {
	a, err := HashPassword("same input")
	require.NoError(t, err)
	b, err := HashPassword("same input")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"not phc":       "plainhash",
		"wrong algo":    "$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"wrong version": "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"bad salt":      "$argon2id$v=19$m=19456,t=2,p=1$!!!$aGFzaA",
	}
	for name, hash := range cases {
		t.Run(name, func(t *testing.T) {
			require.Error(t, VerifyPassword("anything", hash))
		})
	}
}

func TestGenerateToken(t *testing.T) {
	tok, err := GenerateToken(RefreshTokenSize)
	require.NoError(t, err)
	require.Len(t, tok, 43) // 32 bytes base64url, no padding
	require.False(t, strings.ContainsAny(tok, "+/="))

	other, err := GenerateToken(RefreshTokenSize)
	require.NoError(t, err)
	require.NotEqual(t, tok, other)

	_, err = GenerateToken(0)
	require.Error(t, err)
}

func TestFingerprintToken(t *testing.T) {
	fp := FingerprintToken("some-token")
	require.Equal(t, fp, FingerprintToken("some-token"))
	require.NotEqual(t, fp, FingerprintToken("other-token"))
	require.Len(t, fp, 43)
}

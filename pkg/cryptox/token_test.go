package cryptox_test

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	re := regexp.MustCompile(`^[A-Z0-9]{6}$`)

	seen := make(map[string]struct{})
	for range 200 {
		code, err := cryptox.GenerateCode(cryptox.CodeAlphabet, 6)
		require.NoError(t, err)
		require.Regexp(t, re, code)
		seen[code] = struct{}{}
	}

	// 36^6 possibilities; 200 draws colliding heavily would mean a broken source.
	require.Greater(t, len(seen), 190)
}

func TestGenerateCodeInvalid(t *testing.T) {
	_, err := cryptox.GenerateCode(cryptox.CodeAlphabet, 0)
	require.Error(t, err)

	_, err = cryptox.GenerateCode("", 6)
	require.Error(t, err)
}

func TestFingerprintToken(t *testing.T) {
	a := cryptox.FingerprintToken("ABC123")
	require.Len(t, a, 43)
	require.Equal(t, a, cryptox.FingerprintToken("ABC123"))
	require.NotEqual(t, a, cryptox.FingerprintToken("ABC124"))
}

func TestLoadOrCreatePepper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pepper")

	first, err := cryptox.LoadOrCreatePepper(path)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := cryptox.LoadOrCreatePepper(path)
	require.NoError(t, err)
	require.Equal(t, first, second, "pepper must be stable across loads")

	_, err = cryptox.LoadOrCreatePepper("")
	require.Error(t, err)
}

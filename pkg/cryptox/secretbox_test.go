package cryptox_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestSecretBoxRoundTrip(t *testing.T) {
	box, err := cryptox.NewSecretBox([]byte("test-master-key-for-encryption-12345"))
	require.NoError(t, err)

	secret := []byte("JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP")

	sealed1, err := box.Seal(secret)
	require.NoError(t, err)
	sealed2, err := box.Seal(secret)
	require.NoError(t, err)
	require.NotEqual(t, sealed1, sealed2, "nonces must differ between seals")

	for _, sealed := range [][]byte{sealed1, sealed2} {
		opened, err := box.Open(sealed)
		require.NoError(t, err)
		require.Equal(t, secret, opened)
	}
}

func TestSecretBoxRejectsTampering(t *testing.T) {
	box, err := cryptox.NewSecretBox([]byte("key"))
	require.NoError(t, err)

	sealed, err := box.Seal([]byte("seed"))
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0xFF
	_, err = box.Open(sealed)
	require.Error(t, err)

	_, err = box.Open([]byte("short"))
	require.ErrorIs(t, err, cryptox.ErrCiphertextTooShort)
}

func TestSecretBoxWrongKey(t *testing.T) {
	a, err := cryptox.NewSecretBox([]byte("key-a"))
	require.NoError(t, err)
	b, err := cryptox.NewSecretBox([]byte("key-b"))
	require.NoError(t, err)

	sealed, err := a.Seal([]byte("seed"))
	require.NoError(t, err)

	_, err = b.Open(sealed)
	require.Error(t, err)
}

func TestLoadMasterKey(t *testing.T) {
	t.Run("literal wins", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "master.key")

		key, err := cryptox.LoadMasterKey(path, "from-env")
		require.NoError(t, err)
		require.Equal(t, []byte("from-env"), key)
		require.NoFileExists(t, path)
	})

	t.Run("existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "master.key")
		require.NoError(t, os.WriteFile(path, []byte("from-file\n"), 0o600))

		key, err := cryptox.LoadMasterKey(path, "")
		require.NoError(t, err)
		require.Equal(t, []byte("from-file"), key)
	})

	t.Run("created and reused", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "keys", "master.key")

		first, err := cryptox.LoadMasterKey(path, "")
		require.NoError(t, err)
		require.NotEmpty(t, first)
		require.FileExists(t, path)

		info, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		second, err := cryptox.LoadMasterKey(path, "")
		require.NoError(t, err)
		require.Equal(t, first, second)

		// A secret sealed before a restart opens after it.
		box, err := cryptox.NewSecretBox(first)
		require.NoError(t, err)
		sealed, err := box.Seal([]byte("seed"))
		require.NoError(t, err)

		reopened, err := cryptox.NewSecretBox(second)
		require.NoError(t, err)
		opened, err := reopened.Open(sealed)
		require.NoError(t, err)
		require.Equal(t, []byte("seed"), opened)
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := cryptox.LoadMasterKey("", "")
		require.Error(t, err)
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "master.key")
		require.NoError(t, os.WriteFile(path, nil, 0o600))

		_, err := cryptox.LoadMasterKey(path, "")
		require.Error(t, err)
	})
}

func TestNewSecretBoxEmptyKey(t *testing.T) {
	_, err := cryptox.NewSecretBox(nil)
	require.Error(t, err)
}

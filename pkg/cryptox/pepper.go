package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Argon2Params configures Argon2id hashing.
type Argon2Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	KeyLength   uint32
	SaltLength  uint32
}

// DefaultArgon2Params follows the OWASP minimum for Argon2id (19 MiB, t=2, p=1).
var DefaultArgon2Params = Argon2Params{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	KeyLength:   32,
	SaltLength:  16,
}

const keyFileLength = 32

// LoadOrCreatePepper loads the pepper stored at path, generating and
// persisting a new one when the file does not exist yet.
func LoadOrCreatePepper(path string) (string, error) {
	return loadOrCreateKeyFile(path, "pepper")
}

// loadOrCreateKeyFile reads the trimmed contents of path. A missing file is
// created with 32 random bytes, base64url encoded, readable by the owner only.
func loadOrCreateKeyFile(path, kind string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("cryptox: %s path is empty", kind)
	}
	path = filepath.Clean(path)

	data, err := os.ReadFile(path)
	if err == nil {
		value := strings.TrimSpace(string(data))
		if value == "" {
			return "", fmt.Errorf("cryptox: %s file %s is empty", kind, path)
		}
		return value, nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("cryptox: read %s: %w", kind, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("cryptox: create %s dir: %w", kind, err)
	}

	buf := make([]byte, keyFileLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: generate %s: %w", kind, err)
	}
	value := base64.RawURLEncoding.EncodeToString(buf)

	if err := os.WriteFile(path, []byte(value), 0o600); err != nil {
		return "", fmt.Errorf("cryptox: write %s: %w", kind, err)
	}
	return value, nil
}

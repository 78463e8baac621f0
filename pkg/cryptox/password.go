package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrEmptyPassword is returned when hashing an empty plaintext.
	ErrEmptyPassword = errors.New("cryptox: empty password")

	// ErrCorruptHash is returned when a stored hash cannot be parsed. It is
	// never folded into a plain mismatch.
	ErrCorruptHash = errors.New("cryptox: corrupt password hash")
)

// PasswordHasher hashes passwords as peppered Argon2id PHC strings and can
// verify legacy bcrypt hashes issued before the argon2 migration.
type PasswordHasher struct {
	Pepper string
	Params Argon2Params
}

// NewPasswordHasher returns a hasher using the default Argon2id parameters.
func NewPasswordHasher(pepper string) *PasswordHasher {
	return &PasswordHasher{Pepper: pepper, Params: DefaultArgon2Params}
}

// Hash generates a PHC-format Argon2id hash string including salt and
// parameters.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	p := h.params()
	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("cryptox: read salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password+h.Pepper), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory,
		p.Iterations,
		p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify compares a plaintext password against a stored hash. A mismatch is
// reported as (false, nil); an unparseable hash as ErrCorruptHash.
func (h *PasswordHasher) Verify(password, encoded string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return h.verifyArgon2(password, encoded)
	case isBcrypt(encoded):
		return verifyBcrypt(password, encoded)
	default:
		return false, ErrCorruptHash
	}
}

// NeedsRehash reports whether a stored hash was produced by a legacy scheme
// or with different parameters than the hasher's current ones.
func (h *PasswordHasher) NeedsRehash(encoded string) bool {
	if !strings.HasPrefix(encoded, "$argon2id$") {
		return true
	}
	parsed, err := parseArgon2(encoded)
	if err != nil {
		return true
	}
	p := h.params()
	return parsed.memory != p.Memory || parsed.iterations != p.Iterations || parsed.parallelism != p.Parallelism
}

func (h *PasswordHasher) params() Argon2Params {
	if h.Params == (Argon2Params{}) {
		return DefaultArgon2Params
	}
	return h.Params
}

func (h *PasswordHasher) verifyArgon2(password, encoded string) (bool, error) {
	parsed, err := parseArgon2(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(password+h.Pepper),
		parsed.salt,
		parsed.iterations,
		parsed.memory,
		parsed.parallelism,
		uint32(len(parsed.hash)), // #nosec G115 - bounded by the decoded hash
	)

	return subtle.ConstantTimeCompare(computed, parsed.hash) == 1, nil
}

type argon2Hash struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	hash        []byte
}

// parseArgon2 splits "$argon2id$v=19$m=X,t=Y,p=Z$salt$hash".
func parseArgon2(encoded string) (argon2Hash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return argon2Hash{}, fmt.Errorf("%w: expected 6 argon2id parts", ErrCorruptHash)
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return argon2Hash{}, fmt.Errorf("%w: unsupported version %q", ErrCorruptHash, parts[2])
	}

	var out argon2Hash
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &out.memory, &out.iterations, &out.parallelism); err != nil {
		return argon2Hash{}, fmt.Errorf("%w: parameters: %v", ErrCorruptHash, err)
	}
	if out.memory == 0 || out.iterations == 0 || out.parallelism == 0 {
		return argon2Hash{}, fmt.Errorf("%w: zero parameter", ErrCorruptHash)
	}

	var err error
	if out.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(out.salt) == 0 {
		return argon2Hash{}, fmt.Errorf("%w: salt", ErrCorruptHash)
	}
	if out.hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(out.hash) == 0 {
		return argon2Hash{}, fmt.Errorf("%w: digest", ErrCorruptHash)
	}

	return out, nil
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

// verifyBcrypt checks hashes carried over from the previous system. Those
// were never peppered.
func verifyBcrypt(password, encoded string) (bool, error) {
	if _, err := bcrypt.Cost([]byte(encoded)); err != nil {
		return false, fmt.Errorf("%w: %v", ErrCorruptHash, err)
	}

	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrCorruptHash, err)
	}
}

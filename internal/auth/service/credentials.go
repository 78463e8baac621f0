package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

// CredentialService owns password hashing and the login lockout counters.
type CredentialService struct {
	Store  store.Store
	Hasher *cryptox.PasswordHasher
	Policy domain.LockoutPolicy
	Now    func() time.Time
}

func (s *CredentialService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *CredentialService) policy() domain.LockoutPolicy {
	if s.Policy.MaxAttempts <= 0 || s.Policy.Duration <= 0 {
		return domain.DefaultLoginLockout
	}
	return s.Policy
}

// HashPassword hashes plaintext on the calling goroutine. Empty input fails
// with cryptox.ErrEmptyPassword.
func (s *CredentialService) HashPassword(plaintext string) (string, error) {
	return s.Hasher.Hash(plaintext)
}

// VerifyPassword reports whether plaintext matches hash. A mismatch is
// (false, nil); a malformed hash is cryptox.ErrCorruptHash.
func (s *CredentialService) VerifyPassword(plaintext, hash string) (bool, error) {
	return s.Hasher.Verify(plaintext, hash)
}

// IsLocked reports whether p is under a login lock now.
func (s *CredentialService) IsLocked(p domain.Principal) bool {
	return p.IsLocked(s.now())
}

// RecordFailedLogin counts one failed attempt in a single conditional
// write and returns the updated principal.
func (s *CredentialService) RecordFailedLogin(ctx context.Context, p domain.Principal) (domain.Principal, error) {
	now := s.now()
	updated, err := s.Store.Principals().RecordFailedLogin(ctx, p.ID, s.policy(), now)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("record failed login: %w", err)
	}

	if updated.IsLocked(now) && !p.IsLocked(now) {
		slogx.FromContext(ctx).Warn("account locked after failed logins",
			slog.String("principal_id", p.ID),
			slog.Int("attempts", updated.LoginAttempts),
			slog.Time("lock_until", *updated.LockUntil),
		)
	}
	return updated, nil
}

// RecordSuccessfulLogin clears the counters and stamps the login time.
func (s *CredentialService) RecordSuccessfulLogin(ctx context.Context, p domain.Principal) (domain.Principal, error) {
	updated, err := s.Store.Principals().RecordSuccessfulLogin(ctx, p.ID, s.now())
	if err != nil {
		return domain.Principal{}, fmt.Errorf("record successful login: %w", err)
	}
	return updated, nil
}

// checkPassword verifies plaintext against p for operations that require
// re-entering the password. Mismatches share the login counter, so a locked
// principal gets ErrAccountLocked here too. Mismatch is ErrInvalidCredential.
func (s *CredentialService) checkPassword(ctx context.Context, p domain.Principal, plaintext string) error {
	if s.IsLocked(p) {
		return ErrAccountLocked
	}

	ok, err := s.VerifyPassword(plaintext, p.PasswordHash)
	if err != nil {
		slogx.FromContext(ctx).Error("stored password hash is unusable",
			slog.String("principal_id", p.ID), slog.Any("error", err))
		return err
	}
	if !ok {
		if _, err := s.RecordFailedLogin(ctx, p); err != nil {
			return err
		}
		return ErrInvalidCredential
	}
	return nil
}

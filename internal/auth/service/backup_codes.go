package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
)

const (
	BackupCodeCount  = 10
	BackupCodeLength = 6
)

var backupCodePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// BackupCodeService generates and consumes single-use recovery codes.
type BackupCodeService struct {
	Store       store.Store
	Credentials *CredentialService
	Now         func() time.Time
}

func (s *BackupCodeService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// backupCodeHash scopes the fingerprint to its owner so equal codes held
// by different principals never share a stored value.
func backupCodeHash(principalID, code string) string {
	return cryptox.FingerprintToken(principalID + ":" + code)
}

// Generate returns BackupCodeCount distinct plaintext codes and their
// stored form for principalID.
func (s *BackupCodeService) Generate(principalID string) ([]string, []domain.BackupCode, error) {
	plain := make([]string, 0, BackupCodeCount)
	seen := make(map[string]struct{}, BackupCodeCount)

	for len(plain) < BackupCodeCount {
		code, err := cryptox.GenerateCode(cryptox.CodeAlphabet, BackupCodeLength)
		if err != nil {
			return nil, nil, fmt.Errorf("generate backup code: %w", err)
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		plain = append(plain, code)
	}

	stored := make([]domain.BackupCode, len(plain))
	for i, code := range plain {
		stored[i] = domain.BackupCode{CodeHash: backupCodeHash(principalID, code)}
	}
	return plain, stored, nil
}

// Regenerate replaces the whole code set of an enabled factor after the
// owner re-enters their password. Old unused codes stop working.
func (s *BackupCodeService) Regenerate(ctx context.Context, p domain.Principal, password string) ([]string, error) {
	if err := s.Credentials.checkPassword(ctx, p, password); err != nil {
		return nil, err
	}

	f, err := s.Store.SecondFactors().GetSecondFactor(ctx, p.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrFactorNotEnabled
		}
		return nil, fmt.Errorf("load second factor: %w", err)
	}
	if !f.IsEnabled {
		return nil, ErrFactorNotEnabled
	}

	plain, codes, err := s.Generate(p.ID)
	if err != nil {
		return nil, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.SecondFactors().ReplaceBackupCodes(ctx, p.ID, codes, s.now())
	})
	if err != nil {
		return nil, fmt.Errorf("replace backup codes: %w", err)
	}
	return plain, nil
}

// Consume spends one backup code of an enabled factor. It reports false
// for a wrong, malformed or already used code. Consumption is refused
// while the factor is locked but does not count toward the lock.
func (s *BackupCodeService) Consume(ctx context.Context, principalID, code string) (bool, error) {
	now := s.now()

	f, err := s.Store.SecondFactors().GetSecondFactor(ctx, principalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, ErrFactorNotEnabled
		}
		return false, fmt.Errorf("load second factor: %w", err)
	}
	if !f.IsEnabled {
		return false, ErrFactorNotEnabled
	}
	if f.IsLocked(now) {
		return false, ErrFactorLocked
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	if !backupCodePattern.MatchString(code) {
		return false, nil
	}

	ok, err := s.Store.SecondFactors().ConsumeBackupCode(ctx, principalID, backupCodeHash(principalID, code), now)
	if err != nil {
		return false, fmt.Errorf("consume backup code: %w", err)
	}
	return ok, nil
}

package service

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
	"github.com/pquerna/otp/totp"
)

const (
	totpPeriod     = 30 // seconds per time step
	totpSkew       = 2  // steps accepted either side of the current one
	totpSecretSize = 20
	totpQRSize     = 200
)

var totpCodePattern = regexp.MustCompile(`^[0-9]{6}$`)

// ReplayGuard remembers accepted time steps. Claim reports false when the
// step was already used by principalID.
type ReplayGuard interface {
	Claim(ctx context.Context, principalID string, step uint64) (bool, error)
}

// Enrollment is what a user needs to add the factor to an authenticator.
// It is only ever returned once.
type Enrollment struct {
	Secret      string
	URI         string
	QRCode      string // PNG data URL
	BackupCodes []string
}

// TOTPService provisions, confirms and verifies the TOTP second factor.
type TOTPService struct {
	Store       store.Store
	Box         *cryptox.SecretBox
	Credentials *CredentialService
	BackupCodes *BackupCodeService
	Issuer      string
	Policy      domain.LockoutPolicy

	// Replay, when set, rejects a second use of the same time step.
	Replay ReplayGuard

	Now func() time.Time
}

func (s *TOTPService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *TOTPService) policy() domain.LockoutPolicy {
	if s.Policy.MaxAttempts <= 0 || s.Policy.Duration <= 0 {
		return domain.DefaultFactorLockout
	}
	return s.Policy
}

// Provision generates a fresh secret and backup code set for p and stores
// them unconfirmed, replacing any earlier unconfirmed enrollment.
func (s *TOTPService) Provision(ctx context.Context, p domain.Principal) (Enrollment, error) {
	existing, err := s.Store.SecondFactors().GetSecondFactor(ctx, p.ID)
	switch {
	case err == nil && existing.IsEnabled:
		return Enrollment{}, ErrFactorAlreadyEnabled
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return Enrollment{}, fmt.Errorf("load second factor: %w", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: p.Username,
		Period:      totpPeriod,
		SecretSize:  totpSecretSize,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return Enrollment{}, fmt.Errorf("generate totp key: %w", err)
	}

	sealed, err := s.Box.Seal([]byte(key.Secret()))
	if err != nil {
		return Enrollment{}, fmt.Errorf("seal totp secret: %w", err)
	}

	qr, err := qrDataURL(key)
	if err != nil {
		return Enrollment{}, err
	}

	plain, codes, err := s.BackupCodes.Generate(p.ID)
	if err != nil {
		return Enrollment{}, err
	}

	now := s.now()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.SecondFactors().SaveProvisionedFactor(ctx, domain.SecondFactor{
			PrincipalID:  p.ID,
			SealedSecret: sealed,
			BackupCodes:  codes,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	})
	if err != nil {
		return Enrollment{}, fmt.Errorf("store second factor: %w", err)
	}

	slogx.FromContext(ctx).Info("second factor provisioned", slog.String("principal_id", p.ID))

	return Enrollment{
		Secret:      key.Secret(),
		URI:         key.URL(),
		QRCode:      qr,
		BackupCodes: plain,
	}, nil
}

func qrDataURL(key *otp.Key) (string, error) {
	img, err := key.Image(totpQRSize, totpQRSize)
	if err != nil {
		return "", fmt.Errorf("render qr code: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Confirm checks code against a provisioned factor and enables it on
// success. Surrounding whitespace is ignored. A wrong code is (false, nil)
// and counts toward the lock.
func (s *TOTPService) Confirm(ctx context.Context, principalID, code string) (bool, error) {
	return s.check(ctx, principalID, code, false)
}

// Verify checks code against an enabled factor, with the same lockout as
// Confirm.
func (s *TOTPService) Verify(ctx context.Context, principalID, code string) (bool, error) {
	return s.check(ctx, principalID, code, true)
}

func (s *TOTPService) check(ctx context.Context, principalID, code string, requireEnabled bool) (bool, error) {
	now := s.now()
	code = strings.TrimSpace(code)

	f, err := s.Store.SecondFactors().GetSecondFactor(ctx, principalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			if requireEnabled {
				return false, ErrFactorNotEnabled
			}
			return false, ErrFactorNotProvisioned
		}
		return false, fmt.Errorf("load second factor: %w", err)
	}
	if requireEnabled && !f.IsEnabled {
		return false, ErrFactorNotEnabled
	}

	// The lock is checked before anything is compared.
	if f.IsLocked(now) {
		return false, ErrFactorLocked
	}

	if !totpCodePattern.MatchString(code) {
		return false, s.recordFailure(ctx, principalID, now)
	}

	secret, err := s.Box.Open(f.SealedSecret)
	if err != nil {
		return false, fmt.Errorf("open totp secret: %w", err)
	}

	step, ok, err := matchStep(string(secret), code, now)
	if err != nil {
		return false, fmt.Errorf("compute totp code: %w", err)
	}

	if ok && s.Replay != nil {
		fresh, err := s.Replay.Claim(ctx, principalID, step)
		if err != nil {
			return false, err
		}
		if !fresh {
			slogx.FromContext(ctx).Warn("totp code replayed", slog.String("principal_id", principalID))
			ok = false
		}
	}

	if !ok {
		return false, s.recordFailure(ctx, principalID, now)
	}

	if f.IsEnabled {
		err = s.Store.SecondFactors().RecordFactorSuccess(ctx, principalID, now)
	} else {
		_, err = s.Store.SecondFactors().EnableSecondFactor(ctx, principalID, now)
		if err == nil {
			slogx.FromContext(ctx).Info("second factor enabled", slog.String("principal_id", principalID))
		}
	}
	if err != nil {
		return false, fmt.Errorf("record second factor success: %w", err)
	}
	return true, nil
}

func (s *TOTPService) recordFailure(ctx context.Context, principalID string, now time.Time) error {
	f, err := s.Store.SecondFactors().RecordFactorFailure(ctx, principalID, s.policy(), now)
	if err != nil {
		return fmt.Errorf("record second factor failure: %w", err)
	}
	if f.IsLocked(now) && f.FailedAttempts == s.policy().MaxAttempts {
		slogx.FromContext(ctx).Warn("second factor locked after failed attempts",
			slog.String("principal_id", principalID),
			slog.Time("locked_until", *f.LockedUntil),
		)
	}
	return nil
}

// matchStep compares code with every step in the window without stopping
// early and returns the matching step.
func matchStep(secret, code string, now time.Time) (uint64, bool, error) {
	current := now.Unix() / totpPeriod

	var (
		matched uint64
		found   bool
	)
	for delta := int64(-totpSkew); delta <= totpSkew; delta++ {
		step := uint64(current + delta)
		want, err := hotp.GenerateCodeCustom(secret, step, hotp.ValidateOpts{
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		})
		if err != nil {
			return 0, false, err
		}
		if subtle.ConstantTimeCompare([]byte(want), []byte(code)) == 1 && !found {
			matched, found = step, true
		}
	}
	return matched, found, nil
}

// Disable removes the factor and its backup codes after the owner
// re-enters their password.
func (s *TOTPService) Disable(ctx context.Context, p domain.Principal, password string) error {
	if err := s.Credentials.checkPassword(ctx, p, password); err != nil {
		return err
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.SecondFactors().DeleteSecondFactor(ctx, p.ID)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrFactorNotProvisioned
		}
		return fmt.Errorf("delete second factor: %w", err)
	}

	slogx.FromContext(ctx).Info("second factor disabled", slog.String("principal_id", p.ID))
	return nil
}

// Status summarises the principal's factor. No record is the zero status.
func (s *TOTPService) Status(ctx context.Context, principalID string) (domain.FactorStatus, error) {
	f, err := s.Store.SecondFactors().GetSecondFactor(ctx, principalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.FactorStatus{}, nil
		}
		return domain.FactorStatus{}, fmt.Errorf("load second factor: %w", err)
	}
	return domain.StatusOf(f), nil
}

// enabled reports whether principalID has an enabled factor.
func (s *TOTPService) enabled(ctx context.Context, principalID string) (bool, error) {
	st, err := s.Status(ctx, principalID)
	return st.IsEnabled, err
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/pkg/idx"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

// Session is an issued bearer token and the principal it names.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Lifetime  time.Duration
	Principal domain.Principal

	// Methods lists how the caller proved their identity (jwtx AMR values).
	Methods []string
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// LoginInput carries the credentials of one login attempt. Login is either
// a username or an email. At most one of TOTPCode and BackupCode is used,
// TOTPCode first.
type LoginInput struct {
	Login      string
	Password   string
	TOTPCode   string
	BackupCode string
}

// Profile is a principal together with the state of their second factor.
type Profile struct {
	Principal domain.Principal
	Factor    domain.FactorStatus
}

// AccountService implements registration, login and self-service account
// management on top of the credential, TOTP and backup code services.
type AccountService struct {
	Store       store.Store
	Credentials *CredentialService
	TOTP        *TOTPService
	BackupCodes *BackupCodeService
	Tokens      *jwtx.Codec
	Now         func() time.Time
}

func (s *AccountService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Register creates an active principal and signs them in. Username and
// email must not be held by another non-deleted principal.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	username := strings.TrimSpace(in.Username)
	email := domain.NormalizeEmail(in.Email)

	usernameTaken, emailTaken, err := s.Store.Principals().IdentityTaken(ctx, username, email, "")
	if err != nil {
		return Session{}, fmt.Errorf("check identity: %w", err)
	}
	if usernameTaken || emailTaken {
		return Session{}, &DuplicateError{Username: usernameTaken, Email: emailTaken}
	}

	hash, err := s.Credentials.HashPassword(in.Password)
	if err != nil {
		return Session{}, err
	}

	now := s.now()
	p := domain.Principal{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Principals().CreatePrincipal(ctx, p); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return Session{}, &DuplicateError{}
		}
		return Session{}, fmt.Errorf("create principal: %w", err)
	}

	slogx.FromContext(ctx).Info("principal registered", slog.String("principal_id", p.ID))

	return s.issue(p, jwtx.AMRPassword)
}

// Login authenticates by password and, when enabled, a second factor.
//
// The order of checks is fixed: unknown account, disabled, locked, then the
// password. The second factor is only asked for once the password matched.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (Session, error) {
	l := slogx.FromContext(ctx)

	p, err := s.Store.Principals().FindActivePrincipalByLogin(ctx, strings.TrimSpace(in.Login))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, ErrInvalidCredential
		}
		return Session{}, fmt.Errorf("find principal: %w", err)
	}

	if !p.CanAuthenticate() {
		return Session{}, ErrAccountDisabled
	}
	if s.Credentials.IsLocked(p) {
		return Session{}, ErrAccountLocked
	}

	ok, err := s.Credentials.VerifyPassword(in.Password, p.PasswordHash)
	if err != nil {
		l.Error("stored password hash is unusable", slog.String("principal_id", p.ID), slog.Any("error", err))
		return Session{}, err
	}
	if !ok {
		if _, err := s.Credentials.RecordFailedLogin(ctx, p); err != nil {
			return Session{}, err
		}
		return Session{}, ErrInvalidCredential
	}

	methods := []string{jwtx.AMRPassword}

	mfa, err := s.TOTP.enabled(ctx, p.ID)
	if err != nil {
		return Session{}, err
	}
	if mfa {
		method, err := s.secondFactor(ctx, p.ID, in)
		if err != nil {
			return Session{}, err
		}
		methods = append(methods, method, jwtx.AMRMFA)
	}

	p, err = s.Credentials.RecordSuccessfulLogin(ctx, p)
	if err != nil {
		return Session{}, err
	}

	if s.Credentials.Hasher.NeedsRehash(p.PasswordHash) {
		s.rehash(ctx, &p, in.Password)
	}

	l.Info("principal logged in", slog.String("principal_id", p.ID), slog.Any("amr", methods))

	return s.issue(p, methods...)
}

func (s *AccountService) secondFactor(ctx context.Context, principalID string, in LoginInput) (string, error) {
	var (
		ok     bool
		err    error
		method string
	)
	switch {
	case strings.TrimSpace(in.TOTPCode) != "":
		method = jwtx.AMROTP
		ok, err = s.TOTP.Verify(ctx, principalID, strings.TrimSpace(in.TOTPCode))
	case strings.TrimSpace(in.BackupCode) != "":
		method = jwtx.AMRBackup
		ok, err = s.BackupCodes.Consume(ctx, principalID, in.BackupCode)
	default:
		return "", ErrSecondFactorRequired
	}
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrInvalidCredential
	}
	return method, nil
}

// rehash upgrades a legacy or outdated hash after a successful login. A
// failure is logged and the login still succeeds.
func (s *AccountService) rehash(ctx context.Context, p *domain.Principal, password string) {
	hash, err := s.Credentials.HashPassword(password)
	if err == nil {
		err = s.Store.Principals().UpdatePasswordHash(ctx, p.ID, hash, s.now())
	}
	if err != nil {
		slogx.FromContext(ctx).Warn("failed to upgrade password hash",
			slog.String("principal_id", p.ID), slog.Any("error", err))
		return
	}
	p.PasswordHash = hash
}

func (s *AccountService) issue(p domain.Principal, methods ...string) (Session, error) {
	token, err := s.Tokens.Issue(p.ID, 0, methods...)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{
		Token:     token,
		ExpiresAt: s.now().Add(s.Tokens.TTL()),
		Lifetime:  s.Tokens.TTL(),
		Principal: p,
		Methods:   methods,
	}, nil
}

// Logout acknowledges the end of a session. Tokens are stateless and stay
// valid until they expire.
func (s *AccountService) Logout(ctx context.Context, p domain.Principal) {
	slogx.FromContext(ctx).Info("principal logged out", slog.String("principal_id", p.ID))
}

// Profile returns an active principal and their factor status.
func (s *AccountService) Profile(ctx context.Context, id string) (Profile, error) {
	p, err := s.active(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	st, err := s.TOTP.Status(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	return Profile{Principal: p, Factor: st}, nil
}

// UpdateProfile changes names and email. The new email must not be held by
// another active principal.
func (s *AccountService) UpdateProfile(ctx context.Context, id string, upd domain.ProfileUpdate) (domain.Principal, error) {
	if upd.IsEmpty() {
		return s.active(ctx, id)
	}

	if upd.Email != nil {
		email := domain.NormalizeEmail(*upd.Email)
		upd.Email = &email

		_, taken, err := s.Store.Principals().IdentityTaken(ctx, "", email, id)
		if err != nil {
			return domain.Principal{}, fmt.Errorf("check identity: %w", err)
		}
		if taken {
			return domain.Principal{}, &DuplicateError{Email: true}
		}
	}

	p, err := s.Store.Principals().UpdateProfile(ctx, id, upd, s.now())
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domain.Principal{}, ErrAccountDisabled
	case errors.Is(err, store.ErrAlreadyExists):
		return domain.Principal{}, &DuplicateError{Email: true}
	case err != nil:
		return domain.Principal{}, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *AccountService) ChangePassword(ctx context.Context, id, current, next string) error {
	p, err := s.active(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Credentials.checkPassword(ctx, p, current); err != nil {
		return err
	}

	hash, err := s.Credentials.HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.Store.Principals().UpdatePasswordHash(ctx, id, hash, s.now()); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	slogx.FromContext(ctx).Info("password changed", slog.String("principal_id", id))
	return nil
}

// Delete soft-deletes the principal after checking their password. The
// username and email become available to new registrations.
func (s *AccountService) Delete(ctx context.Context, id, password string) error {
	p, err := s.active(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Credentials.checkPassword(ctx, p, password); err != nil {
		return err
	}

	if err := s.Store.Principals().SoftDeletePrincipal(ctx, id, s.now()); err != nil {
		return fmt.Errorf("delete principal: %w", err)
	}

	slogx.FromContext(ctx).Info("principal deleted", slog.String("principal_id", id))
	return nil
}

// Restore reverses a soft delete. It fails with a DuplicateError when the
// identity was registered again in the meantime.
func (s *AccountService) Restore(ctx context.Context, id string) error {
	err := s.Store.Principals().RestorePrincipal(ctx, id, s.now())
	if errors.Is(err, store.ErrAlreadyExists) {
		return &DuplicateError{}
	}
	if err != nil {
		return fmt.Errorf("restore principal: %w", err)
	}
	return nil
}

func (s *AccountService) active(ctx context.Context, id string) (domain.Principal, error) {
	p, err := s.Store.Principals().FindActivePrincipalByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Principal{}, ErrAccountDisabled
		}
		return domain.Principal{}, fmt.Errorf("load principal: %w", err)
	}
	return p, nil
}

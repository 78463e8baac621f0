package sqlstore

import (
	"database/sql"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
)

// Timestamps are stored as unix milliseconds so sqlite and postgres compare
// them the same way.

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func timePtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromMillis(n.Int64)
	return &t
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

type rowScanner interface {
	Scan(dest ...any) error
}

const principalColumns = `id, username, email, password_hash, first_name, last_name,
	is_active, is_deleted, deleted_at, last_login_at, login_attempts, lock_until,
	created_at, updated_at`

func scanPrincipal(row rowScanner) (domain.Principal, error) {
	var (
		p                                 domain.Principal
		deletedAt, lastLoginAt, lockUntil sql.NullInt64
		createdAt, updatedAt              int64
	)
	err := row.Scan(
		&p.ID, &p.Username, &p.Email, &p.PasswordHash, &p.FirstName, &p.LastName,
		&p.IsActive, &p.IsDeleted, &deletedAt, &lastLoginAt, &p.LoginAttempts, &lockUntil,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return domain.Principal{}, err
	}

	p.DeletedAt = timePtr(deletedAt)
	p.LastLoginAt = timePtr(lastLoginAt)
	p.LockUntil = timePtr(lockUntil)
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	return p, nil
}

const secondFactorColumns = `principal_id, secret, is_enabled, is_verified, last_used_at,
	failed_attempts, locked_until, created_at, updated_at`

func scanSecondFactor(row rowScanner) (domain.SecondFactor, error) {
	var (
		f                       domain.SecondFactor
		lastUsedAt, lockedUntil sql.NullInt64
		createdAt, updatedAt    int64
	)
	err := row.Scan(
		&f.PrincipalID, &f.SealedSecret, &f.IsEnabled, &f.IsVerified, &lastUsedAt,
		&f.FailedAttempts, &lockedUntil, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.SecondFactor{}, err
	}

	f.LastUsedAt = timePtr(lastUsedAt)
	f.LockedUntil = timePtr(lockedUntil)
	f.CreatedAt = fromMillis(createdAt)
	f.UpdatedAt = fromMillis(updatedAt)
	return f, nil
}

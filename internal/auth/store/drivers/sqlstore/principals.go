package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
)

type principalsRepo struct {
	q DBTX
	d Dialect
}

const createPrincipal = `
INSERT INTO principals (
	id, username, email, password_hash, first_name, last_name,
	is_active, is_deleted, deleted_at, last_login_at, login_attempts, lock_until,
	created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, FALSE, NULL, NULL, 0, NULL, ?, ?)`

func (r *principalsRepo) CreatePrincipal(ctx context.Context, p domain.Principal) error {
	_, err := r.q.ExecContext(ctx, r.d.Rebind(createPrincipal),
		p.ID, p.Username, domain.NormalizeEmail(p.Email), p.PasswordHash, p.FirstName, p.LastName,
		p.IsActive, toMillis(p.CreatedAt), toMillis(p.UpdatedAt),
	)
	return r.d.mapWriteErr(err)
}

func (r *principalsRepo) GetPrincipalByID(ctx context.Context, id string) (domain.Principal, error) {
	row := r.q.QueryRowContext(ctx, r.d.Rebind(`SELECT `+principalColumns+` FROM principals WHERE id = ?`), id)
	p, err := scanPrincipal(row)
	return p, mapNotFound(err)
}

func (r *principalsRepo) FindActivePrincipalByID(ctx context.Context, id string) (domain.Principal, error) {
	row := r.q.QueryRowContext(ctx,
		r.d.Rebind(`SELECT `+principalColumns+` FROM principals WHERE id = ? AND is_deleted = FALSE`), id)
	p, err := scanPrincipal(row)
	return p, mapNotFound(err)
}

// Usernames win over emails if a login string somehow matches both.
const findActivePrincipalByLogin = `
SELECT ` + principalColumns + `
FROM principals
WHERE is_deleted = FALSE AND (username = ? OR email = ?)
ORDER BY CASE WHEN username = ? THEN 0 ELSE 1 END
LIMIT 1`

func (r *principalsRepo) FindActivePrincipalByLogin(ctx context.Context, login string) (domain.Principal, error) {
	row := r.q.QueryRowContext(ctx, r.d.Rebind(findActivePrincipalByLogin),
		login, domain.NormalizeEmail(login), login)
	p, err := scanPrincipal(row)
	return p, mapNotFound(err)
}

const identityTaken = `
SELECT
	COALESCE(MAX(CASE WHEN username = ? THEN 1 ELSE 0 END), 0),
	COALESCE(MAX(CASE WHEN email = ? THEN 1 ELSE 0 END), 0)
FROM principals
WHERE is_deleted = FALSE AND id <> ? AND (username = ? OR email = ?)`

func (r *principalsRepo) IdentityTaken(
	ctx context.Context,
	username, email, excludeID string,
) (bool, bool, error) {
	email = domain.NormalizeEmail(email)

	var u, e int64
	err := r.q.QueryRowContext(ctx, r.d.Rebind(identityTaken),
		username, email, excludeID, username, email,
	).Scan(&u, &e)
	if err != nil {
		return false, false, err
	}
	return username != "" && u == 1, email != "" && e == 1, nil
}

const updateProfile = `
UPDATE principals SET
	first_name = COALESCE(?, first_name),
	last_name = COALESCE(?, last_name),
	email = COALESCE(?, email),
	updated_at = ?
WHERE id = ? AND is_deleted = FALSE
RETURNING ` + principalColumns

func (r *principalsRepo) UpdateProfile(
	ctx context.Context,
	id string,
	upd domain.ProfileUpdate,
	now time.Time,
) (domain.Principal, error) {
	var email *string
	if upd.Email != nil {
		normalized := domain.NormalizeEmail(*upd.Email)
		email = &normalized
	}

	row := r.q.QueryRowContext(ctx, r.d.Rebind(updateProfile),
		nullString(upd.FirstName), nullString(upd.LastName), nullString(email), toMillis(now), id,
	)
	p, err := scanPrincipal(row)
	return p, r.d.mapWriteErr(err)
}

func (r *principalsRepo) UpdatePasswordHash(ctx context.Context, id, hash string, now time.Time) error {
	res, err := r.q.ExecContext(ctx,
		r.d.Rebind(`UPDATE principals SET password_hash = ?, updated_at = ? WHERE id = ? AND is_deleted = FALSE`),
		hash, toMillis(now), id,
	)
	return requireOneRow(res, err)
}

// recordFailedLogin mirrors domain.LockoutPolicy.FailureOutcome. Every
// right-hand side reads the pre-update row, so the whole transition is a
// single atomic write.
const recordFailedLogin = `
UPDATE principals SET
	login_attempts = CASE
		WHEN lock_until IS NOT NULL AND lock_until <= ? THEN 1
		ELSE login_attempts + 1
	END,
	lock_until = CASE
		WHEN lock_until IS NOT NULL AND lock_until <= ? THEN NULL
		WHEN lock_until IS NULL AND login_attempts + 1 >= ? THEN CAST(? AS BIGINT)
		ELSE lock_until
	END,
	updated_at = ?
WHERE id = ? AND is_deleted = FALSE
RETURNING ` + principalColumns

func (r *principalsRepo) RecordFailedLogin(
	ctx context.Context,
	id string,
	policy domain.LockoutPolicy,
	now time.Time,
) (domain.Principal, error) {
	nowMs := toMillis(now)
	row := r.q.QueryRowContext(ctx, r.d.Rebind(recordFailedLogin),
		nowMs, nowMs, policy.MaxAttempts, toMillis(now.Add(policy.Duration)), nowMs, id,
	)
	p, err := scanPrincipal(row)
	return p, mapNotFound(err)
}

const recordSuccessfulLogin = `
UPDATE principals SET
	login_attempts = 0,
	lock_until = NULL,
	last_login_at = ?,
	updated_at = ?
WHERE id = ? AND is_deleted = FALSE
RETURNING ` + principalColumns

func (r *principalsRepo) RecordSuccessfulLogin(ctx context.Context, id string, now time.Time) (domain.Principal, error) {
	nowMs := toMillis(now)
	row := r.q.QueryRowContext(ctx, r.d.Rebind(recordSuccessfulLogin), nowMs, nowMs, id)
	p, err := scanPrincipal(row)
	return p, mapNotFound(err)
}

func (r *principalsRepo) SoftDeletePrincipal(ctx context.Context, id string, now time.Time) error {
	nowMs := toMillis(now)
	res, err := r.q.ExecContext(ctx, r.d.Rebind(`
UPDATE principals SET is_deleted = TRUE, is_active = FALSE, deleted_at = ?, updated_at = ?
WHERE id = ? AND is_deleted = FALSE`), nowMs, nowMs, id)
	return requireOneRow(res, err)
}

func (r *principalsRepo) RestorePrincipal(ctx context.Context, id string, now time.Time) error {
	res, err := r.q.ExecContext(ctx, r.d.Rebind(`
UPDATE principals SET is_deleted = FALSE, is_active = TRUE, deleted_at = NULL, updated_at = ?
WHERE id = ? AND is_deleted = TRUE`), toMillis(now), id)
	if r.d.uniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return requireOneRow(res, err)
}

func (r *principalsRepo) ClearExpiredLocks(ctx context.Context, now time.Time) (int64, error) {
	nowMs := toMillis(now)
	res, err := r.q.ExecContext(ctx, r.d.Rebind(`
UPDATE principals SET login_attempts = 0, lock_until = NULL, updated_at = ?
WHERE lock_until IS NOT NULL AND lock_until <= ?`), nowMs, nowMs)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func requireOneRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

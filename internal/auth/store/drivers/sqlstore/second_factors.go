package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
)

type secondFactorsRepo struct {
	q DBTX
	d Dialect
}

func (r *secondFactorsRepo) GetSecondFactor(ctx context.Context, principalID string) (domain.SecondFactor, error) {
	row := r.q.QueryRowContext(ctx,
		r.d.Rebind(`SELECT `+secondFactorColumns+` FROM second_factors WHERE principal_id = ?`), principalID)
	f, err := scanSecondFactor(row)
	if err != nil {
		return domain.SecondFactor{}, mapNotFound(err)
	}
	return r.withCodes(ctx, f)
}

func (r *secondFactorsRepo) withCodes(ctx context.Context, f domain.SecondFactor) (domain.SecondFactor, error) {
	rows, err := r.q.QueryContext(ctx,
		r.d.Rebind(`SELECT code_hash, used, used_at FROM backup_codes WHERE principal_id = ? ORDER BY seq`),
		f.PrincipalID,
	)
	if err != nil {
		return domain.SecondFactor{}, err
	}
	defer rows.Close()

	f.BackupCodes = f.BackupCodes[:0]
	for rows.Next() {
		var (
			c      domain.BackupCode
			usedAt sql.NullInt64
		)
		if err := rows.Scan(&c.CodeHash, &c.Used, &usedAt); err != nil {
			return domain.SecondFactor{}, err
		}
		c.UsedAt = timePtr(usedAt)
		f.BackupCodes = append(f.BackupCodes, c)
	}
	return f, rows.Err()
}

// Re-provisioning keeps the failure counters so that a lock cannot be
// shed by requesting a new secret.
const upsertProvisionedFactor = `
INSERT INTO second_factors (
	principal_id, secret, is_enabled, is_verified, last_used_at,
	failed_attempts, locked_until, created_at, updated_at
) VALUES (?, ?, FALSE, FALSE, NULL, 0, NULL, ?, ?)
ON CONFLICT (principal_id) DO UPDATE SET
	secret = excluded.secret,
	is_enabled = FALSE,
	is_verified = FALSE,
	updated_at = excluded.updated_at`

func (r *secondFactorsRepo) SaveProvisionedFactor(ctx context.Context, f domain.SecondFactor) error {
	_, err := r.q.ExecContext(ctx, r.d.Rebind(upsertProvisionedFactor),
		f.PrincipalID, f.SealedSecret, toMillis(f.CreatedAt), toMillis(f.UpdatedAt),
	)
	if err != nil {
		return err
	}
	return r.insertCodes(ctx, f.PrincipalID, f.BackupCodes)
}

func (r *secondFactorsRepo) insertCodes(ctx context.Context, principalID string, codes []domain.BackupCode) error {
	if _, err := r.q.ExecContext(ctx,
		r.d.Rebind(`DELETE FROM backup_codes WHERE principal_id = ?`), principalID,
	); err != nil {
		return err
	}

	insert := r.d.Rebind(`
INSERT INTO backup_codes (principal_id, seq, code_hash, used, used_at)
VALUES (?, ?, ?, ?, ?)`)
	for i, c := range codes {
		if _, err := r.q.ExecContext(ctx, insert,
			principalID, i, c.CodeHash, c.Used, nullMillis(c.UsedAt),
		); err != nil {
			return r.d.mapWriteErr(err)
		}
	}
	return nil
}

const enableSecondFactor = `
UPDATE second_factors SET
	is_enabled = TRUE,
	is_verified = TRUE,
	failed_attempts = 0,
	locked_until = NULL,
	last_used_at = ?,
	updated_at = ?
WHERE principal_id = ?
RETURNING ` + secondFactorColumns

func (r *secondFactorsRepo) EnableSecondFactor(
	ctx context.Context,
	principalID string,
	now time.Time,
) (domain.SecondFactor, error) {
	nowMs := toMillis(now)
	row := r.q.QueryRowContext(ctx, r.d.Rebind(enableSecondFactor), nowMs, nowMs, principalID)
	f, err := scanSecondFactor(row)
	if err != nil {
		return domain.SecondFactor{}, mapNotFound(err)
	}
	return r.withCodes(ctx, f)
}

func (r *secondFactorsRepo) RecordFactorSuccess(ctx context.Context, principalID string, now time.Time) error {
	nowMs := toMillis(now)
	res, err := r.q.ExecContext(ctx, r.d.Rebind(`
UPDATE second_factors SET failed_attempts = 0, locked_until = NULL, last_used_at = ?, updated_at = ?
WHERE principal_id = ?`), nowMs, nowMs, principalID)
	return requireOneRow(res, err)
}

// Same transition as recordFailedLogin, applied to the factor counters.
const recordFactorFailure = `
UPDATE second_factors SET
	failed_attempts = CASE
		WHEN locked_until IS NOT NULL AND locked_until <= ? THEN 1
		ELSE failed_attempts + 1
	END,
	locked_until = CASE
		WHEN locked_until IS NOT NULL AND locked_until <= ? THEN NULL
		WHEN locked_until IS NULL AND failed_attempts + 1 >= ? THEN CAST(? AS BIGINT)
		ELSE locked_until
	END,
	updated_at = ?
WHERE principal_id = ?
RETURNING ` + secondFactorColumns

func (r *secondFactorsRepo) RecordFactorFailure(
	ctx context.Context,
	principalID string,
	policy domain.LockoutPolicy,
	now time.Time,
) (domain.SecondFactor, error) {
	nowMs := toMillis(now)
	row := r.q.QueryRowContext(ctx, r.d.Rebind(recordFactorFailure),
		nowMs, nowMs, policy.MaxAttempts, toMillis(now.Add(policy.Duration)), nowMs, principalID,
	)
	f, err := scanSecondFactor(row)
	if err != nil {
		return domain.SecondFactor{}, mapNotFound(err)
	}
	return r.withCodes(ctx, f)
}

func (r *secondFactorsRepo) DeleteSecondFactor(ctx context.Context, principalID string) error {
	if _, err := r.q.ExecContext(ctx,
		r.d.Rebind(`DELETE FROM backup_codes WHERE principal_id = ?`), principalID,
	); err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx, r.d.Rebind(`DELETE FROM second_factors WHERE principal_id = ?`), principalID)
	return requireOneRow(res, err)
}

func (r *secondFactorsRepo) ReplaceBackupCodes(
	ctx context.Context,
	principalID string,
	codes []domain.BackupCode,
	now time.Time,
) error {
	res, err := r.q.ExecContext(ctx,
		r.d.Rebind(`UPDATE second_factors SET updated_at = ? WHERE principal_id = ?`),
		toMillis(now), principalID,
	)
	if err := requireOneRow(res, err); err != nil {
		return err
	}
	return r.insertCodes(ctx, principalID, codes)
}

// The used = FALSE predicate makes concurrent consumers race on the row
// itself: exactly one of them sees a changed row.
func (r *secondFactorsRepo) ConsumeBackupCode(
	ctx context.Context,
	principalID, codeHash string,
	now time.Time,
) (bool, error) {
	res, err := r.q.ExecContext(ctx, r.d.Rebind(`
UPDATE backup_codes SET used = TRUE, used_at = ?
WHERE principal_id = ? AND code_hash = ? AND used = FALSE`),
		toMillis(now), principalID, codeHash,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *secondFactorsRepo) DeleteStaleProvisioned(ctx context.Context, olderThan time.Time) (int64, error) {
	cutoff := toMillis(olderThan)
	if _, err := r.q.ExecContext(ctx, r.d.Rebind(`
DELETE FROM backup_codes WHERE principal_id IN (
	SELECT principal_id FROM second_factors WHERE is_enabled = FALSE AND updated_at < ?
)`), cutoff); err != nil {
		return 0, err
	}

	res, err := r.q.ExecContext(ctx,
		r.d.Rebind(`DELETE FROM second_factors WHERE is_enabled = FALSE AND updated_at < ?`), cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var (
	_ store.SecondFactors = (*secondFactorsRepo)(nil)
	_ store.Principals    = (*principalsRepo)(nil)
)

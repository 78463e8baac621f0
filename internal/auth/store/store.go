package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	ErrNestedTx      = errors.New("store: nested transactions are not supported")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres, mongo) implement it and expose sub-repositories so a Tx-scoped
// store can hand out the same repositories bound to the transaction.
type Store interface {
	Principals() Principals
	SecondFactors() SecondFactors

	ApplyMigrations(ctx context.Context) error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing when fn returns nil
	// and rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Principals persists accounts. Methods with "Active" in their name ignore
// soft-deleted rows; the rest see every row.
type Principals interface {
	// CreatePrincipal inserts p. ErrAlreadyExists when an active principal
	// already holds the username or email.
	CreatePrincipal(ctx context.Context, p domain.Principal) error

	// GetPrincipalByID returns the principal regardless of deletion state.
	GetPrincipalByID(ctx context.Context, id string) (domain.Principal, error)

	// FindActivePrincipalByID returns a non-deleted principal.
	FindActivePrincipalByID(ctx context.Context, id string) (domain.Principal, error)

	// FindActivePrincipalByLogin matches a non-deleted principal by username
	// or by (lower-cased) email.
	FindActivePrincipalByLogin(ctx context.Context, login string) (domain.Principal, error)

	// IdentityTaken reports which of username/email are held by another
	// non-deleted principal. Empty inputs are not checked; excludeID skips
	// the caller's own row.
	IdentityTaken(ctx context.Context, username, email, excludeID string) (usernameTaken, emailTaken bool, err error)

	// UpdateProfile applies upd to a non-deleted principal. It never touches
	// the password hash.
	UpdateProfile(ctx context.Context, id string, upd domain.ProfileUpdate, now time.Time) (domain.Principal, error)

	// UpdatePasswordHash replaces the stored hash.
	UpdatePasswordHash(ctx context.Context, id, hash string, now time.Time) error

	// RecordFailedLogin atomically applies policy.FailureOutcome to the
	// stored counters and returns the updated principal.
	RecordFailedLogin(ctx context.Context, id string, policy domain.LockoutPolicy, now time.Time) (domain.Principal, error)

	// RecordSuccessfulLogin clears counters and lock and stamps last login.
	RecordSuccessfulLogin(ctx context.Context, id string, now time.Time) (domain.Principal, error)

	// SoftDeletePrincipal flags the row deleted and inactive.
	SoftDeletePrincipal(ctx context.Context, id string, now time.Time) error

	// RestorePrincipal reverses a soft delete. ErrAlreadyExists when the
	// identity has since been registered by someone else.
	RestorePrincipal(ctx context.Context, id string, now time.Time) error

	// ClearExpiredLocks resets counters on locks that ended before now.
	ClearExpiredLocks(ctx context.Context, now time.Time) (int64, error)
}

// SecondFactors persists TOTP records and their backup codes. Secrets are
// stored in their sealed form (domain.SecondFactor.SealedSecret).
type SecondFactors interface {
	// GetSecondFactor returns the record and its ordered backup codes.
	GetSecondFactor(ctx context.Context, principalID string) (domain.SecondFactor, error)

	// SaveProvisionedFactor creates or replaces the record in the
	// provisioned (not enabled) state together with its backup codes.
	// SQL drivers need a transaction for this to be atomic.
	SaveProvisionedFactor(ctx context.Context, f domain.SecondFactor) error

	// EnableSecondFactor marks the record enabled and verified and resets
	// its failure counters.
	EnableSecondFactor(ctx context.Context, principalID string, now time.Time) (domain.SecondFactor, error)

	// RecordFactorSuccess resets counters and stamps last use.
	RecordFactorSuccess(ctx context.Context, principalID string, now time.Time) error

	// RecordFactorFailure atomically applies policy.FailureOutcome.
	RecordFactorFailure(ctx context.Context, principalID string, policy domain.LockoutPolicy, now time.Time) (domain.SecondFactor, error)

	// DeleteSecondFactor removes the record and its codes.
	DeleteSecondFactor(ctx context.Context, principalID string) error

	// ReplaceBackupCodes swaps the entire code set.
	ReplaceBackupCodes(ctx context.Context, principalID string, codes []domain.BackupCode, now time.Time) error

	// ConsumeBackupCode marks the matching unused code as used. It reports
	// false without mutating anything when no unused code matches.
	ConsumeBackupCode(ctx context.Context, principalID, codeHash string, now time.Time) (bool, error)

	// DeleteStaleProvisioned removes never-enabled records last updated
	// before olderThan.
	DeleteStaleProvisioned(ctx context.Context, olderThan time.Time) (int64, error)
}

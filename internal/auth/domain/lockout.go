package domain

import "time"

// LockoutPolicy suspends verification after MaxAttempts consecutive
// failures for Duration.
type LockoutPolicy struct {
	MaxAttempts int
	Duration    time.Duration
}

var (
	// DefaultLoginLockout applies to password logins.
	DefaultLoginLockout = LockoutPolicy{MaxAttempts: 5, Duration: 2 * time.Hour}

	// DefaultFactorLockout applies to TOTP verification.
	DefaultFactorLockout = LockoutPolicy{MaxAttempts: 5, Duration: 15 * time.Minute}
)

// FailureOutcome is the counter state after one more failure, computed the
// same way every store applies it atomically:
//   - an expired lock resets the counter to 1 and clears the lock;
//   - otherwise the counter increments, and reaching MaxAttempts while
//     unlocked sets a lock until now+Duration.
func (p LockoutPolicy) FailureOutcome(attempts int, lockedUntil *time.Time, now time.Time) (int, *time.Time) {
	if lockedUntil != nil && !lockedUntil.After(now) {
		return 1, nil
	}

	attempts++
	if lockedUntil == nil && attempts >= p.MaxAttempts {
		until := now.Add(p.Duration)
		return attempts, &until
	}
	return attempts, lockedUntil
}

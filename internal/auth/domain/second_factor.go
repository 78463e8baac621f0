package domain

import "time"

// SecondFactor is the TOTP record attached to a principal. A record with
// IsEnabled false is provisioned but unconfirmed and gates nothing.
type SecondFactor struct {
	PrincipalID string

	// Secret is the base32 TOTP seed. Stores persist it sealed; services
	// only ever see it in the clear in memory.
	Secret       string
	SealedSecret []byte

	IsEnabled  bool
	IsVerified bool

	BackupCodes []BackupCode

	LastUsedAt     *time.Time
	FailedAttempts int
	LockedUntil    *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsLocked reports whether verification is suspended at now.
func (f SecondFactor) IsLocked(now time.Time) bool {
	return f.LockedUntil != nil && f.LockedUntil.After(now)
}

// UnusedBackupCodes counts codes that can still be consumed.
func (f SecondFactor) UnusedBackupCodes() int {
	n := 0
	for _, c := range f.BackupCodes {
		if !c.Used {
			n++
		}
	}
	return n
}

// BackupCode is a single-use recovery code. Only its fingerprint is kept.
type BackupCode struct {
	CodeHash string
	Used     bool
	UsedAt   *time.Time
}

// FactorStatus summarises a principal's second factor.
type FactorStatus struct {
	IsEnabled  bool
	IsVerified bool
	// HasBackupCodes reports whether a code set was issued, even if every
	// code in it has been used. UnusedBackupCodes says how many remain.
	HasBackupCodes    bool
	UnusedBackupCodes int
}

// StatusOf builds the summary for f. A missing record is the zero status.
func StatusOf(f SecondFactor) FactorStatus {
	return FactorStatus{
		IsEnabled:         f.IsEnabled,
		IsVerified:        f.IsVerified,
		HasBackupCodes:    len(f.BackupCodes) > 0,
		UnusedBackupCodes: f.UnusedBackupCodes(),
	}
}

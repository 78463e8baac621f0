// Package storetest is a conformance suite every store driver runs against
// a fresh, migrated store.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/pkg/idx"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty, migrated store. It is called once per subtest.
type Factory func(t *testing.T) store.Store

// base is a whole-millisecond instant so round trips compare exactly.
var base = time.UnixMilli(1_700_000_000_000).UTC()

// Run executes the full suite.
func Run(t *testing.T, newStore Factory) {
	t.Run("Principals", func(t *testing.T) { runPrincipals(t, newStore) })
	t.Run("Lockout", func(t *testing.T) { runLockout(t, newStore) })
	t.Run("SecondFactors", func(t *testing.T) { runSecondFactors(t, newStore) })
	t.Run("BackupCodes", func(t *testing.T) { runBackupCodes(t, newStore) })
	t.Run("Transactions", func(t *testing.T) { runTransactions(t, newStore) })
}

// NewPrincipal builds a principal with unique-per-name identity fields.
func NewPrincipal(name string) domain.Principal {
	return domain.Principal{
		ID:           idx.New().String(),
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "$argon2id$v=19$m=1024,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		FirstName:    "First",
		LastName:     "Last",
		IsActive:     true,
		CreatedAt:    base,
		UpdatedAt:    base,
	}
}

func mustCreate(t *testing.T, st store.Store, p domain.Principal) domain.Principal {
	t.Helper()
	require.NoError(t, st.Principals().CreatePrincipal(t.Context(), p))
	return p
}

func runPrincipals(t *testing.T, newStore Factory) {
	t.Run("create and lookup", func(t *testing.T) {
		st := newStore(t)
		ctx := t.Context()
		alice := NewPrincipal("alice")
		alice.Email = "Alice@Example.com"
		mustCreate(t, st, alice)

		got, err := st.Principals().GetPrincipalByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, "alice", got.Username)
		require.Equal(t, "alice@example.com", got.Email, "email is stored lower-case")
		require.True(t, got.IsActive)
		require.False(t, got.IsDeleted)
		require.Zero(t, got.LoginAttempts)
		require.Nil(t, got.LockUntil)
		require.True(t, base.Equal(got.CreatedAt))

		byName, err := st.Principals().FindActivePrincipalByLogin(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, alice.ID, byName.ID)

		byEmail, err := st.Principals().FindActivePrincipalByLogin(ctx, "ALICE@example.com")
		require.NoError(t, err)
		require.Equal(t, alice.ID, byEmail.ID)

		_, err = st.Principals().FindActivePrincipalByLogin(ctx, "nobody")
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = st.Principals().GetPrincipalByID(ctx, idx.New().String())
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate identity", func(t *testing.T) {
		st := newStore(t)
		mustCreate(t, st, NewPrincipal("bob"))

		dupName := NewPrincipal("bob")
		dupName.Email = "other@example.com"
		require.ErrorIs(t, st.Principals().CreatePrincipal(t.Context(), dupName), store.ErrAlreadyExists)

		dupEmail := NewPrincipal("robert")
		dupEmail.Email = "BOB@example.com"
		require.ErrorIs(t, st.Principals().CreatePrincipal(t.Context(), dupEmail), store.ErrAlreadyExists)
	})

	t.Run("identity taken", func(t *testing.T) {
		st := newStore(t)
		ctx := t.Context()
		carol := mustCreate(t, st, NewPrincipal("carol"))

		u, e, err := st.Principals().IdentityTaken(ctx, "carol", "someone@example.com", "")
		require.NoError(t, err)
		require.True(t, u)
		require.False(t, e)

		u, e, err = st.Principals().IdentityTaken(ctx, "nobody", "CAROL@example.com", "")
		require.NoError(t, err)
		require.False(t, u)
		require.True(t, e)

		u, e, err = st.Principals().IdentityTaken(ctx, "", "carol@example.com", carol.ID)
		require.NoError(t, err)
		require.False(t, u)
		require.False(t, e, "own row is excluded")
	})

	t.Run("soft delete releases identity", func(t *testing.T) {
		st := newStore(t)
		ctx := t.Context()
		dave := mustCreate(t, st, NewPrincipal("dave"))

		require.NoError(t, st.Principals().SoftDeletePrincipal(ctx, dave.ID, base.Add(time.Minute)))
		require.ErrorIs(t, st.Principals().SoftDeletePrincipal(ctx, dave.ID, base), store.ErrNotFound)

		_, err := st.Principals().FindActivePrincipalByID(ctx, dave.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = st.Principals().FindActivePrincipalByLogin(ctx, "dave")
		require.ErrorIs(t, err, store.ErrNotFound)

		raw, err := st.Principals().GetPrincipalByID(ctx, dave.ID)
		require.NoError(t, err)
		require.True(t, raw.IsDeleted)
		require.False(t, raw.IsActive)
		require.NotNil(t, raw.DeletedAt)

		u, e, err := st.Principals().IdentityTaken(ctx, "dave", "dave@example.com", "")
		require.NoError(t, err)
		require.False(t, u)
		require.False(t, e)

		// Re-registration is allowed, after which restoring the old row conflicts.
		mustCreate(t, st, NewPrincipal("dave"))
		require.ErrorIs(t, st.Principals().RestorePrincipal(ctx, dave.ID, base), store.ErrAlreadyExists)
	})

	t.Run("restore", func(t *testing.T) {
		st := newStore(t)
		ctx := t.Context()
		erin := mustCreate(t, st, NewPrincipal("erin"))

		require.ErrorIs(t, st.Principals().RestorePrincipal(ctx, erin.ID, base), store.ErrNotFound)
		require.NoError(t, st.Principals().SoftDeletePrincipal(ctx, erin.ID, base))
		require.NoError(t, st.Principals().RestorePrincipal(ctx, erin.ID, base))

		got, err := st.Principals().FindActivePrincipalByID(ctx, erin.ID)
		require.NoError(t, err)
		require.True(t, got.IsActive)
		require.Nil(t, got.DeletedAt)
	})

	t.Run("update profile keeps hash", func(t *testing.T) {
		st := newStore(t)
		ctx := t.Context()
		frank := mustCreate(t, st, NewPrincipal("frank"))
		mustCreate(t, st, NewPrincipal("grace"))

		first := "Franklin"
		email := "Frank.New@Example.com"
		got, err := st.Principals().UpdateProfile(ctx, frank.ID, domain.ProfileUpdate{FirstName: &first, Email: &email}, base.Add(time.Hour))
		require.NoError(t, err)
		require.Equal(t, "Franklin", got.FirstName)
		require.Equal(t, "Last", got.LastName)
		require.Equal(t, "frank.new@example.com", got.Email)
		require.Equal(t, frank.PasswordHash, got.PasswordHash)
		require.True(t, base.Add(time.Hour).Equal(got.UpdatedAt))

		taken := "grace@example.com"
		_, err = st.Principals().UpdateProfile(ctx, frank.ID, domain.ProfileUpdate{Email: &taken}, base)
		require.ErrorIs(t, err, store.ErrAlreadyExists)

		_, err = st.Principals().UpdateProfile(ctx, idx.New().String(), domain.ProfileUpdate{FirstName: &first}, base)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("update password hash", func(t *testing.T) {
		st := newStore(t)
		ctx := t.Context()
		heidi := mustCreate(t, st, NewPrincipal("heidi"))

		require.NoError(t, st.Principals().UpdatePasswordHash(ctx, heidi.ID, "new-hash", base))
		got, err := st.Principals().GetPrincipalByID(ctx, heidi.ID)
		require.NoError(t, err)
		require.Equal(t, "new-hash", got.PasswordHash)

		require.ErrorIs(t, st.Principals().UpdatePasswordHash(ctx, idx.New().String(), "x", base), store.ErrNotFound)
	})
}

func runLockout(t *testing.T, newStore Factory) {
	policy := domain.LockoutPolicy{MaxAttempts: 5, Duration: 2 * time.Hour}

	t.Run("locks after max attempts", func(t *testing.T) {
		st := newStore(t)
		ctx := t.Context()
		p := mustCreate(t, st, NewPrincipal("ivan"))

		var got domain.Principal
		var err error
		for i := 1; i <= 4; i++ {
			got, err = st.Principals().RecordFailedLogin(ctx, p.ID, policy, base)
			require.NoError(t, err)
			require.Equal(t, i, got.LoginAttempts)
			require.Nil(t, got.LockUntil)
		}

		got, err = st.Principals().RecordFailedLogin(ctx, p.ID, policy, base)
		require.NoError(t, err)
		require.Equal(t, 5, got.LoginAttempts)
		require.NotNil(t, got.LockUntil)
		require.True(t, base.Add(2*time.Hour).Equal(*got.LockUntil))
		require.True(t, got.IsLocked(base))

		// A further failure during the lock does not extend it.
		got, err = st.Principals().RecordFailedLogin(ctx, p.ID, policy, base.Add(time.Hour))
		require.NoError(t, err)
		require.Equal(t, 6, got.LoginAttempts)
		require.True(t, base.Add(2*time.Hour).Equal(*got.LockUntil))

		// After expiry the history resets.
		got, err = st.Principals().RecordFailedLogin(ctx, p.ID, policy, base.Add(3*time.Hour))
		require.NoError(t, err)
		require.Equal(t, 1, got.LoginAttempts)
		require.Nil(t, got.LockUntil)
	})

	t.Run("success clears counters", func(t *testing.T) {
		st := newStore(t)
		ctx := t.Context()
		p := mustCreate(t, st, NewPrincipal("judy"))

		for range 3 {
			_, err := st.Principals().RecordFailedLogin(ctx, p.ID, policy, base)
			require.NoError(t, err)
		}

		got, err := st.Principals().RecordSuccessfulLogin(ctx, p.ID, base.Add(time.Minute))
		require.NoError(t, err)
		require.Zero(t, got.LoginAttempts)
		require.Nil(t, got.LockUntil)
		require.NotNil(t, got.LastLoginAt)
		require.True(t, base.Add(time.Minute).Equal(*got.LastLoginAt))
	})

	t.Run("concurrent failures are all counted", func(t *testing.T) {
		st := newStore(t)
		ctx := t.Context()
		p := mustCreate(t, st, NewPrincipal("mallory"))

		wide := domain.LockoutPolicy{MaxAttempts: 100, Duration: time.Hour}
		const workers = 10

		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := st.Principals().RecordFailedLogin(ctx, p.ID, wide, base); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := st.Principals().GetPrincipalByID(ctx, p.ID)
		require.NoError(t, err)
		require.Equal(t, workers, got.LoginAttempts)
	})

	t.Run("clear expired locks", func(t *testing.T) {
		st := newStore(t)
		ctx := t.Context()
		p := mustCreate(t, st, NewPrincipal("niaj"))

		for range 5 {
			_, err := st.Principals().RecordFailedLogin(ctx, p.ID, policy, base)
			require.NoError(t, err)
		}

		n, err := st.Principals().ClearExpiredLocks(ctx, base.Add(time.Hour))
		require.NoError(t, err)
		require.Zero(t, n, "lock still active")

		n, err = st.Principals().ClearExpiredLocks(ctx, base.Add(3*time.Hour))
		require.NoError(t, err)
		require.EqualValues(t, 1, n)

		got, err := st.Principals().GetPrincipalByID(ctx, p.ID)
		require.NoError(t, err)
		require.Zero(t, got.LoginAttempts)
		require.Nil(t, got.LockUntil)
	})

	t.Run("deleted principals are not updated", func(t *testing.T) {
		st := newStore(t)
		ctx := t.Context()
		p := mustCreate(t, st, NewPrincipal("olivia"))
		require.NoError(t, st.Principals().SoftDeletePrincipal(ctx, p.ID, base))

		_, err := st.Principals().RecordFailedLogin(ctx, p.ID, policy, base)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func codes(prefix string, n int) []domain.BackupCode {
	out := make([]domain.BackupCode, n)
	for i := range out {
		out[i] = domain.BackupCode{CodeHash: fmt.Sprintf("%s-%02d", prefix, i)}
	}
	return out
}

func provision(t *testing.T, st store.Store, principalID string, secret []byte, c []domain.BackupCode, at time.Time) {
	t.Helper()
	err := st.WithTx(t.Context(), func(tx store.Tx) error {
		return tx.SecondFactors().SaveProvisionedFactor(t.Context(), domain.SecondFactor{
			PrincipalID:  principalID,
			SealedSecret: secret,
			BackupCodes:  c,
			CreatedAt:    at,
			UpdatedAt:    at,
		})
	})
	require.NoError(t, err)
}

func runSecondFactors(t *testing.T, newStore Factory) {
	policy := domain.LockoutPolicy{MaxAttempts: 5, Duration: 15 * time.Minute}

	t.Run("provision and enable", func(t *testing.T) {
		st := newStore(t)
		ctx := t.Context()
		p := mustCreate(t, st, NewPrincipal("peggy"))

		_, err := st.SecondFactors().GetSecondFactor(ctx, p.ID)
		require.ErrorIs(t, err, store.ErrNotFound)

		provision(t, st, p.ID, []byte("sealed-1"), codes("a", 10), base)

		f, err := st.SecondFactors().GetSecondFactor(ctx, p.ID)
		require.NoError(t, err)
		require.Equal(t, []byte("sealed-1"), f.SealedSecret)
		require.False(t, f.IsEnabled)
		require.False(t, f.IsVerified)
		require.Len(t, f.BackupCodes, 10)
		require.Equal(t, "a-00", f.BackupCodes[0].CodeHash, "codes keep their order")
		require.Equal(t, "a-09", f.BackupCodes[9].CodeHash)

		f, err = st.SecondFactors().EnableSecondFactor(ctx, p.ID, base.Add(time.Minute))
		require.NoError(t, err)
		require.True(t, f.IsEnabled)
		require.True(t, f.IsVerified)
		require.NotNil(t, f.LastUsedAt)
		require.Len(t, f.BackupCodes, 10)

		_, err = st.SecondFactors().EnableSecondFactor(ctx, idx.New().String(), base)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("re-provision replaces secret and codes", func(t *testing.T) {
		st := newStore(t)
		ctx := t.Context()
		p := mustCreate(t, st, NewPrincipal("rupert"))

		provision(t, st, p.ID, []byte("sealed-1"), codes("a", 10), base)
		provision(t, st, p.ID, []byte("sealed-2"), codes("b", 10), base.Add(time.Minute))

		f, err := st.SecondFactors().GetSecondFactor(ctx, p.ID)
		require.NoError(t, err)
		require.Equal(t, []byte("sealed-2"), f.SealedSecret)
		require.Len(t, f.BackupCodes, 10)
		for _, c := range f.BackupCodes {
			require.Contains(t, c.CodeHash, "b-")
		}

		ok, err := st.SecondFactors().ConsumeBackupCode(ctx, p.ID, "a-00", base)
		require.NoError(t, err)
		require.False(t, ok, "old codes are gone")
	})

	t.Run("failure lockout", func(t *testing.T) {
		st := newStore(t)
		ctx := t.Context()
		p := mustCreate(t, st, NewPrincipal("sybil"))
		provision(t, st, p.ID, []byte("s"), codes("a", 10), base)

		var f domain.SecondFactor
		var err error
		for i := 1; i <= 5; i++ {
			f, err = st.SecondFactors().RecordFactorFailure(ctx, p.ID, policy, base)
			require.NoError(t, err)
			require.Equal(t, i, f.FailedAttempts)
		}
		require.NotNil(t, f.LockedUntil)
		require.True(t, base.Add(15*time.Minute).Equal(*f.LockedUntil))
		require.True(t, f.IsLocked(base.Add(14*time.Minute)))
		require.Len(t, f.BackupCodes, 10)

		require.NoError(t, st.SecondFactors().RecordFactorSuccess(ctx, p.ID, base.Add(20*time.Minute)))
		f, err = st.SecondFactors().GetSecondFactor(ctx, p.ID)
		require.NoError(t, err)
		require.Zero(t, f.FailedAttempts)
		require.Nil(t, f.LockedUntil)
		require.NotNil(t, f.LastUsedAt)

		_, err = st.SecondFactors().RecordFactorFailure(ctx, idx.New().String(), policy, base)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("re-provision keeps counters", func(t *testing.T) {
		st := newStore(t)
		ctx := t.Context()
		p := mustCreate(t, st, NewPrincipal("trent"))
		provision(t, st, p.ID, []byte("s"), codes("a", 10), base)

		for range 5 {
			_, err := st.SecondFactors().RecordFactorFailure(ctx, p.ID, policy, base)
			require.NoError(t, err)
		}
		provision(t, st, p.ID, []byte("s2"), codes("b", 10), base)

		f, err := st.SecondFactors().GetSecondFactor(ctx, p.ID)
		require.NoError(t, err)
		require.True(t, f.IsLocked(base))
	})

	t.Run("delete", func(t *testing.T) {
		st := newStore(t)
		ctx := t.Context()
		p := mustCreate(t, st, NewPrincipal("uma"))
		provision(t, st, p.ID, []byte("s"), codes("a", 10), base)

		require.NoError(t, st.SecondFactors().DeleteSecondFactor(ctx, p.ID))
		_, err := st.SecondFactors().GetSecondFactor(ctx, p.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
		require.ErrorIs(t, st.SecondFactors().DeleteSecondFactor(ctx, p.ID), store.ErrNotFound)

		// A fresh provisioning after delete starts with no stale codes.
		provision(t, st, p.ID, []byte("s"), codes("c", 10), base)
		f, err := st.SecondFactors().GetSecondFactor(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, f.BackupCodes, 10)
	})

	t.Run("delete stale provisioned", func(t *testing.T) {
		st := newStore(t)
		ctx := t.Context()
		stale := mustCreate(t, st, NewPrincipal("victor"))
		fresh := mustCreate(t, st, NewPrincipal("walter"))
		enabled := mustCreate(t, st, NewPrincipal("xena"))

		provision(t, st, stale.ID, []byte("s"), codes("a", 10), base)
		provision(t, st, fresh.ID, []byte("s"), codes("a", 10), base.Add(2*time.Hour))
		provision(t, st, enabled.ID, []byte("s"), codes("a", 10), base)
		_, err := st.SecondFactors().EnableSecondFactor(ctx, enabled.ID, base)
		require.NoError(t, err)

		n, err := st.SecondFactors().DeleteStaleProvisioned(ctx, base.Add(time.Hour))
		require.NoError(t, err)
		require.EqualValues(t, 1, n)

		_, err = st.SecondFactors().GetSecondFactor(ctx, stale.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = st.SecondFactors().GetSecondFactor(ctx, fresh.ID)
		require.NoError(t, err)
		_, err = st.SecondFactors().GetSecondFactor(ctx, enabled.ID)
		require.NoError(t, err)
	})
}

func runBackupCodes(t *testing.T, newStore Factory) {
	t.Run("consume once", func(t *testing.T) {
		st := newStore(t)
		ctx := t.Context()
		p := mustCreate(t, st, NewPrincipal("yara"))
		provision(t, st, p.ID, []byte("s"), codes("a", 10), base)

		for _, c := range codes("a", 10) {
			ok, err := st.SecondFactors().ConsumeBackupCode(ctx, p.ID, c.CodeHash, base)
			require.NoError(t, err)
			require.True(t, ok, "first use of %s", c.CodeHash)

			ok, err = st.SecondFactors().ConsumeBackupCode(ctx, p.ID, c.CodeHash, base)
			require.NoError(t, err)
			require.False(t, ok, "reuse of %s", c.CodeHash)
		}

		f, err := st.SecondFactors().GetSecondFactor(ctx, p.ID)
		require.NoError(t, err)
		for _, c := range f.BackupCodes {
			require.True(t, c.Used)
			require.NotNil(t, c.UsedAt)
		}
		require.Zero(t, f.UnusedBackupCodes())
	})

	t.Run("codes are scoped to their owner", func(t *testing.T) {
		st := newStore(t)
		ctx := t.Context()
		a := mustCreate(t, st, NewPrincipal("zed"))
		b := mustCreate(t, st, NewPrincipal("amy"))
		provision(t, st, a.ID, []byte("s"), codes("x", 10), base)
		provision(t, st, b.ID, []byte("s"), codes("y", 10), base)

		ok, err := st.SecondFactors().ConsumeBackupCode(ctx, b.ID, "x-00", base)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("concurrent consumption succeeds once", func(t *testing.T) {
		st := newStore(t)
		ctx := t.Context()
		p := mustCreate(t, st, NewPrincipal("ben"))
		provision(t, st, p.ID, []byte("s"), codes("a", 10), base)

		const workers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
		)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := st.SecondFactors().ConsumeBackupCode(ctx, p.ID, "a-03", base)
				if err == nil && ok {
					mu.Lock()
					successes++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		require.Equal(t, 1, successes)
	})

	t.Run("replace", func(t *testing.T) {
		st := newStore(t)
		ctx := t.Context()
		p := mustCreate(t, st, NewPrincipal("cat"))
		provision(t, st, p.ID, []byte("s"), codes("a", 10), base)

		err := st.WithTx(ctx, func(tx store.Tx) error {
			return tx.SecondFactors().ReplaceBackupCodes(ctx, p.ID, codes("b", 10), base.Add(time.Minute))
		})
		require.NoError(t, err)

		ok, err := st.SecondFactors().ConsumeBackupCode(ctx, p.ID, "a-01", base)
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = st.SecondFactors().ConsumeBackupCode(ctx, p.ID, "b-01", base)
		require.NoError(t, err)
		require.True(t, ok)

		err = st.SecondFactors().ReplaceBackupCodes(ctx, idx.New().String(), codes("c", 10), base)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func runTransactions(t *testing.T, newStore Factory) {
	t.Run("commit", func(t *testing.T) {
		st := newStore(t)
		p := NewPrincipal("dan")

		err := st.WithTx(t.Context(), func(tx store.Tx) error {
			return tx.Principals().CreatePrincipal(t.Context(), p)
		})
		require.NoError(t, err)

		_, err = st.Principals().GetPrincipalByID(t.Context(), p.ID)
		require.NoError(t, err)
	})

	t.Run("nested tx is refused", func(t *testing.T) {
		st := newStore(t)
		err := st.WithTx(t.Context(), func(tx store.Tx) error {
			return tx.WithTx(t.Context(), func(store.Tx) error { return nil })
		})
		require.ErrorIs(t, err, store.ErrNestedTx)
	})

	t.Run("ping", func(t *testing.T) {
		st := newStore(t)
		require.NoError(t, st.Ping(context.Background()))
	})
}

// RunRollback checks that a failing WithTx leaves no trace. Drivers without
// multi-document transactions skip it.
func RunRollback(t *testing.T, newStore Factory) {
	st := newStore(t)
	p := NewPrincipal("eve")

	err := st.WithTx(t.Context(), func(tx store.Tx) error {
		if err := tx.Principals().CreatePrincipal(t.Context(), p); err != nil {
			return err
		}
		return fmt.Errorf("boom")
	})
	require.EqualError(t, err, "boom")

	_, err = st.Principals().GetPrincipalByID(t.Context(), p.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

package service

import (
	"context"
	"time"

	"github.com/metamasonz/backoffice/internal/admin/domain"
	"github.com/metamasonz/backoffice/internal/admin/store"
	"github.com/metamasonz/backoffice/pkg/cryptox"
	"github.com/metamasonz/backoffice/pkg/slogx"
)

const (
	// DefaultMaxAttempts failed logins inside one unlocked window lock the
	// account.
	DefaultMaxAttempts = 5

	// DefaultLockDuration is how long a brute-force lock lasts.
	DefaultLockDuration = 15 * time.Minute
)

// CredentialService owns password hashing/verification and the per-account
// brute-force lockout counters. Counter changes are persisted immediately so
// a concurrent login attempt mid-lock is accurately rejected.
type CredentialService struct {
	Store        store.Store
	MaxAttempts  int
	LockDuration time.Duration

	// Now is the clock, overridable in tests.
	Now func() time.Time
}

func (s *CredentialService) maxAttempts() int {
	if s.MaxAttempts > 0 {
		return s.MaxAttempts
	}
	return DefaultMaxAttempts
}

func (s *CredentialService) lockDuration() time.Duration {
	if s.LockDuration > 0 {
		return s.LockDuration
	}
	return DefaultLockDuration
}

func (s *CredentialService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Hash produces a salted, work-factored one-way hash. Output differs on
// every call; verification stays deterministic.
func (s *CredentialService) Hash(password string) (string, error) {
	return cryptox.HashPassword(password)
}

// Verify reports whether password matches hash. It fails closed: any internal
// error (malformed hash, bad encoding) counts as a mismatch.
func (s *CredentialService) Verify(password, hash string) bool {
	return cryptox.VerifyPassword(password, hash) == nil
}

// RecordFailedAttempt bumps the account's counter and, on reaching the
// threshold within the current unlocked window, sets the lock. The bump is a
// single atomic database increment; a lock that has already lapsed resets the
// counter to 1 there, so stale attempts never accumulate across windows.
func (s *CredentialService) RecordFailedAttempt(ctx context.Context, account domain.Account) error {
	now := s.now()
	log := slogx.FromContext(ctx)

	attempts, err := s.Store.Accounts().IncrementLoginAttempts(ctx, account.ID, now)
	if err != nil {
		return err
	}

	if attempts >= s.maxAttempts() {
		until := now.Add(s.lockDuration())
		log.Warn("account locked after repeated failed logins",
			"account_id", account.ID,
			"attempts", attempts,
			"lock_until", until,
		)
		return s.Store.Accounts().SetLoginAttempts(ctx, account.ID, attempts, &until)
	}
	return nil
}

// RecordSuccess resets the counter to zero and clears any lock.
func (s *CredentialService) RecordSuccess(ctx context.Context, accountID string) error {
	return s.Store.Accounts().SetLoginAttempts(ctx, accountID, 0, nil)
}

package store

import (
	"context"
	"errors"
	"time"

	"github.com/metamasonz/backoffice/internal/admin/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. Sub-repositories keep concerns tidy and testable, and the
// explicit Tx surface stops anyone from accidentally nesting transactions.
type Store interface {
	Accounts() Accounts
	Sessions() Sessions
	Invites() Invites
	Submissions() Submissions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. fn returning an error rolls
	// back; nil commits. Prefer this over Tx directly.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store with Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// GetByID returns an account by id.
	GetByID(ctx context.Context, id string) (domain.Account, error)

	// GetByEmail returns an account by its lowercase email.
	GetByEmail(ctx context.Context, email string) (domain.Account, error)

	// Create inserts a new account (id provided by the app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	Create(ctx context.Context, a domain.Account) error

	// ListWithStats returns all accounts newest-first, each carrying an
	// approved-submissions count.
	ListWithStats(ctx context.Context) ([]domain.AccountStats, error)

	// UpdateRole sets the role and bumps updated_at.
	UpdateRole(ctx context.Context, accountID string, role domain.Role) error

	// SetLoginAttempts persists the attempt counter and lock-until together.
	// lockUntil nil clears any lock. Applied immediately, never deferred.
	SetLoginAttempts(ctx context.Context, accountID string, attempts int, lockUntil *time.Time) error

	// IncrementLoginAttempts atomically bumps the counter in the database,
	// resetting to 1 and clearing the lock when a previous lock lapsed
	// before now. Returns the new count. Concurrent failures never lose
	// increments.
	IncrementLoginAttempts(ctx context.Context, accountID string, now time.Time) (int, error)

	// RecordLogin stamps last_login.
	RecordLogin(ctx context.Context, accountID string, at time.Time) error

	// Delete removes the account. Sessions cascade; invite and submission
	// back-references are detached, not deleted.
	Delete(ctx context.Context, accountID string) error

	// IsEmpty reports whether no accounts exist (bootstrap seeding).
	IsEmpty(ctx context.Context) (bool, error)
}

type Sessions interface {
	// Create appends a session record to the owning account's collection.
	Create(ctx context.Context, s domain.Session) error

	// GetActiveByTokenHash returns the session matching the token fingerprint
	// whose retention window has not lapsed at now. Expired rows are invisible
	// here regardless of whether the sweeper has reaped them yet.
	GetActiveByTokenHash(ctx context.Context, hash string, now time.Time) (domain.Session, error)

	// DeleteByTokenHash removes exactly the matching session for the account.
	DeleteByTokenHash(ctx context.Context, accountID, hash string) error

	// DeleteExpired reaps sessions past their retention window.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Invites interface {
	// Create inserts a new invite. Returns ErrAlreadyExists when another
	// non-terminal invite already targets the email (partial unique index) or
	// the code collides.
	Create(ctx context.Context, inv domain.Invite) error

	// GetByID returns an invite by id.
	GetByID(ctx context.Context, id string) (domain.Invite, error)

	// GetByCode returns an invite by its exact code.
	GetByCode(ctx context.Context, code string) (domain.Invite, error)

	// GetActiveByEmail returns the non-terminal (pending/sent) invite for an
	// email, if any.
	GetActiveByEmail(ctx context.Context, email string) (domain.Invite, error)

	// List returns all invites newest-first with creator/redeemer decoration.
	List(ctx context.Context) ([]domain.Invite, error)

	// UpdateStatus sets the status and bumps updated_at.
	UpdateStatus(ctx context.Context, inviteID string, status domain.InviteStatus) error

	// Extend pushes expires_at forward and re-affirms the sent status.
	Extend(ctx context.Context, inviteID string, expiresAt time.Time) error

	// MarkAccepted flips the invite to accepted and stamps redemption.
	MarkAccepted(ctx context.Context, inviteID, usedBy string, usedAt time.Time) error

	// ExpireOverdue bulk-transitions every pending/sent invite whose expiry
	// is in the past to expired, returning the number affected.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// SubmissionFilter narrows and orders submission listings.
type SubmissionFilter struct {
	Status domain.SubmissionStatus // empty matches all
	Oldest bool                    // default newest-first
	Limit  int                     // default 100, capped at 100
}

type Submissions interface {
	// Create inserts a new submission. Returns ErrAlreadyExists on a
	// submission code collision.
	Create(ctx context.Context, s domain.Submission) error

	// GetByID returns a submission with its full status history.
	GetByID(ctx context.Context, id string) (domain.Submission, error)

	// List returns submissions per filter.
	List(ctx context.Context, f SubmissionFilter) ([]domain.Submission, error)

	// Search matches code (exact, case-insensitive) or project name, email,
	// founder handle (substring).
	Search(ctx context.Context, term string, limit int) ([]domain.Submission, error)

	// UpdateStatus applies a decided transition: status, lock flag, and the
	// approver/rejector reference. A row already locked is never touched;
	// the update matches zero rows and returns ErrNotFound.
	UpdateStatus(ctx context.Context, id string, status domain.SubmissionStatus, locked bool, approvedBy, rejectedBy string) error

	// AppendHistory appends one immutable audit entry.
	AppendHistory(ctx context.Context, entry domain.StatusChange) error

	// Delete removes a submission and its history.
	Delete(ctx context.Context, id string) error
}

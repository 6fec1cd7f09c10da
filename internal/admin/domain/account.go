package domain

import "time"

// Account is a staff identity. Email is globally unique and stored lowercase.
type Account struct {
	ID            string
	Name          string
	Email         string
	PasswordHash  string // argon2id PHC encoded
	Role          Role
	Verified      bool
	Protected     bool // protected accounts cannot be deleted
	LoginAttempts int
	LockUntil     *time.Time
	LastLogin     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Locked reports whether the account is under an active brute-force lock.
// A lock in the future rejects login regardless of credential correctness.
func (a Account) Locked(now time.Time) bool {
	return a.LockUntil != nil && a.LockUntil.After(now)
}

// LockExpired reports whether a previous lock exists but has already lapsed.
func (a Account) LockExpired(now time.Time) bool {
	return a.LockUntil != nil && !a.LockUntil.After(now)
}

// Session is one device login. An account owns its sessions exclusively;
// each expires independently of explicit logout.
type Session struct {
	ID        string
	AccountID string
	TokenHash string // SHA-256 fingerprint of the bearer token
	IPAddress string
	UserAgent string
	DeviceID  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ClientContext carries transport-supplied caller details into the core.
type ClientContext struct {
	IP        string
	UserAgent string
	DeviceID  string
}

// AccountStats is the listing projection: account fields plus how many
// submissions the account has approved.
type AccountStats struct {
	ID             string
	Name           string
	Email          string
	Role           Role
	Protected      bool
	ApprovalsCount int
	CreatedAt      time.Time
}

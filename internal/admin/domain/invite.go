package domain

import "time"

// InviteStatus is the invite workflow state.
type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteSent     InviteStatus = "sent"
	InviteAccepted InviteStatus = "accepted"
	InviteExpired  InviteStatus = "expired"
	InviteRevoked  InviteStatus = "revoked"
)

// Terminal reports whether no further transition is permitted from s.
func (s InviteStatus) Terminal() bool {
	switch s {
	case InviteAccepted, InviteExpired, InviteRevoked:
		return true
	}
	return false
}

// Invite is a time-bound, single-use capability granting a role to an email
// upon redemption. At most one non-terminal invite may target an email at a
// time; the store enforces this with a partial unique index.
type Invite struct {
	ID        string
	Code      string // crypto-random, unique across all invites
	Email     string // case-normalized target
	Role      Role   // restricted to grantable (non-superAdmin) levels
	CreatedBy string // creator account reference, non-owning
	ExpiresAt time.Time
	Status    InviteStatus
	UsedAt    *time.Time
	UsedBy    string // redeeming account reference, set on acceptance
	CreatedAt time.Time
	UpdatedAt time.Time

	// Listing decoration, populated on reads that join accounts.
	CreatorName  string
	CreatorMail  string
	RedeemerName string
}

// Expired is the single expiry predicate, evaluated against a caller-supplied
// clock at every decision point rather than cached on the record.
func (i Invite) Expired(now time.Time) bool {
	return i.ExpiresAt.Before(now)
}

// Redeemable reports whether the invite can still be redeemed at now. The
// sweeper flips overdue invites to expired on its own schedule, but redemption
// never trusts that alone.
func (i Invite) Redeemable(now time.Time) bool {
	return i.Status == InviteSent && !i.Expired(now)
}

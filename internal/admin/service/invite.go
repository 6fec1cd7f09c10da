package service

import (
	"context"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/metamasonz/backoffice/internal/admin/domain"
	"github.com/metamasonz/backoffice/internal/admin/mail"
	"github.com/metamasonz/backoffice/internal/admin/store"
	"github.com/metamasonz/backoffice/pkg/cryptox"
	"github.com/metamasonz/backoffice/pkg/idx"
	"github.com/metamasonz/backoffice/pkg/slogx"
)

// DefaultInviteTTL is the default invite validity window.
const DefaultInviteTTL = 24 * time.Hour

var (
	ErrDuplicateAccount = domain.E(domain.KindConflict, "User already exists")
	ErrDuplicateInvite  = domain.E(domain.KindConflict, "Active invite exists for this email")
	ErrInviteNotFound   = domain.E(domain.KindNotFound, "Invite not found")
	ErrAlreadyAccepted  = domain.E(domain.KindConflict, "Invite already accepted")
	ErrAlreadyExpired   = domain.E(domain.KindInviteInvalid, "Invite expired")
	ErrInviteInvalid    = domain.E(domain.KindInviteInvalid, "Invalid or expired invite code")
	ErrRevokeForbidden  = domain.E(domain.KindForbidden, "Not authorized to revoke this invite")
)

// InviteService runs the invite lifecycle: generation, resend, redemption
// into a new account, revocation, and listing.
type InviteService struct {
	Store    store.Store
	Mail     mail.Dispatcher
	Sessions *SessionService

	// TTL is the invite validity window, extended by the same amount on
	// resend. Defaults to DefaultInviteTTL.
	TTL time.Duration

	// Now is the clock, overridable in tests.
	Now func() time.Time
}

func (s *InviteService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultInviteTTL
}

func (s *InviteService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Generate creates a new invite for email with the given role. The invite
// starts in the sent state and a notification is dispatched fire-and-forget:
// mail failure never rolls back the invite.
func (s *InviteService) Generate(ctx context.Context, email string, role domain.Role, creator domain.Account) (domain.Invite, error) {
	log := slogx.FromContext(ctx)
	now := s.now()
	email = strings.ToLower(strings.TrimSpace(email))

	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return domain.Invite{}, domain.Validation("Valid email required", map[string]string{"email": "Invalid email format"})
	}
	if !role.Grantable() {
		return domain.Invite{}, domain.Validation("Invalid role", map[string]string{"role": "Role must be admin or moderator"})
	}

	// An account already holding the email wins over any invite.
	if _, err := s.Store.Accounts().GetByEmail(ctx, email); err == nil {
		return domain.Invite{}, ErrDuplicateAccount
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.Invite{}, domain.Internal(err)
	}

	// Best-effort early duplicate check; the partial unique index is the
	// real guard under concurrency.
	if _, err := s.Store.Invites().GetActiveByEmail(ctx, email); err == nil {
		return domain.Invite{}, ErrDuplicateInvite
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.Invite{}, domain.Internal(err)
	}

	code, err := cryptox.GenerateInviteCode()
	if err != nil {
		return domain.Invite{}, domain.Internal(err)
	}

	invite := domain.Invite{
		ID:        idx.New().String(),
		Code:      code,
		Email:     email,
		Role:      role,
		CreatedBy: creator.ID,
		ExpiresAt: now.Add(s.ttl()),
		Status:    domain.InviteSent,
	}

	if err := s.Store.Invites().Create(ctx, invite); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost a race against a concurrent invite for the same email.
			return domain.Invite{}, ErrDuplicateInvite
		}
		log.Error("failed to create invite", "email", email, "error", err)
		return domain.Invite{}, domain.Internal(err)
	}

	s.dispatch(ctx, invite)

	log.Info("invite created",
		"invite_id", invite.ID,
		"email", email,
		"role", role.String(),
		"created_by", creator.ID,
		"expires_at", invite.ExpiresAt,
	)
	return invite, nil
}

// Resend extends the expiry window from now and re-dispatches the
// notification. Accepted and already-expired invites cannot be resent.
func (s *InviteService) Resend(ctx context.Context, id string) (domain.Invite, error) {
	log := slogx.FromContext(ctx)
	now := s.now()

	invite, err := s.Store.Invites().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invite{}, ErrInviteNotFound
		}
		return domain.Invite{}, domain.Internal(err)
	}

	if invite.Status == domain.InviteAccepted {
		return domain.Invite{}, ErrAlreadyAccepted
	}
	if invite.Status == domain.InviteExpired || invite.Expired(now) {
		return domain.Invite{}, ErrAlreadyExpired
	}
	if invite.Status == domain.InviteRevoked {
		return domain.Invite{}, ErrInviteInvalid
	}

	invite.ExpiresAt = now.Add(s.ttl())
	invite.Status = domain.InviteSent
	if err := s.Store.Invites().Extend(ctx, invite.ID, invite.ExpiresAt); err != nil {
		log.Error("failed to extend invite", "invite_id", invite.ID, "error", err)
		return domain.Invite{}, domain.Internal(err)
	}

	s.dispatch(ctx, invite)

	log.Info("invite resent", "invite_id", invite.ID, "expires_at", invite.ExpiresAt)
	return invite, nil
}

// Redeem exchanges an invite code for a new account holding the granted role.
// The code, the case-normalized email, and the sent status must all match,
// and expiry is re-validated here no matter what the sweeper has or hasn't
// done yet. On success the new account is logged in immediately.
func (s *InviteService) Redeem(
	ctx context.Context,
	code, email, password, name string,
	cc domain.ClientContext,
) (string, domain.Account, error) {
	log := slogx.FromContext(ctx)
	now := s.now()
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	fields := map[string]string{}
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		fields["email"] = "Invalid email format"
	}
	if len(password) < 8 {
		fields["password"] = "Password must be 8+ characters"
	}
	if len(name) < 2 {
		fields["name"] = "Name must be 2+ characters"
	}
	if code == "" {
		fields["inviteCode"] = "Invite code required"
	}
	if len(fields) > 0 {
		return "", domain.Account{}, domain.Validation("Registration failed", fields)
	}

	invite, err := s.Store.Invites().GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", domain.Account{}, ErrInviteInvalid
		}
		return "", domain.Account{}, domain.Internal(err)
	}

	if invite.Email != email || !invite.Redeemable(now) {
		log.Warn("invite redemption rejected",
			"invite_id", invite.ID,
			"status", string(invite.Status),
			"expired", invite.Expired(now),
		)
		return "", domain.Account{}, ErrInviteInvalid
	}

	passwordHash, err := cryptox.HashPassword(password)
	if err != nil {
		return "", domain.Account{}, domain.Internal(err)
	}

	account := domain.Account{
		ID:           idx.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         invite.Role,
		Verified:     true,
	}

	// Account creation and invite acceptance are atomic: redeeming the same
	// code twice can never yield two accounts.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().Create(ctx, account); err != nil {
			return err
		}
		return tx.Invites().MarkAccepted(ctx, invite.ID, account.ID, now)
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return "", domain.Account{}, ErrDuplicateAccount
		}
		if errors.Is(err, store.ErrNotFound) {
			// MarkAccepted matched no sent row: a concurrent redeem won.
			return "", domain.Account{}, ErrInviteInvalid
		}
		log.Error("invite redemption failed", "invite_id", invite.ID, "error", err)
		return "", domain.Account{}, domain.Internal(err)
	}

	token, err := s.Sessions.Issue(ctx, account, cc)
	if err != nil {
		return "", domain.Account{}, err
	}

	log.Info("account registered via invite",
		"account_id", account.ID,
		"invite_id", invite.ID,
		"role", account.Role.String(),
	)
	return token, account, nil
}

// Revoke terminates a non-accepted invite. Only the creator or a superAdmin
// may revoke.
func (s *InviteService) Revoke(ctx context.Context, id string, actor domain.Account) (domain.Invite, error) {
	invite, err := s.Store.Invites().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invite{}, ErrInviteNotFound
		}
		return domain.Invite{}, domain.Internal(err)
	}

	if invite.Status == domain.InviteAccepted {
		return domain.Invite{}, ErrAlreadyAccepted
	}
	if invite.CreatedBy != actor.ID && actor.Role != domain.RoleSuperAdmin {
		return domain.Invite{}, ErrRevokeForbidden
	}

	if err := s.Store.Invites().UpdateStatus(ctx, invite.ID, domain.InviteRevoked); err != nil {
		return domain.Invite{}, domain.Internal(err)
	}
	invite.Status = domain.InviteRevoked

	slogx.FromContext(ctx).Info("invite revoked", "invite_id", invite.ID, "actor", actor.ID)
	return invite, nil
}

// List returns all invites newest-first with creator and redeemer details.
func (s *InviteService) List(ctx context.Context) ([]domain.Invite, error) {
	invites, err := s.Store.Invites().List(ctx)
	if err != nil {
		return nil, domain.Internal(err)
	}
	return invites, nil
}

// dispatch sends the invite notification without blocking or failing the
// caller.
func (s *InviteService) dispatch(ctx context.Context, invite domain.Invite) {
	log := slogx.FromContext(ctx)
	go func() {
		if ok := s.Mail.Send(context.WithoutCancel(ctx), mail.TemplateStaffInvite,
			[]string{invite.Code, invite.Email, invite.Role.String()}, invite.Email); !ok {
			log.Warn("invite mail dispatch failed", "invite_id", invite.ID)
		}
	}()
}

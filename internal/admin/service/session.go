package service

import (
	"context"
	"errors"
	"time"

	"github.com/metamasonz/backoffice/internal/admin/domain"
	"github.com/metamasonz/backoffice/internal/admin/store"
	"github.com/metamasonz/backoffice/pkg/cryptox"
	"github.com/metamasonz/backoffice/pkg/idx"
	"github.com/metamasonz/backoffice/pkg/jwtx"
	"github.com/metamasonz/backoffice/pkg/slogx"
)

// DefaultSessionRetention is how long a session record survives before it is
// considered gone even without explicit logout.
const DefaultSessionRetention = 30 * 24 * time.Hour

// ErrUnauthenticated is the single rejection every token validation failure
// maps to. Expired, tampered, and revoked tokens are deliberately
// indistinguishable to the caller.
var ErrUnauthenticated = domain.E(domain.KindUnauthenticated, "Not authorized")

// SessionService issues, validates, and revokes bearer session tokens.
// Multiple concurrent sessions per account are permitted; each expires and
// revokes independently.
type SessionService struct {
	Store    store.Store
	Signer   jwtx.Signer
	Verifier jwtx.Verifier

	// Issuer is stamped into the iss claim and must match what the verifier
	// enforces.
	Issuer string

	// TokenTTL is the absolute token lifetime (no refresh). Defaults to
	// jwtx.DefaultSessionTTL.
	TokenTTL time.Duration

	// Retention bounds how long a session record lives. Defaults to
	// DefaultSessionRetention.
	Retention time.Duration

	// Now is the clock, overridable in tests.
	Now func() time.Time
}

func (s *SessionService) tokenTTL() time.Duration {
	if s.TokenTTL > 0 {
		return s.TokenTTL
	}
	return jwtx.DefaultSessionTTL
}

func (s *SessionService) retention() time.Duration {
	if s.Retention > 0 {
		return s.Retention
	}
	return DefaultSessionRetention
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Issue creates a signed, time-bound token embedding the account identity and
// role, and appends the matching session record.
func (s *SessionService) Issue(ctx context.Context, account domain.Account, cc domain.ClientContext) (string, error) {
	log := slogx.FromContext(ctx)
	now := s.now()

	claims := jwtx.NewSessionClaims(account.ID, account.Role.String(), account.Email, s.Issuer, s.tokenTTL(), now)
	token, err := s.Signer.Sign(claims)
	if err != nil {
		log.Error("failed to sign session token", "account_id", account.ID, "error", err)
		return "", domain.Internal(err)
	}

	session := domain.Session{
		ID:        idx.New().String(),
		AccountID: account.ID,
		TokenHash: cryptox.FingerprintToken(token),
		IPAddress: cc.IP,
		UserAgent: cc.UserAgent,
		DeviceID:  cc.DeviceID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.retention()),
	}

	if err := s.Store.Sessions().Create(ctx, session); err != nil {
		log.Error("failed to persist session", "account_id", account.ID, "error", err)
		return "", domain.Internal(err)
	}

	log.Debug("session issued",
		"account_id", account.ID,
		"device_id", cc.DeviceID,
		"ip", cc.IP,
	)
	return token, nil
}

// Validate resolves a bearer token to its account. It rejects uniformly with
// ErrUnauthenticated when the signature or expiry fails, when no matching
// session record survives, or when the account's role has fallen outside the
// staff set since issuance.
func (s *SessionService) Validate(ctx context.Context, token string) (domain.Account, error) {
	log := slogx.FromContext(ctx)
	now := s.now()

	claims, err := s.Verifier.Verify(token)
	if err != nil {
		return domain.Account{}, ErrUnauthenticated
	}

	session, err := s.Store.Sessions().GetActiveByTokenHash(ctx, cryptox.FingerprintToken(token), now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, ErrUnauthenticated
		}
		log.Error("session lookup failed", "error", err)
		return domain.Account{}, domain.Internal(err)
	}

	// The token must belong to the session's account; a mismatch means the
	// token was re-minted elsewhere.
	if session.AccountID != claims.Subject {
		return domain.Account{}, ErrUnauthenticated
	}

	account, err := s.Store.Accounts().GetByID(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, ErrUnauthenticated
		}
		log.Error("account lookup failed", "error", err)
		return domain.Account{}, domain.Internal(err)
	}

	if !account.Role.IsStaff() {
		return domain.Account{}, ErrUnauthenticated
	}

	return account, nil
}

// Revoke removes exactly the presenting session. Other sessions of the same
// account stay alive.
func (s *SessionService) Revoke(ctx context.Context, accountID, token string) error {
	err := s.Store.Sessions().DeleteByTokenHash(ctx, accountID, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Already gone; logout is idempotent.
			return nil
		}
		return domain.Internal(err)
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/metamasonz/backoffice/internal/admin/domain"
	"github.com/metamasonz/backoffice/internal/admin/store"
	"github.com/metamasonz/backoffice/pkg/idx"
	"github.com/metamasonz/backoffice/pkg/slogx"
)

var (
	// ErrBadCredentials covers both unknown email and wrong password, so a
	// probe cannot tell registered emails from unregistered ones.
	ErrBadCredentials = domain.E(domain.KindUnauthenticated, "Invalid credentials")

	ErrAccountNotFound = domain.E(domain.KindNotFound, "Account not found")
	ErrProtectedDelete = domain.E(domain.KindForbidden, "Protected accounts cannot be deleted")
	ErrSelfDelete      = domain.E(domain.KindForbidden, "Cannot delete your own account")
)

// AccountService owns staff authentication and account administration.
type AccountService struct {
	Store       store.Store
	Credentials *CredentialService
	Sessions    *SessionService

	// Now is the clock, overridable in tests.
	Now func() time.Time
}

func (s *AccountService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Authenticate checks credentials and, on success, resets the failure counter,
// stamps last login, and issues a session token. Lockout is evaluated before
// the password so a locked account leaks nothing about the guess, and a
// failure during an active lock does not advance the counter further.
func (s *AccountService) Authenticate(
	ctx context.Context,
	email, password string,
	cc domain.ClientContext,
) (string, domain.Account, error) {
	log := slogx.FromContext(ctx)
	now := s.now()
	email = strings.ToLower(strings.TrimSpace(email))

	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return "", domain.Account{}, domain.Validation("Valid email required", map[string]string{"email": "Invalid email format"})
	}
	if password == "" {
		return "", domain.Account{}, domain.Validation("Password required", map[string]string{"password": "Password required"})
	}

	account, err := s.Store.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", domain.Account{}, ErrBadCredentials
		}
		return "", domain.Account{}, domain.Internal(err)
	}

	if !account.Role.IsStaff() {
		return "", domain.Account{}, ErrBadCredentials
	}

	if account.Locked(now) {
		remaining := int(account.LockUntil.Sub(now).Seconds()) + 1
		log.Warn("login attempt on locked account", "account_id", account.ID, "retry_after", remaining)
		return "", domain.Account{}, domain.Locked(remaining)
	}

	if !s.Credentials.Verify(password, account.PasswordHash) {
		if err := s.Credentials.RecordFailedAttempt(ctx, account); err != nil {
			log.Error("failed to record login attempt", "account_id", account.ID, "error", err)
		}
		return "", domain.Account{}, ErrBadCredentials
	}

	if err := s.Credentials.RecordSuccess(ctx, account.ID); err != nil {
		return "", domain.Account{}, domain.Internal(err)
	}
	if err := s.Store.Accounts().RecordLogin(ctx, account.ID, now); err != nil {
		return "", domain.Account{}, domain.Internal(err)
	}
	account.LoginAttempts = 0
	account.LockUntil = nil
	account.LastLogin = &now

	token, err := s.Sessions.Issue(ctx, account, cc)
	if err != nil {
		return "", domain.Account{}, err
	}

	log.Info("staff login", "account_id", account.ID, "role", account.Role.String())
	return token, account, nil
}

// EndSession revokes the presenting token only.
func (s *AccountService) EndSession(ctx context.Context, accountID, token string) error {
	return s.Sessions.Revoke(ctx, accountID, token)
}

// Get returns one account.
func (s *AccountService) Get(ctx context.Context, id string) (domain.Account, error) {
	account, err := s.Store.Accounts().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, ErrAccountNotFound
		}
		return domain.Account{}, domain.Internal(err)
	}
	return account, nil
}

// List returns all staff accounts with their approval counts.
func (s *AccountService) List(ctx context.Context) ([]domain.AccountStats, error) {
	accounts, err := s.Store.Accounts().ListWithStats(ctx)
	if err != nil {
		return nil, domain.Internal(err)
	}
	return accounts, nil
}

// ChangeRole moves an account to another grantable role. The top role is
// assigned only at bootstrap and never via this path, and protected accounts
// keep their role.
func (s *AccountService) ChangeRole(ctx context.Context, id string, role domain.Role, actor domain.Account) (domain.Account, error) {
	if !role.Grantable() {
		return domain.Account{}, domain.Validation("Invalid role", map[string]string{"role": "Role must be admin or moderator"})
	}

	account, err := s.Get(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}
	if account.Protected {
		return domain.Account{}, domain.E(domain.KindForbidden, "Protected accounts cannot change role")
	}
	if !actor.Role.AtLeast(domain.RoleSuperAdmin) {
		return domain.Account{}, domain.E(domain.KindForbidden, "superAdmin role required")
	}

	if err := s.Store.Accounts().UpdateRole(ctx, id, role); err != nil {
		return domain.Account{}, domain.Internal(err)
	}
	account.Role = role

	slogx.FromContext(ctx).Info("account role changed",
		"account_id", id,
		"role", role.String(),
		"actor", actor.ID,
	)
	return account, nil
}

// Delete removes an account. Sessions go with it; authored invites and
// reviewed submissions are detached, not destroyed. Protected accounts and
// the actor's own account are refused.
func (s *AccountService) Delete(ctx context.Context, id string, actor domain.Account) error {
	if id == actor.ID {
		return ErrSelfDelete
	}

	account, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if account.Protected {
		return ErrProtectedDelete
	}

	if err := s.Store.Accounts().Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAccountNotFound
		}
		return domain.Internal(err)
	}

	slogx.FromContext(ctx).Info("account deleted", "account_id", id, "actor", actor.ID)
	return nil
}

// SeedConfig describes the bootstrap superAdmin created on an empty database.
type SeedConfig struct {
	Name     string
	Email    string
	Password string
}

// Seed creates the initial protected superAdmin when no accounts exist yet.
// It is a no-op on a populated database.
func (s *AccountService) Seed(ctx context.Context, cfg SeedConfig) error {
	log := slogx.FromContext(ctx)

	empty, err := s.Store.Accounts().IsEmpty(ctx)
	if err != nil {
		return domain.Internal(err)
	}
	if !empty {
		return nil
	}
	if cfg.Email == "" || cfg.Password == "" {
		log.Warn("database empty but no seed account configured")
		return nil
	}

	hash, err := s.Credentials.Hash(cfg.Password)
	if err != nil {
		return domain.Internal(err)
	}

	account := domain.Account{
		ID:           idx.New().String(),
		Name:         cfg.Name,
		Email:        strings.ToLower(strings.TrimSpace(cfg.Email)),
		PasswordHash: hash,
		Role:         domain.RoleSuperAdmin,
		Verified:     true,
		Protected:    true,
	}
	if err := s.Store.Accounts().Create(ctx, account); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Another instance seeded first.
			return nil
		}
		return domain.Internal(err)
	}

	log.Info("bootstrap superAdmin created", "account_id", account.ID, "email", account.Email)
	return nil
}

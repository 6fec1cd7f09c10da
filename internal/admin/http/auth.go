package http

import (
	"net/http"

	"github.com/metamasonz/backoffice/internal/admin/domain"
	"github.com/metamasonz/backoffice/internal/admin/service"
)

// accountView is the account shape returned to clients. The password hash and
// lockout counters never leave the server.
type accountView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Verified bool   `json:"verified"`
}

func viewAccount(a domain.Account) accountView {
	return accountView{
		ID:       a.ID,
		Name:     a.Name,
		Email:    a.Email,
		Role:     a.Role.String(),
		Verified: a.Verified,
	}
}

type LoginHandler struct {
	Accounts *service.AccountService
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	token, account, err := h.Accounts.Authenticate(ctx, req.Email, req.Password, clientContext(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  viewAccount(account),
	})
}

type RegisterHandler struct {
	Invites *service.InviteService
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		InviteCode string `json:"inviteCode"`
		Email      string `json:"email"`
		Password   string `json:"password"`
		Name       string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	token, account, err := h.Invites.Redeem(ctx, req.InviteCode, req.Email, req.Password, req.Name, clientContext(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, map[string]any{
		"token": token,
		"user":  viewAccount(account),
	})
}

type LogoutHandler struct {
	Accounts *service.AccountService
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	account, ok := accountFrom(ctx)
	if !ok {
		writeError(w, r, service.ErrUnauthenticated)
		return
	}

	if err := h.Accounts.EndSession(ctx, account.ID, tokenFrom(ctx)); err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "Logged out")
}

type MeHandler struct{}

func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	account, ok := accountFrom(r.Context())
	if !ok {
		writeError(w, r, service.ErrUnauthenticated)
		return
	}

	writeData(w, http.StatusOK, viewAccount(account))
}

type VerifyHandler struct{}

func (h *VerifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	account, ok := accountFrom(r.Context())
	if !ok {
		writeError(w, r, service.ErrUnauthenticated)
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"valid": true,
		"role":  account.Role.String(),
	})
}

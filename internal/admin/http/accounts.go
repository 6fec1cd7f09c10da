package http

import (
	"net/http"
	"time"

	"github.com/metamasonz/backoffice/internal/admin/domain"
	"github.com/metamasonz/backoffice/internal/admin/service"
)

// accountStatsView is the admin listing shape.
type accountStatsView struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Protected      bool      `json:"protected"`
	ApprovalsCount int       `json:"approvalsCount"`
	CreatedAt      time.Time `json:"createdAt"`
}

type AccountsHandler struct {
	Accounts *service.AccountService
}

func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Accounts.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]accountStatsView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, accountStatsView{
			ID:             a.ID,
			Name:           a.Name,
			Email:          a.Email,
			Role:           a.Role.String(),
			Protected:      a.Protected,
			ApprovalsCount: a.ApprovalsCount,
			CreatedAt:      a.CreatedAt,
		})
	}
	writeData(w, http.StatusOK, views)
}

func (h *AccountsHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := accountFrom(ctx)
	if !ok {
		writeError(w, r, service.ErrUnauthenticated)
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	role, ok := domain.ParseRole(req.Role)
	if !ok {
		writeError(w, r, domain.Validation("Invalid role", map[string]string{"role": "Unknown role"}))
		return
	}

	account, err := h.Accounts.ChangeRole(ctx, r.PathValue("id"), role, actor)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, viewAccount(account))
}

func (h *AccountsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := accountFrom(ctx)
	if !ok {
		writeError(w, r, service.ErrUnauthenticated)
		return
	}

	if err := h.Accounts.Delete(ctx, r.PathValue("id"), actor); err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "Account deleted")
}

package http

import (
	"net/http"
	"time"

	"github.com/metamasonz/backoffice/internal/admin/domain"
	"github.com/metamasonz/backoffice/internal/admin/service"
)

// inviteView is the listing shape for invites.
type inviteView struct {
	ID           string     `json:"id"`
	Code         string     `json:"code"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	Status       string     `json:"status"`
	ExpiresAt    time.Time  `json:"expiresAt"`
	UsedAt       *time.Time `json:"usedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	CreatorName  string     `json:"creatorName,omitempty"`
	CreatorMail  string     `json:"creatorEmail,omitempty"`
	RedeemerName string     `json:"redeemerName,omitempty"`
}

func viewInvite(i domain.Invite) inviteView {
	return inviteView{
		ID:           i.ID,
		Code:         i.Code,
		Email:        i.Email,
		Role:         i.Role.String(),
		Status:       string(i.Status),
		ExpiresAt:    i.ExpiresAt,
		UsedAt:       i.UsedAt,
		CreatedAt:    i.CreatedAt,
		CreatorName:  i.CreatorName,
		CreatorMail:  i.CreatorMail,
		RedeemerName: i.RedeemerName,
	}
}

type InvitesHandler struct {
	Invites *service.InviteService
}

func (h *InvitesHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := accountFrom(ctx)
	if !ok {
		writeError(w, r, service.ErrUnauthenticated)
		return
	}

	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
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

	invite, err := h.Invites.Generate(ctx, req.Email, role, actor)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, viewInvite(invite))
}

func (h *InvitesHandler) List(w http.ResponseWriter, r *http.Request) {
	invites, err := h.Invites.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]inviteView, 0, len(invites))
	for _, i := range invites {
		views = append(views, viewInvite(i))
	}
	writeData(w, http.StatusOK, views)
}

func (h *InvitesHandler) Resend(w http.ResponseWriter, r *http.Request) {
	invite, err := h.Invites.Resend(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, viewInvite(invite))
}

func (h *InvitesHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := accountFrom(ctx)
	if !ok {
		writeError(w, r, service.ErrUnauthenticated)
		return
	}

	invite, err := h.Invites.Revoke(ctx, r.PathValue("id"), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, viewInvite(invite))
}

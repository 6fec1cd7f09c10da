package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/metamasonz/backoffice/internal/admin/domain"
	"github.com/metamasonz/backoffice/internal/admin/service"
	"github.com/metamasonz/backoffice/internal/admin/store"
)

type statusChangeView struct {
	Status    string    `json:"status"`
	ChangedBy string    `json:"changedBy,omitempty"`
	ChangedAt time.Time `json:"changedAt"`
}

type submissionView struct {
	ID           string             `json:"id"`
	ProjectName  string             `json:"projectName"`
	Description  string             `json:"description"`
	Email        string             `json:"email,omitempty"`
	Socials      domain.Socials     `json:"socials"`
	Code         string             `json:"code"`
	Status       string             `json:"status"`
	StatusLocked bool               `json:"statusLocked"`
	History      []statusChangeView `json:"statusHistory,omitempty"`
	SubmittedAt  time.Time          `json:"submittedAt"`
}

func viewSubmission(s domain.Submission) submissionView {
	v := submissionView{
		ID:           s.ID,
		ProjectName:  s.ProjectName,
		Description:  s.Description,
		Email:        s.Email,
		Socials:      s.Socials,
		Code:         s.Code,
		Status:       string(s.Status),
		StatusLocked: s.StatusLocked,
		SubmittedAt:  s.SubmittedAt,
	}
	for _, h := range s.History {
		v.History = append(v.History, statusChangeView{
			Status:    string(h.Status),
			ChangedBy: h.ChangedBy,
			ChangedAt: h.ChangedAt,
		})
	}
	return v
}

type SubmissionsHandler struct {
	Submissions *service.SubmissionService
}

func (h *SubmissionsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectName string         `json:"projectName"`
		Description string         `json:"description"`
		Email       string         `json:"email"`
		Socials     domain.Socials `json:"socials"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	sub, err := h.Submissions.Submit(r.Context(), domain.Submission{
		ProjectName: req.ProjectName,
		Description: req.Description,
		Email:       req.Email,
		Socials:     req.Socials,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Intake confirms with the reference code only.
	writeData(w, http.StatusCreated, map[string]any{
		"code":   sub.Code,
		"status": string(sub.Status),
	})
}

func (h *SubmissionsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter store.SubmissionFilter
	if raw := q.Get("status"); raw != "" {
		status, ok := domain.ParseSubmissionStatus(raw)
		if !ok {
			writeError(w, r, domain.Validation("Invalid status filter", map[string]string{"status": "Unknown status"}))
			return
		}
		filter.Status = status
	}
	filter.Oldest = q.Get("order") == "oldest"
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			filter.Limit = n
		}
	}

	subs, err := h.Submissions.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]submissionView, 0, len(subs))
	for _, s := range subs {
		views = append(views, viewSubmission(s))
	}
	writeData(w, http.StatusOK, views)
}

func (h *SubmissionsHandler) Search(w http.ResponseWriter, r *http.Request) {
	subs, err := h.Submissions.Search(r.Context(), r.URL.Query().Get("q"), 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]submissionView, 0, len(subs))
	for _, s := range subs {
		views = append(views, viewSubmission(s))
	}
	writeData(w, http.StatusOK, views)
}

func (h *SubmissionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	sub, err := h.Submissions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, viewSubmission(sub))
}

func (h *SubmissionsHandler) Transition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := accountFrom(ctx)
	if !ok {
		writeError(w, r, service.ErrUnauthenticated)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	status, ok := domain.ParseSubmissionStatus(req.Status)
	if !ok {
		writeError(w, r, domain.Validation("Invalid status", map[string]string{"status": "Unknown status"}))
		return
	}

	sub, err := h.Submissions.Transition(ctx, r.PathValue("id"), status, actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, viewSubmission(sub))
}

func (h *SubmissionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := accountFrom(ctx)
	if !ok {
		writeError(w, r, service.ErrUnauthenticated)
		return
	}

	if err := h.Submissions.Delete(ctx, r.PathValue("id"), actor); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Submission deleted")
}

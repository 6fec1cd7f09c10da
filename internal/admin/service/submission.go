package service

import (
	"context"
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/metamasonz/backoffice/internal/admin/domain"
	"github.com/metamasonz/backoffice/internal/admin/mail"
	"github.com/metamasonz/backoffice/internal/admin/notify"
	"github.com/metamasonz/backoffice/internal/admin/store"
	"github.com/metamasonz/backoffice/pkg/cryptox"
	"github.com/metamasonz/backoffice/pkg/idx"
	"github.com/metamasonz/backoffice/pkg/slogx"
)

// SubmissionCodeLength is the length of the human-shareable reference code.
const SubmissionCodeLength = 6

var (
	ErrSubmissionNotFound = domain.E(domain.KindNotFound, "Submission not found")
	ErrSubmissionFinal    = domain.E(domain.KindFinalized, "Submission status is locked")
)

// SubmissionService handles intake, review transitions, and lookup of
// project submissions.
type SubmissionService struct {
	Store  store.Store
	Mail   mail.Dispatcher
	Notify notify.Publisher

	// Now is the clock, overridable in tests.
	Now func() time.Time
}

func (s *SubmissionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Submit validates and stores a new submission in the pending state. A
// confirmation mail goes out fire-and-forget when a direct email was given,
// and staff are notified of the new arrival.
func (s *SubmissionService) Submit(ctx context.Context, sub domain.Submission) (domain.Submission, error) {
	log := slogx.FromContext(ctx)
	now := s.now()

	sub.NormalizeContact()
	if err := sub.Validate(); err != nil {
		return domain.Submission{}, domain.Validation("Submission failed validation", validationFields(err))
	}

	sub.ID = idx.New().String()
	sub.Status = domain.SubmissionPending
	sub.StatusLocked = false
	sub.ApprovedBy = ""
	sub.RejectedBy = ""
	sub.History = nil
	sub.SubmittedAt = now

	// Retry on the astronomically unlikely code collision.
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		sub.Code, err = cryptox.GenerateSubmissionCode(SubmissionCodeLength)
		if err != nil {
			return domain.Submission{}, domain.Internal(err)
		}
		err = s.Store.Submissions().Create(ctx, sub)
		if !errors.Is(err, store.ErrAlreadyExists) {
			break
		}
	}
	if err != nil {
		log.Error("failed to create submission", "project", sub.ProjectName, "error", err)
		return domain.Submission{}, domain.Internal(err)
	}

	if sub.Email != "" {
		go func() {
			if ok := s.Mail.Send(context.WithoutCancel(ctx), mail.TemplateSubmissionReceived,
				[]string{sub.Code, sub.ProjectName}, sub.Email); !ok {
				log.Warn("submission mail dispatch failed", "submission_id", sub.ID)
			}
		}()
	}

	s.publishToStaff(notify.Event{
		Name: "submission.created",
		Payload: map[string]any{
			"id":          sub.ID,
			"projectName": sub.ProjectName,
			"code":        sub.Code,
			"status":      string(sub.Status),
		},
	})

	log.Info("submission received",
		"submission_id", sub.ID,
		"project", sub.ProjectName,
		"code", sub.Code,
	)
	return sub, nil
}

// Transition applies a reviewed status change. The lock check runs before the
// transition table so a repeat decision on a finalized submission reports
// Finalized, not InvalidTransition. Exactly one history entry is appended per
// successful transition, atomically with the status change.
func (s *SubmissionService) Transition(
	ctx context.Context,
	id string,
	to domain.SubmissionStatus,
	actor domain.Account,
) (domain.Submission, error) {
	log := slogx.FromContext(ctx)
	now := s.now()

	sub, err := s.Store.Submissions().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Submission{}, ErrSubmissionNotFound
		}
		return domain.Submission{}, domain.Internal(err)
	}

	if sub.StatusLocked || sub.Status.Terminal() {
		return domain.Submission{}, ErrSubmissionFinal
	}
	if !sub.Status.CanTransition(to) {
		return domain.Submission{}, domain.E(domain.KindInvalidTransition,
			"Cannot transition from "+string(sub.Status)+" to "+string(to))
	}

	var approvedBy, rejectedBy string
	switch to {
	case domain.SubmissionApproved:
		approvedBy = actor.ID
	case domain.SubmissionRejected:
		rejectedBy = actor.ID
	}

	entry := domain.StatusChange{
		ID:           idx.New().String(),
		SubmissionID: sub.ID,
		Status:       to,
		ChangedBy:    actor.ID,
		ChangedAt:    now,
	}

	locked := to.Terminal()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Submissions().UpdateStatus(ctx, sub.ID, to, locked, approvedBy, rejectedBy); err != nil {
			return err
		}
		return tx.Submissions().AppendHistory(ctx, entry)
	})
	if err != nil {
		// Zero rows means another reviewer finalized the row between our read
		// and the update.
		if errors.Is(err, store.ErrNotFound) {
			return domain.Submission{}, ErrSubmissionFinal
		}
		log.Error("submission transition failed", "submission_id", sub.ID, "error", err)
		return domain.Submission{}, domain.Internal(err)
	}

	sub.Status = to
	sub.StatusLocked = locked
	sub.ApprovedBy = approvedBy
	sub.RejectedBy = rejectedBy
	sub.History = append(sub.History, entry)

	s.publishToStaff(notify.Event{
		Name: "submission.status",
		Payload: map[string]any{
			"id":        sub.ID,
			"status":    string(to),
			"changedBy": actor.ID,
		},
	})

	log.Info("submission transitioned",
		"submission_id", sub.ID,
		"status", string(to),
		"actor", actor.ID,
	)
	return sub, nil
}

// Get returns one submission with its full audit trail.
func (s *SubmissionService) Get(ctx context.Context, id string) (domain.Submission, error) {
	sub, err := s.Store.Submissions().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Submission{}, ErrSubmissionNotFound
		}
		return domain.Submission{}, domain.Internal(err)
	}
	return sub, nil
}

// List returns submissions per filter.
func (s *SubmissionService) List(ctx context.Context, f store.SubmissionFilter) ([]domain.Submission, error) {
	subs, err := s.Store.Submissions().List(ctx, f)
	if err != nil {
		return nil, domain.Internal(err)
	}
	return subs, nil
}

// Search matches a reference code exactly or project name, email, and founder
// handle by substring.
func (s *SubmissionService) Search(ctx context.Context, term string, limit int) ([]domain.Submission, error) {
	if len(term) < 2 {
		return nil, domain.Validation("Search term too short", map[string]string{"q": "At least 2 characters required"})
	}
	subs, err := s.Store.Submissions().Search(ctx, term, limit)
	if err != nil {
		return nil, domain.Internal(err)
	}
	return subs, nil
}

// Delete removes a submission and its history. superAdmin only.
func (s *SubmissionService) Delete(ctx context.Context, id string, actor domain.Account) error {
	if actor.Role != domain.RoleSuperAdmin {
		return domain.E(domain.KindForbidden, "superAdmin role required")
	}
	if err := s.Store.Submissions().Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSubmissionNotFound
		}
		return domain.Internal(err)
	}
	slogx.FromContext(ctx).Info("submission deleted", "submission_id", id, "actor", actor.ID)
	return nil
}

// publishToStaff fans an event out to every staff role topic.
func (s *SubmissionService) publishToStaff(ev notify.Event) {
	if s.Notify == nil {
		return
	}
	for _, role := range domain.StaffRoles {
		ev.Topic = role.String()
		s.Notify.Publish(ev.Topic, ev)
	}
}

// validationFields flattens ozzo errors into the field map carried by the
// response contract.
func validationFields(err error) map[string]string {
	fields := map[string]string{}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			fields[field] = ferr.Error()
		}
		return fields
	}
	fields["_"] = err.Error()
	return fields
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/metamasonz/backoffice/internal/admin/domain"
	"github.com/metamasonz/backoffice/internal/admin/mail"
	"github.com/metamasonz/backoffice/internal/admin/notify"
	"github.com/metamasonz/backoffice/internal/admin/store"
)

func validSubmission() domain.Submission {
	return domain.Submission{
		ProjectName: "Test Project",
		Description: "A project description long enough to clear the fifty character minimum.",
		Email:       "Founder@Example.com",
		Socials: domain.Socials{
			X:        "@testproject",
			Telegram: "testproject",
			Discord:  "testproject",
		},
	}
}

func newSubmissionService(t *testing.T) (*SubmissionService, *mailRecorder, *notify.Hub) {
	t.Helper()

	st := newTestStore(t)
	rec := &mailRecorder{}
	hub := notify.NewHub()
	return &SubmissionService{Store: st, Mail: rec, Notify: hub}, rec, hub
}

func TestSubmit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, rec, hub := newSubmissionService(t)

	t.Run("normalizes contacts and assigns a code", func(t *testing.T) {
		events, cancel := hub.Subscribe(domain.RoleAdmin.String())
		defer cancel()

		sub, err := svc.Submit(ctx, validSubmission())
		require.NoError(t, err)
		require.Equal(t, domain.SubmissionPending, sub.Status)
		require.False(t, sub.StatusLocked)
		require.Len(t, sub.Code, SubmissionCodeLength)

		require.Equal(t, "founder@example.com", sub.Email)
		require.Equal(t, "testproject", sub.Socials.X)
		require.Equal(t, "@testproject", sub.Socials.Telegram)
		require.Equal(t, "https://discord.gg/testproject", sub.Socials.Discord)

		sends := rec.waitFor(t, 1)
		require.Equal(t, mail.TemplateSubmissionReceived, sends[0].Template)
		require.Equal(t, "founder@example.com", sends[0].Recipient)
		require.Equal(t, []string{sub.Code, sub.ProjectName}, sends[0].Args)

		select {
		case ev := <-events:
			require.Equal(t, "submission.created", ev.Name)
		case <-time.After(time.Second):
			t.Fatal("expected a staff notification")
		}
	})

	t.Run("no mail without a direct email", func(t *testing.T) {
		in := validSubmission()
		in.Email = ""
		in.Socials.FounderTg = "@founderhandle"

		_, err := svc.Submit(ctx, in)
		require.NoError(t, err)
	})

	t.Run("validation failures carry field detail", func(t *testing.T) {
		in := validSubmission()
		in.Description = "too short"
		in.Socials.Telegram = "bad handle!"

		_, err := svc.Submit(ctx, in)
		require.Equal(t, domain.KindValidation, domain.KindOf(err))

		e := domain.AsError(err)
		require.Contains(t, e.Fields, "description")
		require.Contains(t, e.Fields, "telegram")
	})

	t.Run("requires a reachable contact", func(t *testing.T) {
		in := validSubmission()
		in.Email = ""
		in.Socials.FounderTg = ""

		_, err := svc.Submit(ctx, in)
		require.Equal(t, domain.KindValidation, domain.KindOf(err))
		require.Contains(t, domain.AsError(err).Fields, "founderTg")
	})
}

func TestTransition(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newSubmissionService(t)

	reviewer := seedAccount(t, svc.Store, "reviewer@example.com", "Password123!", domain.RoleModerator)

	submit := func(t *testing.T) domain.Submission {
		t.Helper()
		sub, err := svc.Submit(ctx, validSubmission())
		require.NoError(t, err)
		return sub
	}

	t.Run("approve locks and records exactly one history entry", func(t *testing.T) {
		sub := submit(t)

		approved, err := svc.Transition(ctx, sub.ID, domain.SubmissionApproved, reviewer)
		require.NoError(t, err)
		require.Equal(t, domain.SubmissionApproved, approved.Status)
		require.True(t, approved.StatusLocked)
		require.Equal(t, reviewer.ID, approved.ApprovedBy)

		stored, err := svc.Get(ctx, sub.ID)
		require.NoError(t, err)
		require.Len(t, stored.History, 1)
		require.Equal(t, domain.SubmissionApproved, stored.History[0].Status)
		require.Equal(t, reviewer.ID, stored.History[0].ChangedBy)
	})

	t.Run("finalized submissions refuse any further decision", func(t *testing.T) {
		sub := submit(t)
		_, err := svc.Transition(ctx, sub.ID, domain.SubmissionRejected, reviewer)
		require.NoError(t, err)

		_, err = svc.Transition(ctx, sub.ID, domain.SubmissionApproved, reviewer)
		require.ErrorIs(t, err, ErrSubmissionFinal)

		// Repeating the same terminal decision is also refused.
		_, err = svc.Transition(ctx, sub.ID, domain.SubmissionRejected, reviewer)
		require.ErrorIs(t, err, ErrSubmissionFinal)

		stored, err := svc.Get(ctx, sub.ID)
		require.NoError(t, err)
		require.Len(t, stored.History, 1)
		require.Equal(t, reviewer.ID, stored.RejectedBy)
	})

	t.Run("decision lost to a concurrent reviewer reports finalized", func(t *testing.T) {
		sub := submit(t)

		raced := &SubmissionService{Store: &staleReadStore{Store: svc.Store}, Mail: svc.Mail}
		_, err := raced.Transition(ctx, sub.ID, domain.SubmissionRejected, reviewer)
		require.ErrorIs(t, err, ErrSubmissionFinal)

		stored, err := svc.Get(ctx, sub.ID)
		require.NoError(t, err)
		require.Equal(t, domain.SubmissionApproved, stored.Status)
		require.Empty(t, stored.RejectedBy)
		require.Empty(t, stored.History)
	})

	t.Run("pending is not reachable from pending", func(t *testing.T) {
		sub := submit(t)
		_, err := svc.Transition(ctx, sub.ID, domain.SubmissionPending, reviewer)
		require.Equal(t, domain.KindInvalidTransition, domain.KindOf(err))
	})

	t.Run("unknown submission", func(t *testing.T) {
		_, err := svc.Transition(ctx, "missing", domain.SubmissionApproved, reviewer)
		require.ErrorIs(t, err, ErrSubmissionNotFound)
	})
}

// staleReadStore hands out a pending snapshot while finalizing the row
// underneath, so the caller's subsequent write races a finished review.
type staleReadStore struct {
	store.Store
}

func (s *staleReadStore) Submissions() store.Submissions {
	return &staleReadSubmissions{Submissions: s.Store.Submissions()}
}

type staleReadSubmissions struct {
	store.Submissions
}

func (s *staleReadSubmissions) GetByID(ctx context.Context, id string) (domain.Submission, error) {
	sub, err := s.Submissions.GetByID(ctx, id)
	if err == nil && !sub.StatusLocked {
		if uerr := s.Submissions.UpdateStatus(ctx, id, domain.SubmissionApproved, true, "", ""); uerr != nil {
			return domain.Submission{}, uerr
		}
	}
	return sub, err
}

func TestSubmissionQueries(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newSubmissionService(t)

	reviewer := seedAccount(t, svc.Store, "reviewer@example.com", "Password123!", domain.RoleModerator)
	super := seedAccount(t, svc.Store, "super@example.com", "Password123!", domain.RoleSuperAdmin)

	first, err := svc.Submit(ctx, validSubmission())
	require.NoError(t, err)

	second := validSubmission()
	second.ProjectName = "Another Project"
	secondSub, err := svc.Submit(ctx, second)
	require.NoError(t, err)

	_, err = svc.Transition(ctx, secondSub.ID, domain.SubmissionApproved, reviewer)
	require.NoError(t, err)

	t.Run("list by status", func(t *testing.T) {
		pending, err := svc.List(ctx, store.SubmissionFilter{Status: domain.SubmissionPending})
		require.NoError(t, err)
		require.Len(t, pending, 1)
		require.Equal(t, first.ID, pending[0].ID)
	})

	t.Run("search by code", func(t *testing.T) {
		found, err := svc.Search(ctx, first.Code, 0)
		require.NoError(t, err)
		require.Len(t, found, 1)
		require.Equal(t, first.ID, found[0].ID)
	})

	t.Run("short search term rejected", func(t *testing.T) {
		_, err := svc.Search(ctx, "a", 0)
		require.Equal(t, domain.KindValidation, domain.KindOf(err))
	})

	t.Run("delete requires superAdmin", func(t *testing.T) {
		err := svc.Delete(ctx, first.ID, reviewer)
		require.Equal(t, domain.KindForbidden, domain.KindOf(err))

		require.NoError(t, svc.Delete(ctx, first.ID, super))
		_, err = svc.Get(ctx, first.ID)
		require.ErrorIs(t, err, ErrSubmissionNotFound)
	})
}

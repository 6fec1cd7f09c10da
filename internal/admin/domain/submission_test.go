package domain

import (
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/stretchr/testify/require"
)

func validTestSubmission() Submission {
	return Submission{
		ProjectName: "Test Project",
		Description: "A project description long enough to clear the fifty character minimum.",
		Email:       "founder@example.com",
		Socials: Socials{
			X:        "project",
			Telegram: "@project",
			Discord:  "https://discord.gg/project",
		},
	}
}

func TestNormalizeContact(t *testing.T) {
	t.Parallel()

	t.Run("strips leading @ from X handles", func(t *testing.T) {
		s := Submission{Socials: Socials{X: " @handle "}}
		s.NormalizeContact()
		require.Equal(t, "handle", s.Socials.X)
	})

	t.Run("prefixes Telegram with @", func(t *testing.T) {
		s := Submission{Socials: Socials{Telegram: "handle"}}
		s.NormalizeContact()
		require.Equal(t, "@handle", s.Socials.Telegram)

		s = Submission{Socials: Socials{Telegram: "@already"}}
		s.NormalizeContact()
		require.Equal(t, "@already", s.Socials.Telegram)
	})

	t.Run("expands bare Discord slugs", func(t *testing.T) {
		s := Submission{Socials: Socials{Discord: "myserver"}}
		s.NormalizeContact()
		require.Equal(t, "https://discord.gg/myserver", s.Socials.Discord)

		s = Submission{Socials: Socials{Discord: "https://discord.gg/myserver"}}
		s.NormalizeContact()
		require.Equal(t, "https://discord.gg/myserver", s.Socials.Discord)
	})

	t.Run("lowercases email", func(t *testing.T) {
		s := Submission{Email: " Founder@Example.COM "}
		s.NormalizeContact()
		require.Equal(t, "founder@example.com", s.Email)
	})
}

func TestSubmissionValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid submission passes", func(t *testing.T) {
		require.NoError(t, validTestSubmission().Validate())
	})

	t.Run("founder telegram alone satisfies contact", func(t *testing.T) {
		s := validTestSubmission()
		s.Email = ""
		s.Socials.FounderTg = "@founder"
		require.NoError(t, s.Validate())
	})

	fieldError := func(t *testing.T, err error, field string) {
		t.Helper()
		var verrs validation.Errors
		require.ErrorAs(t, err, &verrs)
		require.Contains(t, verrs, field)
	}

	t.Run("short description", func(t *testing.T) {
		s := validTestSubmission()
		s.Description = "too short"
		fieldError(t, s.Validate(), "description")
	})

	t.Run("bad X handle", func(t *testing.T) {
		s := validTestSubmission()
		s.Socials.X = "this-handle-is-way-too-long-for-x"
		fieldError(t, s.Validate(), "x")
	})

	t.Run("bad Telegram handle", func(t *testing.T) {
		s := validTestSubmission()
		s.Socials.Telegram = "@abc" // below the 5 character minimum
		fieldError(t, s.Validate(), "telegram")
	})

	t.Run("bad Discord link", func(t *testing.T) {
		s := validTestSubmission()
		s.Socials.Discord = "https://example.com/invite"
		fieldError(t, s.Validate(), "discord")
	})

	t.Run("no reachable contact", func(t *testing.T) {
		s := validTestSubmission()
		s.Email = ""
		s.Socials.FounderTg = ""

		var verrs validation.Errors
		require.ErrorAs(t, s.Validate(), &verrs)
		require.Contains(t, verrs, "founderTg")
		require.EqualError(t, verrs["founderTg"], "Either email or founder Telegram required")
	})
}

func TestSubmissionTransitions(t *testing.T) {
	t.Parallel()

	require.True(t, SubmissionPending.CanTransition(SubmissionApproved))
	require.True(t, SubmissionPending.CanTransition(SubmissionRejected))
	require.False(t, SubmissionPending.CanTransition(SubmissionPending))

	for _, terminal := range []SubmissionStatus{SubmissionApproved, SubmissionRejected} {
		require.True(t, terminal.Terminal())
		require.False(t, terminal.CanTransition(SubmissionPending))
		require.False(t, terminal.CanTransition(SubmissionApproved))
		require.False(t, terminal.CanTransition(SubmissionRejected))
	}

	require.False(t, SubmissionPending.Terminal())
}

func TestParseSubmissionStatus(t *testing.T) {
	t.Parallel()

	status, ok := ParseSubmissionStatus("approved")
	require.True(t, ok)
	require.Equal(t, SubmissionApproved, status)

	_, ok = ParseSubmissionStatus("Approved")
	require.False(t, ok)

	_, ok = ParseSubmissionStatus("")
	require.False(t, ok)
}

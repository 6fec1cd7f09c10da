package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// SubmissionStatus is the review workflow state.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// submissionTransitions is the full transition table. Terminal statuses
// allow nothing.
var submissionTransitions = map[SubmissionStatus][]SubmissionStatus{
	SubmissionPending:  {SubmissionApproved, SubmissionRejected},
	SubmissionApproved: {},
	SubmissionRejected: {},
}

// ParseSubmissionStatus validates a raw status string.
func ParseSubmissionStatus(s string) (SubmissionStatus, bool) {
	switch SubmissionStatus(s) {
	case SubmissionPending, SubmissionApproved, SubmissionRejected:
		return SubmissionStatus(s), true
	}
	return "", false
}

// Terminal reports whether s permits no further transition.
func (s SubmissionStatus) Terminal() bool {
	return s == SubmissionApproved || s == SubmissionRejected
}

// CanTransition reports whether from -> to is in the transition table.
func (s SubmissionStatus) CanTransition(to SubmissionStatus) bool {
	for _, allowed := range submissionTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Socials are the per-platform project contact handles.
type Socials struct {
	X         string `json:"x"`
	Telegram  string `json:"telegram"`
	Discord   string `json:"discord"`
	FounderTg string `json:"founderTg,omitempty"`
}

// StatusChange is one immutable entry in a submission's audit trail.
type StatusChange struct {
	ID           string
	SubmissionID string
	Status       SubmissionStatus
	ChangedBy    string
	ChangedAt    time.Time
}

// Submission is a reviewable project application.
type Submission struct {
	ID           string
	ProjectName  string
	Description  string
	Email        string // optional direct contact, lowercase
	Socials      Socials
	Code         string // human-shareable, unique
	Status       SubmissionStatus
	StatusLocked bool
	ApprovedBy   string
	RejectedBy   string
	History      []StatusChange
	SubmittedAt  time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

var (
	xHandleRe   = regexp.MustCompile(`^\w{1,15}$`)
	telegramRe  = regexp.MustCompile(`^@\w{5,32}$`)
	discordRe   = regexp.MustCompile(`^https?://discord\.gg/[\w-]{2,}$`)
	discordSlug = regexp.MustCompile(`^[\w-]{2,}$`)
)

// NormalizeContact rewrites sloppy-but-unambiguous handle forms into their
// canonical shape before validation runs: leading @ stripped from X, @ added
// to Telegram, and a bare Discord slug expanded to a full invite URL.
func (s *Submission) NormalizeContact() {
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	s.ProjectName = strings.TrimSpace(s.ProjectName)

	s.Socials.X = strings.TrimPrefix(strings.TrimSpace(s.Socials.X), "@")

	if tg := strings.TrimSpace(s.Socials.Telegram); tg != "" && !strings.HasPrefix(tg, "@") {
		s.Socials.Telegram = "@" + tg
	} else {
		s.Socials.Telegram = tg
	}

	if d := strings.TrimSpace(s.Socials.Discord); discordSlug.MatchString(d) {
		s.Socials.Discord = "https://discord.gg/" + d
	} else {
		s.Socials.Discord = d
	}

	s.Socials.FounderTg = strings.TrimSpace(s.Socials.FounderTg)
}

// Validate enforces the creation-time constraints. Call NormalizeContact
// first; validation is purely syntactic and never rewrites fields.
func (s Submission) Validate() error {
	err := validation.Errors{
		"projectName": validation.Validate(s.ProjectName,
			validation.Required.Error("Project name is required"),
			validation.Length(1, 100).Error("Project name cannot exceed 100 characters"),
		),
		"description": validation.Validate(s.Description,
			validation.Required.Error("Project description is required"),
			validation.Length(50, 2000).Error("Description must be between 50 and 2000 characters"),
		),
		"email": validation.Validate(s.Email,
			is.Email.Error("Invalid email address"),
		),
		"x": validation.Validate(s.Socials.X,
			validation.Required.Error("X (Twitter) handle is required"),
			validation.Match(xHandleRe).Error("Invalid X handle (1-15 letters/numbers)"),
		),
		"telegram": validation.Validate(s.Socials.Telegram,
			validation.Required.Error("Telegram handle is required"),
			validation.Match(telegramRe).Error("Must start with @ and 5-32 characters"),
		),
		"discord": validation.Validate(s.Socials.Discord,
			validation.Required.Error("Discord server is required"),
			validation.Match(discordRe).Error("Invalid Discord invite link"),
		),
		"founderTg": validation.Validate(s.Socials.FounderTg,
			validation.Match(telegramRe).Error("Must start with @ and 5-32 characters"),
		),
	}.Filter()
	if err != nil {
		return err
	}

	// At least one reachable contact: direct email or founder Telegram.
	if s.Email == "" && s.Socials.FounderTg == "" {
		return validation.Errors{
			"founderTg": errors.New("Either email or founder Telegram required"),
		}
	}
	return nil
}

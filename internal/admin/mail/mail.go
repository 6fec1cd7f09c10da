// Package mail dispatches transactional email. The core treats dispatch as
// advisory: a failed send is logged and never fails the parent operation.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"
)

// Dispatcher sends a templated message to a recipient. Implementations must
// never panic past the caller; they report success as a bool and keep the
// detail in their own logs.
type Dispatcher interface {
	Send(ctx context.Context, template string, args []string, recipient string) bool
}

// Template names understood by the dispatchers.
const (
	TemplateStaffInvite        = "staffInvite"
	TemplateSubmissionReceived = "submissionReceived"
)

type rendered struct {
	subject string
	html    string
}

// render builds the subject and HTML body for a template. Positional args
// mirror the send sites: staffInvite(code, email, role) and
// submissionReceived(code, projectName).
func render(template string, args []string) (rendered, error) {
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}

	switch template {
	case TemplateStaffInvite:
		code, email, role := arg(0), arg(1), arg(2)
		return rendered{
			subject: fmt.Sprintf("Metamasonz %s Invitation", role),
			html: fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Organization Invitation</h2>
  <p>You've been invited to join Metamasonz as a <strong>%s</strong>.</p>
  <div style="background: #f5f5f5; padding: 20px; border-radius: 5px;">
    <strong>Invite Code:</strong>
    <div style="font-size: 24px; letter-spacing: 2px; margin: 10px 0;">%s</div>
    <strong>Registered Email:</strong>
    <div>%s</div>
  </div>
  <p>This code expires in 24 hours.</p>
</div>`, role, code, email),
		}, nil

	case TemplateSubmissionReceived:
		code, name := arg(0), arg(1)
		return rendered{
			subject: "Your Metamasonz Submission Code",
			html: fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Hello %s,</h2>
  <p>Your submission has been received successfully!</p>
  <div style="background: #f5f5f5; padding: 20px; border-radius: 5px;">
    <strong>Submission Code:</strong>
    <div style="font-size: 24px; letter-spacing: 2px; margin: 10px 0;">%s</div>
  </div>
  <p>Keep this code safe for future reference.</p>
</div>`, name, code),
		}, nil
	}

	return rendered{}, fmt.Errorf("mail: unknown template %q", template)
}

// SMTPConfig configures the SMTP dispatcher.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPDispatcher sends over SMTP using go-mail.
type SMTPDispatcher struct {
	cfg    SMTPConfig
	client *gomail.Client
	logger *slog.Logger
}

// NewSMTPDispatcher builds a dispatcher for the given SMTP settings.
func NewSMTPDispatcher(cfg SMTPConfig, logger *slog.Logger) (*SMTPDispatcher, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail: create smtp client: %w", err)
	}

	return &SMTPDispatcher{cfg: cfg, client: client, logger: logger}, nil
}

func (d *SMTPDispatcher) Send(ctx context.Context, template string, args []string, recipient string) bool {
	body, err := render(template, args)
	if err != nil {
		d.logger.Error("mail render failed", "template", template, "error", err)
		return false
	}

	msg := gomail.NewMsg()
	if err := msg.From(d.cfg.From); err != nil {
		d.logger.Error("mail from address invalid", "from", d.cfg.From, "error", err)
		return false
	}
	if err := msg.To(recipient); err != nil {
		d.logger.Error("mail recipient invalid", "to", recipient, "error", err)
		return false
	}
	msg.Subject(body.subject)
	msg.SetBodyString(gomail.TypeTextHTML, body.html)

	if err := d.client.DialAndSendWithContext(ctx, msg); err != nil {
		d.logger.Error("mail send failed", "template", template, "to", recipient, "error", err)
		return false
	}

	d.logger.Debug("mail sent", "template", template, "to", recipient)
	return true
}

// LogDispatcher logs instead of sending. Used in dev when SMTP is not
// configured, and in tests.
type LogDispatcher struct {
	Logger *slog.Logger
}

func (d *LogDispatcher) Send(ctx context.Context, template string, args []string, recipient string) bool {
	d.Logger.Info("mail dispatch (log only)", "template", template, "to", recipient)
	return true
}

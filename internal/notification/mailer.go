package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stanstork/stratum-orgs/internal/config"
)

// InviteMailer is responsible for delivering organization invitation emails.
type InviteMailer interface {
	SendInvitation(ctx context.Context, to, inviterName, organizationName, token string) error
}

// SMTPInviteMailer sends invitation emails using an SMTP server.
type SMTPInviteMailer struct {
	smtpSender
	urlTemplate string
}

// NewSMTPInviteMailer constructs a new SMTPInviteMailer from config.
func NewSMTPInviteMailer(cfg config.EmailConfig) (*SMTPInviteMailer, error) {
	sender, err := newSMTPSender(cfg)
	if err != nil {
		return nil, err
	}
	if !strings.Contains(cfg.AcceptURLTemplate, "%s") {
		return nil, fmt.Errorf("accept_url_template must contain %%s for the token")
	}
	return &SMTPInviteMailer{smtpSender: sender, urlTemplate: cfg.AcceptURLTemplate}, nil
}

// SendInvitation dispatches an invitation email to a prospective member.
func (m *SMTPInviteMailer) SendInvitation(ctx context.Context, to, inviterName, organizationName, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	subject := fmt.Sprintf("You have been invited to join %s", organizationName)
	body := invitationBody(inviterName, organizationName, fmt.Sprintf(m.urlTemplate, token))
	return m.deliver([]string{to}, subject, body)
}

func invitationBody(inviterName, organizationName, acceptURL string) string {
	var b strings.Builder
	b.WriteString("Hello,\n\n")
	if name := strings.TrimSpace(inviterName); name != "" {
		fmt.Fprintf(&b, "%s has invited you to join %s.\n", name, organizationName)
	} else {
		fmt.Fprintf(&b, "You've been invited to join %s.\n", organizationName)
	}
	b.WriteString("Open the link below to accept the invitation. If you don't have an account yet you can create one there:\n\n")
	b.WriteString(acceptURL + "\n\n")
	b.WriteString("This invitation is valid for a limited time. If you did not expect this email, you can ignore it.\n")
	return b.String()
}

// LogInviteMailer writes the accept link to the log instead of sending mail.
// Used when no SMTP host is configured.
type LogInviteMailer struct {
	urlTemplate string
	logger      zerolog.Logger
}

func NewLogInviteMailer(urlTemplate string, logger zerolog.Logger) *LogInviteMailer {
	return &LogInviteMailer{
		urlTemplate: urlTemplate,
		logger:      logger.With().Str("component", "invite_mailer").Logger(),
	}
}

func (m *LogInviteMailer) SendInvitation(_ context.Context, to, inviterName, organizationName, token string) error {
	m.logger.Info().
		Str("to", to).
		Str("inviter", inviterName).
		Str("organization", organizationName).
		Str("accept_url", fmt.Sprintf(m.urlTemplate, token)).
		Msg("invitation email (smtp disabled)")
	return nil
}

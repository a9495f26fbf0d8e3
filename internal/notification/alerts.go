package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stanstork/stratum-orgs/internal/config"
	"github.com/stanstork/stratum-orgs/internal/models"
)

var severityRank = map[models.NotificationSeverity]int{
	models.NotificationSeverityInfo:    0,
	models.NotificationSeverityWarning: 1,
	models.NotificationSeverityError:   2,
}

// AlertMailer forwards organization events at or above a minimum severity
// to the operator mailbox list.
type AlertMailer struct {
	smtpSender
	recipients  []string
	minSeverity models.NotificationSeverity
	logger      zerolog.Logger
}

func NewAlertMailer(cfg config.EmailConfig, logger zerolog.Logger) (*AlertMailer, error) {
	sender, err := newSMTPSender(cfg)
	if err != nil {
		return nil, err
	}
	var recipients []string
	for _, r := range cfg.AlertRecipients {
		if r = strings.TrimSpace(r); r != "" {
			recipients = append(recipients, r)
		}
	}
	return &AlertMailer{
		smtpSender:  sender,
		recipients:  recipients,
		minSeverity: models.NotificationSeverityWarning,
		logger:      logger.With().Str("notifier", "alert_mail").Logger(),
	}, nil
}

func (m *AlertMailer) String() string { return "alert_mail" }

func (m *AlertMailer) Notify(ctx context.Context, n models.Notification) error {
	if len(m.recipients) == 0 || severityRank[n.Severity] < severityRank[m.minSeverity] {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.deliver(m.recipients, alertSubject(n), alertBody(n)); err != nil {
		return err
	}
	m.logger.Debug().
		Str("notification_id", n.ID).
		Int("recipients", len(m.recipients)).
		Msg("alert mailed")
	return nil
}

func alertSubject(n models.Notification) string {
	title := strings.TrimSpace(n.Title)
	if title == "" {
		title = string(n.EventType)
	}
	return fmt.Sprintf("[%s] %s", strings.ToUpper(string(n.Severity)), title)
}

func alertBody(n models.Notification) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(n.Message))
	b.WriteString("\n\n")
	if n.OrganizationID != nil {
		fmt.Fprintf(&b, "organization: %s\n", *n.OrganizationID)
	}
	fmt.Fprintf(&b, "event: %s\n", n.EventType)
	fmt.Fprintf(&b, "at: %s\n", n.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"))
	if len(n.Metadata) > 0 {
		fmt.Fprintf(&b, "details: %s\n", n.Metadata)
	}
	return b.String()
}

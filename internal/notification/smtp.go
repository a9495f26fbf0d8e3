package notification

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/stanstork/stratum-orgs/internal/config"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// smtpSender holds the relay settings shared by the invitation and alert mailers.
type smtpSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	send     sendMailFunc
}

func newSMTPSender(cfg config.EmailConfig) (smtpSender, error) {
	host := strings.TrimSpace(cfg.SMTPHost)
	if host == "" {
		return smtpSender{}, fmt.Errorf("smtp_host is required")
	}
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		return smtpSender{}, fmt.Errorf("email from address is required")
	}
	port := cfg.SMTPPort
	if port == 0 {
		port = 587
	}
	return smtpSender{
		host:     host,
		port:     port,
		username: strings.TrimSpace(cfg.Username),
		password: cfg.Password,
		from:     from,
		send:     smtp.SendMail,
	}, nil
}

func (s smtpSender) deliver(to []string, subject, body string) error {
	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	return s.send(addr, auth, s.from, to, composeMessage(s.from, to, subject, body))
}

// headerSafe folds line breaks out of a header value so it cannot start a new header.
var headerSafe = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func composeMessage(from string, to []string, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", headerSafe.Replace(from))
	fmt.Fprintf(&b, "To: %s\r\n", headerSafe.Replace(strings.Join(to, ", ")))
	fmt.Fprintf(&b, "Subject: %s\r\n", headerSafe.Replace(subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

package notification

import (
	"context"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stanstork/stratum-orgs/internal/config"
	"github.com/stretchr/testify/require"
)

func TestInvitationMessage(t *testing.T) {
	body := invitationBody("Ada Lovelace", "Red Cross", "https://app.example.com/invitations/abc")
	msg := string(composeMessage("noreply@example.com", []string{"bob@example.com"}, "You have been invited to join Red Cross", body))

	require.Contains(t, msg, "To: bob@example.com\r\n")
	require.Contains(t, msg, "Subject: You have been invited to join Red Cross\r\n")
	require.Contains(t, msg, "Ada Lovelace has invited you to join Red Cross.")
	require.Contains(t, msg, "https://app.example.com/invitations/abc")
}

func TestSMTPInviteMailerSendInvitation(t *testing.T) {
	mailer, err := NewSMTPInviteMailer(config.EmailConfig{
		From:              "noreply@example.com",
		SMTPHost:          "smtp.example.com",
		AcceptURLTemplate: "https://app.example.com/invitations/%s",
	})
	require.NoError(t, err)

	var (
		gotAddr string
		gotTo   []string
		gotMsg  []byte
	)
	mailer.send = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		return nil
	}

	require.NoError(t, mailer.SendInvitation(context.Background(), "bob@example.com", "Ada", "Red Cross", "tok"))
	require.Equal(t, "smtp.example.com:587", gotAddr)
	require.Equal(t, []string{"bob@example.com"}, gotTo)
	require.Contains(t, string(gotMsg), "https://app.example.com/invitations/tok")
}

func TestNewSMTPInviteMailerValidatesConfig(t *testing.T) {
	_, err := NewSMTPInviteMailer(config.EmailConfig{From: "a@example.com"})
	require.Error(t, err)

	_, err = NewSMTPInviteMailer(config.EmailConfig{From: "a@example.com", SMTPHost: "smtp", AcceptURLTemplate: "https://x"})
	require.Error(t, err)
}

func TestInvitationHeadersStayOnOneLine(t *testing.T) {
	mailer, err := NewSMTPInviteMailer(config.EmailConfig{
		From:              "noreply@example.com",
		SMTPHost:          "smtp.example.com",
		AcceptURLTemplate: "https://app.example.com/invitations/%s",
	})
	require.NoError(t, err)

	var gotTo []string
	var gotMsg []byte
	mailer.send = func(_ string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotTo, gotMsg = to, msg
		return nil
	}

	org := "Acme\r\nBcc: victim@example.org\r\nX-Injected: yes"
	require.NoError(t, mailer.SendInvitation(context.Background(), "bob@example.com", "Ada", org, "tok"))
	require.Equal(t, []string{"bob@example.com"}, gotTo)

	headers, _, found := strings.Cut(string(gotMsg), "\r\n\r\n")
	require.True(t, found)
	require.Contains(t, headers, "Subject: You have been invited to join Acme Bcc: victim@example.org X-Injected: yes\r\n")
	for _, line := range strings.Split(headers, "\r\n") {
		require.False(t, strings.HasPrefix(line, "Bcc:"), line)
		require.False(t, strings.HasPrefix(line, "X-Injected:"), line)
	}
}

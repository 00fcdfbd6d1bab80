package support

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"socioscan-backend/internal/shared/telemetry"
)

const sendGridHost = "https://api.sendgrid.com"

type Sender interface {
	Send(ctx context.Context, email Email) error
}

// LogSender records the message instead of delivering it.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, email Email) error {
	telemetry.Info("support.email_logged", map[string]any{
		"to":       email.To,
		"reply_to": email.ReplyTo,
		"subject":  email.Subject,
		"bytes":    len(email.Body),
	})
	return nil
}

// SendGridSender posts to the v3 mail send API.
type SendGridSender struct {
	APIKey string
	Host   string
}

func NewSendGridSender(apiKey string) *SendGridSender {
	return &SendGridSender{APIKey: apiKey, Host: sendGridHost}
}

func (s *SendGridSender) Send(ctx context.Context, email Email) error {
	from := mail.NewEmail("Socio-Scan Support", email.From)
	to := mail.NewEmail("", email.To)
	msg := mail.NewSingleEmail(from, email.Subject, to, email.Body, "")
	if email.ReplyTo != "" {
		msg.SetReplyTo(mail.NewEmail("", email.ReplyTo))
	}

	host := s.Host
	if host == "" {
		host = sendGridHost
	}
	req := sendgrid.GetRequest(s.APIKey, "/v3/mail/send", host)
	req.Method = "POST"
	req.Body = mail.GetRequestBody(msg)

	resp, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

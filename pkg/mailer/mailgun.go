package mailer

import (
	"context"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

// Mailgun delivers toll notification and OTP mail through the Mailgun API.
type Mailgun struct {
	client *mg.MailgunImpl
	sender string
}

// NewMailgun builds a client for the given sending domain. An empty sender
// falls back to a monitor address on that domain.
func NewMailgun(domain, apiKey, sender string) *Mailgun {
	if sender == "" {
		sender = "E-ZPass Monitor <noreply@" + domain + ">"
	}
	return &Mailgun{client: mg.NewMailgun(domain, apiKey), sender: sender}
}

// Send delivers one message. An html body, when present, rides along as the
// HTML alternative next to the plain text.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.client.NewMessage(m.sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, _, err := m.client.Send(c, msg)
	return err
}

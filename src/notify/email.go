package notify

import (
	"context"
	"time"

	"gopkg.in/mail.v2"
)

const (
	DefaultSMTPHost = "smtp.gmail.com"
	DefaultSMTPPort = 465
)

type mailSender interface {
	DialAndSend(m ...*mail.Message) error
}

// Email sends a plain text message with an HTML alternative over SMTP.
type Email struct {
	from   string
	sender mailSender
}

// NewEmail authenticates as username against host:port. Port 465 uses implicit TLS.
func NewEmail(host string, port int, username, password string) *Email {
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = 10 * time.Second
	return &Email{from: username, sender: dialer}
}

func (e *Email) Name() string {
	return "email"
}

func (e *Email) Deliver(ctx context.Context, recipient string, p Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	html, err := p.HTML()
	if err != nil {
		return err
	}

	m := mail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", p.Subject())
	m.SetBody("text/plain", p.Text())
	m.AddAlternative("text/html", html)

	return e.sender.DialAndSend(m)
}

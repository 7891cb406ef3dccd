// Package mail sends the assistant's dictated emails over SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
)

var ErrNotConfigured = errors.New("email account is not configured")

type Account struct {
	Address  string
	Password string
}

type Message struct {
	From    Account
	To      string
	Subject string
	Body    string
}

// SMTP submits over implicit TLS with PLAIN auth, which is what Gmail app
// passwords expect on port 465.
type SMTP struct {
	host    string
	port    int
	timeout time.Duration
}

func NewSMTP(host string, port int) *SMTP {
	return &SMTP{host: host, port: port, timeout: 30 * time.Second}
}

func (s *SMTP) Send(ctx context.Context, m Message) error {
	msg, err := buildMsg(m)
	if err != nil {
		return err
	}

	c, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSSL(),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.From.Address),
		gomail.WithPassword(m.From.Password),
		gomail.WithTimeout(s.timeout),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := c.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send via %s:%d: %w", s.host, s.port, err)
	}
	return nil
}

func buildMsg(m Message) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(m.From.Address); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, m.Body)
	return msg, nil
}

// Package mailer delivers transactional email: verification and password
// reset links. With delivery disabled, messages are written to the log.
package mailer

import (
	"context"

	"github.com/dmitrijs2005/notesnap/internal/logging"
	"github.com/dmitrijs2005/notesnap/internal/server/config"
	"github.com/jhillyerd/enmime"
)

const (
	senderName     = "NOTE_SNAP"
	defaultAddress = "noreply@notepad.sys"
)

// Message is a rendered email. Link is the call to action, repeated here so
// the console mailer can print it without parsing the body.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
	Link    string
}

// Mailer sends a Message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Address is an RFC 5322 mailbox.
type Address struct {
	Name    string
	Address string
}

// FromAddress returns the envelope sender: EMAIL_FROM, then EMAIL_USER,
// then a no-reply default.
func FromAddress(cfg config.EmailConfig) Address {
	addr := cfg.From
	if addr == "" {
		addr = cfg.User
	}
	if addr == "" {
		addr = defaultAddress
	}
	return Address{Name: senderName, Address: addr}
}

// New returns an SMTP mailer when delivery is enabled, otherwise a console mailer.
func New(cfg config.EmailConfig, logger logging.Logger) Mailer {
	logger = logger.With("module", "mailer")
	if !cfg.Enabled {
		return NewConsoleMailer(logger)
	}
	t := ResolveTransport(cfg)
	logger.Info(context.Background(), "smtp delivery enabled", "service", cfg.Service, "host", t.Host, "port", t.Port, "tls", t.Secure)
	return NewSMTPMailer(FromAddress(cfg), NewSender(t), logger)
}

// SMTPMailer builds MIME messages with enmime and hands them to an enmime.Sender.
type SMTPMailer struct {
	from   Address
	sender enmime.Sender
	logger logging.Logger
}

func NewSMTPMailer(from Address, sender enmime.Sender, logger logging.Logger) *SMTPMailer {
	return &SMTPMailer{from: from, sender: sender, logger: logger}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b := enmime.Builder().
		From(m.from.Name, m.from.Address).
		To("", msg.To).
		Subject(msg.Subject).
		Text([]byte(msg.Text))
	if msg.HTML != "" {
		b = b.HTML([]byte(msg.HTML))
	}

	if err := b.Send(m.sender); err != nil {
		m.logger.Error(ctx, "failed to send email", "to", msg.To, "subject", msg.Subject, "error", err)
		return err
	}

	m.logger.Info(ctx, "email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

// ConsoleMailer logs messages instead of sending them. Used in development.
type ConsoleMailer struct {
	logger logging.Logger
}

func NewConsoleMailer(logger logging.Logger) *ConsoleMailer {
	return &ConsoleMailer{logger: logger}
}

func (m *ConsoleMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Info(ctx, "email delivery disabled, message not sent",
		"to", msg.To,
		"subject", msg.Subject,
		"link", msg.Link,
	)
	return nil
}

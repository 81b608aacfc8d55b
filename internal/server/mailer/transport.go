package mailer

import (
	"crypto/tls"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/notesnap/internal/server/config"
	"github.com/jhillyerd/enmime"
)

// Transport is a resolved SMTP endpoint. Secure means implicit TLS
// (usually port 465); otherwise STARTTLS is used when offered.
type Transport struct {
	Host     string
	Port     int
	Secure   bool
	Username string
	Password string
}

func (t Transport) addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// ResolveTransport maps EMAIL_SERVICE to an SMTP endpoint. Unknown
// services fall back to the generic SMTP_* settings.
func ResolveTransport(cfg config.EmailConfig) Transport {
	switch strings.ToLower(cfg.Service) {
	case "gmail":
		return Transport{Host: "smtp.gmail.com", Port: 465, Secure: true, Username: cfg.User, Password: cfg.Pass}
	case "outlook", "hotmail":
		return Transport{Host: "smtp-mail.outlook.com", Port: 587, Username: cfg.User, Password: cfg.Pass}
	case "yahoo":
		return Transport{Host: "smtp.mail.yahoo.com", Port: 465, Secure: true, Username: cfg.User, Password: cfg.Pass}
	case "sendgrid":
		return Transport{Host: "smtp.sendgrid.net", Port: 587, Username: "apikey", Password: cfg.SendGridAPIKey}
	case "mailgun":
		return Transport{Host: "smtp.mailgun.org", Port: 587, Username: cfg.MailgunUser, Password: cfg.MailgunPass}
	case "ses":
		return Transport{Host: "email-smtp.us-east-1.amazonaws.com", Port: 587, Username: cfg.SESAccessKey, Password: cfg.SESSecretKey}
	default:
		t := Transport{Host: cfg.SMTPHost, Port: cfg.SMTPPort, Secure: cfg.SMTPSecure}
		if t.Host == "" {
			t.Host = "localhost"
		}
		if t.Port == 0 {
			t.Port = 587
		}
		if cfg.SMTPUser != "" && cfg.SMTPPass != "" {
			t.Username, t.Password = cfg.SMTPUser, cfg.SMTPPass
		}
		return t
	}
}

func (t Transport) auth() smtp.Auth {
	if t.Username == "" || t.Password == "" {
		return nil
	}
	return smtp.PlainAuth("", t.Username, t.Password, t.Host)
}

// NewSender returns an enmime.Sender for t.
func NewSender(t Transport) enmime.Sender {
	if t.Secure {
		return &tlsSender{addr: t.addr(), host: t.Host, auth: t.auth()}
	}
	return enmime.NewSMTP(t.addr(), t.auth())
}

// tlsSender speaks SMTP over an implicit TLS connection, which
// enmime's SMTP sender does not support.
type tlsSender struct {
	addr string
	host string
	auth smtp.Auth
}

func (s *tlsSender) Send(reversePath string, recipients []string, msg []byte) error {
	conn, err := tls.Dial("tcp", s.addr, &tls.Config{ServerName: s.host, MinVersion: tls.VersionTLS12})
	if err != nil {
		return err
	}

	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if s.auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(s.auth); err != nil {
				return err
			}
		}
	}
	if err := c.Mail(reversePath); err != nil {
		return err
	}
	for _, rcpt := range recipients {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

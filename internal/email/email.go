package email

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Sender delivers a single email.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

type Config struct {
	Host       string `envconfig:"SMTP_HOST" mapstructure:"host"`
	Port       int    `envconfig:"SMTP_PORT" mapstructure:"port"`
	Username   string `envconfig:"SMTP_USERNAME" mapstructure:"username"`
	Password   string `envconfig:"SMTP_PASSWORD" mapstructure:"password"`
	From       string `envconfig:"SMTP_FROM" mapstructure:"from"`
	AdminEmail string `envconfig:"ADMIN_EMAIL" mapstructure:"admin_email"`
}

// SMTPSender sends mail through a standard SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg Config) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *SMTPSender) Send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

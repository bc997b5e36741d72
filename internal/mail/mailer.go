// Package mail implements the outbound email transport used for survey
// invitations and submission confirmations.
package mail

import (
	"errors"
	"fmt"
	"log"

	"gopkg.in/gomail.v2"
)

// Sender delivers a plain-text message to a list of recipients.
type Sender interface {
	Send(subject, body string, recipients []string) error
}

// Config carries the SMTP transport settings.
type Config struct {
	Host        string
	Port        int
	User        string
	Password    string
	FromAddress string
	FromName    string
}

// SMTPSender sends mail through a configured SMTP relay.
type SMTPSender struct {
	cfg    Config
	dialer *gomail.Dialer
}

func NewSMTPSender(cfg Config) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.FromAddress == "" {
		return nil, errors.New("from address is required")
	}
	return &SMTPSender{cfg: cfg, dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)}, nil
}

func (s *SMTPSender) Send(subject, body string, recipients []string) error {
	if len(recipients) == 0 {
		return errors.New("no recipients")
	}
	m := gomail.NewMessage()
	from := s.cfg.FromAddress
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromAddress)
	}
	m.SetHeader("From", from)
	m.SetHeader("To", recipients...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return s.dialer.DialAndSend(m)
}

// LogSender logs messages instead of delivering them. Used when SMTP is not
// configured so local development still exercises the full submission flow.
type LogSender struct{}

func (LogSender) Send(subject, body string, recipients []string) error {
	log.Printf("mail: would send %q to %v (%d bytes)", subject, recipients, len(body))
	return nil
}

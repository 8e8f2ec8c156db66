// Package smtp delivers one-time codes over plain SMTP.
package smtp

import (
	"context"
	"fmt"
	"net/smtp"

	"trivia-match-service/internal/domain"
)

// Config carries the SMTP relay settings. Empty Host disables delivery and
// the caller falls back to logging codes.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer implements app.Mailer over net/smtp.
type Mailer struct {
	cfg Config
}

func NewMailer(cfg Config) *Mailer {
	return &Mailer{cfg: cfg}
}

func (m *Mailer) SendOTP(_ context.Context, email, code string, purpose domain.OTPPurpose) error {
	subject := "Your verification code"
	if purpose == domain.OTPForgotPassword {
		subject = "Your password reset code"
	}
	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\nYour code is: %s\r\nIt expires shortly; do not share it.\r\n",
		m.cfg.From, email, subject, code)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{email}, []byte(body)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

package services

import (
	"fmt"
	"html"
	"net"
	"net/smtp"

	"github.com/dimitrije/dashboard-api/internal/config"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailService sends transactional mail. Without SMTP settings every send
// is a silent no-op.
type EmailService struct {
	cfg      config.SMTPConfig
	sendMail sendMailFunc
}

func NewEmailService(cfg config.SMTPConfig) *EmailService {
	return &EmailService{cfg: cfg, sendMail: smtp.SendMail}
}

func (s *EmailService) IsConfigured() bool {
	return s.cfg.Host != "" && s.cfg.Username != "" && s.cfg.Password != "" && s.cfg.From != ""
}

func (s *EmailService) Send(to, subject, body string) error {
	if !s.IsConfigured() {
		return nil
	}

	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.cfg.From, to, subject, body)

	return s.sendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg))
}

func (s *EmailService) SendPasswordReset(to, resetURL string) error {
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Reset your password</h2>
			<p>Someone asked to reset the password for this account.</p>
			<p><a href="%s">Choose a new password</a></p>
			<p>If that was not you, ignore this email. The link expires in an hour.</p>
		</body>
		</html>
	`, html.EscapeString(resetURL))

	return s.Send(to, "Reset your password", body)
}

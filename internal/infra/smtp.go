package infra

import (
	"fmt"
	"net/smtp"

	"github.com/JonyGudino21/pharma-back/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer sends alert and invoice emails over SMTP. Every send goes through a
// circuit breaker so a dead SMTP server fast-fails instead of stalling the
// worker pool.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
	cb       *CircuitBreaker
	send     func(e *email.Email, addr string, auth smtp.Auth) error
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		cb:       newSMTPBreaker(),
		send:     func(e *email.Email, addr string, auth smtp.Auth) error { return e.Send(addr, auth) },
	}
}

func newSMTPBreaker() *CircuitBreaker {
	cfg := DefaultCBConfig()
	cfg.Name = "smtp"
	return NewCircuitBreaker(cfg)
}

// Enabled reports whether SMTP is configured at all.
func (m *Mailer) Enabled() bool { return m.host != "" }

// CircuitState is exposed for the health endpoint.
func (m *Mailer) CircuitState() CBState { return m.cb.State() }

// Send delivers a plain-text message with an optional attachment.
func (m *Mailer) Send(to, subject, body, attachmentPath string) error {
	if !m.Enabled() {
		return fmt.Errorf("mailer: SMTP not configured")
	}
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	if attachmentPath != "" {
		if _, err := e.AttachFile(attachmentPath); err != nil {
			return fmt.Errorf("mailer: attach file: %w", err)
		}
	}

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	return m.cb.Execute(func() error {
		if err := m.send(e, m.addr, auth); err != nil {
			return fmt.Errorf("mailer: send: %w", err)
		}
		return nil
	})
}

package email

import (
	"context"
	"errors"
	"fmt"
	"net/textproto"
	"time"

	"gopkg.in/gomail.v2"

	"alize_backend/internal/logger"
)

// smtpAttemptTimeout bounds one dial-and-send round trip. gomail only
// deadlines the TCP dial; a server that stalls after the handshake
// would otherwise block the caller forever.
const smtpAttemptTimeout = 30 * time.Second

// SMTPConfig configures the direct SMTP transport.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	UseSSL   bool // implicit TLS; implied by port 465
}

// SMTPSender delivers mail over SMTP via gomail. Port 465 (or UseSSL)
// uses implicit TLS, any other port negotiates STARTTLS.
type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Name() string { return "smtp" }

func (s *SMTPSender) Configured() bool {
	return s.cfg.Host != "" && s.cfg.From != ""
}

func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	m := gomail.NewMessage()
	if s.cfg.FromName != "" {
		m.SetHeader("From", m.FormatAddress(s.cfg.From, s.cfg.FromName))
	} else {
		m.SetHeader("From", s.cfg.From)
	}
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	d.SSL = s.cfg.UseSSL || s.cfg.Port == 465

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, backoff(attempt-1)); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		err := dialAndSend(ctx, d, m)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		lastErr = err
		if isPermanentSMTP(err) {
			return err
		}
		logger.Warn("smtp delivery failed", "attempt", attempt+1, "error", err)
	}
	return lastErr
}

// dialAndSend runs one delivery attempt under smtpAttemptTimeout and
// ctx. gomail cannot be interrupted mid-send, so on expiry the attempt
// is abandoned to its goroutine and the caller moves on.
func dialAndSend(ctx context.Context, d *gomail.Dialer, m *gomail.Message) error {
	done := make(chan error, 1)
	go func() { done <- d.DialAndSend(m) }()

	t := time.NewTimer(smtpAttemptTimeout)
	defer t.Stop()
	select {
	case err := <-done:
		return err
	case <-t.C:
		return fmt.Errorf("smtp %s:%d: no response after %s", d.Host, d.Port, smtpAttemptTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// isPermanentSMTP reports whether the server rejected the message for
// a reason retrying cannot fix: bad credentials or a refused
// sender/recipient address.
func isPermanentSMTP(err error) bool {
	var tp *textproto.Error
	if !errors.As(err, &tp) {
		return false
	}
	switch tp.Code {
	case 530, 534, 535: // authentication
		return true
	case 550, 551, 553: // mailbox or sender refused
		return true
	}
	return false
}

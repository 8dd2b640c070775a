package alert

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// SMTPConfig holds mail relay settings.
type SMTPConfig struct {
	Server   string
	Port     int
	User     string
	Password string
	From     string
	To       []string
	Subject  string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTP sends alerts as plain-text email. smtp.SendMail upgrades to STARTTLS
// when the relay offers it, then authenticates with PLAIN.
type SMTP struct {
	cfg    SMTPConfig
	logger *slog.Logger
	send   sendFunc
}

// NewSMTP returns an SMTP notifier. A nil logger means slog.Default().
func NewSMTP(cfg SMTPConfig, logger *slog.Logger) *SMTP {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTP{cfg: cfg, logger: logger, send: smtp.SendMail}
}

// Notify implements Notifier.
func (s *SMTP) Notify(ctx context.Context, subject, message string) {
	if subject == "" {
		subject = s.cfg.Subject
	}
	if err := ctx.Err(); err != nil {
		s.logger.Warn("alert: send skipped", slog.String("subject", subject), slog.String("error", err.Error()))
		return
	}

	addr := net.JoinHostPort(s.cfg.Server, strconv.Itoa(s.cfg.Port))
	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Server)
	}

	if err := s.send(addr, auth, s.cfg.From, s.cfg.To, s.compose(subject, message)); err != nil {
		s.logger.Error("alert: send failed",
			slog.String("subject", subject),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Info("alert: sent", slog.String("subject", subject))
}

func (s *SMTP) compose(subject, message string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(s.cfg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", sanitizeHeader(subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(message, "\n", "\r\n"))
	return []byte(b.String())
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}

var _ Notifier = (*SMTP)(nil)

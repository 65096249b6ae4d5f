package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/mikhel0k/JurBot/internal/config"
)

// Sender delivers one-time confirmation codes.
type Sender interface {
	SendCode(ctx context.Context, to, code string) error
}

// NewSender picks the delivery backend: SMTP when credentials are
// configured, a log-only sender otherwise (development convenience; the
// code shows up in the logs).
func NewSender(cfg config.Config, logger *zap.Logger) Sender {
	if cfg.SMTPUsername == "" {
		return &LogSender{logger: logger}
	}
	return &SMTPSender{cfg: cfg, logger: logger}
}

// SMTPSender sends the code over SMTP with STARTTLS.
type SMTPSender struct {
	cfg    config.Config
	logger *zap.Logger
}

// SendCode emails the confirmation code.
func (s *SMTPSender) SendCode(ctx context.Context, to, code string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set to address: %w", err)
	}
	msg.Subject("Код подтверждения")
	msg.SetBodyString(gomail.TypeTextPlain, fmt.Sprintf("Ваш код подтверждения: %s\nДействует 15 минут.", code))

	client, err := gomail.NewClient(s.cfg.SMTPHost,
		gomail.WithPort(s.cfg.SMTPPort),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
		gomail.WithSMTPAuth(gomail.SMTPAuthLogin),
		gomail.WithUsername(s.cfg.SMTPUsername),
		gomail.WithPassword(s.cfg.SMTPPassword),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send code email: %w", err)
	}

	s.logger.Info("code email sent", zap.String("to", to))
	return nil
}

// LogSender writes the code to the log instead of sending it.
type LogSender struct {
	logger *zap.Logger
}

// SendCode logs the code. Never fails.
func (s *LogSender) SendCode(_ context.Context, to, code string) error {
	s.logger.Info("email delivery disabled, logging code",
		zap.String("to", to),
		zap.String("code", code),
	)
	return nil
}

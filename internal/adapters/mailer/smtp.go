package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	mail "github.com/wneessen/go-mail"

	"chat-digest-mailer/internal/domain"
	"chat-digest-mailer/internal/infra/metrics"
)

// Config описывает параметры SMTP-подключения.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SMTP реализует domain.Mailer поверх go-mail.
type SMTP struct {
	client *mail.Client
}

var _ domain.Mailer = (*SMTP)(nil)

// NewSMTP создаёт SMTP-клиент.
func NewSMTP(cfg Config) (*SMTP, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("создание smtp клиента: %w", err)
	}
	return &SMTP{client: client}, nil
}

// Send отправляет письмо. Delay выдерживается перед отправкой;
// повторов при ошибке нет.
func (s *SMTP) Send(ctx context.Context, email domain.EmailMessage) error {
	if email.Delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(email.Delay):
		}
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(email.From.Name, email.From.Email); err != nil {
		return fmt.Errorf("адрес отправителя: %w", err)
	}
	if err := msg.AddToFormat(email.To.Name, email.To.Email); err != nil {
		return fmt.Errorf("адрес получателя: %w", err)
	}
	msg.Subject(email.Subject)
	msg.SetBodyString(mail.TypeTextPlain, email.TextBody)
	msg.AddAlternativeString(mail.TypeTextHTML, email.HTMLBody)
	if len(email.Tags) > 0 {
		msg.SetGenHeader(mail.Header("X-Tags"), strings.Join(email.Tags, ","))
	}

	start := time.Now()
	err := s.client.DialAndSendWithContext(ctx, msg)
	metrics.ObserveNetworkRequest("smtp", "send", email.To.Email, start, err)
	if err != nil {
		return fmt.Errorf("отправка через smtp: %w", err)
	}
	return nil
}

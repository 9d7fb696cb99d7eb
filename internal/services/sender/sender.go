// Package sender отправляет письма-подтверждения активации премиум-подписки.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/premium-entitlement/internal/lib/sl"
	smtplib "github.com/magabrotheeeer/premium-entitlement/internal/lib/smtp"
	"github.com/magabrotheeeer/premium-entitlement/internal/models"
)

// Transport описывает контракт SMTP-транспорта.
type Transport interface {
	Connect() (smtplib.Client, error)
	GetSMTPUser() string
}

// Service потребляет события активации и отправляет письма.
type Service struct {
	transport Transport
	log       *slog.Logger
}

// New создает новый Service.
func New(transport Transport, log *slog.Logger) *Service {
	return &Service{
		transport: transport,
		log:       log,
	}
}

// SendPremiumActivated разбирает событие активации и отправляет
// пользователю письмо-подтверждение.
func (s *Service) SendPremiumActivated(body []byte) error {
	var event models.ActivationEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal activation event", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	subject := "Your Premium subscription is active"
	bodyText := fmt.Sprintf("Hi %s!\n\nYour %s Premium subscription is now active.\nEnjoy all premium features of the platform.",
		event.Username, event.Plan)

	return s.sendEmail([]string{event.Email}, subject, bodyText)
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		if quitErr := client.Quit(); quitErr != nil {
			_ = client.Close()
		}
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set recipient: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	s.log.Info("activation email sent", slog.String("to", strings.Join(to, ";")))
	return nil
}

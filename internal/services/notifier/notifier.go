// Package services содержит отправку почтовых уведомлений об истечении
// платного тарифа.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ssnapify/ssnapify-backend/internal/lib/sl"
	"github.com/ssnapify/ssnapify-backend/internal/lib/smtp"
	"github.com/ssnapify/ssnapify-backend/internal/models"
)

// NotifierService отправляет письма по событиям биллингового движка.
type NotifierService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewNotifierService создает новый экземпляр NotifierService.
func NewNotifierService(transport smtp.TransportInterface, log *slog.Logger) *NotifierService {
	return &NotifierService{
		transport: transport,
		log:       log,
	}
}

// SendPlanExpiredNotice разбирает событие об истечении тарифа и отправляет
// пользователю письмо о переводе на бесплатный тариф. Используется как
// обработчик сообщений очереди.
func (s *NotifierService) SendPlanExpiredNotice(body []byte) error {
	var event models.PlanExpiredEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal plan expired event", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{event.Email}
	subject := "Ваш тариф ssnapify истек"
	bodyText := fmt.Sprintf(`Здравствуйте, %s!

Срок действия вашего платного тарифа истек %s, и учетная запись переведена
на бесплатный тариф. Неиспользованные кредиты платного тарифа сгорели,
стартовые кредиты бесплатного тарифа уже начислены.

Чтобы вернуть платный тариф, оформите его заново в личном кабинете.`,
		event.Username, event.ExpiredAt.Format("02.01.2006"))

	return s.sendEmail(to, subject, bodyText)
}

func (s *NotifierService) sendEmail(to []string, subject, bodyText string) error {
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
	defer func() { _ = client.Close() }()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), "error", sl.Err(err))
		return err
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", "recipient", addr, "error", sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent", "to", to)
	return nil
}

// Package sender доставляет письма пользователям: отчёты с вложением и
// напоминания о продлении подписок. Отправка ограничена по частоте.
package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wneessen/go-mail"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Service отправляет письма через SMTP транспорт.
type Service struct {
	transport Transport
	from      string
	currency  string
	limiter   *rate.Limiter
	log       *slog.Logger
	now       func() time.Time
}

// NewService создает новый экземпляр Service. from адрес отправителя; если он
// пуст, используется логин SMTP. ratePerMinute ограничивает число писем в минуту.
func NewService(transport Transport, from, currency string, ratePerMinute int, log *slog.Logger) *Service {
	if from == "" {
		from = transport.GetSMTPUser()
	}
	if ratePerMinute <= 0 {
		ratePerMinute = 1
	}
	return &Service{
		transport: transport,
		from:      from,
		currency:  currency,
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(ratePerMinute)), 1),
		log:       log,
		now:       time.Now,
	}
}

// SendReport отправляет отчёт вложением.
func (s *Service) SendReport(ctx context.Context, email models.ReportEmail) error {
	const op = "sender.SendReport"
	msg, err := s.reportMessage(email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.send(ctx, email.To, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("report email sent", slog.String("username", email.Username), slog.String("filename", email.Filename))
	return nil
}

// SendRenewalReminder обрабатывает сообщение из очереди напоминаний.
func (s *Service) SendRenewalReminder(ctx context.Context, body []byte) error {
	const op = "sender.SendRenewalReminder"
	var notice models.RenewalNotice
	if err := json.Unmarshal(body, &notice); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%s: error unmarshalling message: %w", op, err)
	}
	if notice.Email == "" {
		return fmt.Errorf("%s: %w: reminder for %s has no recipient", op, models.ErrValidation, notice.Username)
	}

	msg, err := s.newMessage(notice.Email, "Upcoming renewal: "+notice.ServiceName)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, models.ErrValidation, err)
	}
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf("Hello, %s!\n\nYour %s subscription renews on %s for %s%s.\n",
		notice.Username,
		notice.ServiceName,
		notice.RenewalDate.Format(models.DateLayout),
		s.currency,
		decimal.NewFromFloat(notice.Price).StringFixed(2),
	))

	if err := s.send(ctx, notice.Email, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("renewal reminder email sent",
		slog.String("username", notice.Username),
		slog.String("service_name", notice.ServiceName))
	return nil
}

// newMessage заготовка письма с заголовками отправителя, получателя и темы.
func (s *Service) newMessage(to, subject string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return nil, fmt.Errorf("sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetDateWithValue(s.now())
	msg.SetMessageIDWithValue(uuid.NewString() + "@" + domainOf(s.from))
	return msg, nil
}

func (s *Service) reportMessage(email models.ReportEmail) (*mail.Msg, error) {
	msg, err := s.newMessage(email.To, email.Subject)
	if err != nil {
		return nil, err
	}
	msg.SetBodyString(mail.TypeTextPlain, email.Body)

	contentType := email.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	msg.AttachReadSeeker(email.Filename, bytes.NewReader(email.Document),
		mail.WithFileContentType(mail.ContentType(contentType)))
	return msg, nil
}

func domainOf(addr string) string {
	if i := strings.LastIndex(addr, "@"); i >= 0 && i < len(addr)-1 {
		return strings.Trim(addr[i+1:], "> ")
	}
	return "localhost"
}

func (s *Service) send(ctx context.Context, to string, msg *mail.Msg) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			s.log.Debug("failed to close SMTP client", sl.Err(err))
		}
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return err
	}
	if err := client.Rcpt(to); err != nil {
		s.log.Error("failed to set RCPT TO", slog.String("recipient", to), sl.Err(err))
		return err
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}
	if _, err = msg.WriteTo(wc); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}
	// Письмо уже принято сервером: ошибка QUIT не должна вызывать повторную отправку.
	if err = client.Quit(); err != nil {
		s.log.Warn("failed to quit SMTP client after delivery", slog.String("recipient", to), sl.Err(err))
	}
	return nil
}

// Package sender собирает потребителя очереди напоминаний, который
// отправляет письма о предстоящем продлении.
package sender

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subscription-tracker/internal/config"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/smtp"
	senderservice "github.com/magabrotheeeer/subscription-tracker/internal/services/sender"
)

const (
	connectRetries = 10
	connectDelay   = 3 * time.Second
)

// App приложение рассылки.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	queue         string
	senderService *senderservice.Service
	logger        *slog.Logger
}

// New подключается к брокеру и объявляет очередь напоминаний.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQ.URL, connectRetries, connectDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	topology := rabbitmq.ReminderTopology(cfg.RabbitMQ.Exchange, cfg.RabbitMQ.Queue, cfg.RabbitMQ.RoutingKey)
	ch, err := rabbitmq.SetupChannel(conn, topology)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	senderService := senderservice.NewService(senderservice.SMTP(transport), cfg.SMTP.From, cfg.Report.Currency,
		cfg.Sender.MailRatePerMinute, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		queue:         cfg.RabbitMQ.Queue,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run потребляет очередь до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, a.queue, func(body []byte) error {
		return a.senderService.SendRenewalReminder(ctx, body)
	})
	if err != nil {
		a.logger.Error("failed to start consumer", slog.String("queue", a.queue), sl.Err(err))
		return err
	}
	a.logger.Info("consuming renewal reminders", slog.String("queue", a.queue))

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	return nil
}

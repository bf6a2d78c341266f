// Package scheduler собирает периодический обработчик: напоминания о продлении
// и ежемесячные и ежегодные отчёты.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subscription-tracker/internal/config"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/health"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/smtp"
	"github.com/magabrotheeeer/subscription-tracker/internal/metrics"
	"github.com/magabrotheeeer/subscription-tracker/internal/render"
	"github.com/magabrotheeeer/subscription-tracker/internal/services/driver"
	"github.com/magabrotheeeer/subscription-tracker/internal/services/reminder"
	"github.com/magabrotheeeer/subscription-tracker/internal/services/report"
	"github.com/magabrotheeeer/subscription-tracker/internal/services/sender"
	"github.com/magabrotheeeer/subscription-tracker/internal/storage/repository"
)

const (
	connectRetries  = 10
	connectDelay    = 3 * time.Second
	shutdownTimeout = 10 * time.Second
)

// App представляет приложение планировщика.
type App struct {
	driver  *driver.Driver
	metrics *http.Server
	cfg     config.Scheduler
	db      *repository.Storage
	conn    *amqp.Connection
	ch      *amqp.Channel
	logger  *slog.Logger
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	renderer, err := render.New(cfg.Report.Format, cfg.Report.Currency)
	if err != nil {
		return nil, err
	}

	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := repository.WaitReady(ctx, db, connectRetries, connectDelay); err != nil {
		_ = db.Close()
		return nil, err
	}

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQ.URL, connectRetries, connectDelay)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	topology := rabbitmq.ReminderTopology(cfg.RabbitMQ.Exchange, cfg.RabbitMQ.Queue, cfg.RabbitMQ.RoutingKey)
	ch, err := rabbitmq.SetupChannel(conn, topology)
	if err != nil {
		closeResources(nil, conn, logger)
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	publisher := rabbitmq.NewPublisher(ch, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey)
	mailer := sender.NewService(sender.SMTP(smtp.NewTransport(cfg.SMTP, logger)), cfg.SMTP.From, cfg.Report.Currency,
		cfg.Sender.MailRatePerMinute, logger)

	m := metrics.New()
	d := driver.New(
		db,
		reminder.NewService(db, publisher, logger),
		report.NewService(db, renderer, mailer, cfg.Report.Currency, logger),
		m,
		cfg.YearlyReportMonth(),
		logger,
	)

	var metricsServer *http.Server
	if cfg.Scheduler.MetricsAddress != "" && !cfg.Scheduler.RunOnce {
		router := chi.NewRouter()
		router.Get("/healthz", health.New().ServeHTTP)
		router.Handle("/metrics", m.Handler())
		metricsServer = &http.Server{
			Addr:              cfg.Scheduler.MetricsAddress,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return &App{
		driver:  d,
		metrics: metricsServer,
		cfg:     cfg.Scheduler,
		db:      db,
		conn:    conn,
		ch:      ch,
		logger:  logger,
	}, nil
}

// Run выполняет один проход при run_once, иначе работает по расписанию до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	if a.cfg.RunOnce {
		summary, err := a.driver.RunOnce(ctx, time.Now())
		if err != nil {
			return err
		}
		if summary.Failed > 0 {
			a.logger.Warn("some users failed", slog.Int("failed", summary.Failed), slog.Int("users", summary.Users))
		}
		return nil
	}

	if a.metrics != nil {
		go func() {
			a.logger.Info("metrics server starting on", slog.String("address", a.metrics.Addr))
			if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server failed", sl.Err(err))
			}
		}()
	}

	err := a.driver.Run(ctx, a.cfg.Interval)
	a.logger.Info("shutting down scheduler service")

	if a.metrics != nil {
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if serr := a.metrics.Shutdown(timeoutCtx); serr != nil {
			a.logger.Error("failed to stop metrics server", sl.Err(serr))
		}
	}
	return err
}

func (a *App) close() {
	closeResources(a.ch, a.conn, a.logger)
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
}

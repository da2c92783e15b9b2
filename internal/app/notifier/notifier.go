// Package notifier собирает приложение почтовых уведомлений: читает события
// об истечении тарифов из очереди и рассылает письма по SMTP.
package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/ssnapify/ssnapify-backend/internal/config"
	"github.com/ssnapify/ssnapify-backend/internal/lib/smtp"
	"github.com/ssnapify/ssnapify-backend/internal/rabbitmq"
	notifierservice "github.com/ssnapify/ssnapify-backend/internal/services/notifier"
)

// App представляет приложение почтовых уведомлений.
type App struct {
	notifierService *notifierservice.NotifierService
	conn            *amqp.Connection
	ch              *amqp.Channel
	logger          *slog.Logger
}

// New создает новый экземпляр приложения уведомлений.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetBillingQueues())
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Error("failed to close connection", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	transport := smtp.NewTransport(cfg, logger)
	notifierService := notifierservice.NewNotifierService(transport, logger)

	return &App{
		notifierService: notifierService,
		conn:            conn,
		ch:              ch,
		logger:          logger,
	}, nil
}

// Run потребляет события из очереди до остановки контекста.
func (a *App) Run(ctx context.Context) error {
	queues := rabbitmq.GetBillingQueues()
	for _, q := range queues {
		if err := rabbitmq.ConsumeMessages(ctx, a.ch, q.QueueName, a.notifierService.SendPlanExpiredNotice); err != nil {
			return fmt.Errorf("failed to start consumer for %s: %w", q.QueueName, err)
		}
	}

	<-ctx.Done()

	a.logger.Info("shutting down notifier service")
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}
	return nil
}

// Package sweeper собирает приложение ежедневного обхода биллинговых
// записей: применяет истечения тарифов и месячные сбросы по расписанию
// и публикует события об истечении в очередь уведомлений.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/streadway/amqp"

	"github.com/ssnapify/ssnapify-backend/internal/billing"
	"github.com/ssnapify/ssnapify-backend/internal/config"
	"github.com/ssnapify/ssnapify-backend/internal/lib/sl"
	"github.com/ssnapify/ssnapify-backend/internal/models"
	"github.com/ssnapify/ssnapify-backend/internal/rabbitmq"
	billingservice "github.com/ssnapify/ssnapify-backend/internal/services/billing"
	"github.com/ssnapify/ssnapify-backend/internal/storage/repository"
)

// App представляет приложение обхода биллинговых записей.
type App struct {
	billingService *billingservice.BillingService
	schedule       string
	runOnce        bool
	conn           *amqp.Connection
	ch             *amqp.Channel
	db             *repository.Storage
	logger         *slog.Logger
}

// publisher публикует биллинговые события в RabbitMQ.
type publisher struct {
	ch *amqp.Channel
}

func (p *publisher) PublishPlanExpired(event models.PlanExpiredEvent) error {
	return rabbitmq.PublishMessage(p.ch, rabbitmq.BillingExchange, "plan_expired", event)
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	for range 10 {
		if err := db.CheckDatabaseReady(ctx); err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения обхода.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetBillingQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(ctx, db); err != nil {
		closeResources(ch, conn, logger)
		return nil, err
	}

	billingService := billingservice.NewBillingService(
		db,
		billing.DefaultCatalog(),
		&publisher{ch: ch},
		cfg.SweepBatchSize,
		logger,
	)

	return &App{
		billingService: billingService,
		schedule:       cfg.SweepSchedule,
		runOnce:        cfg.SweepRunOnce,
		conn:           conn,
		ch:             ch,
		db:             db,
		logger:         logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", "error", err)
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", "error", err)
		}
	}
}

// Run выполняет обход при старте, затем по расписанию (по умолчанию
// ежедневно в 00:05 UTC) до остановки контекста. В режиме runOnce
// завершается сразу после первого обхода.
func (a *App) Run(ctx context.Context) error {
	// обход при старте подхватывает переходы, пропущенные за простой
	a.sweep(ctx)

	if a.runOnce {
		a.closeAll()
		return nil
	}

	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(a.schedule, func() { a.sweep(ctx) }); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", a.schedule, err)
	}
	c.Start()

	<-ctx.Done()

	a.logger.Info("shutting down billing sweeper")
	stopCtx := c.Stop()
	<-stopCtx.Done()

	a.closeAll()
	return nil
}

func (a *App) closeAll() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}
	if err := a.db.DB.Close(); err != nil {
		a.logger.Error("failed to close storage", slog.Any("err", err))
	}
}

func (a *App) sweep(ctx context.Context) {
	changed, err := a.billingService.RunSweep(ctx, time.Now().UTC())
	if err != nil {
		a.logger.Error("billing sweep failed", sl.Err(err))
		return
	}
	a.logger.Info("billing sweep completed", slog.Int("changed", changed))
}

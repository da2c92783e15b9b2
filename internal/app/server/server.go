// Package server собирает HTTP-сервер ssnapify: хранилище, кеш, биллинговый
// движок, сервисы и маршруты.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/ssnapify/ssnapify-backend/internal/billing"
	"github.com/ssnapify/ssnapify-backend/internal/cache"
	"github.com/ssnapify/ssnapify-backend/internal/cloudinary"
	"github.com/ssnapify/ssnapify-backend/internal/config"
	"github.com/ssnapify/ssnapify-backend/internal/lib/jwt"
	"github.com/ssnapify/ssnapify-backend/internal/migrations"
	authservice "github.com/ssnapify/ssnapify-backend/internal/services/auth"
	billingservice "github.com/ssnapify/ssnapify-backend/internal/services/billing"
	imageservice "github.com/ssnapify/ssnapify-backend/internal/services/image"
	"github.com/ssnapify/ssnapify-backend/internal/storage/repository"
)

// App инкапсулирует HTTP-сервер и его ресурсы.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
}

// New создает приложение сервера: подключает хранилище и кеш, применяет
// миграции и собирает сервисы с маршрутами.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	catalog := billing.DefaultCatalog()
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	authSvc := authservice.NewAuthService(db, jwtMaker, cacheRedis, catalog, cfg.TokenTTL, logger)
	googleSvc := authservice.NewGoogleAuthService(authSvc, cacheRedis, cfg.GoogleOAuth, logger)

	// Сервер не публикует события: истечение тарифа на пути чтения —
	// обычный переход, письма рассылает только ежедневный обход.
	billingSvc := billingservice.NewBillingService(db, catalog, nil, cfg.SweepBatchSize, logger)

	media := cloudinary.NewClient(
		cfg.CloudinaryCloudName,
		cfg.CloudinaryAPIKey,
		cfg.CloudinaryAPISecret,
		cfg.CloudinaryFolder,
	)
	imageSvc := imageservice.NewImageService(db, media, billingSvc, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, &Services{
		Auth:    authSvc,
		Google:  googleSvc,
		Billing: billingSvc,
		Image:   imageSvc,
		Storage: db,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}, nil
}

// Run запускает сервер и блокируется до остановки контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close storage", slog.Any("err", closeErr))
		}
		return err
	}
}

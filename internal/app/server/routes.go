package server

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/ssnapify/ssnapify-backend/internal/http/handlers/admin/assignplan"
	"github.com/ssnapify/ssnapify-backend/internal/http/handlers/admin/listusers"
	"github.com/ssnapify/ssnapify-backend/internal/http/handlers/admin/revokeplan"
	"github.com/ssnapify/ssnapify-backend/internal/http/handlers/admin/setcredits"
	"github.com/ssnapify/ssnapify-backend/internal/http/handlers/admin/setrole"
	"github.com/ssnapify/ssnapify-backend/internal/http/handlers/admin/setstatus"
	"github.com/ssnapify/ssnapify-backend/internal/http/handlers/auth/googlecallback"
	"github.com/ssnapify/ssnapify-backend/internal/http/handlers/auth/googlelogin"
	"github.com/ssnapify/ssnapify-backend/internal/http/handlers/auth/login"
	"github.com/ssnapify/ssnapify-backend/internal/http/handlers/auth/logout"
	"github.com/ssnapify/ssnapify-backend/internal/http/handlers/auth/register"
	"github.com/ssnapify/ssnapify-backend/internal/http/handlers/health"
	imagelist "github.com/ssnapify/ssnapify-backend/internal/http/handlers/image/list"
	imageremove "github.com/ssnapify/ssnapify-backend/internal/http/handlers/image/remove"
	"github.com/ssnapify/ssnapify-backend/internal/http/handlers/image/transform"
	"github.com/ssnapify/ssnapify-backend/internal/http/handlers/image/upload"
	"github.com/ssnapify/ssnapify-backend/internal/http/handlers/user/credits"
	"github.com/ssnapify/ssnapify-backend/internal/http/handlers/user/me"
	"github.com/ssnapify/ssnapify-backend/internal/http/middlewarectx"
	authservice "github.com/ssnapify/ssnapify-backend/internal/services/auth"
	billingservice "github.com/ssnapify/ssnapify-backend/internal/services/billing"
	imageservice "github.com/ssnapify/ssnapify-backend/internal/services/image"
	"github.com/ssnapify/ssnapify-backend/internal/storage/repository"
)

// Services объединяет сервисы, нужные маршрутам.
type Services struct {
	Auth    *authservice.AuthService
	Google  *authservice.GoogleAuthService
	Billing *billingservice.BillingService
	Image   *imageservice.ImageService
	Storage *repository.Storage
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc *Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/register", register.New(logger, svc.Auth).ServeHTTP)
		r.Post("/auth/login", login.New(logger, svc.Auth).ServeHTTP)
		r.Get("/auth/google/login", googlelogin.New(logger, svc.Google).ServeHTTP)
		r.Get("/auth/google/callback", googlecallback.New(logger, svc.Google).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(svc.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Post("/auth/logout", logout.New(logger, svc.Auth).ServeHTTP)

			r.Get("/users/me", me.New(logger).ServeHTTP)
			r.Get("/users/me/credits", credits.New(logger, svc.Billing).ServeHTTP)

			r.Post("/images", upload.New(logger, svc.Image).ServeHTTP)
			r.Get("/images", imagelist.New(logger, svc.Image).ServeHTTP)
			r.Post("/images/{id}/transform", transform.New(logger, svc.Image).ServeHTTP)
			r.Delete("/images/{id}", imageremove.New(logger, svc.Image).ServeHTTP)

			// Административная группа
			r.Route("/admin", func(r chi.Router) {
				r.Use(middlewarectx.RequireAdmin(logger))

				r.Get("/users", listusers.New(logger, svc.Storage).ServeHTTP)
				r.Post("/users/{uid}/plan", assignplan.New(logger, svc.Storage, svc.Billing).ServeHTTP)
				r.Delete("/users/{uid}/plan", revokeplan.New(logger, svc.Storage, svc.Billing).ServeHTTP)
				r.Post("/users/{uid}/credits", setcredits.New(logger, svc.Storage).ServeHTTP)
				r.Post("/users/{uid}/role", setrole.New(logger, svc.Storage).ServeHTTP)
				r.Post("/users/{uid}/status", setstatus.New(logger, svc.Storage).ServeHTTP)
			})
		})

		r.Get("/health", health.New(logger, svc.Storage).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

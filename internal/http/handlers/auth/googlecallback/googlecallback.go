// Package googlecallback реализует HTTP-обработчик редиректа от Google:
// проверяет state, меняет код на токен и выдает JWT.
package googlecallback

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ssnapify/ssnapify-backend/internal/http/response"
	"github.com/ssnapify/ssnapify-backend/internal/lib/sl"
	authservice "github.com/ssnapify/ssnapify-backend/internal/services/auth"
)

// Service описывает интерфейс бизнес-логики завершения входа через Google.
type Service interface {
	HandleCallback(ctx context.Context, code, state string) (token, role string, err error)
}

// Handler управляет HTTP-запросами на завершение OAuth-потока.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Завершить вход через Google
// @Description Обрабатывает редирект от Google, создает пользователя при первом входе и возвращает JWT.
// @Tags Auth
// @Produce  json
// @Param code query string true "Код авторизации"
// @Param state query string true "State-токен"
// @Success 200 {object} map[string]any "Токен выдан"
// @Failure 400 {object} response.ErrorResponse "Некорректный state или код"
// @Failure 403 {object} response.ErrorResponse "Учетная запись деактивирована или почта не подтверждена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /auth/google/callback [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.googlecallback"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		log.Error("missing code or state query parameter")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing code or state"))
		return
	}

	token, role, err := h.service.HandleCallback(r.Context(), code, state)
	if err != nil {
		switch {
		case errors.Is(err, authservice.ErrInvalidOAuthState):
			log.Error("invalid oauth state")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid or expired state"))
		case errors.Is(err, authservice.ErrUnverifiedEmail):
			log.Error("unverified google email")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("google account email is not verified"))
		case errors.Is(err, authservice.ErrUserInactive):
			log.Error("deactivated account login attempt")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("account is deactivated"))
		default:
			log.Error("google callback failed", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to login with google"))
		}
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"token": token,
		"role":  role,
	}))
}

// Package googlelogin реализует HTTP-обработчик начала входа через Google:
// клиент получает редирект на страницу авторизации Google.
package googlelogin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ssnapify/ssnapify-backend/internal/http/response"
	"github.com/ssnapify/ssnapify-backend/internal/lib/sl"
)

// Service описывает интерфейс бизнес-логики входа через Google.
type Service interface {
	AuthURL(ctx context.Context) (string, error)
}

// Handler управляет HTTP-запросами на начало OAuth-потока.
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
// @Summary Начать вход через Google
// @Description Перенаправляет на страницу авторизации Google с одноразовым state-токеном.
// @Tags Auth
// @Success 307 "Редирект на Google"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /auth/google/login [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.googlelogin"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	url, err := h.service.AuthURL(r.Context())
	if err != nil {
		log.Error("failed to build auth url", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to start google login"))
		return
	}

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

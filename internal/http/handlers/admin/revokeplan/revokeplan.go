// Package revokeplan реализует административный HTTP-обработчик досрочного
// перевода пользователя на бесплатный тариф.
package revokeplan

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ssnapify/ssnapify-backend/internal/http/response"
	"github.com/ssnapify/ssnapify-backend/internal/lib/sl"
	"github.com/ssnapify/ssnapify-backend/internal/models"
	"github.com/ssnapify/ssnapify-backend/internal/storage/repository"
)

// UserProvider возвращает пользователя по UID.
type UserProvider interface {
	GetUserByUID(ctx context.Context, userUID string) (*models.User, error)
}

// Service описывает интерфейс биллингового движка для отзыва тарифа.
type Service interface {
	RevertToFree(ctx context.Context, user *models.User, now time.Time) error
}

// Handler управляет административными запросами на отзыв тарифа.
type Handler struct {
	log     *slog.Logger
	users   UserProvider
	service Service
}

// New создает новый Handler с переданными логгером, хранилищем и сервисом.
func New(log *slog.Logger, users UserProvider, service Service) *Handler {
	return &Handler{
		log:     log,
		users:   users,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Отозвать платный тариф
// @Description Переводит пользователя на бесплатный тариф, кредиты платного тарифа сгорают. Только для администраторов.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param uid path string true "UID пользователя"
// @Success 200 {object} map[string]any "Тариф отозван"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Нет прав администратора"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/users/{uid}/plan [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.revokeplan"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid := chi.URLParam(r, "uid")

	user, err := h.users.GetUserByUID(r.Context(), uid)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			log.Error("user not found", sl.UID(uid))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to get user", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to get user"))
		return
	}

	if err := h.service.RevertToFree(r.Context(), user, time.Now().UTC()); err != nil {
		log.Error("failed to revoke plan", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to revoke plan"))
		return
	}

	log.Info("plan revoked", sl.UID(uid))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user_uid":       user.UID,
		"plan_id":        user.PlanID,
		"credit_balance": user.CreditBalance,
	}))
}

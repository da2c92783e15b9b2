// Package remove реализует HTTP-обработчик удаления изображения
// из медиасервиса и хранилища.
package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ssnapify/ssnapify-backend/internal/http/middlewarectx"
	"github.com/ssnapify/ssnapify-backend/internal/http/response"
	"github.com/ssnapify/ssnapify-backend/internal/lib/sl"
	"github.com/ssnapify/ssnapify-backend/internal/storage/repository"
)

// Service описывает интерфейс бизнес-логики удаления изображений.
type Service interface {
	Remove(ctx context.Context, userUID string, imageID int) error
}

// Handler управляет HTTP-запросами на удаление изображений.
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
// @Summary Удалить изображение
// @Description Удаляет изображение пользователя из медиасервиса и хранилища.
// @Tags Images
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID изображения"
// @Success 200 {object} map[string]any "Изображение удалено"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Изображение не найдено"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /images/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.image.remove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("user not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		log.Error("invalid id format", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}

	if err := h.service.Remove(r.Context(), user.UID, id); err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			log.Error("image not found", slog.Int("image_id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("image not found"))
			return
		}
		log.Error("failed to remove image", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to remove image"))
		return
	}

	log.Info("image removed", slog.Int("image_id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"deleted_id": id,
	}))
}

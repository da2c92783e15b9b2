// Package upload реализует HTTP-обработчик загрузки изображения.
//
// Handler принимает multipart-форму с файлом, загружает изображение во
// внешний медиасервис и сохраняет запись о нем. Загрузка бесплатна.
package upload

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ssnapify/ssnapify-backend/internal/http/middlewarectx"
	"github.com/ssnapify/ssnapify-backend/internal/http/response"
	"github.com/ssnapify/ssnapify-backend/internal/lib/sl"
	"github.com/ssnapify/ssnapify-backend/internal/models"
)

// Максимальный размер загружаемого файла.
const maxUploadSize = 10 << 20

// Service описывает интерфейс бизнес-логики загрузки изображений.
type Service interface {
	Upload(ctx context.Context, user *models.User, title string, fileContent []byte) (*models.Image, error)
}

// Handler управляет HTTP-запросами на загрузку изображений.
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
// @Summary Загрузить изображение
// @Description Принимает multipart-форму с полем file и необязательным полем title.
// @Tags Images
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param file formData file true "Файл изображения"
// @Param title formData string false "Название"
// @Success 200 {object} map[string]any "Изображение загружено"
// @Failure 400 {object} response.ErrorResponse "Некорректная форма"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /images [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.image.upload"

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

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		log.Error("failed to parse multipart form", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid multipart form"))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		log.Error("file field is missing", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("file is required"))
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		log.Error("failed to read file", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read file"))
		return
	}
	title := r.FormValue("title")

	img, err := h.service.Upload(r.Context(), user, title, content)
	if err != nil {
		log.Error("failed to upload image", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to upload image"))
		return
	}

	log.Info("image uploaded", slog.Int("image_id", img.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id":         img.ID,
		"public_id":  img.PublicID,
		"secure_url": img.SecureURL,
		"title":      img.Title,
	}))
}

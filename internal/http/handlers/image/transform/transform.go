// Package transform реализует HTTP-обработчик AI-трансформации изображения.
//
// Кредиты списываются через биллинговый гейт до выполнения трансформации;
// администраторы проходят без списания. При нехватке кредитов запрос
// отклоняется целиком, частичных списаний не бывает.
package transform

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/ssnapify/ssnapify-backend/internal/http/middlewarectx"
	"github.com/ssnapify/ssnapify-backend/internal/http/response"
	"github.com/ssnapify/ssnapify-backend/internal/lib/sl"
	"github.com/ssnapify/ssnapify-backend/internal/models"
	billingservice "github.com/ssnapify/ssnapify-backend/internal/services/billing"
	imageservice "github.com/ssnapify/ssnapify-backend/internal/services/image"
	"github.com/ssnapify/ssnapify-backend/internal/storage/repository"
)

// Service описывает интерфейс бизнес-логики трансформации изображений.
type Service interface {
	Transform(ctx context.Context, user *models.User, imageID int, transformationType string) (*models.Image, error)
}

// Handler управляет HTTP-запросами на трансформацию изображений.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Применить AI-трансформацию
// @Description Применяет к изображению трансформацию заданного типа, списывая кредиты по ее стоимости.
// @Tags Images
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID изображения"
// @Param request body models.TransformRequest true "Тип трансформации"
// @Success 200 {object} map[string]any "Трансформация применена"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 402 {object} response.ErrorResponse "Недостаточно кредитов"
// @Failure 404 {object} response.ErrorResponse "Изображение не найдено"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /images/{id}/transform [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.image.transform"

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

	var req models.TransformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	img, err := h.service.Transform(r.Context(), user, id, req.Type)
	if err != nil {
		switch {
		case errors.Is(err, billingservice.ErrInsufficientCredits):
			log.Error("insufficient credits", slog.String("type", req.Type))
			w.WriteHeader(http.StatusPaymentRequired)
			render.JSON(w, r, response.Error("insufficient credits"))
		case errors.Is(err, repository.ErrImageNotFound):
			log.Error("image not found", slog.Int("image_id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("image not found"))
		case errors.Is(err, imageservice.ErrUnknownTransformation):
			log.Error("unknown transformation type", slog.String("type", req.Type))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("unknown transformation type"))
		default:
			log.Error("failed to transform image", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to transform image"))
		}
		return
	}

	log.Info("image transformed", slog.Int("image_id", img.ID), slog.String("type", req.Type))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id":                  img.ID,
		"transformation_type": img.TransformationType,
		"transformed_url":     img.TransformedURL,
		"credit_balance":      user.CreditBalance,
	}))
}

// Package setcredits реализует административный HTTP-обработчик установки
// баланса кредитов пользователя. Явное переопределение, минуя гейт списания.
package setcredits

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/ssnapify/ssnapify-backend/internal/http/response"
	"github.com/ssnapify/ssnapify-backend/internal/lib/sl"
	"github.com/ssnapify/ssnapify-backend/internal/models"
	"github.com/ssnapify/ssnapify-backend/internal/storage/repository"
)

// Service описывает интерфейс хранилища для установки баланса.
type Service interface {
	SetCreditBalance(ctx context.Context, userUID string, credits int) error
}

// Handler управляет административными запросами на установку баланса.
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
// @Summary Установить баланс кредитов
// @Description Устанавливает пользователю точное значение баланса кредитов. Только для администраторов.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param uid path string true "UID пользователя"
// @Param request body models.CreditUpdateRequest true "Новый баланс"
// @Success 200 {object} map[string]any "Баланс обновлен"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Нет прав администратора"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/users/{uid}/credits [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.setcredits"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid := chi.URLParam(r, "uid")

	var req models.CreditUpdateRequest
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

	if err := h.service.SetCreditBalance(r.Context(), uid, *req.Credits); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			log.Error("user not found", sl.UID(uid))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to set credits", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to set credits"))
		return
	}

	log.Info("credits updated", sl.UID(uid), slog.Int("credit_balance", *req.Credits))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user_uid":       uid,
		"credit_balance": *req.Credits,
	}))
}

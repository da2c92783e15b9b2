// Package assignplan реализует административный HTTP-обработчик назначения
// платного тарифа пользователю.
//
// Назначение замещает прежнее биллинговое состояние целиком: выдаются
// кредиты нового тарифа, неиспользованные кредиты не переносятся, якорь
// циклов и срок действия устанавливаются от момента назначения.
package assignplan

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/ssnapify/ssnapify-backend/internal/http/response"
	"github.com/ssnapify/ssnapify-backend/internal/lib/sl"
	"github.com/ssnapify/ssnapify-backend/internal/models"
	billingservice "github.com/ssnapify/ssnapify-backend/internal/services/billing"
	"github.com/ssnapify/ssnapify-backend/internal/storage/repository"
)

// UserProvider возвращает пользователя по UID.
type UserProvider interface {
	GetUserByUID(ctx context.Context, userUID string) (*models.User, error)
}

// Service описывает интерфейс биллингового движка для назначения тарифа.
type Service interface {
	AssignPaidPlan(ctx context.Context, user *models.User, planID int, now time.Time) error
}

// Handler управляет административными запросами на назначение тарифа.
type Handler struct {
	log      *slog.Logger
	users    UserProvider
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером, хранилищем и сервисом.
func New(log *slog.Logger, users UserProvider, service Service) *Handler {
	return &Handler{
		log:      log,
		users:    users,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Назначить платный тариф
// @Description Переводит пользователя на платный тариф. Неиспользованные кредиты сгорают. Только для администраторов.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param uid path string true "UID пользователя"
// @Param request body models.AssignPlanRequest true "Идентификатор тарифа"
// @Success 200 {object} map[string]any "Тариф назначен"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос или неизвестный тариф"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Нет прав администратора"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/users/{uid}/plan [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.assignplan"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid := chi.URLParam(r, "uid")

	var req models.AssignPlanRequest
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

	if err := h.service.AssignPaidPlan(r.Context(), user, req.PlanID, time.Now().UTC()); err != nil {
		if errors.Is(err, billingservice.ErrInvalidPlan) {
			log.Error("invalid plan id", slog.Int("plan_id", req.PlanID))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("unknown or non-paid plan"))
			return
		}
		log.Error("failed to assign plan", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to assign plan"))
		return
	}

	log.Info("plan assigned", sl.UID(uid), slog.Int("plan_id", req.PlanID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user_uid":       user.UID,
		"plan_id":        user.PlanID,
		"credit_balance": user.CreditBalance,
	}))
}

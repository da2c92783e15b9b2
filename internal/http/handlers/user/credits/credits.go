// Package credits реализует HTTP-обработчик состояния кредитов: баланс,
// тариф, конец текущего цикла и число дней до сброса. Перед проекцией
// биллинговое состояние доводится до актуального.
package credits

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ssnapify/ssnapify-backend/internal/http/middlewarectx"
	"github.com/ssnapify/ssnapify-backend/internal/http/response"
	"github.com/ssnapify/ssnapify-backend/internal/lib/sl"
	"github.com/ssnapify/ssnapify-backend/internal/models"
)

// Service описывает интерфейс биллингового движка для проекции кредитов.
type Service interface {
	GetCreditsInfo(ctx context.Context, user *models.User, now time.Time) (*models.CreditsInfo, error)
}

// Handler управляет HTTP-запросами на чтение состояния кредитов.
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
// @Summary Состояние кредитов
// @Description Возвращает баланс, тариф, конец текущего цикла и число дней до сброса.
// @Tags Users
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Состояние кредитов"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /users/me/credits [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.credits"

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

	info, err := h.service.GetCreditsInfo(r.Context(), user, time.Now().UTC())
	if err != nil {
		log.Error("failed to get credits info", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to get credits info"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"credit_balance":   info.Balance,
		"plan_id":          info.PlanID,
		"days_until_reset": info.DaysUntilReset,
		"cycle_ends_at":    info.CycleEndsAt.Format(time.RFC3339),
	}))
}

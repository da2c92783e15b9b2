// Package listusers реализует административный HTTP-обработчик списка
// пользователей с их биллинговым состоянием.
package listusers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ssnapify/ssnapify-backend/internal/http/response"
	"github.com/ssnapify/ssnapify-backend/internal/lib/sl"
	"github.com/ssnapify/ssnapify-backend/internal/models"
)

// Service описывает интерфейс чтения списка пользователей.
type Service interface {
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
}

// Handler управляет административными запросами списка пользователей.
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
// @Summary Список пользователей
// @Description Возвращает страницу пользователей с биллинговым состоянием. Только для администраторов.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param limit query int false "Размер страницы" default(50)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {object} map[string]any "Список пользователей"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Нет прав администратора"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/users [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.listusers"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	users, err := h.service.ListUsers(r.Context(), limit, offset)
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list users"))
		return
	}

	items := make([]map[string]any, 0, len(users))
	for _, u := range users {
		var expiresAt *string
		if u.PlanExpiresAt != nil {
			formatted := u.PlanExpiresAt.Format(time.RFC3339)
			expiresAt = &formatted
		}
		items = append(items, map[string]any{
			"uid":             u.UID,
			"email":           u.Email,
			"username":        u.Username,
			"role":            u.Role,
			"plan_id":         u.PlanID,
			"credit_balance":  u.CreditBalance,
			"plan_expires_at": expiresAt,
			"is_active":       u.IsActive,
		})
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"users": items,
		"count": len(items),
	}))
}

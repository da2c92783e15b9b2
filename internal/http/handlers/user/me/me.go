// Package me реализует HTTP-обработчик профиля текущего пользователя.
package me

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ssnapify/ssnapify-backend/internal/http/middlewarectx"
	"github.com/ssnapify/ssnapify-backend/internal/http/response"
)

// Handler управляет HTTP-запросами на чтение профиля.
type Handler struct {
	log *slog.Logger
}

// New создает новый Handler с переданным логгером.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Профиль текущего пользователя
// @Description Возвращает профиль и биллинговое состояние авторизованного пользователя.
// @Tags Users
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Профиль пользователя"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Router /users/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.me"

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

	var expiresAt *string
	if user.PlanExpiresAt != nil {
		formatted := user.PlanExpiresAt.Format(time.RFC3339)
		expiresAt = &formatted
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"uid":             user.UID,
		"email":           user.Email,
		"username":        user.Username,
		"role":            user.Role,
		"plan_id":         user.PlanID,
		"credit_balance":  user.CreditBalance,
		"plan_expires_at": expiresAt,
		"is_active":       user.IsActive,
	}))
}

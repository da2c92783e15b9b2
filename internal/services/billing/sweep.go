package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ssnapify/ssnapify-backend/internal/lib/sl"
	"github.com/ssnapify/ssnapify-backend/internal/models"
)

// RunSweep выполняет обход всех биллинговых записей: для каждой применяет
// истечение тарифа и месячный сброс, записывая только изменившиеся.
// Возвращает количество изменённых записей.
//
// Обход — страховочный механизм для пользователей, не заходивших в систему;
// он и проверка на пути чтения идемпотентны и безопасно гоняются параллельно.
// Ошибка обработки одной записи логируется и не прерывает обход.
func (s *BillingService) RunSweep(ctx context.Context, now time.Time) (int, error) {
	const op = "services.billing.RunSweep"
	log := s.log.With(slog.String("op", op))

	log.Info("billing sweep started", slog.Time("now", now))

	changed := 0
	scanned := 0
	for offset := 0; ; offset += s.batchSize {
		users, err := s.repo.ListBillingRecords(ctx, s.batchSize, offset)
		if err != nil {
			return changed, fmt.Errorf("%s: %w", op, err)
		}
		if len(users) == 0 {
			break
		}

		for _, user := range users {
			scanned++
			if s.sweepUser(ctx, user, now) {
				changed++
			}
		}

		if len(users) < s.batchSize {
			break
		}
	}

	log.Info("billing sweep finished",
		slog.Int("scanned", scanned),
		slog.Int("changed", changed))
	return changed, nil
}

func (s *BillingService) sweepUser(ctx context.Context, user *models.User, now time.Time) bool {
	expiredPlanID := 0
	if user.PlanExpiresAt != nil && !user.PlanExpiresAt.After(now.UTC()) {
		expiredPlanID = user.PlanID
	}

	if !s.evaluator.Advance(user, now) {
		return false
	}
	if err := s.repo.UpdateBillingState(ctx, user); err != nil {
		s.log.Error("failed to persist billing state", sl.UID(user.UID), sl.Err(err))
		return false
	}

	if expiredPlanID != 0 && s.events != nil {
		event := models.PlanExpiredEvent{
			UserUID:   user.UID,
			Email:     user.Email,
			Username:  user.Username,
			PlanID:    expiredPlanID,
			ExpiredAt: now.UTC(),
		}
		if err := s.events.PublishPlanExpired(event); err != nil {
			s.log.Error("failed to publish plan expired event", sl.UID(user.UID), sl.Err(err))
		}
	}
	return true
}

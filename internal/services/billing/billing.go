// Package services содержит бизнес-логику биллингового движка: гейт списания
// кредитов, проекцию состояния кредитов, назначение тарифов и ежедневный
// обход биллинговых записей.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ssnapify/ssnapify-backend/internal/billing"
	"github.com/ssnapify/ssnapify-backend/internal/models"
)

// UserRepository определяет методы хранилища, нужные биллинговому движку.
type UserRepository interface {
	// GetUserByUID возвращает пользователя по UID.
	GetUserByUID(ctx context.Context, userUID string) (*models.User, error)
	// UpdateBillingState записывает биллинговые поля пользователя одним UPDATE.
	UpdateBillingState(ctx context.Context, user *models.User) error
	// DebitCredits атомарно списывает cost кредитов; false — нехватка баланса.
	DebitCredits(ctx context.Context, userUID string, cost int) (int, bool, error)
	// CreditBack возвращает cost кредитов на баланс (компенсация).
	CreditBack(ctx context.Context, userUID string, cost int) (int, error)
	// ListBillingRecords возвращает страницу биллинговых записей.
	ListBillingRecords(ctx context.Context, limit, offset int) ([]*models.User, error)
}

// EventPublisher публикует биллинговые события во внешнюю очередь уведомлений.
type EventPublisher interface {
	PublishPlanExpired(event models.PlanExpiredEvent) error
}

// BillingService реализует операции биллингового движка поверх хранилища.
type BillingService struct {
	repo      UserRepository
	catalog   *billing.Catalog
	evaluator *billing.Evaluator
	events    EventPublisher // nil — события не публикуются
	batchSize int
	log       *slog.Logger
}

// NewBillingService создает новый экземпляр BillingService.
// events может быть nil, если публикация событий не требуется.
func NewBillingService(repo UserRepository, catalog *billing.Catalog, events EventPublisher, batchSize int, log *slog.Logger) *BillingService {
	return &BillingService{
		repo:      repo,
		catalog:   catalog,
		evaluator: billing.NewEvaluator(catalog),
		events:    events,
		batchSize: batchSize,
		log:       log,
	}
}

// Catalog возвращает каталог тарифов, с которым работает сервис.
func (s *BillingService) Catalog() *billing.Catalog {
	return s.catalog
}

// SpendCredits — гейт списания кредитов перед оплачиваемым действием.
// Администраторы проходят без списания. Проверка и уменьшение баланса
// выполняются одним условным UPDATE, поэтому параллельные списания
// не могут обогнать друг друга. Возвращает новый баланс.
//
// Списание происходит не более одного раза на действие: повторять вызов
// после успешного коммита нельзя, только после подтверждённой ошибки.
func (s *BillingService) SpendCredits(ctx context.Context, user *models.User, cost int) (int, error) {
	const op = "services.billing.SpendCredits"

	if billing.DecideCharge(user.Role, cost) == billing.DecisionBypass {
		return user.CreditBalance, nil
	}

	balance, ok, err := s.repo.DebitCredits(ctx, user.UID, cost)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return user.CreditBalance, ErrInsufficientCredits
	}

	user.CreditBalance = balance
	s.log.Info("credits debited",
		slog.String("user_uid", user.UID),
		slog.Int("cost", cost),
		slog.Int("balance", balance))
	return balance, nil
}

// RefundCredits возвращает cost кредитов пользователю. Компенсация для
// случая, когда оплаченное действие не удалось после успешного списания:
// пользователь никогда не платит за неудавшуюся операцию.
func (s *BillingService) RefundCredits(ctx context.Context, userUID string, cost int) error {
	const op = "services.billing.RefundCredits"

	if cost == 0 {
		return nil
	}
	balance, err := s.repo.CreditBack(ctx, userUID, cost)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("credits refunded",
		slog.String("user_uid", userUID),
		slog.Int("cost", cost),
		slog.Int("balance", balance))
	return nil
}

// SyncBillingState применяет к пользователю назревшие переходы (истечение
// тарифа, месячный сброс) и записывает их в хранилище. Вызывается на пути
// чтения, чтобы пользователь видел свежий баланс, не дожидаясь обхода.
func (s *BillingService) SyncBillingState(ctx context.Context, user *models.User, now time.Time) error {
	const op = "services.billing.SyncBillingState"

	if !s.evaluator.Advance(user, now) {
		return nil
	}
	if err := s.repo.UpdateBillingState(ctx, user); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("billing state advanced",
		slog.String("user_uid", user.UID),
		slog.Int("plan_id", user.PlanID),
		slog.Int("balance", user.CreditBalance))
	return nil
}

// GetCreditsInfo возвращает проекцию состояния кредитов пользователя:
// баланс, тариф, конец текущего цикла и число дней до сброса. Перед
// проекцией состояние доводится до актуального.
func (s *BillingService) GetCreditsInfo(ctx context.Context, user *models.User, now time.Time) (*models.CreditsInfo, error) {
	const op = "services.billing.GetCreditsInfo"

	if err := s.SyncBillingState(ctx, user, now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now = now.UTC()
	var anchor *time.Time
	if s.catalog.GetOrFree(user.PlanID).IsPaid() {
		anchor = user.BillingAnchorUTC
	}
	cycleEnd := billing.CycleEnd(anchor, now)

	days := int((cycleEnd.Sub(now) + 24*time.Hour - time.Nanosecond) / (24 * time.Hour))
	return &models.CreditsInfo{
		Balance:        user.CreditBalance,
		PlanID:         user.PlanID,
		DaysUntilReset: days,
		CycleEndsAt:    cycleEnd,
	}, nil
}

// AssignPaidPlan переводит пользователя на платный тариф planID.
// Прежнее биллинговое состояние замещается целиком, неиспользованные
// кредиты не переносятся.
func (s *BillingService) AssignPaidPlan(ctx context.Context, user *models.User, planID int, now time.Time) error {
	const op = "services.billing.AssignPaidPlan"

	spec, ok := s.catalog.Get(planID)
	if !ok || !spec.IsPaid() {
		return fmt.Errorf("%s: plan %d: %w", op, planID, ErrInvalidPlan)
	}

	s.evaluator.AssignPaidPlan(user, planID, now)
	if err := s.repo.UpdateBillingState(ctx, user); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("paid plan assigned",
		slog.String("user_uid", user.UID),
		slog.Int("plan_id", planID))
	return nil
}

// RevertToFree возвращает пользователя на бесплатный тариф.
func (s *BillingService) RevertToFree(ctx context.Context, user *models.User, now time.Time) error {
	const op = "services.billing.RevertToFree"

	s.evaluator.RevertToFree(user, now)
	if err := s.repo.UpdateBillingState(ctx, user); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("plan reverted to free", slog.String("user_uid", user.UID))
	return nil
}

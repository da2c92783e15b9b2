package billing

import (
	"fmt"
	"time"

	"github.com/ssnapify/ssnapify-backend/internal/lib/timeutil"
	"github.com/ssnapify/ssnapify-backend/internal/models"
)

// AssignPaidPlan переводит пользователя на платный тариф planID с момента now:
// якорь и дата начала устанавливаются в now, срок действия — now плюс
// длительность тарифа, баланс — в месячный грант тарифа.
//
// Это полная замена биллингового состояния: неиспользованные кредиты
// прежнего тарифа не переносятся. Передача идентификатора, не являющегося
// платным тарифом каталога, — ошибка вызывающего и завершается паникой;
// сервисный слой валидирует ввод заранее.
func (e *Evaluator) AssignPaidPlan(u *models.User, planID int, now time.Time) {
	spec := e.catalog.MustGet(planID)
	if !spec.IsPaid() {
		panic(fmt.Sprintf("billing: plan %d is not a paid plan", planID))
	}
	now = now.UTC()
	expires := timeutil.AddCalendarMonths(now, *spec.DurationMonths)

	u.PlanID = planID
	u.PlanStartedAt = &now
	u.BillingAnchorUTC = &now
	u.PlanExpiresAt = &expires
	u.CreditBalance = spec.MonthlyCredits
	u.LastCreditResetAt = &now
}

// RevertToFree возвращает пользователя на бесплатный тариф: срок, якорь
// и дата начала очищаются, баланс устанавливается в грант бесплатного
// тарифа, last_credit_reset_at = now.
func (e *Evaluator) RevertToFree(u *models.User, now time.Time) {
	now = now.UTC()
	u.PlanID = e.catalog.FreeID()
	u.PlanStartedAt = nil
	u.PlanExpiresAt = nil
	u.BillingAnchorUTC = nil
	u.CreditBalance = e.catalog.Free().MonthlyCredits
	u.LastCreditResetAt = &now
}

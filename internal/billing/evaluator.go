package billing

import (
	"time"

	"github.com/ssnapify/ssnapify-backend/internal/lib/timeutil"
	"github.com/ssnapify/ssnapify-backend/internal/models"
)

// Evaluator применяет к биллинговому состоянию пользователя переходы,
// обусловленные временем: истечение платного тарифа и месячный сброс
// кредитов. Работает только с полями структуры в памяти; запись изменений
// в хранилище выполняет вызывающий.
type Evaluator struct {
	catalog *Catalog
}

// NewEvaluator создаёт Evaluator с внедрённым каталогом тарифов.
func NewEvaluator(catalog *Catalog) *Evaluator {
	return &Evaluator{catalog: catalog}
}

// HandleExpiration возвращает пользователя на бесплатный тариф, если срок
// платного тарифа истёк (plan_expires_at <= now). Переход выполняется
// целиком: очищаются срок, якорь и дата начала, баланс устанавливается
// в месячный грант бесплатного тарифа, last_credit_reset_at = now.
// Возвращает, произошло ли изменение.
func (e *Evaluator) HandleExpiration(u *models.User, now time.Time) bool {
	now = now.UTC()
	if u.PlanExpiresAt == nil || u.PlanExpiresAt.After(now) {
		return false
	}
	free := e.catalog.FreeID()
	u.PlanID = free
	u.PlanStartedAt = nil
	u.PlanExpiresAt = nil
	u.BillingAnchorUTC = nil
	u.CreditBalance = e.catalog.Free().MonthlyCredits
	u.LastCreditResetAt = &now
	return true
}

// ApplyMonthlyReset выполняет месячный сброс кредитов, если начался новый
// платёжный цикл. Сброс жёсткий: баланс устанавливается в месячный грант
// тарифа, неиспользованные кредиты не переносятся. Возвращает, произошло
// ли изменение.
//
// Тариф с неизвестным идентификатором трактуется как бесплатный (защитный
// путь, в нормальной работе не достигается). Платный тариф без якоря
// откатывается к календарно-месячным циклам.
func (e *Evaluator) ApplyMonthlyReset(u *models.User, now time.Time) bool {
	now = now.UTC()
	spec := e.catalog.GetOrFree(u.PlanID)

	var cycleStart time.Time
	if spec.IsPaid() {
		cycleStart = CycleStart(u.BillingAnchorUTC, now)
	} else {
		cycleStart = timeutil.StartOfUTCMonth(now)
	}

	if u.LastCreditResetAt != nil && !u.LastCreditResetAt.Before(cycleStart) {
		return false
	}

	u.CreditBalance = spec.MonthlyCredits
	u.LastCreditResetAt = &now
	return true
}

// Advance применяет оба перехода в правильном порядке: сначала истечение,
// затем сброс. Истёкший тариф обязан вернуться на бесплатный до оценки
// сброса, иначе в одном проходе применились бы и платный сброс,
// и истечение. Оба перехода идемпотентны при фиксированном now.
func (e *Evaluator) Advance(u *models.User, now time.Time) bool {
	changed := e.HandleExpiration(u, now)
	if e.ApplyMonthlyReset(u, now) {
		changed = true
	}
	return changed
}

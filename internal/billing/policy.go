package billing

import "github.com/ssnapify/ssnapify-backend/internal/models"

// ChargeDecision — решение политики списания кредитов для оплачиваемого
// действия.
type ChargeDecision int

const (
	// DecisionCharge — списать полную стоимость действия.
	DecisionCharge ChargeDecision = iota
	// DecisionBypass — пропустить без списания.
	DecisionBypass
)

// DecideCharge возвращает решение о списании для роли пользователя
// и стоимости действия. Администраторы и действия нулевой стоимости
// проходят без списания. Политика вынесена в отдельную функцию, чтобы
// будущие уровни тарифов со скидками не требовали правок всех вызывающих.
func DecideCharge(role string, cost int) ChargeDecision {
	if role == models.RoleAdmin {
		return DecisionBypass
	}
	if cost == 0 {
		return DecisionBypass
	}
	return DecisionCharge
}

// Package billing реализует движок кредитных циклов: каталог тарифов,
// расчёт границ платёжного цикла, проверку истечения и сброса кредитов,
// а также переводы пользователя между тарифами.
//
// Все функции пакета чистые: текущее время всегда передаётся явно,
// персистентность остаётся за вызывающим слоем сервисов.
package billing

import "fmt"

// Идентификаторы тарифов каталога по умолчанию.
const (
	// FreePlanID — бесплатный бессрочный тариф.
	FreePlanID = 1
	// MonthlyPlanID — платный тариф на 1 месяц.
	MonthlyPlanID = 2
	// SemiAnnualPlanID — платный тариф на 6 месяцев.
	SemiAnnualPlanID = 3
)

// PlanSpec описывает неизменяемые параметры тарифа: месячный грант кредитов
// и срок действия в месяцах. DurationMonths == nil означает бессрочный
// (бесплатный) тариф.
type PlanSpec struct {
	MonthlyCredits int
	DurationMonths *int
}

// IsPaid сообщает, является ли тариф платным (ограниченным по сроку).
func (s PlanSpec) IsPaid() bool {
	return s.DurationMonths != nil
}

// Catalog — неизменяемый справочник тарифов. Создаётся один раз при старте
// процесса и внедряется в использующие его компоненты, что позволяет
// подменять каталог в тестах.
type Catalog struct {
	plans  map[int]PlanSpec
	freeID int
}

// NewCatalog создаёт каталог из набора тарифов. Ровно одна запись должна
// быть бессрочной — она и считается бесплатным тарифом. Нарушение этого
// условия — ошибка конфигурации, пресекаемая паникой на старте.
func NewCatalog(plans map[int]PlanSpec) *Catalog {
	freeID := 0
	for id, spec := range plans {
		if spec.IsPaid() {
			continue
		}
		if freeID != 0 {
			panic(fmt.Sprintf("billing: catalog has more than one unbounded plan: %d and %d", freeID, id))
		}
		freeID = id
	}
	if freeID == 0 {
		panic("billing: catalog has no unbounded (free) plan")
	}
	return &Catalog{plans: plans, freeID: freeID}
}

// DefaultCatalog возвращает каталог тарифов продукта:
// бесплатный (10 кредитов/месяц), месячный (50) и полугодовой (100).
func DefaultCatalog() *Catalog {
	return NewCatalog(map[int]PlanSpec{
		FreePlanID:       {MonthlyCredits: 10},
		MonthlyPlanID:    {MonthlyCredits: 50, DurationMonths: months(1)},
		SemiAnnualPlanID: {MonthlyCredits: 100, DurationMonths: months(6)},
	})
}

// FreeID возвращает идентификатор бесплатного тарифа.
func (c *Catalog) FreeID() int {
	return c.freeID
}

// Free возвращает спецификацию бесплатного тарифа.
func (c *Catalog) Free() PlanSpec {
	return c.plans[c.freeID]
}

// Get возвращает спецификацию тарифа и признак его наличия в каталоге.
func (c *Catalog) Get(id int) (PlanSpec, bool) {
	spec, ok := c.plans[id]
	return spec, ok
}

// MustGet возвращает спецификацию тарифа. Неизвестный идентификатор —
// ошибка программирования, а не ожидаемое состояние выполнения: тарифы
// приходят только из этого каталога или провалидированного ввода.
func (c *Catalog) MustGet(id int) PlanSpec {
	spec, ok := c.plans[id]
	if !ok {
		panic(fmt.Sprintf("billing: unknown plan id %d", id))
	}
	return spec
}

// GetOrFree возвращает спецификацию тарифа, а для неизвестного
// идентификатора — спецификацию бесплатного тарифа. Защитный путь для
// оценщика сбросов: сохранённый plan_id не обязан переживать смену каталога.
func (c *Catalog) GetOrFree(id int) PlanSpec {
	if spec, ok := c.plans[id]; ok {
		return spec
	}
	return c.Free()
}

func months(n int) *int {
	return &n
}

package services

import "errors"

var (
	// ErrInsufficientCredits возвращается гейтом списания, когда баланса
	// не хватает на оплачиваемое действие. Пользовательская ошибка,
	// устранимая пополнением кредитов; повторять запрос бессмысленно.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrInvalidPlan возвращается при попытке назначить тариф, которого нет
	// в каталоге или который не является платным. Ошибка конфигурации или
	// кода вызывающего, не пользовательская.
	ErrInvalidPlan = errors.New("invalid plan")
)

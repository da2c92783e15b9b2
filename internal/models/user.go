// Package models содержит доменные структуры: пользователя с его биллинговым
// состоянием, изображения и вспомогательные типы для приёма данных из
// JSON-запросов. Структуры используются в бизнес-логике и при работе с хранилищем.
package models

import "time"

// Роли пользователей системы.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User представляет зарегистрированного пользователя системы.
//
// Поля PlanID, CreditBalance, PlanStartedAt, PlanExpiresAt, BillingAnchorUTC
// и LastCreditResetAt принадлежат биллинговому движку и изменяются только им
// и гейтом списания кредитов. Все даты хранятся в UTC; nil означает
// отсутствие значения (бесплатный тариф не имеет срока и якоря).
type User struct {
	UID          string // Уникальный идентификатор пользователя
	Email        string // Электронная почта (уникальная)
	Username     string // Имя пользователя (уникальное)
	PasswordHash string // Хэш пароля; для входа через Google — заглушка
	Role         string // Роль пользователя, admin или user

	PlanID            int        // Идентификатор тарифа из каталога
	CreditBalance     int        // Остаток кредитов, всегда >= 0
	PlanStartedAt     *time.Time // Момент назначения платного тарифа
	PlanExpiresAt     *time.Time // Момент возврата на бесплатный тариф
	BillingAnchorUTC  *time.Time // Якорь для расчёта границ платёжных циклов
	LastCreditResetAt *time.Time // Момент последнего сброса кредитов

	IsActive  bool      // Активен ли аккаунт
	CreatedAt time.Time // Дата создания аккаунта
	UpdatedAt time.Time // Дата последнего изменения
}

// IsAdmin сообщает, обладает ли пользователь административной ролью.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// RegisterRequest используется для приёма данных регистрации из JSON-запроса.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`       // Электронная почта
	Username string `json:"username" validate:"required,alphanum"` // Имя пользователя
	Password string `json:"password" validate:"required,min=8"`    // Пароль (минимум 8 символов)
}

// LoginRequest используется для приёма данных входа из JSON-запроса.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"` // Электронная почта
	Password string `json:"password" validate:"required"`    // Пароль
}

// RoleUpdateRequest — запрос администратора на смену роли пользователя.
type RoleUpdateRequest struct {
	MakeAdmin *bool `json:"make_admin" validate:"required"` // true — выдать роль admin
}

// StatusUpdateRequest — запрос администратора на смену статуса аккаунта.
type StatusUpdateRequest struct {
	IsActive *bool `json:"is_active" validate:"required"` // true — активировать аккаунт
}

// CreditUpdateRequest — запрос администратора на установку баланса кредитов.
type CreditUpdateRequest struct {
	Credits *int `json:"credits" validate:"required,gte=0"` // Новый баланс, >= 0
}

// AssignPlanRequest — запрос администратора на назначение платного тарифа.
type AssignPlanRequest struct {
	PlanID int `json:"plan_id" validate:"required,gt=0"` // Идентификатор тарифа из каталога
}

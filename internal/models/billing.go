package models

import "time"

// CreditsInfo — read-only проекция биллингового состояния пользователя,
// отдаваемая эндпоинтом просмотра кредитов. CycleEndsAt — момент следующего
// сброса кредитов, DaysUntilReset — число дней до него, округлённое вверх.
type CreditsInfo struct {
	Balance        int       `json:"balance"`
	PlanID         int       `json:"plan_id"`
	DaysUntilReset int       `json:"days_until_reset"`
	CycleEndsAt    time.Time `json:"cycle_ends_at"`
}

// PlanExpiredEvent публикуется в очередь уведомлений, когда платный тариф
// пользователя истёк и аккаунт возвращён на бесплатный.
type PlanExpiredEvent struct {
	UserUID   string    `json:"user_uid"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	PlanID    int       `json:"plan_id"`    // Истёкший тариф
	ExpiredAt time.Time `json:"expired_at"` // Момент обработки истечения
}

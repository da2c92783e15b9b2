package billing

import (
	"time"

	"github.com/ssnapify/ssnapify-backend/internal/lib/timeutil"
)

// CycleStart возвращает начало текущего платёжного цикла пользователя.
//
// Без якоря (бесплатный тариф) циклы выровнены по календарным месяцам UTC
// независимо от даты регистрации. С якорем (платный тариф) границы цикла
// катятся помесячно от момента назначения тарифа: якорь сдвигается
// на календарный месяц, пока следующая граница не окажется позже now,
// и возвращается последняя граница, не превышающая now.
//
// Цикл завершается всегда: каждый шаг продвигает границу минимум на 28 дней.
func CycleStart(anchor *time.Time, now time.Time) time.Time {
	now = now.UTC()
	if anchor == nil {
		return timeutil.StartOfUTCMonth(now)
	}
	start := anchor.UTC()
	for {
		next := timeutil.AddCalendarMonths(start, 1)
		if next.After(now) {
			return start
		}
		start = next
	}
}

// CycleEnd возвращает момент следующего сброса кредитов — границу,
// следующую за началом текущего цикла.
func CycleEnd(anchor *time.Time, now time.Time) time.Time {
	return timeutil.AddCalendarMonths(CycleStart(anchor, now), 1)
}

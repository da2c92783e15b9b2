// Package timeutil содержит чистые функции календарной арифметики в UTC.
// Используется биллинговым движком для расчёта границ платёжных циклов:
// все даты приводятся к UTC, сдвиг на календарные месяцы выполняется
// с прижатием дня к последнему дню целевого месяца.
package timeutil

import "time"

// StartOfUTCMonth возвращает первый момент (00:00:00.000000000)
// календарного месяца UTC, в который попадает t.
func StartOfUTCMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// AddCalendarMonths сдвигает t на n календарных месяцев вперёд в UTC,
// сохраняя время суток. День месяца прижимается к последнему дню
// целевого месяца: 31 января + 1 месяц = 28 (29) февраля.
// Отрицательный n обрабатывается корректно, хотя вызывающим не требуется.
func AddCalendarMonths(t time.Time, n int) time.Time {
	t = t.UTC()

	total := int(t.Month()) - 1 + n
	year := t.Year() + total/12
	month := total % 12
	if month < 0 {
		month += 12
		year--
	}
	target := time.Month(month + 1)

	day := t.Day()
	if last := lastDayOfMonth(year, target); day > last {
		day = last
	}
	return time.Date(year, target, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// lastDayOfMonth возвращает номер последнего дня месяца.
// День 0 следующего месяца нормализуется пакетом time в последний день текущего.
func lastDayOfMonth(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

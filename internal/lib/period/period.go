// Package period содержит календарную арифметику для сроков подписки:
// прибавление месяцев и дней, выбор точки отсчёта продления и вычисление признака истечения.
package period

import (
	"fmt"
	"time"
)

// DateLayout формат хранения даты окончания подписки.
const DateLayout = "2006-01-02"

// AddMonths прибавляет к t календарные месяцы.
// Если в целевом месяце нет такого числа, берётся последний день месяца (31.01 + 1 = 28.02).
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// AddDays прибавляет к t фиксированное количество дней.
func AddDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// ParseDate разбирает дату окончания подписки в часовом поясе loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	const op = "period.ParseDate"
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// FormatDate форматирует дату окончания подписки для хранения.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Base возвращает точку отсчёта продления: дату окончания, если она ещё в будущем, иначе now.
// Пустая дата означает, что подписки не было. Ошибка разбора возвращается вместе с now,
// решение о том, как на неё реагировать, остаётся вызывающему.
func Base(now time.Time, end string) (time.Time, error) {
	if end == "" {
		return now, nil
	}
	subEnd, err := ParseDate(end, now.Location())
	if err != nil {
		return now, err
	}
	if subEnd.After(now) {
		return subEnd, nil
	}
	return now, nil
}

// Expired сообщает, истекла ли подписка к моменту now.
// Отсутствующая или нечитаемая дата считается истекшей подпиской.
func Expired(now time.Time, end string) (bool, error) {
	if end == "" {
		return true, nil
	}
	subEnd, err := ParseDate(end, now.Location())
	if err != nil {
		return true, err
	}
	return subEnd.Before(now), nil
}

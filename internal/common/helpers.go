// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация, форматирование чисел, работа с временем.
package common

import (
	"fmt"
	"math"
	"time"
)

// PluralizeStones возвращает правильную форму слова «камень» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "камень" (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → "камня" (2, 3, 4, 22, 23, ...)
//   - Остальные случаи → "камней" (0, 5-20, 25-30, 100, ...)
func PluralizeStones(n int64) string {
	absN := int64(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "камень"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "камня"
	}
	return "камней"
}

// FormatStones форматирует сумму в читабельную строку.
// Пример: FormatStones(150) → "150 камней"
func FormatStones(n int64) string {
	return fmt.Sprintf("%d %s", n, PluralizeStones(n))
}

// PluralizeExp возвращает форму слова «единица» (совершенствования).
func PluralizeExp(n int64) string {
	absN := int64(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "единицу"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "единицы"
	}
	return "единиц"
}

// FormatDuration форматирует остаток времени в «2 ч 05 мин» или «45 сек».
// Используется в ответах о прогрессе закрытия и сбора.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%d ч %02d мин", h, m)
	case m > 0:
		return fmt.Sprintf("%d мин %02d сек", m, s)
	default:
		return fmt.Sprintf("%d сек", s)
	}
}

// GetMoscowTime возвращает текущее время в часовом поясе Москвы (Europe/Moscow).
func GetMoscowTime() time.Time {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		// Если не удалось загрузить — используем UTC+3 вручную
		loc = time.FixedZone("MSK", 3*60*60)
	}
	return time.Now().In(loc)
}

// GetMoscowDate возвращает только дату (без времени) в часовом поясе Москвы.
// Используется для «раз в день» проверок (перекличка секты).
func GetMoscowDate() time.Time {
	t := GetMoscowTime()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// GetMoscowDateOf приводит произвольный момент к московской дате
// (без времени). Парная к GetMoscowDate для сравнения «тот же день».
func GetMoscowDateOf(t time.Time) time.Time {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		loc = time.FixedZone("MSK", 3*60*60)
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04" по Москве.
func FormatDateTime(t time.Time) string {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		loc = time.FixedZone("MSK", 3*60*60)
	}
	return t.In(loc).Format("02.01.2006 15:04")
}

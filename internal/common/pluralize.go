// Package common — pluralize.go содержит вспомогательные функции
// для правильного склонения русских числительных.
// Основная логика плюрализации реализована в helpers.go,
// этот файл экспортирует дополнительные утилиты.
package common

import "fmt"

// FormatStonesDelta создаёт строку вида "+100 камней" или "-50 камней".
// Знак «+» или «-» добавляется автоматически.
func FormatStonesDelta(amount int64) string {
	if amount >= 0 {
		return fmt.Sprintf("+%d %s", amount, PluralizeStones(amount))
	}
	return fmt.Sprintf("%d %s", amount, PluralizeStones(amount))
}

// FormatNumber форматирует число с разделителями тысяч (пробелами).
// Пример: FormatNumber(2350) → "2 350"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return FormatNumber(n/1000) + fmt.Sprintf(" %03d", n%1000)
}

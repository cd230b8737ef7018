package common

import (
	"testing"
	"time"
)

func TestPluralizeStones(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{1, "камень"},
		{21, "камень"},
		{101, "камень"},
		{2, "камня"},
		{4, "камня"},
		{23, "камня"},
		{0, "камней"},
		{5, "камней"},
		{11, "камней"},
		{12, "камней"},
		{14, "камней"},
		{100, "камней"},
		{-1, "камень"},
		{-5, "камней"},
	}
	for _, tt := range tests {
		if got := PluralizeStones(tt.n); got != tt.want {
			t.Errorf("PluralizeStones(%d) = %q, ожидалось %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{45 * time.Second, "45 сек"},
		{90 * time.Second, "1 мин 30 сек"},
		{time.Hour + 5*time.Minute, "1 ч 05 мин"},
		{2*time.Hour + 30*time.Minute, "2 ч 30 мин"},
		{-time.Minute, "0 сек"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, ожидалось %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatDateTime(t *testing.T) {
	// Москва — UTC+3 круглый год, и запасная зона в хелпере такая же,
	// поэтому результат не зависит от наличия tzdata на хосте
	got := FormatDateTime(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	if got != "14.03.2026 15:00" {
		t.Errorf("FormatDateTime = %q, ожидалось %q", got, "14.03.2026 15:00")
	}
}

func TestGetMoscowDateOf(t *testing.T) {
	// 23:30 UTC — это уже следующий день по Москве (UTC+3)
	utcEvening := time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)
	d := GetMoscowDateOf(utcEvening)
	if d.Day() != 2 || d.Month() != time.June {
		t.Errorf("поздний вечер UTC должен давать следующую московскую дату, получено %v", d)
	}

	// Полдень UTC остаётся тем же днём
	utcNoon := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	d = GetMoscowDateOf(utcNoon)
	if d.Day() != 1 {
		t.Errorf("полдень UTC: %v, ожидался тот же день", d)
	}

	// Время обнулено
	if d.Hour() != 0 || d.Minute() != 0 || d.Second() != 0 {
		t.Errorf("дата должна быть без времени: %v", d)
	}
}

func TestGetMoscowDateOfSameDayComparison(t *testing.T) {
	a := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	b := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
	if !GetMoscowDateOf(a).Equal(GetMoscowDateOf(b)) {
		t.Error("два момента одного московского дня должны давать равные даты")
	}
}

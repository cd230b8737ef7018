package cultivation

import (
	"testing"

	"taolong.ru/xiuxian-bot/internal/features/player"
)

func strPtr(s string) *string { return &s }

func TestClassifyRoll(t *testing.T) {
	tests := []struct {
		roll float64
		want rollKind
	}{
		{0.0, rollSuccess},
		{0.5, rollSuccess},
		{0.6999, rollSuccess},
		{0.7, rollNothing},
		{0.85, rollNothing},
		{0.8999, rollNothing},
		{0.9, rollBackfire},
		{0.99, rollBackfire},
	}
	for _, tt := range tests {
		if got := classifyRoll(tt.roll); got != tt.want {
			t.Errorf("classifyRoll(%v) = %v, ожидалось %v", tt.roll, got, tt.want)
		}
	}
}

func TestSessionExp(t *testing.T) {
	tests := []struct {
		name    string
		realm   string
		talent  *string
		baseExp int64
		want    int64
	}{
		{"начальная ступень без корня", "Конденсация ци I", nil, 10, 10},
		{"чистый корень", "Конденсация ци I", strPtr("о"), 10, 15},
		{"двойной корень", "Конденсация ци II", strPtr("ог"), 10, 12},
		{"заложение основ", "Заложение основ I", nil, 10, 20},
		{"золотое ядро", "Золотое ядро III", nil, 10, 40},
		{"зарождающаяся душа", "Зарождающаяся душа", nil, 10, 80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &player.Player{Realm: tt.realm, Talent: tt.talent}
			if got := sessionExp(tt.baseExp, p); got != tt.want {
				t.Errorf("sessionExp(%d) = %d, ожидалось %d", tt.baseExp, got, tt.want)
			}
		})
	}
}

func TestClosingOutcome(t *testing.T) {
	p := &player.Player{Realm: "Конденсация ци I", Cultivation: 250}

	if got := closingOutcome(0.1, 10, p); got != 10 {
		t.Errorf("успех: исход %d, ожидалось 10", got)
	}
	if got := closingOutcome(0.75, 10, p); got != 0 {
		t.Errorf("пустой исход: %d, ожидалось 0", got)
	}
	// Искажение ци: потеря 10% накопленного, не зависит от базы
	if got := closingOutcome(0.95, 10, p); got != -25 {
		t.Errorf("искажение: исход %d, ожидалось -25", got)
	}
}

func TestClosingOutcomeBackfireAtZeroCultivation(t *testing.T) {
	p := &player.Player{Realm: "Конденсация ци I", Cultivation: 5}
	// 5/10 == 0 при целочисленном делении: терять нечего
	if got := closingOutcome(0.95, 10, p); got != 0 {
		t.Errorf("исход %d, ожидалось 0", got)
	}
}

func TestDeepClosingExp(t *testing.T) {
	p := &player.Player{Realm: "Конденсация ци I"}

	// 1 сессия: ровно одна база
	if got := deepClosingExp(100, p, 1); got != 100 {
		t.Errorf("1 сессия: %d, ожидалось 100", got)
	}
	// 3 сессии: 100 + 95 + 90.25 = 285.25 → 285
	if got := deepClosingExp(100, p, 3); got != 285 {
		t.Errorf("3 сессии: %d, ожидалось 285", got)
	}
	if got := deepClosingExp(100, p, 0); got != 0 {
		t.Errorf("0 сессий: %d, ожидалось 0", got)
	}
	// Затухание строго ниже линейной суммы
	if got := deepClosingExp(100, p, 10); got >= 1000 {
		t.Errorf("10 сессий: %d, должно быть меньше 1000", got)
	}
}

func TestDiscountedEarlyExit(t *testing.T) {
	tests := []struct {
		name      string
		committed int64
		ratio     float64
		factor    float64
		want      int64
	}{
		{"половина срока", 1000, 0.5, 0.5, 250},
		{"почти весь срок", 1000, 0.99, 0.5, 495},
		{"округление вниз", 101, 0.5, 0.5, 25},
		{"отрицательная доля зажимается", 1000, -1, 0.5, 0},
		{"доля больше единицы зажимается", 1000, 2, 0.5, 500},
		{"нулевой вклад", 0, 0.5, 0.5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := discountedEarlyExit(tt.committed, tt.ratio, tt.factor)
			if got != tt.want {
				t.Errorf("discountedEarlyExit(%d, %v, %v) = %d, ожидалось %d",
					tt.committed, tt.ratio, tt.factor, got, tt.want)
			}
		})
	}
}

func TestNextRealm(t *testing.T) {
	next, threshold, ok := NextRealm("Конденсация ци I")
	if !ok || next != "Конденсация ци II" || threshold != 100 {
		t.Errorf("NextRealm(Конденсация ци I) = (%q, %d, %v)", next, threshold, ok)
	}

	next, threshold, ok = NextRealm("Золотое ядро III")
	if !ok || next != "Зарождающаяся душа" || threshold != 50000 {
		t.Errorf("NextRealm(Золотое ядро III) = (%q, %d, %v)", next, threshold, ok)
	}

	// Вершина лестницы
	if _, _, ok := NextRealm("Зарождающаяся душа"); ok {
		t.Error("с вершины лестницы прорыв невозможен")
	}
	// Неизвестная ступень
	if _, _, ok := NextRealm("Бессмертный"); ok {
		t.Error("неизвестная ступень не должна давать прорыв")
	}
}

func TestRealmLadderMonotonic(t *testing.T) {
	for i := 1; i < len(realmLadder)-1; i++ {
		if realmLadder[i].Threshold <= realmLadder[i-1].Threshold {
			t.Errorf("порог ступени %q (%d) не выше порога %q (%d)",
				realmLadder[i].Name, realmLadder[i].Threshold,
				realmLadder[i-1].Name, realmLadder[i-1].Threshold)
		}
	}
}

package player

import "testing"

func strPtr(s string) *string { return &s }

func TestPower(t *testing.T) {
	tests := []struct {
		name        string
		realm       string
		cultivation int64
		want        int64
	}{
		{"новичок", "Конденсация ци I", 0, 10},
		{"накопленная ци", "Конденсация ци III", 250, 35},
		{"заложение основ", "Заложение основ I", 100, 40},
		{"золотое ядро", "Золотое ядро II", 1000, 440},
		{"зарождающаяся душа", "Зарождающаяся душа", 10000, 8080},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Player{Realm: tt.realm, Cultivation: tt.cultivation}
			if got := p.Power(); got != tt.want {
				t.Errorf("Power() = %d, ожидалось %d", got, tt.want)
			}
		})
	}
}

func TestRealmMultiplier(t *testing.T) {
	tests := []struct {
		realm string
		want  float64
	}{
		{"Конденсация ци I", 1.0},
		{"Конденсация ци III", 1.0},
		{"Заложение основ II", 2.0},
		{"Золотое ядро I", 4.0},
		{"Зарождающаяся душа", 8.0},
		{"что-то неизвестное", 1.0},
	}
	for _, tt := range tests {
		if got := RealmMultiplier(tt.realm); got != tt.want {
			t.Errorf("RealmMultiplier(%q) = %v, ожидалось %v", tt.realm, got, tt.want)
		}
	}
}

func TestTalentMultiplier(t *testing.T) {
	tests := []struct {
		name   string
		talent *string
		want   float64
	}{
		{"нет корня", nil, 1.0},
		{"пустой корень", strPtr(""), 1.0},
		{"одна стихия", strPtr("о"), 1.5},
		{"две стихии", strPtr("ов"), 1.2},
		{"три стихии", strPtr("овз"), 1.0},
		{"четыре стихии", strPtr("овзм"), 0.8},
		{"пять стихий", strPtr("овзмд"), 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TalentMultiplier(tt.talent); got != tt.want {
				t.Errorf("TalentMultiplier = %v, ожидалось %v", got, tt.want)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	p := &Player{UserID: 42}
	if got := p.DisplayName(); got != "безымянный" {
		t.Errorf("без имён: %q", got)
	}

	p.Nickname = strPtr("ivan")
	if got := p.DisplayName(); got != "ivan" {
		t.Errorf("ник: %q", got)
	}

	// Даосское имя важнее ника
	p.DaoName = strPtr("Тао Лун")
	if got := p.DisplayName(); got != "Тао Лун" {
		t.Errorf("даосское имя: %q", got)
	}
}

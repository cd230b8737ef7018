// Package player управляет персонажами игроков (совершенствующимися).
// models.go описывает структуру записи игрока — одна строка на аккаунт.
package player

import (
	"strings"
	"time"
)

// Player представляет персонажа игрока.
// Запись живёт весь срок аккаунта; валюта и счётчики меняются
// только через операции леджера или сервисы, идущие через него.
type Player struct {
	ID       int64   `db:"id"`
	UserID   int64   `db:"user_id"`  // Telegram user ID
	Nickname *string `db:"nickname"` // Имя из Telegram
	DaoName  *string `db:"dao_name"` // Даосское имя, выбранное игроком
	Realm    string  `db:"realm"`    // Ступень совершенствования
	Talent   *string `db:"talent"`   // Духовный корень

	Cultivation  int64 `db:"cultivation"`   // Очки совершенствования (опыт)
	SpiritStones int64 `db:"spirit_stones"` // Валюта; инвариант: всегда >= 0
	Health       int64 `db:"health"`
	MaxHealth    int64 `db:"max_health"`

	CurrentMap   string  `db:"current_map"` // Текущая зона мира
	IsHermit     bool    `db:"is_hermit"`   // Режим отшельника: вне боёв
	SectID       *int64  `db:"sect_id"`
	SectPosition *string `db:"sect_position"`

	// Перезарядки
	LastClosingTime   *time.Time `db:"last_closing_time"`
	LastBattleTime    *time.Time `db:"last_battle_time"`
	LastRollCallTime  *time.Time `db:"last_roll_call_time"`
	LastSectLeaveTime *time.Time `db:"last_sect_leave_time"`

	// Накопительные счётчики
	TotalClosingCount    int   `db:"total_closing_count"`
	TotalBattleCount     int   `db:"total_battle_count"`
	TotalBattleWinCount  int   `db:"total_battle_win_count"`
	TotalExpGained       int64 `db:"total_exp_gained"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// DisplayName возвращает имя для отображения: даосское имя,
// потом ник, потом хвост user_id.
func (p *Player) DisplayName() string {
	if p.DaoName != nil && *p.DaoName != "" {
		return *p.DaoName
	}
	if p.Nickname != nil && *p.Nickname != "" {
		return *p.Nickname
	}
	return "безымянный"
}

// Power возвращает боевую мощь игрока: база плюс десятая часть
// совершенствования, умноженные на множитель ступени.
func (p *Player) Power() int64 {
	base := 10 + p.Cultivation/10
	return int64(float64(base) * RealmMultiplier(p.Realm))
}

// RealmMultiplier возвращает множитель силы/награды для ступени игрока.
// Ступени выше Зарождающейся души пока не введены.
func RealmMultiplier(realm string) float64 {
	switch {
	case strings.HasPrefix(realm, "Конденсация ци"):
		return 1.0
	case strings.HasPrefix(realm, "Заложение основ"):
		return 2.0
	case strings.HasPrefix(realm, "Золотое ядро"):
		return 4.0
	case strings.HasPrefix(realm, "Зарождающаяся душа"):
		return 8.0
	default:
		return 1.0
	}
}

// TalentMultiplier возвращает множитель духовного корня.
// Чем «чище» корень (меньше стихий), тем быстрее рост.
func TalentMultiplier(talent *string) float64 {
	if talent == nil || *talent == "" {
		return 1.0
	}
	n := len([]rune(*talent))
	switch {
	case n == 1:
		return 1.5
	case n == 2:
		return 1.2
	case n >= 4:
		return 0.8
	default:
		return 1.0
	}
}

// Package boss реализует мировых боссов: общие цели зоны, которых
// игроки бьют совместно, а награда делится пропорционально урону.
package boss

import (
	"time"

	"github.com/google/uuid"
)

// WorldBoss представляет живого мирового босса.
type WorldBoss struct {
	ID           uuid.UUID `db:"id"`
	TemplateID   string    `db:"template_id"`
	Name         string    `db:"name"`
	MapName      string    `db:"map_name"`
	CurrentHP    int64     `db:"current_hp"`
	MaxHP        int64     `db:"max_hp"`
	RewardStones int64     `db:"reward_stones"`
	RewardExp    int64     `db:"reward_exp"`
	SpawnedAt    time.Time `db:"spawned_at"`
	ExpiresAt    time.Time `db:"expires_at"`
}

// Alive сообщает, жив ли босс к моменту now.
func (b *WorldBoss) Alive(now time.Time) bool {
	return b.CurrentHP > 0 && now.Before(b.ExpiresAt)
}

// DamageEntry — вклад одного игрока в журнале урона.
type DamageEntry struct {
	BossID uuid.UUID `db:"boss_id"`
	UserID int64     `db:"user_id"`
	Damage int64     `db:"damage"`
}

// Template — шаблон босса для спавна.
type Template struct {
	ID           string
	Name         string
	MapName      string
	MaxHP        int64
	RewardStones int64
	RewardExp    int64
}

// DefaultTemplates возвращает встроенный набор шаблонов боссов.
func DefaultTemplates() []Template {
	return []Template{
		{
			ID:           "demon_wolf",
			Name:         "Демонический волк",
			MapName:      "Тёмный лес",
			MaxHP:        5000,
			RewardStones: 500,
			RewardExp:    300,
		},
		{
			ID:           "corpse_king",
			Name:         "Король трупов",
			MapName:      "Заброшенные рудники",
			MaxHP:        12000,
			RewardStones: 1200,
			RewardExp:    800,
		},
		{
			ID:           "flame_tyrant",
			Name:         "Огненный тиран",
			MapName:      "Огненные пещеры",
			MaxHP:        30000,
			RewardStones: 3000,
			RewardExp:    2000,
		},
	}
}

// RewardShare возвращает долю награды за вклад damage из общего
// урона totalDamage. Остаток от целочисленного деления сгорает.
func RewardShare(total, damage, totalDamage int64) int64 {
	if totalDamage <= 0 || damage <= 0 {
		return 0
	}
	return total * damage / totalDamage
}

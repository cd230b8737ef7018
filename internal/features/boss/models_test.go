package boss

import (
	"testing"
	"time"

	"taolong.ru/xiuxian-bot/internal/features/resources"
)

func TestRewardShare(t *testing.T) {
	tests := []struct {
		name        string
		total       int64
		damage      int64
		totalDamage int64
		want        int64
	}{
		{"единственный участник", 1000, 5000, 5000, 1000},
		{"половина урона", 1000, 2500, 5000, 500},
		{"округление вниз", 100, 1, 3, 33},
		{"нулевой урон", 1000, 0, 5000, 0},
		{"нулевой общий урон", 1000, 100, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RewardShare(tt.total, tt.damage, tt.totalDamage)
			if got != tt.want {
				t.Errorf("RewardShare(%d, %d, %d) = %d, ожидалось %d",
					tt.total, tt.damage, tt.totalDamage, got, tt.want)
			}
		})
	}
}

func TestRewardShareBurnsRemainder(t *testing.T) {
	// Сумма долей не превышает общий фонд, остаток сгорает
	total := int64(100)
	damages := []int64{1, 1, 1}
	var sum int64
	for _, d := range damages {
		sum += RewardShare(total, d, 3)
	}
	if sum > total {
		t.Errorf("сумма долей %d превышает фонд %d", sum, total)
	}
	if sum != 99 {
		t.Errorf("сумма долей %d, ожидалось 99 (остаток сгорает)", sum)
	}
}

func TestAlive(t *testing.T) {
	now := time.Now()
	b := &WorldBoss{CurrentHP: 100, ExpiresAt: now.Add(time.Hour)}
	if !b.Alive(now) {
		t.Error("босс с HP и до истечения срока должен быть жив")
	}

	b.CurrentHP = 0
	if b.Alive(now) {
		t.Error("босс без HP мёртв")
	}

	b.CurrentHP = 100
	b.ExpiresAt = now.Add(-time.Minute)
	if b.Alive(now) {
		t.Error("босс с истёкшим сроком мёртв")
	}
}

func TestDefaultTemplatesSpawnInKnownMaps(t *testing.T) {
	catalog := resources.DefaultCatalog()
	for _, tpl := range DefaultTemplates() {
		if _, ok := catalog[tpl.MapName]; !ok {
			t.Errorf("шаблон %q ссылается на неизвестную зону %q", tpl.ID, tpl.MapName)
		}
		if tpl.MaxHP <= 0 {
			t.Errorf("шаблон %q без запаса здоровья", tpl.ID)
		}
	}
}

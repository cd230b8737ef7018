// Package shop реализует лавку: каталог предметов, покупку
// и употребление.
package shop

import "taolong.ru/xiuxian-bot/internal/features/ledger"

// Item — предмет каталога лавки.
type Item struct {
	ID          string
	Name        string
	Description string
	Price       int64 // в духовных камнях; 0 — не продаётся
	// Эффект употребления; нулевая связка — предмет не употребляется
	// (материалы, руда).
	Effect ledger.EffectBundle
}

// Consumable сообщает, можно ли употребить предмет.
func (i Item) Consumable() bool {
	return i.Effect != (ledger.EffectBundle{})
}

// Catalog — каталог предметов по идентификатору.
type Catalog map[string]Item

// DefaultCatalog возвращает встроенный каталог лавки.
// Сюда входят и предметы, добываемые с ресурсных жил: у них нулевая
// цена, лавка их не продаёт, но знает имена для инвентаря.
func DefaultCatalog() Catalog {
	return Catalog{
		"qi_pill": {
			ID:          "qi_pill",
			Name:        "Пилюля сгущения ци",
			Description: "Немного ускоряет совершенствование",
			Price:       50,
			Effect:      ledger.EffectBundle{Exp: 25},
		},
		"healing_pill": {
			ID:          "healing_pill",
			Name:        "Пилюля исцеления",
			Description: "Восстанавливает 50 здоровья",
			Price:       30,
			Effect:      ledger.EffectBundle{Health: 50},
		},
		"spirit_pill": {
			ID:          "spirit_pill",
			Name:        "Пилюля духовной силы",
			Description: "Заметный рывок совершенствования",
			Price:       200,
			Effect:      ledger.EffectBundle{Exp: 120},
		},
		"spirit_stone_ore": {
			ID:          "spirit_stone_ore",
			Name:        "Руда духовных камней",
			Description: "Сырьё с рудных жил",
		},
		"spirit_herb": {
			ID:          "spirit_herb",
			Name:        "Духовная трава",
			Description: "Основа для пилюль",
		},
		"ironwood": {
			ID:          "ironwood",
			Name:        "Железное дерево",
			Description: "Прочная древесина из тёмного леса",
		},
		"moon_flower": {
			ID:          "moon_flower",
			Name:        "Лунный цветок",
			Description: "Распускается только в полнолуние",
		},
		"fire_crystal": {
			ID:          "fire_crystal",
			Name:        "Огненный кристалл",
			Description: "Пышет жаром огненной пещеры",
		},
	}
}

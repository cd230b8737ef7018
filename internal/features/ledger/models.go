// Package ledger — атомарные многотабличные операции над валютой,
// инвентарём и характеристиками игрока.
// models.go описывает структуры движений камней и связок эффектов.
package ledger

import "time"

// StoneTransaction представляет одну операцию с духовными камнями.
// Все движения камней (покупки, награды, переводы) записываются сюда.
type StoneTransaction struct {
	ID              int64     `db:"id"`
	FromUserID      *int64    `db:"from_user_id"` // nil для системных начислений
	ToUserID        *int64    `db:"to_user_id"`   // nil для системных списаний
	Amount          int64     `db:"amount"`       // Всегда положительная
	TransactionType string    `db:"transaction_type"`
	Description     string    `db:"description"`
	CreatedAt       time.Time `db:"created_at"`
}

// Допустимые типы движений камней
const (
	TxTypePurchase   = "purchase"    // Покупка в лавке
	TxTypeBossReward = "boss_reward" // Награда за босса
	TxTypeTaskReward = "task_reward" // Награда отложенной задачи
	TxTypeTransfer   = "transfer"    // Перевод между игроками
	TxTypeCheckIn    = "check_in"    // Ежедневная отметка
	TxTypeSect       = "sect"        // Основание секты и взносы
)

// InventoryEntry — запись инвентаря с составным ключом (игрок, предмет).
// Инвариант: хранятся только строки с quantity >= 1; опустевшие удаляются.
type InventoryEntry struct {
	ID         int64     `db:"id"`
	UserID     int64     `db:"user_id"`
	ItemID     string    `db:"item_id"`
	Quantity   int64     `db:"quantity"`
	ObtainedAt time.Time `db:"obtained_at"`
}

// ItemDelta — одно изменение инвентаря внутри операции дебет-кредит.
type ItemDelta struct {
	ItemID   string
	Quantity int64 // > 0 — начислить, < 0 — списать
}

// EffectBundle — аддитивная связка награды: опыт, камни и здоровье.
// Здоровье при применении ограничивается максимумом игрока.
type EffectBundle struct {
	Exp    int64
	Stones int64
	Health int64
}

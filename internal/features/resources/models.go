// Package resources управляет ресурсными жилами — общими конечными
// источниками (рудные жилы, духовные травы), которые истощаются при
// сборе и полностью восстанавливаются по таймеру.
// models.go описывает состояние жилы и её статические параметры.
package resources

import "time"

// NodeState — сохранённое состояние жилы с составным ключом (зона, жила).
// Инварианты: 0 <= CurrentQuantity <= максимум жилы; жила, чей интервал
// восстановления истёк, считается полной ДО любого списания.
type NodeState struct {
	MapName         string    `db:"map_name"`
	ResourceName    string    `db:"resource_name"`
	CurrentQuantity int64     `db:"current_quantity"`
	LastRefreshTime time.Time `db:"last_refresh_time"`
}

// NodeSpec — статические параметры жилы. Приходят из слоя контента
// (ядро их не хранит): максимум, интервал восстановления и предмет,
// который даёт сбор.
type NodeSpec struct {
	MaxQuantity     int64
	RefreshInterval time.Duration
	ItemID          string
}

// RefreshedQuantity возвращает доступное количество с учётом правила
// восстановления: если интервал истёк — жила полна, иначе остаток как есть.
// Восстановление полное, не пропорциональное: так вела себя игра всегда,
// и смена кривой изменила бы баланс.
func RefreshedQuantity(stored int64, lastRefresh, now time.Time, spec NodeSpec) (quantity int64, refreshed bool) {
	if now.Sub(lastRefresh) >= spec.RefreshInterval {
		return spec.MaxQuantity, true
	}
	return stored, false
}

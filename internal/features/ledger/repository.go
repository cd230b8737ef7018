// Package ledger — repository.go выполняет все операции с таблицами
// players (камни, характеристики), inventory и stone_transactions.
// Все денежные операции выполняются в транзакциях БД для целостности данных.
//
// Экспортированные функции с суффиксом Tx принимают postgres.Querier
// и встраиваются в чужую транзакционную границу (резолвер задач,
// раздача наград за босса). Методы Repository открывают границу сами.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taolong.ru/xiuxian-bot/internal/common"
	"taolong.ru/xiuxian-bot/internal/db/postgres"
)

// Repository предоставляет атомарные примитивы леджера.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий леджера.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// DebitStonesTx списывает камни одним защищённым запросом: проверка
// «хватает ли» и вычитание происходят в одном UPDATE, поэтому два
// конкурентных списания не могут вместе увести баланс ниже нуля.
func DebitStonesTx(ctx context.Context, q postgres.Querier, userID, amount int64) error {
	tag, err := q.Exec(ctx, `
		UPDATE players
		SET spirit_stones = spirit_stones - $2, updated_at = NOW()
		WHERE user_id = $1 AND spirit_stones >= $2
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("ошибка списания камней: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Либо игрока нет, либо не хватает камней; различаем для честного ответа
		var exists bool
		if err := q.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM players WHERE user_id = $1)`, userID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("ошибка проверки игрока: %w", err)
		}
		if !exists {
			return common.ErrPlayerNotFound
		}
		return common.ErrInsufficientStones
	}
	return nil
}

// CreditStonesTx начисляет камни внутри транзакции.
func CreditStonesTx(ctx context.Context, q postgres.Querier, userID, amount int64) error {
	tag, err := q.Exec(ctx, `
		UPDATE players
		SET spirit_stones = spirit_stones + $2, updated_at = NOW()
		WHERE user_id = $1
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("ошибка начисления камней: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrPlayerNotFound
	}
	return nil
}

// CreditInventoryTx добавляет предметы: вставка или приращение количества.
func CreditInventoryTx(ctx context.Context, q postgres.Querier, userID int64, itemID string, quantity int64) error {
	_, err := q.Exec(ctx, `
		INSERT INTO inventory (user_id, item_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, item_id)
		DO UPDATE SET quantity = inventory.quantity + EXCLUDED.quantity
	`, userID, itemID, quantity)
	if err != nil {
		return fmt.Errorf("ошибка начисления предмета %s: %w", itemID, err)
	}
	return nil
}

// RemoveInventoryTx — защищённое списание предметов: декремент проходит
// только при достаточном количестве, опустевшая строка удаляется.
// Возвращает common.ErrInsufficientItems без каких-либо изменений,
// если предметов не хватает.
// Строка сначала блокируется: решение «удалить или уменьшить»
// принимается по количеству, которое видно уже под блокировкой.
// Иначе конкурент, забравший часть остатка между снимками, довёл бы
// декремент до нуля и уронил бы транзакцию о CHECK (quantity >= 1).
func RemoveInventoryTx(ctx context.Context, q postgres.Querier, userID int64, itemID string, quantity int64) error {
	var current int64
	err := q.QueryRow(ctx, `
		SELECT quantity FROM inventory
		WHERE user_id = $1 AND item_id = $2
		FOR UPDATE
	`, userID, itemID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.ErrInsufficientItems
		}
		return fmt.Errorf("ошибка списания предмета %s: %w", itemID, err)
	}
	if current < quantity {
		return common.ErrInsufficientItems
	}

	if current == quantity {
		// Списывается весь остаток: строку удаляем, нулевое количество
		// не прошло бы CHECK (quantity >= 1)
		_, err = q.Exec(ctx, `
			DELETE FROM inventory
			WHERE user_id = $1 AND item_id = $2
		`, userID, itemID)
	} else {
		_, err = q.Exec(ctx, `
			UPDATE inventory
			SET quantity = quantity - $3
			WHERE user_id = $1 AND item_id = $2
		`, userID, itemID, quantity)
	}
	if err != nil {
		return fmt.Errorf("ошибка списания предмета %s: %w", itemID, err)
	}
	return nil
}

// ApplyEffectBundleTx аддитивно применяет связку эффектов.
// Здоровье ограничивается максимумом прямо в запросе.
func ApplyEffectBundleTx(ctx context.Context, q postgres.Querier, userID int64, b EffectBundle) error {
	tag, err := q.Exec(ctx, `
		UPDATE players
		SET cultivation = GREATEST(0, cultivation + $2),
		    total_exp_gained = total_exp_gained + GREATEST($2, 0),
		    spirit_stones = spirit_stones + $3,
		    health = LEAST(max_health, GREATEST(0, health + $4)),
		    updated_at = NOW()
		WHERE user_id = $1
	`, userID, b.Exp, b.Stones, b.Health)
	if err != nil {
		return fmt.Errorf("ошибка применения эффектов: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrPlayerNotFound
	}
	return nil
}

// RecordTransactionTx записывает движение камней в историю.
func RecordTransactionTx(ctx context.Context, q postgres.Querier, from, to *int64, amount int64, txType, description string) error {
	_, err := q.Exec(ctx, `
		INSERT INTO stone_transactions (from_user_id, to_user_id, amount, transaction_type, description)
		VALUES ($1, $2, $3, $4, $5)
	`, from, to, amount, txType, description)
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}
	return nil
}

// DebitCurrencyCreditInventory списывает камни и начисляет предметы
// в одной границе. Либо применяется всё, либо ничего: вызывающий никогда
// не увидит списанные камни без начисленных предметов.
func (r *Repository) DebitCurrencyCreditInventory(ctx context.Context, userID, cost int64, items []ItemDelta, txType, description string) error {
	return postgres.WithinTx(ctx, r.db, func(tx pgx.Tx) error {
		if cost > 0 {
			if err := DebitStonesTx(ctx, tx, userID, cost); err != nil {
				return err
			}
			if err := RecordTransactionTx(ctx, tx, &userID, nil, cost, txType, description); err != nil {
				return err
			}
		}
		for _, item := range items {
			switch {
			case item.Quantity > 0:
				if err := CreditInventoryTx(ctx, tx, userID, item.ItemID, item.Quantity); err != nil {
					return err
				}
			case item.Quantity < 0:
				if err := RemoveInventoryTx(ctx, tx, userID, item.ItemID, -item.Quantity); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// RemoveInventoryQuantity списывает предметы вне чужой границы.
func (r *Repository) RemoveInventoryQuantity(ctx context.Context, userID int64, itemID string, quantity int64) error {
	return postgres.WithinTx(ctx, r.db, func(tx pgx.Tx) error {
		return RemoveInventoryTx(ctx, tx, userID, itemID, quantity)
	})
}

// ApplyEffectBundle применяет связку эффектов отдельной границей.
func (r *Repository) ApplyEffectBundle(ctx context.Context, userID int64, b EffectBundle) error {
	return postgres.WithinTx(ctx, r.db, func(tx pgx.Tx) error {
		return ApplyEffectBundleTx(ctx, tx, userID, b)
	})
}

// GetBalance возвращает текущий баланс камней.
func (r *Repository) GetBalance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx,
		`SELECT spirit_stones FROM players WHERE user_id = $1`, userID,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	return balance, nil
}

// GetInventory возвращает инвентарь игрока.
func (r *Repository) GetInventory(ctx context.Context, userID int64) ([]*InventoryEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, item_id, quantity, obtained_at
		FROM inventory WHERE user_id = $1
		ORDER BY obtained_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения инвентаря: %w", err)
	}
	defer rows.Close()

	var entries []*InventoryEntry
	for rows.Next() {
		var e InventoryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.ItemID, &e.Quantity, &e.ObtainedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования инвентаря: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// GetItemQuantity возвращает количество предмета у игрока (0, если нет).
func (r *Repository) GetItemQuantity(ctx context.Context, userID int64, itemID string) (int64, error) {
	var quantity int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(
			(SELECT quantity FROM inventory WHERE user_id = $1 AND item_id = $2), 0)
	`, userID, itemID).Scan(&quantity)
	if err != nil {
		return 0, fmt.Errorf("ошибка получения количества: %w", err)
	}
	return quantity, nil
}

// GetTransactions возвращает последние N движений камней игрока.
func (r *Repository) GetTransactions(ctx context.Context, userID int64, limit int) ([]*StoneTransaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, from_user_id, to_user_id, amount, transaction_type, description, created_at
		FROM stone_transactions
		WHERE from_user_id = $1 OR to_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения транзакций: %w", err)
	}
	defer rows.Close()

	var transactions []*StoneTransaction
	for rows.Next() {
		var t StoneTransaction
		err := rows.Scan(
			&t.ID, &t.FromUserID, &t.ToUserID,
			&t.Amount, &t.TransactionType, &t.Description, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования транзакции: %w", err)
		}
		transactions = append(transactions, &t)
	}
	return transactions, rows.Err()
}

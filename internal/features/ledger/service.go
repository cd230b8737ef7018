// Package ledger — service.go содержит бизнес-правила поверх примитивов:
// валидация количеств, перевод камней между игроками, ограниченные
// повторы при временных сбоях хранилища.
package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"taolong.ru/xiuxian-bot/internal/common"
	"taolong.ru/xiuxian-bot/internal/db/postgres"
)

// Service управляет экономикой (духовные камни, инвентарь, эффекты).
type Service struct {
	repo *Repository
	db   *pgxpool.Pool
}

// NewService создаёт сервис леджера.
func NewService(repo *Repository, db *pgxpool.Pool) *Service {
	return &Service{repo: repo, db: db}
}

// GetBalance возвращает текущий баланс камней игрока.
func (s *Service) GetBalance(ctx context.Context, userID int64) (int64, error) {
	return s.repo.GetBalance(ctx, userID)
}

// GetInventory возвращает инвентарь игрока.
func (s *Service) GetInventory(ctx context.Context, userID int64) ([]*InventoryEntry, error) {
	return s.repo.GetInventory(ctx, userID)
}

// DebitCurrencyCreditInventory — условное «купить»: списать камни и
// начислить предметы атомарно. При нехватке возвращает
// common.ErrInsufficientStones и не меняет ничего.
func (s *Service) DebitCurrencyCreditInventory(ctx context.Context, userID, cost int64, items []ItemDelta, txType, description string) error {
	if cost < 0 {
		return common.ErrInvalidAmount
	}
	for _, item := range items {
		if item.Quantity == 0 || item.ItemID == "" {
			return common.ErrInvalidAmount
		}
	}
	return postgres.WithinRetry(ctx, func() error {
		return s.repo.DebitCurrencyCreditInventory(ctx, userID, cost, items, txType, description)
	})
}

// RemoveInventoryQuantity — защищённое списание предметов.
func (s *Service) RemoveInventoryQuantity(ctx context.Context, userID int64, itemID string, quantity int64) error {
	if quantity <= 0 {
		return common.ErrInvalidAmount
	}
	return postgres.WithinRetry(ctx, func() error {
		return s.repo.RemoveInventoryQuantity(ctx, userID, itemID, quantity)
	})
}

// ApplyEffectBundle применяет связку награды игроку.
func (s *Service) ApplyEffectBundle(ctx context.Context, userID int64, b EffectBundle) error {
	return postgres.WithinRetry(ctx, func() error {
		return s.repo.ApplyEffectBundle(ctx, userID, b)
	})
}

// Transfer переводит камни от одного игрока к другому.
// Атомарная операция: либо оба баланса обновятся, либо ни одного.
func (s *Service) Transfer(ctx context.Context, fromUserID, toUserID, amount int64) error {
	if fromUserID == toUserID {
		return common.ErrSelfTransfer
	}
	if amount <= 0 {
		return common.ErrInvalidAmount
	}

	err := postgres.WithinRetry(ctx, func() error {
		return postgres.WithinTx(ctx, s.db, func(tx pgx.Tx) error {
			if err := DebitStonesTx(ctx, tx, fromUserID, amount); err != nil {
				return err
			}
			if err := CreditStonesTx(ctx, tx, toUserID, amount); err != nil {
				return err
			}
			return RecordTransactionTx(ctx, tx, &fromUserID, &toUserID, amount,
				TxTypeTransfer, fmt.Sprintf("Перевод %s", common.FormatStones(amount)))
		})
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"from":   fromUserID,
		"to":     toUserID,
		"amount": amount,
	}).Info("Перевод камней выполнен")
	return nil
}

// GetTransactions возвращает последние движения камней игрока.
func (s *Service) GetTransactions(ctx context.Context, userID int64, limit int) ([]*StoneTransaction, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.repo.GetTransactions(ctx, userID, limit)
}

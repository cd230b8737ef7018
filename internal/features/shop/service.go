package shop

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"taolong.ru/xiuxian-bot/internal/common"
	"taolong.ru/xiuxian-bot/internal/db/postgres"
	"taolong.ru/xiuxian-bot/internal/features/ledger"
)

// Service управляет лавкой.
type Service struct {
	pool    *pgxpool.Pool
	ledger  *ledger.Service
	catalog Catalog
}

// NewService создаёт сервис лавки со встроенным каталогом.
func NewService(pool *pgxpool.Pool, ledgerSvc *ledger.Service) *Service {
	return &Service{pool: pool, ledger: ledgerSvc, catalog: DefaultCatalog()}
}

// Item возвращает предмет каталога.
func (s *Service) Item(itemID string) (Item, bool) {
	item, ok := s.catalog[itemID]
	return item, ok
}

// ForSale возвращает продаваемые предметы по возрастанию цены.
func (s *Service) ForSale() []Item {
	var items []Item
	for _, item := range s.catalog {
		if item.Price > 0 {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Price < items[j].Price })
	return items
}

// Buy покупает count штук предмета: списание камней и начисление
// в инвентарь атомарны.
func (s *Service) Buy(ctx context.Context, userID int64, itemID string, count int64) (Item, error) {
	item, ok := s.catalog[itemID]
	if !ok || item.Price <= 0 {
		return Item{}, common.ErrItemUnknown
	}
	if count <= 0 {
		return Item{}, common.ErrInvalidAmount
	}

	cost := item.Price * count
	err := s.ledger.DebitCurrencyCreditInventory(ctx, userID, cost,
		[]ledger.ItemDelta{{ItemID: item.ID, Quantity: count}},
		ledger.TxTypePurchase,
		fmt.Sprintf("покупка: %s x%d", item.Name, count))
	if err != nil {
		return Item{}, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"item_id": itemID,
		"count":   count,
		"cost":    cost,
	}).Info("Покупка в лавке")
	return item, nil
}

// Use употребляет один предмет: списание из инвентаря и применение
// эффекта происходят в одной транзакции, поэтому предмет не может
// ни пропасть без эффекта, ни сработать дважды.
func (s *Service) Use(ctx context.Context, userID int64, itemID string) (Item, error) {
	item, ok := s.catalog[itemID]
	if !ok {
		return Item{}, common.ErrItemUnknown
	}
	if !item.Consumable() {
		return Item{}, common.ErrItemNotConsumable
	}

	err := postgres.WithinRetry(ctx, func() error {
		return postgres.WithinTx(ctx, s.pool, func(tx pgx.Tx) error {
			if err := ledger.RemoveInventoryTx(ctx, tx, userID, item.ID, 1); err != nil {
				return err
			}
			return ledger.ApplyEffectBundleTx(ctx, tx, userID, item.Effect)
		})
	})
	if err != nil {
		return Item{}, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"item_id": itemID,
	}).Info("Предмет употреблён")
	return item, nil
}

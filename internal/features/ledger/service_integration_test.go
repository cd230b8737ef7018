package ledger

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"taolong.ru/xiuxian-bot/internal/common"
	"taolong.ru/xiuxian-bot/internal/db/postgres"
	"taolong.ru/xiuxian-bot/internal/features/player"
)

func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL не задан, пропускаем интеграционный тест")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("подключение к БД: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := postgres.Migrate(ctx, pool); err != nil {
		t.Fatalf("миграции: %v", err)
	}
	return pool
}

func newTestPlayer(t *testing.T, pool *pgxpool.Pool) int64 {
	t.Helper()
	userID := time.Now().UnixNano()
	if err := player.NewRepository(pool).Create(context.Background(), userID, "tester"); err != nil {
		t.Fatalf("создание игрока: %v", err)
	}
	t.Cleanup(func() {
		ctx := context.Background()
		pool.Exec(ctx, `DELETE FROM inventory WHERE user_id = $1`, userID)
		pool.Exec(ctx, `DELETE FROM stone_transactions WHERE from_user_id = $1 OR to_user_id = $1`, userID)
		pool.Exec(ctx, `DELETE FROM players WHERE user_id = $1`, userID)
	})
	return userID
}

func grantStones(t *testing.T, pool *pgxpool.Pool, userID, amount int64) {
	t.Helper()
	if _, err := pool.Exec(context.Background(),
		`UPDATE players SET spirit_stones = $2 WHERE user_id = $1`, userID, amount); err != nil {
		t.Fatalf("начисление камней: %v", err)
	}
}

func TestDebitCurrencyCreditInventory(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	userID := newTestPlayer(t, pool)
	grantStones(t, pool, userID, 100)

	svc := NewService(NewRepository(pool), pool)

	err := svc.DebitCurrencyCreditInventory(ctx, userID, 50,
		[]ItemDelta{{ItemID: "qi_pill", Quantity: 2}}, TxTypePurchase, "тест")
	if err != nil {
		t.Fatalf("покупка: %v", err)
	}

	balance, err := svc.GetBalance(ctx, userID)
	if err != nil {
		t.Fatalf("баланс: %v", err)
	}
	if balance != 50 {
		t.Fatalf("баланс %d, ожидалось 50", balance)
	}

	inv, err := svc.GetInventory(ctx, userID)
	if err != nil {
		t.Fatalf("инвентарь: %v", err)
	}
	if len(inv) != 1 || inv[0].ItemID != "qi_pill" || inv[0].Quantity != 2 {
		t.Fatalf("инвентарь: %+v", inv)
	}
}

func TestDebitInsufficientStonesLeavesNothing(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	userID := newTestPlayer(t, pool)
	grantStones(t, pool, userID, 10)

	svc := NewService(NewRepository(pool), pool)

	err := svc.DebitCurrencyCreditInventory(ctx, userID, 50,
		[]ItemDelta{{ItemID: "qi_pill", Quantity: 1}}, TxTypePurchase, "тест")
	if !errors.Is(err, common.ErrInsufficientStones) {
		t.Fatalf("ожидалось ErrInsufficientStones, получено %v", err)
	}

	// Ничего не списано и не начислено
	balance, _ := svc.GetBalance(ctx, userID)
	if balance != 10 {
		t.Fatalf("баланс %d, ожидалось 10", balance)
	}
	inv, _ := svc.GetInventory(ctx, userID)
	if len(inv) != 0 {
		t.Fatalf("инвентарь должен быть пуст: %+v", inv)
	}
}

func TestTransfer(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	from := newTestPlayer(t, pool)
	to := newTestPlayer(t, pool)
	grantStones(t, pool, from, 100)

	svc := NewService(NewRepository(pool), pool)

	if err := svc.Transfer(ctx, from, to, 30); err != nil {
		t.Fatalf("перевод: %v", err)
	}

	fromBalance, _ := svc.GetBalance(ctx, from)
	toBalance, _ := svc.GetBalance(ctx, to)
	if fromBalance != 70 || toBalance != 30 {
		t.Fatalf("балансы (%d, %d), ожидалось (70, 30)", fromBalance, toBalance)
	}

	// Перевод самому себе запрещён
	if err := svc.Transfer(ctx, from, from, 10); !errors.Is(err, common.ErrSelfTransfer) {
		t.Fatalf("самоперевод: %v", err)
	}
	// Нехватка не трогает балансы
	if err := svc.Transfer(ctx, from, to, 1000); !errors.Is(err, common.ErrInsufficientStones) {
		t.Fatalf("нехватка: %v", err)
	}
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	userID := newTestPlayer(t, pool)
	grantStones(t, pool, userID, 100)

	svc := NewService(NewRepository(pool), pool)

	// Десять одновременных покупок по 30: камней хватает ровно на три
	const workers = 10
	var (
		wg        sync.WaitGroup
		successes atomic.Int64
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := svc.DebitCurrencyCreditInventory(ctx, userID, 30,
				[]ItemDelta{{ItemID: "qi_pill", Quantity: 1}}, TxTypePurchase, "тест")
			switch {
			case err == nil:
				successes.Add(1)
			case !errors.Is(err, common.ErrInsufficientStones):
				t.Errorf("покупка: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes.Load() != 3 {
		t.Fatalf("прошло %d покупок, ожидалось 3", successes.Load())
	}
	balance, err := svc.GetBalance(ctx, userID)
	if err != nil {
		t.Fatalf("баланс: %v", err)
	}
	if balance != 10 {
		t.Fatalf("баланс %d, ожидалось 10", balance)
	}
	inv, err := svc.GetInventory(ctx, userID)
	if err != nil {
		t.Fatalf("инвентарь: %v", err)
	}
	if len(inv) != 1 || inv[0].Quantity != 3 {
		t.Fatalf("инвентарь %+v, ожидалось 3 x qi_pill", inv)
	}
}

func TestConcurrentRemovalsExhaustRowExactly(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	userID := newTestPlayer(t, pool)
	grantStones(t, pool, userID, 100)

	svc := NewService(NewRepository(pool), pool)

	if err := svc.DebitCurrencyCreditInventory(ctx, userID, 0,
		[]ItemDelta{{ItemID: "spirit_herb", Quantity: 4}}, TxTypeTaskReward, "тест"); err != nil {
		t.Fatalf("начисление: %v", err)
	}

	// Два списания по 2 ровно исчерпывают строку. Оба законны и оба
	// обязаны пройти: второе видит остаток только под блокировкой строки,
	// иначе его декремент довёл бы количество до нуля через CHECK
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.RemoveInventoryQuantity(ctx, userID, "spirit_herb", 2)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("списание %d: %v", i, err)
		}
	}
	inv, err := svc.GetInventory(ctx, userID)
	if err != nil {
		t.Fatalf("инвентарь: %v", err)
	}
	if len(inv) != 0 {
		t.Fatalf("инвентарь должен быть пуст: %+v", inv)
	}
}

func TestRemoveInventoryDeletesEmptyRows(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	userID := newTestPlayer(t, pool)
	grantStones(t, pool, userID, 100)

	svc := NewService(NewRepository(pool), pool)

	if err := svc.DebitCurrencyCreditInventory(ctx, userID, 0,
		[]ItemDelta{{ItemID: "spirit_herb", Quantity: 2}}, TxTypeTaskReward, "тест"); err != nil {
		t.Fatalf("начисление: %v", err)
	}

	if err := svc.RemoveInventoryQuantity(ctx, userID, "spirit_herb", 2); err != nil {
		t.Fatalf("списание: %v", err)
	}

	// Опустевшая строка удалена, повторное списание — нехватка предметов
	inv, _ := svc.GetInventory(ctx, userID)
	if len(inv) != 0 {
		t.Fatalf("инвентарь должен быть пуст: %+v", inv)
	}
	if err := svc.RemoveInventoryQuantity(ctx, userID, "spirit_herb", 1); !errors.Is(err, common.ErrInsufficientItems) {
		t.Fatalf("ожидалось ErrInsufficientItems, получено %v", err)
	}
}

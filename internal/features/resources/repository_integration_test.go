package resources

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"taolong.ru/xiuxian-bot/internal/common"
	"taolong.ru/xiuxian-bot/internal/db/postgres"
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

// Каждый тест работает со своей жилой, чтобы не мешать параллельным прогонам.
func testNode(t *testing.T, pool *pgxpool.Pool) (string, string) {
	t.Helper()
	mapName := fmt.Sprintf("тестовая зона %d", time.Now().UnixNano())
	resourceName := "тестовая жила"
	t.Cleanup(func() {
		pool.Exec(context.Background(),
			`DELETE FROM map_resources WHERE map_name = $1`, mapName)
	})
	return mapName, resourceName
}

func TestTryHarvestCapsAtMax(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	mapName, resourceName := testNode(t, pool)
	repo := NewRepository(pool)
	spec := NodeSpec{MaxQuantity: 5, RefreshInterval: time.Hour, ItemID: "spirit_herb"}

	// Первый сбор: жила инициализируется полной
	granted, err := repo.TryHarvest(ctx, mapName, resourceName, 3, spec)
	if err != nil || granted != 3 {
		t.Fatalf("первый сбор: (%d, %v), ожидалось (3, nil)", granted, err)
	}

	// Запрос больше остатка: частичная выдача
	granted, err = repo.TryHarvest(ctx, mapName, resourceName, 10, spec)
	if err != nil || granted != 2 {
		t.Fatalf("частичная выдача: (%d, %v), ожидалось (2, nil)", granted, err)
	}

	// Жила пуста до восстановления
	if _, err = repo.TryHarvest(ctx, mapName, resourceName, 1, spec); !errors.Is(err, common.ErrNodeDepleted) {
		t.Fatalf("истощение: %v, ожидалось ErrNodeDepleted", err)
	}
}

func TestTryHarvestRefreshes(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	mapName, resourceName := testNode(t, pool)
	repo := NewRepository(pool)
	spec := NodeSpec{MaxQuantity: 4, RefreshInterval: 50 * time.Millisecond, ItemID: "spirit_herb"}

	if _, err := repo.TryHarvest(ctx, mapName, resourceName, 4, spec); err != nil {
		t.Fatalf("опустошение: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	// Интервал истёк: жила снова полна
	granted, err := repo.TryHarvest(ctx, mapName, resourceName, 4, spec)
	if err != nil || granted != 4 {
		t.Fatalf("после восстановления: (%d, %v), ожидалось (4, nil)", granted, err)
	}
}

func TestTryHarvestConcurrentNeverOverdraws(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	mapName, resourceName := testNode(t, pool)
	repo := NewRepository(pool)
	spec := NodeSpec{MaxQuantity: 10, RefreshInterval: time.Hour, ItemID: "spirit_herb"}

	// Сборщики одновременно просят суммарно больше, чем есть на жиле
	const workers = 8
	var (
		wg    sync.WaitGroup
		total atomic.Int64
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			granted, err := repo.TryHarvest(ctx, mapName, resourceName, 3, spec)
			if err != nil {
				if !errors.Is(err, common.ErrNodeDepleted) {
					t.Errorf("сбор: %v", err)
				}
				return
			}
			total.Add(granted)
		}()
	}
	wg.Wait()

	// Суммарная выдача в точности равна начальному запасу: ни единицы
	// сверх него, и ни одной потерянной при 8 сборщиках по 3
	if total.Load() != spec.MaxQuantity {
		t.Fatalf("суммарно выдано %d, ожидалось %d", total.Load(), spec.MaxQuantity)
	}
	node, err := repo.GetNode(ctx, mapName, resourceName)
	if err != nil {
		t.Fatalf("чтение: %v", err)
	}
	if node.CurrentQuantity != 0 {
		t.Fatalf("остаток %d, ожидалось 0", node.CurrentQuantity)
	}
}

func TestRestoreCapsAtMax(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	mapName, resourceName := testNode(t, pool)
	repo := NewRepository(pool)
	spec := NodeSpec{MaxQuantity: 5, RefreshInterval: time.Hour, ItemID: "spirit_herb"}

	if _, err := repo.TryHarvest(ctx, mapName, resourceName, 2, spec); err != nil {
		t.Fatalf("сбор: %v", err)
	}

	// Возврат больше списанного не превышает максимум
	if err := repo.Restore(ctx, mapName, resourceName, 100, spec); err != nil {
		t.Fatalf("возврат: %v", err)
	}
	node, err := repo.GetNode(ctx, mapName, resourceName)
	if err != nil {
		t.Fatalf("чтение: %v", err)
	}
	if node.CurrentQuantity != 5 {
		t.Fatalf("остаток %d, ожидалось 5", node.CurrentQuantity)
	}
}

package arena

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"taolong.ru/xiuxian-bot/internal/common"
	"taolong.ru/xiuxian-bot/internal/config"
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

func newTestPlayer(t *testing.T, pool *pgxpool.Pool, cultivation int64) int64 {
	t.Helper()
	userID := time.Now().UnixNano()
	ctx := context.Background()
	if err := player.NewRepository(pool).Create(ctx, userID, "боец"); err != nil {
		t.Fatalf("создание игрока: %v", err)
	}
	if _, err := pool.Exec(ctx,
		`UPDATE players SET cultivation = $2 WHERE user_id = $1`, userID, cultivation); err != nil {
		t.Fatalf("установка совершенствования: %v", err)
	}
	t.Cleanup(func() {
		pool.Exec(context.Background(), `DELETE FROM players WHERE user_id = $1`, userID)
	})
	return userID
}

func TestSparTransfersExp(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	strong := newTestPlayer(t, pool, 200)
	weak := newTestPlayer(t, pool, 100)

	cfg := &config.Config{BattleCooldown: 5 * time.Minute}
	svc := NewService(pool, player.NewRepository(pool), cfg)
	// Фиксируем разброс: исход решает чистая мощь
	svc.randFloat = func() float64 { return 0.5 }

	res, err := svc.Spar(ctx, strong, weak)
	if err != nil {
		t.Fatalf("поединок: %v", err)
	}
	if res.WinnerID != strong || res.LoserID != weak {
		t.Fatalf("исход: %+v", res)
	}
	// Проигравший теряет 5% совершенствования в пользу победителя
	if res.ExpTaken != 5 {
		t.Fatalf("перенос %d, ожидалось 5", res.ExpTaken)
	}

	repo := player.NewRepository(pool)
	winner, _ := repo.GetByUserID(ctx, strong)
	loser, _ := repo.GetByUserID(ctx, weak)
	if winner.Cultivation != 205 || loser.Cultivation != 95 {
		t.Fatalf("совершенствование (%d, %d), ожидалось (205, 95)",
			winner.Cultivation, loser.Cultivation)
	}
	if winner.TotalBattleWinCount != 1 || loser.TotalBattleWinCount != 0 {
		t.Fatalf("счётчики побед (%d, %d)", winner.TotalBattleWinCount, loser.TotalBattleWinCount)
	}

	// Перезарядка вызова
	if _, err := svc.Spar(ctx, strong, weak); !errors.Is(err, common.ErrOnCooldown) {
		t.Fatalf("повторный вызов: %v, ожидалось ErrOnCooldown", err)
	}
}

func TestSparRejectsHermitAndSelf(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	a := newTestPlayer(t, pool, 100)
	b := newTestPlayer(t, pool, 100)

	cfg := &config.Config{BattleCooldown: time.Minute}
	svc := NewService(pool, player.NewRepository(pool), cfg)

	if _, err := svc.Spar(ctx, a, a); !errors.Is(err, common.ErrSelfBattle) {
		t.Fatalf("самовызов: %v", err)
	}

	if _, err := pool.Exec(ctx,
		`UPDATE players SET is_hermit = TRUE WHERE user_id = $1`, b); err != nil {
		t.Fatalf("режим отшельника: %v", err)
	}
	if _, err := svc.Spar(ctx, a, b); !errors.Is(err, common.ErrHermitMode) {
		t.Fatalf("вызов отшельника: %v, ожидалось ErrHermitMode", err)
	}
}

package tasks

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"taolong.ru/xiuxian-bot/internal/common"
	"taolong.ru/xiuxian-bot/internal/db/postgres"
	"taolong.ru/xiuxian-bot/internal/features/player"
)

// Интеграционные тесты гоняются против живого PostgreSQL.
// Запуск: TEST_DATABASE_URL=postgres://... go test ./...
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
		pool.Exec(context.Background(), `DELETE FROM collection_tasks WHERE user_id = $1`, userID)
		pool.Exec(context.Background(), `DELETE FROM players WHERE user_id = $1`, userID)
	})
	return userID
}

func TestScheduleAndResolve(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	userID := newTestPlayer(t, pool)

	svc := NewService(NewRepository(pool))

	task, err := svc.Schedule(ctx, userID, CategoryCultivation, SubjectClosedDoor, nil, 42, time.Hour)
	if err != nil {
		t.Fatalf("постановка: %v", err)
	}

	// Задача зреет: проверка возвращает остаток, не исход
	check, err := svc.CheckAndResolve(ctx, userID, CategoryCultivation, SubjectClosedDoor)
	if err != nil {
		t.Fatalf("проверка: %v", err)
	}
	if check.Remaining <= 0 || check.Outcome != nil {
		t.Fatalf("незрелая задача: %+v", check)
	}

	// Вторая задача той же тройки запрещена
	if _, err := svc.Schedule(ctx, userID, CategoryCultivation, SubjectClosedDoor, nil, 1, time.Hour); !errors.Is(err, common.ErrTaskAlreadyActive) {
		t.Fatalf("дубль: %v, ожидалось ErrTaskAlreadyActive", err)
	}

	// Принудительное завершение применяет зафиксированный исход
	outcome, err := svc.Resolve(ctx, task.ID)
	if err != nil {
		t.Fatalf("завершение: %v", err)
	}
	if outcome.Quantity != 42 {
		t.Fatalf("исход %d, ожидалось 42", outcome.Quantity)
	}

	p, err := player.NewRepository(pool).GetByUserID(ctx, userID)
	if err != nil {
		t.Fatalf("чтение игрока: %v", err)
	}
	if p.Cultivation != 42 {
		t.Fatalf("совершенствование %d, ожидалось 42", p.Cultivation)
	}

	// Повторное завершение идемпотентно
	if _, err := svc.Resolve(ctx, task.ID); !errors.Is(err, common.ErrTaskAlreadyResolved) {
		t.Fatalf("повторное завершение: %v, ожидалось ErrTaskAlreadyResolved", err)
	}

	// После заявления строка исчезает
	if err := svc.Claim(ctx, []int64{task.ID}); err != nil {
		t.Fatalf("заявление: %v", err)
	}
	active, err := svc.ListActive(ctx, userID)
	if err != nil {
		t.Fatalf("список активных: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("после заявления осталось %d задач", len(active))
	}
}

func TestNegativeOutcomeClampsAtZero(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	userID := newTestPlayer(t, pool)

	svc := NewService(NewRepository(pool))

	// Отрицательный исход у свежего игрока: совершенствование не уходит в минус
	task, err := svc.Schedule(ctx, userID, CategoryCultivation, SubjectClosedDoor, nil, -100, time.Minute)
	if err != nil {
		t.Fatalf("постановка: %v", err)
	}
	if _, err := svc.Resolve(ctx, task.ID); err != nil {
		t.Fatalf("завершение: %v", err)
	}

	p, err := player.NewRepository(pool).GetByUserID(ctx, userID)
	if err != nil {
		t.Fatalf("чтение игрока: %v", err)
	}
	if p.Cultivation != 0 {
		t.Fatalf("совершенствование %d, ожидалось 0", p.Cultivation)
	}
}

func TestPollDueResolvesOnlyOwnTasks(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	userID := newTestPlayer(t, pool)
	otherID := newTestPlayer(t, pool)

	svc := NewService(NewRepository(pool))

	if _, err := svc.Schedule(ctx, userID, CategoryCultivation, SubjectClosedDoor, nil, 5, 50*time.Millisecond); err != nil {
		t.Fatalf("постановка: %v", err)
	}
	if _, err := svc.Schedule(ctx, otherID, CategoryCultivation, SubjectClosedDoor, nil, 9, 50*time.Millisecond); err != nil {
		t.Fatalf("постановка соседа: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	outcomes, err := svc.PollDue(ctx, userID)
	if err != nil {
		t.Fatalf("опрос: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].UserID != userID || outcomes[0].Quantity != 5 {
		t.Fatalf("ожидался один исход владельца, получено %+v", outcomes)
	}

	// Задача соседа осталась нетронутой
	active, err := svc.ListActive(ctx, otherID)
	if err != nil {
		t.Fatalf("список активных: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("у соседа %d активных задач, ожидалась 1", len(active))
	}
}

func TestSweepDueResolvesMature(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	userID := newTestPlayer(t, pool)

	svc := NewService(NewRepository(pool))

	// Короткий срок, затем ждём созревания
	if _, err := svc.Schedule(ctx, userID, CategoryCultivation, SubjectClosedDoor, nil, 7, 50*time.Millisecond); err != nil {
		t.Fatalf("постановка: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	outcomes, err := svc.SweepDue(ctx)
	if err != nil {
		t.Fatalf("развёртка: %v", err)
	}
	var found bool
	for _, out := range outcomes {
		if out.UserID == userID && out.Quantity == 7 {
			found = true
		}
	}
	if !found {
		t.Fatal("развёртка не завершила созревшую задачу")
	}
}

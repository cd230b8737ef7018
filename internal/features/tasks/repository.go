// Package tasks — repository.go выполняет операции с таблицей collection_tasks.
// Завершение задачи и применение её исхода проходят в одной транзакции:
// перепроверка флага resolved внутри границы исключает двойную выдачу
// при гонке двух развёрток.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taolong.ru/xiuxian-bot/internal/common"
	"taolong.ru/xiuxian-bot/internal/db/postgres"
	"taolong.ru/xiuxian-bot/internal/features/ledger"
)

// Repository предоставляет методы для работы с отложенными задачами.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий задач.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const taskColumns = `
	id, user_id, category, subject, reward_item, quantity,
	start_time, completion_time, resolved, created_at`

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	err := row.Scan(
		&t.ID, &t.UserID, &t.Category, &t.Subject, &t.RewardItem, &t.Quantity,
		&t.StartTime, &t.CompletionTime, &t.Resolved, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrTaskNotFound
		}
		return nil, fmt.Errorf("ошибка чтения задачи: %w", err)
	}
	return &t, nil
}

// Insert создаёт задачу со сроком completionTime и зафиксированным исходом.
// Частичный уникальный индекс по (user_id, category, subject) WHERE NOT
// resolved превращает гонку двух вставок в ErrTaskAlreadyActive.
func (r *Repository) Insert(ctx context.Context, userID int64, category, subject string, rewardItem *string, quantity int64, start, completion time.Time) (*Task, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO collection_tasks
			(user_id, category, subject, reward_item, quantity, start_time, completion_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+taskColumns,
		userID, category, subject, rewardItem, quantity, start, completion)

	t, err := scanTask(row)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, common.ErrTaskAlreadyActive
		}
		return nil, err
	}
	return t, nil
}

// InsertTx — то же, но внутри чужой границы (планирование вместе
// с проверками по строке игрока).
func InsertTx(ctx context.Context, q postgres.Querier, userID int64, category, subject string, rewardItem *string, quantity int64, start, completion time.Time) (*Task, error) {
	row := q.QueryRow(ctx, `
		INSERT INTO collection_tasks
			(user_id, category, subject, reward_item, quantity, start_time, completion_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+taskColumns,
		userID, category, subject, rewardItem, quantity, start, completion)

	t, err := scanTask(row)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, common.ErrTaskAlreadyActive
		}
		return nil, err
	}
	return t, nil
}

// GetActive возвращает незавершённую задачу по тройке ключа.
func (r *Repository) GetActive(ctx context.Context, userID int64, category, subject string) (*Task, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM collection_tasks
		WHERE user_id = $1 AND category = $2 AND subject = $3 AND NOT resolved
	`, userID, category, subject)
	return scanTask(row)
}

// GetActiveInCategory возвращает незавершённую задачу категории
// независимо от предмета. Инвариант одной полной занятости гарантирует,
// что в категории cultivation такая задача не больше одной; для
// прочих категорий берётся ближайшая к созреванию.
func (r *Repository) GetActiveInCategory(ctx context.Context, userID int64, category string) (*Task, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM collection_tasks
		WHERE user_id = $1 AND category = $2 AND NOT resolved
		ORDER BY completion_time
		LIMIT 1
	`, userID, category)
	return scanTask(row)
}

// HasActiveInCategoryTx проверяет внутри транзакции, есть ли у игрока
// незавершённая задача категории (любой предмет задачи). Нужна для
// инварианта «не больше одной полной занятости»: нельзя одновременно
// быть в закрытии и в глубоком закрытии.
func HasActiveInCategoryTx(ctx context.Context, q postgres.Querier, userID int64, category string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM collection_tasks
			WHERE user_id = $1 AND category = $2 AND NOT resolved
		)
	`, userID, category).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки активных задач: %w", err)
	}
	return exists, nil
}

// ListActive возвращает все незавершённые задачи игрока.
func (r *Repository) ListActive(ctx context.Context, userID int64) ([]*Task, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+taskColumns+`
		FROM collection_tasks
		WHERE user_id = $1 AND NOT resolved
		ORDER BY completion_time
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения задач: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// ListDue возвращает созревшие незавершённые задачи: либо одного игрока,
// либо всех (userID == nil) для глобальной развёртки.
func (r *Repository) ListDue(ctx context.Context, userID *int64, now time.Time) ([]*Task, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if userID != nil {
		rows, err = r.db.Query(ctx, `
			SELECT `+taskColumns+`
			FROM collection_tasks
			WHERE user_id = $1 AND completion_time <= $2 AND NOT resolved
			ORDER BY completion_time
		`, *userID, now)
	} else {
		rows, err = r.db.Query(ctx, `
			SELECT `+taskColumns+`
			FROM collection_tasks
			WHERE completion_time <= $1 AND NOT resolved
			ORDER BY completion_time
		`, now)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения созревших задач: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

func collectTasks(rows pgx.Rows) ([]*Task, error) {
	var out []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Resolve завершает задачу ровно один раз: в одной границе переводит
// флаг resolved защищённым UPDATE (ноль строк — задача уже завершена
// кем-то другим, тогда no-op с ErrTaskAlreadyResolved) и применяет
// исход через операции леджера. overrideQuantity, если не nil,
// заменяет величину исхода — это путь досрочного выхода с уценкой.
func (r *Repository) Resolve(ctx context.Context, taskID int64, overrideQuantity *int64) (*ResolvedOutcome, error) {
	var outcome *ResolvedOutcome

	err := postgres.WithinTx(ctx, r.db, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE collection_tasks
			SET resolved = TRUE
			WHERE id = $1 AND NOT resolved
			RETURNING `+taskColumns, taskID)

		t, err := scanTask(row)
		if err != nil {
			if errors.Is(err, common.ErrTaskNotFound) {
				// Либо задачи нет, либо она уже завершена
				var exists bool
				if qerr := tx.QueryRow(ctx,
					`SELECT EXISTS(SELECT 1 FROM collection_tasks WHERE id = $1)`, taskID,
				).Scan(&exists); qerr != nil {
					return qerr
				}
				if exists {
					return common.ErrTaskAlreadyResolved
				}
				return common.ErrTaskNotFound
			}
			return err
		}

		quantity := t.Quantity
		if overrideQuantity != nil {
			quantity = *overrideQuantity
		}

		// Применяем зафиксированный исход в той же границе
		if err := applyOutcomeTx(ctx, tx, t, quantity); err != nil {
			return err
		}

		outcome = &ResolvedOutcome{
			TaskID:     t.ID,
			UserID:     t.UserID,
			Category:   t.Category,
			Subject:    t.Subject,
			RewardItem: t.RewardItem,
			Quantity:   quantity,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// applyOutcomeTx маршрутизирует исход по категории задачи.
func applyOutcomeTx(ctx context.Context, q postgres.Querier, t *Task, quantity int64) error {
	switch t.Category {
	case CategoryCollection:
		if t.RewardItem == nil {
			// Задача сбора без предмета — дефект данных, не чиним молча
			return fmt.Errorf("%w: задача сбора %d без предмета награды", common.ErrCorruptedState, t.ID)
		}
		if quantity <= 0 {
			return nil
		}
		return ledger.CreditInventoryTx(ctx, q, t.UserID, *t.RewardItem, quantity)

	case CategoryCultivation:
		return ledger.ApplyEffectBundleTx(ctx, q, t.UserID, ledger.EffectBundle{Exp: quantity})

	default:
		return fmt.Errorf("%w: неизвестная категория задачи %q", common.ErrCorruptedState, t.Category)
	}
}

// DeleteResolved удаляет завершённые задачи после доставки уведомления
// («заявлено»). Отделение resolved от claimed позволяет начать новую
// задачу того же вида немедленно, не дожидаясь доставки.
func (r *Repository) DeleteResolved(ctx context.Context, taskIDs []int64) error {
	if len(taskIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		DELETE FROM collection_tasks
		WHERE id = ANY($1) AND resolved
	`, taskIDs)
	if err != nil {
		return fmt.Errorf("ошибка удаления завершённых задач: %w", err)
	}
	return nil
}

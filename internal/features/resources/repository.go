// Package resources — repository.go выполняет операции с таблицей map_resources.
// Чтение-изменение-запись каждой жилы проходит в одной транзакции
// с блокировкой строки, чтобы конкурентные сборщики не переопустошили жилу.
package resources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taolong.ru/xiuxian-bot/internal/common"
	"taolong.ru/xiuxian-bot/internal/db/postgres"
)

// Repository предоставляет методы для работы с состоянием жил.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий ресурсных жил.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// TryHarvest атомарно списывает до requested единиц с жилы.
// Порядок шагов фиксирован: ленивая инициализация → проверка
// восстановления → проверка истощения → выдача min(requested, остаток).
// Возвращает фактически выданное количество.
func (r *Repository) TryHarvest(ctx context.Context, mapName, resourceName string, requested int64, spec NodeSpec) (int64, error) {
	var granted int64

	err := postgres.WithinTx(ctx, r.db, func(tx pgx.Tx) error {
		// Ленивая инициализация: жила появляется полной при первом обращении
		_, err := tx.Exec(ctx, `
			INSERT INTO map_resources (map_name, resource_name, current_quantity, last_refresh_time)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (map_name, resource_name) DO NOTHING
		`, mapName, resourceName, spec.MaxQuantity)
		if err != nil {
			return fmt.Errorf("ошибка инициализации жилы: %w", err)
		}

		// Блокируем строку: конкурентные сборщики выстраиваются здесь
		var stored int64
		var lastRefresh time.Time
		err = tx.QueryRow(ctx, `
			SELECT current_quantity, last_refresh_time
			FROM map_resources
			WHERE map_name = $1 AND resource_name = $2
			FOR UPDATE
		`, mapName, resourceName).Scan(&stored, &lastRefresh)
		if err != nil {
			return fmt.Errorf("ошибка чтения жилы: %w", err)
		}

		now := time.Now()
		available, refreshed := RefreshedQuantity(stored, lastRefresh, now, spec)
		if refreshed {
			lastRefresh = now
		}

		if available <= 0 {
			// Фиксируем прошедшее восстановление даже при отказе
			if refreshed {
				if _, err := tx.Exec(ctx, `
					UPDATE map_resources
					SET current_quantity = $3, last_refresh_time = $4
					WHERE map_name = $1 AND resource_name = $2
				`, mapName, resourceName, available, lastRefresh); err != nil {
					return fmt.Errorf("ошибка обновления жилы: %w", err)
				}
			}
			return common.ErrNodeDepleted
		}

		granted = requested
		if granted > available {
			granted = available
		}

		_, err = tx.Exec(ctx, `
			UPDATE map_resources
			SET current_quantity = $3, last_refresh_time = $4
			WHERE map_name = $1 AND resource_name = $2
		`, mapName, resourceName, available-granted, lastRefresh)
		if err != nil {
			return fmt.Errorf("ошибка списания с жилы: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return granted, nil
}

// Restore возвращает amount единиц на жилу, не превышая максимум.
// Нужен, когда списанное не удалось превратить в задачу сбора.
func (r *Repository) Restore(ctx context.Context, mapName, resourceName string, amount int64, spec NodeSpec) error {
	_, err := r.db.Exec(ctx, `
		UPDATE map_resources
		SET current_quantity = LEAST($4, current_quantity + $3)
		WHERE map_name = $1 AND resource_name = $2
	`, mapName, resourceName, amount, spec.MaxQuantity)
	if err != nil {
		return fmt.Errorf("ошибка возврата на жилу: %w", err)
	}
	return nil
}

// GetNode возвращает сохранённое состояние жилы (без учёта восстановления).
func (r *Repository) GetNode(ctx context.Context, mapName, resourceName string) (*NodeState, error) {
	var n NodeState
	err := r.db.QueryRow(ctx, `
		SELECT map_name, resource_name, current_quantity, last_refresh_time
		FROM map_resources
		WHERE map_name = $1 AND resource_name = $2
	`, mapName, resourceName).Scan(&n.MapName, &n.ResourceName, &n.CurrentQuantity, &n.LastRefreshTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNodeUnknown
		}
		return nil, fmt.Errorf("ошибка чтения жилы: %w", err)
	}
	return &n, nil
}

// GetNodesInMap возвращает состояния всех жил зоны.
func (r *Repository) GetNodesInMap(ctx context.Context, mapName string) ([]*NodeState, error) {
	rows, err := r.db.Query(ctx, `
		SELECT map_name, resource_name, current_quantity, last_refresh_time
		FROM map_resources
		WHERE map_name = $1
		ORDER BY resource_name
	`, mapName)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения жил зоны: %w", err)
	}
	defer rows.Close()

	var nodes []*NodeState
	for rows.Next() {
		var n NodeState
		if err := rows.Scan(&n.MapName, &n.ResourceName, &n.CurrentQuantity, &n.LastRefreshTime); err != nil {
			return nil, fmt.Errorf("ошибка сканирования жилы: %w", err)
		}
		nodes = append(nodes, &n)
	}
	return nodes, rows.Err()
}

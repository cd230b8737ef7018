// Package postgres — вспомогательные функции для работы с БД.
// queries.go содержит машинерию миграций: таблицу schema_migrations
// и применение отдельных миграций в транзакциях.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// InitMigrations создаёт таблицу учёта применённых миграций, если её нет.
// Через неё схема может эволюционировать без ручного вмешательства.
func InitMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("не удалось получить соединение: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("ошибка создания таблицы миграций: %w", err)
	}

	log.Info("Система миграций готова")
	return nil
}

// ExecMigrationSQL выполняет один SQL-запрос миграции в транзакции.
// Если запрос упадёт — транзакция откатится автоматически.
// Уже применённые версии пропускаются.
func ExecMigrationSQL(ctx context.Context, pool *pgxpool.Pool, version int, sql string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// Проверяем, не была ли эта миграция уже применена
	var exists bool
	err = tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", version,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("ошибка проверки миграции: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.Exec(ctx, sql); err != nil {
		return fmt.Errorf("ошибка выполнения миграции %d: %w", version, err)
	}

	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version) VALUES ($1)", version,
	); err != nil {
		return fmt.Errorf("ошибка записи версии миграции: %w", err)
	}

	return tx.Commit(ctx)
}

// Migrate применяет все миграции схемы по порядку.
// Вызывается при старте процесса и из интеграционных тестов.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if err := InitMigrations(ctx, pool); err != nil {
		return err
	}

	for _, m := range migrations {
		if err := ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Debugf("Миграция %d применена", m.version)
	}

	log.Info("Схема базы данных актуальна")
	return nil
}

// Package postgres управляет подключением к базе данных PostgreSQL.
// Используется пул соединений pgxpool для эффективной работы
// с несколькими горутинами одновременно.
//
// Пул автоматически управляет открытием/закрытием соединений,
// переподключается при обрыве и ограничивает максимальное число соединений.
//
// Все многошаговые изменения игрового состояния выполняются внутри одной
// транзакции: либо применяется весь шаг целиком, либо ничего.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"taolong.ru/xiuxian-bot/internal/config"
)

// Querier — общий интерфейс пула и открытой транзакции.
// Позволяет примитивам леджера работать и сами по себе,
// и внутри чужой транзакционной границы.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPool создаёт новый пул соединений к PostgreSQL.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}

	// Настройки пула соединений
	poolConfig.MaxConns = cfg.DBMaxConns
	poolConfig.MinConns = cfg.DBMinConns
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания пула: %w", err)
	}

	// Проверяем, что база доступна
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("база данных недоступна: %w", err)
	}

	log.Info("Подключение к PostgreSQL установлено")
	return pool, nil
}

// WithinTx выполняет fn внутри одной транзакции.
// При ошибке fn или коммита вся граница откатывается целиком.
func WithinTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Количество попыток при временных сбоях хранилища.
const maxTxAttempts = 3

// WithinRetry выполняет fn (обычно целую транзакцию) с ограниченным числом
// повторов при временных сбоях: конфликт сериализации (40001) и дедлок (40P01).
// Повторять безопасно: до коммита операция не имеет видимых побочных эффектов.
// Игровые отказы и прочие ошибки не ретраятся.
func WithinRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = fn()
		if err == nil || !IsTransient(err) {
			return err
		}
		log.WithError(err).WithField("attempt", attempt).Warn("Временный сбой БД, повторяем транзакцию")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
		}
	}
	return fmt.Errorf("транзакция не прошла после %d попыток: %w", maxTxAttempts, err)
}

// IsTransient сообщает, безопасно ли повторить транзакцию после этой ошибки.
func IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 40001 — serialization_failure, 40P01 — deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// IsUniqueViolation сообщает, нарушено ли ограничение уникальности (23505).
// Используется планировщиком задач для распознавания «уже активна».
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

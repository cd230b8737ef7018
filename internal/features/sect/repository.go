// Package sect — repository.go выполняет операции с таблицами
// sects и sect_contributions.
package sect

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taolong.ru/xiuxian-bot/internal/common"
	"taolong.ru/xiuxian-bot/internal/db/postgres"
)

// Repository предоставляет методы для работы с сектами.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий сект.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const sectColumns = `
	id, name, description, founder_id, member_count, contribution, is_active, created_at`

func scanSect(row pgx.Row) (*Sect, error) {
	var s Sect
	err := row.Scan(
		&s.ID, &s.Name, &s.Description, &s.FounderID,
		&s.MemberCount, &s.Contribution, &s.IsActive, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrSectNotFound
		}
		return nil, fmt.Errorf("ошибка чтения секты: %w", err)
	}
	return &s, nil
}

// CreateTx создаёт секту внутри транзакции основания.
func CreateTx(ctx context.Context, q postgres.Querier, name, description string, founderID int64) (*Sect, error) {
	row := q.QueryRow(ctx, `
		INSERT INTO sects (name, description, founder_id)
		VALUES ($1, NULLIF($2, ''), $3)
		RETURNING `+sectColumns,
		name, description, founderID)
	s, err := scanSect(row)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, common.ErrSectNameTaken
		}
		return nil, err
	}
	return s, nil
}

// GetByID возвращает секту по идентификатору.
func (r *Repository) GetByID(ctx context.Context, sectID int64) (*Sect, error) {
	row := r.db.QueryRow(ctx, `SELECT `+sectColumns+` FROM sects WHERE id = $1 AND is_active`, sectID)
	return scanSect(row)
}

// GetByName возвращает секту по имени.
func (r *Repository) GetByName(ctx context.Context, name string) (*Sect, error) {
	row := r.db.QueryRow(ctx, `SELECT `+sectColumns+` FROM sects WHERE name = $1 AND is_active`, name)
	return scanSect(row)
}

// List возвращает действующие секты по убыванию вклада.
func (r *Repository) List(ctx context.Context) ([]*Sect, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+sectColumns+` FROM sects WHERE is_active ORDER BY contribution DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения сект: %w", err)
	}
	defer rows.Close()

	var sects []*Sect
	for rows.Next() {
		s, err := scanSect(rows)
		if err != nil {
			return nil, err
		}
		sects = append(sects, s)
	}
	return sects, rows.Err()
}

// GetForUpdateTx читает секту с блокировкой строки.
func GetForUpdateTx(ctx context.Context, q postgres.Querier, sectID int64) (*Sect, error) {
	row := q.QueryRow(ctx, `
		SELECT `+sectColumns+` FROM sects WHERE id = $1 AND is_active FOR UPDATE
	`, sectID)
	return scanSect(row)
}

// AdjustMemberCountTx меняет счётчик участников внутри транзакции.
func AdjustMemberCountTx(ctx context.Context, q postgres.Querier, sectID int64, delta int) error {
	_, err := q.Exec(ctx, `
		UPDATE sects SET member_count = member_count + $2 WHERE id = $1
	`, sectID, delta)
	return err
}

// AddContributionTx добавляет вклад и секте, и личному счёту игрока.
func AddContributionTx(ctx context.Context, q postgres.Querier, sectID, userID, amount int64) error {
	if _, err := q.Exec(ctx, `
		UPDATE sects SET contribution = contribution + $2 WHERE id = $1
	`, sectID, amount); err != nil {
		return fmt.Errorf("ошибка записи вклада секты: %w", err)
	}
	if _, err := q.Exec(ctx, `
		INSERT INTO sect_contributions (user_id, sect_id, contribution)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, sect_id) DO UPDATE
		SET contribution = sect_contributions.contribution + EXCLUDED.contribution,
		    last_contribution_at = NOW()
	`, userID, sectID, amount); err != nil {
		return fmt.Errorf("ошибка записи личного вклада: %w", err)
	}
	return nil
}

// GetContribution возвращает личный вклад игрока в секту.
func (r *Repository) GetContribution(ctx context.Context, userID, sectID int64) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(contribution, 0) FROM sect_contributions
		WHERE user_id = $1 AND sect_id = $2
	`, userID, sectID).Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("ошибка чтения вклада: %w", err)
	}
	return total, nil
}

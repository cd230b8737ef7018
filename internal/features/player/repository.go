// Package player — repository.go выполняет операции с таблицей players.
package player

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

// Repository предоставляет методы для работы с таблицей players.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий игроков.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const playerColumns = `
	id, user_id, nickname, dao_name, realm, talent,
	cultivation, spirit_stones, health, max_health,
	current_map, is_hermit, sect_id, sect_position,
	last_closing_time, last_battle_time, last_roll_call_time, last_sect_leave_time,
	total_closing_count, total_battle_count, total_battle_win_count, total_exp_gained,
	created_at, updated_at`

func scanPlayer(row pgx.Row) (*Player, error) {
	var p Player
	err := row.Scan(
		&p.ID, &p.UserID, &p.Nickname, &p.DaoName, &p.Realm, &p.Talent,
		&p.Cultivation, &p.SpiritStones, &p.Health, &p.MaxHealth,
		&p.CurrentMap, &p.IsHermit, &p.SectID, &p.SectPosition,
		&p.LastClosingTime, &p.LastBattleTime, &p.LastRollCallTime, &p.LastSectLeaveTime,
		&p.TotalClosingCount, &p.TotalBattleCount, &p.TotalBattleWinCount, &p.TotalExpGained,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("ошибка чтения игрока: %w", err)
	}
	return &p, nil
}

// Create создаёт запись игрока, если её ещё нет.
func (r *Repository) Create(ctx context.Context, userID int64, nickname string) error {
	query := `
		INSERT INTO players (user_id, nickname)
		VALUES ($1, NULLIF($2, ''))
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, userID, nickname)
	if err != nil {
		return fmt.Errorf("ошибка создания игрока: %w", err)
	}
	return nil
}

// GetByUserID возвращает игрока по Telegram ID.
func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE user_id = $1`
	return scanPlayer(r.db.QueryRow(ctx, query, userID))
}

// GetForUpdate читает игрока с блокировкой строки (FOR UPDATE).
// Используется составными операциями, чтобы сериализовать
// конкурентные действия одного игрока внутри транзакции.
func GetForUpdate(ctx context.Context, q postgres.Querier, userID int64) (*Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE user_id = $1 FOR UPDATE`
	return scanPlayer(q.QueryRow(ctx, query, userID))
}

// GetByNickname ищет игрока по нику из Telegram (без учёта регистра).
func (r *Repository) GetByNickname(ctx context.Context, nickname string) (*Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE LOWER(nickname) = LOWER($1)`
	return scanPlayer(r.db.QueryRow(ctx, query, nickname))
}

// UpdateNickname обновляет ник игрока (подтягивается из Telegram).
func (r *Repository) UpdateNickname(ctx context.Context, userID int64, nickname string) error {
	query := `
		UPDATE players SET nickname = NULLIF($2, ''), updated_at = NOW()
		WHERE user_id = $1 AND nickname IS DISTINCT FROM NULLIF($2, '')
	`
	_, err := r.db.Exec(ctx, query, userID, nickname)
	return err
}

// SetDaoName задаёт даосское имя.
func (r *Repository) SetDaoName(ctx context.Context, userID int64, daoName string) error {
	query := `UPDATE players SET dao_name = $2, updated_at = NOW() WHERE user_id = $1`
	_, err := r.db.Exec(ctx, query, userID, daoName)
	return err
}

// SetTalent задаёт духовный корень (выдаётся при создании персонажа).
func (r *Repository) SetTalent(ctx context.Context, userID int64, talent string) error {
	query := `UPDATE players SET talent = $2, updated_at = NOW() WHERE user_id = $1`
	_, err := r.db.Exec(ctx, query, userID, talent)
	return err
}

// SetCurrentMap перемещает игрока в другую зону.
func (r *Repository) SetCurrentMap(ctx context.Context, userID int64, mapName string) error {
	query := `UPDATE players SET current_map = $2, updated_at = NOW() WHERE user_id = $1`
	tag, err := r.db.Exec(ctx, query, userID, mapName)
	if err != nil {
		return fmt.Errorf("ошибка перемещения: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrPlayerNotFound
	}
	return nil
}

// SetHermit переключает режим отшельника.
func (r *Repository) SetHermit(ctx context.Context, userID int64, hermit bool) error {
	query := `UPDATE players SET is_hermit = $2, updated_at = NOW() WHERE user_id = $1`
	_, err := r.db.Exec(ctx, query, userID, hermit)
	return err
}

// SetRealm повышает ступень совершенствования (прорыв).
func (r *Repository) SetRealm(ctx context.Context, userID int64, realm string) error {
	query := `UPDATE players SET realm = $2, updated_at = NOW() WHERE user_id = $1`
	_, err := r.db.Exec(ctx, query, userID, realm)
	return err
}

// SetRealmTx повышает ступень внутри транзакции прорыва.
func SetRealmTx(ctx context.Context, q postgres.Querier, userID int64, realm string) error {
	query := `UPDATE players SET realm = $2, updated_at = NOW() WHERE user_id = $1`
	_, err := q.Exec(ctx, query, userID, realm)
	return err
}

// TouchClosingTime фиксирует перезарядку закрытия и инкрементирует счётчик.
// Вызывается внутри транзакции завершения закрытия.
func TouchClosingTime(ctx context.Context, q postgres.Querier, userID int64, at time.Time) error {
	query := `
		UPDATE players
		SET last_closing_time = $2, total_closing_count = total_closing_count + 1,
		    updated_at = NOW()
		WHERE user_id = $1
	`
	_, err := q.Exec(ctx, query, userID, at)
	return err
}

// TouchBattleTime фиксирует перезарядку боя и счётчики внутри транзакции.
func TouchBattleTime(ctx context.Context, q postgres.Querier, userID int64, won bool, at time.Time) error {
	query := `
		UPDATE players
		SET last_battle_time = $2,
		    total_battle_count = total_battle_count + 1,
		    total_battle_win_count = total_battle_win_count + CASE WHEN $3 THEN 1 ELSE 0 END,
		    updated_at = NOW()
		WHERE user_id = $1
	`
	_, err := q.Exec(ctx, query, userID, at, won)
	return err
}

// TouchRollCallTime фиксирует время переклички внутри транзакции.
func TouchRollCallTime(ctx context.Context, q postgres.Querier, userID int64, at time.Time) error {
	query := `UPDATE players SET last_roll_call_time = $2, updated_at = NOW() WHERE user_id = $1`
	_, err := q.Exec(ctx, query, userID, at)
	return err
}

// SetSect записывает принадлежность игрока к секте внутри транзакции.
func SetSect(ctx context.Context, q postgres.Querier, userID int64, sectID *int64, position *string) error {
	query := `UPDATE players SET sect_id = $2, sect_position = $3, updated_at = NOW() WHERE user_id = $1`
	_, err := q.Exec(ctx, query, userID, sectID, position)
	return err
}

// TouchSectLeaveTime фиксирует момент выхода из секты внутри транзакции.
func TouchSectLeaveTime(ctx context.Context, q postgres.Querier, userID int64, at time.Time) error {
	query := `UPDATE players SET last_sect_leave_time = $2, updated_at = NOW() WHERE user_id = $1`
	_, err := q.Exec(ctx, query, userID, at)
	return err
}

// GetCultivationRanking возвращает топ игроков по совершенствованию.
func (r *Repository) GetCultivationRanking(ctx context.Context, limit int) ([]*Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players ORDER BY cultivation DESC LIMIT $1`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения рейтинга: %w", err)
	}
	defer rows.Close()

	var players []*Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// GetBattleRanking возвращает топ игроков по числу побед на арене.
func (r *Repository) GetBattleRanking(ctx context.Context, limit int) ([]*Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players
		ORDER BY total_battle_win_count DESC, total_battle_count LIMIT $1`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения рейтинга арены: %w", err)
	}
	defer rows.Close()

	var players []*Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// GetPlayersInMap возвращает игроков в указанной зоне.
func (r *Repository) GetPlayersInMap(ctx context.Context, mapName string) ([]*Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE current_map = $1`
	rows, err := r.db.Query(ctx, query, mapName)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения игроков зоны: %w", err)
	}
	defer rows.Close()

	var players []*Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// Package boss — repository.go выполняет операции с таблицами
// world_bosses и boss_damage. Босс и его журнал урона живут и
// умирают парой: записи урона удаляются каскадом вместе с боссом.
package boss

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taolong.ru/xiuxian-bot/internal/common"
	"taolong.ru/xiuxian-bot/internal/db/postgres"
	"taolong.ru/xiuxian-bot/internal/features/ledger"
)

// Repository предоставляет методы для работы с мировыми боссами.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий боссов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const bossColumns = `
	id, template_id, name, map_name, current_hp, max_hp,
	reward_stones, reward_exp, spawned_at, expires_at`

func scanBoss(row pgx.Row) (*WorldBoss, error) {
	var b WorldBoss
	err := row.Scan(
		&b.ID, &b.TemplateID, &b.Name, &b.MapName, &b.CurrentHP, &b.MaxHP,
		&b.RewardStones, &b.RewardExp, &b.SpawnedAt, &b.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrBossNotFound
		}
		return nil, fmt.Errorf("ошибка чтения босса: %w", err)
	}
	return &b, nil
}

// Spawn создаёт босса по шаблону со сроком жизни lifetime.
func (r *Repository) Spawn(ctx context.Context, t Template, lifetime time.Duration) (*WorldBoss, error) {
	now := time.Now()
	row := r.db.QueryRow(ctx, `
		INSERT INTO world_bosses
			(id, template_id, name, map_name, current_hp, max_hp,
			 reward_stones, reward_exp, spawned_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $5, $6, $7, $8, $9)
		RETURNING `+bossColumns,
		uuid.New(), t.ID, t.Name, t.MapName, t.MaxHP,
		t.RewardStones, t.RewardExp, now, now.Add(lifetime))
	return scanBoss(row)
}

// GetByID возвращает босса по идентификатору.
func (r *Repository) GetByID(ctx context.Context, bossID uuid.UUID) (*WorldBoss, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bossColumns+` FROM world_bosses WHERE id = $1`, bossID)
	return scanBoss(row)
}

// GetAliveInMap возвращает живого босса зоны (не больше одного спавнится).
func (r *Repository) GetAliveInMap(ctx context.Context, mapName string) (*WorldBoss, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+bossColumns+`
		FROM world_bosses
		WHERE map_name = $1 AND current_hp > 0 AND expires_at > NOW()
		ORDER BY spawned_at
		LIMIT 1
	`, mapName)
	return scanBoss(row)
}

// ListAlive возвращает всех живых боссов.
func (r *Repository) ListAlive(ctx context.Context) ([]*WorldBoss, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+bossColumns+`
		FROM world_bosses
		WHERE current_hp > 0 AND expires_at > NOW()
		ORDER BY spawned_at
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения боссов: %w", err)
	}
	defer rows.Close()

	var bosses []*WorldBoss
	for rows.Next() {
		b, err := scanBoss(rows)
		if err != nil {
			return nil, err
		}
		bosses = append(bosses, b)
	}
	return bosses, rows.Err()
}

// StrikeResult описывает исход удара по боссу.
type StrikeResult struct {
	Boss        *WorldBoss
	Dealt       int64 // фактически снятое здоровье (не больше остатка)
	Killed      bool
	TotalDamage int64 // суммарный вклад игрока после удара
	// Заполняется только при убийстве: user_id → выданные камни
	Payouts map[int64]Payout
}

// Payout — выданная при убийстве доля награды.
type Payout struct {
	Stones int64
	Exp    int64
	Damage int64
}

// Strike наносит удар damage по боссу. Строка босса блокируется,
// здоровье снимается не ниже нуля, вклад записывается в журнал.
// Удар, снявший последнее здоровье, в той же транзакции раздаёт
// награды пропорционально вкладам и удаляет босса вместе с журналом.
func (r *Repository) Strike(ctx context.Context, bossID uuid.UUID, userID, damage int64) (*StrikeResult, error) {
	var res *StrikeResult
	err := postgres.WithinTx(ctx, r.db, func(tx pgx.Tx) error {
		b, err := scanBoss(tx.QueryRow(ctx,
			`SELECT `+bossColumns+` FROM world_bosses WHERE id = $1 FOR UPDATE`, bossID))
		if err != nil {
			return err
		}
		if !b.Alive(time.Now()) {
			return common.ErrBossAlreadyDead
		}

		dealt := damage
		if dealt > b.CurrentHP {
			dealt = b.CurrentHP
		}
		if _, err := tx.Exec(ctx, `
			UPDATE world_bosses SET current_hp = current_hp - $2 WHERE id = $1
		`, bossID, dealt); err != nil {
			return fmt.Errorf("ошибка удара по боссу: %w", err)
		}
		b.CurrentHP -= dealt

		var total int64
		if err := tx.QueryRow(ctx, `
			INSERT INTO boss_damage (boss_id, user_id, damage)
			VALUES ($1, $2, $3)
			ON CONFLICT (boss_id, user_id) DO UPDATE
			SET damage = boss_damage.damage + EXCLUDED.damage
			RETURNING damage
		`, bossID, userID, dealt).Scan(&total); err != nil {
			return fmt.Errorf("ошибка записи урона: %w", err)
		}

		res = &StrikeResult{Boss: b, Dealt: dealt, TotalDamage: total}
		if b.CurrentHP > 0 {
			return nil
		}

		res.Killed = true
		payouts, err := distributeRewardsTx(ctx, tx, b)
		if err != nil {
			return err
		}
		res.Payouts = payouts

		// Босс и журнал урона исчезают атомарной парой (каскад).
		if _, err := tx.Exec(ctx, `DELETE FROM world_bosses WHERE id = $1`, bossID); err != nil {
			return fmt.Errorf("ошибка удаления босса: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// distributeRewardsTx раздаёт награду убитого босса всем участникам
// пропорционально их вкладу. Остатки целочисленного деления сгорают.
func distributeRewardsTx(ctx context.Context, tx pgx.Tx, b *WorldBoss) (map[int64]Payout, error) {
	rows, err := tx.Query(ctx, `
		SELECT user_id, damage FROM boss_damage WHERE boss_id = $1 AND damage > 0
	`, b.ID)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала урона: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (DamageEntry, error) {
		var e DamageEntry
		err := row.Scan(&e.UserID, &e.Damage)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала урона: %w", err)
	}

	var totalDamage int64
	for _, e := range entries {
		totalDamage += e.Damage
	}

	payouts := make(map[int64]Payout, len(entries))
	for _, e := range entries {
		stones := RewardShare(b.RewardStones, e.Damage, totalDamage)
		exp := RewardShare(b.RewardExp, e.Damage, totalDamage)
		if stones > 0 {
			if err := ledger.CreditStonesTx(ctx, tx, e.UserID, stones); err != nil {
				return nil, err
			}
			if err := ledger.RecordTransactionTx(ctx, tx, nil, &e.UserID, stones,
				ledger.TxTypeBossReward, "награда за мирового босса "+b.Name); err != nil {
				return nil, err
			}
		}
		if exp > 0 {
			if err := ledger.ApplyEffectBundleTx(ctx, tx, e.UserID, ledger.EffectBundle{Exp: exp}); err != nil {
				return nil, err
			}
		}
		payouts[e.UserID] = Payout{Stones: stones, Exp: exp, Damage: e.Damage}
	}
	return payouts, nil
}

// DeleteExpired удаляет боссов, чей срок вышел, вместе с журналами
// урона. Награда за недобитого босса не выдаётся.
func (r *Repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM world_bosses WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления истёкших боссов: %w", err)
	}
	return tag.RowsAffected(), nil
}

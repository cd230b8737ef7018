// Package arena реализует поединки между игроками.
// Поединок — атомарная операция: оба игрока блокируются строками
// в детерминированном порядке, переносится доля совершенствования,
// фиксируются перезарядки и счётчики.
package arena

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"taolong.ru/xiuxian-bot/internal/common"
	"taolong.ru/xiuxian-bot/internal/config"
	"taolong.ru/xiuxian-bot/internal/db/postgres"
	"taolong.ru/xiuxian-bot/internal/features/ledger"
	"taolong.ru/xiuxian-bot/internal/features/player"
)

// Делитель доли совершенствования проигравшего, переходящей
// победителю: 1/20, то есть 5%.
const expTransferShare = 20

// BattleResult описывает исход поединка.
type BattleResult struct {
	WinnerID    int64
	LoserID     int64
	ExpTaken    int64 // перенесённое совершенствование
	WinnerPower int64
	LoserPower  int64
}

// Service управляет поединками.
type Service struct {
	pool      *pgxpool.Pool
	players   *player.Repository
	cfg       *config.Config
	randFloat func() float64 // подменяется в тестах
}

// NewService создаёт сервис арены.
func NewService(pool *pgxpool.Pool, players *player.Repository, cfg *config.Config) *Service {
	return &Service{pool: pool, players: players, cfg: cfg, randFloat: rand.Float64}
}

// Spar проводит поединок challenger против defender.
// Победитель определяется сравнением боевой мощи с разбросом ±20%
// у каждой стороны; проигравший теряет 5% совершенствования в пользу
// победителя. Отшельники не сражаются и не могут быть вызваны.
func (s *Service) Spar(ctx context.Context, challengerID, defenderID int64) (*BattleResult, error) {
	if challengerID == defenderID {
		return nil, common.ErrSelfBattle
	}

	var res *BattleResult
	err := postgres.WithinRetry(ctx, func() error {
		return postgres.WithinTx(ctx, s.pool, func(tx pgx.Tx) error {
			// Блокируем обоих в порядке возрастания ID, иначе два
			// встречных вызова взаимно заблокируются.
			first, second := challengerID, defenderID
			if first > second {
				first, second = second, first
			}
			p1, err := player.GetForUpdate(ctx, tx, first)
			if err != nil {
				return err
			}
			p2, err := player.GetForUpdate(ctx, tx, second)
			if err != nil {
				return err
			}
			challenger, defender := p1, p2
			if p1.UserID != challengerID {
				challenger, defender = p2, p1
			}
			if challenger.IsHermit || defender.IsHermit {
				return common.ErrHermitMode
			}

			now := time.Now()
			if challenger.LastBattleTime != nil {
				elapsed := now.Sub(*challenger.LastBattleTime)
				if elapsed < s.cfg.BattleCooldown {
					return fmt.Errorf("%w: осталось %s",
						common.ErrOnCooldown,
						common.FormatDuration(s.cfg.BattleCooldown-elapsed))
				}
			}

			cPower := int64(float64(challenger.Power()) * (0.8 + 0.4*s.randFloat()))
			dPower := int64(float64(defender.Power()) * (0.8 + 0.4*s.randFloat()))

			winner, loser := challenger, defender
			if dPower > cPower {
				winner, loser = defender, challenger
			}

			taken := loser.Cultivation / expTransferShare
			if taken > 0 {
				if err := ledger.ApplyEffectBundleTx(ctx, tx, loser.UserID,
					ledger.EffectBundle{Exp: -taken}); err != nil {
					return err
				}
				if err := ledger.ApplyEffectBundleTx(ctx, tx, winner.UserID,
					ledger.EffectBundle{Exp: taken}); err != nil {
					return err
				}
			}

			if err := player.TouchBattleTime(ctx, tx, winner.UserID, true, now); err != nil {
				return err
			}
			if err := player.TouchBattleTime(ctx, tx, loser.UserID, false, now); err != nil {
				return err
			}

			res = &BattleResult{
				WinnerID:    winner.UserID,
				LoserID:     loser.UserID,
				ExpTaken:    taken,
				WinnerPower: cPower,
				LoserPower:  dPower,
			}
			if winner.UserID == defenderID {
				res.WinnerPower, res.LoserPower = dPower, cPower
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"winner_id": res.WinnerID,
		"loser_id":  res.LoserID,
		"exp_taken": res.ExpTaken,
	}).Info("Поединок завершён")
	return res, nil
}

// BattleRanking возвращает топ бойцов по числу побед.
func (s *Service) BattleRanking(ctx context.Context, limit int) ([]*player.Player, error) {
	return s.players.GetBattleRanking(ctx, limit)
}

// Package cultivation реализует закрытия: уход игрока в уединение
// ради роста совершенствования. service.go — постановка, проверка,
// досрочный выход и прорыв ступени.
package cultivation

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
	"taolong.ru/xiuxian-bot/internal/features/player"
	"taolong.ru/xiuxian-bot/internal/features/tasks"
)

// Service управляет закрытиями: обычными и глубокими.
// Исход каждого закрытия разыгрывается при постановке и записывается
// в задачу; проверка по истечении срока лишь применяет записанное.
type Service struct {
	pool      *pgxpool.Pool
	tasks     *tasks.Service
	cfg       *config.Config
	randFloat func() float64 // подменяется в тестах
}

// NewService создаёт сервис совершенствования.
func NewService(pool *pgxpool.Pool, taskSvc *tasks.Service, cfg *config.Config) *Service {
	return &Service{
		pool:      pool,
		tasks:     taskSvc,
		cfg:       cfg,
		randFloat: rand.Float64,
	}
}

// ClosingResult описывает поставленное закрытие для ответа игроку.
type ClosingResult struct {
	ReadyAt  time.Time
	Duration time.Duration
}

// StartClosing ставит обычное закрытие. Игрок блокируется строкой,
// чтобы проверка перезарядки и постановка были атомарны; частичный
// уникальный индекс по активным задачам страхует от гонки двух
// одновременных постановок.
func (s *Service) StartClosing(ctx context.Context, userID int64) (*ClosingResult, error) {
	return s.startClosing(ctx, userID, tasks.SubjectClosedDoor,
		s.cfg.ClosingCooldown, s.cfg.ClosingDuration,
		func(p *player.Player) int64 {
			return closingOutcome(s.randFloat(), s.cfg.ClosingBaseExp, p)
		})
}

// StartDeepClosing ставит глубокое закрытие: длинная сессия с
// затухающей суммарной наградой и штрафом за досрочный выход.
func (s *Service) StartDeepClosing(ctx context.Context, userID int64) (*ClosingResult, error) {
	sessions := int64(s.cfg.DeepClosingDuration / s.cfg.ClosingDuration)
	if sessions < 1 {
		sessions = 1
	}
	return s.startClosing(ctx, userID, tasks.SubjectDeepClosing,
		s.cfg.DeepClosingCooldown, s.cfg.DeepClosingDuration,
		func(p *player.Player) int64 {
			return deepClosingExp(s.cfg.ClosingBaseExp, p, sessions)
		})
}

func (s *Service) startClosing(
	ctx context.Context,
	userID int64,
	subject string,
	cooldown, duration time.Duration,
	outcomeFn func(p *player.Player) int64,
) (*ClosingResult, error) {
	var res *ClosingResult
	err := postgres.WithinRetry(ctx, func() error {
		return postgres.WithinTx(ctx, s.pool, func(tx pgx.Tx) error {
			p, err := player.GetForUpdate(ctx, tx, userID)
			if err != nil {
				return err
			}
			now := time.Now()
			if p.LastClosingTime != nil {
				elapsed := now.Sub(*p.LastClosingTime)
				if elapsed < cooldown {
					return fmt.Errorf("%w: осталось %s",
						common.ErrOnCooldown,
						common.FormatDuration(cooldown-elapsed))
				}
			}
			active, err := tasks.HasActiveInCategoryTx(ctx, tx, userID, tasks.CategoryCultivation)
			if err != nil {
				return err
			}
			if active {
				return common.ErrTaskAlreadyActive
			}

			outcome := outcomeFn(p)
			if _, err := tasks.InsertTx(ctx, tx, userID,
				tasks.CategoryCultivation, subject, nil, outcome,
				now, now.Add(duration)); err != nil {
				return err
			}
			if err := player.TouchClosingTime(ctx, tx, userID, now); err != nil {
				return err
			}
			res = &ClosingResult{ReadyAt: now.Add(duration), Duration: duration}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"subject": subject,
	}).Info("Закрытие поставлено")
	return res, nil
}

// CheckClosing проверяет текущее закрытие игрока (обычное или
// глубокое). Если срок вышел, задача завершается и выдаётся
// записанный исход; иначе возвращается остаток срока.
func (s *Service) CheckClosing(ctx context.Context, userID int64) (*tasks.CheckResult, error) {
	return s.tasks.CheckAndResolveCategory(ctx, userID, tasks.CategoryCultivation)
}

// ExitResult описывает результат досрочного выхода из глубокого закрытия.
type ExitResult struct {
	Granted   int64
	Committed int64
	Ratio     float64
}

// ForceExitDeep досрочно завершает глубокое закрытие. Выплата
// уценивается по пройденной доле срока и штрафному множителю.
// Уценка считается в момент выхода; это единственное место, где исход
// отклоняется от записанного при постановке.
func (s *Service) ForceExitDeep(ctx context.Context, userID int64) (*ExitResult, error) {
	task, err := s.tasks.GetActive(ctx, userID, tasks.CategoryCultivation, tasks.SubjectDeepClosing)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if task.Due(now) {
		// Срок уже вышел, уценки нет: обычное завершение.
		out, err := s.tasks.Resolve(ctx, task.ID)
		if err != nil {
			return nil, err
		}
		return &ExitResult{Granted: out.Quantity, Committed: task.Quantity, Ratio: 1}, nil
	}

	ratio := task.CompletedRatio(now)
	granted := discountedEarlyExit(task.Quantity, ratio, s.cfg.DeepEarlyExitFactor)
	out, err := s.tasks.ResolveEarly(ctx, task.ID, granted)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"ratio":   ratio,
		"granted": out.Quantity,
	}).Info("Досрочный выход из глубокого закрытия")
	return &ExitResult{Granted: out.Quantity, Committed: task.Quantity, Ratio: ratio}, nil
}

// BreakthroughResult описывает попытку прорыва.
type BreakthroughResult struct {
	Succeeded bool
	Current   string
	Next      string
	Threshold int64
	Missing   int64
}

// Breakthrough пытается поднять ступень игрока, если накоплено
// достаточно совершенствования. Очки при прорыве не сгорают.
func (s *Service) Breakthrough(ctx context.Context, userID int64) (*BreakthroughResult, error) {
	var res *BreakthroughResult
	err := postgres.WithinRetry(ctx, func() error {
		return postgres.WithinTx(ctx, s.pool, func(tx pgx.Tx) error {
			p, err := player.GetForUpdate(ctx, tx, userID)
			if err != nil {
				return err
			}
			next, threshold, ok := NextRealm(p.Realm)
			if !ok {
				return common.ErrRealmPeak
			}
			if p.Cultivation < threshold {
				res = &BreakthroughResult{
					Current:   p.Realm,
					Next:      next,
					Threshold: threshold,
					Missing:   threshold - p.Cultivation,
				}
				return nil
			}
			if err := player.SetRealmTx(ctx, tx, userID, next); err != nil {
				return err
			}
			res = &BreakthroughResult{
				Succeeded: true,
				Current:   p.Realm,
				Next:      next,
				Threshold: threshold,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if res.Succeeded {
		log.WithFields(log.Fields{
			"user_id": userID,
			"realm":   res.Next,
		}).Info("Прорыв на новую ступень")
	}
	return res, nil
}

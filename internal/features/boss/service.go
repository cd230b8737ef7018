package boss

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"taolong.ru/xiuxian-bot/internal/common"
	"taolong.ru/xiuxian-bot/internal/config"
	"taolong.ru/xiuxian-bot/internal/db/postgres"
	"taolong.ru/xiuxian-bot/internal/features/player"
)

// Service управляет мировыми боссами.
type Service struct {
	repo      *Repository
	players   *player.Repository
	cfg       *config.Config
	templates []Template
	randFloat func() float64 // подменяется в тестах
	randIntn  func(n int) int
}

// NewService создаёт сервис боссов со встроенными шаблонами.
func NewService(repo *Repository, players *player.Repository, cfg *config.Config) *Service {
	return &Service{
		repo:      repo,
		players:   players,
		cfg:       cfg,
		templates: DefaultTemplates(),
		randFloat: rand.Float64,
		randIntn:  rand.Intn,
	}
}

// SpawnRandom спавнит случайного босса, если в его зоне сейчас нет
// живого. Возвращает nil без ошибки, когда зона занята.
func (s *Service) SpawnRandom(ctx context.Context) (*WorldBoss, error) {
	t := s.templates[s.randIntn(len(s.templates))]

	if _, err := s.repo.GetAliveInMap(ctx, t.MapName); err == nil {
		return nil, nil
	} else if !errors.Is(err, common.ErrBossNotFound) {
		return nil, err
	}

	b, err := s.repo.Spawn(ctx, t, s.cfg.BossLifetime)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"boss_id": b.ID,
		"name":    b.Name,
		"map":     b.MapName,
	}).Info("Мировой босс появился")
	return b, nil
}

// GetInMap возвращает живого босса в зоне игрока.
func (s *Service) GetInMap(ctx context.Context, mapName string) (*WorldBoss, error) {
	return s.repo.GetAliveInMap(ctx, mapName)
}

// Strike — удар игрока по боссу в его зоне. Урон считается от боевой
// мощи с разбросом ±20%. Отшельники в боях не участвуют.
func (s *Service) Strike(ctx context.Context, userID int64) (*StrikeResult, error) {
	p, err := s.players.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.IsHermit {
		return nil, common.ErrHermitMode
	}

	b, err := s.repo.GetAliveInMap(ctx, p.CurrentMap)
	if err != nil {
		return nil, err
	}

	damage := int64(float64(p.Power()) * (0.8 + 0.4*s.randFloat()))
	if damage < 1 {
		damage = 1
	}

	var res *StrikeResult
	err = postgres.WithinRetry(ctx, func() error {
		var serr error
		res, serr = s.repo.Strike(ctx, b.ID, userID, damage)
		return serr
	})
	if err != nil {
		return nil, err
	}

	if res.Killed {
		log.WithFields(log.Fields{
			"boss_id":   b.ID,
			"name":      b.Name,
			"killed_by": userID,
			"payouts":   len(res.Payouts),
		}).Info("Мировой босс повержен")
	}
	return res, nil
}

// StrikeByID — удар по конкретному боссу (для проверки гонок в тестах
// и для кнопок с идентификатором босса).
func (s *Service) StrikeByID(ctx context.Context, bossID uuid.UUID, userID, damage int64) (*StrikeResult, error) {
	var res *StrikeResult
	err := postgres.WithinRetry(ctx, func() error {
		var serr error
		res, serr = s.repo.Strike(ctx, bossID, userID, damage)
		return serr
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// SweepExpired убирает боссов, переживших свой срок. Вызывается кроном.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	removed, err := s.repo.DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		log.WithField("count", removed).Info("Истёкшие боссы убраны")
	}
	return removed, nil
}

// Package player — service.go содержит бизнес-логику работы с персонажами:
// регистрация, перемещение по миру, режим отшельника, рейтинг.
package player

import (
	"context"
	"errors"
	"math/rand"

	log "github.com/sirupsen/logrus"

	"taolong.ru/xiuxian-bot/internal/common"
)

// Талант (духовный корень) выдаётся один раз при создании персонажа.
// Чем короче строка, тем чище корень.
var talentPool = []string{
	"金", "木", "水", "火", "土",
	"金木", "水火", "木土",
	"金木水", "火土金",
	"金木水火", "金木水火土",
}

// Service управляет персонажами игроков.
type Service struct {
	repo *Repository
}

// NewService создаёт сервис игроков.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// EnsurePlayer гарантирует, что у пользователя есть персонаж.
// Новому персонажу случайно выдаётся духовный корень.
func (s *Service) EnsurePlayer(ctx context.Context, userID int64, nickname string) (*Player, error) {
	p, err := s.repo.GetByUserID(ctx, userID)
	if err == nil {
		// Подтягиваем сменившийся ник, ошибку только логируем
		if uerr := s.repo.UpdateNickname(ctx, userID, nickname); uerr != nil {
			log.WithError(uerr).WithField("user_id", userID).Debug("не удалось обновить ник")
		}
		return p, nil
	}
	if !errors.Is(err, common.ErrPlayerNotFound) {
		return nil, err
	}

	if err := s.repo.Create(ctx, userID, nickname); err != nil {
		return nil, err
	}
	talent := talentPool[rand.Intn(len(talentPool))]
	if err := s.repo.SetTalent(ctx, userID, talent); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"talent":  talent,
	}).Info("Создан новый персонаж")

	return s.repo.GetByUserID(ctx, userID)
}

// GetByUserID возвращает персонажа.
func (s *Service) GetByUserID(ctx context.Context, userID int64) (*Player, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// GetByNickname ищет персонажа по нику из Telegram.
func (s *Service) GetByNickname(ctx context.Context, nickname string) (*Player, error) {
	return s.repo.GetByNickname(ctx, nickname)
}

// Move перемещает игрока в другую зону мира.
// Проверка смежности зон — дело слоя контента; ядро хранит только позицию.
func (s *Service) Move(ctx context.Context, userID int64, mapName string) error {
	if mapName == "" {
		return common.ErrInvalidAmount
	}
	return s.repo.SetCurrentMap(ctx, userID, mapName)
}

// SetHermit переключает режим отшельника.
func (s *Service) SetHermit(ctx context.Context, userID int64, hermit bool) error {
	return s.repo.SetHermit(ctx, userID, hermit)
}

// SetDaoName задаёт даосское имя.
func (s *Service) SetDaoName(ctx context.Context, userID int64, name string) error {
	if name == "" {
		return common.ErrInvalidAmount
	}
	return s.repo.SetDaoName(ctx, userID, name)
}

// Ranking возвращает топ-N по совершенствованию.
func (s *Service) Ranking(ctx context.Context, limit int) ([]*Player, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.repo.GetCultivationRanking(ctx, limit)
}

// PlayersInMap возвращает игроков в зоне.
func (s *Service) PlayersInMap(ctx context.Context, mapName string) ([]*Player, error) {
	return s.repo.GetPlayersInMap(ctx, mapName)
}

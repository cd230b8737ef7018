package sect

import (
	"context"
	"fmt"
	"strings"
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

// Стоимость основания секты и награда переклички.
const (
	FoundingCost   = 1000
	RollCallStones = 20
	RollCallPoints = 10
)

// Service управляет жизненным циклом сект.
type Service struct {
	pool    *pgxpool.Pool
	repo    *Repository
	players *player.Repository
	cfg     *config.Config
}

// NewService создаёт сервис сект.
func NewService(pool *pgxpool.Pool, repo *Repository, players *player.Repository, cfg *config.Config) *Service {
	return &Service{pool: pool, repo: repo, players: players, cfg: cfg}
}

// Create основывает секту. Основатель платит камнями и становится
// главой. Имя уникально; списание и запись членства атомарны.
func (s *Service) Create(ctx context.Context, userID int64, name, description string) (*Sect, error) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > 64 {
		return nil, common.ErrInvalidAmount
	}

	var created *Sect
	err := postgres.WithinRetry(ctx, func() error {
		return postgres.WithinTx(ctx, s.pool, func(tx pgx.Tx) error {
			p, err := player.GetForUpdate(ctx, tx, userID)
			if err != nil {
				return err
			}
			if p.SectID != nil {
				return common.ErrAlreadyInSect
			}
			if err := s.checkBetrayalCooldown(p); err != nil {
				return err
			}

			if err := ledger.DebitStonesTx(ctx, tx, userID, FoundingCost); err != nil {
				return err
			}
			if err := ledger.RecordTransactionTx(ctx, tx, &userID, nil, FoundingCost,
				ledger.TxTypeSect, "основание секты "+name); err != nil {
				return err
			}

			sect, err := CreateTx(ctx, tx, name, description, userID)
			if err != nil {
				return err
			}
			position := PositionFounder
			if err := player.SetSect(ctx, tx, userID, &sect.ID, &position); err != nil {
				return err
			}
			created = sect
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"sect_id": created.ID,
		"name":    created.Name,
	}).Info("Секта основана")
	return created, nil
}

// Join вступает в секту по имени. После недавнего выхода действует
// кулдаун предательства.
func (s *Service) Join(ctx context.Context, userID int64, name string) (*Sect, error) {
	target, err := s.repo.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}

	err = postgres.WithinRetry(ctx, func() error {
		return postgres.WithinTx(ctx, s.pool, func(tx pgx.Tx) error {
			p, err := player.GetForUpdate(ctx, tx, userID)
			if err != nil {
				return err
			}
			if p.SectID != nil {
				return common.ErrAlreadyInSect
			}
			if err := s.checkBetrayalCooldown(p); err != nil {
				return err
			}

			if _, err := GetForUpdateTx(ctx, tx, target.ID); err != nil {
				return err
			}
			if err := AdjustMemberCountTx(ctx, tx, target.ID, 1); err != nil {
				return err
			}
			position := PositionMember
			return player.SetSect(ctx, tx, userID, &target.ID, &position)
		})
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"sect_id": target.ID,
	}).Info("Игрок вступил в секту")
	return target, nil
}

// Leave покидает секту и запускает кулдаун предательства.
// Глава покинуть секту не может, пока в ней есть другие участники.
func (s *Service) Leave(ctx context.Context, userID int64) error {
	err := postgres.WithinRetry(ctx, func() error {
		return postgres.WithinTx(ctx, s.pool, func(tx pgx.Tx) error {
			p, err := player.GetForUpdate(ctx, tx, userID)
			if err != nil {
				return err
			}
			if p.SectID == nil {
				return common.ErrNotInSect
			}

			sect, err := GetForUpdateTx(ctx, tx, *p.SectID)
			if err != nil {
				return err
			}
			isFounder := p.SectPosition != nil && *p.SectPosition == PositionFounder
			if isFounder && sect.MemberCount > 1 {
				return fmt.Errorf("%w: глава не может бросить учеников", common.ErrAlreadyInSect)
			}

			if err := AdjustMemberCountTx(ctx, tx, sect.ID, -1); err != nil {
				return err
			}
			if isFounder {
				// Последний участник-глава распускает секту.
				if _, err := tx.Exec(ctx,
					`UPDATE sects SET is_active = FALSE WHERE id = $1`, sect.ID); err != nil {
					return err
				}
			}
			if err := player.SetSect(ctx, tx, userID, nil, nil); err != nil {
				return err
			}
			return player.TouchSectLeaveTime(ctx, tx, userID, time.Now())
		})
	})
	if err != nil {
		return err
	}

	log.WithField("user_id", userID).Info("Игрок покинул секту")
	return nil
}

// RollCall — ежедневная перекличка: раз в календарный день (по Москве)
// участник получает камни и добавляет вклад секте.
func (s *Service) RollCall(ctx context.Context, userID int64) (int64, error) {
	var granted int64
	err := postgres.WithinRetry(ctx, func() error {
		return postgres.WithinTx(ctx, s.pool, func(tx pgx.Tx) error {
			p, err := player.GetForUpdate(ctx, tx, userID)
			if err != nil {
				return err
			}
			if p.SectID == nil {
				return common.ErrNotInSect
			}
			today := common.GetMoscowDate()
			if p.LastRollCallTime != nil &&
				common.GetMoscowDateOf(*p.LastRollCallTime).Equal(today) {
				return common.ErrRollCallDone
			}

			now := time.Now()
			if err := ledger.CreditStonesTx(ctx, tx, userID, RollCallStones); err != nil {
				return err
			}
			if err := ledger.RecordTransactionTx(ctx, tx, nil, &userID, RollCallStones,
				ledger.TxTypeCheckIn, "ежедневная перекличка секты"); err != nil {
				return err
			}
			if err := AddContributionTx(ctx, tx, *p.SectID, userID, RollCallPoints); err != nil {
				return err
			}
			if err := player.TouchRollCallTime(ctx, tx, userID, now); err != nil {
				return err
			}
			granted = RollCallStones
			return nil
		})
	})
	if err != nil {
		return 0, err
	}

	log.WithField("user_id", userID).Info("Перекличка пройдена")
	return granted, nil
}

// Info возвращает секту игрока и его личный вклад.
func (s *Service) Info(ctx context.Context, userID int64) (*Sect, int64, error) {
	p, err := s.players.GetByUserID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	if p.SectID == nil {
		return nil, 0, common.ErrNotInSect
	}
	sect, err := s.repo.GetByID(ctx, *p.SectID)
	if err != nil {
		return nil, 0, err
	}
	contribution, err := s.repo.GetContribution(ctx, userID, sect.ID)
	if err != nil {
		return nil, 0, err
	}
	return sect, contribution, nil
}

// List возвращает действующие секты.
func (s *Service) List(ctx context.Context) ([]*Sect, error) {
	return s.repo.List(ctx)
}

func (s *Service) checkBetrayalCooldown(p *player.Player) error {
	if p.LastSectLeaveTime == nil {
		return nil
	}
	elapsed := time.Since(*p.LastSectLeaveTime)
	if elapsed < s.cfg.SectBetrayalCooldown {
		return fmt.Errorf("%w: осталось %s",
			common.ErrOnCooldown,
			common.FormatDuration(s.cfg.SectBetrayalCooldown-elapsed))
	}
	return nil
}

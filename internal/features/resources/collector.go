// collector.go связывает жилы с планировщиком: сбор резервирует
// единицы на жиле и ставит отложенную задачу, по созреванию которой
// добытое попадает в инвентарь.
package resources

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"taolong.ru/xiuxian-bot/internal/common"
	"taolong.ru/xiuxian-bot/internal/config"
	"taolong.ru/xiuxian-bot/internal/features/player"
	"taolong.ru/xiuxian-bot/internal/features/tasks"
)

// Collector ставит и проверяет задачи сбора.
type Collector struct {
	nodes   *Service
	repo    *Repository
	tasks   *tasks.Service
	players *player.Repository
	cfg     *config.Config
}

// NewCollector создаёт сервис сбора.
func NewCollector(nodes *Service, repo *Repository, taskSvc *tasks.Service, players *player.Repository, cfg *config.Config) *Collector {
	return &Collector{nodes: nodes, repo: repo, tasks: taskSvc, players: players, cfg: cfg}
}

// CollectResult описывает поставленный сбор.
type CollectResult struct {
	Granted  int64
	Item     string
	ReadyAt  time.Time
	Duration time.Duration
}

// StartCollect резервирует до requested единиц жилы в зоне игрока
// и ставит задачу сбора. Исход (предмет и количество) фиксируется
// сразу: жила уже уменьшена, задача лишь доносит добытое до инвентаря.
// Если задачу поставить не удалось, единицы возвращаются на жилу.
func (c *Collector) StartCollect(ctx context.Context, userID int64, resourceName string, requested int64) (*CollectResult, error) {
	if requested <= 0 || requested > c.cfg.CollectMaxPerTask {
		return nil, common.ErrInvalidAmount
	}

	p, err := c.players.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	spec, err := c.nodes.Spec(p.CurrentMap, resourceName)
	if err != nil {
		return nil, err
	}

	// Ранняя проверка занятости: не трогаем жилу, если сбор этого
	// ресурса уже идёт. Гонку двух одновременных команд ловит
	// уникальный индекс при постановке, с возвратом единиц.
	if _, err := c.tasks.GetActive(ctx, userID, tasks.CategoryCollection, resourceName); err == nil {
		return nil, common.ErrTaskAlreadyActive
	} else if !errors.Is(err, common.ErrTaskNotFound) {
		return nil, err
	}

	granted, err := c.nodes.TryHarvest(ctx, p.CurrentMap, resourceName, requested)
	if err != nil {
		return nil, err
	}

	duration := time.Duration(granted) * c.cfg.CollectDurationPerUnit
	item := spec.ItemID
	task, err := c.tasks.Schedule(ctx, userID, tasks.CategoryCollection, resourceName,
		&item, granted, duration)
	if err != nil {
		if rerr := c.repo.Restore(ctx, p.CurrentMap, resourceName, granted, spec); rerr != nil {
			log.WithError(rerr).WithFields(log.Fields{
				"map":      p.CurrentMap,
				"resource": resourceName,
				"amount":   granted,
			}).Error("Не удалось вернуть единицы на жилу")
		}
		return nil, err
	}

	return &CollectResult{
		Granted:  granted,
		Item:     item,
		ReadyAt:  task.CompletionTime,
		Duration: duration,
	}, nil
}

// CheckCollect проверяет ближайший к созреванию сбор игрока.
func (c *Collector) CheckCollect(ctx context.Context, userID int64) (*tasks.CheckResult, error) {
	return c.tasks.CheckAndResolveCategory(ctx, userID, tasks.CategoryCollection)
}

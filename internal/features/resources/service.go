// Package resources — service.go содержит бизнес-логику сбора:
// сопоставление жилы с её статическими параметрами и выдача ресурса.
package resources

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"taolong.ru/xiuxian-bot/internal/common"
	"taolong.ru/xiuxian-bot/internal/db/postgres"
)

// Catalog — статические параметры жил по зонам.
// Поставляется слоем контента; здесь живёт только картотека по умолчанию.
type Catalog map[string]map[string]NodeSpec

// DefaultCatalog возвращает встроенную картотеку жил.
func DefaultCatalog() Catalog {
	return Catalog{
		"Деревня у горы": {
			"Жила духовных камней": {MaxQuantity: 10, RefreshInterval: time.Minute, ItemID: "spirit_stone_ore"},
			"Грядка духовных трав": {MaxQuantity: 5, RefreshInterval: 5 * time.Minute, ItemID: "spirit_herb"},
		},
		"Туманный лес": {
			"Железное дерево": {MaxQuantity: 8, RefreshInterval: 10 * time.Minute, ItemID: "ironwood"},
			"Лунный цветок":   {MaxQuantity: 3, RefreshInterval: 30 * time.Minute, ItemID: "moon_flower"},
		},
		"Тёмный лес": {
			"Грядка духовных трав": {MaxQuantity: 8, RefreshInterval: 5 * time.Minute, ItemID: "spirit_herb"},
			"Лунный цветок":        {MaxQuantity: 5, RefreshInterval: 30 * time.Minute, ItemID: "moon_flower"},
		},
		"Заброшенные рудники": {
			"Жила духовных камней": {MaxQuantity: 15, RefreshInterval: 2 * time.Minute, ItemID: "spirit_stone_ore"},
		},
		"Огненные пещеры": {
			"Огненный кристалл": {MaxQuantity: 5, RefreshInterval: time.Hour, ItemID: "fire_crystal"},
		},
	}
}

// Service управляет ресурсными жилами.
type Service struct {
	repo    *Repository
	catalog Catalog
}

// NewService создаёт сервис жил.
func NewService(repo *Repository, catalog Catalog) *Service {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Service{repo: repo, catalog: catalog}
}

// Spec возвращает параметры жилы или common.ErrNodeUnknown.
func (s *Service) Spec(mapName, resourceName string) (NodeSpec, error) {
	if nodes, ok := s.catalog[mapName]; ok {
		if spec, ok := nodes[resourceName]; ok {
			return spec, nil
		}
	}
	return NodeSpec{}, common.ErrNodeUnknown
}

// NodeNames возвращает имена жил зоны из картотеки.
func (s *Service) NodeNames(mapName string) []string {
	nodes := s.catalog[mapName]
	names := make([]string, 0, len(nodes))
	for name := range nodes {
		names = append(names, name)
	}
	return names
}

// TryHarvest выдаёт до requested единиц с жилы.
// Сумма выданного между двумя восстановлениями никогда не превышает
// максимум жилы — это гарантирует транзакционное списание репозитория.
func (s *Service) TryHarvest(ctx context.Context, mapName, resourceName string, requested int64) (int64, error) {
	if requested <= 0 {
		return 0, common.ErrInvalidAmount
	}
	spec, err := s.Spec(mapName, resourceName)
	if err != nil {
		return 0, err
	}

	var granted int64
	err = postgres.WithinRetry(ctx, func() error {
		var herr error
		granted, herr = s.repo.TryHarvest(ctx, mapName, resourceName, requested, spec)
		return herr
	})
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"map":       mapName,
		"resource":  resourceName,
		"requested": requested,
		"granted":   granted,
	}).Debug("Сбор с жилы")
	return granted, nil
}

// NodeAvailability возвращает доступное количество с учётом восстановления
// (для отображения; не меняет состояние).
func (s *Service) NodeAvailability(ctx context.Context, mapName, resourceName string) (int64, error) {
	spec, err := s.Spec(mapName, resourceName)
	if err != nil {
		return 0, err
	}
	node, err := s.repo.GetNode(ctx, mapName, resourceName)
	if err != nil {
		if errors.Is(err, common.ErrNodeUnknown) {
			// Жила ещё не инициализирована — значит, полна
			return spec.MaxQuantity, nil
		}
		return 0, err
	}
	quantity, _ := RefreshedQuantity(node.CurrentQuantity, node.LastRefreshTime, time.Now(), spec)
	return quantity, nil
}

// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы, обработчики,
// фильтры и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"
	"sort"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"taolong.ru/xiuxian-bot/internal/bot"
	"taolong.ru/xiuxian-bot/internal/bot/filters"
	"taolong.ru/xiuxian-bot/internal/config"
	"taolong.ru/xiuxian-bot/internal/db/postgres"
	"taolong.ru/xiuxian-bot/internal/features/arena"
	"taolong.ru/xiuxian-bot/internal/features/boss"
	"taolong.ru/xiuxian-bot/internal/features/cultivation"
	"taolong.ru/xiuxian-bot/internal/features/ledger"
	"taolong.ru/xiuxian-bot/internal/features/player"
	"taolong.ru/xiuxian-bot/internal/features/resources"
	"taolong.ru/xiuxian-bot/internal/features/sect"
	"taolong.ru/xiuxian-bot/internal/features/shop"
	"taolong.ru/xiuxian-bot/internal/features/tasks"
	"taolong.ru/xiuxian-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	BotAPI    *tgbotapi.BotAPI
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 3. Репозитории ===
	playerRepo := player.NewRepository(pool)
	ledgerRepo := ledger.NewRepository(pool)
	resourcesRepo := resources.NewRepository(pool)
	tasksRepo := tasks.NewRepository(pool)
	bossRepo := boss.NewRepository(pool)
	sectRepo := sect.NewRepository(pool)

	// === 4. Сервисы ===
	playerService := player.NewService(playerRepo)
	ledgerService := ledger.NewService(ledgerRepo, pool)
	tasksService := tasks.NewService(tasksRepo)
	nodeCatalog := resources.DefaultCatalog()
	resourcesService := resources.NewService(resourcesRepo, nodeCatalog)
	collector := resources.NewCollector(resourcesService, resourcesRepo, tasksService, playerRepo, cfg)
	cultivationService := cultivation.NewService(pool, tasksService, cfg)
	bossService := boss.NewService(bossRepo, playerRepo, cfg)
	sectService := sect.NewService(pool, sectRepo, playerRepo, cfg)
	arenaService := arena.NewService(pool, playerRepo, cfg)
	shopService := shop.NewService(pool, ledgerService)

	// Имена предметов для инвентаря берём из каталога лавки
	itemNames := func(itemID string) string {
		if item, ok := shopService.Item(itemID); ok {
			return item.Name
		}
		return itemID
	}

	// === 5. Обработчики ===
	playerHandler := player.NewHandler(playerService, mapNames(nodeCatalog), botAPI)
	ledgerHandler := ledger.NewHandler(ledgerService, playerService, itemNames, botAPI)
	resourcesHandler := resources.NewHandler(collector, resourcesService, playerService, itemNames, botAPI)
	cultivationHandler := cultivation.NewHandler(cultivationService, botAPI)
	bossHandler := boss.NewHandler(bossService, playerService, botAPI)
	sectHandler := sect.NewHandler(sectService, botAPI)
	arenaHandler := arena.NewHandler(arenaService, playerService, botAPI)
	shopHandler := shop.NewHandler(shopService, botAPI)

	// === 6. Фильтры ===
	chatFilter := filters.NewChatFilter(cfg.GameChatID, playerService)

	// === 7. Собираем бота ===
	b := bot.New(
		botAPI, cfg,
		playerService,
		playerHandler,
		ledgerHandler,
		resourcesHandler,
		cultivationHandler,
		bossHandler,
		sectHandler,
		arenaHandler,
		shopHandler,
		chatFilter,
	)

	// === 8. Планировщик задач ===
	scheduler := jobs.NewScheduler(tasksService, bossService, cfg,
		b.SendMessageToUser, b.AnnounceToGameChat)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}

// mapNames возвращает отсортированные имена зон из картотеки жил.
func mapNames(catalog resources.Catalog) []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

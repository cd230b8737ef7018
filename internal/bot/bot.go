// Package bot содержит главный модуль бота — инициализацию, запуск и остановку.
// bot.go принимает апдейты, маршрутизирует игровые команды и следит
// за лимитом параллелизма.
package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"taolong.ru/xiuxian-bot/internal/bot/filters"
	"taolong.ru/xiuxian-bot/internal/bot/middleware"
	"taolong.ru/xiuxian-bot/internal/config"
	"taolong.ru/xiuxian-bot/internal/features/arena"
	"taolong.ru/xiuxian-bot/internal/features/boss"
	"taolong.ru/xiuxian-bot/internal/features/cultivation"
	"taolong.ru/xiuxian-bot/internal/features/ledger"
	"taolong.ru/xiuxian-bot/internal/features/player"
	"taolong.ru/xiuxian-bot/internal/features/resources"
	"taolong.ru/xiuxian-bot/internal/features/sect"
	"taolong.ru/xiuxian-bot/internal/features/shop"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	playerService *player.Service

	playerHandler      *player.Handler
	ledgerHandler      *ledger.Handler
	resourcesHandler   *resources.Handler
	cultivationHandler *cultivation.Handler
	bossHandler        *boss.Handler
	sectHandler        *sect.Handler
	arenaHandler       *arena.Handler
	shopHandler        *shop.Handler

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	playerService *player.Service,
	playerHandler *player.Handler,
	ledgerHandler *ledger.Handler,
	resourcesHandler *resources.Handler,
	cultivationHandler *cultivation.Handler,
	bossHandler *boss.Handler,
	sectHandler *sect.Handler,
	arenaHandler *arena.Handler,
	shopHandler *shop.Handler,
	chatFilter *filters.ChatFilter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:                api,
		cfg:                cfg,
		chatFilter:         chatFilter,
		rateLimiter:        middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		playerService:      playerService,
		playerHandler:      playerHandler,
		ledgerHandler:      ledgerHandler,
		resourcesHandler:   resourcesHandler,
		cultivationHandler: cultivationHandler,
		bossHandler:        bossHandler,
		sectHandler:        sectHandler,
		arenaHandler:       arenaHandler,
		shopHandler:        shopHandler,
		parser:             NewCommandParser(),
		inflight:           make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)
	defer b.rateLimiter.Close()

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	if update.Message == nil || update.Message.Text == "" {
		return
	}

	message := update.Message
	middleware.LogMessage(message)

	if !b.chatFilter.CheckAccess(ctx, message) {
		return
	}
	if message.From != nil && !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	// Персонаж появляется при первом же сообщении
	if _, err := b.playerService.EnsurePlayer(ctx, userID, message.From.UserName); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("EnsurePlayer failed")
	}

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	if !isCommand {
		return
	}
	b.routeCommand(ctx, chatID, userID, cmd, args)
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, cmd string, args []string) {
	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("routing command")

	switch cmd {
	case "start", "help", "помощь":
		b.sendMessage(chatID, helpText)

	// --- Персонаж ---
	case "я", "профиль":
		b.playerHandler.HandleProfile(ctx, chatID, userID)
	case "имя":
		b.playerHandler.HandleDaoName(ctx, chatID, userID, args)
	case "идти":
		b.playerHandler.HandleMove(ctx, chatID, userID, args)
	case "зоны":
		b.playerHandler.HandleMaps(ctx, chatID)
	case "рейтинг":
		b.playerHandler.HandleRanking(ctx, chatID)
	case "отшельник":
		b.playerHandler.HandleHermit(ctx, chatID, userID, true)
	case "вернуться":
		b.playerHandler.HandleHermit(ctx, chatID, userID, false)

	// --- Камни и инвентарь ---
	case "камни":
		b.ledgerHandler.HandleBalance(ctx, chatID, userID)
	case "передать":
		b.ledgerHandler.HandleTransfer(ctx, chatID, userID, args)
	case "мешок":
		b.ledgerHandler.HandleInventory(ctx, chatID, userID)
	case "история":
		b.ledgerHandler.HandleTransactions(ctx, chatID, userID)

	// --- Совершенствование ---
	case "закрыться":
		b.cultivationHandler.HandleStartClosing(ctx, chatID, userID)
	case "глубокое":
		b.cultivationHandler.HandleStartDeepClosing(ctx, chatID, userID)
	case "проверить":
		b.cultivationHandler.HandleCheckClosing(ctx, chatID, userID)
	case "выйти":
		b.cultivationHandler.HandleForceExit(ctx, chatID, userID)
	case "прорыв":
		b.cultivationHandler.HandleBreakthrough(ctx, chatID, userID)

	// --- Добыча ---
	case "жилы":
		b.resourcesHandler.HandleNodes(ctx, chatID, userID)
	case "собрать":
		b.resourcesHandler.HandleCollect(ctx, chatID, userID, args)
	case "сбор":
		b.resourcesHandler.HandleCheckCollect(ctx, chatID, userID)

	// --- Боссы ---
	case "босс":
		if b.cfg.FeatureBossEnabled {
			b.bossHandler.HandleBossInfo(ctx, chatID, userID)
		}
	case "ударить":
		if b.cfg.FeatureBossEnabled {
			b.bossHandler.HandleStrike(ctx, chatID, userID)
		}

	// --- Секты ---
	case "секта":
		if b.cfg.FeatureSectsEnabled {
			b.sectHandler.HandleInfo(ctx, chatID, userID)
		}
	case "секты":
		if b.cfg.FeatureSectsEnabled {
			b.sectHandler.HandleList(ctx, chatID)
		}
	case "основать":
		if b.cfg.FeatureSectsEnabled {
			b.sectHandler.HandleCreate(ctx, chatID, userID, args)
		}
	case "вступить":
		if b.cfg.FeatureSectsEnabled {
			b.sectHandler.HandleJoin(ctx, chatID, userID, args)
		}
	case "покинуть":
		if b.cfg.FeatureSectsEnabled {
			b.sectHandler.HandleLeave(ctx, chatID, userID)
		}
	case "перекличка":
		if b.cfg.FeatureSectsEnabled {
			b.sectHandler.HandleRollCall(ctx, chatID, userID)
		}

	// --- Арена ---
	case "вызов":
		b.arenaHandler.HandleChallenge(ctx, chatID, userID, args)
	case "арена":
		b.arenaHandler.HandleRanking(ctx, chatID)

	// --- Лавка ---
	case "лавка":
		b.shopHandler.HandleShop(ctx, chatID)
	case "купить":
		b.shopHandler.HandleBuy(ctx, chatID, userID, args)
	case "съесть":
		b.shopHandler.HandleUse(ctx, chatID, userID, args)
	}
}

const helpText = `🐉 Путь совершенствования. Команды:

Персонаж: !я, !имя, !идти, !зоны, !рейтинг, !отшельник, !вернуться
Камни: !камни, !передать, !мешок, !история
Совершенствование: !закрыться, !глубокое, !проверить, !выйти, !прорыв
Добыча: !жилы, !собрать, !сбор
Боссы: !босс, !ударить
Секты: !секта, !секты, !основать, !вступить, !покинуть, !перекличка
Арена: !вызов, !арена
Лавка: !лавка, !купить, !съесть`

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// SendMessageToUser отправляет сообщение пользователю (для уведомлений
// о созревших задачах).
func (b *Bot) SendMessageToUser(userID int64, text string) {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Не удалось отправить сообщение")
	}
}

// AnnounceToGameChat пишет в игровой чат (спавн боссов и прочие события).
func (b *Bot) AnnounceToGameChat(text string) {
	b.sendMessage(b.cfg.GameChatID, text)
}

// CommandParser парсит русские команды с префиксами !, . и /.
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"!", ".", "/"},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}

	if !hasPrefix {
		return "", nil, false
	}

	text = strings.TrimSpace(text)
	parts := strings.Fields(text)

	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}

	return command, args, true
}

// handlers.go обрабатывает команды добычи:
// !жилы (что есть в зоне), !собрать, !сбор (проверка).
package resources

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"taolong.ru/xiuxian-bot/internal/common"
	"taolong.ru/xiuxian-bot/internal/features/player"
)

// Handler обрабатывает команды ресурсных жил.
type Handler struct {
	collector *Collector
	nodes     *Service
	players   *player.Service
	itemNames func(itemID string) string
	bot       *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик команд добычи.
func NewHandler(collector *Collector, nodes *Service, players *player.Service, itemNames func(itemID string) string, bot *tgbotapi.BotAPI) *Handler {
	if itemNames == nil {
		itemNames = func(itemID string) string { return itemID }
	}
	return &Handler{collector: collector, nodes: nodes, players: players, itemNames: itemNames, bot: bot}
}

// HandleNodes обрабатывает команду !жилы — жилы текущей зоны.
func (h *Handler) HandleNodes(ctx context.Context, chatID, userID int64) {
	p, err := h.players.GetByUserID(ctx, userID)
	if err != nil {
		h.sendMessage(chatID, "❌ Персонаж не найден")
		return
	}

	names := h.nodes.NodeNames(p.CurrentMap)
	if len(names) == 0 {
		h.sendMessage(chatID, "🏜 В зоне «"+p.CurrentMap+"» нечего добывать")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "⛏ Жилы зоны «%s»:\n", p.CurrentMap)
	for _, name := range names {
		available, err := h.nodes.NodeAvailability(ctx, p.CurrentMap, name)
		if err != nil {
			log.WithError(err).Warn("Ошибка чтения жилы")
			continue
		}
		fmt.Fprintf(&b, "• %s — доступно %d\n", name, available)
	}
	h.sendMessage(chatID, b.String())
}

// HandleCollect обрабатывает команду !собрать <жила> [количество].
func (h *Handler) HandleCollect(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) == 0 {
		h.sendMessage(chatID, "❌ Формат: !собрать <жила> [количество]")
		return
	}

	requested := int64(1)
	resourceArgs := args
	if n, err := strconv.ParseInt(args[len(args)-1], 10, 64); err == nil && len(args) > 1 {
		requested = n
		resourceArgs = args[:len(args)-1]
	}
	resourceName := strings.Join(resourceArgs, " ")

	res, err := h.collector.StartCollect(ctx, userID, resourceName, requested)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNodeUnknown):
			h.sendMessage(chatID, "❌ Такой жилы здесь нет. Смотрите !жилы")
		case errors.Is(err, common.ErrNodeDepleted):
			h.sendMessage(chatID, "⏳ Жила истощена, подождите восстановления")
		case errors.Is(err, common.ErrTaskAlreadyActive):
			h.sendMessage(chatID, "❌ Вы уже собираете этот ресурс. Проверьте: !сбор")
		case errors.Is(err, common.ErrInvalidAmount):
			h.sendMessage(chatID, "❌ Количество должно быть положительным и не слишком большим")
		default:
			log.WithError(err).Error("Ошибка постановки сбора")
			h.sendMessage(chatID, "❌ Не удалось начать сбор")
		}
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"⛏ Вы начали собирать %s x%d. Завершение через %s (!сбор)",
		h.itemNames(res.Item), res.Granted, common.FormatDuration(res.Duration)))
}

// HandleCheckCollect обрабатывает команду !сбор.
func (h *Handler) HandleCheckCollect(ctx context.Context, chatID, userID int64) {
	res, err := h.collector.CheckCollect(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка проверки сбора")
		h.sendMessage(chatID, "❌ Ошибка проверки сбора")
		return
	}

	switch {
	case res.NoSuchTask:
		h.sendMessage(chatID, "🤷 Сейчас вы ничего не собираете")
	case res.Outcome != nil:
		item := res.Outcome.Subject
		if res.Outcome.RewardItem != nil {
			item = h.itemNames(*res.Outcome.RewardItem)
		}
		h.sendMessage(chatID, fmt.Sprintf("✅ Сбор завершён: %s x%d в мешке",
			item, res.Outcome.Quantity))
	default:
		h.sendMessage(chatID, "⏳ Сбор ещё идёт. Осталось: "+
			common.FormatDuration(res.Remaining))
	}
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}

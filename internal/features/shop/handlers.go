// handlers.go обрабатывает команды лавки: !лавка, !купить, !съесть.
package shop

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"taolong.ru/xiuxian-bot/internal/common"
)

// Handler обрабатывает команды лавки.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик команд лавки.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleShop обрабатывает команду !лавка.
func (h *Handler) HandleShop(ctx context.Context, chatID int64) {
	items := h.service.ForSale()
	var b strings.Builder
	b.WriteString("🏪 Лавка:\n")
	for _, item := range items {
		fmt.Fprintf(&b, "• %s — %s\n  %s\n", item.Name, common.FormatStones(item.Price), item.Description)
	}
	b.WriteString("\nПокупка: !купить <название> [количество]")
	h.sendMessage(chatID, b.String())
}

// HandleBuy обрабатывает команду !купить <название> [количество].
func (h *Handler) HandleBuy(ctx context.Context, chatID, userID int64, args []string) {
	name, count := parseItemArgs(args)
	if name == "" {
		h.sendMessage(chatID, "❌ Формат: !купить <название> [количество]")
		return
	}

	item, ok := h.findByName(name)
	if !ok {
		h.sendMessage(chatID, "❌ В лавке такого нет. Смотрите !лавка")
		return
	}

	bought, err := h.service.Buy(ctx, userID, item.ID, count)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInsufficientStones):
			h.sendMessage(chatID, "❌ Недостаточно духовных камней")
		case errors.Is(err, common.ErrInvalidAmount):
			h.sendMessage(chatID, "❌ Количество должно быть положительным")
		case errors.Is(err, common.ErrItemUnknown):
			h.sendMessage(chatID, "❌ В лавке такого нет")
		default:
			log.WithError(err).Error("Ошибка покупки")
			h.sendMessage(chatID, "❌ Покупка не удалась")
		}
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("✅ Куплено: %s x%d", bought.Name, count))
}

// HandleUse обрабатывает команду !съесть <название>.
func (h *Handler) HandleUse(ctx context.Context, chatID, userID int64, args []string) {
	name, _ := parseItemArgs(args)
	if name == "" {
		h.sendMessage(chatID, "❌ Формат: !съесть <название>")
		return
	}

	item, ok := h.findByName(name)
	if !ok {
		h.sendMessage(chatID, "❌ Неизвестный предмет")
		return
	}

	used, err := h.service.Use(ctx, userID, item.ID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInsufficientItems):
			h.sendMessage(chatID, "❌ В мешке нет такого предмета")
		case errors.Is(err, common.ErrItemNotConsumable):
			h.sendMessage(chatID, "❌ Это не еда")
		default:
			log.WithError(err).Error("Ошибка употребления")
			h.sendMessage(chatID, "❌ Не получилось")
		}
		return
	}

	var effects []string
	if used.Effect.Exp != 0 {
		effects = append(effects, fmt.Sprintf("совершенствование %+d", used.Effect.Exp))
	}
	if used.Effect.Health != 0 {
		effects = append(effects, fmt.Sprintf("здоровье %+d", used.Effect.Health))
	}
	if used.Effect.Stones != 0 {
		effects = append(effects, fmt.Sprintf("камни %+d", used.Effect.Stones))
	}
	h.sendMessage(chatID, "✅ "+used.Name+": "+strings.Join(effects, ", "))
}

// findByName ищет предмет по отображаемому имени или идентификатору.
func (h *Handler) findByName(name string) (Item, bool) {
	if item, ok := h.service.Item(name); ok {
		return item, true
	}
	for _, item := range h.service.catalog {
		if strings.EqualFold(item.Name, name) {
			return item, true
		}
	}
	return Item{}, false
}

func parseItemArgs(args []string) (name string, count int64) {
	count = 1
	if len(args) == 0 {
		return "", count
	}
	if n, err := strconv.ParseInt(args[len(args)-1], 10, 64); err == nil && len(args) > 1 {
		count = n
		args = args[:len(args)-1]
	}
	return strings.TrimSpace(strings.Join(args, " ")), count
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}

// Package ledger — handlers.go обрабатывает команды:
// !камни (баланс), !передать (перевод), !мешок (инвентарь),
// !история (движения камней).
package ledger

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

// Handler обрабатывает команды камней и инвентаря.
type Handler struct {
	service   *Service
	players   *player.Service
	itemNames func(itemID string) string // имя предмета для отображения
	bot       *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик команд леджера.
func NewHandler(service *Service, players *player.Service, itemNames func(itemID string) string, bot *tgbotapi.BotAPI) *Handler {
	if itemNames == nil {
		itemNames = func(itemID string) string { return itemID }
	}
	return &Handler{service: service, players: players, itemNames: itemNames, bot: bot}
}

// HandleBalance обрабатывает команду !камни.
func (h *Handler) HandleBalance(ctx context.Context, chatID, userID int64) {
	balance, err := h.service.GetBalance(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения баланса")
		h.sendMessage(chatID, "❌ Ошибка получения баланса")
		return
	}
	h.sendMessage(chatID, "💎 В мешке: "+common.FormatStones(balance))
}

// HandleTransfer обрабатывает команду !передать @username 100.
func (h *Handler) HandleTransfer(ctx context.Context, chatID, fromUserID int64, args []string) {
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Формат: !передать @username сумма")
		return
	}

	username := strings.TrimPrefix(args[0], "@")
	if username == "" {
		h.sendMessage(chatID, "❌ Укажите @username получателя")
		return
	}
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || amount <= 0 {
		h.sendMessage(chatID, "❌ Сумма должна быть положительным числом")
		return
	}

	recipient, err := h.players.GetByNickname(ctx, username)
	if err != nil {
		h.sendMessage(chatID, "❌ Совершенствующийся не найден")
		return
	}

	if err := h.service.Transfer(ctx, fromUserID, recipient.UserID, amount); err != nil {
		switch {
		case errors.Is(err, common.ErrSelfTransfer):
			h.sendMessage(chatID, "❌ Нельзя передавать камни самому себе")
		case errors.Is(err, common.ErrInsufficientStones):
			h.sendMessage(chatID, "❌ Недостаточно духовных камней")
		case errors.Is(err, common.ErrInvalidAmount):
			h.sendMessage(chatID, "❌ Сумма должна быть положительной")
		default:
			log.WithError(err).Error("Ошибка перевода")
			h.sendMessage(chatID, "❌ Ошибка выполнения перевода")
		}
		return
	}

	newBalance, _ := h.service.GetBalance(ctx, fromUserID)
	h.sendMessage(chatID, fmt.Sprintf("✅ Передано %s для @%s\nВ мешке осталось: %s",
		common.FormatStones(amount), username, common.FormatStones(newBalance)))
}

// HandleInventory обрабатывает команду !мешок.
func (h *Handler) HandleInventory(ctx context.Context, chatID, userID int64) {
	entries, err := h.service.GetInventory(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения инвентаря")
		h.sendMessage(chatID, "❌ Ошибка получения инвентаря")
		return
	}
	if len(entries) == 0 {
		h.sendMessage(chatID, "🎒 Мешок пуст")
		return
	}

	var b strings.Builder
	b.WriteString("🎒 Мешок:\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "• %s x%d\n", h.itemNames(e.ItemID), e.Quantity)
	}
	h.sendMessage(chatID, b.String())
}

// HandleTransactions обрабатывает команду !история.
func (h *Handler) HandleTransactions(ctx context.Context, chatID, userID int64) {
	txs, err := h.service.GetTransactions(ctx, userID, 10)
	if err != nil {
		log.WithError(err).Error("Ошибка получения истории")
		h.sendMessage(chatID, "❌ Ошибка получения истории")
		return
	}
	if len(txs) == 0 {
		h.sendMessage(chatID, "📜 Движений камней пока не было")
		return
	}

	var b strings.Builder
	b.WriteString("📜 Последние движения камней:\n")
	for _, t := range txs {
		amount := t.Amount
		if t.FromUserID != nil && *t.FromUserID == userID {
			amount = -amount
		}
		fmt.Fprintf(&b, "%s %s — %s\n",
			common.FormatDateTime(t.CreatedAt), common.FormatStonesDelta(amount), t.Description)
	}
	h.sendMessage(chatID, b.String())
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}

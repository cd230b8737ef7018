// handlers.go обрабатывает команды мировых боссов:
// !босс (кто в зоне), !ударить.
package boss

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"taolong.ru/xiuxian-bot/internal/common"
	"taolong.ru/xiuxian-bot/internal/features/player"
)

// Handler обрабатывает команды боссов.
type Handler struct {
	service *Service
	players *player.Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик команд боссов.
func NewHandler(service *Service, players *player.Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, players: players, bot: bot}
}

// HandleBossInfo обрабатывает команду !босс.
func (h *Handler) HandleBossInfo(ctx context.Context, chatID, userID int64) {
	p, err := h.players.GetByUserID(ctx, userID)
	if err != nil {
		h.sendMessage(chatID, "❌ Персонаж не найден")
		return
	}

	b, err := h.service.GetInMap(ctx, p.CurrentMap)
	if err != nil {
		if errors.Is(err, common.ErrBossNotFound) {
			h.sendMessage(chatID, "🕊 В зоне «"+p.CurrentMap+"» сейчас спокойно")
			return
		}
		log.WithError(err).Error("Ошибка чтения босса")
		h.sendMessage(chatID, "❌ Ошибка")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"👹 %s\nЗдоровье: %s/%s\nУходит: %s\nНаграда: %s и %s совершенствования",
		b.Name,
		common.FormatNumber(b.CurrentHP), common.FormatNumber(b.MaxHP),
		common.FormatDateTime(b.ExpiresAt),
		common.FormatStones(b.RewardStones), common.FormatNumber(b.RewardExp)))
}

// HandleStrike обрабатывает команду !ударить.
func (h *Handler) HandleStrike(ctx context.Context, chatID, userID int64) {
	res, err := h.service.Strike(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrBossNotFound), errors.Is(err, common.ErrBossAlreadyDead):
			h.sendMessage(chatID, "🕊 Бить некого: в вашей зоне нет живого босса")
		case errors.Is(err, common.ErrHermitMode):
			h.sendMessage(chatID, "🏔 Отшельники не сражаются. Сначала !вернуться")
		case errors.Is(err, common.ErrPlayerNotFound):
			h.sendMessage(chatID, "❌ Персонаж не найден")
		default:
			log.WithError(err).Error("Ошибка удара по боссу")
			h.sendMessage(chatID, "❌ Удар не удался")
		}
		return
	}

	if !res.Killed {
		h.sendMessage(chatID, fmt.Sprintf(
			"⚔️ Вы нанесли %s урона %s. Осталось: %s. Ваш вклад: %s",
			common.FormatNumber(res.Dealt), res.Boss.Name,
			common.FormatNumber(res.Boss.CurrentHP), common.FormatNumber(res.TotalDamage)))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🎉 %s повержен! Добивающий удар: %s урона.\nНаграды:\n",
		res.Boss.Name, common.FormatNumber(res.Dealt))
	for uid, payout := range res.Payouts {
		name := fmt.Sprintf("%d", uid)
		if p, err := h.players.GetByUserID(ctx, uid); err == nil {
			name = p.DisplayName()
		}
		if uid == userID {
			name += " (вы)"
		}
		fmt.Fprintf(&b, "• %s: %s, %s совершенствования\n",
			name, common.FormatStones(payout.Stones), common.FormatNumber(payout.Exp))
	}
	h.sendMessage(chatID, b.String())
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}

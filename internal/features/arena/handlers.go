// handlers.go обрабатывает команды арены: !вызов, !арена (рейтинг).
package arena

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

// Handler обрабатывает команды арены.
type Handler struct {
	service *Service
	players *player.Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик команд арены.
func NewHandler(service *Service, players *player.Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, players: players, bot: bot}
}

// HandleChallenge обрабатывает команду !вызов @username.
func (h *Handler) HandleChallenge(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 1 {
		h.sendMessage(chatID, "❌ Формат: !вызов @username")
		return
	}

	username := strings.TrimPrefix(args[0], "@")
	defender, err := h.players.GetByNickname(ctx, username)
	if err != nil {
		h.sendMessage(chatID, "❌ Соперник не найден")
		return
	}

	res, err := h.service.Spar(ctx, userID, defender.UserID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrSelfBattle):
			h.sendMessage(chatID, "❌ С самим собой сражаться нельзя")
		case errors.Is(err, common.ErrHermitMode):
			h.sendMessage(chatID, "🏔 Один из вас в отшельничестве, бой невозможен")
		case errors.Is(err, common.ErrOnCooldown):
			h.sendMessage(chatID, "❌ Рано: "+err.Error())
		case errors.Is(err, common.ErrPlayerNotFound):
			h.sendMessage(chatID, "❌ Соперник не найден")
		default:
			log.WithError(err).Error("Ошибка поединка")
			h.sendMessage(chatID, "❌ Поединок не состоялся")
		}
		return
	}

	winner, _ := h.players.GetByUserID(ctx, res.WinnerID)
	loser, _ := h.players.GetByUserID(ctx, res.LoserID)
	winnerName, loserName := "победитель", "проигравший"
	if winner != nil {
		winnerName = winner.DisplayName()
	}
	if loser != nil {
		loserName = loser.DisplayName()
	}

	text := fmt.Sprintf("⚔️ %s побеждает в поединке против %s!", winnerName, loserName)
	if res.ExpTaken > 0 {
		text += fmt.Sprintf("\nПерешло %s совершенствования.", common.FormatNumber(res.ExpTaken))
	}
	h.sendMessage(chatID, text)
}

// HandleRanking обрабатывает команду !арена.
func (h *Handler) HandleRanking(ctx context.Context, chatID int64) {
	top, err := h.service.BattleRanking(ctx, 10)
	if err != nil {
		log.WithError(err).Error("Ошибка получения рейтинга арены")
		h.sendMessage(chatID, "❌ Ошибка получения рейтинга")
		return
	}

	var b strings.Builder
	b.WriteString("🥋 Бойцы арены:\n")
	for i, p := range top {
		fmt.Fprintf(&b, "%d. %s — %d побед из %d боёв\n",
			i+1, p.DisplayName(), p.TotalBattleWinCount, p.TotalBattleCount)
	}
	h.sendMessage(chatID, b.String())
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}

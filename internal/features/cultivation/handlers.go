// handlers.go обрабатывает команды совершенствования:
// !закрыться, !глубокое, !проверить, !выйти, !прорыв.
package cultivation

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"taolong.ru/xiuxian-bot/internal/common"
	"taolong.ru/xiuxian-bot/internal/features/tasks"
)

// Handler обрабатывает команды совершенствования.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик команд совершенствования.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleStartClosing обрабатывает команду !закрыться.
func (h *Handler) HandleStartClosing(ctx context.Context, chatID, userID int64) {
	res, err := h.service.StartClosing(ctx, userID)
	if err != nil {
		h.replyClosingError(chatID, err)
		return
	}
	h.sendMessage(chatID, fmt.Sprintf(
		"🧘 Вы ушли в закрытие. Возвращайтесь через %s и напишите !проверить",
		common.FormatDuration(res.Duration)))
}

// HandleStartDeepClosing обрабатывает команду !глубокое.
func (h *Handler) HandleStartDeepClosing(ctx context.Context, chatID, userID int64) {
	res, err := h.service.StartDeepClosing(ctx, userID)
	if err != nil {
		h.replyClosingError(chatID, err)
		return
	}
	h.sendMessage(chatID, fmt.Sprintf(
		"⛰ Вы ушли в глубокое закрытие на %s.\n"+
			"Досрочный выход (!выйти) сильно уценит накопленное.",
		common.FormatDuration(res.Duration)))
}

// HandleCheckClosing обрабатывает команду !проверить.
func (h *Handler) HandleCheckClosing(ctx context.Context, chatID, userID int64) {
	res, err := h.service.CheckClosing(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка проверки закрытия")
		h.sendMessage(chatID, "❌ Ошибка проверки закрытия")
		return
	}

	switch {
	case res.NoSuchTask:
		h.sendMessage(chatID, "🤷 Вы не в закрытии. Начните с !закрыться")
	case res.Outcome != nil:
		h.sendMessage(chatID, closingOutcomeText(res.Outcome))
	default:
		h.sendMessage(chatID, "⏳ Закрытие ещё идёт. Осталось: "+
			common.FormatDuration(res.Remaining))
	}
}

// HandleForceExit обрабатывает команду !выйти — досрочный выход
// из глубокого закрытия.
func (h *Handler) HandleForceExit(ctx context.Context, chatID, userID int64) {
	res, err := h.service.ForceExitDeep(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrTaskNotFound) {
			h.sendMessage(chatID, "🤷 Вы не в глубоком закрытии")
			return
		}
		log.WithError(err).Error("Ошибка досрочного выхода")
		h.sendMessage(chatID, "❌ Ошибка досрочного выхода")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"🚪 Вы вышли из закрытия, пройдя %.0f%% срока.\n"+
			"Получено %s совершенствования (вместо %s).",
		res.Ratio*100, common.FormatNumber(res.Granted), common.FormatNumber(res.Committed)))
}

// HandleBreakthrough обрабатывает команду !прорыв.
func (h *Handler) HandleBreakthrough(ctx context.Context, chatID, userID int64) {
	res, err := h.service.Breakthrough(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrRealmPeak) {
			h.sendMessage(chatID, "🌄 Вы уже на вершине известного пути")
			return
		}
		log.WithError(err).Error("Ошибка прорыва")
		h.sendMessage(chatID, "❌ Ошибка прорыва")
		return
	}

	if !res.Succeeded {
		h.sendMessage(chatID, fmt.Sprintf(
			"🧗 До ступени «%s» не хватает %s совершенствования",
			res.Next, common.FormatNumber(res.Missing)))
		return
	}
	h.sendMessage(chatID, "🌟 Прорыв! Вы достигли ступени «"+res.Next+"»")
}

func (h *Handler) replyClosingError(chatID int64, err error) {
	switch {
	case errors.Is(err, common.ErrTaskAlreadyActive):
		h.sendMessage(chatID, "❌ Вы уже в закрытии. Проверьте его: !проверить")
	case errors.Is(err, common.ErrOnCooldown):
		h.sendMessage(chatID, "❌ Рано: "+err.Error())
	case errors.Is(err, common.ErrPlayerNotFound):
		h.sendMessage(chatID, "❌ Персонаж не найден")
	default:
		log.WithError(err).Error("Ошибка постановки закрытия")
		h.sendMessage(chatID, "❌ Не удалось уйти в закрытие")
	}
}

func closingOutcomeText(out *tasks.ResolvedOutcome) string {
	switch {
	case out.Quantity > 0:
		return fmt.Sprintf("✨ Закрытие завершено! Совершенствование выросло на %s.",
			common.FormatNumber(out.Quantity))
	case out.Quantity == 0:
		return "🧘 Закрытие завершено, но прозрения не случилось."
	default:
		return fmt.Sprintf("⚡ Искажение ци! Совершенствование откатилось на %s.",
			common.FormatNumber(-out.Quantity))
	}
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}

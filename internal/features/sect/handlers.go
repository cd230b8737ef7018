// handlers.go обрабатывает команды сект:
// !секта, !секты, !основать, !вступить, !покинуть, !перекличка.
package sect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"taolong.ru/xiuxian-bot/internal/common"
)

// Handler обрабатывает команды сект.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик команд сект.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleInfo обрабатывает команду !секта.
func (h *Handler) HandleInfo(ctx context.Context, chatID, userID int64) {
	sect, contribution, err := h.service.Info(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotInSect) {
			h.sendMessage(chatID, "🤷 Вы не состоите в секте. Смотрите !секты")
			return
		}
		log.WithError(err).Error("Ошибка получения секты")
		h.sendMessage(chatID, "❌ Ошибка")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "⛩ %s\n", sect.Name)
	if sect.Description != nil {
		fmt.Fprintf(&b, "%s\n", *sect.Description)
	}
	fmt.Fprintf(&b, "Участников: %d\nВклад секты: %s\nВаш вклад: %s",
		sect.MemberCount, common.FormatNumber(sect.Contribution), common.FormatNumber(contribution))
	h.sendMessage(chatID, b.String())
}

// HandleList обрабатывает команду !секты.
func (h *Handler) HandleList(ctx context.Context, chatID int64) {
	sects, err := h.service.List(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка получения сект")
		h.sendMessage(chatID, "❌ Ошибка получения сект")
		return
	}
	if len(sects) == 0 {
		h.sendMessage(chatID, "⛩ Сект ещё нет. Оснуйте первую: !основать <имя>")
		return
	}

	var b strings.Builder
	b.WriteString("⛩ Секты:\n")
	for i, s := range sects {
		fmt.Fprintf(&b, "%d. %s — %d участников, вклад %s\n",
			i+1, s.Name, s.MemberCount, common.FormatNumber(s.Contribution))
	}
	h.sendMessage(chatID, b.String())
}

// HandleCreate обрабатывает команду !основать <имя>.
func (h *Handler) HandleCreate(ctx context.Context, chatID, userID int64, args []string) {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		h.sendMessage(chatID, fmt.Sprintf(
			"❌ Формат: !основать <имя>. Основание стоит %s",
			common.FormatStones(FoundingCost)))
		return
	}

	sect, err := h.service.Create(ctx, userID, name, "")
	if err != nil {
		switch {
		case errors.Is(err, common.ErrAlreadyInSect):
			h.sendMessage(chatID, "❌ Вы уже состоите в секте")
		case errors.Is(err, common.ErrSectNameTaken):
			h.sendMessage(chatID, "❌ Секта с таким именем уже существует")
		case errors.Is(err, common.ErrInsufficientStones):
			h.sendMessage(chatID, fmt.Sprintf("❌ Нужно %s", common.FormatStones(FoundingCost)))
		case errors.Is(err, common.ErrOnCooldown):
			h.sendMessage(chatID, "❌ Рано: "+err.Error())
		default:
			log.WithError(err).Error("Ошибка основания секты")
			h.sendMessage(chatID, "❌ Не удалось основать секту")
		}
		return
	}
	h.sendMessage(chatID, "⛩ Секта «"+sect.Name+"» основана! Вы её глава.")
}

// HandleJoin обрабатывает команду !вступить <имя>.
func (h *Handler) HandleJoin(ctx context.Context, chatID, userID int64, args []string) {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		h.sendMessage(chatID, "❌ Формат: !вступить <имя секты>")
		return
	}

	sect, err := h.service.Join(ctx, userID, name)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrSectNotFound):
			h.sendMessage(chatID, "❌ Такой секты нет. Смотрите !секты")
		case errors.Is(err, common.ErrAlreadyInSect):
			h.sendMessage(chatID, "❌ Вы уже состоите в секте")
		case errors.Is(err, common.ErrOnCooldown):
			h.sendMessage(chatID, "❌ После предательства нужно выждать: "+err.Error())
		default:
			log.WithError(err).Error("Ошибка вступления в секту")
			h.sendMessage(chatID, "❌ Не удалось вступить в секту")
		}
		return
	}
	h.sendMessage(chatID, "⛩ Вы вступили в секту «"+sect.Name+"»")
}

// HandleLeave обрабатывает команду !покинуть.
func (h *Handler) HandleLeave(ctx context.Context, chatID, userID int64) {
	if err := h.service.Leave(ctx, userID); err != nil {
		switch {
		case errors.Is(err, common.ErrNotInSect):
			h.sendMessage(chatID, "🤷 Вы не состоите в секте")
		case errors.Is(err, common.ErrAlreadyInSect):
			h.sendMessage(chatID, "❌ Глава не может бросить учеников")
		default:
			log.WithError(err).Error("Ошибка выхода из секты")
			h.sendMessage(chatID, "❌ Не удалось покинуть секту")
		}
		return
	}
	h.sendMessage(chatID, "🚪 Вы покинули секту. Вступить заново получится не сразу.")
}

// HandleRollCall обрабатывает команду !перекличка.
func (h *Handler) HandleRollCall(ctx context.Context, chatID, userID int64) {
	granted, err := h.service.RollCall(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotInSect):
			h.sendMessage(chatID, "🤷 Перекличка только для участников секты")
		case errors.Is(err, common.ErrRollCallDone):
			h.sendMessage(chatID, "✋ Сегодня вы уже отмечались")
		default:
			log.WithError(err).Error("Ошибка переклички")
			h.sendMessage(chatID, "❌ Ошибка переклички")
		}
		return
	}
	h.sendMessage(chatID, "✅ Отмечено! Получено "+common.FormatStones(granted))
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}

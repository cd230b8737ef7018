// Package player — handlers.go обрабатывает команды:
// !я (профиль), !имя (даосское имя), !идти (перемещение),
// !зоны, !рейтинг.
package player

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"taolong.ru/xiuxian-bot/internal/common"
)

// Handler обрабатывает команды персонажа.
type Handler struct {
	service *Service
	maps    []string // известные зоны мира
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик команд персонажа.
func NewHandler(service *Service, maps []string, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, maps: maps, bot: bot}
}

// HandleProfile обрабатывает команду !я — показывает профиль персонажа.
func (h *Handler) HandleProfile(ctx context.Context, chatID, userID int64) {
	p, err := h.service.GetByUserID(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения профиля")
		h.sendMessage(chatID, "❌ Персонаж не найден. Напишите что-нибудь в чат, и он появится.")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🧘 %s\n", p.DisplayName())
	fmt.Fprintf(&b, "Ступень: %s\n", p.Realm)
	if p.Talent != nil {
		fmt.Fprintf(&b, "Духовный корень: %s\n", *p.Talent)
	}
	fmt.Fprintf(&b, "Совершенствование: %s\n", common.FormatNumber(p.Cultivation))
	fmt.Fprintf(&b, "Камни: %s\n", common.FormatStones(p.SpiritStones))
	fmt.Fprintf(&b, "Здоровье: %d/%d\n", p.Health, p.MaxHealth)
	fmt.Fprintf(&b, "Зона: %s", p.CurrentMap)
	if p.IsHermit {
		b.WriteString("\n🏔 Режим отшельника")
	}
	h.sendMessage(chatID, b.String())
}

// HandleDaoName обрабатывает команду !имя <даосское имя>.
func (h *Handler) HandleDaoName(ctx context.Context, chatID, userID int64, args []string) {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		h.sendMessage(chatID, "❌ Формат: !имя <даосское имя>")
		return
	}
	if err := h.service.SetDaoName(ctx, userID, name); err != nil {
		log.WithError(err).Error("Ошибка смены имени")
		h.sendMessage(chatID, "❌ Не удалось сменить имя")
		return
	}
	h.sendMessage(chatID, "✅ Отныне вас зовут "+name)
}

// HandleMove обрабатывает команду !идти <зона>.
func (h *Handler) HandleMove(ctx context.Context, chatID, userID int64, args []string) {
	target := strings.TrimSpace(strings.Join(args, " "))
	if target == "" {
		h.sendMessage(chatID, "❌ Формат: !идти <зона>\nЗоны: "+strings.Join(h.maps, ", "))
		return
	}

	var known bool
	for _, m := range h.maps {
		if strings.EqualFold(m, target) {
			target = m
			known = true
			break
		}
	}
	if !known {
		h.sendMessage(chatID, "❌ Такой зоны нет. Зоны: "+strings.Join(h.maps, ", "))
		return
	}

	if err := h.service.Move(ctx, userID, target); err != nil {
		log.WithError(err).Error("Ошибка перемещения")
		h.sendMessage(chatID, "❌ Не удалось переместиться")
		return
	}
	h.sendMessage(chatID, "🚶 Вы прибыли в зону «"+target+"»")
}

// HandleMaps обрабатывает команду !зоны.
func (h *Handler) HandleMaps(ctx context.Context, chatID int64) {
	h.sendMessage(chatID, "🗺 Зоны мира:\n"+strings.Join(h.maps, "\n"))
}

// HandleRanking обрабатывает команду !рейтинг.
func (h *Handler) HandleRanking(ctx context.Context, chatID int64) {
	top, err := h.service.Ranking(ctx, 10)
	if err != nil {
		log.WithError(err).Error("Ошибка получения рейтинга")
		h.sendMessage(chatID, "❌ Ошибка получения рейтинга")
		return
	}

	var b strings.Builder
	b.WriteString("🏆 Совершенствующиеся:\n")
	for i, p := range top {
		fmt.Fprintf(&b, "%d. %s — %s (%s)\n",
			i+1, p.DisplayName(), common.FormatNumber(p.Cultivation), p.Realm)
	}
	h.sendMessage(chatID, b.String())
}

// HandleHermit обрабатывает команды !отшельник и !вернуться.
func (h *Handler) HandleHermit(ctx context.Context, chatID, userID int64, hermit bool) {
	if err := h.service.SetHermit(ctx, userID, hermit); err != nil {
		log.WithError(err).Error("Ошибка смены режима")
		h.sendMessage(chatID, "❌ Не удалось сменить режим")
		return
	}
	if hermit {
		h.sendMessage(chatID, "🏔 Вы ушли в отшельничество. Бои вам не грозят.")
	} else {
		h.sendMessage(chatID, "⚔️ Вы вернулись в мир. Берегитесь вызовов.")
	}
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}

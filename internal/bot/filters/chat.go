// Package filters отсекает сообщения из чужих чатов.
// Бот живёт в одном игровом чате плюс отвечает в личке игрокам.
package filters

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"taolong.ru/xiuxian-bot/internal/features/player"
)

// ChatFilter проверяет, откуда пришло сообщение.
type ChatFilter struct {
	gameChatID    int64
	playerService *player.Service
}

// NewChatFilter создаёт фильтр чатов.
func NewChatFilter(gameChatID int64, playerService *player.Service) *ChatFilter {
	return &ChatFilter{
		gameChatID:    gameChatID,
		playerService: playerService,
	}
}

// CheckAccess возвращает true для игрового чата и для лички
// зарегистрированного игрока.
func (f *ChatFilter) CheckAccess(ctx context.Context, message *tgbotapi.Message) bool {
	if message == nil || message.Chat == nil || message.From == nil {
		return false
	}
	if f.gameChatID == 0 {
		log.WithField("component", "ChatFilter").Error("gameChatID is 0 (ошибка конфигурации)")
		return false
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	if chatID == f.gameChatID {
		return true
	}

	if message.Chat.IsPrivate() {
		if _, err := f.playerService.GetByUserID(ctx, userID); err == nil {
			return true
		}
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"user_id":   userID,
		}).Debug("отказ: личка незнакомца")
		return false
	}

	return false
}

// Package middleware — сквозные обработчики входящих сообщений:
// логирование, rate-limiting на игрока, восстановление после паники.
package middleware

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// LogMessage логирует входящее сообщение игрока.
// Текст режется по рунам: команды русские, и байтовый срез
// разорвал бы символ посередине.
func LogMessage(message *tgbotapi.Message) {
	if message == nil || message.From == nil {
		return
	}

	text := []rune(message.Text)
	if len(text) > 60 {
		text = append(text[:60], '…')
	}

	log.WithFields(log.Fields{
		"user_id": message.From.ID,
		"chat_id": message.Chat.ID,
		"private": message.Chat.IsPrivate(),
		"text":    string(text),
	}).Debug("Входящее сообщение")
}

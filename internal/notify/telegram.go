package notify

import (
	"context"
	"fmt"

	"resbook/internal/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramMessenger broadcasts approver alerts to the configured chat
// IDs. It only sends; no updates are consumed.
type TelegramMessenger struct {
	bot    *tgbotapi.BotAPI
	chats  []int64
	logger *zerolog.Logger
}

func NewTelegramMessenger(cfg config.TelegramConfig, logger *zerolog.Logger) (*TelegramMessenger, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramMessenger{
		bot:    bot,
		chats:  cfg.ApproverChats,
		logger: logger,
	}, nil
}

// NotifyApprovers sends the text to every approver chat. One failed
// chat does not stop the rest; the first error is returned.
func (t *TelegramMessenger) NotifyApprovers(ctx context.Context, text string) error {
	var firstErr error
	for _, chatID := range t.chats {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := t.bot.Send(msg); err != nil {
			t.logger.Error().Err(err).Int64("chat_id", chatID).Msg("telegram send error")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

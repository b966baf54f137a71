package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"courtbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const callbackDatePrefix = "date:"

func (b *Bot) handleCallbackQuery(ctx context.Context, update tgbotapi.Update) {
	callback := update.CallbackQuery
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	data := callback.Data

	// Сразу убираем "часики" на кнопке
	if err := b.tgService.AnswerCallback(callback.ID, ""); err != nil {
		b.logger.Warn().Err(err).Msg("Failed to answer callback")
	}

	switch {
	case strings.HasPrefix(data, callbackDatePrefix):
		b.handleDateSelection(ctx, chatID, userID, strings.TrimPrefix(data, callbackDatePrefix))
	default:
		b.logger.Warn().Str("data", data).Int64("user_id", userID).Msg("Unknown callback data")
	}
}

func (b *Bot) handleDateSelection(ctx context.Context, chatID, userID int64, dateStr string) {
	date, err := time.ParseInLocation(models.DateLayout, dateStr, b.ledger.Location())
	if err != nil {
		b.sendMessage(chatID, "That date did not parse, try /reserve again.")
		return
	}

	slots, err := b.ledger.AvailableSlots(ctx, date)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}

	if len(slots) == 0 {
		b.sendMessage(chatID, fmt.Sprintf("No free slots left on %s, pick another date.", dateStr))
		return
	}

	err = b.stateService.SetUserState(ctx, userID, models.StateSelectTime, map[string]interface{}{
		models.StateDate: dateStr,
	})
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to set state")
		b.sendMessage(chatID, "Something went wrong, try /reserve again.")
		return
	}

	keyboard := timeSelectionKeyboard(slots, b.ledger.Location())
	text := fmt.Sprintf("Free slots on %s, pick a time:", dateStr)
	if _, err := b.tgService.SendWithKeyboard(chatID, text, keyboard); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send time keyboard")
	}
}

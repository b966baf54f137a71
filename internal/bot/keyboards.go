package bot

import (
	"context"
	"time"

	"courtbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	btnReserve  = "🎾 Reserve"
	btnCancel   = "❌ Cancel"
	btnLocation = "📍 Location"
	btnSupport  = "🛟 Support"
	btnExport   = "📤 Export"
	btnStats    = "📊 Stats"
)

func mainMenuKeyboard(isManager bool) tgbotapi.ReplyKeyboardMarkup {
	rows := [][]tgbotapi.KeyboardButton{
		{
			tgbotapi.NewKeyboardButton(btnReserve),
			tgbotapi.NewKeyboardButton(btnCancel),
		},
		{
			tgbotapi.NewKeyboardButton(btnLocation),
			tgbotapi.NewKeyboardButton(btnSupport),
		},
	}

	if isManager {
		rows = append(rows, []tgbotapi.KeyboardButton{
			tgbotapi.NewKeyboardButton(btnExport),
			tgbotapi.NewKeyboardButton(btnStats),
		})
	}

	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.ResizeKeyboard = true
	return keyboard
}

// dateSelectionKeyboard строит inline-клавиатуру по датам горизонта,
// по две даты в ряд.
func dateSelectionKeyboard(dates []time.Time) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton

	for _, date := range dates {
		label := date.Format("Mon, Jan 2")
		data := callbackDatePrefix + date.Format(models.DateLayout)
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, data))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// timeSelectionKeyboard строит reply-клавиатуру по свободным слотам,
// по четыре времени в ряд.
func timeSelectionKeyboard(slots []time.Time, loc *time.Location) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	var row []tgbotapi.KeyboardButton

	for _, slot := range slots {
		row = append(row, tgbotapi.NewKeyboardButton(slot.In(loc).Format("15:04")))
		if len(row) == 4 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.ResizeKeyboard = true
	keyboard.OneTimeKeyboard = true
	return keyboard
}

func formatSlot(slot time.Time, loc *time.Location) string {
	return slot.In(loc).Format("Mon, Jan 2 at 15:04")
}

func userDisplayName(from *tgbotapi.User) string {
	if from.UserName != "" {
		return "@" + from.UserName
	}
	name := from.FirstName
	if from.LastName != "" {
		name += " " + from.LastName
	}
	return name
}

func (b *Bot) sendMessage(chatID int64, text string) {
	if _, err := b.tgService.SendMessage(chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) sendMainMenu(ctx context.Context, chatID, userID int64, text string) {
	keyboard := mainMenuKeyboard(b.userService.IsManager(userID))
	if _, err := b.tgService.SendWithKeyboard(chatID, text, keyboard); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send main menu")
	}
}

func (b *Bot) clearState(ctx context.Context, userID int64) {
	if err := b.stateService.ClearUserState(ctx, userID); err != nil {
		b.logger.Warn().Err(err).Int64("user_id", userID).Msg("Failed to clear state")
	}
}

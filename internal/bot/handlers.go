package bot

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"courtbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var timeTextRe = regexp.MustCompile(`^([01]\d|2[0-3]):00$`)

func (b *Bot) handleMessage(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	userID := message.From.ID
	chatID := message.Chat.ID

	if message.IsCommand() {
		switch message.Command() {
		case "start":
			b.handleStart(ctx, chatID, userID, message.From)
		case "reserve":
			b.handleReserve(ctx, chatID, userID)
		case "cancel":
			b.handleCancel(ctx, chatID, userID, message.From)
		case "support":
			b.handleSupport(ctx, chatID, userID)
		case "location":
			b.handleLocation(ctx, chatID, userID)
		case "export":
			b.handleExport(ctx, chatID, userID)
		case "stats":
			b.handleStats(ctx, chatID, userID)
		case "sync":
			b.handleSyncUsers(ctx, chatID, userID)
		default:
			b.sendMainMenu(ctx, chatID, userID, "Unknown command. Choose an option below:")
		}
		return
	}

	// Кнопки главного меню дублируют команды
	switch message.Text {
	case btnReserve:
		b.handleReserve(ctx, chatID, userID)
		return
	case btnCancel:
		b.handleCancel(ctx, chatID, userID, message.From)
		return
	case btnSupport:
		b.handleSupport(ctx, chatID, userID)
		return
	case btnLocation:
		b.handleLocation(ctx, chatID, userID)
		return
	case btnExport:
		b.handleExport(ctx, chatID, userID)
		return
	case btnStats:
		b.handleStats(ctx, chatID, userID)
		return
	}

	state, err := b.stateService.GetUserState(ctx, userID)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to load user state")
	}

	if state != nil && state.Step == models.StateSelectTime && timeTextRe.MatchString(message.Text) {
		b.handleTimeSelection(ctx, chatID, userID, message.From, state, message.Text)
		return
	}

	b.sendMainMenu(ctx, chatID, userID, "Choose an option below:")
}

func (b *Bot) handleStart(ctx context.Context, chatID, userID int64, from *tgbotapi.User) {
	text := fmt.Sprintf("Hello, %s! 🎾\n\nI take reservations for %s.\nOne hour per booking, one active booking per player.",
		from.FirstName, b.court.Name)

	b.clearState(ctx, userID)
	b.sendMainMenu(ctx, chatID, userID, text)
}

func (b *Bot) handleReserve(ctx context.Context, chatID, userID int64) {
	res, err := b.ledger.ActiveReservation(ctx, userID)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}

	if res != nil {
		text := fmt.Sprintf("You already have a court reserved for %s.\nCancel it first if you want another slot.",
			formatSlot(res.SlotStart, b.ledger.Location()))
		b.sendMainMenu(ctx, chatID, userID, text)
		return
	}

	if err := b.stateService.SetUserState(ctx, userID, models.StateSelectDate, nil); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to set state")
	}

	keyboard := dateSelectionKeyboard(b.ledger.SelectableDates())
	if _, err := b.tgService.SendWithInlineKeyboard(chatID, "Pick a date:", keyboard); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send date keyboard")
	}
}

func (b *Bot) handleCancel(ctx context.Context, chatID, userID int64, from *tgbotapi.User) {
	res, err := b.ledger.Cancel(ctx, userID)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}

	if b.metrics != nil {
		b.metrics.ReservationsCancelled.Inc()
	}

	b.clearState(ctx, userID)
	text := fmt.Sprintf("Your reservation for %s is cancelled.", formatSlot(res.SlotStart, b.ledger.Location()))
	b.sendMainMenu(ctx, chatID, userID, text)
}

func (b *Bot) handleSupport(ctx context.Context, chatID, userID int64) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Write to us", b.court.SupportURL),
		),
	)
	if _, err := b.tgService.SendWithInlineKeyboard(chatID, "Questions or problems with a booking?", keyboard); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send support message")
		b.sendMessage(chatID, "Reach us here: "+b.court.SupportURL)
	}
}

func (b *Bot) handleLocation(ctx context.Context, chatID, userID int64) {
	venue := tgbotapi.NewVenue(chatID, b.court.Name, b.court.Address, b.court.Latitude, b.court.Longitude)
	if _, err := b.tgService.Send(venue); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send venue")
		b.sendMessage(chatID, fmt.Sprintf("%s\n%s", b.court.Name, b.court.Address))
	}
}

func (b *Bot) handleTimeSelection(ctx context.Context, chatID, userID int64, from *tgbotapi.User, state *models.UserState, text string) {
	dateStr, _ := state.Data[models.StateDate].(string)
	if dateStr == "" {
		b.clearState(ctx, userID)
		b.sendMainMenu(ctx, chatID, userID, "Session expired, start over with /reserve.")
		return
	}

	slot, err := time.ParseInLocation(models.SlotLayout, dateStr+" "+text, b.ledger.Location())
	if err != nil {
		b.sendMessage(chatID, "That does not look like a valid time, pick one from the keyboard.")
		return
	}

	res, err := b.ledger.Reserve(ctx, userID, userDisplayName(from), slot)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}

	if b.metrics != nil {
		b.metrics.ReservationsCreated.Inc()
	}

	b.clearState(ctx, userID)
	confirmation := fmt.Sprintf("Done! The court is yours on %s. 🎾", formatSlot(res.SlotStart, b.ledger.Location()))
	b.sendMainMenu(ctx, chatID, userID, confirmation)
}

func (b *Bot) handleExport(ctx context.Context, chatID, userID int64) {
	if !b.userService.IsManager(userID) {
		b.sendMainMenu(ctx, chatID, userID, "This command is for managers only.")
		return
	}

	path, count, err := b.exportReservations(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("Export failed")
		b.sendMessage(chatID, "Export failed: "+err.Error())
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = fmt.Sprintf("Reservation book, %d entries", count)
	if _, err := b.tgService.Send(doc); err != nil {
		b.logger.Error().Err(err).Str("path", path).Msg("Failed to send export file")
	}
}

func (b *Bot) handleStats(ctx context.Context, chatID, userID int64) {
	if !b.userService.IsManager(userID) {
		b.sendMainMenu(ctx, chatID, userID, "This command is for managers only.")
		return
	}

	loc := b.ledger.Location()
	now := b.ledger.Now()
	dates := b.ledger.SelectableDates()
	if len(dates) == 0 {
		b.sendMessage(chatID, "No dates in the booking horizon.")
		return
	}

	// Занятость считается по самой книге броней: инверсия доступности
	// записала бы слоты, отрезанные пятиминутным порогом, в занятые.
	reservations, err := b.ledger.ReservationsByDateRange(ctx, dates[0], dates[len(dates)-1])
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	takenByDate := make(map[string]int, len(dates))
	for _, res := range reservations {
		if !res.SlotStart.After(now) {
			continue // протухшая бронь - не нагрузка
		}
		takenByDate[res.SlotStart.In(loc).Format(models.DateLayout)]++
	}

	var sb strings.Builder
	sb.WriteString("📊 Upcoming load:\n")
	total := 0
	for _, date := range dates {
		slots, err := b.ledger.AvailableSlots(ctx, date)
		if err != nil {
			b.replyError(ctx, chatID, err)
			return
		}
		key := date.Format(models.DateLayout)
		total += takenByDate[key]
		sb.WriteString(fmt.Sprintf("%s — %d booked, %d free\n", key, takenByDate[key], len(slots)))
	}
	sb.WriteString(fmt.Sprintf("\nTotal booked ahead: %d", total))

	b.sendMessage(chatID, sb.String())
}

package bot

import (
	"context"
	"errors"

	"courtbot/internal/database"
)

// userMessage переводит ошибки домена в ответ пользователю.
// Всё, что не распознано, прячется за общей фразой.
func userMessage(err error) string {
	switch {
	case errors.Is(err, database.ErrDateOutOfRange):
		return "That date or time is outside the booking window. Pick a slot from the keyboard."
	case errors.Is(err, database.ErrPastSlot):
		return "That slot already started or starts too soon. Pick a later one."
	case errors.Is(err, database.ErrSlotTaken):
		return "Sorry, someone grabbed that slot first. Pick another time."
	case errors.Is(err, database.ErrDuplicateReservation):
		return "You already have an active reservation. Cancel it before booking a new one."
	case errors.Is(err, database.ErrReservationNotFound):
		return "You have no reservation to cancel."
	default:
		return "Something went wrong on our side, please try again."
	}
}

func isDomainError(err error) bool {
	return errors.Is(err, database.ErrDateOutOfRange) ||
		errors.Is(err, database.ErrPastSlot) ||
		errors.Is(err, database.ErrSlotTaken) ||
		errors.Is(err, database.ErrDuplicateReservation) ||
		errors.Is(err, database.ErrReservationNotFound)
}

func (b *Bot) replyError(ctx context.Context, chatID int64, err error) {
	if !isDomainError(err) {
		if b.metrics != nil {
			b.metrics.ErrorsTotal.Inc()
		}
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Handler error")
	}
	b.sendMessage(chatID, userMessage(err))
}

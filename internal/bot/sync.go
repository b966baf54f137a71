package bot

import (
	"context"
	"fmt"

	"courtbot/internal/models"
)

// UsersSheet mirrors the player roster into the audit spreadsheet.
type UsersSheet interface {
	UpdateUsersSheet(ctx context.Context, users []*models.User) error
}

func (b *Bot) handleSyncUsers(ctx context.Context, chatID, userID int64) {
	if !b.userService.IsManager(userID) {
		b.sendMainMenu(ctx, chatID, userID, "This command is for managers only.")
		return
	}

	if b.sheets == nil {
		b.sendMessage(chatID, "The audit spreadsheet is not configured.")
		return
	}

	count, err := b.syncUsersToSheet(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("Users sync failed")
		b.sendMessage(chatID, "Sync failed: "+err.Error())
		return
	}

	b.sendMessage(chatID, fmt.Sprintf("Player roster synced, %d users.", count))
}

// syncUsersToSheet перезаписывает лист Users целиком.
func (b *Bot) syncUsersToSheet(ctx context.Context) (int, error) {
	users, err := b.userService.GetAllUsers(ctx)
	if err != nil {
		return 0, err
	}

	if err := b.sheets.UpdateUsersSheet(ctx, users); err != nil {
		return 0, err
	}

	b.logger.Info().Int("count", len(users)).Msg("Users synced to spreadsheet")
	return len(users), nil
}

package database

import (
	"context"
	"fmt"
	"time"

	"courtbot/internal/models"
)

// CreateOrUpdateUser создает или обновляет пользователя
func (db *DB) CreateOrUpdateUser(ctx context.Context, user *models.User) error {
	query := `
        INSERT INTO users (telegram_id, username, first_name, last_name, is_manager, language_code, last_activity, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(telegram_id) DO UPDATE SET
            username = excluded.username,
            first_name = excluded.first_name,
            last_name = excluded.last_name,
            is_manager = excluded.is_manager,
            language_code = excluded.language_code,
            last_activity = excluded.last_activity,
            updated_at = excluded.updated_at
    `

	_, err := db.ExecContext(ctx, query,
		user.TelegramID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.IsManager,
		user.LanguageCode,
		user.LastActivity,
		user.CreatedAt,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// GetUserByTelegramID возвращает пользователя по Telegram ID
func (db *DB) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	query := `
        SELECT id, telegram_id, username, first_name, last_name, is_manager, language_code, last_activity, created_at, updated_at
        FROM users WHERE telegram_id = ?
    `

	var user models.User
	err := db.QueryRowContext(ctx, query, telegramID).Scan(
		&user.ID,
		&user.TelegramID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.IsManager,
		&user.LanguageCode,
		&user.LastActivity,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// UpdateUserActivity обновляет время последней активности
func (db *DB) UpdateUserActivity(ctx context.Context, telegramID int64) error {
	query := `UPDATE users SET last_activity = ?, updated_at = ? WHERE telegram_id = ?`

	_, err := db.ExecContext(ctx, query, time.Now(), time.Now(), telegramID)
	return err
}

// GetAllUsers возвращает всех пользователей
func (db *DB) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	query := `
        SELECT id, telegram_id, username, first_name, last_name, is_manager, language_code, last_activity, created_at, updated_at
        FROM users ORDER BY created_at DESC
    `

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID,
			&user.TelegramID,
			&user.Username,
			&user.FirstName,
			&user.LastName,
			&user.IsManager,
			&user.LanguageCode,
			&user.LastActivity,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}

	return users, rows.Err()
}

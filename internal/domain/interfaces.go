package domain

import (
	"context"
	"time"

	"courtbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Repository is the reservation row store. It owns both uniqueness
// invariants and decides write races at commit time.
type Repository interface {
	CreateReservation(ctx context.Context, res *models.Reservation, now time.Time) (*models.Reservation, error)
	DeleteReservation(ctx context.Context, userID int64) (*models.Reservation, error)
	GetReservationByUser(ctx context.Context, userID int64) (*models.Reservation, error)
	ReservedSlots(ctx context.Context, date time.Time) ([]time.Time, error)
	GetReservationsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Reservation, error)
	GetAllReservations(ctx context.Context) ([]*models.Reservation, error)

	CreateOrUpdateUser(ctx context.Context, user *models.User) error
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	UpdateUserActivity(ctx context.Context, telegramID int64) error
	GetAllUsers(ctx context.Context) ([]*models.User, error)
}

type StateRepository interface {
	GetState(ctx context.Context, userID int64) (*models.UserState, error)
	SetState(ctx context.Context, state *models.UserState) error
	ClearState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type StateManager interface {
	GetUserState(ctx context.Context, userID int64) (*models.UserState, error)
	SetUserState(ctx context.Context, userID int64, step string, data map[string]interface{}) error
	ClearUserState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// AuditWorker receives reservation lifecycle records for the external
// audit trail.
type AuditWorker interface {
	EnqueueTask(ctx context.Context, taskType string, res *models.Reservation) error
}

// ReservationLedger is the booking core consumed by the transports.
type ReservationLedger interface {
	AvailableSlots(ctx context.Context, date time.Time) ([]time.Time, error)
	Reserve(ctx context.Context, userID int64, userName string, slotStart time.Time) (*models.Reservation, error)
	Cancel(ctx context.Context, userID int64) (*models.Reservation, error)
	ActiveReservation(ctx context.Context, userID int64) (*models.Reservation, error)
	ReservationsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Reservation, error)
	AllReservations(ctx context.Context) ([]*models.Reservation, error)
	SelectableDates() []time.Time
	Now() time.Time
	Location() *time.Location
}

type UserService interface {
	IsManager(userID int64) bool
	IsBlacklisted(userID int64) bool
	SaveUser(ctx context.Context, user *models.User) error
	UpdateUserActivity(ctx context.Context, telegramID int64) error
	GetAllUsers(ctx context.Context) ([]*models.User, error)
}

type TelegramService interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
	SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) (tgbotapi.Message, error)
	SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	AnswerCallback(callbackID string, text string) error
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

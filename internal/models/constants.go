package models

const (
	StateMainMenu   = "main_menu"
	StateSelectDate = "select_date"
	StateSelectTime = "select_time"
)

const (
	// DefaultRedisTTL время жизни состояния пользователя в Redis
	DefaultRedisTTL = 24 * 60 * 60 // 24 часа в секундах

	// RateLimitMessages количество сообщений в окне
	RateLimitMessages = 20

	// RateLimitWindow окно ограничения частоты сообщений (секунды)
	RateLimitWindow = 60

	// WorkerQueueSize размер очереди воркера
	WorkerQueueSize = 128
)

const (
	ParseModeMarkdown = "Markdown"
	ParseModeHTML     = "HTML"
)

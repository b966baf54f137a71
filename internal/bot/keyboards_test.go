package bot

import (
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMainMenuKeyboard(t *testing.T) {
	regular := mainMenuKeyboard(false)
	assert.Len(t, regular.Keyboard, 2)
	assert.True(t, regular.ResizeKeyboard)

	manager := mainMenuKeyboard(true)
	require.Len(t, manager.Keyboard, 3)
	assert.Equal(t, btnExport, manager.Keyboard[2][0].Text)
	assert.Equal(t, btnStats, manager.Keyboard[2][1].Text)
}

func TestDateSelectionKeyboard(t *testing.T) {
	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, 0, 8)
	for i := 0; i < 8; i++ {
		dates = append(dates, base.AddDate(0, 0, i))
	}

	keyboard := dateSelectionKeyboard(dates)

	// 8 дат по две в ряд
	require.Len(t, keyboard.InlineKeyboard, 4)
	first := keyboard.InlineKeyboard[0][0]
	require.NotNil(t, first.CallbackData)
	assert.Equal(t, "date:2026-09-01", *first.CallbackData)
}

func TestDateSelectionKeyboard_OddCount(t *testing.T) {
	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	keyboard := dateSelectionKeyboard([]time.Time{base, base.AddDate(0, 0, 1), base.AddDate(0, 0, 2)})

	require.Len(t, keyboard.InlineKeyboard, 2)
	assert.Len(t, keyboard.InlineKeyboard[0], 2)
	assert.Len(t, keyboard.InlineKeyboard[1], 1)
}

func TestTimeSelectionKeyboard(t *testing.T) {
	day := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	slots := make([]time.Time, 0, 6)
	for h := 9; h < 15; h++ {
		slots = append(slots, day.Add(time.Duration(h)*time.Hour))
	}

	keyboard := timeSelectionKeyboard(slots, time.UTC)

	// 6 слотов по четыре в ряд
	require.Len(t, keyboard.Keyboard, 2)
	assert.Equal(t, "09:00", keyboard.Keyboard[0][0].Text)
	assert.Equal(t, "13:00", keyboard.Keyboard[1][0].Text)
	assert.True(t, keyboard.OneTimeKeyboard)
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "@alice", userDisplayName(&tgbotapi.User{UserName: "alice", FirstName: "Alice"}))
	assert.Equal(t, "Alice Smith", userDisplayName(&tgbotapi.User{FirstName: "Alice", LastName: "Smith"}))
	assert.Equal(t, "Alice", userDisplayName(&tgbotapi.User{FirstName: "Alice"}))
}

func TestTimeTextRegexp(t *testing.T) {
	assert.True(t, timeTextRe.MatchString("09:00"))
	assert.True(t, timeTextRe.MatchString("21:00"))
	assert.False(t, timeTextRe.MatchString("9:00"))
	assert.False(t, timeTextRe.MatchString("09:30"))
	assert.False(t, timeTextRe.MatchString("24:00"))
	assert.False(t, timeTextRe.MatchString("hello"))
}

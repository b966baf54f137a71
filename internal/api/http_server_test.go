package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"courtbot/internal/config"
	"courtbot/internal/database"
	"courtbot/internal/domain"
	"courtbot/internal/models"
	"courtbot/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLedger is the fixed-data ledger used by handler tests.
type stubLedger struct {
	slots        []time.Time
	slotsErr     error
	reservations []*models.Reservation
	dates        []time.Time
	now          time.Time
}

func (s *stubLedger) AvailableSlots(ctx context.Context, date time.Time) ([]time.Time, error) {
	return s.slots, s.slotsErr
}

func (s *stubLedger) Reserve(ctx context.Context, userID int64, userName string, slotStart time.Time) (*models.Reservation, error) {
	return nil, nil
}

func (s *stubLedger) Cancel(ctx context.Context, userID int64) (*models.Reservation, error) {
	return nil, nil
}

func (s *stubLedger) ActiveReservation(ctx context.Context, userID int64) (*models.Reservation, error) {
	return nil, nil
}

func (s *stubLedger) ReservationsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Reservation, error) {
	return s.reservations, nil
}

func (s *stubLedger) AllReservations(ctx context.Context) ([]*models.Reservation, error) {
	return s.reservations, nil
}

func (s *stubLedger) SelectableDates() []time.Time { return s.dates }
func (s *stubLedger) Now() time.Time               { return s.now }
func (s *stubLedger) Location() *time.Location     { return time.UTC }

func testServer(t *testing.T, ledger domain.ReservationLedger, cfg config.APIConfig) *HTTPServer {
	t.Helper()
	logger := zerolog.Nop()
	return NewHTTPServer(cfg, ledger, &logger)
}

func openConfig() config.APIConfig {
	return config.APIConfig{
		Enabled: true,
		HTTP:    config.APIHTTPConfig{Enabled: true, Port: 0},
	}
}

func TestHandleSlots(t *testing.T) {
	day := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	ledger := &stubLedger{
		slots: []time.Time{day.Add(9 * time.Hour), day.Add(10 * time.Hour)},
		now:   day,
	}
	srv := testServer(t, ledger, openConfig())

	t.Run("Success", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/slots?date=2026-09-02", nil)
		rec := httptest.NewRecorder()
		srv.server.Handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Date  string   `json:"date"`
			Slots []string `json:"slots"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "2026-09-02", body.Date)
		assert.Equal(t, []string{"2026-09-02 09:00", "2026-09-02 10:00"}, body.Slots)
	})

	t.Run("MissingDate", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/slots", nil)
		rec := httptest.NewRecorder()
		srv.server.Handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("BadDate", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/slots?date=tomorrow", nil)
		rec := httptest.NewRecorder()
		srv.server.Handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/slots?date=2026-09-02", nil)
		rec := httptest.NewRecorder()
		srv.server.Handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestHandleSlots_OutOfHorizon(t *testing.T) {
	ledger := &stubLedger{slotsErr: database.ErrDateOutOfRange}
	srv := testServer(t, ledger, openConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/slots?date=2030-01-01", nil)
	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "horizon")
}

func TestHandleReservations(t *testing.T) {
	slot := time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC)
	ledger := &stubLedger{
		reservations: []*models.Reservation{
			{ID: 1, UserID: 42, UserName: "@alice", SlotStart: slot, CreatedAt: slot.Add(-time.Hour)},
		},
	}
	srv := testServer(t, ledger, openConfig())

	t.Run("Success", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations?from=2026-09-01&to=2026-09-07", nil)
		rec := httptest.NewRecorder()
		srv.server.Handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Reservations []map[string]any `json:"reservations"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Reservations, 1)
		assert.Equal(t, "2026-09-02 09:00", body.Reservations[0]["slot_start"])
	})

	t.Run("MissingRange", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations?from=2026-09-01", nil)
		rec := httptest.NewRecorder()
		srv.server.Handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("InvertedRange", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations?from=2026-09-07&to=2026-09-01", nil)
		rec := httptest.NewRecorder()
		srv.server.Handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// TestHandleReservations_EndInclusiveRange drives the handler through the
// real ledger and store: to= is the last calendar day of the period, so a
// reservation one day past it must not leak into the response.
func TestHandleReservations_EndInclusiveRange(t *testing.T) {
	logger := zerolog.Nop()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "api.db"), time.UTC, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	policy := config.BookingConfig{OpenHour: 6, CloseHour: 22, HorizonDays: 7, LeadMinutes: 5, Timezone: "UTC"}
	now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	ledger := service.NewReservationService(db, nil, nil, policy, func() time.Time { return now }, &logger)

	_, err = ledger.Reserve(context.Background(), 42, "@alice", time.Date(2026, 9, 3, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	srv := testServer(t, ledger, openConfig())

	fetch := func(from, to string) []map[string]any {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations?from="+from+"&to="+to, nil)
		rec := httptest.NewRecorder()
		srv.server.Handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Reservations []map[string]any `json:"reservations"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return body.Reservations
	}

	assert.Empty(t, fetch("2026-09-01", "2026-09-02"))

	got := fetch("2026-09-01", "2026-09-03")
	require.Len(t, got, 1)
	assert.Equal(t, "2026-09-03 10:00", got[0]["slot_start"])

	// Однодневный период тоже включает свою границу
	require.Len(t, fetch("2026-09-03", "2026-09-03"), 1)
}

func TestHandleDates(t *testing.T) {
	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	ledger := &stubLedger{dates: []time.Time{base, base.AddDate(0, 0, 1)}}
	srv := testServer(t, ledger, openConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dates", nil)
	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2026-09-01")
	assert.Contains(t, rec.Body.String(), "2026-09-02")
}

func TestHealthz_NoAuthRequired(t *testing.T) {
	cfg := openConfig()
	cfg.Auth = config.APIAuthConfig{
		Enabled:      true,
		HeaderAPIKey: "x-api-key",
		APIKeys:      []config.APIClientKey{{Key: "secret", Name: "tests"}},
	}
	srv := testServer(t, &stubLedger{}, cfg)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth(t *testing.T) {
	cfg := openConfig()
	cfg.Auth = config.APIAuthConfig{
		Enabled:      true,
		HeaderAPIKey: "x-api-key",
		APIKeys: []config.APIClientKey{
			{Key: "secret", Name: "tests", Permissions: []string{"read:slots"}},
		},
	}
	srv := testServer(t, &stubLedger{}, cfg)

	t.Run("MissingKey", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/slots?date=2026-09-02", nil)
		rec := httptest.NewRecorder()
		srv.server.Handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("WrongKey", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/slots?date=2026-09-02", nil)
		req.Header.Set("x-api-key", "nope")
		rec := httptest.NewRecorder()
		srv.server.Handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("ValidKey", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/slots?date=2026-09-02", nil)
		req.Header.Set("x-api-key", "secret")
		rec := httptest.NewRecorder()
		srv.server.Handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("PermissionDenied", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations?from=2026-09-01&to=2026-09-02", nil)
		req.Header.Set("x-api-key", "secret")
		rec := httptest.NewRecorder()
		srv.server.Handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestRateLimit(t *testing.T) {
	cfg := openConfig()
	cfg.RateLimit = config.APIRateLimitConfig{RPS: 1, Burst: 2}
	srv := testServer(t, &stubLedger{}, cfg)

	allowed := 0
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/dates", nil)
		rec := httptest.NewRecorder()
		srv.server.Handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			allowed++
		} else {
			assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		}
	}

	// burst=2: первые два запроса проходят, дальше лимит
	assert.Equal(t, 2, allowed)
}

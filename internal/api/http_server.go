package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"courtbot/internal/config"
	"courtbot/internal/database"
	"courtbot/internal/domain"
	"courtbot/internal/models"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// HTTPServer exposes a lightweight read-only HTTP API alongside the bot.
type HTTPServer struct {
	cfg    config.APIConfig
	ledger domain.ReservationLedger
	server *http.Server
	auth   *HTTPAuth
	log    zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, ledger domain.ReservationLedger, logger *zerolog.Logger) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{cfg: cfg, ledger: ledger}
	srv.auth = NewHTTPAuth(cfg)
	if logger != nil {
		srv.log = logger.With().Str("component", "http").Logger()
	} else {
		srv.log = zerolog.Nop()
	}

	mux.HandleFunc("/api/v1/slots", srv.handleSlots)
	mux.HandleFunc("/api/v1/reservations", srv.handleReservations)
	mux.HandleFunc("/api/v1/dates", srv.handleDates)

	root := http.NewServeMux()
	// Служебные эндпоинты живут вне авторизации
	root.HandleFunc("/healthz", srv.handleHealthz)
	root.Handle("/metrics", promhttp.Handler())
	root.Handle("/api/v1/", srv.auth.Wrap(mux))

	handler := srv.loggingMiddleware(root)

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSlots отдает свободные слоты на дату.
// GET /api/v1/slots?date=2026-08-29
func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if dateStr == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}

	date, err := time.ParseInLocation(models.DateLayout, dateStr, s.ledger.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	slots, err := s.ledger.AvailableSlots(r.Context(), date)
	if err != nil {
		if errors.Is(err, database.ErrDateOutOfRange) {
			writeError(w, http.StatusBadRequest, "date is outside the booking horizon")
			return
		}
		s.log.Error().Err(err).Str("date", dateStr).Msg("slots lookup failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]string, 0, len(slots))
	for _, slot := range slots {
		out = append(out, slot.In(s.ledger.Location()).Format(models.SlotLayout))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":  dateStr,
		"slots": out,
	})
}

// handleReservations отдает книгу бронирований за период.
// Обе границы входят в период.
// GET /api/v1/reservations?from=2026-08-29&to=2026-09-05
func (s *HTTPServer) handleReservations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	loc := s.ledger.Location()
	fromStr := strings.TrimSpace(r.URL.Query().Get("from"))
	toStr := strings.TrimSpace(r.URL.Query().Get("to"))
	if fromStr == "" || toStr == "" {
		writeError(w, http.StatusBadRequest, "from and to are required")
		return
	}

	from, err := time.ParseInLocation(models.DateLayout, fromStr, loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date; expected YYYY-MM-DD")
		return
	}
	to, err := time.ParseInLocation(models.DateLayout, toStr, loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date; expected YYYY-MM-DD")
		return
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "to must not be before from")
		return
	}

	reservations, err := s.ledger.ReservationsByDateRange(r.Context(), from, to)
	if err != nil {
		s.log.Error().Err(err).Msg("reservations lookup failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	results := make([]map[string]any, 0, len(reservations))
	for _, res := range reservations {
		results = append(results, map[string]any{
			"id":         res.ID,
			"user_id":    res.UserID,
			"user_name":  res.UserName,
			"slot_start": res.SlotStart.In(loc).Format(models.SlotLayout),
			"created_at": res.CreatedAt.In(loc).Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"reservations": results})
}

// handleDates отдает даты горизонта бронирования.
func (s *HTTPServer) handleDates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	dates := s.ledger.SelectableDates()
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format(models.DateLayout))
	}
	writeJSON(w, http.StatusOK, map[string]any{"dates": out})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

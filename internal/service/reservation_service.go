package service

import (
	"context"
	"time"

	"courtbot/internal/config"
	"courtbot/internal/database"
	"courtbot/internal/domain"
	"courtbot/internal/events"
	"courtbot/internal/models"

	"github.com/rs/zerolog"
)

// Clock supplies "now" in the court's timezone. Injected so tests can
// pin the time; production wiring uses time.Now in the configured zone.
type Clock func() time.Time

// ReservationService is the booking ledger: it owns slot arithmetic and
// the one-reservation-per-user rule on top of the row store. Availability
// is recomputed on every call, never cached - the store re-checks
// exclusivity again at commit time, so a stale read can only lose a race,
// not double-book.
type ReservationService struct {
	repo        domain.Repository
	eventBus    domain.EventPublisher
	auditWorker domain.AuditWorker
	policy      config.BookingConfig
	loc         *time.Location
	clock       Clock
	logger      *zerolog.Logger
}

func NewReservationService(
	repo domain.Repository,
	eventBus domain.EventPublisher,
	auditWorker domain.AuditWorker,
	policy config.BookingConfig,
	clock Clock,
	logger *zerolog.Logger,
) *ReservationService {
	loc := policy.Location()
	if clock == nil {
		clock = func() time.Time { return time.Now().In(loc) }
	}
	return &ReservationService{
		repo:        repo,
		eventBus:    eventBus,
		auditWorker: auditWorker,
		policy:      policy,
		loc:         loc,
		clock:       clock,
		logger:      logger,
	}
}

// Now returns the current time in the court's timezone.
func (s *ReservationService) Now() time.Time {
	return s.clock().In(s.loc)
}

// Location returns the court's timezone.
func (s *ReservationService) Location() *time.Location {
	return s.loc
}

// SelectableDates returns the calendar dates inside the booking horizon,
// today first.
func (s *ReservationService) SelectableDates() []time.Time {
	today := s.midnight(s.Now())
	dates := make([]time.Time, 0, s.policy.HorizonDays+1)
	for i := 0; i <= s.policy.HorizonDays; i++ {
		dates = append(dates, today.AddDate(0, 0, i))
	}
	return dates
}

// AvailableSlots computes the free hourly slot starts for the date:
// the candidates within operating hours, minus reserved ones, minus
// anything starting in less than the lead time. Ascending, no side
// effects.
func (s *ReservationService) AvailableSlots(ctx context.Context, date time.Time) ([]time.Time, error) {
	day := s.midnight(date)
	if err := s.checkHorizon(day); err != nil {
		return nil, err
	}

	reservedList, err := s.repo.ReservedSlots(ctx, day)
	if err != nil {
		return nil, err
	}
	reserved := make(map[int64]struct{}, len(reservedList))
	for _, slot := range reservedList {
		reserved[slot.Unix()] = struct{}{}
	}

	cutoff := s.Now().Add(s.policy.Lead())
	slots := make([]time.Time, 0, s.policy.CloseHour-s.policy.OpenHour)
	for h := s.policy.OpenHour; h < s.policy.CloseHour; h++ {
		slot := day.Add(time.Duration(h) * time.Hour)
		if _, taken := reserved[slot.Unix()]; taken {
			continue
		}
		if slot.Before(cutoff) {
			continue
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// Reserve claims the slot for the user. Validation is re-done here in
// full; the earlier AvailableSlots read is advisory only. A stale
// (already past) reservation held by the same user is purged as part of
// the same transaction.
func (s *ReservationService) Reserve(ctx context.Context, userID int64, userName string, slotStart time.Time) (*models.Reservation, error) {
	slot := slotStart.In(s.loc)
	if err := s.validateSlot(slot); err != nil {
		return nil, err
	}

	now := s.Now()
	res := &models.Reservation{
		UserID:    userID,
		UserName:  userName,
		SlotStart: slot,
	}

	stale, err := s.repo.CreateReservation(ctx, res, now)
	if err != nil {
		return nil, err
	}

	if stale != nil {
		s.publish(events.EventReservationExpired, stale, "expired")
	}
	s.publish(events.EventReservationCreated, res, "created")
	s.enqueueAudit(ctx, "created", res)

	s.logger.Info().
		Int64("user_id", userID).
		Time("slot_start", res.SlotStart).
		Msg("reservation created")

	return res, nil
}

// Cancel deletes the user's reservation and returns the deleted record.
func (s *ReservationService) Cancel(ctx context.Context, userID int64) (*models.Reservation, error) {
	res, err := s.repo.DeleteReservation(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.publish(events.EventReservationCancelled, res, "cancelled")
	s.enqueueAudit(ctx, "cancelled", res)

	s.logger.Info().
		Int64("user_id", userID).
		Time("slot_start", res.SlotStart).
		Msg("reservation cancelled")

	return res, nil
}

// ActiveReservation returns the user's reservation, or nil when there is
// none or the stored one has already started. Expiry here is a read-time
// classification: the stale row stays until the user's next write.
func (s *ReservationService) ActiveReservation(ctx context.Context, userID int64) (*models.Reservation, error) {
	res, err := s.repo.GetReservationByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if res == nil || !res.SlotStart.After(s.Now()) {
		return nil, nil
	}
	return res, nil
}

// ReservationsByDateRange exposes the book for the export and API
// surfaces.
func (s *ReservationService) ReservationsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Reservation, error) {
	return s.repo.GetReservationsByDateRange(ctx, start, end)
}

// AllReservations returns the whole book, oldest slot first.
func (s *ReservationService) AllReservations(ctx context.Context) ([]*models.Reservation, error) {
	return s.repo.GetAllReservations(ctx)
}

func (s *ReservationService) validateSlot(slot time.Time) error {
	if slot.Minute() != 0 || slot.Second() != 0 || slot.Nanosecond() != 0 {
		return database.ErrDateOutOfRange
	}
	if h := slot.Hour(); h < s.policy.OpenHour || h >= s.policy.CloseHour {
		return database.ErrDateOutOfRange
	}
	if err := s.checkHorizon(s.midnight(slot)); err != nil {
		return err
	}
	if slot.Before(s.Now().Add(s.policy.Lead())) {
		return database.ErrPastSlot
	}
	return nil
}

func (s *ReservationService) checkHorizon(day time.Time) error {
	today := s.midnight(s.Now())
	last := today.AddDate(0, 0, s.policy.HorizonDays)
	if day.Before(today) || day.After(last) {
		return database.ErrDateOutOfRange
	}
	return nil
}

func (s *ReservationService) midnight(t time.Time) time.Time {
	t = t.In(s.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
}

func (s *ReservationService) publish(eventType string, res *models.Reservation, action string) {
	if s.eventBus == nil {
		return
	}

	payload := events.ReservationEventPayload{
		ReservationID: res.ID,
		UserID:        res.UserID,
		UserName:      res.UserName,
		SlotStart:     res.SlotStart,
		Action:        action,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("reservation_id", res.ID).Msg("publish event error")
	}
}

func (s *ReservationService) enqueueAudit(ctx context.Context, taskType string, res *models.Reservation) {
	if s.auditWorker == nil {
		return
	}

	if err := s.auditWorker.EnqueueTask(ctx, taskType, res); err != nil {
		s.logger.Error().Err(err).Int64("reservation_id", res.ID).Str("task", taskType).Msg("audit enqueue error")
	}
}

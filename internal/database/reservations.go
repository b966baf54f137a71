package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"courtbot/internal/models"

	"github.com/mattn/go-sqlite3"
)

// CreateReservation inserts the reservation inside one transaction.
//
// The transaction re-checks everything the caller may have read earlier:
// an existing future row for the user fails with ErrDuplicateReservation,
// an existing past row is purged first (lazy expiry), and the UNIQUE
// constraint on slot_start decides slot races at commit time. The purged
// stale row, if any, is returned so the caller can report it.
func (db *DB) CreateReservation(ctx context.Context, res *models.Reservation, now time.Time) (*models.Reservation, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var stale *models.Reservation
	existing, err := scanReservation(tx.QueryRowContext(ctx,
		`SELECT id, user_id, user_name, slot_start, created_at FROM reservations WHERE user_id = ?`,
		res.UserID), db.loc)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check existing reservation: %w", err)
	}

	if existing != nil {
		if existing.SlotStart.After(now) {
			return nil, ErrDuplicateReservation
		}
		// Прошедшая бронь удаляется только здесь, при следующей записи.
		if _, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, existing.ID); err != nil {
			return nil, fmt.Errorf("failed to purge stale reservation: %w", err)
		}
		stale = existing
	}

	createdAt := now
	result, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (user_id, user_name, slot_start, created_at) VALUES (?, ?, ?, ?)`,
		res.UserID, res.UserName, res.SlotStart.In(db.loc).Format(models.SlotLayout), createdAt)
	if err != nil {
		if isUniqueViolation(err, "reservations.slot_start") {
			return nil, ErrSlotTaken
		}
		if isUniqueViolation(err, "reservations.user_id") {
			return nil, ErrDuplicateReservation
		}
		return nil, fmt.Errorf("failed to insert reservation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err, "reservations.slot_start") {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("failed to commit reservation: %w", err)
	}

	res.ID = id
	res.CreatedAt = createdAt
	return stale, nil
}

// DeleteReservation removes the user's row and returns the deleted record
// for audit and notification purposes.
func (db *DB) DeleteReservation(ctx context.Context, userID int64) (*models.Reservation, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := scanReservation(tx.QueryRowContext(ctx,
		`SELECT id, user_id, user_name, slot_start, created_at FROM reservations WHERE user_id = ?`,
		userID), db.loc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reservation: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, res.ID); err != nil {
		return nil, fmt.Errorf("failed to delete reservation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit delete: %w", err)
	}
	return res, nil
}

// GetReservationByUser returns the stored row regardless of expiry,
// or (nil, nil) when the user has none. Expiry classification is the
// service's job.
func (db *DB) GetReservationByUser(ctx context.Context, userID int64) (*models.Reservation, error) {
	res, err := scanReservation(db.QueryRowContext(ctx,
		`SELECT id, user_id, user_name, slot_start, created_at FROM reservations WHERE user_id = ?`,
		userID), db.loc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return res, nil
}

// ReservedSlots returns the slot starts already taken on the given date,
// ascending.
func (db *DB) ReservedSlots(ctx context.Context, date time.Time) ([]time.Time, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT slot_start FROM reservations WHERE strftime('%Y-%m-%d', slot_start) = ? ORDER BY slot_start ASC`,
		date.In(db.loc).Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to get reserved slots: %w", err)
	}
	defer rows.Close()

	var slots []time.Time
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		slot, err := time.ParseInLocation(models.SlotLayout, raw, db.loc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse slot %q: %w", raw, err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// GetReservationsByDateRange returns reservations with [start, end]
// calendar dates, ascending by slot.
func (db *DB) GetReservationsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Reservation, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, user_name, slot_start, created_at FROM reservations
         WHERE strftime('%Y-%m-%d', slot_start) BETWEEN ? AND ?
         ORDER BY slot_start ASC`,
		start.In(db.loc).Format(models.DateLayout), end.In(db.loc).Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to get reservations by range: %w", err)
	}
	defer rows.Close()
	return collectReservations(rows, db.loc)
}

// GetAllReservations returns the whole reservation book, ascending by slot.
func (db *DB) GetAllReservations(ctx context.Context) ([]*models.Reservation, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, user_name, slot_start, created_at FROM reservations ORDER BY slot_start ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservations: %w", err)
	}
	defer rows.Close()
	return collectReservations(rows, db.loc)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner, loc *time.Location) (*models.Reservation, error) {
	var (
		res models.Reservation
		raw string
	)
	if err := row.Scan(&res.ID, &res.UserID, &res.UserName, &raw, &res.CreatedAt); err != nil {
		return nil, err
	}
	slot, err := time.ParseInLocation(models.SlotLayout, raw, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse slot %q: %w", raw, err)
	}
	res.SlotStart = slot
	return &res, nil
}

func collectReservations(rows *sql.Rows, loc *time.Location) ([]*models.Reservation, error) {
	var reservations []*models.Reservation
	for rows.Next() {
		res, err := scanReservation(rows, loc)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}

func isUniqueViolation(err error, constraint string) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	if sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique &&
		sqliteErr.ExtendedCode != sqlite3.ErrConstraintPrimaryKey {
		return false
	}
	return strings.Contains(err.Error(), constraint)
}

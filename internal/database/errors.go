package database

import "errors"

// Ledger error taxonomy. All of these are recoverable conditions reported
// back to the messaging layer, never process-fatal.
var (
	// ErrDateOutOfRange - запрошенная дата вне горизонта бронирования.
	ErrDateOutOfRange = errors.New("date outside the booking horizon")

	// ErrSlotTaken - слот уже занят (проигранная гонка на commit).
	ErrSlotTaken = errors.New("slot already taken")

	// ErrDuplicateReservation - у пользователя уже есть активная бронь.
	ErrDuplicateReservation = errors.New("user already has an active reservation")

	// ErrReservationNotFound - нечего отменять.
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrPastSlot - попытка брони на прошедшее время.
	ErrPastSlot = errors.New("slot start is in the past")
)

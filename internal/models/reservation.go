package models

import "time"

// Reservation is one user's claim on a one-hour court slot.
// The store keeps at most one row per user and one row per slot start.
type Reservation struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name"`
	SlotStart time.Time `json:"slot_start"`
	CreatedAt time.Time `json:"created_at"`
}

// SlotLayout is the storage and wire format for slot starts,
// always rendered in the court's local timezone.
const SlotLayout = "2006-01-02 15:04"

// DateLayout is the calendar-date format used in callbacks and queries.
const DateLayout = "2006-01-02"

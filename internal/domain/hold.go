package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type HoldStatus string

const (
	HoldStatusHeld     HoldStatus = "Held"
	HoldStatusReleased HoldStatus = "Released"
	HoldStatusExpired  HoldStatus = "Expired"
	HoldStatusBooked   HoldStatus = "Booked"
)

// SeatHold is one row of the hold ledger: a single seat held for a single
// showtime. All seats held together in one request share the same token, so
// a hold token names the whole selection.
type SeatHold struct {
	ID         int64
	Token      uuid.UUID
	ShowtimeID int
	SeatID     int
	ActorID    string
	Staff      bool
	Status     HoldStatus
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

func (h SeatHold) ExpiredAt(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}

// Hold is the aggregate result of holding a selection of seats.
type Hold struct {
	Token     uuid.UUID
	SeatIDs   []int
	ExpiresAt time.Time
}

type HoldRepository interface {
	// HoldSeats atomically places a hold on every requested seat. When
	// replaceToken is non-nil the actor's previous hold under that token is
	// released in the same transaction, so shrinking or changing a selection
	// never leaves the actor briefly holding nothing. Returns
	// *SeatUnavailableError when any requested seat is held by someone else
	// or booked.
	HoldSeats(ctx context.Context, showtimeID int, seatIDs []int, actor Actor, ttl time.Duration, replaceToken *uuid.UUID) (*Hold, error)

	// ReleaseSeats releases the actor's live hold rows on the given seats
	// and frees them, shrinking the owning hold. Seats that are free or
	// held by someone else are skipped silently, so the operation is
	// idempotent and never fails on a stale selection.
	ReleaseSeats(ctx context.Context, showtimeID int, seatIDs []int, actor Actor) error

	// GetActiveHold returns the actor's live hold rows under token, or
	// ErrHoldNotFound when none remain.
	GetActiveHold(ctx context.Context, token uuid.UUID, actor Actor) ([]SeatHold, error)

	// ExpireDueHolds flips every hold past its deadline to Expired and frees
	// the seats it was pinning. Rows already being settled are skipped, not
	// waited on. Returns the number of holds expired.
	ExpireDueHolds(ctx context.Context, now time.Time) (int64, error)
}

package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SeatStatus is the cached status stored on a showtime seat row. The hold
// ledger and the bookings table stay authoritative; the cached value is only
// mutated in the same transaction that mutates one of those sources.
type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "Available"
	SeatStatusHeld      SeatStatus = "Held"
	SeatStatusBooked    SeatStatus = "Booked"
)

const SeatTypeCouple = "Couple"

// Seat is an auditorium seat template, immutable once showtimes are
// scheduled against its auditorium.
type Seat struct {
	ID           int
	AuditoriumID int
	RowLabel     string
	SeatNumber   int
	SeatType     string
	Active       bool
}

// CouplePairID returns the pairing id shared by the two adjacent seats of a
// couple pair, or "" for non-couple seats.
func (s Seat) CouplePairID() string {
	if !strings.EqualFold(s.SeatType, SeatTypeCouple) {
		return ""
	}

	return fmt.Sprintf("%s-%d", strings.ToUpper(s.RowLabel), (s.SeatNumber+1)/2)
}

// ShowtimeSeat is the priced snapshot of one seat for one showtime,
// materialized lazily the first time the showtime's seat map is requested.
type ShowtimeSeat struct {
	ID             int
	ShowtimeID     int
	SeatID         int
	EffectivePrice decimal.Decimal
	Status         SeatStatus
	Version        int
}

// SeatViewStatus is the per-requester status rendered on the seat map.
type SeatViewStatus string

const (
	SeatViewAvailable   SeatViewStatus = "available"
	SeatViewHeldByYou   SeatViewStatus = "held-by-you"
	SeatViewHeldByOther SeatViewStatus = "held-by-other"
	SeatViewBooked      SeatViewStatus = "booked"
)

// SeatView is one entry of the seat status projection for a showtime.
type SeatView struct {
	SeatID       int
	RowLabel     string
	SeatNumber   int
	SeatType     string
	CouplePairID string
	Price        decimal.Decimal
	Status       SeatViewStatus
}

// Label renders the human seat label, e.g. "B7".
func (v SeatView) Label() string {
	return fmt.Sprintf("%s%d", v.RowLabel, v.SeatNumber)
}

type SeatRepository interface {
	// EnsureShowtimeSeats materializes the showtime_seats snapshot for the
	// showtime if it does not exist yet. Concurrent callers must not
	// duplicate rows.
	EnsureShowtimeSeats(ctx context.Context, showtimeID int) error

	// GetSeatMap returns the seat projection for the showtime ordered by row
	// label then seat number, merging the cached seat status with live holds
	// so the requesting actor's holds are distinguishable from everyone
	// else's.
	GetSeatMap(ctx context.Context, showtimeID int, actor Actor) ([]SeatView, error)
}

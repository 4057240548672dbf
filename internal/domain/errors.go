package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrRecordNotFound          = errors.New("record not found")
	ErrHoldExpired             = errors.New("your seat hold has expired, please select your seats again")
	ErrHoldNotFound            = errors.New("no active hold found for this showtime")
	ErrSeatConflict            = errors.New("one or more seats changed state before the booking completed")
	ErrCodeGenerationExhausted = errors.New("could not generate a unique booking code")
	ErrTransientStorage        = errors.New("storage is temporarily overloaded, please retry")
	ErrPaymentVerification     = errors.New("payment notification failed verification")
	ErrAmountMismatch          = errors.New("transferred amount does not match the booking total")
	ErrBookingNotPayable       = errors.New("booking is not awaiting payment")
	ErrNoRefundDue             = errors.New("booking has no refund pending")
)

// SeatUnavailableError reports which requested seats could not be held or
// booked, so clients can highlight the exact conflicts on the seat map.
type SeatUnavailableError struct {
	SeatIDs []int
}

func (e *SeatUnavailableError) Error() string {
	ids := make([]string, len(e.SeatIDs))
	for i, id := range e.SeatIDs {
		ids[i] = strconv.Itoa(id)
	}

	return fmt.Sprintf("seat(s) no longer available: %s", strings.Join(ids, ", "))
}

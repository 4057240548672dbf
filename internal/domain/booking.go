package domain

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "Pending"
	BookingStatusConfirmed BookingStatus = "Confirmed"
	BookingStatusCancelled BookingStatus = "Cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "Pending"
	PaymentStatusPaid     PaymentStatus = "Paid"
	PaymentStatusFailed   PaymentStatus = "Failed"
	PaymentStatusRefunded PaymentStatus = "Refunded"
)

type PaymentMethod string

const (
	PaymentMethodTransfer PaymentMethod = "Transfer"
	PaymentMethodCash     PaymentMethod = "Cash"
)

const (
	BookingCodePrefixSelf  = "BK"
	BookingCodePrefixStaff = "STF"

	// CodeGenerationAttempts bounds the retries on a booking code collision
	// before the settlement gives up.
	CodeGenerationAttempts = 5
)

// Booking is a settled selection of seats, with its money totals frozen at
// settlement time. Seat and combo prices on the line items never change
// after creation, even if the catalog is repriced later.
type Booking struct {
	ID             int64
	Code           string
	ShowtimeID     int
	ActorID        string
	ContactEmail   string
	Status         BookingStatus
	PaymentStatus  PaymentStatus
	PaymentMethod  PaymentMethod
	TotalAmount    decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalAmount    decimal.Decimal
	RefundRequired bool
	PaidAt         *time.Time
	CreatedAt      time.Time
	Version        int

	Seats  []BookingSeat
	Combos []BookingCombo
}

// BookingSeat is one seat line of a booking with its price frozen from the
// showtime seat snapshot.
type BookingSeat struct {
	ID         int64
	BookingID  int64
	SeatID     int
	RowLabel   string
	SeatNumber int
	Price      decimal.Decimal
}

// BookingCombo is one concession line of a booking. UnitPrice is frozen from
// the combo catalog at settlement time.
type BookingCombo struct {
	ID        int64
	BookingID int64
	ComboID   int
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	LineTotal decimal.Decimal
}

// DiscountFunc computes a discount for a booking total. The settlement
// engine clamps the result into [0, total].
type DiscountFunc func(total decimal.Decimal) decimal.Decimal

// NoDiscount leaves the total untouched.
func NoDiscount(decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}

// NewBookingCode builds a candidate booking code: prefix, the settlement
// timestamp down to the second, and three random digits. Collisions are
// possible within a second and resolved by the caller retrying.
func NewBookingCode(staff bool, now time.Time) string {
	prefix := BookingCodePrefixSelf
	if staff {
		prefix = BookingCodePrefixStaff
	}

	return fmt.Sprintf("%s%s%03d", prefix, now.Format("060102150405"), rand.IntN(1000))
}

// SettleParams carries everything the settlement transaction needs.
type SettleParams struct {
	HoldToken     uuid.UUID
	ShowtimeID    int
	Actor         Actor
	ContactEmail  string
	PaymentMethod PaymentMethod
	Combos        map[int]int // combo id -> quantity
	Discount      DiscountFunc
}

type BookingRepository interface {
	// Settle converts an active hold into a booking in one transaction:
	// validates the hold, locks and re-checks the seats, freezes prices,
	// computes totals, and flips the seats and hold rows to Booked.
	Settle(ctx context.Context, params SettleParams) (*Booking, error)

	// GetByCode loads a booking with its seat and combo lines.
	GetByCode(ctx context.Context, code string) (*Booking, error)

	// MarkPaid records a successful payment for the booking and confirms
	// it. Marking an already paid booking again is a no-op; the returned
	// bool reports whether this call performed the transition, so callers
	// fire payment side effects exactly once.
	MarkPaid(ctx context.Context, code string, paidAt time.Time) (*Booking, bool, error)

	// Cancel cancels a pending or confirmed booking and frees its seats.
	// Cancelling a paid booking flags it for a manual refund.
	Cancel(ctx context.Context, code string, actor Actor) (*Booking, error)

	// MarkRefunded records that the refund flagged by Cancel has been paid
	// out. Bookings with no refund due are rejected with ErrNoRefundDue;
	// recording an already refunded booking again is a no-op.
	MarkRefunded(ctx context.Context, code string) (*Booking, error)

	// List returns a page of bookings filtered by status and payment
	// status, newest first.
	List(ctx context.Context, status BookingStatus, paymentStatus PaymentStatus, pagination Pagination) ([]Booking, *Metadata, error)
}

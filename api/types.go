package api

import (
	"time"

	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ConflictErrorResponse struct {
	Message   string    `json:"message"`
	SeatIds   []int     `json:"seatIds,omitempty"`
	RequestId string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	ValidationErrors []ValidationError `json:"validationErrors"`
	RequestId        string            `json:"requestId,omitempty"`
	Timestamp        time.Time         `json:"timestamp"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

type Seat struct {
	Id           int             `json:"id"`
	Row          string          `json:"row"`
	Number       int             `json:"number"`
	Label        string          `json:"label"`
	Type         string          `json:"type"`
	CouplePairId string          `json:"couplePairId,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Status       string          `json:"status"`
}

type SeatRow struct {
	Row   string `json:"row"`
	Seats []Seat `json:"seats"`
}

type SeatMapResponse struct {
	ShowtimeId int       `json:"showtimeId"`
	MovieTitle string    `json:"movieTitle"`
	StartsAt   time.Time `json:"startsAt"`
	SeatRows   []SeatRow `json:"seatRows"`
}

type CreateHoldRequest struct {
	SeatIdList        []int   `json:"seatIds" validate:"required,min=1,max=8,unique,dive,gt=0"`
	PreviousHoldToken *string `json:"previousHoldToken,omitempty" validate:"omitempty,uuid"`
}

type HoldResponse struct {
	HoldToken  string    `json:"holdToken"`
	ShowtimeId int       `json:"showtimeId"`
	SeatIds    []int     `json:"seatIds"`
	ExpiresAt  time.Time `json:"expiresAt"`
	HoldTime   int       `json:"holdTime"`
}

type ReleaseHoldRequest struct {
	SeatIdList []int `json:"seatIds" validate:"required,min=1,max=8,unique,dive,gt=0"`
}

type Combo struct {
	Id        int             `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type ComboListResponse struct {
	Combos []Combo `json:"combos"`
}

type BookingComboRequest struct {
	ComboId  int `json:"comboId" validate:"required,gt=0"`
	Quantity int `json:"quantity" validate:"required,gt=0,lte=10"`
}

type CreateBookingRequest struct {
	ShowtimeId    int                   `json:"showtimeId" validate:"required,gt=0"`
	HoldToken     string                `json:"holdToken" validate:"required,uuid"`
	PaymentMethod string                `json:"paymentMethod" validate:"required,payment_method"`
	ContactEmail  string                `json:"contactEmail,omitempty" validate:"omitempty,email"`
	Combos        []BookingComboRequest `json:"combos,omitempty" validate:"omitempty,max=10,dive"`
}

type BookingSeat struct {
	SeatId int             `json:"seatId"`
	Label  string          `json:"label"`
	Price  decimal.Decimal `json:"price"`
}

type BookingCombo struct {
	ComboId   int             `json:"comboId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type BookingResponse struct {
	Code           string          `json:"code"`
	ShowtimeId     int             `json:"showtimeId"`
	Status         string          `json:"status"`
	PaymentStatus  string          `json:"paymentStatus"`
	PaymentMethod  string          `json:"paymentMethod"`
	Seats          []BookingSeat   `json:"seats"`
	Combos         []BookingCombo  `json:"combos,omitempty"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	FinalAmount    decimal.Decimal `json:"finalAmount"`
	RefundRequired bool            `json:"refundRequired,omitempty"`
	PaidAt         *time.Time      `json:"paidAt,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

type BookingSummary struct {
	Code          string          `json:"code"`
	ShowtimeId    int             `json:"showtimeId"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"paymentStatus"`
	PaymentMethod string          `json:"paymentMethod"`
	FinalAmount   decimal.Decimal `json:"finalAmount"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type Metadata struct {
	CurrentPage  int `json:"currentPage"`
	FirstPage    int `json:"firstPage"`
	LastPage     int `json:"lastPage"`
	PageSize     int `json:"pageSize"`
	TotalRecords int `json:"totalRecords"`
}

type BookingListResponse struct {
	Bookings []BookingSummary `json:"bookings"`
	Metadata Metadata         `json:"metadata"`
}

type PaymentCheckoutResponse struct {
	BookingCode     string          `json:"bookingCode"`
	QrPayload       string          `json:"qrPayload"`
	TransferContent string          `json:"transferContent"`
	Amount          decimal.Decimal `json:"amount"`
	BankBin         string          `json:"bankBin"`
	AccountNumber   string          `json:"accountNumber"`
	AccountName     string          `json:"accountName"`
}

type PaymentStatusResponse struct {
	BookingCode   string     `json:"bookingCode"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"paymentStatus"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
}

type WebhookAckResponse struct {
	Success bool `json:"success"`
}

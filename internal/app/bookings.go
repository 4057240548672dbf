package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cinehub/booking-engine/api"
	"github.com/cinehub/booking-engine/internal/domain"
)

func (app *application) CreateBookingHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input api.CreateBookingRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	holdToken, err := uuid.Parse(input.HoldToken)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid hold token"))
		return
	}

	combos := make(map[int]int, len(input.Combos))
	for _, combo := range input.Combos {
		if _, ok := combos[combo.ComboId]; ok {
			app.badRequestResponse(w, r, fmt.Errorf("combo %d appears more than once", combo.ComboId))
			return
		}
		combos[combo.ComboId] = combo.Quantity
	}

	params := domain.SettleParams{
		HoldToken:     holdToken,
		ShowtimeID:    input.ShowtimeId,
		Actor:         app.actorFromRequest(r),
		ContactEmail:  input.ContactEmail,
		PaymentMethod: domain.PaymentMethod(input.PaymentMethod),
		Combos:        combos,
		Discount:      app.discount,
	}

	booking, err := app.bookingRepo.Settle(r.Context(), params)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrHoldNotFound), errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrHoldExpired):
			logger.Warn("settlement rejected, hold expired", "hold_token", holdToken)
			app.conflictResponse(w, r, domain.ErrHoldExpired)
		case errors.Is(err, domain.ErrSeatConflict):
			logger.Warn("settlement rejected, seat state changed", "hold_token", holdToken)
			app.conflictResponse(w, r, domain.ErrSeatConflict)
		case errors.Is(err, domain.ErrCodeGenerationExhausted):
			app.serviceUnavailableResponse(w, r, err)
		case errors.Is(err, domain.ErrTransientStorage):
			app.serviceUnavailableResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	logger.Info("booking settled",
		"booking_code", booking.Code,
		"showtime_id", booking.ShowtimeID,
		"seats", len(booking.Seats),
		"final_amount", booking.FinalAmount,
	)

	err = app.writeJSON(w, http.StatusCreated, toBookingResponse(booking), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) GetBookingHandler(w http.ResponseWriter, r *http.Request) {
	booking, ok := app.loadOwnedBooking(w, r)
	if !ok {
		return
	}

	err := app.writeJSON(w, http.StatusOK, toBookingResponse(booking), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) CancelBookingHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	code, err := app.readBookingCode(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	actor := app.actorFromRequest(r)

	booking, err := app.bookingRepo.Cancel(r.Context(), code, actor)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrTransientStorage):
			app.serviceUnavailableResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	if booking.RefundRequired {
		logger.Warn("cancelled booking was already paid, refund required", "booking_code", booking.Code)
	}

	err = app.writeJSON(w, http.StatusOK, toBookingResponse(booking), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// MarkBookingPaidHandler settles a cash payment taken at the counter.
func (app *application) MarkBookingPaidHandler(w http.ResponseWriter, r *http.Request) {
	code, err := app.readBookingCode(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	booking, paidNow, err := app.bookingRepo.MarkPaid(r.Context(), code, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrBookingNotPayable):
			app.conflictResponse(w, r, err)
		case errors.Is(err, domain.ErrTransientStorage):
			app.serviceUnavailableResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	// The confirmation mail belongs to the Pending to Paid transition, so a
	// repeated request for an already paid booking must not resend it.
	if paidNow {
		app.sendBookingConfirmedMail(booking)
	}

	err = app.writeJSON(w, http.StatusOK, toBookingResponse(booking), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// MarkBookingRefundedHandler records that the refund owed on a cancelled paid
// booking has been paid out by the payment provider.
func (app *application) MarkBookingRefundedHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	code, err := app.readBookingCode(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	booking, err := app.bookingRepo.MarkRefunded(r.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrNoRefundDue):
			app.conflictResponse(w, r, err)
		case errors.Is(err, domain.ErrTransientStorage):
			app.serviceUnavailableResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	logger.Info("refund recorded", "booking_code", booking.Code)

	err = app.writeJSON(w, http.StatusOK, toBookingResponse(booking), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// bookingSortColumns maps the sort fields the listing accepts to the columns
// they order by.
var bookingSortColumns = map[string]string{
	"code":        "code",
	"createdAt":   "created_at",
	"finalAmount": "final_amount",
}

func (app *application) ListBookingsHandler(w http.ResponseWriter, r *http.Request) {
	pagination := domain.Pagination{
		Page:     app.readIntQuery(r, "page", 1),
		PageSize: app.readIntQuery(r, "pageSize", 20),
		Term:     r.URL.Query().Get("search"),
	}

	if pagination.Page < 1 || pagination.PageSize < 1 || pagination.PageSize > 100 {
		app.badRequestResponse(w, r, fmt.Errorf("invalid pagination parameters"))
		return
	}

	if sort := r.URL.Query().Get("sort"); sort != "" {
		column, ok := bookingSortColumns[strings.TrimPrefix(sort, "-")]
		if !ok {
			app.badRequestResponse(w, r, fmt.Errorf("unsupported sort field %q", sort))
			return
		}

		if strings.HasPrefix(sort, "-") {
			column = "-" + column
		}
		pagination.Sort = column
	}

	status := domain.BookingStatus(r.URL.Query().Get("status"))
	paymentStatus := domain.PaymentStatus(r.URL.Query().Get("paymentStatus"))

	bookings, metadata, err := app.bookingRepo.List(r.Context(), status, paymentStatus, pagination)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	summaries := make([]api.BookingSummary, 0, len(bookings))
	for _, booking := range bookings {
		summaries = append(summaries, api.BookingSummary{
			Code:          booking.Code,
			ShowtimeId:    booking.ShowtimeID,
			Status:        string(booking.Status),
			PaymentStatus: string(booking.PaymentStatus),
			PaymentMethod: string(booking.PaymentMethod),
			FinalAmount:   booking.FinalAmount,
			CreatedAt:     booking.CreatedAt,
		})
	}

	resp := api.BookingListResponse{
		Bookings: summaries,
		Metadata: api.Metadata{
			CurrentPage:  metadata.CurrentPage,
			FirstPage:    metadata.FirstPage,
			LastPage:     metadata.LastPage,
			PageSize:     metadata.PageSize,
			TotalRecords: metadata.TotalRecords,
		},
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// loadOwnedBooking fetches the booking named in the URL and enforces that
// customers only see their own bookings. Staff can read any booking.
func (app *application) loadOwnedBooking(w http.ResponseWriter, r *http.Request) (*domain.Booking, bool) {
	code, err := app.readBookingCode(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return nil, false
	}

	booking, err := app.bookingRepo.GetByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.notFoundResponse(w, r)
			return nil, false
		}

		app.serverErrorResponse(w, r, err)
		return nil, false
	}

	actor := app.actorFromRequest(r)
	if !actor.Staff && booking.ActorID != actor.ID {
		app.notFoundResponse(w, r)
		return nil, false
	}

	return booking, true
}

func (app *application) readBookingCode(r *http.Request) (string, error) {
	code := strings.ToUpper(chi.URLParam(r, "bookingCode"))

	if err := app.validator.Var(code, "required,booking_code"); err != nil {
		return "", fmt.Errorf("invalid booking code")
	}

	return code, nil
}

func (app *application) sendBookingConfirmedMail(booking *domain.Booking) {
	if booking.ContactEmail == "" {
		return
	}

	labels := make([]string, 0, len(booking.Seats))
	for _, seat := range booking.Seats {
		labels = append(labels, fmt.Sprintf("%s%d", seat.RowLabel, seat.SeatNumber))
	}

	data := map[string]any{
		"Code":       booking.Code,
		"MovieTitle": "",
		"Showtime":   "",
		"Seats":      strings.Join(labels, ", "),
		"Amount":     booking.FinalAmount.String(),
	}

	if showtime, err := app.catalogRepo.GetShowtime(context.Background(), booking.ShowtimeID); err == nil {
		data["MovieTitle"] = showtime.MovieTitle
		data["Showtime"] = showtime.StartsAt.Format(time.RFC1123)
	}

	recipient := booking.ContactEmail

	app.background(func() {
		err := app.mailer.Send(recipient, "booking_confirmed.tmpl", data)
		if err != nil {
			app.logger.Error("failed to send booking confirmation mail", "booking_code", booking.Code, "error", err)
		}
	})
}

func toBookingResponse(booking *domain.Booking) api.BookingResponse {
	seats := make([]api.BookingSeat, 0, len(booking.Seats))
	for _, seat := range booking.Seats {
		seats = append(seats, api.BookingSeat{
			SeatId: seat.SeatID,
			Label:  fmt.Sprintf("%s%d", seat.RowLabel, seat.SeatNumber),
			Price:  seat.Price,
		})
	}

	combos := make([]api.BookingCombo, 0, len(booking.Combos))
	for _, combo := range booking.Combos {
		combos = append(combos, api.BookingCombo{
			ComboId:   combo.ComboID,
			Name:      combo.Name,
			UnitPrice: combo.UnitPrice,
			Quantity:  combo.Quantity,
			LineTotal: combo.LineTotal,
		})
	}

	return api.BookingResponse{
		Code:           booking.Code,
		ShowtimeId:     booking.ShowtimeID,
		Status:         string(booking.Status),
		PaymentStatus:  string(booking.PaymentStatus),
		PaymentMethod:  string(booking.PaymentMethod),
		Seats:          seats,
		Combos:         combos,
		TotalAmount:    booking.TotalAmount,
		DiscountAmount: booking.DiscountAmount,
		FinalAmount:    booking.FinalAmount,
		RefundRequired: booking.RefundRequired,
		PaidAt:         booking.PaidAt,
		CreatedAt:      booking.CreatedAt,
	}
}

package app

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cinehub/booking-engine/api"
	"github.com/cinehub/booking-engine/internal/domain"
	"github.com/cinehub/booking-engine/internal/payment"
)

const maxWebhookBodySize = 65536

// CreatePaymentCheckoutHandler issues the transfer instructions for an
// unpaid booking: the VietQR payload plus the fields for manual entry.
func (app *application) CreatePaymentCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	booking, ok := app.loadOwnedBooking(w, r)
	if !ok {
		return
	}

	if booking.Status == domain.BookingStatusCancelled || booking.PaymentStatus == domain.PaymentStatusPaid {
		app.conflictResponse(w, r, domain.ErrBookingNotPayable)
		return
	}

	if booking.PaymentMethod != domain.PaymentMethodTransfer {
		app.badRequestResponse(w, r, fmt.Errorf("booking is not payable by bank transfer"))
		return
	}

	account := payment.BankAccount{
		BIN:           app.config.payment.bankBIN,
		AccountNumber: app.config.payment.accountNumber,
		AccountName:   app.config.payment.accountName,
		City:          app.config.payment.accountCity,
	}

	content := payment.TransferContent(booking.Code)

	resp := api.PaymentCheckoutResponse{
		BookingCode:     booking.Code,
		QrPayload:       payment.BuildQRPayload(account, booking.FinalAmount, content),
		TransferContent: content,
		Amount:          booking.FinalAmount,
		BankBin:         account.BIN,
		AccountNumber:   account.AccountNumber,
		AccountName:     account.AccountName,
	}

	err := app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// GetPaymentStatusHandler lets the checkout page poll for settlement of the
// incoming transfer.
func (app *application) GetPaymentStatusHandler(w http.ResponseWriter, r *http.Request) {
	booking, ok := app.loadOwnedBooking(w, r)
	if !ok {
		return
	}

	resp := api.PaymentStatusResponse{
		BookingCode:   booking.Code,
		Status:        string(booking.Status),
		PaymentStatus: string(booking.PaymentStatus),
		PaidAt:        booking.PaidAt,
	}

	err := app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// PaymentWebhookHandler receives transfer notifications from the payment
// provider. Verification failures are rejected without touching any booking.
func (app *application) PaymentWebhookHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize))
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("could not read request body"))
		return
	}

	err = app.webhookVerifier.Verify(r.Header, body)
	if err != nil {
		logger.Warn("payment webhook rejected, verification failed")
		app.errorResponse(w, r, http.StatusBadRequest, domain.ErrPaymentVerification.Error())
		return
	}

	notification, err := payment.ParseNotification(body)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("malformed payment notification"))
		return
	}

	code, found := payment.ExtractBookingCode(notification.Content)
	if !found {
		logger.Warn("payment webhook without booking reference", "reference", notification.Reference)
		app.badRequestResponse(w, r, fmt.Errorf("transfer content carries no booking reference"))
		return
	}

	booking, err := app.bookingRepo.GetByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			logger.Warn("payment webhook for unknown booking", "booking_code", code)
			app.notFoundResponse(w, r)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	if !notification.Amount.Equal(booking.FinalAmount) {
		logger.Warn("payment webhook amount mismatch",
			"booking_code", code,
			"expected", booking.FinalAmount,
			"received", notification.Amount,
		)
		app.errorResponse(w, r, http.StatusBadRequest, domain.ErrAmountMismatch.Error())
		return
	}

	paidAt := notification.TransferredAt
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	// MarkPaid decides under lock whether this delivery performed the
	// transition, so concurrent provider retries cannot both trigger the
	// confirmation mail.
	booking, paidNow, err := app.bookingRepo.MarkPaid(r.Context(), code, paidAt)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBookingNotPayable):
			app.conflictResponse(w, r, err)
		case errors.Is(err, domain.ErrTransientStorage):
			app.serviceUnavailableResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	if paidNow {
		logger.Info("payment reconciled", "booking_code", code, "reference", notification.Reference)
		app.sendBookingConfirmedMail(booking)
	} else {
		logger.Info("duplicate payment notification ignored", "booking_code", code)
	}

	err = app.writeJSON(w, http.StatusOK, api.WebhookAckResponse{Success: true}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

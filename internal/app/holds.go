package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/cinehub/booking-engine/api"
	"github.com/cinehub/booking-engine/internal/domain"
)

func (app *application) CreateHoldHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	showtimeID, err := app.readIntParam(r, "showtimeID")
	if err != nil || showtimeID < 1 {
		app.badRequestResponse(w, r, fmt.Errorf("showtime ID must be greater than zero"))
		return
	}

	var input api.CreateHoldRequest

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	var replaceToken *uuid.UUID
	if input.PreviousHoldToken != nil {
		token, err := uuid.Parse(*input.PreviousHoldToken)
		if err != nil {
			app.badRequestResponse(w, r, fmt.Errorf("invalid previous hold token"))
			return
		}
		replaceToken = &token
	}

	err = app.seatRepo.EnsureShowtimeSeats(r.Context(), showtimeID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.notFoundResponse(w, r)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	actor := app.actorFromRequest(r)
	ttl := app.holdDuration(actor)

	hold, err := app.holdRepo.HoldSeats(r.Context(), showtimeID, input.SeatIdList, actor, ttl, replaceToken)
	if err != nil {
		var seatErr *domain.SeatUnavailableError

		switch {
		case errors.As(err, &seatErr):
			logger.Warn("hold rejected, seats unavailable", "showtime_id", showtimeID, "seat_ids", seatErr.SeatIDs)
			app.seatConflictResponse(w, r, seatErr)
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrHoldNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrTransientStorage):
			app.serviceUnavailableResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	resp := api.HoldResponse{
		HoldToken:  hold.Token.String(),
		ShowtimeId: showtimeID,
		SeatIds:    hold.SeatIDs,
		ExpiresAt:  hold.ExpiresAt,
		HoldTime:   int(ttl / time.Second),
	}

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// ReleaseHoldHandler deselects seats. Seats the caller does not hold are
// skipped rather than rejected, so a stale seat map never makes deselection
// fail.
func (app *application) ReleaseHoldHandler(w http.ResponseWriter, r *http.Request) {
	showtimeID, err := app.readIntParam(r, "showtimeID")
	if err != nil || showtimeID < 1 {
		app.badRequestResponse(w, r, fmt.Errorf("showtime ID must be greater than zero"))
		return
	}

	var input api.ReleaseHoldRequest

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	actor := app.actorFromRequest(r)

	err = app.holdRepo.ReleaseSeats(r.Context(), showtimeID, input.SeatIdList, actor)
	if err != nil {
		if errors.Is(err, domain.ErrTransientStorage) {
			app.serviceUnavailableResponse(w, r, err)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *application) holdDuration(actor domain.Actor) time.Duration {
	if actor.Staff {
		return app.config.holds.staffDuration
	}

	return app.config.holds.duration
}

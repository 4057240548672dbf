package app

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/cinehub/booking-engine/api"
	"github.com/cinehub/booking-engine/internal/domain"
)

func (app *application) GetSeatMapByShowtime(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	showtimeID, err := app.readIntParam(r, "showtimeID")
	if err != nil || showtimeID < 1 {
		app.badRequestResponse(w, r, fmt.Errorf("showtime ID must be greater than zero"))
		return
	}

	showtime, err := app.catalogRepo.GetShowtime(r.Context(), showtimeID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.notFoundResponse(w, r)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	// The snapshot is materialized on first view, so a freshly scheduled
	// showtime becomes sellable without any provisioning step.
	err = app.seatRepo.EnsureShowtimeSeats(r.Context(), showtimeID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	actor := app.actorFromRequest(r)

	seatViews, err := app.seatRepo.GetSeatMap(r.Context(), showtimeID, actor)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if len(seatViews) == 0 {
		logger.Warn("seat map not found for showtime", "showtime_id", showtimeID)
		app.notFoundResponse(w, r)
		return
	}

	resp := toSeatMapResponse(showtime, seatViews)

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toSeatMapResponse(showtime *domain.Showtime, seatViews []domain.SeatView) api.SeatMapResponse {
	return api.SeatMapResponse{
		ShowtimeId: showtime.ID,
		MovieTitle: showtime.MovieTitle,
		StartsAt:   showtime.StartsAt,
		SeatRows:   toSeatRows(seatViews),
	}
}

func toSeatRows(seatViews []domain.SeatView) []api.SeatRow {
	// Seat views are pre-sorted by row label then seat number, so rows can
	// be grouped in a single pass.

	var seatRows []api.SeatRow
	currentRow := api.SeatRow{Row: seatViews[0].RowLabel}

	for _, v := range seatViews {
		if v.RowLabel != currentRow.Row {
			seatRows = append(seatRows, currentRow)
			currentRow = api.SeatRow{Row: v.RowLabel}
		}

		currentRow.Seats = append(currentRow.Seats, api.Seat{
			Id:           v.SeatID,
			Row:          v.RowLabel,
			Number:       v.SeatNumber,
			Label:        v.Label(),
			Type:         v.SeatType,
			CouplePairId: v.CouplePairID,
			Price:        v.Price,
			Status:       string(v.Status),
		})
	}

	seatRows = append(seatRows, currentRow)

	return seatRows
}

package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/cinehub/booking-engine/api"
	"github.com/cinehub/booking-engine/internal/domain"
	"github.com/cinehub/booking-engine/internal/mocks"
)

type SeatsTestSuite struct {
	suite.Suite
	app         *application
	seatRepo    *mocks.MockSeatRepo
	catalogRepo *mocks.MockCatalogRepo
}

func (s *SeatsTestSuite) SetupTest() {
	s.seatRepo = new(mocks.MockSeatRepo)
	s.catalogRepo = new(mocks.MockCatalogRepo)

	s.app = newTestApplication(func(a *application) {
		a.seatRepo = s.seatRepo
		a.catalogRepo = s.catalogRepo
	})
}

func TestSeatsSuite(t *testing.T) {
	suite.Run(t, new(SeatsTestSuite))
}

func (s *SeatsTestSuite) TestListCombos() {
	tests := []struct {
		name           string
		setupMocks     func()
		wantStatus     int
		wantResponse   *api.ComboListResponse
		wantErrMessage string
	}{
		{
			name: "should fail when the catalog query fails",
			setupMocks: func() {
				s.catalogRepo.On("ListCombos", mock.Anything).Return(nil, fmt.Errorf("database error"))
			},
			wantStatus:     http.StatusInternalServerError,
			wantErrMessage: ErrInternalServer,
		},
		{
			name: "should return an empty list when nothing is on sale",
			setupMocks: func() {
				s.catalogRepo.On("ListCombos", mock.Anything).Return([]domain.Combo{}, nil)
			},
			wantStatus:   http.StatusOK,
			wantResponse: &api.ComboListResponse{Combos: []api.Combo{}},
		},
		{
			name: "should return combos on sale",
			setupMocks: func() {
				s.catalogRepo.On("ListCombos", mock.Anything).Return([]domain.Combo{
					{ID: 1, Name: "Popcorn Combo", UnitPrice: decimal.NewFromInt(45), Active: true},
					{ID: 3, Name: "Family Combo", UnitPrice: decimal.NewFromInt(120), Active: true},
				}, nil)
			},
			wantStatus: http.StatusOK,
			wantResponse: &api.ComboListResponse{
				Combos: []api.Combo{
					{Id: 1, Name: "Popcorn Combo", UnitPrice: decimal.NewFromInt(45)},
					{Id: 3, Name: "Family Combo", UnitPrice: decimal.NewFromInt(120)},
				},
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			if tt.setupMocks != nil {
				tt.setupMocks()
			}

			w := executeRequest(s.T(), s.app, http.MethodGet, "/combos", nil)

			s.Equal(tt.wantStatus, w.Code)
			checkErrorResponse(s.T(), w, tt.wantStatus, tt.wantErrMessage)

			if tt.wantResponse != nil {
				var resp api.ComboListResponse
				s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))

				if diff := cmp.Diff(*tt.wantResponse, resp); diff != "" {
					s.T().Errorf("response mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func (s *SeatsTestSuite) TestGetSeatMapByShowtime() {
	startsAt := time.Date(2025, 3, 14, 19, 30, 0, 0, time.UTC)
	showtime := &domain.Showtime{ID: 1, MovieTitle: "Dune", AuditoriumID: 2, StartsAt: startsAt}

	tests := []struct {
		name           string
		url            string
		setupMocks     func()
		wantStatus     int
		wantResponse   *api.SeatMapResponse
		wantErrMessage string
	}{
		{
			name:           "should fail when showtime ID is zero or negative",
			url:            "/showtimes/0/seats",
			wantStatus:     http.StatusBadRequest,
			wantErrMessage: "showtime ID must be greater than zero",
		},
		{
			name: "should fail when showtime does not exist",
			url:  "/showtimes/999/seats",
			setupMocks: func() {
				s.catalogRepo.On("GetShowtime", mock.Anything, 999).Return(nil, domain.ErrRecordNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "should fail when snapshot materialization fails",
			url:  "/showtimes/1/seats",
			setupMocks: func() {
				s.catalogRepo.On("GetShowtime", mock.Anything, 1).Return(showtime, nil)
				s.seatRepo.On("EnsureShowtimeSeats", mock.Anything, 1).Return(fmt.Errorf("database error"))
			},
			wantStatus:     http.StatusInternalServerError,
			wantErrMessage: ErrInternalServer,
		},
		{
			name: "should fail when showtime has no seats",
			url:  "/showtimes/1/seats",
			setupMocks: func() {
				s.catalogRepo.On("GetShowtime", mock.Anything, 1).Return(showtime, nil)
				s.seatRepo.On("EnsureShowtimeSeats", mock.Anything, 1).Return(nil)
				s.seatRepo.On("GetSeatMap", mock.Anything, 1, mock.Anything).Return([]domain.SeatView{}, nil)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "should return seat map grouped by row",
			url:  "/showtimes/1/seats",
			setupMocks: func() {
				s.catalogRepo.On("GetShowtime", mock.Anything, 1).Return(showtime, nil)
				s.seatRepo.On("EnsureShowtimeSeats", mock.Anything, 1).Return(nil)
				s.seatRepo.On("GetSeatMap", mock.Anything, 1, mock.Anything).Return([]domain.SeatView{
					{SeatID: 1, RowLabel: "A", SeatNumber: 1, SeatType: "Standard", Price: decimal.NewFromInt(100), Status: domain.SeatViewAvailable},
					{SeatID: 2, RowLabel: "A", SeatNumber: 2, SeatType: "Standard", Price: decimal.NewFromInt(100), Status: domain.SeatViewBooked},
					{SeatID: 3, RowLabel: "B", SeatNumber: 1, SeatType: "Couple", CouplePairID: "B-1", Price: decimal.NewFromInt(150), Status: domain.SeatViewHeldByOther},
				}, nil)
			},
			wantStatus: http.StatusOK,
			wantResponse: &api.SeatMapResponse{
				ShowtimeId: 1,
				MovieTitle: "Dune",
				StartsAt:   startsAt,
				SeatRows: []api.SeatRow{
					{
						Row: "A",
						Seats: []api.Seat{
							{Id: 1, Row: "A", Number: 1, Label: "A1", Type: "Standard", Price: decimal.NewFromInt(100), Status: "available"},
							{Id: 2, Row: "A", Number: 2, Label: "A2", Type: "Standard", Price: decimal.NewFromInt(100), Status: "booked"},
						},
					},
					{
						Row: "B",
						Seats: []api.Seat{
							{Id: 3, Row: "B", Number: 1, Label: "B1", Type: "Couple", CouplePairId: "B-1", Price: decimal.NewFromInt(150), Status: "held-by-other"},
						},
					},
				},
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			if tt.setupMocks != nil {
				tt.setupMocks()
			}

			w := executeRequest(s.T(), s.app, http.MethodGet, tt.url, nil)

			s.Equal(tt.wantStatus, w.Code)
			checkErrorResponse(s.T(), w, tt.wantStatus, tt.wantErrMessage)

			if tt.wantResponse != nil {
				var resp api.SeatMapResponse
				s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))

				if diff := cmp.Diff(*tt.wantResponse, resp); diff != "" {
					s.T().Errorf("response mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

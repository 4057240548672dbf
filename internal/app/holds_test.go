package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/cinehub/booking-engine/api"
	"github.com/cinehub/booking-engine/internal/domain"
	"github.com/cinehub/booking-engine/internal/mocks"
)

type HoldsTestSuite struct {
	suite.Suite
	app      *application
	seatRepo *mocks.MockSeatRepo
	holdRepo *mocks.MockHoldRepo
}

func (s *HoldsTestSuite) SetupTest() {
	s.seatRepo = new(mocks.MockSeatRepo)
	s.holdRepo = new(mocks.MockHoldRepo)

	s.app = newTestApplication(func(a *application) {
		a.seatRepo = s.seatRepo
		a.holdRepo = s.holdRepo
	})
}

func TestHoldsSuite(t *testing.T) {
	suite.Run(t, new(HoldsTestSuite))
}

func (s *HoldsTestSuite) TestCreateHold() {
	token := uuid.New()
	expiresAt := time.Now().Add(10 * time.Minute)

	tests := []struct {
		name           string
		url            string
		body           any
		setupMocks     func()
		wantStatus     int
		wantErrMessage string
		wantSeatIds    []int
	}{
		{
			name:           "should fail when showtime ID is invalid",
			url:            "/showtimes/0/holds",
			body:           api.CreateHoldRequest{SeatIdList: []int{1}},
			wantStatus:     http.StatusBadRequest,
			wantErrMessage: "showtime ID must be greater than zero",
		},
		{
			name:           "should fail when no seats are selected",
			url:            "/showtimes/1/holds",
			body:           api.CreateHoldRequest{SeatIdList: []int{}},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "must have at least 1 item(s)",
		},
		{
			name:           "should fail when too many seats are selected",
			url:            "/showtimes/1/holds",
			body:           api.CreateHoldRequest{SeatIdList: []int{1, 2, 3, 4, 5, 6, 7, 8, 9}},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "must have at most 8 item(s)",
		},
		{
			name:           "should fail when seat list has duplicates",
			url:            "/showtimes/1/holds",
			body:           api.CreateHoldRequest{SeatIdList: []int{3, 3}},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "must not contain duplicates",
		},
		{
			name:           "should fail when previous hold token is not a uuid",
			url:            "/showtimes/1/holds",
			body:           api.CreateHoldRequest{SeatIdList: []int{1}, PreviousHoldToken: ptr("not-a-uuid")},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "must be a valid UUID",
		},
		{
			name: "should fail when showtime does not exist",
			url:  "/showtimes/999/holds",
			body: api.CreateHoldRequest{SeatIdList: []int{1}},
			setupMocks: func() {
				s.seatRepo.On("EnsureShowtimeSeats", mock.Anything, 999).Return(domain.ErrRecordNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "should surface conflicting seat ids when seats are taken",
			url:  "/showtimes/1/holds",
			body: api.CreateHoldRequest{SeatIdList: []int{4, 5, 12}},
			setupMocks: func() {
				s.seatRepo.On("EnsureShowtimeSeats", mock.Anything, 1).Return(nil)
				s.holdRepo.On("HoldSeats", mock.Anything, 1, []int{4, 5, 12}, mock.Anything, 10*time.Minute, (*uuid.UUID)(nil)).
					Return(nil, &domain.SeatUnavailableError{SeatIDs: []int{4, 12}})
			},
			wantStatus:  http.StatusConflict,
			wantSeatIds: []int{4, 12},
		},
		{
			name: "should return service unavailable when storage stays contended",
			url:  "/showtimes/1/holds",
			body: api.CreateHoldRequest{SeatIdList: []int{1}},
			setupMocks: func() {
				s.seatRepo.On("EnsureShowtimeSeats", mock.Anything, 1).Return(nil)
				s.holdRepo.On("HoldSeats", mock.Anything, 1, []int{1}, mock.Anything, 10*time.Minute, (*uuid.UUID)(nil)).
					Return(nil, fmt.Errorf("gave up: %w", domain.ErrTransientStorage))
			},
			wantStatus:     http.StatusServiceUnavailable,
			wantErrMessage: ErrServiceUnavailable,
		},
		{
			name: "should create hold with valid input",
			url:  "/showtimes/1/holds",
			body: api.CreateHoldRequest{SeatIdList: []int{1, 2}},
			setupMocks: func() {
				s.seatRepo.On("EnsureShowtimeSeats", mock.Anything, 1).Return(nil)
				s.holdRepo.On("HoldSeats", mock.Anything, 1, []int{1, 2}, mock.Anything, 10*time.Minute, (*uuid.UUID)(nil)).
					Return(&domain.Hold{Token: token, SeatIDs: []int{1, 2}, ExpiresAt: expiresAt}, nil)
			},
			wantStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			if tt.setupMocks != nil {
				tt.setupMocks()
			}

			w := executeRequest(s.T(), s.app, http.MethodPost, tt.url, tt.body)

			s.Equal(tt.wantStatus, w.Code)
			checkErrorResponse(s.T(), w, tt.wantStatus, tt.wantErrMessage)

			if tt.wantSeatIds != nil {
				var resp api.ConflictErrorResponse
				s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
				s.Equal(tt.wantSeatIds, resp.SeatIds)
			}

			if tt.wantStatus == http.StatusCreated {
				var resp api.HoldResponse
				s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
				s.Equal(token.String(), resp.HoldToken)
				s.Equal([]int{1, 2}, resp.SeatIds)
				s.Equal(600, resp.HoldTime)
			}
		})
	}
}

func (s *HoldsTestSuite) TestCreateHoldReplacesPreviousHold() {
	previous := uuid.New()
	token := uuid.New()

	s.seatRepo.On("EnsureShowtimeSeats", mock.Anything, 1).Return(nil)
	s.holdRepo.On("HoldSeats", mock.Anything, 1, []int{7}, mock.Anything, 10*time.Minute, &previous).
		Return(&domain.Hold{Token: token, SeatIDs: []int{7}, ExpiresAt: time.Now().Add(10 * time.Minute)}, nil)

	body := api.CreateHoldRequest{SeatIdList: []int{7}, PreviousHoldToken: ptr(previous.String())}
	w := executeRequest(s.T(), s.app, http.MethodPost, "/showtimes/1/holds", body)

	s.Equal(http.StatusCreated, w.Code)
	s.holdRepo.AssertExpectations(s.T())
}

func (s *HoldsTestSuite) TestCreateHoldUsesStaffDuration() {
	token := uuid.New()

	s.seatRepo.On("EnsureShowtimeSeats", mock.Anything, 1).Return(nil)
	s.holdRepo.On("HoldSeats", mock.Anything, 1, []int{7}, domain.StaffActor(42), 30*time.Minute, (*uuid.UUID)(nil)).
		Return(&domain.Hold{Token: token, SeatIDs: []int{7}, ExpiresAt: time.Now().Add(30 * time.Minute)}, nil)

	body := api.CreateHoldRequest{SeatIdList: []int{7}}
	w := executeRequest(s.T(), s.app, http.MethodPost, "/showtimes/1/holds", body, asStaff("42"))

	s.Equal(http.StatusCreated, w.Code)
	s.holdRepo.AssertExpectations(s.T())
}

func (s *HoldsTestSuite) TestReleaseHold() {
	tests := []struct {
		name           string
		body           any
		setupMocks     func()
		wantStatus     int
		wantErrMessage string
	}{
		{
			name:           "should fail when no seats are given",
			body:           api.ReleaseHoldRequest{},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "is required",
		},
		{
			name:           "should fail when seat list has duplicates",
			body:           api.ReleaseHoldRequest{SeatIdList: []int{5, 5}},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "must not contain duplicates",
		},
		{
			name: "should release the caller's seats",
			body: api.ReleaseHoldRequest{SeatIdList: []int{5, 6}},
			setupMocks: func() {
				s.holdRepo.On("ReleaseSeats", mock.Anything, 1, []int{5, 6}, mock.Anything).Return(nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name: "should succeed even when the seats are free or foreign-held",
			body: api.ReleaseHoldRequest{SeatIdList: []int{9}},
			setupMocks: func() {
				// The repository treats those seats as a silent no-op.
				s.holdRepo.On("ReleaseSeats", mock.Anything, 1, []int{9}, mock.Anything).Return(nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name: "should return service unavailable when storage stays contended",
			body: api.ReleaseHoldRequest{SeatIdList: []int{5}},
			setupMocks: func() {
				s.holdRepo.On("ReleaseSeats", mock.Anything, 1, []int{5}, mock.Anything).
					Return(fmt.Errorf("gave up: %w", domain.ErrTransientStorage))
			},
			wantStatus:     http.StatusServiceUnavailable,
			wantErrMessage: ErrServiceUnavailable,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			if tt.setupMocks != nil {
				tt.setupMocks()
			}

			w := executeRequest(s.T(), s.app, http.MethodDelete, "/showtimes/1/holds", tt.body)

			s.Equal(tt.wantStatus, w.Code)
			checkErrorResponse(s.T(), w, tt.wantStatus, tt.wantErrMessage)
		})
	}
}

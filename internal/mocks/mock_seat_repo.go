package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/cinehub/booking-engine/internal/domain"
)

type MockSeatRepo struct {
	mock.Mock
}

func (m *MockSeatRepo) EnsureShowtimeSeats(ctx context.Context, showtimeID int) error {
	args := m.Called(ctx, showtimeID)

	return args.Error(0)
}

func (m *MockSeatRepo) GetSeatMap(ctx context.Context, showtimeID int, actor domain.Actor) ([]domain.SeatView, error) {
	args := m.Called(ctx, showtimeID, actor)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.SeatView), args.Error(1)
}

package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/cinehub/booking-engine/internal/domain"
)

type MockHoldRepo struct {
	mock.Mock
}

func (m *MockHoldRepo) HoldSeats(
	ctx context.Context,
	showtimeID int,
	seatIDs []int,
	actor domain.Actor,
	ttl time.Duration,
	replaceToken *uuid.UUID) (*domain.Hold, error) {

	args := m.Called(ctx, showtimeID, seatIDs, actor, ttl, replaceToken)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Hold), args.Error(1)
}

func (m *MockHoldRepo) ReleaseSeats(ctx context.Context, showtimeID int, seatIDs []int, actor domain.Actor) error {
	args := m.Called(ctx, showtimeID, seatIDs, actor)

	return args.Error(0)
}

func (m *MockHoldRepo) GetActiveHold(ctx context.Context, token uuid.UUID, actor domain.Actor) ([]domain.SeatHold, error) {
	args := m.Called(ctx, token, actor)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.SeatHold), args.Error(1)
}

func (m *MockHoldRepo) ExpireDueHolds(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)

	return args.Get(0).(int64), args.Error(1)
}

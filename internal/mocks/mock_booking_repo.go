package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/cinehub/booking-engine/internal/domain"
)

type MockBookingRepo struct {
	mock.Mock
}

func (m *MockBookingRepo) Settle(ctx context.Context, params domain.SettleParams) (*domain.Booking, error) {
	args := m.Called(ctx, params)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepo) GetByCode(ctx context.Context, code string) (*domain.Booking, error) {
	args := m.Called(ctx, code)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepo) MarkPaid(ctx context.Context, code string, paidAt time.Time) (*domain.Booking, bool, error) {
	args := m.Called(ctx, code, paidAt)

	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}

	return args.Get(0).(*domain.Booking), args.Bool(1), args.Error(2)
}

func (m *MockBookingRepo) MarkRefunded(ctx context.Context, code string) (*domain.Booking, error) {
	args := m.Called(ctx, code)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepo) Cancel(ctx context.Context, code string, actor domain.Actor) (*domain.Booking, error) {
	args := m.Called(ctx, code, actor)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepo) List(
	ctx context.Context,
	status domain.BookingStatus,
	paymentStatus domain.PaymentStatus,
	pagination domain.Pagination) ([]domain.Booking, *domain.Metadata, error) {

	args := m.Called(ctx, status, paymentStatus, pagination)

	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}

	return args.Get(0).([]domain.Booking), args.Get(1).(*domain.Metadata), args.Error(2)
}

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/cinehub/booking-engine/internal/domain"
)

type MockCatalogRepo struct {
	mock.Mock
}

func (m *MockCatalogRepo) GetShowtime(ctx context.Context, showtimeID int) (*domain.Showtime, error) {
	args := m.Called(ctx, showtimeID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Showtime), args.Error(1)
}

func (m *MockCatalogRepo) ListCombos(ctx context.Context) ([]domain.Combo, error) {
	args := m.Called(ctx)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Combo), args.Error(1)
}

package integration_test

import (
	"context"
	"io"
	"log"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"

	"github.com/cinehub/booking-engine/internal/domain"
	"github.com/cinehub/booking-engine/internal/repository"
)

type BaseSuite struct {
	suite.Suite
	db             *pgxpool.Pool
	redis          *redis.Client
	dbContainer    *PostgresContainer
	cacheContainer *RedisContainer

	seatRepo    domain.SeatRepository
	holdRepo    domain.HoldRepository
	bookingRepo domain.BookingRepository
	catalogRepo domain.CatalogRepository
}

func (s *BaseSuite) SetupSuite() {
	ctx := context.Background()

	postgresContainer, err := getDbContainer(ctx)
	if err != nil {
		log.Printf("failed to start container: %s", err)
		return
	}

	redisContainer, err := getCacheContainer(ctx)
	if err != nil {
		log.Printf("failed to start container: %s", err)
		return
	}

	s.dbContainer = postgresContainer
	s.cacheContainer = redisContainer

	db, err := pgxpool.New(ctx, postgresContainer.ConnectionString)
	if err != nil {
		log.Printf("failed to open connection pool: %s", err)
		return
	}

	s.db = db
	s.redis = redis.NewClient(&redis.Options{Addr: redisContainer.ConnectionString})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.seatRepo = repository.NewPostgresSeatRepository(db)
	s.holdRepo = repository.NewPostgresHoldRepository(db, logger)
	s.bookingRepo = repository.NewPostgresBookingRepository(db, logger)
	s.catalogRepo = repository.NewPostgresCatalogRepository(db)

	s.seedCatalog(ctx)
}

func (s *BaseSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.redis != nil {
		s.redis.Close()
	}
	if s.dbContainer != nil {
		if err := testcontainers.TerminateContainer(s.dbContainer.Container.Container); err != nil {
			log.Printf("failed to terminate container: %s", err)
		}
	}
	if s.cacheContainer != nil {
		if err := testcontainers.TerminateContainer(s.cacheContainer.Container); err != nil {
			log.Printf("failed to terminate container: %s", err)
		}
	}
}

// SetupTest resets everything the tests mutate. The seeded catalog stays.
func (s *BaseSuite) SetupTest() {
	_, err := s.db.Exec(context.Background(), `
		TRUNCATE booking_combos, booking_seats, bookings, seat_holds, showtime_seats
		RESTART IDENTITY`)
	s.Require().NoError(err)
}

// seedCatalog inserts a static catalog: one auditorium with four standard
// seats on row A and one couple pair on row B, one showtime and one combo.
func (s *BaseSuite) seedCatalog(ctx context.Context) {
	_, err := s.db.Exec(ctx, `
		INSERT INTO auditoriums (id, name) VALUES (1, 'Screen 1');

		INSERT INTO seat_types (id, name, price_multiplier) VALUES
			(1, 'Standard', 1.00),
			(2, 'Couple', `+testCoupleMultiplier+`);

		INSERT INTO seats (id, auditorium_id, row_label, seat_number, seat_type_id) VALUES
			(1, 1, 'A', 1, 1),
			(2, 1, 'A', 2, 1),
			(3, 1, 'A', 3, 1),
			(4, 1, 'A', 4, 1),
			(5, 1, 'B', 1, 2),
			(6, 1, 'B', 2, 2);

		INSERT INTO showtimes (id, movie_title, auditorium_id, starts_at, base_price)
		VALUES (1, 'Interstellar', 1, NOW() + INTERVAL '1 day', `+testBasePrice+`);

		INSERT INTO combos (id, name, unit_price, active) VALUES
			(1, 'Popcorn Combo', 45.00, true),
			(2, 'Retired Combo', 30.00, false);
	`)
	if err != nil {
		log.Printf("failed to seed catalog: %s", err)
	}
}

// holdSeats is a shortcut used by most tests to claim seats for an actor.
func (s *BaseSuite) holdSeats(actor domain.Actor, seatIDs []int, ttl time.Duration) *domain.Hold {
	s.T().Helper()

	err := s.seatRepo.EnsureShowtimeSeats(context.Background(), testShowtimeID)
	s.Require().NoError(err)

	hold, err := s.holdRepo.HoldSeats(context.Background(), testShowtimeID, seatIDs, actor, ttl, nil)
	s.Require().NoError(err)

	return hold
}
